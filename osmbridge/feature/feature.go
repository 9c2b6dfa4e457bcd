// Package feature holds the in-memory shape of the road network the split
// engine works on: vertices (nodes), lines (ways) and groups (relations).
package feature

import "github.com/rubenv/osmbridge/osmbridge/geodesy"

type MemberType int32

const (
	NodeMember MemberType = iota
	WayMember
	RelationMember
)

func (t MemberType) String() string {
	switch t {
	case NodeMember:
		return "node"
	case WayMember:
		return "way"
	case RelationMember:
		return "relation"
	}
	return "unknown"
}

type Vertex struct {
	ID  int64
	Lat float64
	Lon float64
}

func (v Vertex) Point() geodesy.Point {
	return geodesy.Point{Lat: v.Lat, Lon: v.Lon}
}

func VertexAt(id int64, p geodesy.Point) Vertex {
	return Vertex{ID: id, Lat: p.Lat, Lon: p.Lon}
}

type Line struct {
	ID       int64
	Vertices []Vertex
	Tags     map[string]string
	Deleted  bool
}

// Points returns the coordinates of the line, in order.
func (l *Line) Points() []geodesy.Point {
	points := make([]geodesy.Point, len(l.Vertices))
	for i, v := range l.Vertices {
		points[i] = v.Point()
	}
	return points
}

// Refs returns the vertex identities of the line, in order.
func (l *Line) Refs() []int64 {
	refs := make([]int64, len(l.Vertices))
	for i, v := range l.Vertices {
		refs[i] = v.ID
	}
	return refs
}

func (l *Line) Clone() *Line {
	out := &Line{
		ID:       l.ID,
		Vertices: append([]Vertex(nil), l.Vertices...),
		Tags:     CopyTags(l.Tags),
		Deleted:  l.Deleted,
	}
	return out
}

type Member struct {
	Type MemberType
	Ref  int64
	Role string
}

type Group struct {
	ID       int64
	Tags     map[string]string
	Members  []Member
	Modified bool
}

// References reports whether the group has the given way as a member.
func (g *Group) References(lineID int64) bool {
	for _, m := range g.Members {
		if m.Type == WayMember && m.Ref == lineID {
			return true
		}
	}
	return false
}

func (g *Group) Clone() *Group {
	return &Group{
		ID:       g.ID,
		Tags:     CopyTags(g.Tags),
		Members:  append([]Member(nil), g.Members...),
		Modified: g.Modified,
	}
}

func CopyTags(tags map[string]string) map[string]string {
	out := make(map[string]string, len(tags))
	for k, v := range tags {
		out[k] = v
	}
	return out
}
