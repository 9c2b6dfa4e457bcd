package osmbridge

import (
	"sort"

	"github.com/gogo/protobuf/proto"
	"github.com/paulmach/osm"
	"github.com/rubenv/osmbridge/osmbridge/feature"
	"github.com/rubenv/osmbridge/osmbridge/model"
)

func NodeFromOSM(n *osm.Node) *model.Node {
	return &model.Node{
		Id:   proto.Int64(int64(n.ID)),
		Lat:  proto.Float64(n.Lat),
		Lon:  proto.Float64(n.Lon),
		Tags: model.TagEntries(n.Tags.Map()),
	}
}

func WayFromOSM(w *osm.Way) *model.Way {
	refs := make([]int64, len(w.Nodes))
	for i, n := range w.Nodes {
		refs[i] = int64(n.ID)
	}
	return &model.Way{
		Id:   proto.Int64(int64(w.ID)),
		Refs: refs,
		Tags: model.TagEntries(w.Tags.Map()),
	}
}

func RelationFromOSM(r *osm.Relation) *model.Relation {
	rel := &model.Relation{
		Id:   proto.Int64(int64(r.ID)),
		Tags: model.TagEntries(r.Tags.Map()),
	}
	for _, m := range r.Members {
		t, ok := memberType(m.Type)
		if !ok {
			continue
		}
		rel.Members = append(rel.Members, &model.MemberEntry{
			Id:   proto.Int64(m.Ref),
			Type: proto.Int32(int32(t)),
			Role: proto.String(m.Role),
		})
	}
	return rel
}

func memberType(t osm.Type) (feature.MemberType, bool) {
	switch t {
	case osm.TypeNode:
		return feature.NodeMember, true
	case osm.TypeWay:
		return feature.WayMember, true
	case osm.TypeRelation:
		return feature.RelationMember, true
	}
	return 0, false
}

func osmType(t feature.MemberType) osm.Type {
	switch t {
	case feature.WayMember:
		return osm.TypeWay
	case feature.RelationMember:
		return osm.TypeRelation
	}
	return osm.TypeNode
}

func VertexFromNode(n *model.Node) feature.Vertex {
	return feature.Vertex{
		ID:  n.GetId(),
		Lat: n.GetLat(),
		Lon: n.GetLon(),
	}
}

func NodeFromVertex(v feature.Vertex) *model.Node {
	return &model.Node{
		Id:  proto.Int64(v.ID),
		Lat: proto.Float64(v.Lat),
		Lon: proto.Float64(v.Lon),
	}
}

func WayFromLine(l *feature.Line) *model.Way {
	way := &model.Way{
		Id:   proto.Int64(l.ID),
		Refs: l.Refs(),
		Tags: model.TagEntries(l.Tags),
	}
	if l.Deleted {
		way.Deleted = proto.Bool(true)
	}
	return way
}

func GroupFromRelation(r *model.Relation) *feature.Group {
	g := &feature.Group{
		ID:       r.GetId(),
		Tags:     model.TagMap(r.GetTags()),
		Modified: r.GetModified(),
	}
	for _, m := range r.GetMembers() {
		g.Members = append(g.Members, feature.Member{
			Type: feature.MemberType(m.GetType()),
			Ref:  m.GetId(),
			Role: m.GetRole(),
		})
	}
	return g
}

func RelationFromGroup(g *feature.Group) *model.Relation {
	rel := &model.Relation{
		Id:   proto.Int64(g.ID),
		Tags: model.TagEntries(g.Tags),
	}
	for _, m := range g.Members {
		rel.Members = append(rel.Members, &model.MemberEntry{
			Id:   proto.Int64(m.Ref),
			Type: proto.Int32(int32(m.Type)),
			Role: proto.String(m.Role),
		})
	}
	if g.Modified {
		rel.Modified = proto.Bool(true)
	}
	return rel
}

func osmTags(tags map[string]string) osm.Tags {
	result := make(osm.Tags, 0, len(tags))
	for k, v := range tags {
		result = append(result, osm.Tag{Key: k, Value: v})
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Key < result[j].Key
	})
	return result
}

func osmNode(v feature.Vertex) *osm.Node {
	return &osm.Node{
		ID:      osm.NodeID(v.ID),
		Lat:     v.Lat,
		Lon:     v.Lon,
		Visible: true,
	}
}

func osmWay(l *feature.Line) *osm.Way {
	way := &osm.Way{
		ID:      osm.WayID(l.ID),
		Visible: true,
		Tags:    osmTags(l.Tags),
	}
	for _, v := range l.Vertices {
		way.Nodes = append(way.Nodes, osm.WayNode{ID: osm.NodeID(v.ID)})
	}
	return way
}

func osmRelation(g *feature.Group) *osm.Relation {
	rel := &osm.Relation{
		ID:      osm.RelationID(g.ID),
		Visible: true,
		Tags:    osmTags(g.Tags),
	}
	for _, m := range g.Members {
		rel.Members = append(rel.Members, osm.Member{
			Type: osmType(m.Type),
			Ref:  m.Ref,
			Role: m.Role,
		})
	}
	return rel
}
