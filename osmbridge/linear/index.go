package linear

import (
	"github.com/rubenv/osmbridge/osmbridge/feature"
	"github.com/rubenv/osmbridge/osmbridge/geodesy"
)

// Side tells which end of a line touches a coordinate.
type Side int

const (
	Start Side = iota
	End
)

func (s Side) String() string {
	if s == End {
		return "end"
	}
	return "start"
}

type Endpoint struct {
	LineID int64
	Side   Side
}

// Index maps line end points to the lines that start or end there.
//
// Coordinates are matched exactly, lines only connect when they share the
// literal same end point coordinate. The index keeps a snapshot of every
// line geometry, so it stays valid while the lines themselves are being
// split.
//
// Add is not safe for concurrent use; all lines must be added before the
// index is queried. Queries are safe for concurrent use.
type Index struct {
	lines map[int64][]geodesy.Point
	ends  map[geodesy.Point][]Endpoint
}

func NewIndex() *Index {
	return &Index{
		lines: make(map[int64][]geodesy.Point),
		ends:  make(map[geodesy.Point][]Endpoint),
	}
}

// BuildIndex indexes the given lines, in order.
func BuildIndex(lines []*feature.Line) *Index {
	idx := NewIndex()
	for _, l := range lines {
		idx.Add(l.ID, l.Points())
	}
	return idx
}

// Add indexes a line. Lines with less than two points can never be walked
// and are ignored.
func (x *Index) Add(id int64, points []geodesy.Point) {
	if len(points) < 2 {
		return
	}
	if _, ok := x.lines[id]; ok {
		return
	}

	x.lines[id] = append([]geodesy.Point(nil), points...)

	first := points[0]
	last := points[len(points)-1]
	x.ends[first] = append(x.ends[first], Endpoint{LineID: id, Side: Start})
	x.ends[last] = append(x.ends[last], Endpoint{LineID: id, Side: End})
}

// Connected returns the line ends located at p, in the order they were
// added, leaving out the given line.
func (x *Index) Connected(p geodesy.Point, exclude int64) []Endpoint {
	result := make([]Endpoint, 0)
	for _, e := range x.ends[p] {
		if e.LineID == exclude {
			continue
		}
		result = append(result, e)
	}
	return result
}

// Line returns the indexed geometry of a line.
func (x *Index) Line(id int64) ([]geodesy.Point, bool) {
	points, ok := x.lines[id]
	return points, ok
}

func (x *Index) Len() int {
	return len(x.lines)
}
