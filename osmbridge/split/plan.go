package split

import (
	"fmt"
	"math"
	"sort"

	"github.com/rubenv/osmbridge/osmbridge/feature"
	"github.com/rubenv/osmbridge/osmbridge/geodesy"
	"github.com/rubenv/osmbridge/osmbridge/linear"
)

// Split points closer than this many meters to an existing vertex reuse
// that vertex.
const DefaultSnapTolerance = 0.05

// Split is one end of a bridge on the planned line.
type Split struct {
	// Index in the grown vertex sequence.
	Index  int
	Vertex feature.Vertex

	// Whether Vertex was created for this split.
	New bool

	// Where the walk ended, and the line that point lies on. Differs from
	// Vertex when the walk crossed into a connected line.
	Point     geodesy.Point
	LineID    int64
	Shortfall float64
}

type Boundary struct {
	// Input index of the bridge descriptor.
	Bridge int
	Point  BridgePoint

	Backward Split
	Forward  Split
}

type Partition struct {
	Bridge bool

	// Input index of the bridge descriptor of a bridge partition, -1 for
	// approaches.
	Source int

	Vertices []feature.Vertex
}

// Spill is a split point that landed on another line than the one being
// split. The runner continues the bridge into that line once every job
// has finished, see Planner.Extend.
type Spill struct {
	Bridge     int
	Descriptor BridgePoint

	// Line the point lies on, and the end vertex shared with the split line.
	LineID   int64
	Point    geodesy.Point
	Junction feature.Vertex
}

type Plan struct {
	LineID int64

	// Grown vertex sequence, including every inserted split vertex.
	Vertices    []feature.Vertex
	NewVertices []feature.Vertex

	Boundaries []Boundary
	Partitions []Partition

	Rejected []Rejection
	Warnings []Warning
	Spills   []Spill
}

func (plan *Plan) Refs() []int64 {
	refs := make([]int64, len(plan.Vertices))
	for i, v := range plan.Vertices {
		refs[i] = v.ID
	}
	return refs
}

func (plan *Plan) BridgeCount() int {
	n := 0
	for _, part := range plan.Partitions {
		if part.Bridge {
			n++
		}
	}
	return n
}

type Planner struct {
	// Defaults to a walker that never leaves the line.
	Walker        *linear.Walker
	SnapTolerance float64

	// Allocates identities for new vertices.
	NewVertexID func() int64
}

type candidate struct {
	input   int
	bridge  BridgePoint
	nearest int
	start   linear.Position
}

// location is a walk position on the original line, snapped to an
// original vertex when close enough.
type location struct {
	pos    linear.Position
	vertex int
}

func (l location) key() (int, float64) {
	if l.vertex >= 0 {
		return l.vertex, 0
	}
	return l.pos.Segment, l.pos.Offset
}

type placed struct {
	loc   location
	split Split
}

// Plan computes where the line has to be cut for the given bridges.
//
// Invalid descriptors and descriptors overlapping an earlier bridge are
// rejected one by one and listed in the plan. Bridges are handled in
// order of their nearest vertex, then of their projection on the line.
// Descriptors projecting onto the same position keep their input order. When no descriptor survives, the plan is
// returned together with ErrNoBridges.
func (p *Planner) Plan(line *feature.Line, bridges []BridgePoint) (*Plan, error) {
	if len(line.Vertices) < 2 {
		return nil, ErrDegenerateLine
	}
	if len(bridges) == 0 {
		return nil, ErrNoBridges
	}

	plan := &Plan{
		LineID: line.ID,
	}
	points := line.Points()

	walker := p.Walker
	if walker == nil {
		walker = &linear.Walker{}
	}

	candidates := make([]candidate, 0, len(bridges))
	for i, b := range bridges {
		if err := b.Validate(); err != nil {
			plan.Rejected = append(plan.Rejected, Rejection{Bridge: i, Point: b, Err: err})
			continue
		}
		start, _, err := walker.Locate(points, b.Point())
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, candidate{
			input:   i,
			bridge:  b,
			nearest: geodesy.NearestVertexIndex(points, b.Point()),
			start:   start,
		})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.nearest != b.nearest {
			return a.nearest < b.nearest
		}
		return a.start.Before(b.start)
	})

	seq := NewSequence(line.Vertices)
	var last *placed
	for _, c := range candidates {
		fwd, err := walker.WalkFrom(line.ID, points, c.start, c.bridge.Half())
		if err != nil {
			return nil, err
		}
		bwd, err := walker.WalkFrom(line.ID, points, c.start, -c.bridge.Half())
		if err != nil {
			return nil, err
		}

		back := p.snap(points, bwd.Position)
		front := p.snap(points, fwd.Position)
		if last != nil && p.before(back, last.loc) {
			plan.Rejected = append(plan.Rejected, Rejection{Bridge: c.input, Point: c.bridge, Err: ErrOverlappingBridge})
			continue
		}

		b := Boundary{
			Bridge: c.input,
			Point:  c.bridge,
		}
		last = p.place(plan, seq, last, back, bwd)
		b.Backward = last.split
		plan.noteWalk(c, bwd, b.Backward.Vertex)
		last = p.place(plan, seq, last, front, fwd)
		b.Forward = last.split
		plan.noteWalk(c, fwd, b.Forward.Vertex)

		plan.Boundaries = append(plan.Boundaries, b)
	}

	if len(plan.Boundaries) == 0 {
		return plan, ErrNoBridges
	}

	plan.Vertices = seq.Vertices()

	start := 0
	for _, b := range plan.Boundaries {
		plan.partition(seq, start, b.Backward.Index, false, -1)
		plan.partition(seq, b.Backward.Index, b.Forward.Index, true, b.Bridge)
		start = b.Forward.Index
	}
	plan.partition(seq, start, seq.Len()-1, false, -1)

	return plan, nil
}

func (p *Planner) tolerance() float64 {
	return math.Max(p.SnapTolerance, 0)
}

func (p *Planner) snap(points []geodesy.Point, pos linear.Position) location {
	tol := p.tolerance()
	length := geodesy.GreatCircleDistance(points[pos.Segment], points[pos.Segment+1])
	switch {
	case pos.Offset <= tol:
		return location{pos: pos, vertex: pos.Segment}
	case pos.Offset >= length-tol:
		return location{pos: pos, vertex: pos.Segment + 1}
	}
	return location{pos: pos, vertex: -1}
}

// before reports whether a lies before b by more than the snap tolerance.
func (p *Planner) before(a, b location) bool {
	as, ao := a.key()
	bs, bo := b.key()
	if as != bs {
		return as < bs
	}
	return ao < bo-p.tolerance()
}

func (p *Planner) same(a, b location) bool {
	as, ao := a.key()
	bs, bo := b.key()
	return as == bs && math.Abs(ao-bo) <= p.tolerance()
}

func (p *Planner) place(plan *Plan, seq *Sequence, last *placed, loc location, res linear.Result) *placed {
	out := &placed{loc: loc}
	switch {
	case last != nil && p.same(loc, last.loc):
		out.split = Split{
			Index:  last.split.Index,
			Vertex: last.split.Vertex,
		}
	case loc.vertex >= 0:
		idx := seq.Index(loc.vertex)
		out.split = Split{
			Index:  idx,
			Vertex: seq.At(idx),
		}
	default:
		v := feature.VertexAt(p.NewVertexID(), res.Point)
		out.split = Split{
			Index:  seq.Insert(loc.pos.Segment, v),
			Vertex: v,
			New:    true,
		}
		plan.NewVertices = append(plan.NewVertices, v)
	}

	out.split.Point = res.Point
	out.split.LineID = res.LineID
	out.split.Shortfall = res.Shortfall
	return out
}

// noteWalk records the warnings of a walk. A walk that crossed was clamped
// to an end of the line, so junction is the vertex shared with the other
// line.
func (plan *Plan) noteWalk(c candidate, res linear.Result, junction feature.Vertex) {
	bridge := c.input
	if res.Crossed {
		plan.Spills = append(plan.Spills, Spill{
			Bridge:     bridge,
			Descriptor: c.bridge,
			LineID:     res.LineID,
			Point:      res.Point,
			Junction:   junction,
		})
		plan.Warnings = append(plan.Warnings, Warning{
			Kind:    CrossedLine,
			Bridge:  bridge,
			Message: fmt.Sprintf("split point lies on line %d", res.LineID),
		})
	}
	if res.Exhausted {
		plan.Warnings = append(plan.Warnings, Warning{
			Kind:    UnreachableOffset,
			Bridge:  bridge,
			Message: fmt.Sprintf("%.2fm short of the requested span", res.Shortfall),
		})
	}
}

func (plan *Plan) partition(seq *Sequence, from, to int, bridge bool, source int) {
	if to-from < 1 {
		plan.Warnings = append(plan.Warnings, Warning{
			Kind:    DroppedPartition,
			Bridge:  source,
			Message: fmt.Sprintf("partition at vertex %d has no length", from),
		})
		return
	}
	plan.Partitions = append(plan.Partitions, Partition{
		Bridge:   bridge,
		Source:   source,
		Vertices: seq.Slice(from, to),
	})
}

// Extend plans the continuation of a spilled bridge into the line it
// spilled into. The line is cut at the spill point, the piece between the
// junction and the cut becomes the bridge and the rest stays an approach.
// A spill reaching the far end turns the whole line into a bridge.
func (p *Planner) Extend(line *feature.Line, spill Spill) (*Plan, error) {
	if len(line.Vertices) < 2 {
		return nil, ErrDegenerateLine
	}

	last := len(line.Vertices) - 1
	var fromStart bool
	switch spill.Junction.ID {
	case line.Vertices[0].ID:
		fromStart = true
	case line.Vertices[last].ID:
	default:
		return nil, ErrNotConnected
	}

	walker := p.Walker
	if walker == nil {
		walker = &linear.Walker{}
	}
	points := line.Points()
	pos, q, err := walker.Locate(points, spill.Point)
	if err != nil {
		return nil, err
	}

	plan := &Plan{
		LineID: line.ID,
	}
	seq := NewSequence(line.Vertices)
	cut := p.place(plan, seq, nil, p.snap(points, pos), linear.Result{
		Point:    q,
		LineID:   line.ID,
		Position: pos,
	}).split

	end := seq.Len() - 1
	junction := Split{
		Index:  0,
		Vertex: seq.At(0),
		Point:  seq.At(0).Point(),
		LineID: line.ID,
	}
	if !fromStart {
		junction.Index = end
		junction.Vertex = seq.At(end)
		junction.Point = seq.At(end).Point()
	}

	b := Boundary{
		Bridge: spill.Bridge,
		Point:  spill.Descriptor,
	}
	if fromStart {
		b.Backward, b.Forward = junction, cut
		plan.partition(seq, 0, cut.Index, true, spill.Bridge)
		plan.partition(seq, cut.Index, end, false, -1)
	} else {
		b.Backward, b.Forward = cut, junction
		plan.partition(seq, 0, cut.Index, false, -1)
		plan.partition(seq, cut.Index, end, true, spill.Bridge)
	}
	plan.Boundaries = append(plan.Boundaries, b)
	plan.Vertices = seq.Vertices()

	if plan.BridgeCount() == 0 {
		return plan, ErrNoBridges
	}
	return plan, nil
}
