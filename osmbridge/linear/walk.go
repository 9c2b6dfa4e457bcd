// Package linear implements linear referencing over a network of
// polylines: projecting a coordinate onto a line and walking a signed
// distance from there, crossing into a connected line when needed.
package linear

import (
	"math"

	"github.com/rubenv/osmbridge/osmbridge/geodesy"
)

// Distances below this many meters are considered consumed.
const epsilon = 1e-6

// Position is a location on a polyline: the segment between vertex
// Segment and Segment+1, and the distance in meters from vertex Segment.
type Position struct {
	Segment int
	Offset  float64
}

func (p Position) Before(o Position) bool {
	if p.Segment != o.Segment {
		return p.Segment < o.Segment
	}
	return p.Offset < o.Offset
}

type Result struct {
	Point geodesy.Point

	// Line in which Point lies.
	LineID int64

	// Position on the walked line. Clamped to the end of the line when the
	// walk continued into a connected line or ran out of road.
	Position Position

	Crossed   bool
	Exhausted bool

	// Meters that could not be walked when Exhausted.
	Shortfall float64
}

type Walker struct {
	// Index used to continue into connected lines. A nil Index never
	// leaves the walked line.
	Index  *Index
	Metric geodesy.Metric
}

// Locate projects ref onto the closest segment of the line.
func (w *Walker) Locate(points []geodesy.Point, ref geodesy.Point) (Position, geodesy.Point, error) {
	seg, err := geodesy.BestSegment(points, ref, w.Metric)
	if err != nil {
		return Position{}, geodesy.Point{}, err
	}

	a, b := points[seg], points[seg+1]
	length := geodesy.GreatCircleDistance(a, b)
	offset := geodesy.ProjectParameter(ref, a, b, w.Metric) * length

	p, err := pointAt(points, seg, offset, length)
	if err != nil {
		return Position{}, geodesy.Point{}, err
	}
	return Position{Segment: seg, Offset: offset}, p, nil
}

// Walk moves distance meters along the line from the projection of ref.
// Positive distances walk towards the end of the line, negative ones
// towards its start.
func (w *Walker) Walk(id int64, points []geodesy.Point, ref geodesy.Point, distance float64) (Result, error) {
	start, _, err := w.Locate(points, ref)
	if err != nil {
		return Result{}, err
	}
	return w.WalkFrom(id, points, start, distance)
}

// WalkFrom moves distance meters along the line from a known position.
//
// When the line ends before the distance is consumed, the walk continues
// into the first indexed line that shares the end point. Only a single
// hop is made: when that line is too short as well, or when there is no
// connected line, the farthest point reached is returned as an exhausted
// result.
func (w *Walker) WalkFrom(id int64, points []geodesy.Point, start Position, distance float64) (Result, error) {
	if len(points) < 2 {
		return Result{}, geodesy.ErrNoAdjacentSegment
	}

	forward := distance >= 0
	pos, p, remaining, err := along(points, start, math.Abs(distance), forward)
	if err != nil {
		return Result{}, err
	}

	res := Result{
		Point:    p,
		LineID:   id,
		Position: pos,
	}
	if remaining <= epsilon {
		return res, nil
	}

	end := points[0]
	if forward {
		end = points[len(points)-1]
	}

	if w.Index != nil {
		for _, c := range w.Index.Connected(end, id) {
			other, ok := w.Index.Line(c.LineID)
			if !ok {
				continue
			}
			if c.Side == End {
				other = reversed(other)
			}

			_, q, left, err := along(other, Position{}, remaining, true)
			if err != nil {
				return Result{}, err
			}

			res.Point = q
			res.LineID = c.LineID
			res.Crossed = true
			if left > epsilon {
				res.Exhausted = true
				res.Shortfall = left
			}
			return res, nil
		}
	}

	res.Exhausted = true
	res.Shortfall = remaining
	return res, nil
}

// along walks distance meters from start. It returns the position and
// point reached and the distance left over when an end of the line was hit.
func along(points []geodesy.Point, start Position, distance float64, forward bool) (Position, geodesy.Point, float64, error) {
	seg := start.Segment
	off := start.Offset
	remaining := distance

	if forward {
		for seg < len(points)-1 {
			length := geodesy.GreatCircleDistance(points[seg], points[seg+1])
			avail := length - off
			if remaining <= avail+epsilon {
				off = math.Min(off+remaining, length)
				p, err := pointAt(points, seg, off, length)
				return Position{Segment: seg, Offset: off}, p, 0, err
			}
			remaining -= math.Max(avail, 0)
			seg++
			off = 0
		}

		last := len(points) - 2
		length := geodesy.GreatCircleDistance(points[last], points[last+1])
		return Position{Segment: last, Offset: length}, points[last+1], remaining, nil
	}

	for seg >= 0 {
		if remaining <= off+epsilon {
			off = math.Max(off-remaining, 0)
			length := geodesy.GreatCircleDistance(points[seg], points[seg+1])
			p, err := pointAt(points, seg, off, length)
			return Position{Segment: seg, Offset: off}, p, 0, err
		}
		remaining -= off
		seg--
		if seg >= 0 {
			off = geodesy.GreatCircleDistance(points[seg], points[seg+1])
		}
	}

	return Position{}, points[0], remaining, nil
}

func pointAt(points []geodesy.Point, seg int, offset, length float64) (geodesy.Point, error) {
	if offset <= 0 || length == 0 {
		return points[seg], nil
	}
	if offset >= length {
		return points[seg+1], nil
	}
	return geodesy.Interpolate(points[seg], points[seg+1], offset)
}

func reversed(points []geodesy.Point) []geodesy.Point {
	out := make([]geodesy.Point, len(points))
	for i, p := range points {
		out[len(points)-1-i] = p
	}
	return out
}
