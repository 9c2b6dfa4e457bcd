// Package geodesy contains the geometric primitives used for linear
// referencing on road networks: great-circle distances, interpolation
// along a great circle and point-to-segment distances.
//
// All coordinates are WGS84 degrees. Distances along the surface are in
// meters on a sphere of radius EarthRadius.
package geodesy

import (
	"errors"
	"math"

	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
)

// EarthRadius is the mean earth radius in meters.
const EarthRadius = 6371000.0

var (
	ErrZeroLengthArc     = errors.New("cannot interpolate along a zero-length arc")
	ErrNoAdjacentSegment = errors.New("no adjacent segment")
)

type Point struct {
	Lat float64
	Lon float64
}

func (p Point) LatLng() s2.LatLng {
	return s2.LatLngFromDegrees(p.Lat, p.Lon)
}

func (p Point) s2Point() s2.Point {
	return s2.PointFromLatLng(p.LatLng())
}

func (p Point) Valid() bool {
	return !math.IsNaN(p.Lat) && !math.IsNaN(p.Lon) &&
		!math.IsInf(p.Lat, 0) && !math.IsInf(p.Lon, 0) &&
		p.Lat >= -90 && p.Lat <= 90 && p.Lon >= -180 && p.Lon <= 180
}

func fromS2(p s2.Point) Point {
	ll := s2.LatLngFromPoint(p)
	return Point{Lat: ll.Lat.Degrees(), Lon: ll.Lng.Degrees()}
}

// GreatCircleDistance returns the surface distance between a and b in meters.
func GreatCircleDistance(a, b Point) float64 {
	return a.s2Point().Distance(b.s2Point()).Radians() * EarthRadius
}

// Interpolate returns the point reached by travelling the given number of
// meters from start towards end along the great circle through both.
// Distances beyond end continue along the same circle.
func Interpolate(start, end Point, meters float64) (Point, error) {
	if start == end {
		return Point{}, ErrZeroLengthArc
	}
	a := start.s2Point()
	b := end.s2Point()
	arc := a.Distance(b)
	if arc == 0 {
		return Point{}, ErrZeroLengthArc
	}

	fraction := meters / (arc.Radians() * EarthRadius)
	return fromS2(s2.InterpolateAtDistance(s1.Angle(fraction)*arc, a, b)), nil
}

// Metric selects how point-to-segment distances are measured.
type Metric int

const (
	// Planar treats longitude and latitude degrees as euclidean
	// coordinates. Results are in degrees and only meaningful for
	// comparisons between nearby segments.
	Planar Metric = iota

	// Local projects onto an equirectangular plane centered at the query
	// point. Results are in meters.
	Local
)

func ParseMetric(s string) (Metric, error) {
	switch s {
	case "", "planar":
		return Planar, nil
	case "local":
		return Local, nil
	}
	return Planar, errors.New("unknown segment metric: " + s)
}

func (m Metric) String() string {
	if m == Local {
		return "local"
	}
	return "planar"
}

func (m Metric) xy(origin, p Point) (float64, float64) {
	if m == Local {
		k := math.Pi / 180 * EarthRadius
		return (p.Lon - origin.Lon) * math.Cos(origin.Lat*math.Pi/180) * k, (p.Lat - origin.Lat) * k
	}
	return p.Lon, p.Lat
}

// ProjectParameter returns the position of the projection of p onto the
// segment a-b as a fraction of the segment, clamped to [0, 1]. Zero-length
// segments yield 0.
func ProjectParameter(p, a, b Point, metric Metric) float64 {
	x, y := metric.xy(p, p)
	x1, y1 := metric.xy(p, a)
	x2, y2 := metric.xy(p, b)

	dx, dy := x2-x1, y2-y1
	if dx == 0 && dy == 0 {
		return 0
	}

	t := ((x-x1)*dx + (y-y1)*dy) / (dx*dx + dy*dy)
	return math.Max(0, math.Min(1, t))
}

// DistanceToSegment returns the distance from p to the closest point of the
// segment a-b, in the units of the metric.
func DistanceToSegment(p, a, b Point, metric Metric) float64 {
	x, y := metric.xy(p, p)
	x1, y1 := metric.xy(p, a)
	x2, y2 := metric.xy(p, b)

	dx, dy := x2-x1, y2-y1
	if dx == 0 && dy == 0 {
		return math.Hypot(x-x1, y-y1)
	}

	t := ProjectParameter(p, a, b, metric)
	return math.Hypot(x-(x1+t*dx), y-(y1+t*dy))
}

// NearestVertexIndex returns the index of the point closest to p by
// great-circle distance. Ties resolve to the lowest index. Returns -1 when
// points is empty.
func NearestVertexIndex(points []Point, p Point) int {
	best := -1
	minDist := math.Inf(1)
	for i, v := range points {
		d := GreatCircleDistance(p, v)
		if d < minDist {
			minDist = d
			best = i
		}
	}
	return best
}

// BestSegment returns the index i of the segment points[i]-points[i+1]
// closest to p, considering only the segments adjacent to the nearest
// vertex.
func BestSegment(points []Point, p Point, metric Metric) (int, error) {
	if len(points) < 2 {
		return -1, ErrNoAdjacentSegment
	}

	closest := NearestVertexIndex(points, p)
	candidates := make([]int, 0, 2)
	if closest > 0 {
		candidates = append(candidates, closest-1)
	}
	if closest < len(points)-1 {
		candidates = append(candidates, closest)
	}

	best := -1
	minDist := math.Inf(1)
	for _, i := range candidates {
		d := DistanceToSegment(p, points[i], points[i+1], metric)
		if d < minDist {
			minDist = d
			best = i
		}
	}
	if best == -1 {
		return -1, ErrNoAdjacentSegment
	}
	return best, nil
}

// Length returns the total great-circle length of a polyline in meters.
func Length(points []Point) float64 {
	total := 0.0
	for i := 1; i < len(points); i++ {
		total += GreatCircleDistance(points[i-1], points[i])
	}
	return total
}
