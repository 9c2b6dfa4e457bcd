package geodesy

import (
	"math"
	"testing"

	"github.com/cheekybits/is"
)

// meridian returns n points spaced exactly `spacing` meters apart going north.
func meridian(n int, spacing float64) []Point {
	step := spacing / EarthRadius * 180 / math.Pi
	points := make([]Point, n)
	for i := range points {
		points[i] = Point{Lat: 36.98 + float64(i)*step, Lon: -85.90}
	}
	return points
}

func TestGreatCircleDistanceMeridian(t *testing.T) {
	is := is.New(t)

	points := meridian(5, 10)
	for i := 1; i < len(points); i++ {
		d := GreatCircleDistance(points[i-1], points[i])
		is.True(math.Abs(d-10) < 1e-6)
	}
	is.True(math.Abs(Length(points)-40) < 1e-5)
}

func TestInterpolateRoundTrip(t *testing.T) {
	is := is.New(t)

	start := Point{Lat: 36.9879919499241, Lon: -85.9069943619548}
	end := Point{Lat: 36.9905395374629, Lon: -85.9021257060234}
	total := GreatCircleDistance(start, end)

	for _, d := range []float64{0, 0.5, 1, 11.6, 15.1, total / 2, total} {
		p, err := Interpolate(start, end, d)
		is.NoErr(err)
		is.True(math.Abs(GreatCircleDistance(start, p)-d) < 1e-3)
		is.True(math.Abs(GreatCircleDistance(p, end)-(total-d)) < 1e-3)
	}
}

func TestInterpolateZeroLength(t *testing.T) {
	is := is.New(t)

	p := Point{Lat: 10, Lon: 10}
	_, err := Interpolate(p, p, 5)
	is.Equal(err, ErrZeroLengthArc)
}

func TestDistanceToSegment(t *testing.T) {
	is := is.New(t)

	a := Point{Lat: 0, Lon: 0}
	b := Point{Lat: 0, Lon: 2}

	// Perpendicular foot inside the segment
	is.Equal(DistanceToSegment(Point{Lat: 1, Lon: 1}, a, b, Planar), 1.0)

	// Clamped to the end points
	is.Equal(DistanceToSegment(Point{Lat: 0, Lon: 5}, a, b, Planar), 3.0)
	is.Equal(DistanceToSegment(Point{Lat: 0, Lon: -1}, a, b, Planar), 1.0)

	// Degenerate segment
	is.Equal(DistanceToSegment(Point{Lat: 3, Lon: 4}, a, a, Planar), 5.0)

	is.Equal(ProjectParameter(Point{Lat: 1, Lon: 1}, a, b, Planar), 0.5)
	is.Equal(ProjectParameter(Point{Lat: 1, Lon: 9}, a, b, Planar), 1.0)
}

func TestDistanceToSegmentLocal(t *testing.T) {
	is := is.New(t)

	points := meridian(2, 100)
	offset := 10.0 / (EarthRadius * math.Cos(points[0].Lat*math.Pi/180)) * 180 / math.Pi
	p := Point{Lat: (points[0].Lat + points[1].Lat) / 2, Lon: points[0].Lon + offset}

	d := DistanceToSegment(p, points[0], points[1], Local)
	is.True(math.Abs(d-10) < 1e-3)
}

func TestNearestVertexIndex(t *testing.T) {
	is := is.New(t)

	points := []Point{{0, 0}, {0, 1}, {0, 2}, {0, 1}}
	is.Equal(NearestVertexIndex(points, Point{Lat: 0.1, Lon: 1.05}), 1)
	is.Equal(NearestVertexIndex(points, Point{Lat: 0, Lon: -3}), 0)
	is.Equal(NearestVertexIndex(nil, Point{}), -1)
}

func TestBestSegment(t *testing.T) {
	is := is.New(t)

	points := []Point{{0, 0}, {0, 1}, {1, 1}}

	i, err := BestSegment(points, Point{Lat: 0.05, Lon: 0.9}, Planar)
	is.NoErr(err)
	is.Equal(i, 0)

	i, err = BestSegment(points, Point{Lat: 0.9, Lon: 1.1}, Planar)
	is.NoErr(err)
	is.Equal(i, 1)

	// On the shared vertex both segments tie, the first one wins
	i, err = BestSegment(points, Point{Lat: 0, Lon: 1}, Planar)
	is.NoErr(err)
	is.Equal(i, 0)

	_, err = BestSegment(points[:1], Point{}, Planar)
	is.Equal(err, ErrNoAdjacentSegment)
}

func TestParseMetric(t *testing.T) {
	is := is.New(t)

	m, err := ParseMetric("local")
	is.NoErr(err)
	is.Equal(m, Local)

	m, err = ParseMetric("")
	is.NoErr(err)
	is.Equal(m, Planar)

	_, err = ParseMetric("utm")
	is.Err(err)
}
