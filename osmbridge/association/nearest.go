package association

import (
	"math"

	"github.com/dhconnelly/rtreego"
	"github.com/rubenv/osmbridge/osmbridge/feature"
	"github.com/rubenv/osmbridge/osmbridge/geodesy"
)

// indexedSegment wraps one segment of a line for R-tree storage.
type indexedSegment struct {
	lineID int64
	a, b   geodesy.Point
}

// Bounds implements rtreego.Spatial.
func (s *indexedSegment) Bounds() rtreego.Rect {
	return rectAround(
		math.Min(s.a.Lon, s.b.Lon), math.Min(s.a.Lat, s.b.Lat),
		math.Max(s.a.Lon, s.b.Lon), math.Max(s.a.Lat, s.b.Lat),
	)
}

func rectAround(minLon, minLat, maxLon, maxLat float64) rtreego.Rect {
	// R-tree rectangles need non-zero sides.
	const epsilon = 1e-9

	lonLength := maxLon - minLon
	latLength := maxLat - minLat
	if lonLength < epsilon {
		lonLength = epsilon
	}
	if latLength < epsilon {
		latLength = epsilon
	}

	rect, _ := rtreego.NewRect(rtreego.Point{minLon, minLat}, []float64{lonLength, latLength})
	return rect
}

// Associator finds the line closest to a bridge.
type Associator struct {
	tree *rtreego.Rtree

	// Bridges farther than this many meters from every line stay
	// unassociated.
	MaxDistance float64
}

func NewAssociator(lines []*feature.Line, maxDistance float64) *Associator {
	tree := rtreego.NewTree(2, 25, 50)
	for _, l := range lines {
		points := l.Points()
		for i := 0; i+1 < len(points); i++ {
			tree.Insert(&indexedSegment{
				lineID: l.ID,
				a:      points[i],
				b:      points[i+1],
			})
		}
	}
	return &Associator{
		tree:        tree,
		MaxDistance: maxDistance,
	}
}

func (a *Associator) Size() int {
	return a.tree.Size()
}

// Nearest returns the line with the segment closest to p, and the distance
// in meters. Ties go to the lowest line id.
func (a *Associator) Nearest(p geodesy.Point) (int64, float64, bool) {
	if a.MaxDistance <= 0 || !p.Valid() {
		return 0, 0, false
	}

	// Degrees spanned by MaxDistance, widened for longitude by latitude.
	dLat := a.MaxDistance / geodesy.EarthRadius * 180 / math.Pi
	cos := math.Cos(p.Lat * math.Pi / 180)
	if cos < 1e-6 {
		cos = 1e-6
	}
	dLon := dLat / cos

	query := rectAround(p.Lon-dLon, p.Lat-dLat, p.Lon+dLon, p.Lat+dLat)
	candidates := a.tree.SearchIntersect(query)

	found := false
	best := int64(0)
	bestDistance := math.Inf(1)
	for _, c := range candidates {
		seg := c.(*indexedSegment)
		d := geodesy.DistanceToSegment(p, seg.a, seg.b, geodesy.Local)
		if !found || d < bestDistance || (d == bestDistance && seg.lineID < best) {
			found = true
			best = seg.lineID
			bestDistance = d
		}
	}

	if !found || bestDistance > a.MaxDistance {
		return 0, 0, false
	}
	return best, bestDistance, true
}

// Associate assigns the nearest line to every row without one. It returns
// the number of rows that were associated.
func (a *Associator) Associate(rows []Row) int {
	count := 0
	for i := range rows {
		if rows[i].LineID != 0 {
			continue
		}
		id, _, ok := a.Nearest(rows[i].Bridge.Point())
		if !ok {
			continue
		}
		rows[i].LineID = id
		count++
	}
	return count
}
