package linear

import (
	"testing"

	"github.com/cheekybits/is"
	"github.com/rubenv/osmbridge/osmbridge/feature"
	"github.com/rubenv/osmbridge/osmbridge/geodesy"
)

func TestIndexConnected(t *testing.T) {
	is := is.New(t)

	a := geodesy.Point{Lat: 1, Lon: 1}
	b := geodesy.Point{Lat: 1, Lon: 2}
	c := geodesy.Point{Lat: 2, Lon: 2}

	idx := BuildIndex([]*feature.Line{
		line(1, []geodesy.Point{a, b}),
		line(2, []geodesy.Point{b, c}),
		line(3, []geodesy.Point{c, b}),
		line(4, []geodesy.Point{a}),
	})
	is.Equal(idx.Len(), 3)

	got := idx.Connected(b, 1)
	is.Equal(got, []Endpoint{
		{LineID: 2, Side: Start},
		{LineID: 3, Side: End},
	})

	is.Equal(len(idx.Connected(a, 1)), 0)
	is.Equal(len(idx.Connected(geodesy.Point{Lat: 1.0000001, Lon: 2}, 0)), 0)

	_, ok := idx.Line(4)
	is.False(ok)
	points, ok := idx.Line(2)
	is.True(ok)
	is.Equal(points, []geodesy.Point{b, c})
}

func TestIndexSnapshot(t *testing.T) {
	is := is.New(t)

	points := []geodesy.Point{{Lat: 0, Lon: 0}, {Lat: 0, Lon: 1}}
	idx := NewIndex()
	idx.Add(7, points)

	points[1] = geodesy.Point{Lat: 5, Lon: 5}
	stored, _ := idx.Line(7)
	is.Equal(stored[1], geodesy.Point{Lat: 0, Lon: 1})
	is.Equal(Start.String(), "start")
	is.Equal(End.String(), "end")
}
