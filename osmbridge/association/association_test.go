package association

import (
	"strings"
	"testing"

	"github.com/cheekybits/is"
	"github.com/rubenv/osmbridge/osmbridge/feature"
	"github.com/rubenv/osmbridge/osmbridge/geodesy"
	"github.com/rubenv/osmbridge/osmbridge/split"
)

const sample = `STRUCTURE_NUMBER_008,final_osm_id,final_lat,final_long,bridge_length
000001,123.0,40.0001,-75.0001,20
000002,123,40.0005,-75.0001,12.5
000001,123.0,40.0001,-75.0001,20
000003,,40.1,-75.1,8
000004,456,north,-75.2,8
000005,456,40.2,-75.2,30
`

func TestRead(t *testing.T) {
	is := is.New(t)

	res, err := Read(strings.NewReader(sample), Columns{})
	is.NoErr(err)
	is.Equal(res.Duplicates, 1)
	is.Equal(len(res.Invalid), 1)
	is.Equal(res.Invalid[0].Line, 6)
	is.Equal(res.Invalid[0].Column, "final_lat")

	is.Equal(len(res.Rows), 4)
	is.Equal(res.Rows[0].LineID, int64(123))
	is.Equal(res.Rows[0].Bridge, split.BridgePoint{ID: "000001", Lat: 40.0001, Lon: -75.0001, Length: 20})
	is.Equal(res.Rows[1].LineID, int64(123))
	is.Equal(res.Rows[1].Bridge.Length, 12.5)
	is.Equal(res.Rows[2].LineID, int64(0))
	is.Equal(res.Rows[2].Line, 5)
	is.Equal(res.Rows[3].LineID, int64(456))
}

func TestReadCustomColumns(t *testing.T) {
	is := is.New(t)

	in := "way,y,x,len\n7,1.5,2.5,10\n"
	res, err := Read(strings.NewReader(in), Columns{LineID: "way", Lat: "y", Lon: "x", Length: "len"})
	is.NoErr(err)
	is.Equal(len(res.Rows), 1)
	is.Equal(res.Rows[0].LineID, int64(7))
	is.Equal(res.Rows[0].Bridge.ID, "")
	is.Equal(res.Rows[0].Bridge.Point(), geodesy.Point{Lat: 1.5, Lon: 2.5})
}

func TestReadMissingColumn(t *testing.T) {
	is := is.New(t)

	_, err := Read(strings.NewReader("final_osm_id,final_lat\n1,2\n"), Columns{})
	is.Err(err)

	_, err = Read(strings.NewReader(""), Columns{})
	is.Err(err)
}

func TestParseID(t *testing.T) {
	is := is.New(t)

	for _, c := range []struct {
		in  string
		out int64
		ok  bool
	}{
		{"12", 12, true},
		{"12.0", 12, true},
		{"", 0, true},
		{"NaN", 0, true},
		{"12.5", 0, false},
		{"way", 0, false},
	} {
		id, err := parseID(1, "id", c.in)
		is.Equal(err == nil, c.ok)
		is.Equal(id, c.out)
	}
}

func TestJobs(t *testing.T) {
	is := is.New(t)

	res, err := Read(strings.NewReader(sample), Columns{})
	is.NoErr(err)

	jobs := Jobs(res.Rows)
	is.Equal(len(jobs), 2)
	is.Equal(jobs[0].LineID, int64(123))
	is.Equal(len(jobs[0].Bridges), 2)
	is.Equal(jobs[0].Bridges[1].ID, "000002")
	is.Equal(jobs[1].LineID, int64(456))
	is.Equal(len(jobs[1].Bridges), 1)
}

func line(id int64, coords ...float64) *feature.Line {
	l := &feature.Line{ID: id}
	for i := 0; i+1 < len(coords); i += 2 {
		l.Vertices = append(l.Vertices, feature.Vertex{ID: id*100 + int64(i), Lat: coords[i], Lon: coords[i+1]})
	}
	return l
}

func TestNearest(t *testing.T) {
	is := is.New(t)

	lines := []*feature.Line{
		line(1, 40.0, -75.0, 40.0, -74.99, 40.0, -74.98),
		line(2, 40.001, -75.0, 40.001, -74.98),
	}
	a := NewAssociator(lines, 50)
	is.Equal(a.Size(), 3)

	// 0.0001 degrees of latitude is about 11 meters.
	id, d, ok := a.Nearest(geodesy.Point{Lat: 40.0001, Lon: -74.985})
	is.True(ok)
	is.Equal(id, int64(1))
	is.True(d > 10 && d < 12)

	id, _, ok = a.Nearest(geodesy.Point{Lat: 40.0009, Lon: -74.995})
	is.True(ok)
	is.Equal(id, int64(2))

	_, _, ok = a.Nearest(geodesy.Point{Lat: 40.01, Lon: -74.99})
	is.False(ok)
}

func TestAssociate(t *testing.T) {
	is := is.New(t)

	a := NewAssociator([]*feature.Line{line(9, 40.0, -75.0, 40.0, -74.99)}, 25)
	rows := []Row{
		{LineID: 4, Bridge: split.BridgePoint{Lat: 40.0, Lon: -74.995, Length: 5}},
		{Bridge: split.BridgePoint{Lat: 40.0001, Lon: -74.995, Length: 5}},
		{Bridge: split.BridgePoint{Lat: 41, Lon: -74.995, Length: 5}},
	}

	is.Equal(a.Associate(rows), 1)
	is.Equal(rows[0].LineID, int64(4))
	is.Equal(rows[1].LineID, int64(9))
	is.Equal(rows[2].LineID, int64(0))
}
