package osmbridge

import (
	"context"
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/cheekybits/is"
	"github.com/rubenv/osmbridge/osmbridge/feature"
	"github.com/rubenv/osmbridge/osmbridge/split"
)

// Two primary ways joined at node 4, running north along 75W in steps of
// 0.0001 degrees (about 11 meters), plus a footpath.
const testOSM = `<?xml version="1.0" encoding="UTF-8"?>
<osm version="0.6" generator="test">
  <node id="1" lat="40.0000" lon="-75.0" visible="true"/>
  <node id="2" lat="40.0001" lon="-75.0" visible="true"/>
  <node id="3" lat="40.0002" lon="-75.0" visible="true"/>
  <node id="4" lat="40.0003" lon="-75.0" visible="true"/>
  <node id="5" lat="40.0004" lon="-75.0" visible="true"/>
  <node id="6" lat="40.0005" lon="-75.0" visible="true"/>
  <node id="7" lat="40.0006" lon="-75.0" visible="true"/>
  <node id="8" lat="40.0000" lon="-75.1" visible="true"/>
  <node id="9" lat="40.0001" lon="-75.1" visible="true"/>
  <way id="100" visible="true">
    <nd ref="1"/><nd ref="2"/><nd ref="3"/><nd ref="4"/>
    <tag k="highway" v="primary"/>
    <tag k="name" v="Main Street"/>
  </way>
  <way id="101" visible="true">
    <nd ref="4"/><nd ref="5"/><nd ref="6"/><nd ref="7"/>
    <tag k="highway" v="primary"/>
  </way>
  <way id="102" visible="true">
    <nd ref="8"/><nd ref="9"/>
    <tag k="highway" v="footway"/>
  </way>
  <way id="103" visible="true">
    <nd ref="1"/><nd ref="99"/>
    <tag k="highway" v="service"/>
  </way>
  <relation id="500" visible="true">
    <member type="way" ref="100" role=""/>
    <member type="way" ref="101" role=""/>
    <member type="node" ref="1" role="stop"/>
    <tag k="type" v="route"/>
    <tag k="route" v="bus"/>
  </relation>
  <relation id="501" visible="true">
    <member type="way" ref="102" role=""/>
    <tag k="type" v="route"/>
  </relation>
</osm>
`

func writeFixture(t *testing.T, name, content string) string {
	path := filepath.Join(t.TempDir(), name)
	err := ioutil.WriteFile(path, []byte(content), 0644)
	if err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadOSM(t *testing.T) {
	is := is.New(t)

	path := writeFixture(t, "network.osm", testOSM)
	loaded, err := Load(context.Background(), path, HighwayFilter(DefaultHighways))
	is.NoErr(err)
	is.Equal(loaded.Lines, 2)
	is.Equal(loaded.Groups, 1)
	is.Equal(loaded.Incomplete, []int64{103})

	l, err := loaded.Store.Line(100)
	is.NoErr(err)
	is.Equal(l.Refs(), []int64{1, 2, 3, 4})
	is.Equal(l.Tags["name"], "Main Street")
	is.Equal(l.Vertices[1], feature.Vertex{ID: 2, Lat: 40.0001, Lon: -75.0})

	_, err = loaded.Store.Line(102)
	is.True(split.IsLineNotFound(err))

	g, ok := loaded.Store.Group(500)
	is.True(ok)
	is.Equal(len(g.Members), 3)
	is.Equal(g.Members[2], feature.Member{Type: feature.NodeMember, Ref: 1, Role: "stop"})
	is.Equal(g.Tags["route"], "bus")
}

func TestLoadOSMWithoutFilter(t *testing.T) {
	is := is.New(t)

	path := writeFixture(t, "network.osm", testOSM)
	loaded, err := LoadOSM(context.Background(), path, nil)
	is.NoErr(err)
	is.Equal(loaded.Lines, 3)
	is.Equal(loaded.Groups, 2)
}

const testGeoJSON = `{
  "type": "FeatureCollection",
  "features": [
    {
      "type": "Feature",
      "properties": {"osm_id": 100, "highway": "primary", "lanes": 2},
      "geometry": {"type": "LineString", "coordinates": [[-75.0, 40.0], [-75.0, 40.0001], [-75.0, 40.0001], [-75.0, 40.0002]]}
    },
    {
      "type": "Feature",
      "properties": {"osm_id": "101", "highway": "primary"},
      "geometry": {"type": "LineString", "coordinates": [[-75.0, 40.0002], [-75.0, 40.0003]]}
    },
    {
      "type": "Feature",
      "properties": {"osm_id": 102, "highway": "primary"},
      "geometry": {"type": "Point", "coordinates": [-75.0, 40.0002]}
    }
  ]
}`

func TestLoadGeoJSON(t *testing.T) {
	is := is.New(t)

	path := writeFixture(t, "network.geojson", testGeoJSON)
	loaded, err := Load(context.Background(), path, nil)
	is.NoErr(err)
	is.Equal(loaded.Lines, 2)

	a, err := loaded.Store.Line(100)
	is.NoErr(err)
	is.Equal(len(a.Vertices), 3)
	is.Equal(a.Tags, map[string]string{"highway": "primary", "lanes": "2"})

	b, err := loaded.Store.Line(101)
	is.NoErr(err)

	// Shared by coordinate, with new identities.
	is.Equal(a.Vertices[2].ID, b.Vertices[0].ID)
	is.True(a.Vertices[0].ID < 0)
	is.Equal(a.Vertices[0].Lon, -75.0)
	is.Equal(a.Vertices[0].Lat, 40.0)
}

func TestLoadGeoJSONMissingID(t *testing.T) {
	is := is.New(t)

	path := writeFixture(t, "network.geojson", `{"type": "FeatureCollection", "features": [
		{"type": "Feature", "properties": {}, "geometry": {"type": "LineString", "coordinates": [[0, 0], [0, 1]]}}
	]}`)
	_, err := LoadGeoJSON(path, nil)
	is.Err(err)
}
