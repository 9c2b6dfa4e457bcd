package osmbridge

import (
	"context"
	"fmt"
	"io/ioutil"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/paulmach/osm"
	geojson "github.com/paulmach/go.geojson"
	"github.com/pkg/errors"
	"github.com/rubenv/osmbridge/osmbridge/feature"
	"github.com/rubenv/osmbridge/osmbridge/geodesy"
	"github.com/rubenv/osmbridge/osmbridge/memstore"
	"github.com/rubenv/osmbridge/osmbridge/split"
)

// Loaded is an in-memory network read from a file.
type Loaded struct {
	Store *memstore.Store

	Lines  int
	Groups int

	// Ways left out because they reference a node missing from the file,
	// or have fewer than two nodes.
	Incomplete []int64
}

// Load reads ways from an OSM XML, PBF or GeoJSON file.
func Load(ctx context.Context, path string, filter LineFilter) (*Loaded, error) {
	if strings.HasSuffix(path, ".geojson") || strings.HasSuffix(path, ".json") {
		return LoadGeoJSON(path, filter)
	}
	return LoadOSM(ctx, path, filter)
}

// LoadOSM reads an OSM XML or PBF file. Relations are kept when they
// reference at least one loaded way.
func LoadOSM(ctx context.Context, path string, filter LineFilter) (*Loaded, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	scanner := OpenScanner(ctx, f)
	defer scanner.Close()

	nodes := make(map[osm.NodeID]feature.Vertex)
	ways := make([]*osm.Way, 0)
	relations := make([]*osm.Relation, 0)
	for scanner.Scan() {
		switch o := scanner.Object().(type) {
		case *osm.Node:
			nodes[o.ID] = feature.Vertex{ID: int64(o.ID), Lat: o.Lat, Lon: o.Lon}
		case *osm.Way:
			if filter != nil && !filter(o.Tags.Map()) {
				continue
			}
			ways = append(ways, o)
		case *osm.Relation:
			relations = append(relations, o)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "scan "+path)
	}

	result := &Loaded{
		Store:      memstore.New(),
		Incomplete: make([]int64, 0),
	}

	loaded := make(map[int64]bool, len(ways))
	for _, w := range ways {
		line := &feature.Line{
			ID:       int64(w.ID),
			Tags:     w.Tags.Map(),
			Vertices: make([]feature.Vertex, 0, len(w.Nodes)),
		}

		complete := true
		for _, wn := range w.Nodes {
			v, ok := nodes[wn.ID]
			if !ok {
				complete = false
				break
			}
			line.Vertices = append(line.Vertices, v)
		}
		if !complete || len(line.Vertices) < 2 {
			result.Incomplete = append(result.Incomplete, line.ID)
			continue
		}

		err := result.Store.AddLine(line)
		if err != nil {
			return nil, err
		}
		loaded[line.ID] = true
		result.Lines++
	}

	for _, r := range relations {
		g := &feature.Group{
			ID:   int64(r.ID),
			Tags: r.Tags.Map(),
		}
		for _, m := range r.Members {
			t, ok := memberType(m.Type)
			if !ok {
				continue
			}
			g.Members = append(g.Members, feature.Member{Type: t, Ref: m.Ref, Role: m.Role})
		}

		keep := false
		for _, m := range g.Members {
			if m.Type == feature.WayMember && loaded[m.Ref] {
				keep = true
				break
			}
		}
		if !keep {
			continue
		}

		err := result.Store.AddGroup(g)
		if err != nil {
			return nil, err
		}
		result.Groups++
	}

	return result, nil
}

// LoadGeoJSON reads LineString and MultiLineString features carrying an
// osm_id property. Every other scalar property becomes a tag. Vertices at
// identical coordinates are shared; all get new identities.
func LoadGeoJSON(path string, filter LineFilter) (*Loaded, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, err
	}

	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, errors.Wrap(err, "decode "+path)
	}

	result := &Loaded{
		Store:      memstore.New(),
		Incomplete: make([]int64, 0),
	}

	vertices := make(map[geodesy.Point]feature.Vertex)
	vertexAt := func(c []float64) feature.Vertex {
		p := geodesy.Point{Lon: c[0], Lat: c[1]}
		v, ok := vertices[p]
		if !ok {
			v = feature.VertexAt(result.Store.NewVertexID(), p)
			vertices[p] = v
		}
		return v
	}

	for i, f := range fc.Features {
		id, err := featureID(f)
		if err != nil {
			return nil, errors.Wrapf(err, "feature %d", i)
		}

		tags := make(map[string]string)
		for k, v := range f.Properties {
			if k == "osm_id" || v == nil {
				continue
			}
			switch val := v.(type) {
			case string:
				tags[k] = val
			case float64:
				tags[k] = strconv.FormatFloat(val, 'f', -1, 64)
			case bool:
				tags[k] = strconv.FormatBool(val)
			}
		}
		if filter != nil && !filter(tags) {
			continue
		}

		var coords [][]float64
		switch {
		case f.Geometry == nil:
		case f.Geometry.IsLineString():
			coords = f.Geometry.LineString
		case f.Geometry.IsMultiLineString():
			// Parts are joined end to end, the way a road split by a
			// clipping step is exported.
			for _, part := range f.Geometry.MultiLineString {
				coords = append(coords, part...)
			}
		default:
			continue
		}

		line := &feature.Line{ID: id, Tags: tags}
		for _, c := range coords {
			if len(c) < 2 {
				continue
			}
			v := vertexAt(c)
			if n := len(line.Vertices); n > 0 && line.Vertices[n-1].ID == v.ID {
				continue
			}
			line.Vertices = append(line.Vertices, v)
		}
		if len(line.Vertices) < 2 {
			result.Incomplete = append(result.Incomplete, id)
			continue
		}

		err = result.Store.AddLine(line)
		if err != nil {
			return nil, err
		}
		result.Lines++
	}

	return result, nil
}

func featureID(f *geojson.Feature) (int64, error) {
	v, ok := f.Properties["osm_id"]
	if !ok {
		return 0, errors.New("missing osm_id property")
	}

	switch id := v.(type) {
	case float64:
		if id != math.Trunc(id) {
			return 0, fmt.Errorf("invalid osm_id %v", id)
		}
		return int64(id), nil
	case string:
		return strconv.ParseInt(id, 10, 64)
	}
	return 0, fmt.Errorf("invalid osm_id %v", v)
}

// Lines returns every line of the store that is not deleted.
func Lines(s split.Store) ([]*feature.Line, error) {
	result := make([]*feature.Line, 0)
	err := s.EachLine(func(l *feature.Line) error {
		result = append(result, l)
		return nil
	})
	return result, err
}
