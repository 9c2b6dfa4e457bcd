package osmbridge

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/cheekybits/is"
	"github.com/rubenv/osmbridge/osmbridge/feature"
	"github.com/rubenv/osmbridge/osmbridge/split"
)

const testChange = `<?xml version="1.0" encoding="UTF-8"?>
<osmChange version="0.6" generator="test">
  <delete>
    <way id="101"/>
  </delete>
  <modify>
    <node id="7" lat="40.0007" lon="-75.0"/>
    <way id="102">
      <nd ref="8"/><nd ref="9"/>
      <tag k="highway" v="path"/>
    </way>
  </modify>
</osmChange>
`

func openTestStore(t *testing.T) *Store {
	if testing.Short() {
		t.Skip("RocksDB store test skipped in short mode")
	}

	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return store
}

func importFixture(t *testing.T, store *Store, filter LineFilter) {
	path := writeFixture(t, "network.osm", testOSM)
	i := &Import{
		Store:    store,
		Filename: path,
		Filter:   filter,
	}
	err := i.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
}

func TestStoreImport(t *testing.T) {
	is := is.New(t)

	store := openTestStore(t)
	defer store.Close()
	importFixture(t, store, HighwayFilter(DefaultHighways))

	l, err := store.Line(100)
	is.NoErr(err)
	is.Equal(l.Refs(), []int64{1, 2, 3, 4})
	is.Equal(l.Tags["name"], "Main Street")

	way, err := store.GetWay(102)
	is.NoErr(err)
	is.Nil(way)

	// Way 103 is stored, but misses a node.
	_, err = store.Line(103)
	_, ok := err.(*MissingNodeError)
	is.True(ok)

	groups, err := store.GroupsReferencing(101)
	is.NoErr(err)
	is.Equal(len(groups), 1)
	is.Equal(groups[0].ID, int64(500))

	groups, err = store.GroupsReferencing(4)
	is.NoErr(err)
	is.Equal(len(groups), 0)
}

func TestStoreSplit(t *testing.T) {
	is := is.New(t)

	store := openTestStore(t)
	defer store.Close()
	importFixture(t, store, HighwayFilter(DefaultHighways))

	l, err := store.Line(100)
	is.NoErr(err)

	outcomes, summary, err := split.NewRunner(store).Run(context.Background(), []split.Job{
		{LineID: 100, Bridges: []split.BridgePoint{{Lat: 40.0001, Lon: -75.0, Length: 10}}},
	})
	is.NoErr(err)
	is.Equal(summary.Applied, 1)
	is.Equal(len(outcomes[0].NewLines), 3)

	_, err = store.Line(100)
	is.True(split.IsLineNotFound(err))
	deleted, err := store.DeletedWays()
	is.NoErr(err)
	is.Equal(deleted, []int64{100})

	rel, err := store.GetRelation(500)
	is.NoErr(err)
	is.True(rel.GetModified())
	g := GroupFromRelation(rel)
	is.Equal(len(g.Members), 5)
	is.Equal(g.Members[0].Ref, outcomes[0].NewLines[0].ID)
	is.Equal(g.Members[3].Ref, int64(101))

	// The membership index follows the rewrite.
	groups, err := store.GroupsReferencing(100)
	is.NoErr(err)
	is.Equal(len(groups), 0)
	groups, err = store.GroupsReferencing(outcomes[0].NewLines[1].ID)
	is.NoErr(err)
	is.Equal(len(groups), 1)

	bridge, err := store.Line(outcomes[0].NewLines[1].ID)
	is.NoErr(err)
	is.Equal(bridge.Tags["bridge"], "yes")
	is.Equal(bridge.Tags["name"], l.Tags["name"])
	is.Equal(len(bridge.Vertices), 3)
}

func TestStoreCounters(t *testing.T) {
	is := is.New(t)

	dir := ""
	func() {
		store := openTestStore(t)
		dir = store.path
		is.Equal(store.NewVertexID(), int64(-1))
		is.Equal(store.NewVertexID(), int64(-2))
		is.Equal(store.NewLineID(), int64(-1))
		is.NoErr(store.AddLine(&feature.Line{
			ID:       -40,
			Vertices: []feature.Vertex{{ID: -1, Lat: 1, Lon: 1}, {ID: -2, Lat: 1, Lon: 2}},
		}))
		is.NoErr(store.Close())
	}()

	store, err := NewStore(dir)
	is.NoErr(err)
	defer store.Close()
	is.Equal(store.NewVertexID(), int64(-3))
	is.Equal(store.NewLineID(), int64(-41))
}

func TestStoreApplyChange(t *testing.T) {
	is := is.New(t)

	store := openTestStore(t)
	defer store.Close()
	importFixture(t, store, nil)

	path := writeFixture(t, "change.osc", testChange)
	is.NoErr(store.ApplyChange(path))

	way, err := store.GetWay(101)
	is.NoErr(err)
	is.Nil(way)

	l, err := store.Line(102)
	is.NoErr(err)
	is.Equal(l.Tags["highway"], "path")

	n, err := store.GetNode(7)
	is.NoErr(err)
	is.Equal(n.GetLat(), 40.0007)
}

func TestStoreReindex(t *testing.T) {
	is := is.New(t)

	store := openTestStore(t)
	defer store.Close()
	importFixture(t, store, nil)

	is.NoErr(store.Reindex())
	groups, err := store.GroupsReferencing(102)
	is.NoErr(err)
	is.Equal(len(groups), 1)
	is.Equal(groups[0].ID, int64(501))
}

func TestStoreApplySplitChange(t *testing.T) {
	is := is.New(t)

	store := openTestStore(t)
	defer store.Close()
	importFixture(t, store, HighwayFilter(DefaultHighways))

	outcomes := splitFixture(t)
	path := filepath.Join(t.TempDir(), "split.osc")
	f, err := os.Create(path)
	is.NoErr(err)
	is.NoErr(WriteChange(f, outcomes))
	is.NoErr(f.Close())

	is.NoErr(store.ApplyChange(path))

	for _, id := range []int64{100, 101} {
		way, err := store.GetWay(id)
		is.NoErr(err)
		is.Nil(way)
	}

	rel, err := store.GetRelation(500)
	is.NoErr(err)
	g := GroupFromRelation(rel)
	is.Equal(len(g.Members), 7)

	bridge := outcomes[0].NewLines[1]
	l, err := store.Line(bridge.ID)
	is.NoErr(err)
	is.Equal(l.Tags["bridge"], "yes")
	is.Equal(l.Refs(), bridge.Refs())

	groups, err := store.GroupsReferencing(bridge.ID)
	is.NoErr(err)
	is.Equal(len(groups), 1)
	is.Equal(groups[0].ID, int64(500))
}
