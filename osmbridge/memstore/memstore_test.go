package memstore

import (
	"sync"
	"testing"

	"github.com/cheekybits/is"
	"github.com/rubenv/osmbridge/osmbridge/feature"
	"github.com/rubenv/osmbridge/osmbridge/split"
)

func testLine(id int64, refs ...int64) *feature.Line {
	l := &feature.Line{
		ID:   id,
		Tags: map[string]string{"highway": "residential"},
	}
	for _, ref := range refs {
		l.Vertices = append(l.Vertices, feature.Vertex{ID: ref, Lat: float64(ref), Lon: float64(ref)})
	}
	return l
}

func TestLines(t *testing.T) {
	is := is.New(t)

	s := New()
	l := testLine(1, 1, 2, 3)
	is.NoErr(s.AddLine(l))
	is.Err(s.AddLine(l))

	// Stored lines are copies
	l.Tags["highway"] = "primary"
	got, err := s.Line(1)
	is.NoErr(err)
	is.Equal(got.Tags["highway"], "residential")
	got.Vertices[0].ID = 42
	got, _ = s.Line(1)
	is.Equal(got.Vertices[0].ID, int64(1))

	v, ok := s.Vertex(2)
	is.True(ok)
	is.Equal(v.Lat, 2.0)

	_, err = s.Line(2)
	is.Equal(err, &split.LineNotFoundError{ID: 2})

	is.NoErr(s.MarkDeleted(1))
	_, err = s.Line(1)
	is.Equal(err, &split.LineNotFoundError{ID: 1, Deleted: true})
	is.Equal(s.Deleted(), []int64{1})
	is.Equal(s.MarkDeleted(5), &split.LineNotFoundError{ID: 5})
}

func TestEachLineSkipsDeleted(t *testing.T) {
	is := is.New(t)

	s := New()
	is.NoErr(s.AddLine(testLine(3, 1, 2)))
	is.NoErr(s.AddLine(testLine(1, 2, 3)))
	is.NoErr(s.AddLine(testLine(2, 3, 4)))
	is.NoErr(s.MarkDeleted(1))

	seen := make([]int64, 0)
	err := s.EachLine(func(l *feature.Line) error {
		seen = append(seen, l.ID)
		return nil
	})
	is.NoErr(err)
	is.Equal(seen, []int64{3, 2})
}

func TestGroups(t *testing.T) {
	is := is.New(t)

	s := New()
	is.NoErr(s.AddGroup(&feature.Group{
		ID: 10,
		Members: []feature.Member{
			{Type: feature.WayMember, Ref: 1, Role: "outer"},
			{Type: feature.NodeMember, Ref: 2, Role: "label"},
		},
	}))
	is.NoErr(s.AddGroup(&feature.Group{
		ID: 11,
		Members: []feature.Member{
			{Type: feature.WayMember, Ref: 1},
			{Type: feature.WayMember, Ref: 1},
		},
	}))
	is.Err(s.AddGroup(&feature.Group{ID: 10}))

	groups, err := s.GroupsReferencing(1)
	is.NoErr(err)
	is.Equal(len(groups), 2)
	groups, err = s.GroupsReferencing(2)
	is.NoErr(err)
	is.Equal(len(groups), 0)

	g, err := s.UpdateGroup(10, func(g *feature.Group) error {
		g.Members = split.ReplaceMember(g.Members, 1, []int64{-1, -2})
		g.Modified = true
		return nil
	})
	is.NoErr(err)
	is.True(g.Modified)
	is.Equal(len(g.Members), 3)

	groups, _ = s.GroupsReferencing(1)
	is.Equal(len(groups), 1)
	is.Equal(groups[0].ID, int64(11))
	groups, _ = s.GroupsReferencing(-2)
	is.Equal(len(groups), 1)
	is.Equal(groups[0].ID, int64(10))

	_, err = s.UpdateGroup(99, func(g *feature.Group) error { return nil })
	is.Err(err)

	is.Equal(len(s.Groups()), 2)
}

func TestUpdateGroupConcurrent(t *testing.T) {
	is := is.New(t)

	s := New()
	members := make([]feature.Member, 0)
	for i := int64(1); i <= 50; i++ {
		members = append(members, feature.Member{Type: feature.WayMember, Ref: i, Role: "track"})
	}
	is.NoErr(s.AddGroup(&feature.Group{ID: 1, Members: members}))

	var wg sync.WaitGroup
	for i := int64(1); i <= 50; i++ {
		wg.Add(1)
		go func(line int64) {
			defer wg.Done()
			_, err := s.UpdateGroup(1, func(g *feature.Group) error {
				g.Members = split.ReplaceMember(g.Members, line, []int64{-line * 10, -line*10 - 1})
				return nil
			})
			if err != nil {
				t.Error(err)
			}
		}(i)
	}
	wg.Wait()

	g, _ := s.Group(1)
	is.Equal(len(g.Members), 100)
	for i, m := range g.Members {
		line := int64(i/2 + 1)
		is.Equal(m.Ref, -line*10-int64(i%2))
	}
}

func TestNewIDs(t *testing.T) {
	is := is.New(t)

	s := New()
	is.Equal(s.NewVertexID(), int64(-1))
	is.Equal(s.NewLineID(), int64(-1))

	// Loaded negative identities are never handed out again
	is.NoErr(s.AddVertex(feature.Vertex{ID: -10}))
	is.NoErr(s.AddLine(testLine(-7, -20, -21)))
	is.Equal(s.NewVertexID(), int64(-22))
	is.Equal(s.NewLineID(), int64(-8))

	var wg sync.WaitGroup
	var mu sync.Mutex
	seen := map[int64]bool{}
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				id := s.NewVertexID()
				mu.Lock()
				seen[id] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	is.Equal(len(seen), 2000)
}
