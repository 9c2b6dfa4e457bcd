// Package memstore is an in-memory feature store, used to split lines
// loaded from files.
package memstore

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rubenv/osmbridge/osmbridge/feature"
	"github.com/rubenv/osmbridge/osmbridge/split"
)

type Store struct {
	mu sync.RWMutex

	vertices map[int64]feature.Vertex
	lines    map[int64]*feature.Line
	groups   map[int64]*feature.Group

	// Insertion order, for stable iteration.
	lineOrder  []int64
	groupOrder []int64

	// Groups referencing each line.
	memberOf map[int64][]int64

	// Last handed out identities, counting down from zero.
	lastVertex int64
	lastLine   int64
}

var _ split.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		vertices: make(map[int64]feature.Vertex),
		lines:    make(map[int64]*feature.Line),
		groups:   make(map[int64]*feature.Group),
		memberOf: make(map[int64][]int64),
	}
}

func (s *Store) AddVertex(v feature.Vertex) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.vertices[v.ID] = v
	lower(&s.lastVertex, v.ID)
	return nil
}

func (s *Store) Vertex(id int64) (feature.Vertex, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.vertices[id]
	return v, ok
}

// AddLine stores a copy of the line. Its vertices are stored as well.
func (s *Store) AddLine(l *feature.Line) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.lines[l.ID]; ok {
		return fmt.Errorf("line %d already exists", l.ID)
	}

	c := l.Clone()
	c.Deleted = false
	s.lines[l.ID] = c
	s.lineOrder = append(s.lineOrder, l.ID)
	for _, v := range c.Vertices {
		if _, ok := s.vertices[v.ID]; !ok {
			s.vertices[v.ID] = v
			lower(&s.lastVertex, v.ID)
		}
	}
	lower(&s.lastLine, l.ID)
	return nil
}

func (s *Store) Line(id int64) (*feature.Line, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, ok := s.lines[id]
	if !ok {
		return nil, &split.LineNotFoundError{ID: id}
	}
	if l.Deleted {
		return nil, &split.LineNotFoundError{ID: id, Deleted: true}
	}
	return l.Clone(), nil
}

func (s *Store) MarkDeleted(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.lines[id]
	if !ok {
		return &split.LineNotFoundError{ID: id}
	}
	l.Deleted = true
	return nil
}

// Deleted returns the identities of every deleted line.
func (s *Store) Deleted() []int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]int64, 0)
	for _, id := range s.lineOrder {
		if s.lines[id].Deleted {
			result = append(result, id)
		}
	}
	return result
}

func (s *Store) EachLine(fn func(l *feature.Line) error) error {
	s.mu.RLock()
	lines := make([]*feature.Line, 0, len(s.lineOrder))
	for _, id := range s.lineOrder {
		l := s.lines[id]
		if !l.Deleted {
			lines = append(lines, l.Clone())
		}
	}
	s.mu.RUnlock()

	for _, l := range lines {
		if err := fn(l); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) AddGroup(g *feature.Group) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.groups[g.ID]; ok {
		return fmt.Errorf("group %d already exists", g.ID)
	}
	c := g.Clone()
	s.groups[g.ID] = c
	s.groupOrder = append(s.groupOrder, g.ID)
	s.index(c)
	return nil
}

func (s *Store) Group(id int64) (*feature.Group, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.groups[id]
	if !ok {
		return nil, false
	}
	return g.Clone(), true
}

// Groups returns every group, in insertion order.
func (s *Store) Groups() []*feature.Group {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*feature.Group, 0, len(s.groupOrder))
	for _, id := range s.groupOrder {
		result = append(result, s.groups[id].Clone())
	}
	return result
}

func (s *Store) GroupsReferencing(lineID int64) ([]*feature.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*feature.Group, 0)
	for _, id := range s.memberOf[lineID] {
		result = append(result, s.groups[id].Clone())
	}
	return result, nil
}

func (s *Store) UpdateGroup(id int64, fn func(g *feature.Group) error) (*feature.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.groups[id]
	if !ok {
		return nil, fmt.Errorf("group %d not found", id)
	}

	g := old.Clone()
	if err := fn(g); err != nil {
		return nil, err
	}
	g.ID = id

	s.unindex(old)
	s.groups[id] = g
	s.index(g)
	return g.Clone(), nil
}

func (s *Store) NewVertexID() int64 {
	return atomic.AddInt64(&s.lastVertex, -1)
}

func (s *Store) NewLineID() int64 {
	return atomic.AddInt64(&s.lastLine, -1)
}

// Must hold the write lock.
func (s *Store) index(g *feature.Group) {
	for _, m := range g.Members {
		if m.Type != feature.WayMember {
			continue
		}
		if contains(s.memberOf[m.Ref], g.ID) {
			continue
		}
		s.memberOf[m.Ref] = append(s.memberOf[m.Ref], g.ID)
	}
}

// Must hold the write lock.
func (s *Store) unindex(g *feature.Group) {
	for _, m := range g.Members {
		if m.Type != feature.WayMember {
			continue
		}
		ids := s.memberOf[m.Ref]
		out := ids[:0]
		for _, id := range ids {
			if id != g.ID {
				out = append(out, id)
			}
		}
		if len(out) == 0 {
			delete(s.memberOf, m.Ref)
		} else {
			s.memberOf[m.Ref] = out
		}
	}
}

func contains(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// lower moves the counter down so identities handed out later stay below
// id.
func lower(counter *int64, id int64) {
	for {
		cur := atomic.LoadInt64(counter)
		if id >= cur {
			return
		}
		if atomic.CompareAndSwapInt64(counter, cur, id) {
			return
		}
	}
}
