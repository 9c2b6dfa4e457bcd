package split

import "github.com/rubenv/osmbridge/osmbridge/feature"

// Sequence is the growing vertex list of a single line while it is being
// planned. It is owned by exactly one planner at a time.
//
// Vertices can only be inserted, never moved or removed. Insertions must
// happen in ascending position along the line: the index returned by
// Insert stays valid for the rest of the plan because later insertions
// only shift vertices after it.
type Sequence struct {
	vertices []feature.Vertex

	// Current index of every original vertex.
	origin []int
}

func NewSequence(vertices []feature.Vertex) *Sequence {
	s := &Sequence{
		vertices: append([]feature.Vertex(nil), vertices...),
		origin:   make([]int, len(vertices)),
	}
	for i := range s.origin {
		s.origin[i] = i
	}
	return s
}

func (s *Sequence) Len() int {
	return len(s.vertices)
}

func (s *Sequence) At(i int) feature.Vertex {
	return s.vertices[i]
}

// Index returns the current index of the original vertex i.
func (s *Sequence) Index(i int) int {
	return s.origin[i]
}

// Insert adds v on original segment seg, after every vertex inserted on
// that segment so far. Returns the index of v.
func (s *Sequence) Insert(seg int, v feature.Vertex) int {
	at := s.origin[seg+1]

	s.vertices = append(s.vertices, feature.Vertex{})
	copy(s.vertices[at+1:], s.vertices[at:])
	s.vertices[at] = v

	for i := seg + 1; i < len(s.origin); i++ {
		s.origin[i]++
	}
	return at
}

// Vertices returns a copy of the current sequence.
func (s *Sequence) Vertices() []feature.Vertex {
	return append([]feature.Vertex(nil), s.vertices...)
}

// Slice returns a copy of the vertices from index i up to and including j.
func (s *Sequence) Slice(i, j int) []feature.Vertex {
	return append([]feature.Vertex(nil), s.vertices[i:j+1]...)
}
