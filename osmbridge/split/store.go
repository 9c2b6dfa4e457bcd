package split

import (
	"fmt"

	"github.com/rubenv/osmbridge/osmbridge/feature"
)

// Store is the editable feature store lines are split in.
//
// Implementations must be safe for concurrent use: lines are split in
// parallel, each line by a single goroutine.
type Store interface {
	// Line returns a live line. Unknown and deleted lines yield a
	// *LineNotFoundError.
	Line(id int64) (*feature.Line, error)

	AddVertex(v feature.Vertex) error
	AddLine(l *feature.Line) error
	MarkDeleted(lineID int64) error

	GroupsReferencing(lineID int64) ([]*feature.Group, error)

	// UpdateGroup runs fn on the stored group and saves the result. The
	// read-modify-write is atomic with respect to other UpdateGroup calls
	// for the same group.
	UpdateGroup(id int64, fn func(g *feature.Group) error) (*feature.Group, error)

	// Fresh negative identities, never handed out twice.
	NewVertexID() int64
	NewLineID() int64

	// EachLine calls fn for every live line.
	EachLine(fn func(l *feature.Line) error) error
}

func Vertices(s Store, lineID int64) ([]feature.Vertex, error) {
	l, err := s.Line(lineID)
	if err != nil {
		return nil, err
	}
	return l.Vertices, nil
}

func VertexAt(s Store, lineID int64, index int) (feature.Vertex, error) {
	vertices, err := Vertices(s, lineID)
	if err != nil {
		return feature.Vertex{}, err
	}
	if index < 0 || index >= len(vertices) {
		return feature.Vertex{}, fmt.Errorf("vertex %d out of range for line %d with %d vertices", index, lineID, len(vertices))
	}
	return vertices[index], nil
}

func Tags(s Store, lineID int64) (map[string]string, error) {
	l, err := s.Line(lineID)
	if err != nil {
		return nil, err
	}
	return l.Tags, nil
}
