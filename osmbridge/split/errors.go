package split

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/rubenv/osmbridge/osmbridge/geodesy"
)

var (
	ErrDegenerateLine      = errors.New("line has fewer than two vertices")
	ErrNoAdjacentSegment   = geodesy.ErrNoAdjacentSegment
	ErrInvalidBridgeLength = errors.New("invalid bridge length")
	ErrInvalidCoordinate   = errors.New("invalid reference coordinate")
	ErrOverlappingBridge   = errors.New("bridge overlaps the previous bridge on the line")
	ErrNoBridges           = errors.New("no bridges to split at")
	ErrBrokenChain         = errors.New("partitions do not re-join into the split line")
	ErrPlanMismatch        = errors.New("plan does not belong to line")
	ErrNotConnected        = errors.New("line does not start or end at the junction")
)

type LineNotFoundError struct {
	ID      int64
	Deleted bool
}

func (e *LineNotFoundError) Error() string {
	if e.Deleted {
		return fmt.Sprintf("line %d has been deleted", e.ID)
	}
	return fmt.Sprintf("line %d not found", e.ID)
}

func IsLineNotFound(err error) bool {
	var nf *LineNotFoundError
	return errors.As(err, &nf)
}

type WarningKind int

const (
	// The walk could not cover the requested half-span, the split point
	// fell back to the farthest point reached.
	UnreachableOffset WarningKind = iota

	// The walk continued into a connected line. The split on this line
	// stops at its end point, the remainder is reported as a Spill.
	CrossedLine

	// A partition collapsed to a single vertex and was left out.
	DroppedPartition
)

func (k WarningKind) String() string {
	switch k {
	case UnreachableOffset:
		return "unreachable offset"
	case CrossedLine:
		return "crossed line"
	case DroppedPartition:
		return "dropped partition"
	}
	return "unknown"
}

type Warning struct {
	Kind WarningKind

	// Input index of the bridge descriptor, -1 when not tied to one.
	Bridge int

	Message string
}

func (w Warning) String() string {
	if w.Bridge < 0 {
		return fmt.Sprintf("%s: %s", w.Kind, w.Message)
	}
	return fmt.Sprintf("%s (bridge %d): %s", w.Kind, w.Bridge, w.Message)
}

// Rejection is a bridge descriptor that was left out of a plan.
type Rejection struct {
	Bridge int
	Point  BridgePoint
	Err    error
}
