package split

import (
	"math"

	"github.com/rubenv/osmbridge/osmbridge/geodesy"
)

// BridgePoint describes where a bridge should be cut out of a line: a
// reference coordinate and the span of the bridge in meters.
type BridgePoint struct {
	// External identifier (e.g. an NBI structure number), only used for
	// reporting.
	ID string

	Lat    float64
	Lon    float64
	Length float64
}

func (b BridgePoint) Point() geodesy.Point {
	return geodesy.Point{Lat: b.Lat, Lon: b.Lon}
}

// Half returns the distance walked in each direction from the reference.
func (b BridgePoint) Half() float64 {
	return b.Length / 2
}

func (b BridgePoint) Validate() error {
	if math.IsNaN(b.Length) || math.IsInf(b.Length, 0) || b.Length <= 0 {
		return ErrInvalidBridgeLength
	}
	if !b.Point().Valid() {
		return ErrInvalidCoordinate
	}
	return nil
}
