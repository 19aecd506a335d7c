// Package tracks is the fixed catalog of single-tile track shapes and the
// oriented track segments built from them.
package tracks

import (
	"fmt"
	"math"

	"railcraft.ai/internal/sim/geometry"
)

// TrackType is one of the six connection shapes a tile's track can take.
type TrackType uint8

const (
	NorthSouth TrackType = iota
	EastWest
	NorthEast
	NorthWest
	SouthEast
	SouthWest
)

var allTrackTypes = [6]TrackType{NorthSouth, EastWest, NorthEast, NorthWest, SouthEast, SouthWest}

// All returns the six track types in their fixed catalog order. Successor
// generation iterates in this order so planning stays deterministic.
func All() [6]TrackType { return allTrackTypes }

var typesByConnector = func() (out [4][]TrackType) {
	for _, d := range geometry.AllDirections() {
		for _, t := range allTrackTypes {
			if t.Connects(d) {
				out[d] = append(out[d], t)
			}
		}
	}
	return out
}()

// TypesWithConnection lists, in catalog order, the track types that have d
// as one of their sides. Every successor search starts from this list. The
// result is shared and must not be modified.
func TypesWithConnection(d geometry.Direction) []TrackType {
	if !d.Valid() {
		return nil
	}
	return typesByConnector[d]
}

// TrackLength is a distance along track, in tile-edge units.
type TrackLength float64

func (l TrackLength) Add(o TrackLength) TrackLength { return l + o }
func (l TrackLength) Mul(f float64) TrackLength     { return TrackLength(float64(l) * f) }
func (l TrackLength) Float() float64                { return float64(l) }

const diagonalLength = TrackLength(math.Sqrt2 / 2)

// ConnectionsClockwise returns the two tile sides the track joins, in
// clockwise order from North.
func (t TrackType) ConnectionsClockwise() [2]geometry.Direction {
	switch t {
	case NorthSouth:
		return [2]geometry.Direction{geometry.North, geometry.South}
	case EastWest:
		return [2]geometry.Direction{geometry.East, geometry.West}
	case NorthEast:
		return [2]geometry.Direction{geometry.North, geometry.East}
	case NorthWest:
		return [2]geometry.Direction{geometry.North, geometry.West}
	case SouthEast:
		return [2]geometry.Direction{geometry.East, geometry.South}
	default:
		return [2]geometry.Direction{geometry.South, geometry.West}
	}
}

func (t TrackType) Length() TrackLength {
	switch t {
	case NorthSouth, EastWest:
		return 1.0
	default:
		return diagonalLength
	}
}

func (t TrackType) IsStraight() bool { return t == NorthSouth || t == EastWest }

// Connects reports whether d is one of the track's two sides.
func (t TrackType) Connects(d geometry.Direction) bool {
	c := t.ConnectionsClockwise()
	return c[0] == d || c[1] == d
}

// OtherEnd returns the exit side for a track entered from side d. It is
// false when d is not one of the track's sides.
func (t TrackType) OtherEnd(d geometry.Direction) (geometry.Direction, bool) {
	c := t.ConnectionsClockwise()
	switch d {
	case c[0]:
		return c[1], true
	case c[1]:
		return c[0], true
	}
	return 0, false
}

func (t TrackType) Valid() bool { return t <= SouthWest }

func (t TrackType) String() string {
	switch t {
	case NorthSouth:
		return "NS"
	case EastWest:
		return "EW"
	case NorthEast:
		return "NE"
	case NorthWest:
		return "NW"
	case SouthEast:
		return "SE"
	case SouthWest:
		return "SW"
	}
	return fmt.Sprintf("TrackType(%d)", uint8(t))
}

func ParseTrackType(s string) (TrackType, error) {
	for _, t := range allTrackTypes {
		if t.String() == s {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown track type %q", s)
}

func (t TrackType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("invalid track type %d", uint8(t))
	}
	return []byte(t.String()), nil
}

func (t *TrackType) UnmarshalText(b []byte) error {
	v, err := ParseTrackType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}
