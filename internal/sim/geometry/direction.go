// Package geometry holds the tile-grid coordinate types: tiles, vertices,
// directions, tile edges and building footprints.
package geometry

import "fmt"

// Direction is one of the four tile sides. North points towards -Z.
type Direction uint8

const (
	North Direction = iota
	East
	South
	West
)

// AllDirections lists the directions in clockwise order starting from North.
func AllDirections() [4]Direction {
	return [4]Direction{North, East, South, West}
}

func (d Direction) Reverse() Direction {
	switch d {
	case North:
		return South
	case East:
		return West
	case South:
		return North
	default:
		return East
	}
}

// Offset returns the tile delta for one step in direction d.
func (d Direction) Offset() (dx, dz int) {
	switch d {
	case North:
		return 0, -1
	case East:
		return 1, 0
	case South:
		return 0, 1
	default:
		return -1, 0
	}
}

func (d Direction) Valid() bool { return d <= West }

func (d Direction) String() string {
	switch d {
	case North:
		return "N"
	case East:
		return "E"
	case South:
		return "S"
	case West:
		return "W"
	}
	return fmt.Sprintf("Direction(%d)", uint8(d))
}

func ParseDirection(s string) (Direction, error) {
	switch s {
	case "N", "NORTH", "north":
		return North, nil
	case "E", "EAST", "east":
		return East, nil
	case "S", "SOUTH", "south":
		return South, nil
	case "W", "WEST", "west":
		return West, nil
	}
	return 0, fmt.Errorf("unknown direction %q", s)
}

func (d Direction) MarshalText() ([]byte, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("invalid direction %d", uint8(d))
	}
	return []byte(d.String()), nil
}

func (d *Direction) UnmarshalText(b []byte) error {
	v, err := ParseDirection(string(b))
	if err != nil {
		return err
	}
	*d = v
	return nil
}
