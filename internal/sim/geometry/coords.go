package geometry

import "fmt"

// TileCoords identifies a grid cell.
type TileCoords struct {
	X int `json:"x"`
	Z int `json:"z"`
}

// VertexCoords identifies a grid corner. Vertex (x,z) is the north-west
// corner of tile (x,z).
type VertexCoords struct {
	X int `json:"x"`
	Z int `json:"z"`
}

func Tile(x, z int) TileCoords { return TileCoords{X: x, Z: z} }

func (t TileCoords) Neighbour(d Direction) TileCoords {
	dx, dz := d.Offset()
	return TileCoords{X: t.X + dx, Z: t.Z + dz}
}

func (t TileCoords) Add(dx, dz int) TileCoords {
	return TileCoords{X: t.X + dx, Z: t.Z + dz}
}

// Vertices returns the NW, NE, SE, SW corners.
func (t TileCoords) Vertices() [4]VertexCoords {
	return [4]VertexCoords{
		{X: t.X, Z: t.Z},
		{X: t.X + 1, Z: t.Z},
		{X: t.X + 1, Z: t.Z + 1},
		{X: t.X, Z: t.Z + 1},
	}
}

// EdgeVertices returns the two corners bounding the tile side facing d.
func (t TileCoords) EdgeVertices(d Direction) [2]VertexCoords {
	v := t.Vertices()
	switch d {
	case North:
		return [2]VertexCoords{v[0], v[1]}
	case East:
		return [2]VertexCoords{v[1], v[2]}
	case South:
		return [2]VertexCoords{v[2], v[3]}
	default:
		return [2]VertexCoords{v[3], v[0]}
	}
}

// ManhattanDistance is |dx|+|dz| between two tiles.
func (t TileCoords) ManhattanDistance(o TileCoords) int {
	return absInt(t.X-o.X) + absInt(t.Z-o.Z)
}

// Less orders tiles by Z then X, the order used for deterministic iteration.
func (t TileCoords) Less(o TileCoords) bool {
	if t.Z != o.Z {
		return t.Z < o.Z
	}
	return t.X < o.X
}

func (t TileCoords) String() string { return fmt.Sprintf("(%d,%d)", t.X, t.Z) }

func (t TileCoords) ToArray() [2]int { return [2]int{t.X, t.Z} }

func TileFromArray(a [2]int) TileCoords { return TileCoords{X: a[0], Z: a[1]} }

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
