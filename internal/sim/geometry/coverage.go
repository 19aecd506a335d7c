package geometry

import "fmt"

// TileCoverage is the footprint of a building. Both corners are inclusive; a
// single-tile footprint has NorthWest == SouthEast.
type TileCoverage struct {
	NorthWest TileCoords `json:"north_west"`
	SouthEast TileCoords `json:"south_east"`
}

func SingleTile(t TileCoords) TileCoverage { return TileCoverage{NorthWest: t, SouthEast: t} }

// Rectangle builds a footprint from any two opposite corners.
func Rectangle(a, b TileCoords) TileCoverage {
	return TileCoverage{
		NorthWest: TileCoords{X: minInt(a.X, b.X), Z: minInt(a.Z, b.Z)},
		SouthEast: TileCoords{X: maxInt(a.X, b.X), Z: maxInt(a.Z, b.Z)},
	}
}

func (c TileCoverage) Width() int { return c.SouthEast.X - c.NorthWest.X + 1 }
func (c TileCoverage) Depth() int { return c.SouthEast.Z - c.NorthWest.Z + 1 }

// Tiles lists the covered tiles row by row, north to south.
func (c TileCoverage) Tiles() []TileCoords {
	out := make([]TileCoords, 0, c.Width()*c.Depth())
	for z := c.NorthWest.Z; z <= c.SouthEast.Z; z++ {
		for x := c.NorthWest.X; x <= c.SouthEast.X; x++ {
			out = append(out, TileCoords{X: x, Z: z})
		}
	}
	return out
}

func (c TileCoverage) Contains(t TileCoords) bool {
	return t.X >= c.NorthWest.X && t.X <= c.SouthEast.X && t.Z >= c.NorthWest.Z && t.Z <= c.SouthEast.Z
}

func (c TileCoverage) Intersects(o TileCoverage) bool {
	return c.NorthWest.X <= o.SouthEast.X && o.NorthWest.X <= c.SouthEast.X &&
		c.NorthWest.Z <= o.SouthEast.Z && o.NorthWest.Z <= c.SouthEast.Z
}

// Distance is the Chebyshev gap between two footprints in tiles; touching
// footprints are 1 apart and overlapping ones 0.
func (c TileCoverage) Distance(o TileCoverage) int {
	dx := maxInt(0, maxInt(o.NorthWest.X-c.SouthEast.X, c.NorthWest.X-o.SouthEast.X))
	dz := maxInt(0, maxInt(o.NorthWest.Z-c.SouthEast.Z, c.NorthWest.Z-o.SouthEast.Z))
	return maxInt(dx, dz)
}

func (c TileCoverage) String() string {
	if c.NorthWest == c.SouthEast {
		return c.NorthWest.String()
	}
	return fmt.Sprintf("%s..%s", c.NorthWest, c.SouthEast)
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
