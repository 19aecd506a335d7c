package geometry

import "fmt"

// EdgeKind tells which pair of tiles an EdgeXZ separates.
type EdgeKind uint8

const (
	// Horizontal separates a tile from its east neighbour; Tile is the west one.
	Horizontal EdgeKind = iota
	// Vertical separates a tile from its south neighbour; Tile is the north one.
	Vertical
)

// EdgeXZ is a tile side shared by the two tiles it borders. It is stored in
// canonical form so both tiles produce the same value.
type EdgeXZ struct {
	Kind EdgeKind   `json:"kind"`
	Tile TileCoords `json:"tile"`
}

func HorizontalEdge(westTile TileCoords) EdgeXZ { return EdgeXZ{Kind: Horizontal, Tile: westTile} }

func VerticalEdge(northTile TileCoords) EdgeXZ { return EdgeXZ{Kind: Vertical, Tile: northTile} }

// EdgeFromTileAndDirection returns the side of t facing d.
func EdgeFromTileAndDirection(t TileCoords, d Direction) EdgeXZ {
	switch d {
	case East:
		return HorizontalEdge(t)
	case West:
		return HorizontalEdge(t.Neighbour(West))
	case South:
		return VerticalEdge(t)
	default:
		return VerticalEdge(t.Neighbour(North))
	}
}

// TileAndDirection is a tile together with the side of it that is meant.
type TileAndDirection struct {
	Tile      TileCoords
	Direction Direction
}

// BothTilesAndDirections returns the two (tile, side) pairs naming this
// edge. The directions are always opposite.
func (e EdgeXZ) BothTilesAndDirections() [2]TileAndDirection {
	if e.Kind == Horizontal {
		return [2]TileAndDirection{
			{Tile: e.Tile, Direction: East},
			{Tile: e.Tile.Neighbour(East), Direction: West},
		}
	}
	return [2]TileAndDirection{
		{Tile: e.Tile, Direction: South},
		{Tile: e.Tile.Neighbour(South), Direction: North},
	}
}

// Vertices returns the two grid corners at the ends of the edge.
func (e EdgeXZ) Vertices() [2]VertexCoords {
	if e.Kind == Horizontal {
		return e.Tile.EdgeVertices(East)
	}
	return e.Tile.EdgeVertices(South)
}

func (e EdgeXZ) String() string {
	if e.Kind == Horizontal {
		return fmt.Sprintf("H%s", e.Tile)
	}
	return fmt.Sprintf("V%s", e.Tile)
}
