package geometry

import "fmt"

// DirectionalEdge is a tile together with the side through which a route
// enters it.
type DirectionalEdge struct {
	IntoTile      TileCoords `json:"into_tile"`
	FromDirection Direction  `json:"from_direction"`
}

func NewDirectionalEdge(into TileCoords, from Direction) DirectionalEdge {
	return DirectionalEdge{IntoTile: into, FromDirection: from}
}

// Edge drops the travel direction.
func (e DirectionalEdge) Edge() EdgeXZ {
	return EdgeFromTileAndDirection(e.IntoTile, e.FromDirection)
}

// Mirror views the same edge from the tile on the other side, travelling the
// opposite way.
func (e DirectionalEdge) Mirror() DirectionalEdge {
	return DirectionalEdge{
		IntoTile:      e.IntoTile.Neighbour(e.FromDirection),
		FromDirection: e.FromDirection.Reverse(),
	}
}

func (e DirectionalEdge) String() string {
	return fmt.Sprintf("%s<-%s", e.IntoTile, e.FromDirection)
}
