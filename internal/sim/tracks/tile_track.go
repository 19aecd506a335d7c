package tracks

import (
	"fmt"

	"railcraft.ai/internal/sim/geometry"
)

// TileTrack is a track segment at a tile oriented in a direction of travel.
// PointingIn is the side the segment is left through.
type TileTrack struct {
	Tile       geometry.TileCoords `json:"tile"`
	TrackType  TrackType           `json:"track_type"`
	PointingIn geometry.Direction  `json:"pointing_in"`
}

func (t TileTrack) NextTileCoords() geometry.TileCoords {
	return t.Tile.Neighbour(t.PointingIn)
}

// EntryDirection is the side the segment is entered through.
func (t TileTrack) EntryDirection() geometry.Direction {
	d, _ := t.TrackType.OtherEnd(t.PointingIn)
	return d
}

// Reversed is the same segment travelled the other way.
func (t TileTrack) Reversed() TileTrack {
	return TileTrack{Tile: t.Tile, TrackType: t.TrackType, PointingIn: t.EntryDirection()}
}

// Valid reports whether PointingIn is one of the track type's sides.
func (t TileTrack) Valid() bool {
	return t.TrackType.Valid() && t.TrackType.Connects(t.PointingIn)
}

func (t TileTrack) Length() TrackLength { return t.TrackType.Length() }

func (t TileTrack) String() string {
	return fmt.Sprintf("%s:%s->%s", t.Tile, t.TrackType, t.PointingIn)
}

// ExitFrom is the directional edge crossed when leaving t.
func ExitFrom(t TileTrack) geometry.DirectionalEdge {
	return geometry.NewDirectionalEdge(t.NextTileCoords(), t.PointingIn.Reverse())
}

// EntranceTo is the directional edge crossed when entering t.
func EntranceTo(t TileTrack) geometry.DirectionalEdge {
	return geometry.NewDirectionalEdge(t.Tile, t.EntryDirection())
}

// TracksEnteredVia lists the segments, one per compatible track type, that
// are entered by crossing e.
func TracksEnteredVia(e geometry.DirectionalEdge) []TileTrack {
	out := make([]TileTrack, 0, 3)
	for _, tt := range allTrackTypes {
		if exit, ok := tt.OtherEnd(e.FromDirection); ok {
			out = append(out, TileTrack{Tile: e.IntoTile, TrackType: tt, PointingIn: exit})
		}
	}
	return out
}

// TracksExitingVia lists the segments that are left by crossing e.
func TracksExitingVia(e geometry.DirectionalEdge) []TileTrack {
	tile := e.IntoTile.Neighbour(e.FromDirection)
	pointing := e.FromDirection.Reverse()
	out := make([]TileTrack, 0, 3)
	for _, tt := range allTrackTypes {
		if tt.Connects(pointing) {
			out = append(out, TileTrack{Tile: tile, TrackType: tt, PointingIn: pointing})
		}
	}
	return out
}

// EdgeRole selects whether an undirected edge is where a route starts or
// where it finishes.
type EdgeRole uint8

const (
	RoleStart EdgeRole = iota
	RoleFinish
)

// TileTracksFromEdge enumerates every segment on either adjoining tile that
// starts (is entered through) or finishes (is left through) the edge.
func TileTracksFromEdge(edge geometry.EdgeXZ, role EdgeRole) []TileTrack {
	out := make([]TileTrack, 0, 6)
	for _, td := range edge.BothTilesAndDirections() {
		de := geometry.NewDirectionalEdge(td.Tile, td.Direction)
		if role == RoleStart {
			out = append(out, TracksEnteredVia(de)...)
		} else {
			out = append(out, TracksExitingVia(de.Mirror())...)
		}
	}
	return out
}

// Successors lists the segments a vehicle leaving t can continue onto, one
// per candidate type that connects back to t. Candidates normally come from
// TypesWithConnection or a filtered subset of it.
func Successors(t TileTrack, candidates []TrackType) []TileTrack {
	tile := t.NextTileCoords()
	entry := t.PointingIn.Reverse()
	out := make([]TileTrack, 0, len(candidates))
	for _, tt := range candidates {
		if exit, ok := tt.OtherEnd(entry); ok {
			out = append(out, TileTrack{Tile: tile, TrackType: tt, PointingIn: exit})
		}
	}
	return out
}
