package building

import (
	"railcraft.ai/internal/sim/geometry"
	"railcraft.ai/internal/sim/ids"
	"railcraft.ai/internal/sim/tracks"
)

// CanBuildTrack checks one track piece against the terrain, other players'
// property and what is already laid.
func (s *State) CanBuildTrack(owner ids.PlayerID, info TrackInfo) CanBuildResponse {
	if !info.TrackType.Valid() || !s.terrain.InBounds(info.Tile) || s.terrain.IsUnderwater(info.Tile) {
		return Invalid
	}
	if !s.trackLevel(info.Tile, info.TrackType) {
		return Invalid
	}
	if b, ok := s.BuildingAt(info.Tile); ok {
		if !b.IsStation() || b.Owner != owner || b.Station.Orientation != info.TrackType {
			return Invalid
		}
	}
	existing := s.tracks[info.Tile]
	if existing != nil && existing.Owner != owner {
		return Invalid
	}
	if existing.Has(info.TrackType) {
		return AlreadyExists
	}
	return Ok
}

// trackLevel: the corners at both connector edges must share one height.
func (s *State) trackLevel(tile geometry.TileCoords, tt tracks.TrackType) bool {
	conn := tt.ConnectionsClockwise()
	a := tile.EdgeVertices(conn[0])
	b := tile.EdgeVertices(conn[1])
	return s.terrain.Level(a[0], a[1], b[0], b[1])
}

// CanBuildStation checks a station footprint with its north-west corner at
// nw. Own matching track under the footprint is allowed and kept.
func (s *State) CanBuildStation(owner ids.PlayerID, nw geometry.TileCoords, spec StationSpec) CanBuildResponse {
	if spec.Validate() != nil {
		return Invalid
	}
	cov := spec.Coverage(nw)
	if !s.footprintBuildable(cov) {
		return Invalid
	}
	for _, tile := range cov.Tiles() {
		tt := s.tracks[tile]
		if tt == nil {
			continue
		}
		if tt.Owner != owner {
			return Invalid
		}
		for _, t := range tt.Sorted() {
			if t != spec.Orientation {
				return Invalid
			}
		}
	}
	return Ok
}

// CanBuildIndustry checks an industry footprint; industries never sit on
// track.
func (s *State) CanBuildIndustry(owner ids.PlayerID, nw geometry.TileCoords, it IndustryType) CanBuildResponse {
	def, ok := LookupIndustry(it)
	if !ok {
		return Invalid
	}
	cov := geometry.TileCoverage{NorthWest: nw, SouthEast: nw.Add(def.Width-1, def.Depth-1)}
	if !s.footprintBuildable(cov) {
		return Invalid
	}
	for _, tile := range cov.Tiles() {
		if s.tracks[tile] != nil {
			return Invalid
		}
	}
	return Ok
}

func (s *State) footprintBuildable(cov geometry.TileCoverage) bool {
	// Corners first: the coverage may come straight off the wire.
	if cov.Width() <= 0 || cov.Depth() <= 0 ||
		!s.terrain.InBounds(cov.NorthWest) || !s.terrain.InBounds(cov.SouthEast) {
		return false
	}
	tiles := cov.Tiles()
	verts := make([]geometry.VertexCoords, 0, 4*len(tiles))
	for _, tile := range tiles {
		if !s.terrain.InBounds(tile) || s.terrain.IsUnderwater(tile) {
			return false
		}
		if _, taken := s.footprint[tile]; taken {
			return false
		}
		v := tile.Vertices()
		verts = append(verts, v[:]...)
	}
	return s.terrain.Level(verts...)
}
