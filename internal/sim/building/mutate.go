package building

import (
	"fmt"

	"railcraft.ai/internal/sim/geometry"
	"railcraft.ai/internal/sim/ids"
	"railcraft.ai/internal/sim/tracks"
)

// BuildTracks lays a batch of track. Either every entry is Ok or
// AlreadyExists and the batch is applied, or nothing changes.
func (s *State) BuildTracks(owner ids.PlayerID, infos []TrackInfo) error {
	pending := map[TrackInfo]struct{}{}
	for _, info := range infos {
		info.Owner = owner
		switch s.CanBuildTrack(owner, info) {
		case Invalid:
			return fmt.Errorf("track %s: %w", info, ErrInvalid)
		case Ok:
			pending[info] = struct{}{}
		}
	}
	for _, info := range infos {
		info.Owner = owner
		if _, ok := pending[info]; ok {
			s.addTrack(owner, info.Tile, info.TrackType)
		}
	}
	s.recomputeLinks()
	return nil
}

// RemoveTrack takes up one of owner's track pieces. Platform track goes with
// its station, not on its own.
func (s *State) RemoveTrack(owner ids.PlayerID, tile geometry.TileCoords, tt tracks.TrackType) error {
	existing := s.tracks[tile]
	if !existing.Has(tt) {
		return fmt.Errorf("track %s@%s: %w", tt, tile, ErrNotFound)
	}
	if existing.Owner != owner {
		return fmt.Errorf("track %s@%s: %w", tt, tile, ErrNotOwner)
	}
	if _, ok := s.StationAt(tile); ok {
		return fmt.Errorf("track %s@%s is a platform: %w", tt, tile, ErrInvalid)
	}
	s.removeTrack(tile, tt)
	s.recomputeLinks()
	return nil
}

// BuildStation places a station and lays its platform track.
func (s *State) BuildStation(owner ids.PlayerID, nw geometry.TileCoords, spec StationSpec) (ids.StationID, error) {
	if r := s.CanBuildStation(owner, nw, spec); r != Ok {
		return "", fmt.Errorf("station at %s: %w", nw, ErrInvalid)
	}
	sp := spec
	b := &Building{
		ID:       s.counters.Building(),
		Owner:    owner,
		Kind:     KindStation,
		Coverage: spec.Coverage(nw),
		Station:  &sp,
	}
	s.insert(b)
	for _, tile := range b.Coverage.Tiles() {
		s.addTrack(owner, tile, spec.Orientation)
	}
	s.recomputeLinks()
	return b.ID, nil
}

func (s *State) BuildIndustry(owner ids.PlayerID, nw geometry.TileCoords, it IndustryType) (ids.BuildingID, error) {
	if r := s.CanBuildIndustry(owner, nw, it); r != Ok {
		return "", fmt.Errorf("industry %s at %s: %w", it, nw, ErrInvalid)
	}
	def, _ := LookupIndustry(it)
	b := &Building{
		ID:       s.counters.Building(),
		Owner:    owner,
		Kind:     KindIndustry,
		Coverage: geometry.TileCoverage{NorthWest: nw, SouthEast: nw.Add(def.Width-1, def.Depth-1)},
		Industry: it,
	}
	s.insert(b)
	s.recomputeLinks()
	return b.ID, nil
}

// RemoveBuilding demolishes a building. A station takes its platform track
// with it.
func (s *State) RemoveBuilding(owner ids.PlayerID, id ids.BuildingID) error {
	b, ok := s.buildings[id]
	if !ok {
		return fmt.Errorf("building %s: %w", id, ErrNotFound)
	}
	if b.Owner != owner {
		return fmt.Errorf("building %s: %w", id, ErrNotOwner)
	}
	for _, tile := range b.Coverage.Tiles() {
		delete(s.footprint, tile)
		if b.IsStation() {
			s.removeTrack(tile, b.Station.Orientation)
		}
	}
	delete(s.buildings, id)
	s.recomputeLinks()
	return nil
}

// Restore inserts a building and track exactly as recorded, without
// legality checks. Used when loading snapshots.
func (s *State) Restore(buildings []*Building, laid []TrackInfo) {
	for _, b := range buildings {
		s.insert(b)
		s.counters.Observe(string(b.ID))
	}
	for _, t := range laid {
		s.addTrack(t.Owner, t.Tile, t.TrackType)
	}
	s.recomputeLinks()
}

func (s *State) insert(b *Building) {
	s.buildings[b.ID] = b
	for _, tile := range b.Coverage.Tiles() {
		s.footprint[tile] = b.ID
	}
}

func (s *State) addTrack(owner ids.PlayerID, tile geometry.TileCoords, tt tracks.TrackType) {
	existing := s.tracks[tile]
	if existing == nil {
		existing = &TileTracks{Owner: owner, Types: map[tracks.TrackType]struct{}{}}
		s.tracks[tile] = existing
	}
	existing.Types[tt] = struct{}{}
}

func (s *State) removeTrack(tile geometry.TileCoords, tt tracks.TrackType) {
	existing := s.tracks[tile]
	if existing == nil {
		return
	}
	delete(existing.Types, tt)
	if len(existing.Types) == 0 {
		delete(s.tracks, tile)
	}
}

// recomputeLinks rebuilds the industry -> station map. Each industry links
// to the nearest station of its owner within linkDistance; ties go to the
// lower id.
func (s *State) recomputeLinks() {
	s.closestStation = map[ids.BuildingID]ids.StationID{}
	all := s.Buildings()
	for _, b := range all {
		if b.IsStation() {
			continue
		}
		best := -1
		var bestID ids.StationID
		for _, st := range all {
			if !st.IsStation() || st.Owner != b.Owner {
				continue
			}
			d := b.Coverage.Distance(st.Coverage)
			if d > s.linkDistance {
				continue
			}
			if best < 0 || d < best {
				best, bestID = d, st.ID
			}
		}
		if best >= 0 {
			s.closestStation[b.ID] = bestID
		}
	}
}
