package building

import (
	"fmt"
	"sort"

	"railcraft.ai/internal/sim/cargo"
	"railcraft.ai/internal/sim/geometry"
	"railcraft.ai/internal/sim/ids"
	"railcraft.ai/internal/sim/terrain"
	"railcraft.ai/internal/sim/tracks"
)

// DefaultLinkDistance is how far, in tiles, an industry may be from the
// station it trades cargo through.
const DefaultLinkDistance = 4

// State owns the track index, the building records and the derived
// industry -> closest station linkage. Every mutation goes through a method
// that recomputes the linkage before returning.
type State struct {
	terrain *terrain.Map

	tracks    map[geometry.TileCoords]*TileTracks
	buildings map[ids.BuildingID]*Building
	// tile -> building covering it
	footprint map[geometry.TileCoords]ids.BuildingID

	closestStation map[ids.BuildingID]ids.StationID
	linkDistance   int

	counters ids.Counters
}

func NewState(m *terrain.Map, linkDistance int) *State {
	if linkDistance <= 0 {
		linkDistance = DefaultLinkDistance
	}
	return &State{
		terrain:        m,
		tracks:         map[geometry.TileCoords]*TileTracks{},
		buildings:      map[ids.BuildingID]*Building{},
		footprint:      map[geometry.TileCoords]ids.BuildingID{},
		closestStation: map[ids.BuildingID]ids.StationID{},
		linkDistance:   linkDistance,
	}
}

func (s *State) Terrain() *terrain.Map { return s.terrain }

func (s *State) Counters() *ids.Counters { return &s.counters }

// TracksAt returns the track set on tile, nil when none.
func (s *State) TracksAt(tile geometry.TileCoords) *TileTracks { return s.tracks[tile] }

// HasTrack reports whether owner has tt laid on tile.
func (s *State) HasTrack(owner ids.PlayerID, tile geometry.TileCoords, tt tracks.TrackType) bool {
	tt0 := s.tracks[tile]
	return tt0 != nil && tt0.Owner == owner && tt0.Has(tt)
}

// TrackTypesWithConnection is tracks.TypesWithConnection narrowed to the
// types laid on tile.
func (s *State) TrackTypesWithConnection(tile geometry.TileCoords, needed geometry.Direction) []tracks.TrackType {
	tt := s.tracks[tile]
	if tt == nil {
		return nil
	}
	var out []tracks.TrackType
	for _, t := range tracks.TypesWithConnection(needed) {
		if tt.Has(t) {
			out = append(out, t)
		}
	}
	return out
}

// AllTracks lists every laid track in tile then catalog order.
func (s *State) AllTracks() []TrackInfo {
	tiles := make([]geometry.TileCoords, 0, len(s.tracks))
	for t := range s.tracks {
		tiles = append(tiles, t)
	}
	sort.Slice(tiles, func(i, j int) bool { return tiles[i].Less(tiles[j]) })
	out := make([]TrackInfo, 0, len(tiles))
	for _, tile := range tiles {
		tt := s.tracks[tile]
		for _, t := range tt.Sorted() {
			out = append(out, TrackInfo{Owner: tt.Owner, Tile: tile, TrackType: t})
		}
	}
	return out
}

func (s *State) Building(id ids.BuildingID) (*Building, bool) {
	b, ok := s.buildings[id]
	return b, ok
}

// Station returns the building only if it is a station.
func (s *State) Station(id ids.StationID) (*Building, bool) {
	b, ok := s.buildings[id]
	if !ok || !b.IsStation() {
		return nil, false
	}
	return b, true
}

// BuildingAt returns the building whose footprint covers tile.
func (s *State) BuildingAt(tile geometry.TileCoords) (*Building, bool) {
	id, ok := s.footprint[tile]
	if !ok {
		return nil, false
	}
	return s.buildings[id], true
}

// StationAt returns the station covering tile.
func (s *State) StationAt(tile geometry.TileCoords) (*Building, bool) {
	b, ok := s.BuildingAt(tile)
	if !ok || !b.IsStation() {
		return nil, false
	}
	return b, true
}

// Buildings lists all buildings in id order.
func (s *State) Buildings() []*Building {
	out := make([]*Building, 0, len(s.buildings))
	for _, b := range s.buildings {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return ids.Less(string(out[i].ID), string(out[j].ID)) })
	return out
}

// StationExitTileTracks lists the segments that count as arriving at the
// station. Empty when the station does not exist.
func (s *State) StationExitTileTracks(id ids.StationID) []tracks.TileTrack {
	b, ok := s.Station(id)
	if !ok {
		return nil
	}
	return b.ExitTileTracks()
}

// ClosestStation returns the station a non-station building trades through.
func (s *State) ClosestStation(id ids.BuildingID) (ids.StationID, bool) {
	st, ok := s.closestStation[id]
	return st, ok
}

// LinkedIndustries lists the buildings whose closest station is station.
func (s *State) LinkedIndustries(station ids.StationID) []*Building {
	var out []*Building
	for _, b := range s.Buildings() {
		if st, ok := s.closestStation[b.ID]; ok && st == station {
			out = append(out, b)
		}
	}
	return out
}

// AcceptedResources is the union of what the station's linked industries
// consume.
func (s *State) AcceptedResources(station ids.StationID) cargo.Set {
	out := cargo.Set{}
	for _, b := range s.LinkedIndustries(station) {
		def, ok := LookupIndustry(b.Industry)
		if !ok {
			continue
		}
		for _, r := range def.Consumes {
			out[r] = struct{}{}
		}
	}
	return out
}

// AddCargo puts cargo into a building's store. Production is driven from
// outside this package.
func (s *State) AddCargo(id ids.BuildingID, r cargo.ResourceType, amount float64) error {
	b, ok := s.buildings[id]
	if !ok {
		return fmt.Errorf("building %s: %w", id, ErrNotFound)
	}
	if b.Cargo == nil {
		b.Cargo = cargo.Map{}
	}
	b.Cargo.Add(r, amount)
	return nil
}
