// Package building is the authoritative per-tile index of what is built:
// track connections and their owner, stations and industries. It answers
// every legality question the planner and the command layer ask.
package building

import (
	"errors"
	"fmt"
	"sort"

	"railcraft.ai/internal/sim/cargo"
	"railcraft.ai/internal/sim/geometry"
	"railcraft.ai/internal/sim/ids"
	"railcraft.ai/internal/sim/tracks"
)

var (
	ErrInvalid  = errors.New("invalid build")
	ErrNotFound = errors.New("not found")
	ErrNotOwner = errors.New("not owner")
)

// CanBuildResponse is the outcome of a legality check.
type CanBuildResponse uint8

const (
	Ok CanBuildResponse = iota
	AlreadyExists
	Invalid
)

func (r CanBuildResponse) String() string {
	switch r {
	case Ok:
		return "OK"
	case AlreadyExists:
		return "ALREADY_EXISTS"
	default:
		return "INVALID"
	}
}

// TrackInfo is one track type at one tile, owned by a player.
type TrackInfo struct {
	Owner     ids.PlayerID        `json:"owner"`
	Tile      geometry.TileCoords `json:"tile"`
	TrackType tracks.TrackType    `json:"track_type"`
}

func (t TrackInfo) String() string { return fmt.Sprintf("%s@%s", t.TrackType, t.Tile) }

// TileTracks is what is laid on one tile. A tile has at most one owner.
type TileTracks struct {
	Owner ids.PlayerID
	Types map[tracks.TrackType]struct{}
}

func (t *TileTracks) Has(tt tracks.TrackType) bool {
	if t == nil {
		return false
	}
	_, ok := t.Types[tt]
	return ok
}

// Sorted returns the track types in catalog order.
func (t *TileTracks) Sorted() []tracks.TrackType {
	if t == nil {
		return nil
	}
	out := make([]tracks.TrackType, 0, len(t.Types))
	for _, tt := range tracks.All() {
		if t.Has(tt) {
			out = append(out, tt)
		}
	}
	return out
}

type Kind uint8

const (
	KindStation Kind = iota + 1
	KindIndustry
)

func (k Kind) String() string {
	switch k {
	case KindStation:
		return "STATION"
	case KindIndustry:
		return "INDUSTRY"
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// StationSpec describes a straight station: Platforms parallel tracks of
// Length tiles laid along Orientation.
type StationSpec struct {
	Orientation tracks.TrackType `json:"orientation"`
	Platforms   int              `json:"platforms"`
	Length      int              `json:"length"`
}

// MaxStationSide bounds both platform count and platform length.
const MaxStationSide = 64

func (s StationSpec) Validate() error {
	if s.Orientation != tracks.NorthSouth && s.Orientation != tracks.EastWest {
		return fmt.Errorf("%w: station orientation must be straight, got %s", ErrInvalid, s.Orientation)
	}
	if s.Platforms <= 0 || s.Length <= 0 {
		return fmt.Errorf("%w: station needs platforms and length, got %dx%d", ErrInvalid, s.Platforms, s.Length)
	}
	if s.Platforms > MaxStationSide || s.Length > MaxStationSide {
		return fmt.Errorf("%w: station %dx%d exceeds %d tiles per side", ErrInvalid, s.Platforms, s.Length, MaxStationSide)
	}
	return nil
}

// Coverage returns the footprint when the north-west corner is at nw.
func (s StationSpec) Coverage(nw geometry.TileCoords) geometry.TileCoverage {
	if s.Orientation == tracks.NorthSouth {
		return geometry.TileCoverage{NorthWest: nw, SouthEast: nw.Add(s.Platforms-1, s.Length-1)}
	}
	return geometry.TileCoverage{NorthWest: nw, SouthEast: nw.Add(s.Length-1, s.Platforms-1)}
}

// ExitTileTracks lists, for each platform, the two segments at the platform
// ends pointing out of the station.
func (s StationSpec) ExitTileTracks(nw geometry.TileCoords) []tracks.TileTrack {
	out := make([]tracks.TileTrack, 0, 2*s.Platforms)
	for p := 0; p < s.Platforms; p++ {
		if s.Orientation == tracks.NorthSouth {
			out = append(out,
				tracks.TileTrack{Tile: nw.Add(p, 0), TrackType: tracks.NorthSouth, PointingIn: geometry.North},
				tracks.TileTrack{Tile: nw.Add(p, s.Length-1), TrackType: tracks.NorthSouth, PointingIn: geometry.South},
			)
			continue
		}
		out = append(out,
			tracks.TileTrack{Tile: nw.Add(0, p), TrackType: tracks.EastWest, PointingIn: geometry.West},
			tracks.TileTrack{Tile: nw.Add(s.Length-1, p), TrackType: tracks.EastWest, PointingIn: geometry.East},
		)
	}
	return out
}

// IndustryType names an entry of the industry catalog.
type IndustryType string

const (
	CoalMine     IndustryType = "COAL_MINE"
	IronMine     IndustryType = "IRON_MINE"
	SteelMill    IndustryType = "STEEL_MILL"
	Farm         IndustryType = "FARM"
	FoodPlant    IndustryType = "FOOD_PLANT"
	Forest       IndustryType = "FOREST"
	Warehouse    IndustryType = "WAREHOUSE"
	PowerPlant   IndustryType = "POWER_PLANT"
	LumberMill   IndustryType = "LUMBER_MILL"
	GoodsFactory IndustryType = "GOODS_FACTORY"
)

// IndustryDef is the static part of an industry: its footprint size and the
// resources it takes in and ships out.
type IndustryDef struct {
	Width    int
	Depth    int
	Consumes []cargo.ResourceType
	Produces []cargo.ResourceType
}

var industryCatalog = map[IndustryType]IndustryDef{
	CoalMine:     {Width: 2, Depth: 2, Produces: []cargo.ResourceType{cargo.Coal}},
	IronMine:     {Width: 2, Depth: 2, Produces: []cargo.ResourceType{cargo.IronOre}},
	SteelMill:    {Width: 3, Depth: 2, Consumes: []cargo.ResourceType{cargo.Coal, cargo.IronOre}, Produces: []cargo.ResourceType{cargo.Steel}},
	Farm:         {Width: 3, Depth: 3, Produces: []cargo.ResourceType{cargo.Grain}},
	FoodPlant:    {Width: 2, Depth: 2, Consumes: []cargo.ResourceType{cargo.Grain}, Produces: []cargo.ResourceType{cargo.Food}},
	Forest:       {Width: 3, Depth: 3, Produces: []cargo.ResourceType{cargo.Wood}},
	LumberMill:   {Width: 2, Depth: 2, Consumes: []cargo.ResourceType{cargo.Wood}, Produces: []cargo.ResourceType{cargo.Goods}},
	GoodsFactory: {Width: 2, Depth: 2, Consumes: []cargo.ResourceType{cargo.Steel}, Produces: []cargo.ResourceType{cargo.Goods}},
	PowerPlant:   {Width: 2, Depth: 2, Consumes: []cargo.ResourceType{cargo.Coal}},
	Warehouse:    {Width: 1, Depth: 1, Consumes: []cargo.ResourceType{cargo.Food, cargo.Goods}},
}

func LookupIndustry(t IndustryType) (IndustryDef, bool) {
	d, ok := industryCatalog[t]
	return d, ok
}

// IndustryTypes lists the catalog in name order.
func IndustryTypes() []IndustryType {
	out := make([]IndustryType, 0, len(industryCatalog))
	for t := range industryCatalog {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Building is a station or an industry record.
type Building struct {
	ID       ids.BuildingID        `json:"id"`
	Owner    ids.PlayerID          `json:"owner"`
	Kind     Kind                  `json:"kind"`
	Coverage geometry.TileCoverage `json:"coverage"`

	Station  *StationSpec `json:"station,omitempty"`
	Industry IndustryType `json:"industry,omitempty"`

	Cargo cargo.Map `json:"cargo,omitempty"`
}

func (b *Building) IsStation() bool { return b != nil && b.Kind == KindStation }

// ExitTileTracks is empty for industries.
func (b *Building) ExitTileTracks() []tracks.TileTrack {
	if !b.IsStation() {
		return nil
	}
	return b.Station.ExitTileTracks(b.Coverage.NorthWest)
}
