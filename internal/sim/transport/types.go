// Package transport advances vehicles along laid track: continuous motion
// within a tile, route lookups at tile boundaries and timed cargo handling
// while stopped at a station.
package transport

import (
	"fmt"
	"math"

	"railcraft.ai/internal/sim/cargo"
	"railcraft.ai/internal/sim/ids"
	"railcraft.ai/internal/sim/orders"
	"railcraft.ai/internal/sim/tracks"
)

// TransportType is the static make-up of a vehicle: one car per entry in
// Cars, each carrying only its resource.
type TransportType struct {
	Name         string               `json:"name"`
	Cars         []cargo.ResourceType `json:"cars"`
	CarCapacity  float64              `json:"car_capacity"`
	CarLength    float64              `json:"car_length"`
	EngineLength float64              `json:"engine_length"`
}

// LengthInTiles is the physical length of engine plus cars.
func (t TransportType) LengthInTiles() float64 {
	return t.EngineLength + float64(len(t.Cars))*t.CarLength
}

// Capacity is how much of r the vehicle holds in total.
func (t TransportType) Capacity(r cargo.ResourceType) float64 {
	n := 0
	for _, c := range t.Cars {
		if c == r {
			n++
		}
	}
	return float64(n) * t.CarCapacity
}

// MaxTilePath is how many segments Location keeps: twice the vehicle
// length, rounded up, and never fewer than one.
func (t TransportType) MaxTilePath() int {
	n := int(math.Ceil(2 * t.LengthInTiles()))
	if n < 1 {
		n = 1
	}
	return n
}

// Location is where the vehicle is. TilePath[0] is the occupied segment,
// the rest trail behind it. Progress is in [0,1]; 1 means the segment has
// been fully travelled and the next one is due.
type Location struct {
	TilePath []tracks.TileTrack `json:"tile_path"`
	Progress float64            `json:"progress"`
}

func (l Location) Head() tracks.TileTrack { return l.TilePath[0] }

func (l Location) AtBoundary() bool { return l.Progress >= 1 }

func (l Location) String() string {
	if len(l.TilePath) == 0 {
		return "nowhere"
	}
	return fmt.Sprintf("%s@%.3f", l.Head(), l.Progress)
}

// Info is one vehicle: identity and make-up, plus everything that changes
// as it runs.
type Info struct {
	ID    ids.TransportID `json:"id"`
	Owner ids.PlayerID    `json:"owner"`
	Type  TransportType   `json:"type"`

	Location    Location               `json:"location"`
	Velocity    float64                `json:"velocity"`
	Orders      *orders.MovementOrders `json:"orders"`
	Loading     cargo.State            `json:"loading"`
	CargoLoaded cargo.Map              `json:"cargo_loaded"`

	// Departing is set between finishing a stop and the first route lookup
	// after it; only then may the vehicle turn around.
	Departing bool `json:"departing,omitempty"`
	// Dwelling is set when a finished stop leaves the vehicle with nowhere
	// else to go. The stop is not repeated until the vehicle moves or its
	// orders change.
	Dwelling bool `json:"dwelling,omitempty"`

	CompletedStops uint64  `json:"completed_stops"`
	Odometer       float64 `json:"odometer"`
}

// New places a vehicle on start, not moving along it yet.
func New(id ids.TransportID, owner ids.PlayerID, tt TransportType, start tracks.TileTrack, velocity float64, mo *orders.MovementOrders) *Info {
	return &Info{
		ID:          id,
		Owner:       owner,
		Type:        tt,
		Location:    Location{TilePath: []tracks.TileTrack{start}},
		Velocity:    velocity,
		Orders:      mo,
		CargoLoaded: cargo.Map{},
	}
}

func (i *Info) ForceStopped() bool { return i.Orders != nil && i.Orders.ForceStop }
