package transport

import (
	"math"

	"railcraft.ai/internal/sim/building"
	"railcraft.ai/internal/sim/cargo"
)

// stationExchange lets a stopped vehicle trade with the station it is at.
type stationExchange struct {
	state   *building.State
	station *building.Building
	info    *Info
}

func (e *stationExchange) PlanUnload() cargo.Map {
	accepted := e.state.AcceptedResources(e.station.ID)
	out := cargo.Map{}
	for _, r := range e.info.CargoLoaded.SortedKeys() {
		if accepted.Has(r) {
			out[r] = e.info.CargoLoaded[r]
		}
	}
	return out
}

func (e *stationExchange) ApplyUnload(m cargo.Map) cargo.Map {
	if e.station.Cargo == nil {
		e.station.Cargo = cargo.Map{}
	}
	moved := cargo.Map{}
	for _, r := range m.SortedKeys() {
		n := e.info.CargoLoaded.Take(r, m[r])
		e.station.Cargo.Add(r, n)
		moved.Add(r, n)
	}
	return moved
}

func (e *stationExchange) PlanLoad(exclude cargo.Set) cargo.Map {
	avail := e.state.ShippableResources(e.station.ID)
	out := cargo.Map{}
	for _, r := range avail.SortedKeys() {
		if exclude.Has(r) {
			continue
		}
		space := e.info.Type.Capacity(r) - e.info.CargoLoaded.Get(r)
		if space <= 0 {
			continue
		}
		out[r] = math.Min(space, avail[r])
	}
	return out
}

func (e *stationExchange) ApplyLoad(m cargo.Map) cargo.Map {
	moved := cargo.Map{}
	if e.station.Cargo == nil {
		return moved
	}
	for _, r := range m.SortedKeys() {
		n := e.station.Cargo.Take(r, m[r])
		e.info.CargoLoaded.Add(r, n)
		moved.Add(r, n)
	}
	return moved
}
