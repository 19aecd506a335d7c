package building

import (
	"railcraft.ai/internal/sim/cargo"
	"railcraft.ai/internal/sim/ids"
)

// ExchangeCargo moves industry output to the linked station and accepted
// cargo waiting at a station into the industries that consume it. Everything
// available moves; rates belong to the economy layer.
func (s *State) ExchangeCargo() {
	for _, b := range s.Buildings() {
		if b.IsStation() {
			continue
		}
		stID, ok := s.closestStation[b.ID]
		if !ok {
			continue
		}
		st := s.buildings[stID]
		def, ok := LookupIndustry(b.Industry)
		if !ok {
			continue
		}
		if st.Cargo == nil {
			st.Cargo = cargo.Map{}
		}
		if b.Cargo == nil {
			b.Cargo = cargo.Map{}
		}
		for _, r := range def.Produces {
			st.Cargo.Add(r, b.Cargo.Take(r, b.Cargo.Get(r)))
		}
		for _, r := range def.Consumes {
			b.Cargo.Add(r, st.Cargo.Take(r, st.Cargo.Get(r)))
		}
	}
}

// ShippableResources is what a transport may load at the station: anything
// held there that the station does not itself accept.
func (s *State) ShippableResources(station ids.StationID) cargo.Map {
	st, ok := s.Station(station)
	if !ok {
		return cargo.Map{}
	}
	accepted := s.AcceptedResources(station)
	out := cargo.Map{}
	for _, r := range st.Cargo.SortedKeys() {
		if !accepted.Has(r) {
			out[r] = st.Cargo[r]
		}
	}
	return out
}
