package main

import (
	"fmt"
	"strings"

	"railcraft.ai/internal/protocol"
)

// script lays down two east-west stations on one row, joins them with
// planned track and buys a transport shuttling between them. Each step
// waits for the previous CMD_RESULT so it can use the ids it created.
type script struct {
	x, z, span int
	cars       []string

	step     int
	inFlight bool
	stations []string
}

func newScript(x, z, span int, cars []string) *script {
	if span < 4 {
		span = 4
	}
	return &script{x: x, z: z, span: span, cars: cars}
}

func (s *script) done() bool { return s.step >= 4 }

func (s *script) next() (protocol.CmdMsg, bool) {
	if s.inFlight || s.done() {
		return protocol.CmdMsg{}, false
	}
	var c protocol.Command
	switch s.step {
	case 0:
		c = s.station(s.x)
	case 1:
		c = s.station(s.x + s.span)
	case 2:
		// Stations are two tiles long; track runs from the east end of the
		// first to the west end of the second.
		c = protocol.Command{
			Kind:  protocol.CmdPlanTracks,
			Head:  &protocol.EdgeRef{X: s.x + 2, Z: s.z, From: "W"},
			Tails: []protocol.EdgeRef{{X: s.x + s.span, Z: s.z, From: "W"}},
		}
	case 3:
		orders := make([]protocol.OrderRef, 0, len(s.stations))
		for _, id := range s.stations {
			orders = append(orders, protocol.OrderRef{StationID: id})
		}
		c = protocol.Command{Kind: protocol.CmdPurchaseTransport, Cars: s.cars, Orders: orders}
	}
	s.inFlight = true
	return protocol.CmdMsg{
		Type:            protocol.TypeCmd,
		ProtocolVersion: protocol.Version,
		ID:              fmt.Sprintf("bot-%d", s.step+1),
		Cmd:             c,
	}, true
}

func (s *script) station(x int) protocol.Command {
	return protocol.Command{Kind: protocol.CmdBuildStation, Tile: &[2]int{x, s.z}, TrackType: "EW", Platforms: 1, Length: 2}
}

// record advances the script on a successful result for the step in flight.
func (s *script) record(r protocol.CmdResultMsg) {
	if !s.inFlight || r.ID != fmt.Sprintf("bot-%d", s.step+1) {
		return
	}
	if s.step < 2 {
		s.stations = append(s.stations, r.CreatedID)
	}
	s.inFlight = false
	s.step++
}

func splitCars(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(strings.ToUpper(p)); p != "" {
			out = append(out, p)
		}
	}
	return out
}
