// Package ai drives computer players through goals. Goals never touch game
// state directly: they read it and return wire commands, which the game
// applies and records like any client's.
package ai

import (
	"reflect"

	"railcraft.ai/internal/protocol"
	"railcraft.ai/internal/sim/cargo"
	"railcraft.ai/internal/sim/game"
	"railcraft.ai/internal/sim/geometry"
	"railcraft.ai/internal/sim/ids"
	"railcraft.ai/internal/sim/planner"
	"railcraft.ai/internal/sim/tracks"
)

type Kind string

const (
	GoalConnectStations Kind = "CONNECT_STATIONS"
	GoalRunService      Kind = "RUN_SERVICE"
	GoalRepairRoute     Kind = "REPAIR_ROUTE"
)

type Status string

const (
	Pending Status = "PENDING"
	Done    Status = "DONE"
	Failed  Status = "FAILED"
)

// MaxAttempts is how many unsuccessful steps a goal takes before failing.
const MaxAttempts = 5

// Goal is a tagged union; Kind says which fields are used.
//
//	CONNECT_STATIONS: Stations[0] -> Stations[1]
//	RUN_SERVICE:      Stations is the itinerary, Cars the consist; Transport
//	                  is filled once bought
//	REPAIR_ROUTE:     Transport
type Goal struct {
	ID        string
	Owner     ids.PlayerID
	Kind      Kind
	Stations  []ids.StationID
	Cars      []cargo.ResourceType
	Transport ids.TransportID
	Attempts  int
	Status    Status
}

type Result struct {
	Status   Status
	Commands []protocol.Command
}

// Step looks at g and decides what to do next. Commands returned are
// applied in the same tick, after Step returns.
func (gl *Goal) Step(g *game.Game) Result {
	switch gl.Kind {
	case GoalConnectStations:
		return gl.stepConnect(g)
	case GoalRunService:
		return gl.stepService(g)
	case GoalRepairRoute:
		return gl.stepRepair(g)
	}
	return Result{Status: Failed}
}

// attempt counts one more try and issues cmds, or fails the goal once its
// tries are used up.
func (gl *Goal) attempt(cmds ...protocol.Command) Result {
	gl.Attempts++
	if gl.Attempts > MaxAttempts {
		return Result{Status: Failed}
	}
	return Result{Status: Pending, Commands: cmds}
}

func (gl *Goal) stepConnect(g *game.Game) Result {
	if len(gl.Stations) != 2 {
		return Result{Status: Failed}
	}
	from, to := gl.Stations[0], gl.Stations[1]
	st := g.State()
	fromExits, toExits := st.StationExitTileTracks(from), st.StationExitTileTracks(to)
	if len(fromExits) == 0 || len(toExits) == 0 {
		return Result{Status: Failed}
	}
	if connected(g, gl.Owner, fromExits, toExits) {
		return Result{Status: Done}
	}

	heads := make([]geometry.DirectionalEdge, 0, len(fromExits))
	for _, e := range fromExits {
		heads = append(heads, tracks.ExitFrom(e))
	}
	head, ok := bestHead(g, gl.Owner, heads, entrancesOf(toExits))
	if !ok {
		return gl.attempt()
	}
	return gl.attempt(planCommand(head, entrancesOf(toExits)))
}

func (gl *Goal) stepService(g *game.Game) Result {
	if len(gl.Stations) == 0 || len(gl.Cars) == 0 {
		return Result{Status: Failed}
	}
	if gl.Transport != "" {
		if _, ok := g.Transport(gl.Transport); ok {
			return Result{Status: Done}
		}
		return Result{Status: Failed}
	}
	if id, ok := findService(g, gl.Owner, gl.Stations); ok {
		gl.Transport = id
		return Result{Status: Done}
	}

	st := g.State()
	for i, s := range gl.Stations {
		next := gl.Stations[(i+1)%len(gl.Stations)]
		if s == next {
			continue
		}
		if !connected(g, gl.Owner, st.StationExitTileTracks(s), st.StationExitTileTracks(next)) {
			return gl.attempt()
		}
	}

	cmd := protocol.Command{Kind: protocol.CmdPurchaseTransport}
	for _, c := range gl.Cars {
		cmd.Cars = append(cmd.Cars, string(c))
	}
	for _, s := range gl.Stations {
		cmd.Orders = append(cmd.Orders, protocol.OrderRef{StationID: string(s)})
	}
	return gl.attempt(cmd)
}

func (gl *Goal) stepRepair(g *game.Game) Result {
	info, ok := g.Transport(gl.Transport)
	if !ok || info.Owner != gl.Owner {
		return Result{Status: Failed}
	}
	if !info.ForceStopped() {
		return Result{Status: Done}
	}

	resume := protocol.Command{Kind: protocol.CmdClearForceStop, TransportID: string(info.ID)}
	target := info.Orders.CurrentOrder().GoTo
	exits := g.State().StationExitTileTracks(target)
	if len(exits) == 0 {
		// The stop is gone: drop it if there is anything left to run.
		if info.Orders.Len() < 2 {
			return Result{Status: Failed}
		}
		next := info.Orders.Next
		return gl.attempt(
			protocol.Command{Kind: protocol.CmdUpdateOrders, TransportID: string(info.ID), RemoveIndex: &next},
			resume,
		)
	}

	head := info.Location.Head()
	if connected(g, gl.Owner, []tracks.TileTrack{head, head.Reversed()}, exits) {
		return gl.attempt(resume)
	}
	// Plan from the head tile itself so a lifted head segment is relaid.
	heads := []geometry.DirectionalEdge{tracks.EntranceTo(head), tracks.EntranceTo(head.Reversed())}
	best, ok := bestHead(g, gl.Owner, heads, entrancesOf(exits))
	if !ok {
		return gl.attempt()
	}
	return gl.attempt(planCommand(best, entrancesOf(exits)), resume)
}

func connected(g *game.Game, owner ids.PlayerID, from, to []tracks.TileTrack) bool {
	if len(from) == 0 || len(to) == 0 {
		return false
	}
	_, ok := g.Planner().FindRoute(owner, from, to, g.State())
	return ok
}

// entrancesOf turns station exits into the edges crossed when driving into
// the station through them.
func entrancesOf(exits []tracks.TileTrack) []geometry.DirectionalEdge {
	out := make([]geometry.DirectionalEdge, 0, len(exits))
	for _, e := range exits {
		out = append(out, tracks.EntranceTo(e.Reversed()))
	}
	return out
}

// bestHead plans from every head and keeps the cheapest; earlier heads win
// ties.
func bestHead(g *game.Game, owner ids.PlayerID, heads, tails []geometry.DirectionalEdge) (geometry.DirectionalEdge, bool) {
	var best geometry.DirectionalEdge
	var bestPlan planner.Plan
	found := false
	for _, h := range heads {
		pl, ok := g.Planner().PlanDirectional(owner, h, tails, g.State(), g.Config().AlreadyExistsCoef)
		if !ok {
			continue
		}
		if !found || pl.Cost < bestPlan.Cost {
			best, bestPlan, found = h, pl, true
		}
	}
	return best, found
}

func planCommand(head geometry.DirectionalEdge, tails []geometry.DirectionalEdge) protocol.Command {
	cmd := protocol.Command{Kind: protocol.CmdPlanTracks, Head: edgeRef(head)}
	for _, t := range tails {
		cmd.Tails = append(cmd.Tails, *edgeRef(t))
	}
	return cmd
}

func edgeRef(e geometry.DirectionalEdge) *protocol.EdgeRef {
	return &protocol.EdgeRef{X: e.IntoTile.X, Z: e.IntoTile.Z, From: e.FromDirection.String()}
}

// findService returns the newest transport of owner running exactly the
// given itinerary.
func findService(g *game.Game, owner ids.PlayerID, stations []ids.StationID) (ids.TransportID, bool) {
	var found ids.TransportID
	for _, t := range g.Transports() {
		if t.Owner != owner || t.Orders.Len() != len(stations) {
			continue
		}
		var its []ids.StationID
		for _, o := range t.Orders.Orders {
			its = append(its, o.GoTo)
		}
		if reflect.DeepEqual(its, stations) {
			found = t.ID
		}
	}
	return found, found != ""
}
