package transport

import (
	"go.uber.org/zap"

	"railcraft.ai/internal/sim/building"
	"railcraft.ai/internal/sim/cargo"
	"railcraft.ai/internal/sim/orders"
	"railcraft.ai/internal/sim/planner"
	"railcraft.ai/internal/sim/tracks"
)

// maxTransitions bounds the work done for one vehicle in one call.
const maxTransitions = 1 << 14

// Advancer moves vehicles. One Advancer serves one game.
type Advancer struct {
	planner *planner.Planner
	timing  cargo.Timing
	log     *zap.Logger
}

func NewAdvancer(p *planner.Planner, timing cargo.Timing, log *zap.Logger) *Advancer {
	if log == nil {
		log = zap.NewNop()
	}
	if p == nil {
		p = planner.New(log, 0)
	}
	return &Advancer{planner: p, timing: timing, log: log.Named("transport")}
}

// Advance spends delta seconds on info: moving, stopping at stations and
// picking the next segment at every tile boundary. A force-stopped vehicle
// does not change.
func (a *Advancer) Advance(info *Info, state *building.State, delta float64) {
	if delta <= 0 || info.ForceStopped() || len(info.Location.TilePath) == 0 {
		return
	}
	if info.CargoLoaded == nil {
		info.CargoLoaded = cargo.Map{}
	}
	remaining := delta
	for n := 0; remaining > 0; n++ {
		if info.ForceStopped() {
			return
		}
		if n == maxTransitions {
			a.log.Warn("transport did not settle within one advance",
				zap.String("transport", string(info.ID)),
				zap.Stringer("location", info.Location),
				zap.Float64("remaining", remaining))
			return
		}
		remaining = a.advanceOnce(info, state, remaining)
	}
}

func (a *Advancer) advanceOnce(info *Info, state *building.State, delta float64) float64 {
	loc := &info.Location
	if !loc.AtBoundary() {
		return a.move(info, delta)
	}

	head := loc.Head()
	order := info.Orders.CurrentOrder()
	if !arrived(head, state.StationExitTileTracks(order.GoTo)) {
		return a.jump(info, state, delta)
	}

	if info.Dwelling {
		return 0
	}
	if !info.Loading.Finished() {
		st, _ := state.Station(order.GoTo)
		ex := &stationExchange{state: state, station: st, info: info}
		return info.Loading.Step(delta, policyOf(order.Action), ex, a.timing)
	}

	info.Loading.ConsumeFinished()
	info.Orders.AdvanceToNextOrder()
	info.CompletedStops++
	info.Departing = true
	return a.jump(info, state, delta)
}

// move integrates motion within the head segment. Reaching the end uses only
// the time needed to get there.
func (a *Advancer) move(info *Info, delta float64) float64 {
	if info.Velocity <= 0 {
		return 0
	}
	loc := &info.Location
	length := loc.Head().Length().Float()
	left := length * (1 - loc.Progress)
	dist := info.Velocity * delta
	if dist >= left {
		loc.Progress = 1
		info.Odometer += left
		if rest := delta - left/info.Velocity; rest > 0 {
			return rest
		}
		return 0
	}
	loc.Progress += dist / length
	info.Odometer += dist
	return 0
}

// jump moves onto the first segment of the route to the current order's
// station. Right after a stop the vehicle may also turn around; it then
// travels its head segment again the other way.
func (a *Advancer) jump(info *Info, state *building.State, delta float64) float64 {
	loc := &info.Location
	head := loc.Head()
	target := info.Orders.CurrentOrder().GoTo

	starts := []tracks.TileTrack{head}
	if info.Departing {
		starts = append(starts, head.Reversed())
	}
	route, ok := a.planner.FindRoute(info.Owner, starts, state.StationExitTileTracks(target), state)
	if !ok {
		info.Orders.SetForceStop(true)
		a.log.Warn("no route, transport force-stopped",
			zap.String("transport", string(info.ID)),
			zap.String("owner", string(info.Owner)),
			zap.Stringer("head", head),
			zap.String("station", string(target)))
		return 0
	}
	if route.Path[0] != head {
		info.Departing, info.Dwelling = false, false
		loc.TilePath = []tracks.TileTrack{route.Path[0]}
		loc.Progress = 0
		return delta
	}
	if len(route.Path) < 2 {
		// The next stop is where the vehicle stands.
		info.Dwelling = true
		return 0
	}
	info.Departing, info.Dwelling = false, false

	path := make([]tracks.TileTrack, 0, len(loc.TilePath)+1)
	path = append(path, route.Path[1])
	path = append(path, loc.TilePath...)
	if limit := info.Type.MaxTilePath(); len(path) > limit {
		path = path[:limit]
	}
	loc.TilePath = path
	loc.Progress = 0
	return delta
}

func arrived(head tracks.TileTrack, exits []tracks.TileTrack) bool {
	for _, e := range exits {
		if e == head {
			return true
		}
	}
	return false
}

func policyOf(a orders.Action) cargo.Policy {
	return cargo.Policy{
		Unload: a.Unload == orders.UnloadAll,
		Load:   a.Load == orders.LoadAvailable,
	}
}
