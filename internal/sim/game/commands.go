package game

import (
	"fmt"

	"railcraft.ai/internal/sim/building"
	"railcraft.ai/internal/sim/cargo"
	"railcraft.ai/internal/sim/geometry"
	"railcraft.ai/internal/sim/ids"
	"railcraft.ai/internal/sim/orders"
	"railcraft.ai/internal/sim/planner"
	"railcraft.ai/internal/sim/tracks"
	"railcraft.ai/internal/sim/transport"
)

// AddPlayer registers a player. An empty id mints a fresh one.
func (g *Game) AddPlayer(id ids.PlayerID, name string, ai bool) *Player {
	if id == "" {
		id = ids.NewPlayerID()
	}
	if p, ok := g.players[id]; ok {
		return p
	}
	p := &Player{ID: id, Name: name, AI: ai}
	g.players[id] = p
	return p
}

func (g *Game) requirePlayer(id ids.PlayerID) error {
	if _, ok := g.players[id]; !ok {
		return fmt.Errorf("%s: %w", id, ErrUnknownPlayer)
	}
	return nil
}

// BuildTracks lays every entry for owner, or nothing when any entry is
// rejected.
func (g *Game) BuildTracks(owner ids.PlayerID, infos []building.TrackInfo) error {
	if err := g.requirePlayer(owner); err != nil {
		return err
	}
	for i := range infos {
		infos[i].Owner = owner
	}
	return g.state.BuildTracks(owner, infos)
}

// PlanTracks searches for the cheapest buildable connection without
// building it.
func (g *Game) PlanTracks(owner ids.PlayerID, head geometry.DirectionalEdge, tails []geometry.DirectionalEdge) (planner.Plan, error) {
	if err := g.requirePlayer(owner); err != nil {
		return planner.Plan{}, err
	}
	plan, ok := g.planner.PlanDirectional(owner, head, tails, g.state, g.cfg.AlreadyExistsCoef)
	if !ok {
		return plan, ErrNoRoute
	}
	return plan, nil
}

// PlanAndBuildTracks plans like PlanTracks and lays the new segments.
func (g *Game) PlanAndBuildTracks(owner ids.PlayerID, head geometry.DirectionalEdge, tails []geometry.DirectionalEdge) (planner.Plan, error) {
	plan, err := g.PlanTracks(owner, head, tails)
	if err != nil {
		return plan, err
	}
	if err := g.state.BuildTracks(owner, plan.Tracks); err != nil {
		return plan, fmt.Errorf("build planned tracks: %w", err)
	}
	return plan, nil
}

func (g *Game) BuildStation(owner ids.PlayerID, nw geometry.TileCoords, spec building.StationSpec) (ids.StationID, error) {
	if err := g.requirePlayer(owner); err != nil {
		return "", err
	}
	return g.state.BuildStation(owner, nw, spec)
}

func (g *Game) BuildIndustry(owner ids.PlayerID, nw geometry.TileCoords, it building.IndustryType) (ids.BuildingID, error) {
	if err := g.requirePlayer(owner); err != nil {
		return "", err
	}
	return g.state.BuildIndustry(owner, nw, it)
}

func (g *Game) DemolishTrack(owner ids.PlayerID, tile geometry.TileCoords, tt tracks.TrackType) error {
	if err := g.requirePlayer(owner); err != nil {
		return err
	}
	return g.state.RemoveTrack(owner, tile, tt)
}

// DemolishBuilding removes a station or industry. Transports heading to a
// removed station force-stop at their next tile boundary.
func (g *Game) DemolishBuilding(owner ids.PlayerID, id ids.BuildingID) error {
	if err := g.requirePlayer(owner); err != nil {
		return err
	}
	return g.state.RemoveBuilding(owner, id)
}

// PurchaseTransport places a new transport on the first exit of its first
// stop, standing at the end of the segment so it starts by handling cargo
// there.
func (g *Game) PurchaseTransport(owner ids.PlayerID, cars []cargo.ResourceType, os []orders.MovementOrder) (ids.TransportID, error) {
	if err := g.requirePlayer(owner); err != nil {
		return "", err
	}
	if len(cars) == 0 {
		return "", fmt.Errorf("%w: transport needs at least one car", ErrBadRequest)
	}
	mo, err := orders.FromSlice(os)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	if err := g.validateOrders(owner, mo); err != nil {
		return "", err
	}
	exits := g.state.StationExitTileTracks(mo.CurrentOrder().GoTo)
	if len(exits) == 0 {
		return "", fmt.Errorf("station %s has no exits: %w", mo.CurrentOrder().GoTo, building.ErrInvalid)
	}

	tt := transport.TransportType{
		Name:         "train",
		Cars:         append([]cargo.ResourceType(nil), cars...),
		CarCapacity:  g.cfg.CarCapacity,
		CarLength:    g.cfg.CarLength,
		EngineLength: g.cfg.EngineLength,
	}
	id := g.state.Counters().Transport()
	info := transport.New(id, owner, tt, exits[0], g.cfg.DefaultSpeed, mo)
	info.Location.Progress = 1
	g.transports[id] = info
	return id, nil
}

func (g *Game) validateOrders(owner ids.PlayerID, mo *orders.MovementOrders) error {
	for _, sid := range mo.Stations() {
		st, ok := g.state.Station(sid)
		if !ok {
			return fmt.Errorf("station %s: %w", sid, building.ErrNotFound)
		}
		if st.Owner != owner {
			return fmt.Errorf("station %s: %w", sid, building.ErrNotOwner)
		}
	}
	return nil
}

// OrdersUpdate edits an itinerary. Replace applies first, then Push, then
// Remove.
type OrdersUpdate struct {
	Replace []orders.MovementOrder
	Push    *orders.MovementOrder
	Remove  *int
}

func (g *Game) UpdateMovementOrders(owner ids.PlayerID, id ids.TransportID, u OrdersUpdate) error {
	info, err := g.ownedTransport(owner, id)
	if err != nil {
		return err
	}
	if u.Replace == nil && u.Push == nil && u.Remove == nil {
		return fmt.Errorf("%w: empty orders update", ErrBadRequest)
	}

	mo := info.Orders.Clone()
	if u.Replace != nil {
		repl, err := orders.FromSlice(u.Replace)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrBadRequest, err)
		}
		repl.ForceStop = mo.ForceStop
		mo = repl
	}
	if u.Push != nil {
		mo.Push(*u.Push)
	}
	if u.Remove != nil {
		if err := mo.Remove(*u.Remove); err != nil {
			return fmt.Errorf("%w: %v", ErrBadRequest, err)
		}
	}
	if err := g.validateOrders(owner, mo); err != nil {
		return err
	}

	if mo.CurrentOrder().GoTo != info.Orders.CurrentOrder().GoTo {
		info.Loading = cargo.State{}
	}
	info.Orders = mo
	info.Dwelling = false
	return nil
}

// ClearForceStop lets a stopped transport look for a route again. It may
// turn around on its first lookup.
func (g *Game) ClearForceStop(owner ids.PlayerID, id ids.TransportID) error {
	info, err := g.ownedTransport(owner, id)
	if err != nil {
		return err
	}
	info.Orders.SetForceStop(false)
	info.Departing = true
	return nil
}

func (g *Game) ownedTransport(owner ids.PlayerID, id ids.TransportID) (*transport.Info, error) {
	if err := g.requirePlayer(owner); err != nil {
		return nil, err
	}
	info, ok := g.transports[id]
	if !ok {
		return nil, fmt.Errorf("transport %s: %w", id, building.ErrNotFound)
	}
	if info.Owner != owner {
		return nil, fmt.Errorf("transport %s: %w", id, building.ErrNotOwner)
	}
	return info, nil
}
