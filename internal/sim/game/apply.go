package game

import (
	"errors"
	"fmt"

	"railcraft.ai/internal/protocol"
	"railcraft.ai/internal/sim/building"
	"railcraft.ai/internal/sim/cargo"
	"railcraft.ai/internal/sim/geometry"
	"railcraft.ai/internal/sim/ids"
	"railcraft.ai/internal/sim/orders"
	"railcraft.ai/internal/sim/tracks"
)

// Result is what a successful command reports back.
type Result struct {
	CreatedID string
	Tracks    []building.TrackInfo
	Cost      float64
}

// Apply runs one wire command for player.
func (g *Game) Apply(player ids.PlayerID, cmd protocol.Command) (Result, error) {
	switch cmd.Kind {
	case protocol.CmdBuildTracks:
		infos, err := trackInfos(player, cmd.Tracks)
		if err != nil {
			return Result{}, err
		}
		return Result{Tracks: infos}, g.BuildTracks(player, infos)

	case protocol.CmdPlanTracks:
		if cmd.Head == nil || len(cmd.Tails) == 0 {
			return Result{}, fmt.Errorf("%w: plan needs head and tails", ErrBadRequest)
		}
		head, err := directionalEdge(*cmd.Head)
		if err != nil {
			return Result{}, err
		}
		tails := make([]geometry.DirectionalEdge, 0, len(cmd.Tails))
		for _, e := range cmd.Tails {
			de, err := directionalEdge(e)
			if err != nil {
				return Result{}, err
			}
			tails = append(tails, de)
		}
		plan, err := g.PlanAndBuildTracks(player, head, tails)
		if err != nil {
			return Result{}, err
		}
		return Result{Tracks: plan.Tracks, Cost: plan.Cost}, nil

	case protocol.CmdBuildStation:
		nw, err := tileOf(cmd.Tile)
		if err != nil {
			return Result{}, err
		}
		tt, err := parseTrackType(cmd.TrackType)
		if err != nil {
			return Result{}, err
		}
		id, err := g.BuildStation(player, nw, building.StationSpec{Orientation: tt, Platforms: cmd.Platforms, Length: cmd.Length})
		return Result{CreatedID: string(id)}, err

	case protocol.CmdBuildIndustry:
		nw, err := tileOf(cmd.Tile)
		if err != nil {
			return Result{}, err
		}
		it := building.IndustryType(cmd.Industry)
		if _, ok := building.LookupIndustry(it); !ok {
			return Result{}, fmt.Errorf("%w: unknown industry %q", ErrBadRequest, cmd.Industry)
		}
		id, err := g.BuildIndustry(player, nw, it)
		return Result{CreatedID: string(id)}, err

	case protocol.CmdDemolishTrack:
		tile, err := tileOf(cmd.Tile)
		if err != nil {
			return Result{}, err
		}
		tt, err := parseTrackType(cmd.TrackType)
		if err != nil {
			return Result{}, err
		}
		return Result{}, g.DemolishTrack(player, tile, tt)

	case protocol.CmdDemolishBuilding:
		if cmd.BuildingID == "" {
			return Result{}, fmt.Errorf("%w: missing building_id", ErrBadRequest)
		}
		return Result{}, g.DemolishBuilding(player, ids.BuildingID(cmd.BuildingID))

	case protocol.CmdPurchaseTransport:
		cars := make([]cargo.ResourceType, 0, len(cmd.Cars))
		for _, c := range cmd.Cars {
			r, err := cargo.ParseResource(c)
			if err != nil {
				return Result{}, fmt.Errorf("%w: %v", ErrBadRequest, err)
			}
			cars = append(cars, r)
		}
		id, err := g.PurchaseTransport(player, cars, movementOrders(cmd.Orders))
		return Result{CreatedID: string(id)}, err

	case protocol.CmdUpdateOrders:
		var u OrdersUpdate
		if cmd.Orders != nil {
			u.Replace = movementOrders(cmd.Orders)
		}
		if cmd.Push != nil {
			o := movementOrder(*cmd.Push)
			u.Push = &o
		}
		u.Remove = cmd.RemoveIndex
		return Result{}, g.UpdateMovementOrders(player, ids.TransportID(cmd.TransportID), u)

	case protocol.CmdClearForceStop:
		return Result{}, g.ClearForceStop(player, ids.TransportID(cmd.TransportID))
	}
	return Result{}, fmt.Errorf("%w: unknown command %q", ErrBadRequest, cmd.Kind)
}

// CodeFor maps a command error to its wire code.
func CodeFor(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNoRoute):
		return protocol.ErrNoRoute
	case errors.Is(err, ErrUnknownPlayer), errors.Is(err, building.ErrNotOwner):
		return protocol.ErrNoPermission
	case errors.Is(err, building.ErrNotFound):
		return protocol.ErrNotFound
	case errors.Is(err, building.ErrInvalid):
		return protocol.ErrInvalidTarget
	case errors.Is(err, ErrBadRequest), errors.Is(err, orders.ErrEmpty), errors.Is(err, orders.ErrOutOfRange):
		return protocol.ErrBadRequest
	}
	return protocol.ErrInternal
}

// ResultMsg builds the CMD_RESULT for a command id.
func ResultMsg(tick uint64, id string, res Result, err error) protocol.CmdResultMsg {
	msg := protocol.CmdResultMsg{
		Type:            protocol.TypeCmdResult,
		ProtocolVersion: protocol.Version,
		Tick:            tick,
		ID:              id,
		OK:              err == nil,
	}
	if err != nil {
		msg.Code = CodeFor(err)
		msg.Message = err.Error()
		return msg
	}
	msg.CreatedID = res.CreatedID
	msg.Cost = res.Cost
	for _, t := range res.Tracks {
		msg.Tracks = append(msg.Tracks, protocol.TrackRef{X: t.Tile.X, Z: t.Tile.Z, TrackType: t.TrackType.String()})
	}
	return msg
}

func parseTrackType(s string) (tracks.TrackType, error) {
	tt, err := tracks.ParseTrackType(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	return tt, nil
}

func tileOf(a *[2]int) (geometry.TileCoords, error) {
	if a == nil {
		return geometry.TileCoords{}, fmt.Errorf("%w: missing tile", ErrBadRequest)
	}
	return geometry.TileFromArray(*a), nil
}

func trackInfos(owner ids.PlayerID, refs []protocol.TrackRef) ([]building.TrackInfo, error) {
	if len(refs) == 0 {
		return nil, fmt.Errorf("%w: no tracks", ErrBadRequest)
	}
	out := make([]building.TrackInfo, 0, len(refs))
	for _, r := range refs {
		tt, err := parseTrackType(r.TrackType)
		if err != nil {
			return nil, err
		}
		out = append(out, building.TrackInfo{Owner: owner, Tile: geometry.Tile(r.X, r.Z), TrackType: tt})
	}
	return out, nil
}

func directionalEdge(e protocol.EdgeRef) (geometry.DirectionalEdge, error) {
	d, err := geometry.ParseDirection(e.From)
	if err != nil {
		return geometry.DirectionalEdge{}, fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	return geometry.NewDirectionalEdge(geometry.Tile(e.X, e.Z), d), nil
}

func movementOrder(r protocol.OrderRef) orders.MovementOrder {
	a := orders.DefaultAction()
	if r.NoUnload {
		a.Unload = orders.NoUnload
	}
	if r.NoLoad {
		a.Load = orders.NoLoad
	}
	return orders.MovementOrder{GoTo: ids.StationID(r.StationID), Action: a}
}

func movementOrders(refs []protocol.OrderRef) []orders.MovementOrder {
	out := make([]orders.MovementOrder, 0, len(refs))
	for _, r := range refs {
		out = append(out, movementOrder(r))
	}
	return out
}
