package game

import (
	"railcraft.ai/internal/protocol"
	"railcraft.ai/internal/sim/ids"
)

func (g *Game) welcome(player ids.PlayerID) protocol.WelcomeMsg {
	m := g.state.Terrain()
	return protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		PlayerID:        string(player),
		GameID:          string(g.cfg.ID),
		MapParams: protocol.MapParams{
			Width:        m.Width,
			Depth:        m.Depth,
			SeaLevel:     m.SeaLevel,
			TickRateHz:   g.cfg.TickRateHz,
			LinkDistance: g.cfg.LinkDistance,
		},
	}
}

// buildObs reports every transport; events are limited to the player's own.
func (g *Game) buildObs(player ids.PlayerID, tick uint64) protocol.ObsMsg {
	obs := protocol.ObsMsg{
		Type:            protocol.TypeObs,
		ProtocolVersion: protocol.Version,
		Tick:            tick,
		GameTime:        g.Time(),
		PlayerID:        string(player),
		Transports:      []protocol.TransportObs{},
		Events:          []protocol.EventObs{},
	}
	for _, info := range g.Transports() {
		head := info.Location.Head()
		var cargo map[string]float64
		for _, r := range info.CargoLoaded.SortedKeys() {
			if cargo == nil {
				cargo = map[string]float64{}
			}
			cargo[string(r)] = info.CargoLoaded.Get(r)
		}
		obs.Transports = append(obs.Transports, protocol.TransportObs{
			ID:             string(info.ID),
			Owner:          string(info.Owner),
			Tile:           head.Tile.ToArray(),
			TrackType:      head.TrackType.String(),
			PointingIn:     head.PointingIn.String(),
			Progress:       info.Location.Progress,
			Velocity:       info.Velocity,
			ForceStop:      info.ForceStopped(),
			OrderIndex:     info.Orders.Next,
			Loading:        info.Loading.Phase.String(),
			Cargo:          cargo,
			CompletedStops: info.CompletedStops,
		})
	}
	for _, e := range g.events {
		if e.Owner == player {
			obs.Events = append(obs.Events, e.Event)
		}
	}
	return obs
}
