package game

import (
	"encoding/json"

	"go.uber.org/zap"

	"railcraft.ai/internal/protocol"
	"railcraft.ai/internal/sim/ids"
	"railcraft.ai/internal/sim/transport"
)

type eventRecord struct {
	Owner ids.PlayerID
	Event protocol.EventObs
}

// Advance moves every transport by delta seconds in id order, then lets
// industries trade with their stations. Transports never advance
// concurrently within one game.
func (g *Game) Advance(delta float64) []RecordedForceStop {
	var stops []RecordedForceStop
	for _, info := range g.Transports() {
		wasStopped := info.ForceStopped()
		before := info.CompletedStops
		station := info.Orders.CurrentOrder().GoTo

		g.advancer.Advance(info, g.state, delta)

		if info.CompletedStops > before {
			g.events = append(g.events, eventRecord{Owner: info.Owner, Event: protocol.EventObs{
				Kind:        protocol.EventStopCompleted,
				TransportID: string(info.ID),
				StationID:   string(station),
			}})
		}
		if !wasStopped && info.ForceStopped() {
			stops = append(stops, g.forceStopped(info))
		}
	}
	g.state.ExchangeCargo()
	g.setTime(g.Time() + delta)
	return stops
}

func (g *Game) forceStopped(info *transport.Info) RecordedForceStop {
	head := info.Location.Head()
	target := info.Orders.CurrentOrder().GoTo
	rec := RecordedForceStop{
		TransportID: string(info.ID),
		Owner:       string(info.Owner),
		Tile:        head.Tile.ToArray(),
		StationID:   string(target),
	}
	g.events = append(g.events, eventRecord{Owner: info.Owner, Event: protocol.EventObs{
		Kind:        protocol.EventForceStop,
		TransportID: rec.TransportID,
		StationID:   rec.StationID,
		Reason:      "no route",
	}})
	g.audit(AuditEntry{
		Tick:    g.tick.Load(),
		Actor:   rec.Owner,
		Action:  protocol.EventForceStop,
		Target:  rec.TransportID,
		Reason:  "no route",
		Details: map[string]any{"tile": rec.Tile, "station_id": rec.StationID},
	})
	return rec
}

func (g *Game) audit(e AuditEntry) {
	if g.auditLogger == nil {
		return
	}
	if err := g.auditLogger.WriteAudit(e); err != nil {
		g.log.Warn("audit write failed", zap.Error(err))
	}
}

func (g *Game) step(joins []JoinRequest, leaves []ids.PlayerID, cmds []CommandEnvelope) string {
	nowTick := g.tick.Load()
	g.events = g.events[:0]

	// Apply leaves and joins deterministically at tick boundary.
	recordedLeaves := make([]string, 0, len(leaves))
	for _, id := range leaves {
		if _, ok := g.clients[id]; ok {
			delete(g.clients, id)
			recordedLeaves = append(recordedLeaves, string(id))
		}
	}
	recordedJoins := make([]RecordedJoin, 0, len(joins))
	for _, req := range joins {
		p := g.AddPlayer(req.ID, req.Name, req.AI)
		if req.Out != nil {
			g.clients[p.ID] = &clientState{Out: req.Out}
		}
		if req.Resp != nil {
			req.Resp <- JoinResponse{Welcome: g.welcome(p.ID)}
		}
		recordedJoins = append(recordedJoins, RecordedJoin{PlayerID: string(p.ID), Name: p.Name, AI: p.AI})
	}

	// Hook commands (AI) go first, then client commands in inbox order.
	var all []CommandEnvelope
	for _, h := range g.hooks {
		all = append(all, h(g, nowTick)...)
	}
	all = append(all, cmds...)

	recorded := make([]RecordedCommand, 0, len(all))
	for _, env := range all {
		if _, ok := g.players[env.PlayerID]; !ok {
			continue
		}
		recorded = append(recorded, RecordedCommand{PlayerID: string(env.PlayerID), ID: env.Msg.ID, Cmd: env.Msg.Cmd})
		res, err := g.Apply(env.PlayerID, env.Msg.Cmd)
		if err == nil {
			g.audit(AuditEntry{Tick: nowTick, Actor: string(env.PlayerID), Action: env.Msg.Cmd.Kind, Target: res.CreatedID})
		}
		g.sendResult(env.PlayerID, ResultMsg(nowTick, env.Msg.ID, res, err))
	}

	stops := g.Advance(g.cfg.TickSeconds())

	for id, cl := range g.clients {
		b, err := json.Marshal(g.buildObs(id, nowTick))
		if err != nil {
			continue
		}
		sendLatest(cl.Out, b)
	}

	digest := g.Digest()
	if g.tickLogger != nil {
		entry := TickLogEntry{Tick: nowTick, Joins: recordedJoins, Leaves: recordedLeaves, Commands: recorded, ForceStops: stops, Digest: digest}
		if err := g.tickLogger.WriteTick(entry); err != nil {
			g.log.Warn("tick log write failed", zap.Uint64("tick", nowTick), zap.Error(err))
		}
	}

	g.tick.Add(1)

	// The snapshot header carries the next tick to run, so a resumed game
	// replays the log from exactly that entry.
	if g.snapshotSink != nil && g.cfg.SnapshotEveryTicks > 0 && nowTick != 0 && nowTick%uint64(g.cfg.SnapshotEveryTicks) == 0 {
		snap := g.ExportSnapshot()
		select {
		case g.snapshotSink <- snap:
		default:
			g.log.Warn("snapshot sink full, dropping snapshot", zap.Uint64("tick", nowTick))
		}
	}
	return digest
}

// StepOnce advances the game by a single tick using the same ordering
// semantics as the server loop. Replays and tests drive games with it.
func (g *Game) StepOnce(joins []JoinRequest, leaves []ids.PlayerID, cmds []CommandEnvelope) (tick uint64, digest string) {
	tick = g.tick.Load()
	digest = g.step(joins, leaves, cmds)
	return tick, digest
}

// ReplayTick re-runs a recorded tick and returns the digest it produced.
// Hooks are not run: their commands are part of the record.
func (g *Game) ReplayTick(e TickLogEntry) string {
	joins := make([]JoinRequest, 0, len(e.Joins))
	for _, j := range e.Joins {
		joins = append(joins, JoinRequest{ID: ids.PlayerID(j.PlayerID), Name: j.Name, AI: j.AI})
	}
	cmds := make([]CommandEnvelope, 0, len(e.Commands))
	for _, c := range e.Commands {
		cmds = append(cmds, CommandEnvelope{PlayerID: ids.PlayerID(c.PlayerID), Msg: protocol.CmdMsg{ID: c.ID, Cmd: c.Cmd}})
	}
	hooks := g.hooks
	g.hooks = nil
	defer func() { g.hooks = hooks }()
	_, digest := g.StepOnce(joins, nil, cmds)
	return digest
}

func (g *Game) sendResult(player ids.PlayerID, msg protocol.CmdResultMsg) {
	cl := g.clients[player]
	if cl == nil {
		return
	}
	b, err := json.Marshal(msg)
	if err != nil {
		return
	}
	select {
	case cl.Out <- b:
	default:
		g.log.Warn("client queue full, dropping command result", zap.String("player", string(player)), zap.String("cmd", msg.ID))
	}
}

func sendLatest(ch chan []byte, b []byte) {
	select {
	case ch <- b:
		return
	default:
	}
	// Drop one.
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- b:
	default:
	}
}
