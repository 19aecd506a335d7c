package game

import (
	"railcraft.ai/internal/protocol"
	"railcraft.ai/internal/sim/ids"
)

type Player struct {
	ID   ids.PlayerID
	Name string
	AI   bool
}

// JoinRequest adds a player at the next tick boundary. ID is only set when
// replaying a recorded join.
type JoinRequest struct {
	ID   ids.PlayerID
	Name string
	AI   bool
	Out  chan []byte
	Resp chan JoinResponse
}

type JoinResponse struct {
	Welcome protocol.WelcomeMsg
}

type CommandEnvelope struct {
	PlayerID ids.PlayerID
	Msg      protocol.CmdMsg
}

// TickHook runs at the start of each tick and returns commands to apply in
// that tick, ahead of the queued client commands.
type TickHook func(g *Game, tick uint64) []CommandEnvelope

type RecordedJoin struct {
	PlayerID string `json:"player_id"`
	Name     string `json:"name"`
	AI       bool   `json:"ai,omitempty"`
}

type RecordedCommand struct {
	PlayerID string           `json:"player_id"`
	ID       string           `json:"id"`
	Cmd      protocol.Command `json:"cmd"`
}

type RecordedForceStop struct {
	TransportID string `json:"transport_id"`
	Owner       string `json:"owner"`
	Tile        [2]int `json:"tile"`
	StationID   string `json:"station_id"`
}

type TickLogger interface {
	WriteTick(entry TickLogEntry) error
}

type AuditLogger interface {
	WriteAudit(entry AuditEntry) error
}

type TickLogEntry struct {
	Tick       uint64              `json:"tick"`
	Joins      []RecordedJoin      `json:"joins,omitempty"`
	Leaves     []string            `json:"leaves,omitempty"`
	Commands   []RecordedCommand   `json:"commands,omitempty"`
	ForceStops []RecordedForceStop `json:"force_stops,omitempty"`
	Digest     string              `json:"digest"`
}

type AuditEntry struct {
	Tick    uint64         `json:"tick"`
	Actor   string         `json:"actor"`
	Action  string         `json:"action"` // e.g. "BUILD_STATION"
	Target  string         `json:"target,omitempty"`
	Reason  string         `json:"reason,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}
