package main

import (
	"testing"

	"go.uber.org/zap"

	"railcraft.ai/internal/protocol"
	"railcraft.ai/internal/sim/game"
	"railcraft.ai/internal/sim/ids"
)

func TestScriptWaitsForResults(t *testing.T) {
	sc := newScript(2, 5, 7, splitCars(" coal, ,goods"))
	m, ok := sc.next()
	if !ok || m.Cmd.Kind != protocol.CmdBuildStation || (*m.Cmd.Tile) != [2]int{2, 5} {
		t.Fatalf("first=%+v ok=%v", m, ok)
	}
	if _, ok := sc.next(); ok {
		t.Fatalf("second command sent before first result")
	}
	sc.record(protocol.CmdResultMsg{ID: "stale", OK: true, CreatedID: "B9"})
	if _, ok := sc.next(); ok {
		t.Fatalf("unrelated result advanced the script")
	}
	sc.record(protocol.CmdResultMsg{ID: m.ID, OK: true, CreatedID: "B1"})
	m, _ = sc.next()
	if (*m.Cmd.Tile) != [2]int{9, 5} {
		t.Fatalf("second station at %v", *m.Cmd.Tile)
	}
	sc.record(protocol.CmdResultMsg{ID: m.ID, OK: true, CreatedID: "B2"})
	m, _ = sc.next()
	if m.Cmd.Kind != protocol.CmdPlanTracks || m.Cmd.Head.X != 4 || m.Cmd.Tails[0].X != 9 {
		t.Fatalf("plan=%+v", m.Cmd)
	}
	sc.record(protocol.CmdResultMsg{ID: m.ID, OK: true})
	m, _ = sc.next()
	if m.Cmd.Kind != protocol.CmdPurchaseTransport || len(m.Cmd.Orders) != 2 || m.Cmd.Orders[1].StationID != "B2" {
		t.Fatalf("purchase=%+v", m.Cmd)
	}
	if len(m.Cmd.Cars) != 2 || m.Cmd.Cars[1] != "GOODS" {
		t.Fatalf("cars=%v", m.Cmd.Cars)
	}
	sc.record(protocol.CmdResultMsg{ID: m.ID, OK: true, CreatedID: "T1"})
	if !sc.done() {
		t.Fatalf("script not done")
	}
}

// The scripted commands are accepted by a real game.
func TestScriptAgainstGame(t *testing.T) {
	g := game.New(game.Config{ID: "G-bot", TickRateHz: 1, MapWidth: 20, MapDepth: 20, MapHeight: 1}, zap.NewNop())
	p := ids.PlayerID("P-bot")
	g.AddPlayer(p, "bot", false)

	sc := newScript(2, 5, 7, []string{"COAL"})
	for !sc.done() {
		m, ok := sc.next()
		if !ok {
			t.Fatalf("script stalled at step %d", sc.step)
		}
		res, err := g.Apply(p, m.Cmd)
		if err != nil {
			t.Fatalf("%s: %v", m.Cmd.Kind, err)
		}
		sc.record(protocol.CmdResultMsg{ID: m.ID, OK: true, CreatedID: res.CreatedID})
	}
}
