package main

import (
	"strings"
	"testing"

	"railcraft.ai/internal/protocol"
	"railcraft.ai/internal/sim/game"
	"railcraft.ai/internal/sim/tuning"
)

type memLog struct{ entries []game.TickLogEntry }

func (m *memLog) WriteTick(e game.TickLogEntry) error {
	m.entries = append(m.entries, e)
	return nil
}

func TestReplayVerifiesDigests(t *testing.T) {
	g := game.New(game.Config{ID: "G-replay", TickRateHz: 1, MapWidth: 16, MapDepth: 16}, nil)
	log := &memLog{}
	g.SetTickLogger(log)
	g.StepOnce([]game.JoinRequest{{Name: "jo"}}, nil, nil)
	snap := g.ExportSnapshot()

	player := g.Players()[0].ID
	cmds := []game.CommandEnvelope{{PlayerID: player, Msg: protocol.CmdMsg{ID: "s1", Cmd: protocol.Command{
		Kind: protocol.CmdBuildStation, Tile: &[2]int{2, 2}, TrackType: "EW", Platforms: 1, Length: 2,
	}}}}
	g.StepOnce(nil, nil, cmds)
	g.StepOnce(nil, nil, nil)

	checked, err := replay(snap, tuning.Defaults(), log.entries, 0, 0)
	if err != nil || checked != 2 {
		t.Fatalf("checked=%d err=%v", checked, err)
	}

	log.entries[2].Digest = "tampered"
	if _, err := replay(snap, tuning.Defaults(), log.entries, 0, 0); err == nil || !strings.Contains(err.Error(), "digest mismatch at tick 2") {
		t.Fatalf("err=%v", err)
	}
	if checked, err := replay(snap, tuning.Defaults(), log.entries, 0, 1); err != nil || checked != 1 {
		t.Fatalf("to_tick: checked=%d err=%v", checked, err)
	}
}
