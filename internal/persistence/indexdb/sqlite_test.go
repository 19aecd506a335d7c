package indexdb

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"railcraft.ai/internal/persistence/snapshot"
	"railcraft.ai/internal/protocol"
	"railcraft.ai/internal/sim/game"
	"railcraft.ai/internal/sim/tuning"
)

func openTest(t *testing.T) *SQLiteIndex {
	t.Helper()
	idx, err := OpenSQLite(filepath.Join(t.TempDir(), "index", "game.sqlite"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = idx.Close() })
	return idx
}

func flush(t *testing.T, idx *SQLiteIndex) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := idx.Flush(ctx); err != nil {
		t.Fatalf("flush: %v", err)
	}
}

func TestTicksCommandsAndForceStops(t *testing.T) {
	idx := openTest(t)
	ctx := context.Background()

	_ = idx.WriteTick(game.TickLogEntry{
		Tick:   7,
		Digest: "abc",
		Commands: []game.RecordedCommand{
			{PlayerID: "P-a", ID: "c1", Cmd: protocol.Command{Kind: protocol.CmdBuildStation}},
			{PlayerID: "P-a", ID: "c2", Cmd: protocol.Command{Kind: protocol.CmdPlanTracks}},
		},
		ForceStops: []game.RecordedForceStop{{TransportID: "T1", Owner: "P-a", Tile: [2]int{5, 5}, StationID: "B2"}},
	})
	idx.RecordForceStop(12, game.RecordedForceStop{TransportID: "T1", Owner: "P-a", Tile: [2]int{7, 5}})
	_ = idx.WriteAudit(game.AuditEntry{Tick: 7, Actor: "P-a", Action: "FORCE_STOP", Target: "T1"})
	flush(t, idx)

	d, ok, err := idx.TickDigest(ctx, 7)
	if err != nil || !ok || d != "abc" {
		t.Fatalf("digest=%q ok=%v err=%v", d, ok, err)
	}
	if _, ok, _ := idx.TickDigest(ctx, 8); ok {
		t.Fatalf("tick 8 should be missing")
	}
	if n, err := idx.CommandCount(ctx, "P-a"); err != nil || n != 2 {
		t.Fatalf("commands=%d err=%v", n, err)
	}
	stops, err := idx.ForceStops(ctx, "T1")
	if err != nil {
		t.Fatal(err)
	}
	if len(stops) != 2 || stops[0].Tick != 7 || stops[0].StationID != "B2" || stops[1].Tile != [2]int{7, 5} {
		t.Fatalf("stops=%+v", stops)
	}
}

func TestLatestSnapshot(t *testing.T) {
	idx := openTest(t)
	ctx := context.Background()
	if _, _, ok, err := idx.LatestSnapshot(ctx); ok || err != nil {
		t.Fatalf("empty index ok=%v err=%v", ok, err)
	}
	for _, tick := range []uint64{100, 300, 200} {
		idx.RecordSnapshot("snap", snapshot.SnapshotV1{
			Header:     snapshot.Header{Version: snapshot.Version, Tick: tick},
			Transports: []snapshot.TransportV1{{ID: "T1", ForceStop: true}},
		})
	}
	flush(t, idx)
	_, tick, ok, err := idx.LatestSnapshot(ctx)
	if err != nil || !ok || tick != 300 {
		t.Fatalf("latest tick=%d ok=%v err=%v", tick, ok, err)
	}
}

func TestUpsertTuning(t *testing.T) {
	idx := openTest(t)
	if err := idx.UpsertTuning("G-1", tuning.Defaults()); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	var gameID string
	if err := idx.db.QueryRow(`SELECT value FROM meta WHERE key='game_id'`).Scan(&gameID); err != nil || gameID != "G-1" {
		t.Fatalf("game_id=%q err=%v", gameID, err)
	}
}

func TestQueueDropsWhenFull(t *testing.T) {
	s := &SQLiteIndex{ch: make(chan req, 1)}
	s.ch <- req{kind: reqTick}

	_ = s.WriteTick(game.TickLogEntry{Tick: 2, ForceStops: []game.RecordedForceStop{{TransportID: "T1"}}})
	_ = s.WriteAudit(game.AuditEntry{Tick: 2})
	s.RecordSnapshot("x", snapshot.SnapshotV1{})

	st := s.Stats()
	if st.DropTickTotal != 1 || st.DropForceStopTotal != 1 || st.DropAuditTotal != 1 || st.DropSnapshotTotal != 1 {
		t.Fatalf("stats=%+v", st)
	}
	if st.QueueDepth != 1 || st.QueueCapacity != 1 {
		t.Fatalf("queue depth=%d cap=%d", st.QueueDepth, st.QueueCapacity)
	}
}
