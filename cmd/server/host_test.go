package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"railcraft.ai/internal/persistence/snapshot"
	"railcraft.ai/internal/sim/multigame"
	"railcraft.ai/internal/sim/tuning"
)

func TestHostGameWritesAndResumesSnapshots(t *testing.T) {
	data := t.TempDir()
	tune := tuning.Defaults()
	tune.Map.Width, tune.Map.Depth = 12, 12
	tune.SnapshotEveryTicks = 2
	spec := multigame.GameSpec{ID: "G-host", AIPlayers: []string{"rail-bot"}}
	opts := hostOptions{DataDir: data, LoadLatest: true}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h, err := hostGame(ctx, spec, tune, opts, zap.NewNop())
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	for i := 0; i < 3; i++ {
		h.Runtime.Game.StepOnce(nil, nil, nil)
	}

	want := filepath.Join(data, "games", "G-host", "snapshots", "3.snap.zst")
	deadline := time.Now().Add(5 * time.Second)
	for {
		if _, err := snapshot.ReadHeader(want); err == nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("snapshot %s never written", want)
		}
		time.Sleep(20 * time.Millisecond)
	}
	flushCtx, flushCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer flushCancel()
	if err := h.Index.Flush(flushCtx); err != nil {
		t.Fatal(err)
	}
	cancel()
	h.Close()

	ctx2, cancel2 := context.WithCancel(context.Background())
	defer cancel2()
	again, err := hostGame(ctx2, spec, tune, opts, zap.NewNop())
	if err != nil {
		t.Fatalf("rehost: %v", err)
	}
	defer again.Close()
	h2, _ := snapshot.ReadHeader(want)
	if got := again.Runtime.Game.CurrentTick(); got != h2.Tick {
		t.Fatalf("resumed tick=%d want %d", got, h2.Tick)
	}
	if ps := again.Runtime.Game.Players(); len(ps) != 1 || !ps[0].AI {
		t.Fatalf("players after resume=%+v", ps)
	}
	if _, err := os.Stat(filepath.Join(data, "games", "G-host", "ticks")); err != nil {
		t.Fatalf("tick log dir: %v", err)
	}
}

func TestLatestSnapshotScansDirectory(t *testing.T) {
	dir := t.TempDir()
	snaps := filepath.Join(dir, "snapshots")
	if err := os.MkdirAll(snaps, 0o755); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"90.snap.zst", "120.snap.zst", "notes.txt", "x.snap.zst"} {
		if err := os.WriteFile(filepath.Join(snaps, name), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if got := latestSnapshot(context.Background(), dir, nil); filepath.Base(got) != "120.snap.zst" {
		t.Fatalf("latest=%q", got)
	}
}
