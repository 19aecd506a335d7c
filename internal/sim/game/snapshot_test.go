package game

import (
	"path/filepath"
	"testing"

	"railcraft.ai/internal/persistence/snapshot"
	"railcraft.ai/internal/sim/building"
	"railcraft.ai/internal/sim/cargo"
	"railcraft.ai/internal/sim/geometry"
	"railcraft.ai/internal/sim/orders"
	"railcraft.ai/internal/sim/tracks"
)

func TestSnapshotResumesIdentically(t *testing.T) {
	g := newTestGame(t)
	a, b, mine, _ := railway(t, g)
	_ = g.State().AddCargo(mine, cargo.Coal, 100)
	if _, err := g.PurchaseTransport(alice, []cargo.ResourceType{cargo.Coal, cargo.Coal}, []orders.MovementOrder{
		{GoTo: a, Action: orders.DefaultAction()},
		{GoTo: b, Action: orders.Action{Unload: orders.UnloadAll, Load: orders.NoLoad}},
	}); err != nil {
		t.Fatalf("purchase: %v", err)
	}
	// Stop mid-way with cargo on board and a loading phase in progress.
	for i := 0; i < 9; i++ {
		g.StepOnce(nil, nil, nil)
	}

	p := filepath.Join(t.TempDir(), "snap.zst")
	if err := snapshot.WriteSnapshot(p, g.ExportSnapshot()); err != nil {
		t.Fatalf("write: %v", err)
	}
	snap, err := snapshot.ReadSnapshot(p)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	r, err := FromSnapshot(testConfig(), snap, nil)
	if err != nil {
		t.Fatalf("from snapshot: %v", err)
	}
	if r.Digest() != g.Digest() {
		t.Fatalf("restored digest differs")
	}
	for i := 0; i < 15; i++ {
		_, d1 := g.StepOnce(nil, nil, nil)
		_, d2 := r.StepOnce(nil, nil, nil)
		if d1 != d2 {
			t.Fatalf("tick %d after restore: digests differ", i)
		}
	}

	// Counters continue past restored ids.
	id, err := r.BuildStation(alice, geometry.Tile(14, 14), building.StationSpec{Orientation: tracks.EastWest, Platforms: 1, Length: 2})
	if err != nil {
		t.Fatalf("station after restore: %v", err)
	}
	if id != "B5" {
		t.Fatalf("next building id=%s", id)
	}
}

func TestFromSnapshotRejectsBadVersion(t *testing.T) {
	if _, err := FromSnapshot(testConfig(), snapshot.SnapshotV1{Header: snapshot.Header{Version: 7}}, nil); err == nil {
		t.Fatalf("expected error")
	}
}

type goalsContributor struct{}

func (goalsContributor) ContributeSnapshot(s *snapshot.SnapshotV1) {
	s.Goals = append(s.Goals, snapshot.GoalV1{ID: "goal1", Kind: "CONNECT_STATIONS", Status: "PENDING"})
}

func TestSnapshotContributors(t *testing.T) {
	g := newTestGame(t)
	g.AddSnapshotContributor(goalsContributor{})
	if s := g.ExportSnapshot(); len(s.Goals) != 1 || s.Goals[0].ID != "goal1" {
		t.Fatalf("goals=%+v", s.Goals)
	}
}
