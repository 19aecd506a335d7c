package ai

import (
	"testing"

	"railcraft.ai/internal/sim/building"
	"railcraft.ai/internal/sim/cargo"
	"railcraft.ai/internal/sim/game"
	"railcraft.ai/internal/sim/geometry"
	"railcraft.ai/internal/sim/ids"
	"railcraft.ai/internal/sim/tracks"
)

const bot ids.PlayerID = "P-bot"

func newGame(t *testing.T) (*game.Game, ids.StationID, ids.StationID) {
	t.Helper()
	g := game.New(game.Config{ID: "G-ai", TickRateHz: 1, MapWidth: 20, MapDepth: 20, MapHeight: 1}, nil)
	g.AddPlayer(bot, "bot", true)
	spec := building.StationSpec{Orientation: tracks.EastWest, Platforms: 1, Length: 2}
	a, err := g.BuildStation(bot, geometry.Tile(2, 5), spec)
	if err != nil {
		t.Fatalf("station a: %v", err)
	}
	b, err := g.BuildStation(bot, geometry.Tile(9, 5), spec)
	if err != nil {
		t.Fatalf("station b: %v", err)
	}
	return g, a, b
}

func TestConnectThenRunService(t *testing.T) {
	g, a, b := newGame(t)
	r := NewRunner(1, nil)
	r.Attach(g)
	connect := r.AddConnectStations(bot, a, b)
	service := r.AddRunService(bot, []ids.StationID{a, b}, []cargo.ResourceType{cargo.Coal})

	for i := 0; i < 3; i++ {
		g.StepOnce(nil, nil, nil)
	}
	if gl, _ := r.Goal(connect); gl.Status != Done {
		t.Fatalf("connect goal=%+v", gl)
	}
	for x := 4; x <= 8; x++ {
		if !g.State().HasTrack(bot, geometry.Tile(x, 5), tracks.EastWest) {
			t.Fatalf("no track at x=%d", x)
		}
	}
	gl, _ := r.Goal(service)
	if gl.Status != Done || gl.Transport != "T1" {
		t.Fatalf("service goal=%+v", gl)
	}

	for i := 0; i < 30; i++ {
		g.StepOnce(nil, nil, nil)
	}
	info, _ := g.Transport("T1")
	if info.ForceStopped() || info.CompletedStops < 2 {
		t.Fatalf("transport stopped=%v stops=%d", info.ForceStopped(), info.CompletedStops)
	}
}

func TestRepairAfterTrackRemoved(t *testing.T) {
	g, a, b := newGame(t)
	r := NewRunner(1, nil)
	r.Attach(g)
	r.AddConnectStations(bot, a, b)
	r.AddRunService(bot, []ids.StationID{a, b}, []cargo.ResourceType{cargo.Coal})
	for i := 0; i < 3; i++ {
		g.StepOnce(nil, nil, nil)
	}
	if err := g.DemolishTrack(bot, geometry.Tile(6, 5), tracks.EastWest); err != nil {
		t.Fatalf("demolish: %v", err)
	}

	var repair *Goal
	for i := 0; i < 60 && (repair == nil || repair.Status == Pending); i++ {
		g.StepOnce(nil, nil, nil)
		for _, gl := range r.Goals() {
			if gl.Kind == GoalRepairRoute {
				repair = gl
			}
		}
	}
	if repair == nil || repair.Status != Done {
		t.Fatalf("repair=%+v", repair)
	}
	if !g.State().HasTrack(bot, geometry.Tile(6, 5), tracks.EastWest) {
		t.Fatalf("gap not relaid")
	}
	if info, _ := g.Transport("T1"); info.ForceStopped() {
		t.Fatalf("transport still stopped at %s", info.Location)
	}
}

func TestConnectFailsWhenBlocked(t *testing.T) {
	g, a, b := newGame(t)
	for z := 0; z < 20; z++ {
		g.State().Terrain().SetTileHeight(geometry.Tile(6, z), -1)
	}
	r := NewRunner(1, nil)
	r.Attach(g)
	id := r.AddConnectStations(bot, a, b)
	for i := 0; i <= MaxAttempts; i++ {
		g.StepOnce(nil, nil, nil)
	}
	if gl, _ := r.Goal(id); gl.Status != Failed || gl.Attempts != MaxAttempts+1 {
		t.Fatalf("goal=%+v", gl)
	}
}

func TestRunnerSnapshotRoundTrip(t *testing.T) {
	g, a, b := newGame(t)
	r := NewRunner(1, nil)
	r.Attach(g)
	r.AddConnectStations(bot, a, b)
	r.AddRunService(bot, []ids.StationID{a, b}, []cargo.ResourceType{cargo.Coal, cargo.Grain})

	snap := g.ExportSnapshot()
	if len(snap.Goals) != 2 || snap.Counters.NextGoal != 2 {
		t.Fatalf("goals=%+v next=%d", snap.Goals, snap.Counters.NextGoal)
	}
	back := RunnerFromSnapshot(1, snap, nil)
	gl, ok := back.Goal("AG2")
	if !ok || gl.Kind != GoalRunService || len(gl.Cars) != 2 || gl.Stations[1] != b {
		t.Fatalf("restored=%+v", gl)
	}
	if id := back.AddRepairRoute(bot, "T9"); id != "AG3" {
		t.Fatalf("next goal id=%s", id)
	}
}
