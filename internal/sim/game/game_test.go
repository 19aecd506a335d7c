package game

import (
	"errors"
	"math"
	"testing"

	"railcraft.ai/internal/protocol"
	"railcraft.ai/internal/sim/building"
	"railcraft.ai/internal/sim/cargo"
	"railcraft.ai/internal/sim/geometry"
	"railcraft.ai/internal/sim/ids"
	"railcraft.ai/internal/sim/orders"
	"railcraft.ai/internal/sim/tracks"
)

const (
	alice ids.PlayerID = "P-alice"
	bob   ids.PlayerID = "P-bob"
)

func testConfig() Config {
	return Config{
		ID:           "G-test",
		TickRateHz:   1,
		MapWidth:     20,
		MapDepth:     20,
		MapHeight:    1,
		Timing:       cargo.DefaultTiming(),
		CarCapacity:  10,
		DefaultSpeed: 2,
		CarLength:    0.5,
		EngineLength: 0.5,
	}
}

func newTestGame(t *testing.T) *Game {
	t.Helper()
	g := New(testConfig(), nil)
	g.AddPlayer(alice, "alice", false)
	g.AddPlayer(bob, "bob", false)
	return g
}

func cmd(player ids.PlayerID, id string, c protocol.Command) CommandEnvelope {
	return CommandEnvelope{PlayerID: player, Msg: protocol.CmdMsg{Type: protocol.TypeCmd, ProtocolVersion: protocol.Version, ID: id, Cmd: c}}
}

func tile(x, z int) *[2]int { return &[2]int{x, z} }

// railway builds, through wire commands, station A on (2..3,5), station B
// on (9..10,5), planned track between them, a coal mine by A and a power
// plant by B.
func railway(t *testing.T, g *Game) (a, b, mine, plant ids.BuildingID) {
	t.Helper()
	apply := func(c protocol.Command) Result {
		t.Helper()
		res, err := g.Apply(alice, c)
		if err != nil {
			t.Fatalf("%s: %v", c.Kind, err)
		}
		return res
	}
	a = ids.BuildingID(apply(protocol.Command{Kind: protocol.CmdBuildStation, Tile: tile(2, 5), TrackType: "EW", Platforms: 1, Length: 2}).CreatedID)
	b = ids.BuildingID(apply(protocol.Command{Kind: protocol.CmdBuildStation, Tile: tile(9, 5), TrackType: "EW", Platforms: 1, Length: 2}).CreatedID)
	res := apply(protocol.Command{
		Kind:  protocol.CmdPlanTracks,
		Head:  &protocol.EdgeRef{X: 4, Z: 5, From: "W"},
		Tails: []protocol.EdgeRef{{X: 9, Z: 5, From: "W"}},
	})
	if len(res.Tracks) != 5 || res.Cost != 5 {
		t.Fatalf("planned %v cost %v", res.Tracks, res.Cost)
	}
	mine = ids.BuildingID(apply(protocol.Command{Kind: protocol.CmdBuildIndustry, Tile: tile(2, 6), Industry: string(building.CoalMine)}).CreatedID)
	plant = ids.BuildingID(apply(protocol.Command{Kind: protocol.CmdBuildIndustry, Tile: tile(9, 6), Industry: string(building.PowerPlant)}).CreatedID)
	return a, b, mine, plant
}

func coalAt(g *Game, id ids.BuildingID) float64 {
	b, ok := g.State().Building(id)
	if !ok {
		return 0
	}
	return b.Cargo.Get(cargo.Coal)
}

func TestCoalRunFromMineToPlant(t *testing.T) {
	g := newTestGame(t)
	a, b, mine, plant := railway(t, g)
	if err := g.State().AddCargo(mine, cargo.Coal, 100); err != nil {
		t.Fatal(err)
	}
	tid, err := g.PurchaseTransport(alice, []cargo.ResourceType{cargo.Coal, cargo.Coal}, []orders.MovementOrder{
		{GoTo: a, Action: orders.DefaultAction()},
		{GoTo: b, Action: orders.DefaultAction()},
	})
	if err != nil {
		t.Fatalf("purchase: %v", err)
	}
	if tid != "T1" {
		t.Fatalf("transport id=%s", tid)
	}

	for i := 0; i < 30; i++ {
		g.StepOnce(nil, nil, nil)
	}
	info, _ := g.Transport(tid)
	if info.ForceStopped() {
		t.Fatalf("force-stopped at %s", info.Location)
	}
	if info.CompletedStops < 3 {
		t.Fatalf("completed stops=%d", info.CompletedStops)
	}
	if got := coalAt(g, plant); got < 20 {
		t.Fatalf("plant received %v coal", got)
	}
	total := coalAt(g, mine) + coalAt(g, a) + coalAt(g, b) + coalAt(g, plant) + info.CargoLoaded.Get(cargo.Coal)
	if math.Abs(total-100) > 1e-9 {
		t.Fatalf("coal not conserved: %v", total)
	}
	if g.CurrentTick() != 30 || math.Abs(g.Time()-30) > 1e-9 {
		t.Fatalf("tick=%d time=%v", g.CurrentTick(), g.Time())
	}
}

func TestApplyErrorCodes(t *testing.T) {
	g := newTestGame(t)
	a, _, _, _ := railway(t, g)
	for z := 0; z < 20; z++ {
		g.State().Terrain().SetTileHeight(geometry.Tile(15, z), -1)
	}

	cases := []struct {
		name   string
		player ids.PlayerID
		cmd    protocol.Command
		code   string
	}{
		{"unknown kind", alice, protocol.Command{Kind: "TELEPORT"}, protocol.ErrBadRequest},
		{"unknown player", "P-nobody", protocol.Command{Kind: protocol.CmdBuildTracks, Tracks: []protocol.TrackRef{{X: 1, Z: 1, TrackType: "NS"}}}, protocol.ErrNoPermission},
		{"bad track type", alice, protocol.Command{Kind: protocol.CmdBuildTracks, Tracks: []protocol.TrackRef{{X: 1, Z: 1, TrackType: "XX"}}}, protocol.ErrBadRequest},
		{"off map", alice, protocol.Command{Kind: protocol.CmdBuildTracks, Tracks: []protocol.TrackRef{{X: 40, Z: 1, TrackType: "NS"}}}, protocol.ErrInvalidTarget},
		{"across water", alice, protocol.Command{Kind: protocol.CmdPlanTracks, Head: &protocol.EdgeRef{X: 12, Z: 5, From: "W"}, Tails: []protocol.EdgeRef{{X: 18, Z: 5, From: "W"}}}, protocol.ErrNoRoute},
		{"other owner's station", bob, protocol.Command{Kind: protocol.CmdDemolishBuilding, BuildingID: string(a)}, protocol.ErrNoPermission},
		{"missing building", alice, protocol.Command{Kind: protocol.CmdDemolishBuilding, BuildingID: "B99"}, protocol.ErrNotFound},
		{"unknown station", alice, protocol.Command{Kind: protocol.CmdPurchaseTransport, Cars: []string{"COAL"}, Orders: []protocol.OrderRef{{StationID: "B99"}}}, protocol.ErrNotFound},
		{"no orders", alice, protocol.Command{Kind: protocol.CmdPurchaseTransport, Cars: []string{"COAL"}}, protocol.ErrBadRequest},
		{"huge station", alice, protocol.Command{Kind: protocol.CmdBuildStation, Tile: tile(1, 1), TrackType: "EW", Platforms: 1, Length: 1 << 50}, protocol.ErrInvalidTarget},
		{"station past the int range", alice, protocol.Command{Kind: protocol.CmdBuildStation, Tile: &[2]int{math.MaxInt, 1}, TrackType: "EW", Platforms: 1, Length: 2}, protocol.ErrInvalidTarget},
		{"industry past the int range", alice, protocol.Command{Kind: protocol.CmdBuildIndustry, Tile: &[2]int{1, math.MaxInt}, Industry: string(building.CoalMine)}, protocol.ErrInvalidTarget},
		{"bob uses alice's station", bob, protocol.Command{Kind: protocol.CmdPurchaseTransport, Cars: []string{"COAL"}, Orders: []protocol.OrderRef{{StationID: string(a)}}}, protocol.ErrNoPermission},
	}
	for _, tc := range cases {
		_, err := g.Apply(tc.player, tc.cmd)
		if got := CodeFor(err); got != tc.code {
			t.Fatalf("%s: code=%q want %q (err=%v)", tc.name, got, tc.code, err)
		}
		if !protocol.IsKnownCode(CodeFor(err)) {
			t.Fatalf("%s: unknown code %q", tc.name, CodeFor(err))
		}
	}
}

func TestUpdateMovementOrders(t *testing.T) {
	g := newTestGame(t)
	a, b, _, _ := railway(t, g)
	tid, err := g.PurchaseTransport(alice, []cargo.ResourceType{cargo.Coal}, []orders.MovementOrder{{GoTo: a}})
	if err != nil {
		t.Fatalf("purchase: %v", err)
	}

	push := orders.MovementOrder{GoTo: b}
	if err := g.UpdateMovementOrders(alice, tid, OrdersUpdate{Push: &push}); err != nil {
		t.Fatalf("push: %v", err)
	}
	info, _ := g.Transport(tid)
	if got := info.Orders.Stations(); len(got) != 2 || got[1] != b {
		t.Fatalf("stations=%v", got)
	}

	info.Loading.Phase = cargo.Loading
	zero := 0
	if err := g.UpdateMovementOrders(alice, tid, OrdersUpdate{Remove: &zero}); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if info.Orders.CurrentOrder().GoTo != b || info.Loading.Phase != cargo.NotStarted {
		t.Fatalf("current=%s loading=%s", info.Orders.CurrentOrder().GoTo, info.Loading.Phase)
	}
	if err := g.UpdateMovementOrders(alice, tid, OrdersUpdate{Remove: &zero}); !errors.Is(err, ErrBadRequest) {
		t.Fatalf("removing last order: %v", err)
	}
	if err := g.UpdateMovementOrders(bob, tid, OrdersUpdate{Push: &push}); !errors.Is(err, building.ErrNotOwner) {
		t.Fatalf("bob edits alice's orders: %v", err)
	}
	if err := g.UpdateMovementOrders(alice, tid, OrdersUpdate{Replace: []orders.MovementOrder{{GoTo: "B99"}}}); !errors.Is(err, building.ErrNotFound) {
		t.Fatalf("replace with unknown station: %v", err)
	}
	if info.Orders.CurrentOrder().GoTo != b || info.Orders.Len() != 1 {
		t.Fatalf("failed update changed orders: %+v", info.Orders)
	}
}

type memTickLog struct{ entries []TickLogEntry }

func (m *memTickLog) WriteTick(e TickLogEntry) error {
	m.entries = append(m.entries, e)
	return nil
}

type memAudit struct{ entries []AuditEntry }

func (m *memAudit) WriteAudit(e AuditEntry) error {
	m.entries = append(m.entries, e)
	return nil
}

func TestDemolishedStationForceStopsAndIsLogged(t *testing.T) {
	g := newTestGame(t)
	a, b, _, _ := railway(t, g)
	tl, al := &memTickLog{}, &memAudit{}
	g.SetTickLogger(tl)
	g.SetAuditLogger(al)

	tid, err := g.PurchaseTransport(alice, []cargo.ResourceType{cargo.Coal}, []orders.MovementOrder{{GoTo: a}, {GoTo: b}})
	if err != nil {
		t.Fatalf("purchase: %v", err)
	}
	g.StepOnce(nil, nil, []CommandEnvelope{cmd(alice, "c1", protocol.Command{Kind: protocol.CmdDemolishBuilding, BuildingID: string(b)})})

	info, _ := g.Transport(tid)
	if !info.ForceStopped() {
		t.Fatalf("transport still running at %s", info.Location)
	}
	last := tl.entries[len(tl.entries)-1]
	if len(last.ForceStops) != 1 || last.ForceStops[0].TransportID != string(tid) || last.ForceStops[0].StationID != string(b) {
		t.Fatalf("force stops=%+v", last.ForceStops)
	}
	if len(last.Commands) != 1 || last.Commands[0].Cmd.Kind != protocol.CmdDemolishBuilding {
		t.Fatalf("commands=%+v", last.Commands)
	}
	var sawDemolish, sawStop bool
	for _, e := range al.entries {
		sawDemolish = sawDemolish || e.Action == protocol.CmdDemolishBuilding
		sawStop = sawStop || (e.Action == protocol.EventForceStop && e.Target == string(tid))
	}
	if !sawDemolish || !sawStop {
		t.Fatalf("audit=%+v", al.entries)
	}

	// Stays stopped without a clear.
	loc := info.Location.String()
	g.StepOnce(nil, nil, nil)
	if info.Location.String() != loc {
		t.Fatalf("stopped transport moved: %s -> %s", loc, info.Location)
	}

	// Clearing with the station still gone stops it again.
	if err := g.ClearForceStop(alice, tid); err != nil {
		t.Fatalf("clear: %v", err)
	}
	g.StepOnce(nil, nil, nil)
	if !info.ForceStopped() {
		t.Fatalf("expected a second force stop")
	}
}

func TestDigestIsDeterministic(t *testing.T) {
	build := func() *Game {
		g := newTestGame(t)
		a, b, mine, _ := railway(t, g)
		_ = g.State().AddCargo(mine, cargo.Coal, 50)
		if _, err := g.PurchaseTransport(alice, []cargo.ResourceType{cargo.Coal}, []orders.MovementOrder{{GoTo: a}, {GoTo: b}}); err != nil {
			t.Fatalf("purchase: %v", err)
		}
		return g
	}
	g1, g2 := build(), build()
	if g1.Digest() != g2.Digest() {
		t.Fatalf("fresh games differ")
	}
	for i := 0; i < 12; i++ {
		_, d1 := g1.StepOnce(nil, nil, nil)
		_, d2 := g2.StepOnce(nil, nil, nil)
		if d1 != d2 {
			t.Fatalf("tick %d: digests differ", i)
		}
	}
	before := g1.Digest()
	g1.StepOnce(nil, nil, nil)
	if g1.Digest() == before {
		t.Fatalf("digest did not change across a tick with a moving transport")
	}
}

func TestReplayReproducesDigests(t *testing.T) {
	tl := &memTickLog{}
	g := New(testConfig(), nil)
	g.SetTickLogger(tl)

	resp := make(chan JoinResponse, 1)
	g.StepOnce([]JoinRequest{{Name: "carol", Resp: resp}}, nil, nil)
	carol := ids.PlayerID((<-resp).Welcome.PlayerID)

	script := []protocol.Command{
		{Kind: protocol.CmdBuildStation, Tile: tile(2, 5), TrackType: "EW", Platforms: 1, Length: 2},
		{Kind: protocol.CmdBuildStation, Tile: tile(9, 5), TrackType: "EW", Platforms: 1, Length: 2},
		{Kind: protocol.CmdPlanTracks, Head: &protocol.EdgeRef{X: 4, Z: 5, From: "W"}, Tails: []protocol.EdgeRef{{X: 9, Z: 5, From: "W"}}},
		{Kind: protocol.CmdPurchaseTransport, Cars: []string{"COAL"}, Orders: []protocol.OrderRef{{StationID: "B1"}, {StationID: "B2"}}},
	}
	for i, c := range script {
		g.StepOnce(nil, nil, []CommandEnvelope{cmd(carol, string(rune('a'+i)), c)})
	}
	for i := 0; i < 10; i++ {
		g.StepOnce(nil, nil, nil)
	}
	if _, ok := g.Transport("T1"); !ok {
		t.Fatalf("purchase failed during the script")
	}

	r := New(testConfig(), nil)
	for _, e := range tl.entries {
		if got := r.ReplayTick(e); got != e.Digest {
			t.Fatalf("tick %d: replay digest mismatch", e.Tick)
		}
	}
}

func TestPlanTracksIsReadOnly(t *testing.T) {
	g := newTestGame(t)
	head := geometry.NewDirectionalEdge(geometry.Tile(2, 2), geometry.West)
	tail := tracks.ExitFrom(tracks.TileTrack{Tile: geometry.Tile(6, 2), TrackType: tracks.EastWest, PointingIn: geometry.East})
	plan, err := g.PlanTracks(alice, head, []geometry.DirectionalEdge{tail})
	if err != nil || len(plan.Tracks) != 5 {
		t.Fatalf("plan=%+v err=%v", plan, err)
	}
	if n := len(g.State().AllTracks()); n != 0 {
		t.Fatalf("planning laid %d tracks", n)
	}
}

func TestLoneStopCompletesOnce(t *testing.T) {
	g := newTestGame(t)
	a, _, _, _ := railway(t, g)
	res, err := g.Apply(alice, protocol.Command{Kind: protocol.CmdPurchaseTransport, Cars: []string{"COAL"}, Orders: []protocol.OrderRef{{StationID: string(a)}}})
	if err != nil {
		t.Fatalf("purchase: %v", err)
	}
	completed := 0
	for i := 0; i < 6; i++ {
		g.Advance(1)
		for _, e := range g.events {
			if e.Event.Kind == protocol.EventStopCompleted && e.Event.TransportID == res.CreatedID {
				completed++
			}
		}
		g.events = g.events[:0]
	}
	if completed != 1 {
		t.Fatalf("STOP_COMPLETED emitted %d times", completed)
	}
	info, _ := g.Transport(ids.TransportID(res.CreatedID))
	if info.ForceStopped() || !info.Dwelling {
		t.Fatalf("stopped=%v dwelling=%v", info.ForceStopped(), info.Dwelling)
	}
}
