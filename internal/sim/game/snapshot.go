package game

import (
	"fmt"

	"go.uber.org/zap"

	"railcraft.ai/internal/persistence/snapshot"
	"railcraft.ai/internal/sim/building"
	"railcraft.ai/internal/sim/cargo"
	"railcraft.ai/internal/sim/geometry"
	"railcraft.ai/internal/sim/ids"
	"railcraft.ai/internal/sim/orders"
	"railcraft.ai/internal/sim/terrain"
	"railcraft.ai/internal/sim/tracks"
	"railcraft.ai/internal/sim/transport"
)

func (g *Game) ExportSnapshot() snapshot.SnapshotV1 {
	m := g.state.Terrain()
	c := g.state.Counters()
	snap := snapshot.SnapshotV1{
		Header:             snapshot.Header{Version: snapshot.Version, GameID: string(g.cfg.ID), Tick: g.tick.Load()},
		TickRate:           g.cfg.TickRateHz,
		GameTime:           g.Time(),
		LinkDistance:       g.cfg.LinkDistance,
		AlreadyExistsCoef:  g.cfg.AlreadyExistsCoef,
		SnapshotEveryTicks: g.cfg.SnapshotEveryTicks,
		Map:                snapshot.MapV1{Width: m.Width, Depth: m.Depth, SeaLevel: m.SeaLevel, Heights: m.Heights()},
		Counters:           snapshot.CountersV1{NextBuilding: c.NextBuilding, NextTransport: c.NextTransport},
	}
	for _, p := range g.Players() {
		snap.Players = append(snap.Players, snapshot.PlayerV1{ID: string(p.ID), Name: p.Name, AI: p.AI})
	}
	for _, t := range g.state.AllTracks() {
		snap.Tracks = append(snap.Tracks, snapshot.TrackV1{Owner: string(t.Owner), X: t.Tile.X, Z: t.Tile.Z, TrackType: t.TrackType.String()})
	}
	for _, b := range g.state.Buildings() {
		bv := snapshot.BuildingV1{
			ID:       string(b.ID),
			Owner:    string(b.Owner),
			Kind:     b.Kind.String(),
			NW:       b.Coverage.NorthWest.ToArray(),
			SE:       b.Coverage.SouthEast.ToArray(),
			Industry: string(b.Industry),
			Cargo:    cargoV1(b.Cargo),
		}
		if b.Station != nil {
			bv.Orientation = b.Station.Orientation.String()
			bv.Platforms = b.Station.Platforms
			bv.Length = b.Station.Length
		}
		snap.Buildings = append(snap.Buildings, bv)
	}
	for _, t := range g.Transports() {
		snap.Transports = append(snap.Transports, transportV1(t))
	}
	for _, c := range g.contributors {
		c.ContributeSnapshot(&snap)
	}
	return snap
}

// FromSnapshot rebuilds a game. cfg supplies what the snapshot does not
// record (cargo timing, vehicle defaults); the snapshot wins otherwise.
func FromSnapshot(cfg Config, snap snapshot.SnapshotV1, log *zap.Logger) (*Game, error) {
	if snap.Header.Version != snapshot.Version {
		return nil, fmt.Errorf("unsupported snapshot version %d", snap.Header.Version)
	}
	m, err := terrain.FromHeights(snap.Map.Width, snap.Map.Depth, snap.Map.SeaLevel, snap.Map.Heights)
	if err != nil {
		return nil, fmt.Errorf("snapshot map: %w", err)
	}
	cfg.ID = ids.GameID(snap.Header.GameID)
	if snap.TickRate > 0 {
		cfg.TickRateHz = snap.TickRate
	}
	if snap.LinkDistance > 0 {
		cfg.LinkDistance = snap.LinkDistance
	}
	if snap.AlreadyExistsCoef > 0 {
		cfg.AlreadyExistsCoef = snap.AlreadyExistsCoef
	}
	if snap.SnapshotEveryTicks > 0 {
		cfg.SnapshotEveryTicks = snap.SnapshotEveryTicks
	}
	g := NewWithMap(cfg, m, log)
	g.tick.Store(snap.Header.Tick)
	g.setTime(snap.GameTime)

	for _, p := range snap.Players {
		g.AddPlayer(ids.PlayerID(p.ID), p.Name, p.AI)
	}

	buildings := make([]*building.Building, 0, len(snap.Buildings))
	for _, bv := range snap.Buildings {
		b, err := buildingFromV1(bv)
		if err != nil {
			return nil, err
		}
		buildings = append(buildings, b)
	}
	laid := make([]building.TrackInfo, 0, len(snap.Tracks))
	for _, tv := range snap.Tracks {
		tt, err := tracks.ParseTrackType(tv.TrackType)
		if err != nil {
			return nil, fmt.Errorf("snapshot track: %w", err)
		}
		laid = append(laid, building.TrackInfo{Owner: ids.PlayerID(tv.Owner), Tile: geometry.Tile(tv.X, tv.Z), TrackType: tt})
	}
	g.state.Restore(buildings, laid)

	for _, tv := range snap.Transports {
		info, err := transportFromV1(tv)
		if err != nil {
			return nil, err
		}
		g.transports[info.ID] = info
		g.state.Counters().Observe(string(info.ID))
	}

	c := g.state.Counters()
	c.NextBuilding = ids.MaxU64(c.NextBuilding, snap.Counters.NextBuilding)
	c.NextTransport = ids.MaxU64(c.NextTransport, snap.Counters.NextTransport)
	return g, nil
}

func cargoV1(m cargo.Map) map[string]float64 {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]float64, len(m))
	for r, v := range m {
		if v != 0 {
			out[string(r)] = v
		}
	}
	return out
}

func cargoFromV1(m map[string]float64) cargo.Map {
	out := cargo.Map{}
	for r, v := range m {
		out[cargo.ResourceType(r)] = v
	}
	return out
}

func tileTrackV1(t tracks.TileTrack) snapshot.TileTrackV1 {
	return snapshot.TileTrackV1{X: t.Tile.X, Z: t.Tile.Z, TrackType: t.TrackType.String(), PointingIn: t.PointingIn.String()}
}

func tileTrackFromV1(v snapshot.TileTrackV1) (tracks.TileTrack, error) {
	tt, err := tracks.ParseTrackType(v.TrackType)
	if err != nil {
		return tracks.TileTrack{}, err
	}
	d, err := geometry.ParseDirection(v.PointingIn)
	if err != nil {
		return tracks.TileTrack{}, err
	}
	return tracks.TileTrack{Tile: geometry.Tile(v.X, v.Z), TrackType: tt, PointingIn: d}, nil
}

func transportV1(t *transport.Info) snapshot.TransportV1 {
	cars := make([]string, 0, len(t.Type.Cars))
	for _, c := range t.Type.Cars {
		cars = append(cars, string(c))
	}
	path := make([]snapshot.TileTrackV1, 0, len(t.Location.TilePath))
	for _, seg := range t.Location.TilePath {
		path = append(path, tileTrackV1(seg))
	}
	os := make([]snapshot.OrderV1, 0, t.Orders.Len())
	for _, o := range t.Orders.Orders {
		os = append(os, snapshot.OrderV1{StationID: string(o.GoTo), Unload: uint8(o.Action.Unload), Load: uint8(o.Action.Load)})
	}
	var unloaded []string
	for _, r := range t.Loading.Unloaded.Sorted() {
		unloaded = append(unloaded, string(r))
	}
	return snapshot.TransportV1{
		ID:    string(t.ID),
		Owner: string(t.Owner),
		Type: snapshot.TransportTypeV1{
			Name:         t.Type.Name,
			Cars:         cars,
			CarCapacity:  t.Type.CarCapacity,
			CarLength:    t.Type.CarLength,
			EngineLength: t.Type.EngineLength,
		},
		TilePath:  path,
		Progress:  t.Location.Progress,
		Velocity:  t.Velocity,
		Orders:    os,
		NextOrder: t.Orders.Next,
		ForceStop: t.Orders.ForceStop,
		Loading: snapshot.LoadingV1{
			Phase:      uint8(t.Loading.Phase),
			TimeNeeded: t.Loading.TimeNeeded,
			TimeSpent:  t.Loading.TimeSpent,
			Pending:    cargoV1(t.Loading.Pending),
			Unloaded:   unloaded,
		},
		Cargo:          cargoV1(t.CargoLoaded),
		Departing:      t.Departing,
		Dwelling:       t.Dwelling,
		CompletedStops: t.CompletedStops,
		Odometer:       t.Odometer,
	}
}

func transportFromV1(v snapshot.TransportV1) (*transport.Info, error) {
	if len(v.TilePath) == 0 || len(v.Orders) == 0 {
		return nil, fmt.Errorf("snapshot transport %s: empty path or orders", v.ID)
	}
	tt := transport.TransportType{
		Name:         v.Type.Name,
		CarCapacity:  v.Type.CarCapacity,
		CarLength:    v.Type.CarLength,
		EngineLength: v.Type.EngineLength,
	}
	for _, c := range v.Type.Cars {
		tt.Cars = append(tt.Cars, cargo.ResourceType(c))
	}
	path := make([]tracks.TileTrack, 0, len(v.TilePath))
	for _, s := range v.TilePath {
		seg, err := tileTrackFromV1(s)
		if err != nil {
			return nil, fmt.Errorf("snapshot transport %s: %w", v.ID, err)
		}
		path = append(path, seg)
	}
	os := make([]orders.MovementOrder, 0, len(v.Orders))
	for _, o := range v.Orders {
		os = append(os, orders.MovementOrder{
			GoTo:   ids.StationID(o.StationID),
			Action: orders.Action{Unload: orders.UnloadPolicy(o.Unload), Load: orders.LoadPolicy(o.Load)},
		})
	}
	mo, err := orders.FromSlice(os)
	if err != nil {
		return nil, err
	}
	if v.NextOrder < 0 || v.NextOrder >= mo.Len() {
		return nil, fmt.Errorf("snapshot transport %s: order index %d of %d", v.ID, v.NextOrder, mo.Len())
	}
	mo.Next = v.NextOrder
	mo.ForceStop = v.ForceStop

	info := transport.New(ids.TransportID(v.ID), ids.PlayerID(v.Owner), tt, path[0], v.Velocity, mo)
	info.Location = transport.Location{TilePath: path, Progress: v.Progress}
	info.Loading = cargo.State{
		Phase:      cargo.Phase(v.Loading.Phase),
		TimeNeeded: v.Loading.TimeNeeded,
		TimeSpent:  v.Loading.TimeSpent,
	}
	if len(v.Loading.Pending) > 0 {
		info.Loading.Pending = cargoFromV1(v.Loading.Pending)
	}
	if len(v.Loading.Unloaded) > 0 {
		info.Loading.Unloaded = cargo.Set{}
		for _, r := range v.Loading.Unloaded {
			info.Loading.Unloaded[cargo.ResourceType(r)] = struct{}{}
		}
	}
	info.CargoLoaded = cargoFromV1(v.Cargo)
	info.Departing = v.Departing
	info.Dwelling = v.Dwelling
	info.CompletedStops = v.CompletedStops
	info.Odometer = v.Odometer
	return info, nil
}

func buildingFromV1(v snapshot.BuildingV1) (*building.Building, error) {
	b := &building.Building{
		ID:       ids.BuildingID(v.ID),
		Owner:    ids.PlayerID(v.Owner),
		Coverage: geometry.Rectangle(geometry.TileFromArray(v.NW), geometry.TileFromArray(v.SE)),
		Industry: building.IndustryType(v.Industry),
	}
	if len(v.Cargo) > 0 {
		b.Cargo = cargoFromV1(v.Cargo)
	}
	switch v.Kind {
	case building.KindStation.String():
		b.Kind = building.KindStation
		tt, err := tracks.ParseTrackType(v.Orientation)
		if err != nil {
			return nil, fmt.Errorf("snapshot station %s: %w", v.ID, err)
		}
		b.Station = &building.StationSpec{Orientation: tt, Platforms: v.Platforms, Length: v.Length}
	case building.KindIndustry.String():
		b.Kind = building.KindIndustry
	default:
		return nil, fmt.Errorf("snapshot building %s: unknown kind %q", v.ID, v.Kind)
	}
	return b, nil
}
