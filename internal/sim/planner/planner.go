// Package planner finds track routes over the tile-track graph: routes to
// build (preferring to reuse what is already laid) and routes a running
// transport can follow over existing track.
package planner

import (
	"time"

	"go.uber.org/zap"

	"railcraft.ai/internal/sim/building"
	"railcraft.ai/internal/sim/geometry"
	"railcraft.ai/internal/sim/ids"
	"railcraft.ai/internal/sim/tracks"
)

// DefaultAlreadyExistsCoef discounts track that is already laid, so routes
// share infrastructure unless a new route is clearly shorter.
const DefaultAlreadyExistsCoef = 0.8

// DefaultWarnAfter is the planning time above which a call is logged.
const DefaultWarnAfter = 20 * time.Millisecond

// Plan is the build list for a route. Tracks holds only pieces that need
// building; Length covers the whole route including reused pieces.
type Plan struct {
	Tracks []building.TrackInfo
	Path   []tracks.TileTrack
	Length tracks.TrackLength
	Cost   float64
}

// Route is a path over existing track. Path[0] is the start segment.
type Route struct {
	Path   []tracks.TileTrack
	Length tracks.TrackLength
}

type Stats struct {
	Calls     uint64
	Failures  uint64
	SlowCalls uint64
	Total     time.Duration
}

type Planner struct {
	log       *zap.Logger
	warnAfter time.Duration
	stats     Stats
}

func New(log *zap.Logger, warnAfter time.Duration) *Planner {
	if log == nil {
		log = zap.NewNop()
	}
	if warnAfter <= 0 {
		warnAfter = DefaultWarnAfter
	}
	return &Planner{log: log.Named("planner"), warnAfter: warnAfter}
}

func (p *Planner) Stats() Stats { return p.stats }

// PlanTracks returns the cheapest route for owner from start to any of
// targets. Weights are track length times 1.0 for new track and
// alreadyExistsCoef for owner's existing track; unbuildable pieces are not
// part of the graph.
func (p *Planner) PlanTracks(owner ids.PlayerID, start tracks.TileTrack, targets []tracks.TileTrack, state *building.State, alreadyExistsCoef float64) (Plan, bool) {
	defer p.timed("plan_tracks", time.Now())
	return p.counted(p.plan(owner, []tracks.TileTrack{start}, targets, state, alreadyExistsCoef))
}

// PlanEdgeToEdge plans between two undirected edges: every tile track that
// starts at head is tried against every tile track that finishes at tail and
// the shortest overall wins. Earlier head candidates win ties.
func (p *Planner) PlanEdgeToEdge(owner ids.PlayerID, head, tail geometry.EdgeXZ, state *building.State, alreadyExistsCoef float64) (Plan, bool) {
	defer p.timed("plan_edge_to_edge", time.Now())
	heads := tracks.TileTracksFromEdge(head, tracks.RoleStart)
	tails := tracks.TileTracksFromEdge(tail, tracks.RoleFinish)
	return p.counted(p.bestOf(owner, heads, tails, state, alreadyExistsCoef))
}

// PlanDirectional plans from the segments entered through head to the
// segments left through any of tails.
func (p *Planner) PlanDirectional(owner ids.PlayerID, head geometry.DirectionalEdge, tails []geometry.DirectionalEdge, state *building.State, alreadyExistsCoef float64) (Plan, bool) {
	defer p.timed("plan_directional", time.Now())
	heads := tracks.TracksEnteredVia(head)
	var targets []tracks.TileTrack
	for _, t := range tails {
		targets = append(targets, tracks.TracksExitingVia(t)...)
	}
	return p.counted(p.bestOf(owner, heads, targets, state, alreadyExistsCoef))
}

// FindRoute searches owner's laid track only. Every start is charged its own
// length; on equal cost the earlier start wins.
func (p *Planner) FindRoute(owner ids.PlayerID, starts, targets []tracks.TileTrack, state *building.State) (Route, bool) {
	defer p.timed("find_route", time.Now())
	weight := func(t tracks.TileTrack) (float64, bool) {
		if !state.HasTrack(owner, t.Tile, t.TrackType) {
			return 0, false
		}
		return t.Length().Float(), true
	}
	next := func(t tracks.TileTrack) []tracks.TileTrack {
		return tracks.Successors(t, state.TrackTypesWithConnection(t.NextTileCoords(), t.PointingIn.Reverse()))
	}
	path, _, ok := dijkstra(starts, targetSet(targets), weight, next)
	if !ok {
		p.stats.Failures++
		return Route{}, false
	}
	return Route{Path: path, Length: pathLength(path)}, true
}

func (p *Planner) bestOf(owner ids.PlayerID, heads, tails []tracks.TileTrack, state *building.State, coef float64) (Plan, bool) {
	var best Plan
	found := false
	for _, h := range heads {
		pl, ok := p.plan(owner, []tracks.TileTrack{h}, tails, state, coef)
		if !ok {
			continue
		}
		if !found || pl.Cost < best.Cost {
			best, found = pl, true
		}
	}
	return best, found
}

func (p *Planner) plan(owner ids.PlayerID, starts, targets []tracks.TileTrack, state *building.State, coef float64) (Plan, bool) {
	weight := func(t tracks.TileTrack) (float64, bool) {
		info := building.TrackInfo{Owner: owner, Tile: t.Tile, TrackType: t.TrackType}
		switch state.CanBuildTrack(owner, info) {
		case building.Ok:
			return t.Length().Float(), true
		case building.AlreadyExists:
			return t.Length().Mul(coef).Float(), true
		}
		return 0, false
	}
	next := func(t tracks.TileTrack) []tracks.TileTrack {
		return tracks.Successors(t, tracks.TypesWithConnection(t.PointingIn.Reverse()))
	}
	path, cost, ok := dijkstra(starts, targetSet(targets), weight, next)
	if !ok {
		return Plan{}, false
	}

	plan := Plan{Path: path, Length: pathLength(path), Cost: cost}
	seen := map[building.TrackInfo]struct{}{}
	for _, t := range path {
		info := building.TrackInfo{Owner: owner, Tile: t.Tile, TrackType: t.TrackType}
		switch state.CanBuildTrack(owner, info) {
		case building.Ok:
			if _, dup := seen[info]; dup {
				continue
			}
			seen[info] = struct{}{}
			plan.Tracks = append(plan.Tracks, info)
		case building.AlreadyExists:
		default:
			p.log.Warn("planned route crosses an unbuildable segment",
				zap.String("owner", string(owner)),
				zap.Stringer("segment", t))
		}
	}
	return plan, true
}

func (p *Planner) counted(pl Plan, ok bool) (Plan, bool) {
	if !ok {
		p.stats.Failures++
	}
	return pl, ok
}

func (p *Planner) timed(op string, started time.Time) {
	d := time.Since(started)
	p.stats.Calls++
	p.stats.Total += d
	if d > p.warnAfter {
		p.stats.SlowCalls++
		p.log.Warn("slow planning", zap.String("op", op), zap.Duration("took", d))
	}
}

func targetSet(ts []tracks.TileTrack) map[tracks.TileTrack]struct{} {
	out := make(map[tracks.TileTrack]struct{}, len(ts))
	for _, t := range ts {
		out[t] = struct{}{}
	}
	return out
}

func pathLength(path []tracks.TileTrack) tracks.TrackLength {
	var l tracks.TrackLength
	for _, t := range path {
		l = l.Add(t.Length())
	}
	return l
}
