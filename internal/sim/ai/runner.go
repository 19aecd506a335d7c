package ai

import (
	"sort"
	"strconv"

	"go.uber.org/zap"

	"railcraft.ai/internal/persistence/snapshot"
	"railcraft.ai/internal/protocol"
	"railcraft.ai/internal/sim/cargo"
	"railcraft.ai/internal/sim/game"
	"railcraft.ai/internal/sim/ids"
)

const goalPrefix = "AG"

// Runner owns the goals of every computer player in one game and steps the
// pending ones every few ticks. It is only used from the game loop.
type Runner struct {
	log   *zap.Logger
	every uint64
	goals map[string]*Goal
	next  uint64
}

func NewRunner(everyTicks int, log *zap.Logger) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	if everyTicks <= 0 {
		everyTicks = 1
	}
	return &Runner{log: log.Named("ai"), every: uint64(everyTicks), goals: map[string]*Goal{}}
}

func (r *Runner) add(gl *Goal) string {
	r.next++
	gl.ID = goalPrefix + strconv.FormatUint(r.next, 10)
	gl.Status = Pending
	r.goals[gl.ID] = gl
	r.log.Info("goal added", zap.String("goal", gl.ID), zap.String("kind", string(gl.Kind)), zap.String("owner", string(gl.Owner)))
	return gl.ID
}

func (r *Runner) AddConnectStations(owner ids.PlayerID, from, to ids.StationID) string {
	return r.add(&Goal{Owner: owner, Kind: GoalConnectStations, Stations: []ids.StationID{from, to}})
}

func (r *Runner) AddRunService(owner ids.PlayerID, stations []ids.StationID, cars []cargo.ResourceType) string {
	return r.add(&Goal{
		Owner:    owner,
		Kind:     GoalRunService,
		Stations: append([]ids.StationID(nil), stations...),
		Cars:     append([]cargo.ResourceType(nil), cars...),
	})
}

func (r *Runner) AddRepairRoute(owner ids.PlayerID, transport ids.TransportID) string {
	return r.add(&Goal{Owner: owner, Kind: GoalRepairRoute, Transport: transport})
}

func (r *Runner) Goal(id string) (*Goal, bool) {
	gl, ok := r.goals[id]
	return gl, ok
}

// Goals lists every goal in id order.
func (r *Runner) Goals() []*Goal {
	out := make([]*Goal, 0, len(r.goals))
	for _, gl := range r.goals {
		out = append(out, gl)
	}
	sort.Slice(out, func(i, j int) bool { return ids.Less(out[i].ID, out[j].ID) })
	return out
}

// Attach registers the runner with g as a tick hook and a snapshot
// contributor.
func (r *Runner) Attach(g *game.Game) {
	g.OnTick(r.Tick)
	g.AddSnapshotContributor(r)
}

// Tick steps pending goals in id order and returns their commands. Services
// whose transport is force-stopped get a repair goal.
func (r *Runner) Tick(g *game.Game, tick uint64) []game.CommandEnvelope {
	if tick%r.every != 0 {
		return nil
	}
	var out []game.CommandEnvelope
	for _, gl := range r.Goals() {
		if gl.Status != Pending {
			continue
		}
		res := gl.Step(g)
		for i, c := range res.Commands {
			out = append(out, game.CommandEnvelope{
				PlayerID: gl.Owner,
				Msg: protocol.CmdMsg{
					Type:            protocol.TypeCmd,
					ProtocolVersion: protocol.Version,
					ID:              gl.ID + "-" + strconv.FormatUint(tick, 10) + "-" + strconv.Itoa(i),
					Cmd:             c,
				},
			})
		}
		if res.Status != gl.Status {
			gl.Status = res.Status
			if res.Status == Failed {
				r.log.Warn("goal failed", zap.String("goal", gl.ID), zap.String("kind", string(gl.Kind)), zap.Int("attempts", gl.Attempts))
			} else {
				r.log.Info("goal done", zap.String("goal", gl.ID), zap.String("kind", string(gl.Kind)))
			}
		}
	}
	r.watchServices(g)
	return out
}

func (r *Runner) watchServices(g *game.Game) {
	repairing := map[ids.TransportID]bool{}
	for _, gl := range r.goals {
		// A failed repair is not retried on its own.
		if gl.Kind == GoalRepairRoute && gl.Status != Done {
			repairing[gl.Transport] = true
		}
	}
	for _, gl := range r.Goals() {
		if gl.Kind != GoalRunService || gl.Status != Done || repairing[gl.Transport] {
			continue
		}
		if info, ok := g.Transport(gl.Transport); ok && info.ForceStopped() {
			r.AddRepairRoute(gl.Owner, gl.Transport)
			repairing[gl.Transport] = true
		}
	}
}

func (r *Runner) ContributeSnapshot(snap *snapshot.SnapshotV1) {
	for _, gl := range r.Goals() {
		gv := snapshot.GoalV1{
			ID:        gl.ID,
			Owner:     string(gl.Owner),
			Kind:      string(gl.Kind),
			Transport: string(gl.Transport),
			Attempts:  gl.Attempts,
			Status:    string(gl.Status),
		}
		for _, s := range gl.Stations {
			gv.Stations = append(gv.Stations, string(s))
		}
		for _, c := range gl.Cars {
			gv.Cars = append(gv.Cars, string(c))
		}
		snap.Goals = append(snap.Goals, gv)
	}
	snap.Counters.NextGoal = r.next
}

// RunnerFromSnapshot restores the goals saved by ContributeSnapshot.
func RunnerFromSnapshot(everyTicks int, snap snapshot.SnapshotV1, log *zap.Logger) *Runner {
	r := NewRunner(everyTicks, log)
	r.next = snap.Counters.NextGoal
	for _, gv := range snap.Goals {
		gl := &Goal{
			ID:        gv.ID,
			Owner:     ids.PlayerID(gv.Owner),
			Kind:      Kind(gv.Kind),
			Transport: ids.TransportID(gv.Transport),
			Attempts:  gv.Attempts,
			Status:    Status(gv.Status),
		}
		for _, s := range gv.Stations {
			gl.Stations = append(gl.Stations, ids.StationID(s))
		}
		for _, c := range gv.Cars {
			gl.Cars = append(gl.Cars, cargo.ResourceType(c))
		}
		r.goals[gl.ID] = gl
		if n, ok := ids.ParseUintAfterPrefix(goalPrefix, gl.ID); ok {
			r.next = ids.MaxU64(r.next, n)
		}
	}
	return r
}
