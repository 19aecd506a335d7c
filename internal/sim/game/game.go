// Package game is one authoritative railway game: terrain, what is built,
// the players and their transports, stepped tick by tick.
package game

import (
	"errors"
	"math"
	"sort"
	"sync/atomic"

	"go.uber.org/zap"

	"railcraft.ai/internal/persistence/snapshot"
	"railcraft.ai/internal/sim/building"
	"railcraft.ai/internal/sim/ids"
	"railcraft.ai/internal/sim/planner"
	"railcraft.ai/internal/sim/terrain"
	"railcraft.ai/internal/sim/transport"
)

var (
	ErrNoRoute       = errors.New("no route")
	ErrUnknownPlayer = errors.New("unknown player")
	ErrBadRequest    = errors.New("bad request")
)

type clientState struct {
	Out chan []byte
}

// SnapshotContributor adds state kept outside the game (AI goals) to
// exported snapshots.
type SnapshotContributor interface {
	ContributeSnapshot(snap *snapshot.SnapshotV1)
}

// Game is a single-threaded simulation.
// All state must be accessed only from the game loop goroutine.
type Game struct {
	cfg Config
	log *zap.Logger

	tick atomic.Uint64
	// gameTime is simulated seconds; stored as float64 bits.
	gameTime atomic.Uint64

	state      *building.State
	planner    *planner.Planner
	advancer   *transport.Advancer
	transports map[ids.TransportID]*transport.Info
	players    map[ids.PlayerID]*Player

	clients map[ids.PlayerID]*clientState
	events  []eventRecord

	hooks        []TickHook
	contributors []SnapshotContributor

	tickLogger   TickLogger
	auditLogger  AuditLogger
	snapshotSink chan<- snapshot.SnapshotV1

	inbox chan CommandEnvelope
	join  chan JoinRequest
	leave chan ids.PlayerID
	stop  chan struct{}
}

// New creates a game on a flat map sized by cfg.
func New(cfg Config, log *zap.Logger) *Game {
	cfg.applyDefaults()
	m := terrain.Flat(cfg.MapWidth, cfg.MapDepth, cfg.MapHeight, cfg.MapSeaLevel)
	return NewWithMap(cfg, m, log)
}

// NewWithMap creates a game on m. cfg's map fields are replaced by m's.
func NewWithMap(cfg Config, m *terrain.Map, log *zap.Logger) *Game {
	cfg.applyDefaults()
	cfg.MapWidth, cfg.MapDepth, cfg.MapSeaLevel = m.Width, m.Depth, m.SeaLevel
	if log == nil {
		log = zap.NewNop()
	}
	log = log.With(zap.String("game", string(cfg.ID)))
	p := planner.New(log, cfg.PlannerWarnAfter)
	return &Game{
		cfg:        cfg,
		log:        log,
		state:      building.NewState(m, cfg.LinkDistance),
		planner:    p,
		advancer:   transport.NewAdvancer(p, cfg.Timing, log),
		transports: map[ids.TransportID]*transport.Info{},
		players:    map[ids.PlayerID]*Player{},
		clients:    map[ids.PlayerID]*clientState{},
		inbox:      make(chan CommandEnvelope, 1024),
		join:       make(chan JoinRequest, 64),
		leave:      make(chan ids.PlayerID, 64),
		stop:       make(chan struct{}),
	}
}

func (g *Game) SetTickLogger(l TickLogger)                    { g.tickLogger = l }
func (g *Game) SetAuditLogger(l AuditLogger)                  { g.auditLogger = l }
func (g *Game) SetSnapshotSink(ch chan<- snapshot.SnapshotV1) { g.snapshotSink = ch }

// OnTick registers a hook. Hooks run in registration order.
func (g *Game) OnTick(h TickHook) { g.hooks = append(g.hooks, h) }

func (g *Game) AddSnapshotContributor(c SnapshotContributor) {
	g.contributors = append(g.contributors, c)
}

func (g *Game) Inbox() chan<- CommandEnvelope { return g.inbox }
func (g *Game) Join() chan<- JoinRequest      { return g.join }
func (g *Game) Leave() chan<- ids.PlayerID    { return g.leave }

func (g *Game) ID() ids.GameID { return g.cfg.ID }

func (g *Game) Config() Config { return g.cfg }

func (g *Game) CurrentTick() uint64 { return g.tick.Load() }

// Time is the simulated time in seconds.
func (g *Game) Time() float64 { return math.Float64frombits(g.gameTime.Load()) }

func (g *Game) setTime(t float64) { g.gameTime.Store(math.Float64bits(t)) }

func (g *Game) State() *building.State { return g.state }

func (g *Game) Planner() *planner.Planner { return g.planner }

func (g *Game) Logger() *zap.Logger { return g.log }

func (g *Game) Player(id ids.PlayerID) (*Player, bool) {
	p, ok := g.players[id]
	return p, ok
}

// Players lists players in id order.
func (g *Game) Players() []*Player {
	out := make([]*Player, 0, len(g.players))
	for _, p := range g.players {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (g *Game) Transport(id ids.TransportID) (*transport.Info, bool) {
	t, ok := g.transports[id]
	return t, ok
}

// Transports lists transports in id order, the order they are advanced in.
func (g *Game) Transports() []*transport.Info {
	out := make([]*transport.Info, 0, len(g.transports))
	for _, t := range g.transports {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return ids.Less(string(out[i].ID), string(out[j].ID)) })
	return out
}
