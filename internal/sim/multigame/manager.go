package multigame

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"railcraft.ai/internal/persistence/snapshot"
	"railcraft.ai/internal/protocol"
	"railcraft.ai/internal/sim/ai"
	"railcraft.ai/internal/sim/game"
	"railcraft.ai/internal/sim/ids"
	"railcraft.ai/internal/sim/terrain"
	"railcraft.ai/internal/sim/tuning"
)

var (
	ErrGameNotFound = errors.New("game not found")
	ErrGameFull     = errors.New("game full")
	ErrGameBusy     = errors.New("game busy")
)

// Session is one connected player in one game.
type Session struct {
	PlayerID ids.PlayerID
	GameID   ids.GameID
	Out      chan []byte
}

// Runtime is a hosted game and the goal runner for its computer players.
type Runtime struct {
	Spec GameSpec
	Game *game.Game
	AI   *ai.Runner
}

// NewRuntime creates a fresh game for spec and seats its computer players.
func NewRuntime(spec GameSpec, tu tuning.Tuning, log *zap.Logger) (*Runtime, error) {
	cfg := game.ConfigFromTuning(ids.GameID(spec.ID), tu)
	var g *game.Game
	if spec.Heightmap != "" {
		f, err := os.Open(spec.Heightmap)
		if err != nil {
			return nil, err
		}
		m, err := terrain.ParseHeightmap(f, tu.Map.SeaLevel)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("heightmap %s: %w", spec.Heightmap, err)
		}
		g = game.NewWithMap(cfg, m, log)
	} else {
		g = game.New(cfg, log)
	}
	for _, name := range spec.AIPlayers {
		g.AddPlayer("", name, true)
	}
	r := ai.NewRunner(tu.AIEveryTicks, log)
	r.Attach(g)
	return &Runtime{Spec: spec, Game: g, AI: r}, nil
}

// RestoreRuntime resumes a game, and its goals, from a snapshot.
func RestoreRuntime(spec GameSpec, tu tuning.Tuning, snap snapshot.SnapshotV1, log *zap.Logger) (*Runtime, error) {
	cfg := game.ConfigFromTuning(ids.GameID(snap.Header.GameID), tu)
	g, err := game.FromSnapshot(cfg, snap, log)
	if err != nil {
		return nil, err
	}
	r := ai.RunnerFromSnapshot(tu.AIEveryTicks, snap, log)
	r.Attach(g)
	return &Runtime{Spec: spec, Game: g, AI: r}, nil
}

const (
	stateVersion         = 1
	gameRequestTimeout   = 3 * time.Second
	gameLeaveSendTimeout = 300 * time.Millisecond
)

type persistedState struct {
	Version      int               `json:"version"`
	PlayerToGame map[string]string `json:"player_to_game"`
}

// Manager hosts independent games. Each game is only ever stepped by one
// goroutine; different games step in parallel.
type Manager struct {
	mu sync.RWMutex

	runtimes  map[ids.GameID]*Runtime
	defaultID ids.GameID
	stateFile string
	log       *zap.Logger

	online       map[ids.GameID]int
	playerToGame map[ids.PlayerID]ids.GameID

	persistDebounce time.Duration
	persistCh       chan struct{}
	persistFlush    chan chan struct{}
	persistStop     chan struct{}
	persistWG       sync.WaitGroup
	closeOnce       sync.Once
}

func NewManager(defaultID ids.GameID, runtimes []*Runtime, stateFile string, log *zap.Logger) (*Manager, error) {
	if len(runtimes) == 0 {
		return nil, fmt.Errorf("empty runtimes")
	}
	if log == nil {
		log = zap.NewNop()
	}
	m := &Manager{
		runtimes:        map[ids.GameID]*Runtime{},
		defaultID:       defaultID,
		stateFile:       stateFile,
		log:             log,
		online:          map[ids.GameID]int{},
		playerToGame:    map[ids.PlayerID]ids.GameID{},
		persistDebounce: 200 * time.Millisecond,
		persistCh:       make(chan struct{}, 1),
		persistFlush:    make(chan chan struct{}, 8),
		persistStop:     make(chan struct{}),
	}
	for _, rt := range runtimes {
		if err := m.addLocked(rt); err != nil {
			return nil, err
		}
	}
	if m.runtimes[defaultID] == nil {
		return nil, fmt.Errorf("missing runtime for default game %s", defaultID)
	}
	m.loadState()
	m.persistWG.Add(1)
	go m.persistLoop()
	return m, nil
}

func (m *Manager) addLocked(rt *Runtime) error {
	if rt == nil || rt.Game == nil {
		return fmt.Errorf("nil runtime")
	}
	id := rt.Game.ID()
	if m.runtimes[id] != nil {
		return fmt.Errorf("duplicate game id: %s", id)
	}
	m.runtimes[id] = rt
	return nil
}

// Add registers a game created after the manager started. The caller runs it.
func (m *Manager) Add(rt *Runtime) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.addLocked(rt)
}

func (m *Manager) GameIDs() []ids.GameID {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]ids.GameID, 0, len(m.runtimes))
	for id := range m.runtimes {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (m *Manager) Runtime(id ids.GameID) *Runtime {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.runtimes[id]
}

func (m *Manager) Default() ids.GameID { return m.defaultID }

// PlayerGame reports the game a player last joined, across restarts.
func (m *Manager) PlayerGame(id ids.PlayerID) (ids.GameID, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	g, ok := m.playerToGame[id]
	return g, ok
}

func (m *Manager) Online(id ids.GameID) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.online[id]
}

// Join seats a new player in the preferred game, or the default one.
func (m *Manager) Join(ctx context.Context, name string, pref string, out chan []byte) (Session, game.JoinResponse, error) {
	target := m.defaultID
	if pref != "" {
		target = ids.GameID(pref)
	}
	m.mu.Lock()
	rt := m.runtimes[target]
	if rt == nil {
		m.mu.Unlock()
		return Session{}, game.JoinResponse{}, fmt.Errorf("%w: %s", ErrGameNotFound, target)
	}
	if limit := rt.Spec.MaxPlayers; limit > 0 && m.online[target] >= limit {
		m.mu.Unlock()
		return Session{}, game.JoinResponse{}, fmt.Errorf("%w: %s", ErrGameFull, target)
	}
	m.online[target]++
	m.mu.Unlock()

	resp, err := m.sendJoinRequest(ctx, rt, game.JoinRequest{Name: name, Out: out, Resp: make(chan game.JoinResponse, 1)})
	if err != nil {
		m.mu.Lock()
		m.online[target]--
		m.mu.Unlock()
		return Session{}, game.JoinResponse{}, err
	}
	s := Session{PlayerID: ids.PlayerID(resp.Welcome.PlayerID), GameID: target, Out: out}

	m.mu.Lock()
	m.playerToGame[s.PlayerID] = target
	m.schedulePersistLocked()
	m.mu.Unlock()
	m.log.Info("player joined", zap.String("game", string(target)), zap.String("player", string(s.PlayerID)), zap.String("name", name))
	return s, resp, nil
}

func (m *Manager) Leave(s Session) {
	rt := m.Runtime(s.GameID)
	if rt == nil {
		return
	}
	m.mu.Lock()
	if m.online[s.GameID] > 0 {
		m.online[s.GameID]--
	}
	m.mu.Unlock()
	timer := time.NewTimer(gameLeaveSendTimeout)
	defer timer.Stop()
	select {
	case rt.Game.Leave() <- s.PlayerID:
	case <-timer.C:
		m.log.Warn("leave dropped", zap.String("game", string(s.GameID)), zap.String("player", string(s.PlayerID)))
	}
}

// RouteCmd queues msg for the session's game. The result arrives on the
// session's Out channel once the game applies it.
func (m *Manager) RouteCmd(ctx context.Context, s Session, msg protocol.CmdMsg) error {
	rt := m.Runtime(s.GameID)
	if rt == nil {
		return fmt.Errorf("%w: %s", ErrGameNotFound, s.GameID)
	}
	ctx, cancel := context.WithTimeout(ctx, gameRequestTimeout)
	defer cancel()
	select {
	case rt.Game.Inbox() <- game.CommandEnvelope{PlayerID: s.PlayerID, Msg: msg}:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", ErrGameBusy, ctx.Err())
	}
}

func (m *Manager) sendJoinRequest(ctx context.Context, rt *Runtime, req game.JoinRequest) (game.JoinResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, gameRequestTimeout)
	defer cancel()
	select {
	case rt.Game.Join() <- req:
	case <-ctx.Done():
		return game.JoinResponse{}, fmt.Errorf("%w: %v", ErrGameBusy, ctx.Err())
	}
	select {
	case resp := <-req.Resp:
		return resp, nil
	case <-ctx.Done():
		return game.JoinResponse{}, fmt.Errorf("%w: %v", ErrGameBusy, ctx.Err())
	}
}

// StepAll advances every game by one tick, games in parallel, and returns
// each game's digest. It must not be used while RunAll is running.
func (m *Manager) StepAll() map[ids.GameID]string {
	m.mu.RLock()
	rts := make([]*Runtime, 0, len(m.runtimes))
	for _, rt := range m.runtimes {
		rts = append(rts, rt)
	}
	m.mu.RUnlock()

	digests := make([]string, len(rts))
	var wg sync.WaitGroup
	for i, rt := range rts {
		wg.Add(1)
		go func(i int, g *game.Game) {
			defer wg.Done()
			_, digests[i] = g.StepOnce(nil, nil, nil)
		}(i, rt.Game)
	}
	wg.Wait()

	out := make(map[ids.GameID]string, len(rts))
	for i, rt := range rts {
		out[rt.Game.ID()] = digests[i]
	}
	return out
}

// RunAll runs every game's loop until ctx is done.
func (m *Manager) RunAll(ctx context.Context) error {
	m.mu.RLock()
	rts := make([]*Runtime, 0, len(m.runtimes))
	for _, rt := range m.runtimes {
		rts = append(rts, rt)
	}
	m.mu.RUnlock()

	errs := make([]error, len(rts))
	var wg sync.WaitGroup
	for i, rt := range rts {
		wg.Add(1)
		go func(i int, g *game.Game) {
			defer wg.Done()
			if err := g.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				errs[i] = fmt.Errorf("game %s: %w", g.ID(), err)
			}
		}(i, rt.Game)
	}
	wg.Wait()
	return errors.Join(errs...)
}

func (m *Manager) loadState() {
	if m.stateFile == "" {
		return
	}
	b, err := os.ReadFile(m.stateFile)
	if err != nil {
		return
	}
	var st persistedState
	if err := json.Unmarshal(b, &st); err != nil {
		m.log.Warn("ignoring unreadable game state", zap.String("path", m.stateFile), zap.Error(err))
		return
	}
	if st.Version != stateVersion {
		m.log.Warn("ignoring game state version", zap.Int("version", st.Version))
		return
	}
	for p, g := range st.PlayerToGame {
		if p == "" || m.runtimes[ids.GameID(g)] == nil {
			continue
		}
		m.playerToGame[ids.PlayerID(p)] = ids.GameID(g)
	}
}

func (m *Manager) schedulePersistLocked() {
	if m.stateFile == "" {
		return
	}
	select {
	case m.persistCh <- struct{}{}:
	default:
	}
}

func (m *Manager) persistLoop() {
	defer m.persistWG.Done()
	var timer *time.Timer
	stopTimer := func() {
		if timer == nil {
			return
		}
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer = nil
	}
	for {
		var timerCh <-chan time.Time
		if timer != nil {
			timerCh = timer.C
		}
		select {
		case <-m.persistStop:
			stopTimer()
			m.persistNow()
			return
		case <-m.persistCh:
			stopTimer()
			timer = time.NewTimer(m.persistDebounce)
		case ack := <-m.persistFlush:
			stopTimer()
			m.persistNow()
			close(ack)
		case <-timerCh:
			timer = nil
			m.persistNow()
		}
	}
}

// FlushState writes the player residency file now.
func (m *Manager) FlushState(ctx context.Context) error {
	if m.stateFile == "" {
		return nil
	}
	ack := make(chan struct{})
	select {
	case m.persistFlush <- ack:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-ack:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Manager) Close() {
	m.closeOnce.Do(func() {
		close(m.persistStop)
		m.persistWG.Wait()
	})
}

func (m *Manager) persistNow() {
	if m.stateFile == "" {
		return
	}
	m.mu.RLock()
	st := persistedState{Version: stateVersion, PlayerToGame: make(map[string]string, len(m.playerToGame))}
	for p, g := range m.playerToGame {
		st.PlayerToGame[string(p)] = string(g)
	}
	m.mu.RUnlock()

	b, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return
	}
	if err := os.MkdirAll(filepath.Dir(m.stateFile), 0o755); err != nil {
		m.log.Warn("persist game state", zap.Error(err))
		return
	}
	tmp := m.stateFile + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		m.log.Warn("persist game state", zap.Error(err))
		return
	}
	if err := os.Rename(tmp, m.stateFile); err != nil {
		m.log.Warn("persist game state", zap.Error(err))
	}
}
