package indexdb

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"railcraft.ai/internal/persistence/snapshot"
	"railcraft.ai/internal/sim/game"
	"railcraft.ai/internal/sim/tuning"
)

// SQLiteIndex is a queryable secondary index over the tick log, audit log,
// force-stops and snapshots of one game. Writes are queued and applied by a
// single goroutine; the JSONL logs stay the source of truth.
type SQLiteIndex struct {
	db *sql.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool

	dropTick      atomic.Uint64
	dropAudit     atomic.Uint64
	dropForceStop atomic.Uint64
	dropSnapshot  atomic.Uint64
}

type reqKind int

const (
	reqTick reqKind = iota + 1
	reqAudit
	reqForceStop
	reqSnapshot
	reqFlush
)

type req struct {
	kind reqKind

	tick      game.TickLogEntry
	audit     game.AuditEntry
	forceStop forceStopRow
	snapshot  snapshotRow
	ack       chan struct{}
}

type forceStopRow struct {
	Tick uint64
	game.RecordedForceStop
}

type snapshotRow struct {
	Tick       uint64
	Path       string
	GameTime   float64
	Players    int
	Tracks     int
	Buildings  int
	Transports int
	Stopped    int
}

// Stats reports queue use and requests dropped because the writer fell behind.
type Stats struct {
	QueueDepth         int
	QueueCapacity      int
	DropTickTotal      uint64
	DropAuditTotal     uint64
	DropForceStopTotal uint64
	DropSnapshotTotal  uint64
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteIndex{
		db: db,
		ch: make(chan req, 65536),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS config (
			name TEXT PRIMARY KEY,
			digest TEXT NOT NULL,
			json TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS ticks (
			tick INTEGER PRIMARY KEY,
			digest TEXT NOT NULL,
			joins INTEGER NOT NULL,
			leaves INTEGER NOT NULL,
			commands INTEGER NOT NULL,
			force_stops INTEGER NOT NULL,
			raw_json TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS commands (
			tick INTEGER NOT NULL,
			seq INTEGER NOT NULL,
			player_id TEXT NOT NULL,
			cmd_id TEXT NOT NULL,
			kind TEXT NOT NULL,
			cmd_json TEXT NOT NULL,
			PRIMARY KEY (tick, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_commands_player_tick ON commands(player_id, tick);`,
		`CREATE TABLE IF NOT EXISTS audits (
			tick INTEGER NOT NULL,
			seq INTEGER NOT NULL,
			actor TEXT NOT NULL,
			action TEXT NOT NULL,
			target TEXT,
			reason TEXT,
			raw_json TEXT NOT NULL,
			PRIMARY KEY (tick, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_audits_actor_tick ON audits(actor, tick);`,
		`CREATE TABLE IF NOT EXISTS force_stops (
			tick INTEGER NOT NULL,
			transport_id TEXT NOT NULL,
			owner TEXT NOT NULL,
			x INTEGER NOT NULL,
			z INTEGER NOT NULL,
			station_id TEXT,
			PRIMARY KEY (tick, transport_id)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_force_stops_transport ON force_stops(transport_id, tick);`,
		`CREATE TABLE IF NOT EXISTS snapshots (
			tick INTEGER PRIMARY KEY,
			path TEXT NOT NULL,
			game_time REAL NOT NULL,
			players INTEGER NOT NULL,
			tracks INTEGER NOT NULL,
			buildings INTEGER NOT NULL,
			transports INTEGER NOT NULL,
			stopped INTEGER NOT NULL
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

func (s *SQLiteIndex) Stats() Stats {
	return Stats{
		QueueDepth:         len(s.ch),
		QueueCapacity:      cap(s.ch),
		DropTickTotal:      s.dropTick.Load(),
		DropAuditTotal:     s.dropAudit.Load(),
		DropForceStopTotal: s.dropForceStop.Load(),
		DropSnapshotTotal:  s.dropSnapshot.Load(),
	}
}

func (s *SQLiteIndex) enqueue(r req, drops *atomic.Uint64) {
	if s == nil || s.closed.Load() {
		return
	}
	select {
	case s.ch <- r:
	default:
		drops.Add(1)
	}
}

// WriteTick indexes a tick entry and its force-stops. It never blocks the
// game loop.
func (s *SQLiteIndex) WriteTick(entry game.TickLogEntry) error {
	if s == nil {
		return nil
	}
	s.enqueue(req{kind: reqTick, tick: entry}, &s.dropTick)
	for _, fs := range entry.ForceStops {
		s.RecordForceStop(entry.Tick, fs)
	}
	return nil
}

func (s *SQLiteIndex) WriteAudit(entry game.AuditEntry) error {
	if s == nil {
		return nil
	}
	s.enqueue(req{kind: reqAudit, audit: entry}, &s.dropAudit)
	return nil
}

func (s *SQLiteIndex) RecordForceStop(tick uint64, fs game.RecordedForceStop) {
	if s == nil {
		return
	}
	s.enqueue(req{kind: reqForceStop, forceStop: forceStopRow{Tick: tick, RecordedForceStop: fs}}, &s.dropForceStop)
}

func (s *SQLiteIndex) RecordSnapshot(path string, snap snapshot.SnapshotV1) {
	if s == nil {
		return
	}
	r := snapshotRow{
		Tick:       snap.Header.Tick,
		Path:       path,
		GameTime:   snap.GameTime,
		Players:    len(snap.Players),
		Tracks:     len(snap.Tracks),
		Buildings:  len(snap.Buildings),
		Transports: len(snap.Transports),
	}
	for _, tr := range snap.Transports {
		if tr.ForceStop {
			r.Stopped++
		}
	}
	s.enqueue(req{kind: reqSnapshot, snapshot: r}, &s.dropSnapshot)
}

// Flush waits until everything queued so far is committed.
func (s *SQLiteIndex) Flush(ctx context.Context) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	ack := make(chan struct{})
	select {
	case s.ch <- req{kind: reqFlush, ack: ack}:
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

// UpsertTuning stores the tuning values the game actually runs with.
func (s *SQLiteIndex) UpsertTuning(gameID string, tune tuning.Tuning) error {
	if s == nil {
		return nil
	}
	b, err := json.Marshal(tune)
	if err != nil {
		return err
	}
	sum := sha256.Sum256(b)
	now := time.Now().UTC().Format(time.RFC3339Nano)

	tx, err := s.db.BeginTx(context.Background(), nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.Exec(`INSERT OR REPLACE INTO meta(key,value) VALUES('schema_version','1'),('game_id',?)`, gameID); err != nil {
		return err
	}
	if _, err := tx.Exec(`INSERT OR REPLACE INTO config(name,digest,json,updated_at) VALUES('tuning',?,?,?)`, hex.EncodeToString(sum[:]), string(b), now); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLiteIndex) loop() {
	ctx := context.Background()

	insertTick, _ := s.db.Prepare(`INSERT OR REPLACE INTO ticks(tick,digest,joins,leaves,commands,force_stops,raw_json) VALUES(?,?,?,?,?,?,?)`)
	insertCmd, _ := s.db.Prepare(`INSERT OR REPLACE INTO commands(tick,seq,player_id,cmd_id,kind,cmd_json) VALUES(?,?,?,?,?,?)`)
	insertAudit, _ := s.db.Prepare(`INSERT OR REPLACE INTO audits(tick,seq,actor,action,target,reason,raw_json) VALUES(?,?,?,?,?,?,?)`)
	insertForceStop, _ := s.db.Prepare(`INSERT OR REPLACE INTO force_stops(tick,transport_id,owner,x,z,station_id) VALUES(?,?,?,?,?,?)`)
	insertSnapshot, _ := s.db.Prepare(`INSERT OR REPLACE INTO snapshots(tick,path,game_time,players,tracks,buildings,transports,stopped) VALUES(?,?,?,?,?,?,?,?)`)
	stmts := []*sql.Stmt{insertTick, insertCmd, insertAudit, insertForceStop, insertSnapshot}
	defer func() {
		for _, st := range stmts {
			if st != nil {
				_ = st.Close()
			}
		}
	}()

	var (
		tx          *sql.Tx
		opCount     int
		commitEvery = 2000

		lastAuditTick uint64
		auditSeq      int
	)

	begin := func() {
		if tx != nil {
			return
		}
		txx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			time.Sleep(50 * time.Millisecond)
			return
		}
		tx = txx
		opCount = 0
	}
	commit := func() {
		if tx == nil {
			return
		}
		_ = tx.Commit()
		tx = nil
		opCount = 0
	}
	rollback := func() {
		if tx == nil {
			return
		}
		_ = tx.Rollback()
		tx = nil
		opCount = 0
	}
	exec := func(st *sql.Stmt, args ...any) bool {
		if st == nil || tx == nil {
			return false
		}
		if _, err := tx.Stmt(st).Exec(args...); err != nil {
			rollback()
			return false
		}
		opCount++
		return true
	}

	// Commits also happen on a timer so readers never wait on an idle writer.
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		var r req
		select {
		case rr, ok := <-s.ch:
			if !ok {
				commit()
				return
			}
			r = rr
		case <-ticker.C:
			commit()
			continue
		}

		if r.kind == reqFlush {
			commit()
			close(r.ack)
			continue
		}
		begin()
		if tx == nil {
			continue
		}
		switch r.kind {
		case reqTick:
			e := r.tick
			raw, _ := json.Marshal(e)
			if !exec(insertTick, int64(e.Tick), e.Digest, len(e.Joins), len(e.Leaves), len(e.Commands), len(e.ForceStops), string(raw)) {
				continue
			}
			for i, c := range e.Commands {
				cmdJSON, _ := json.Marshal(c.Cmd)
				if !exec(insertCmd, int64(e.Tick), i, c.PlayerID, c.ID, c.Cmd.Kind, string(cmdJSON)) {
					break
				}
			}

		case reqAudit:
			a := r.audit
			if a.Tick != lastAuditTick {
				lastAuditTick = a.Tick
				auditSeq = 0
			}
			seq := auditSeq
			auditSeq++
			raw, _ := json.Marshal(a)
			exec(insertAudit, int64(a.Tick), seq, a.Actor, a.Action, a.Target, a.Reason, string(raw))

		case reqForceStop:
			f := r.forceStop
			exec(insertForceStop, int64(f.Tick), f.TransportID, f.Owner, f.Tile[0], f.Tile[1], f.StationID)

		case reqSnapshot:
			sn := r.snapshot
			exec(insertSnapshot, int64(sn.Tick), sn.Path, sn.GameTime, sn.Players, sn.Tracks, sn.Buildings, sn.Transports, sn.Stopped)
		}
		if opCount >= commitEvery {
			commit()
		}
	}
}
