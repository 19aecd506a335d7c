package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"railcraft.ai/internal/persistence/indexdb"
	persistlog "railcraft.ai/internal/persistence/log"
	"railcraft.ai/internal/persistence/s3mirror"
	"railcraft.ai/internal/persistence/snapshot"
	"railcraft.ai/internal/sim/game"
	"railcraft.ai/internal/sim/multigame"
	"railcraft.ai/internal/sim/tuning"
)

type hostOptions struct {
	DataDir    string
	DisableDB  bool
	LoadLatest bool
	Snapshot   string
	Mirror     *s3mirror.Mirror // nil: keep snapshots local only
}

// hostedGame is one game plus the files and index that record it.
type hostedGame struct {
	Runtime *multigame.Runtime
	Dir     string
	Index   *indexdb.SQLiteIndex

	tickLog  *persistlog.TickLogger
	auditLog *persistlog.AuditLogger
}

func (h *hostedGame) Close() {
	_ = h.tickLog.Close()
	_ = h.auditLog.Close()
	if h.Index != nil {
		_ = h.Index.Close()
	}
}

func hostGame(ctx context.Context, spec multigame.GameSpec, tune tuning.Tuning, opts hostOptions, log *zap.Logger) (*hostedGame, error) {
	dir := filepath.Join(opts.DataDir, "games", spec.ID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	log = log.With(zap.String("game", spec.ID))
	h := &hostedGame{Dir: dir}

	if !opts.DisableDB {
		idx, err := indexdb.OpenSQLite(filepath.Join(dir, "index", "game.sqlite"))
		if err != nil {
			return nil, fmt.Errorf("open index: %w", err)
		}
		if err := idx.UpsertTuning(spec.ID, tune); err != nil {
			log.Warn("index tuning", zap.Error(err))
		}
		h.Index = idx
	}

	snapPath := opts.Snapshot
	if snapPath == "" && opts.LoadLatest {
		snapPath = latestSnapshot(ctx, dir, h.Index)
	}
	var err error
	if snapPath != "" {
		snap, rerr := snapshot.ReadSnapshot(snapPath)
		if rerr != nil {
			return nil, fmt.Errorf("read snapshot: %w", rerr)
		}
		if snap.Header.GameID != "" && snap.Header.GameID != spec.ID {
			return nil, fmt.Errorf("snapshot game id mismatch: config=%s snap=%s", spec.ID, snap.Header.GameID)
		}
		h.Runtime, err = multigame.RestoreRuntime(spec, tune, snap, log)
		if err == nil {
			log.Info("resumed from snapshot", zap.String("path", filepath.Base(snapPath)), zap.Uint64("tick", h.Runtime.Game.CurrentTick()))
		}
	} else {
		h.Runtime, err = multigame.NewRuntime(spec, tune, log)
	}
	if err != nil {
		if h.Index != nil {
			_ = h.Index.Close()
		}
		return nil, err
	}

	g := h.Runtime.Game
	h.tickLog = persistlog.NewTickLogger(dir)
	h.auditLog = persistlog.NewAuditLogger(dir)
	ticks := fanoutTickLogger{h.tickLog}
	audits := fanoutAuditLogger{h.auditLog}
	if h.Index != nil {
		ticks = append(ticks, h.Index)
		audits = append(audits, h.Index)
	}
	g.SetTickLogger(ticks)
	g.SetAuditLogger(audits)

	snapCh := make(chan snapshot.SnapshotV1, 2)
	g.SetSnapshotSink(snapCh)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case snap := <-snapCh:
				path := filepath.Join(dir, "snapshots", fmt.Sprintf("%d.snap.zst", snap.Header.Tick))
				if err := snapshot.WriteSnapshot(path, snap); err != nil {
					log.Error("snapshot write", zap.Error(err))
					continue
				}
				h.Index.RecordSnapshot(path, snap)
				opts.Mirror.Enqueue(path)
				log.Info("snapshot written", zap.Uint64("tick", snap.Header.Tick))
			}
		}
	}()
	return h, nil
}

// latestSnapshot prefers the index and falls back to scanning the snapshot
// directory.
func latestSnapshot(ctx context.Context, dir string, idx *indexdb.SQLiteIndex) string {
	if idx != nil {
		if p, _, ok, err := idx.LatestSnapshot(ctx); err == nil && ok {
			if _, err := os.Stat(p); err == nil {
				return p
			}
		}
	}
	ents, err := os.ReadDir(filepath.Join(dir, "snapshots"))
	if err != nil {
		return ""
	}
	var best string
	var bestTick uint64
	for _, e := range ents {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".snap.zst") {
			continue
		}
		tick, err := strconv.ParseUint(strings.TrimSuffix(name, ".snap.zst"), 10, 64)
		if err != nil {
			continue
		}
		if best == "" || tick > bestTick {
			best, bestTick = filepath.Join(dir, "snapshots", name), tick
		}
	}
	return best
}

type fanoutTickLogger []game.TickLogger

func (f fanoutTickLogger) WriteTick(e game.TickLogEntry) error {
	for _, l := range f {
		_ = l.WriteTick(e)
	}
	return nil
}

type fanoutAuditLogger []game.AuditLogger

func (f fanoutAuditLogger) WriteAudit(e game.AuditEntry) error {
	for _, l := range f {
		_ = l.WriteAudit(e)
	}
	return nil
}
