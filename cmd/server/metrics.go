package main

import (
	"fmt"
	"net/http"

	"railcraft.ai/internal/persistence/s3mirror"
	"railcraft.ai/internal/sim/multigame"
)

// metricsHandler writes a minimal Prometheus text exposition. It only reads
// values that are safe outside the game loop.
func metricsHandler(mgr *multigame.Manager, hosted []*hostedGame, mirror *s3mirror.Mirror) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "text/plain; version=0.0.4")
		fmt.Fprintf(rw, "# HELP railcraft_game_tick Current game tick.\n")
		fmt.Fprintf(rw, "# TYPE railcraft_game_tick gauge\n")
		for _, id := range mgr.GameIDs() {
			fmt.Fprintf(rw, "railcraft_game_tick{game=%q} %d\n", id, mgr.Runtime(id).Game.CurrentTick())
		}
		fmt.Fprintf(rw, "# HELP railcraft_game_online Connected players.\n")
		fmt.Fprintf(rw, "# TYPE railcraft_game_online gauge\n")
		for _, id := range mgr.GameIDs() {
			fmt.Fprintf(rw, "railcraft_game_online{game=%q} %d\n", id, mgr.Online(id))
		}
		fmt.Fprintf(rw, "# HELP railcraft_index_dropped_total Index writes dropped because the queue was full.\n")
		fmt.Fprintf(rw, "# TYPE railcraft_index_dropped_total counter\n")
		for _, h := range hosted {
			if h.Index == nil {
				continue
			}
			st := h.Index.Stats()
			id := h.Runtime.Game.ID()
			fmt.Fprintf(rw, "railcraft_index_dropped_total{game=%q,kind=%q} %d\n", id, "tick", st.DropTickTotal)
			fmt.Fprintf(rw, "railcraft_index_dropped_total{game=%q,kind=%q} %d\n", id, "audit", st.DropAuditTotal)
			fmt.Fprintf(rw, "railcraft_index_dropped_total{game=%q,kind=%q} %d\n", id, "force_stop", st.DropForceStopTotal)
			fmt.Fprintf(rw, "railcraft_index_dropped_total{game=%q,kind=%q} %d\n", id, "snapshot", st.DropSnapshotTotal)
		}
		if mirror != nil {
			st := mirror.Stats()
			fmt.Fprintf(rw, "# HELP railcraft_mirror_uploads_total Snapshot uploads by outcome.\n")
			fmt.Fprintf(rw, "# TYPE railcraft_mirror_uploads_total counter\n")
			fmt.Fprintf(rw, "railcraft_mirror_uploads_total{result=%q} %d\n", "ok", st.Uploaded)
			fmt.Fprintf(rw, "railcraft_mirror_uploads_total{result=%q} %d\n", "failed", st.Failed)
			fmt.Fprintf(rw, "railcraft_mirror_uploads_total{result=%q} %d\n", "dropped", st.Dropped)
			fmt.Fprintf(rw, "railcraft_mirror_queue_depth %d\n", st.QueueDepth)
		}
	}
}
