package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"railcraft.ai/internal/persistence/snapshot"
)

func main() {
	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "db":
			dbCmd(os.Args[2:])
			return
		case "inspect":
			inspectCmd(os.Args[2:])
			return
		case "metrics":
			metricsCmd(os.Args[2:])
			return
		}
	}
	listCmd(os.Args[1:])
}

func listCmd(args []string) {
	fs := flag.NewFlagSet("admin", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	_ = fs.Parse(args)

	entries, err := os.ReadDir(filepath.Join(*dataDir, "games"))
	if err != nil {
		fmt.Fprintln(os.Stderr, "read:", err)
		os.Exit(1)
	}
	for _, e := range entries {
		if e.IsDir() {
			fmt.Println(e.Name())
		}
	}
}

// inspectCmd prints what a snapshot holds, one line per transport.
func inspectCmd(args []string) {
	fs := flag.NewFlagSet("inspect", flag.ExitOnError)
	snapPath := fs.String("snapshot", "", "path to .snap.zst")
	stoppedOnly := fs.Bool("stopped", false, "only list force-stopped transports")
	_ = fs.Parse(args)
	if *snapPath == "" {
		fmt.Fprintln(os.Stderr, "missing -snapshot")
		os.Exit(2)
	}
	snap, err := snapshot.ReadSnapshot(*snapPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read snapshot:", err)
		os.Exit(1)
	}
	for _, line := range describe(snap, *stoppedOnly) {
		fmt.Println(line)
	}
}

func describe(snap snapshot.SnapshotV1, stoppedOnly bool) []string {
	stations := 0
	for _, b := range snap.Buildings {
		if b.Kind == "STATION" {
			stations++
		}
	}
	out := []string{fmt.Sprintf("game=%s tick=%d time=%.1fs players=%d tracks=%d stations=%d industries=%d transports=%d",
		snap.Header.GameID, snap.Header.Tick, snap.GameTime, len(snap.Players), len(snap.Tracks),
		stations, len(snap.Buildings)-stations, len(snap.Transports))}

	trs := append([]snapshot.TransportV1(nil), snap.Transports...)
	sort.Slice(trs, func(i, j int) bool { return trs[i].ID < trs[j].ID })
	for _, tr := range trs {
		if stoppedOnly && !tr.ForceStop {
			continue
		}
		at := "-"
		if len(tr.TilePath) > 0 {
			h := tr.TilePath[0]
			at = fmt.Sprintf("(%d,%d)%s>%s", h.X, h.Z, h.TrackType, h.PointingIn)
		}
		next := "-"
		if tr.NextOrder < len(tr.Orders) {
			next = tr.Orders[tr.NextOrder].StationID
		}
		out = append(out, fmt.Sprintf("%s owner=%s at=%s progress=%.2f next=%s stops=%d force_stop=%v",
			tr.ID, tr.Owner, at, tr.Progress, next, tr.CompletedStops, tr.ForceStop))
	}
	return out
}
