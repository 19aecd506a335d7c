package main

import (
	"strings"
	"testing"

	"railcraft.ai/internal/persistence/snapshot"
)

func TestDescribeListsStoppedTransports(t *testing.T) {
	snap := snapshot.SnapshotV1{
		Header:    snapshot.Header{Version: snapshot.Version, GameID: "G-1", Tick: 40},
		Buildings: []snapshot.BuildingV1{{ID: "B1", Kind: "STATION"}, {ID: "B2", Kind: "STATION"}, {ID: "B3", Kind: "INDUSTRY"}},
		Transports: []snapshot.TransportV1{
			{ID: "T2", Owner: "P-a", Orders: []snapshot.OrderV1{{StationID: "B1"}}},
			{ID: "T1", Owner: "P-a", ForceStop: true, NextOrder: 1,
				Orders:   []snapshot.OrderV1{{StationID: "B1"}, {StationID: "B2"}},
				TilePath: []snapshot.TileTrackV1{{X: 5, Z: 5, TrackType: "EW", PointingIn: "E"}}},
		},
	}
	all := describe(snap, false)
	if len(all) != 3 || !strings.Contains(all[0], "stations=2 industries=1 transports=2") {
		t.Fatalf("all=%q", all)
	}
	if !strings.HasPrefix(all[1], "T1 ") || !strings.Contains(all[1], "at=(5,5)EW>E") || !strings.Contains(all[1], "next=B2") {
		t.Fatalf("T1 line=%q", all[1])
	}
	stopped := describe(snap, true)
	if len(stopped) != 2 || !strings.Contains(stopped[1], "force_stop=true") {
		t.Fatalf("stopped=%q", stopped)
	}
}
