package tracks

import (
	"math"
	"testing"

	"railcraft.ai/internal/sim/geometry"
)

func TestConnectionsMatchOtherEnd(t *testing.T) {
	for _, tt := range All() {
		conns := tt.ConnectionsClockwise()
		if conns[0] == conns[1] {
			t.Fatalf("%s: duplicate connections %v", tt, conns)
		}
		defined := 0
		for _, d := range geometry.AllDirections() {
			other, ok := tt.OtherEnd(d)
			if !ok {
				continue
			}
			defined++
			if d != conns[0] && d != conns[1] {
				t.Fatalf("%s: OtherEnd defined for non-connector %s", tt, d)
			}
			if other == d {
				t.Fatalf("%s: OtherEnd(%s) returned the same side", tt, d)
			}
		}
		if defined != 2 {
			t.Fatalf("%s: OtherEnd defined for %d directions", tt, defined)
		}
	}
}

func TestLengths(t *testing.T) {
	if NorthSouth.Length() != 1 || EastWest.Length() != 1 {
		t.Fatalf("straight length mismatch")
	}
	want := math.Sqrt2 / 2
	for _, tt := range []TrackType{NorthEast, NorthWest, SouthEast, SouthWest} {
		if math.Abs(tt.Length().Float()-want) > 1e-12 {
			t.Fatalf("%s length=%v", tt, tt.Length())
		}
	}
}

func TestParseRoundTrip(t *testing.T) {
	for _, tt := range All() {
		got, err := ParseTrackType(tt.String())
		if err != nil || got != tt {
			t.Fatalf("parse %s: got=%v err=%v", tt, got, err)
		}
	}
	if _, err := ParseTrackType("XX"); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestTileTrackExitEntrance(t *testing.T) {
	tt := TileTrack{Tile: geometry.Tile(2, 2), TrackType: NorthEast, PointingIn: geometry.East}
	if tt.NextTileCoords() != geometry.Tile(3, 2) {
		t.Fatalf("next=%s", tt.NextTileCoords())
	}
	if tt.EntryDirection() != geometry.North {
		t.Fatalf("entry=%s", tt.EntryDirection())
	}
	exit := ExitFrom(tt)
	if exit.IntoTile != geometry.Tile(3, 2) || exit.FromDirection != geometry.West {
		t.Fatalf("exit=%v", exit)
	}
	in := EntranceTo(tt)
	if in.IntoTile != geometry.Tile(2, 2) || in.FromDirection != geometry.North {
		t.Fatalf("entrance=%v", in)
	}
	if r := tt.Reversed(); r.PointingIn != geometry.North || r.Reversed() != tt {
		t.Fatalf("reversed=%v", r)
	}
}

func TestEnteredAndExitingVia(t *testing.T) {
	e := geometry.NewDirectionalEdge(geometry.Tile(0, 0), geometry.West)
	for _, tt := range TracksEnteredVia(e) {
		if EntranceTo(tt) != e {
			t.Fatalf("%v not entered via %v", tt, e)
		}
	}
	if n := len(TracksEnteredVia(e)); n != 3 {
		t.Fatalf("entered via count=%d", n)
	}
	for _, tt := range TracksExitingVia(e) {
		if ExitFrom(tt) != e {
			t.Fatalf("%v does not exit via %v", tt, e)
		}
	}
}

func TestTileTracksFromEdge(t *testing.T) {
	edge := geometry.EdgeFromTileAndDirection(geometry.Tile(1, 1), geometry.East)
	starts := TileTracksFromEdge(edge, RoleStart)
	finishes := TileTracksFromEdge(edge, RoleFinish)
	if len(starts) != 6 || len(finishes) != 6 {
		t.Fatalf("starts=%d finishes=%d", len(starts), len(finishes))
	}
	for _, s := range starts {
		if EntranceTo(s).Edge() != edge {
			t.Fatalf("start %v not on edge", s)
		}
	}
	for _, f := range finishes {
		if ExitFrom(f).Edge() != edge {
			t.Fatalf("finish %v not on edge", f)
		}
	}
}

func TestTypesWithConnection(t *testing.T) {
	for _, d := range geometry.AllDirections() {
		got := TypesWithConnection(d)
		if len(got) != 3 {
			t.Fatalf("%s: %v", d, got)
		}
		for i, tt := range got {
			if !tt.Connects(d) {
				t.Fatalf("%s: %s lacks the side", d, tt)
			}
			if i > 0 && got[i-1] >= tt {
				t.Fatalf("%s: not in catalog order %v", d, got)
			}
		}
	}
	if got := TypesWithConnection(geometry.Direction(9)); got != nil {
		t.Fatalf("bad direction=%v", got)
	}
}

func TestSuccessors(t *testing.T) {
	from := TileTrack{Tile: geometry.Tile(3, 3), TrackType: EastWest, PointingIn: geometry.East}
	all := Successors(from, TypesWithConnection(geometry.West))
	want := []TileTrack{
		{Tile: geometry.Tile(4, 3), TrackType: EastWest, PointingIn: geometry.East},
		{Tile: geometry.Tile(4, 3), TrackType: NorthWest, PointingIn: geometry.North},
		{Tile: geometry.Tile(4, 3), TrackType: SouthWest, PointingIn: geometry.South},
	}
	if len(all) != len(want) {
		t.Fatalf("successors=%v", all)
	}
	for i := range want {
		if all[i] != want[i] {
			t.Fatalf("successor %d=%v want %v", i, all[i], want[i])
		}
	}
	if got := Successors(from, []TrackType{NorthSouth, SouthWest}); len(got) != 1 || got[0].TrackType != SouthWest {
		t.Fatalf("filtered=%v", got)
	}
}
