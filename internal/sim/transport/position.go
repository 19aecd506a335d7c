package transport

import (
	"railcraft.ai/internal/sim/geometry"
	"railcraft.ai/internal/sim/tracks"
)

// Point is a continuous map position in tile units.
type Point struct {
	X float64 `json:"x"`
	Z float64 `json:"z"`
}

func edgeMidpoint(t geometry.TileCoords, d geometry.Direction) Point {
	x, z := float64(t.X), float64(t.Z)
	switch d {
	case geometry.North:
		return Point{X: x + 0.5, Z: z}
	case geometry.East:
		return Point{X: x + 1, Z: z + 0.5}
	case geometry.South:
		return Point{X: x + 0.5, Z: z + 1}
	default:
		return Point{X: x, Z: z + 0.5}
	}
}

// PointOn interpolates between the entry and exit side midpoints of t.
func PointOn(t tracks.TileTrack, progress float64) Point {
	from := edgeMidpoint(t.Tile, t.EntryDirection())
	to := edgeMidpoint(t.Tile, t.PointingIn)
	return Point{
		X: from.X + (to.X-from.X)*progress,
		Z: from.Z + (to.Z-from.Z)*progress,
	}
}

// Position is where the front of the vehicle is.
func (l Location) Position() Point { return PointOn(l.Head(), l.Progress) }

const tailEpsilon = 1e-9

// MaybeFindTail finds the segment and progress a point length tiles behind
// the head sits at, measured along TilePath. When the point falls on a
// segment boundary both neighbours match; the one with the lower progress is
// returned. False when TilePath is too short.
func (l Location) MaybeFindTail(length float64) (tracks.TileTrack, float64, bool) {
	var (
		best     tracks.TileTrack
		bestProg float64
		found    bool
	)
	consider := func(t tracks.TileTrack, q float64) {
		if q < -tailEpsilon || q > 1+tailEpsilon {
			return
		}
		if q < 0 {
			q = 0
		}
		if q > 1 {
			q = 1
		}
		if !found || q < bestProg {
			best, bestProg, found = t, q, true
		}
	}

	behind := 0.0
	for i, seg := range l.TilePath {
		segLen := seg.Length().Float()
		if i == 0 {
			consider(seg, l.Progress-length/segLen)
			behind = l.Progress * segLen
			continue
		}
		consider(seg, 1-(length-behind)/segLen)
		behind += segLen
	}
	return best, bestProg, found
}
