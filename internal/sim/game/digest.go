package game

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"
	"sort"

	"railcraft.ai/internal/sim/cargo"
	"railcraft.ai/internal/sim/tracks"
)

type hashWriter interface {
	Write(p []byte) (n int, err error)
}

// Digest hashes the canonical game state. Two games that went through the
// same ticks produce the same digest.
func (g *Game) Digest() string {
	h := sha256.New()
	var tmp [8]byte

	digestWriteU64(h, &tmp, g.tick.Load())
	digestWriteF64(h, &tmp, g.Time())

	players := g.Players()
	digestWriteU64(h, &tmp, uint64(len(players)))
	for _, p := range players {
		h.Write([]byte(p.ID))
		h.Write([]byte{boolByte(p.AI)})
	}

	laid := g.state.AllTracks()
	digestWriteU64(h, &tmp, uint64(len(laid)))
	for _, t := range laid {
		h.Write([]byte(t.Owner))
		digestWriteI64(h, &tmp, int64(t.Tile.X))
		digestWriteI64(h, &tmp, int64(t.Tile.Z))
		h.Write([]byte{byte(t.TrackType)})
	}

	bs := g.state.Buildings()
	digestWriteU64(h, &tmp, uint64(len(bs)))
	for _, b := range bs {
		h.Write([]byte(b.ID))
		h.Write([]byte(b.Owner))
		h.Write([]byte{byte(b.Kind)})
		digestWriteI64(h, &tmp, int64(b.Coverage.NorthWest.X))
		digestWriteI64(h, &tmp, int64(b.Coverage.NorthWest.Z))
		digestWriteI64(h, &tmp, int64(b.Coverage.SouthEast.X))
		digestWriteI64(h, &tmp, int64(b.Coverage.SouthEast.Z))
		h.Write([]byte(b.Industry))
		writeCargo(h, &tmp, b.Cargo)
	}

	ts := g.Transports()
	digestWriteU64(h, &tmp, uint64(len(ts)))
	for _, t := range ts {
		h.Write([]byte(t.ID))
		h.Write([]byte(t.Owner))
		digestWriteU64(h, &tmp, uint64(len(t.Location.TilePath)))
		for _, seg := range t.Location.TilePath {
			writeTileTrack(h, &tmp, seg)
		}
		digestWriteF64(h, &tmp, t.Location.Progress)
		digestWriteF64(h, &tmp, t.Velocity)
		digestWriteU64(h, &tmp, uint64(t.Orders.Next))
		h.Write([]byte{boolByte(t.Orders.ForceStop), boolByte(t.Departing), boolByte(t.Dwelling)})
		for _, o := range t.Orders.Orders {
			h.Write([]byte(o.GoTo))
			h.Write([]byte{byte(o.Action.Unload), byte(o.Action.Load)})
		}
		h.Write([]byte{byte(t.Loading.Phase)})
		digestWriteF64(h, &tmp, t.Loading.TimeNeeded)
		digestWriteF64(h, &tmp, t.Loading.TimeSpent)
		writeCargo(h, &tmp, t.Loading.Pending)
		writeCargo(h, &tmp, t.CargoLoaded)
		digestWriteU64(h, &tmp, t.CompletedStops)
		digestWriteF64(h, &tmp, t.Odometer)
	}

	return hex.EncodeToString(h.Sum(nil))
}

func digestWriteU64(h hashWriter, tmp *[8]byte, v uint64) {
	binary.LittleEndian.PutUint64(tmp[:], v)
	h.Write(tmp[:])
}

func digestWriteI64(h hashWriter, tmp *[8]byte, v int64) {
	digestWriteU64(h, tmp, uint64(v))
}

func digestWriteF64(h hashWriter, tmp *[8]byte, v float64) {
	digestWriteU64(h, tmp, math.Float64bits(v))
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

func writeTileTrack(h hashWriter, tmp *[8]byte, t tracks.TileTrack) {
	digestWriteI64(h, tmp, int64(t.Tile.X))
	digestWriteI64(h, tmp, int64(t.Tile.Z))
	h.Write([]byte{byte(t.TrackType), byte(t.PointingIn)})
}

// writeCargo writes non-zero amounts in resource order.
func writeCargo(h hashWriter, tmp *[8]byte, m cargo.Map) {
	keys := make([]string, 0, len(m))
	for r, v := range m {
		if v != 0 {
			keys = append(keys, string(r))
		}
	}
	sort.Strings(keys)
	digestWriteU64(h, tmp, uint64(len(keys)))
	for _, k := range keys {
		h.Write([]byte(k))
		digestWriteF64(h, tmp, m[cargo.ResourceType(k)])
	}
}
