// Package ids defines the entity identifiers shared across the simulation
// and the counters that mint them.
package ids

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
)

type (
	PlayerID    string
	BuildingID  string
	TransportID string
	GameID      string
)

// StationID names a building that is a station.
type StationID = BuildingID

const (
	buildingPrefix  = "B"
	transportPrefix = "T"
)

// NewPlayerID mints a random player id.
func NewPlayerID() PlayerID { return PlayerID("P-" + uuid.NewString()) }

// NewGameID mints a random game id.
func NewGameID() GameID { return GameID("G-" + uuid.NewString()) }

// Counters hands out sequential, deterministic entity ids.
type Counters struct {
	NextBuilding  uint64 `json:"next_building"`
	NextTransport uint64 `json:"next_transport"`
}

func (c *Counters) Building() BuildingID {
	c.NextBuilding++
	return BuildingID(buildingPrefix + strconv.FormatUint(c.NextBuilding, 10))
}

func (c *Counters) Transport() TransportID {
	c.NextTransport++
	return TransportID(transportPrefix + strconv.FormatUint(c.NextTransport, 10))
}

// Observe bumps the counters past ids loaded from elsewhere (snapshots).
func (c *Counters) Observe(id string) {
	if n, ok := ParseUintAfterPrefix(buildingPrefix, id); ok {
		c.NextBuilding = MaxU64(c.NextBuilding, n)
	}
	if n, ok := ParseUintAfterPrefix(transportPrefix, id); ok {
		c.NextTransport = MaxU64(c.NextTransport, n)
	}
}

func MaxU64(a, b uint64) uint64 {
	if a >= b {
		return a
	}
	return b
}

func ParseUintAfterPrefix(prefix, id string) (uint64, bool) {
	if !strings.HasPrefix(id, prefix) {
		return 0, false
	}
	n, err := strconv.ParseUint(id[len(prefix):], 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Less compares ids of the same kind numerically when both carry the same
// prefix, so "B10" sorts after "B9".
func Less(a, b string) bool {
	pa, na, oka := split(a)
	pb, nb, okb := split(b)
	if oka && okb && pa == pb {
		return na < nb
	}
	return a < b
}

func split(id string) (string, uint64, bool) {
	i := 0
	for i < len(id) && (id[i] < '0' || id[i] > '9') {
		i++
	}
	if i == 0 || i == len(id) {
		return "", 0, false
	}
	n, err := strconv.ParseUint(id[i:], 10, 64)
	if err != nil {
		return "", 0, false
	}
	return id[:i], n, true
}
