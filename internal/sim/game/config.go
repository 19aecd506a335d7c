package game

import (
	"time"

	"railcraft.ai/internal/sim/building"
	"railcraft.ai/internal/sim/cargo"
	"railcraft.ai/internal/sim/ids"
	"railcraft.ai/internal/sim/planner"
	"railcraft.ai/internal/sim/tuning"
)

type Config struct {
	ID         ids.GameID
	TickRateHz int

	MapWidth    int
	MapDepth    int
	MapHeight   int
	MapSeaLevel int

	LinkDistance      int
	AlreadyExistsCoef float64
	PlannerWarnAfter  time.Duration

	Timing       cargo.Timing
	CarCapacity  float64
	DefaultSpeed float64
	CarLength    float64
	EngineLength float64

	// Operational parameters. These are included in snapshots for resume.
	SnapshotEveryTicks int
}

func ConfigFromTuning(id ids.GameID, t tuning.Tuning) Config {
	return Config{
		ID:                 id,
		TickRateHz:         t.TickRateHz,
		MapWidth:           t.Map.Width,
		MapDepth:           t.Map.Depth,
		MapHeight:          t.Map.Height,
		MapSeaLevel:        t.Map.SeaLevel,
		LinkDistance:       t.Stations.LinkDistance,
		AlreadyExistsCoef:  t.Planner.AlreadyExistsCoef,
		PlannerWarnAfter:   time.Duration(t.Planner.WarnMs) * time.Millisecond,
		Timing:             cargo.Timing{BaseSeconds: t.Cargo.BaseSeconds, ThroughputPerSecond: t.Cargo.ThroughputPerSecond},
		CarCapacity:        t.Cargo.CarCapacity,
		DefaultSpeed:       t.Transport.DefaultSpeed,
		CarLength:          t.Transport.CarLength,
		EngineLength:       t.Transport.EngineLength,
		SnapshotEveryTicks: t.SnapshotEveryTicks,
	}
}

func (c *Config) applyDefaults() {
	if c.ID == "" {
		c.ID = ids.NewGameID()
	}
	if c.TickRateHz <= 0 {
		c.TickRateHz = 5
	}
	if c.MapWidth <= 0 {
		c.MapWidth = 64
	}
	if c.MapDepth <= 0 {
		c.MapDepth = 64
	}
	if c.MapHeight <= c.MapSeaLevel {
		c.MapHeight = c.MapSeaLevel + 1
	}
	if c.LinkDistance <= 0 {
		c.LinkDistance = building.DefaultLinkDistance
	}
	if c.AlreadyExistsCoef <= 0 {
		c.AlreadyExistsCoef = planner.DefaultAlreadyExistsCoef
	}
	if c.PlannerWarnAfter <= 0 {
		c.PlannerWarnAfter = planner.DefaultWarnAfter
	}
	if c.Timing == (cargo.Timing{}) {
		c.Timing = cargo.DefaultTiming()
	}
	if c.CarCapacity <= 0 {
		c.CarCapacity = 10
	}
	if c.DefaultSpeed <= 0 {
		c.DefaultSpeed = 2
	}
	if c.CarLength <= 0 {
		c.CarLength = 0.5
	}
	if c.EngineLength <= 0 {
		c.EngineLength = 0.5
	}
}

// TickSeconds is the simulated time one tick advances.
func (c Config) TickSeconds() float64 { return 1 / float64(c.TickRateHz) }
