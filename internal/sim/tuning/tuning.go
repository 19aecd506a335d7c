package tuning

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Tuning struct {
	ProtocolVersion string `yaml:"protocol_version"`

	TickRateHz         int `yaml:"tick_rate_hz"`
	SnapshotEveryTicks int `yaml:"snapshot_every_ticks"`
	AIEveryTicks       int `yaml:"ai_every_ticks"`

	Map       MapTuning       `yaml:"map"`
	Planner   PlannerTuning   `yaml:"planner"`
	Stations  StationTuning   `yaml:"stations"`
	Cargo     CargoTuning     `yaml:"cargo"`
	Transport TransportTuning `yaml:"transport"`
	Log       LogTuning       `yaml:"log"`
}

type MapTuning struct {
	Width    int `yaml:"width"`
	Depth    int `yaml:"depth"`
	Height   int `yaml:"height"`
	SeaLevel int `yaml:"sea_level"`
}

type PlannerTuning struct {
	AlreadyExistsCoef float64 `yaml:"already_exists_coef"`
	WarnMs            int     `yaml:"warn_ms"`
}

type StationTuning struct {
	LinkDistance int `yaml:"link_distance"`
}

type CargoTuning struct {
	BaseSeconds         float64 `yaml:"base_seconds"`
	ThroughputPerSecond float64 `yaml:"throughput_per_second"`
	CarCapacity         float64 `yaml:"car_capacity"`
}

type TransportTuning struct {
	DefaultSpeed float64 `yaml:"default_speed"`
	CarLength    float64 `yaml:"car_length"`
	EngineLength float64 `yaml:"engine_length"`
}

type LogTuning struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

func Defaults() Tuning {
	return Tuning{
		ProtocolVersion:    "1.0",
		TickRateHz:         5,
		SnapshotEveryTicks: 3000,
		AIEveryTicks:       10,
		Map:                MapTuning{Width: 64, Depth: 64, Height: 1, SeaLevel: 0},
		Planner:            PlannerTuning{AlreadyExistsCoef: 0.8, WarnMs: 20},
		Stations:           StationTuning{LinkDistance: 4},
		Cargo:              CargoTuning{BaseSeconds: 1.0, CarCapacity: 10},
		Transport:          TransportTuning{DefaultSpeed: 2, CarLength: 0.5, EngineLength: 0.5},
		Log:                LogTuning{Level: "info", MaxSizeMB: 100, MaxBackups: 5, MaxAgeDays: 28},
	}
}

// Load reads path over Defaults, so a partial file only overrides what it
// names.
func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

func (t Tuning) Validate() error {
	var errs []error
	if t.TickRateHz <= 0 {
		errs = append(errs, fmt.Errorf("tick_rate_hz must be > 0, got %d", t.TickRateHz))
	}
	if t.Map.Width <= 0 || t.Map.Depth <= 0 {
		errs = append(errs, fmt.Errorf("map size must be > 0, got %dx%d", t.Map.Width, t.Map.Depth))
	}
	if t.Planner.AlreadyExistsCoef <= 0 {
		errs = append(errs, fmt.Errorf("planner.already_exists_coef must be > 0, got %v", t.Planner.AlreadyExistsCoef))
	}
	if t.Stations.LinkDistance < 0 {
		errs = append(errs, fmt.Errorf("stations.link_distance must be >= 0, got %d", t.Stations.LinkDistance))
	}
	if t.Cargo.BaseSeconds < 0 || t.Cargo.ThroughputPerSecond < 0 {
		errs = append(errs, errors.New("cargo timings must be >= 0"))
	}
	if t.Transport.DefaultSpeed <= 0 {
		errs = append(errs, fmt.Errorf("transport.default_speed must be > 0, got %v", t.Transport.DefaultSpeed))
	}
	return errors.Join(errs...)
}
