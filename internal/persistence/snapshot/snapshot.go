package snapshot

import (
	"bufio"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
)

const Version = 1

type Header struct {
	Version int    `json:"version"`
	GameID  string `json:"game_id"`
	Tick    uint64 `json:"tick"`
}

// SnapshotV1 is a full game state. It only uses plain field types so the
// encoding does not depend on simulation packages.
type SnapshotV1 struct {
	Header Header `json:"header"`

	TickRate int     `json:"tick_rate_hz"`
	GameTime float64 `json:"game_time"`

	// Operational parameters captured for resume.
	LinkDistance       int     `json:"link_distance"`
	AlreadyExistsCoef  float64 `json:"already_exists_coef"`
	SnapshotEveryTicks int     `json:"snapshot_every_ticks,omitempty"`

	Map        MapV1         `json:"map"`
	Players    []PlayerV1    `json:"players"`
	Tracks     []TrackV1     `json:"tracks"`
	Buildings  []BuildingV1  `json:"buildings"`
	Transports []TransportV1 `json:"transports"`
	Goals      []GoalV1      `json:"goals,omitempty"`

	Counters CountersV1 `json:"counters"`
}

type MapV1 struct {
	Width    int   `json:"width"`
	Depth    int   `json:"depth"`
	SeaLevel int   `json:"sea_level"`
	Heights  []int `json:"heights"`
}

type PlayerV1 struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	AI   bool   `json:"ai,omitempty"`
}

type TrackV1 struct {
	Owner     string `json:"owner"`
	X         int    `json:"x"`
	Z         int    `json:"z"`
	TrackType string `json:"track_type"`
}

type BuildingV1 struct {
	ID    string `json:"id"`
	Owner string `json:"owner"`
	Kind  string `json:"kind"`
	NW    [2]int `json:"nw"`
	SE    [2]int `json:"se"`

	Orientation string `json:"orientation,omitempty"`
	Platforms   int    `json:"platforms,omitempty"`
	Length      int    `json:"length,omitempty"`
	Industry    string `json:"industry,omitempty"`

	Cargo map[string]float64 `json:"cargo,omitempty"`
}

type TileTrackV1 struct {
	X          int    `json:"x"`
	Z          int    `json:"z"`
	TrackType  string `json:"track_type"`
	PointingIn string `json:"pointing_in"`
}

type TransportTypeV1 struct {
	Name         string   `json:"name"`
	Cars         []string `json:"cars"`
	CarCapacity  float64  `json:"car_capacity"`
	CarLength    float64  `json:"car_length"`
	EngineLength float64  `json:"engine_length"`
}

type OrderV1 struct {
	StationID string `json:"station_id"`
	Unload    uint8  `json:"unload"`
	Load      uint8  `json:"load"`
}

type LoadingV1 struct {
	Phase      uint8              `json:"phase"`
	TimeNeeded float64            `json:"time_needed"`
	TimeSpent  float64            `json:"time_spent"`
	Pending    map[string]float64 `json:"pending,omitempty"`
	Unloaded   []string           `json:"unloaded,omitempty"`
}

type TransportV1 struct {
	ID    string          `json:"id"`
	Owner string          `json:"owner"`
	Type  TransportTypeV1 `json:"type"`

	TilePath []TileTrackV1 `json:"tile_path"`
	Progress float64       `json:"progress"`
	Velocity float64       `json:"velocity"`

	Orders    []OrderV1 `json:"orders"`
	NextOrder int       `json:"next_order"`
	ForceStop bool      `json:"force_stop"`

	Loading   LoadingV1          `json:"loading"`
	Cargo     map[string]float64 `json:"cargo,omitempty"`
	Departing bool               `json:"departing,omitempty"`
	Dwelling  bool               `json:"dwelling,omitempty"`

	CompletedStops uint64  `json:"completed_stops"`
	Odometer       float64 `json:"odometer"`
}

// GoalV1 is an AI goal, stored as its kind plus the fields that kind uses.
type GoalV1 struct {
	ID        string   `json:"id"`
	Owner     string   `json:"owner"`
	Kind      string   `json:"kind"`
	Stations  []string `json:"stations,omitempty"`
	Cars      []string `json:"cars,omitempty"`
	Transport string   `json:"transport,omitempty"`
	Attempts  int      `json:"attempts,omitempty"`
	Status    string   `json:"status"`
}

type CountersV1 struct {
	NextBuilding  uint64 `json:"next_building"`
	NextTransport uint64 `json:"next_transport"`
	NextGoal      uint64 `json:"next_goal,omitempty"`
}

func WriteSnapshot(path string, snap SnapshotV1) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}

	bw := bufio.NewWriterSize(enc, 256*1024)
	hb, _ := json.Marshal(snap.Header)
	if _, err := bw.Write(hb); err != nil {
		_ = enc.Close()
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		_ = enc.Close()
		return err
	}
	if err := gob.NewEncoder(bw).Encode(&snap); err != nil {
		_ = enc.Close()
		return fmt.Errorf("gob encode: %w", err)
	}
	if err := bw.Flush(); err != nil {
		_ = enc.Close()
		return err
	}
	return enc.Close()
}

// ReadHeader reads only the JSON header line.
func ReadHeader(path string) (Header, error) {
	var h Header
	f, err := os.Open(path)
	if err != nil {
		return h, err
	}
	defer f.Close()
	dec, err := zstd.NewReader(f)
	if err != nil {
		return h, err
	}
	defer dec.Close()
	line, err := bufio.NewReader(dec).ReadBytes('\n')
	if err != nil {
		return h, fmt.Errorf("read header: %w", err)
	}
	if err := json.Unmarshal(line, &h); err != nil {
		return h, fmt.Errorf("decode header: %w", err)
	}
	return h, nil
}

func ReadSnapshot(path string) (SnapshotV1, error) {
	var snap SnapshotV1
	f, err := os.Open(path)
	if err != nil {
		return snap, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return snap, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 256*1024)

	// The header is repeated inside the gob body.
	if _, err := br.ReadBytes('\n'); err != nil {
		return snap, fmt.Errorf("read header: %w", err)
	}
	if err := gob.NewDecoder(br).Decode(&snap); err != nil {
		return snap, fmt.Errorf("gob decode: %w", err)
	}
	if snap.Header.Version != Version {
		return snap, fmt.Errorf("unsupported snapshot version %d", snap.Header.Version)
	}
	return snap, nil
}
