package protocol

// OBS (server -> client), pushed once per tick.
type ObsMsg struct {
	Type            string         `json:"type"`
	ProtocolVersion string         `json:"protocol_version"`
	Tick            uint64         `json:"tick"`
	GameTime        float64        `json:"game_time"`
	PlayerID        string         `json:"player_id"`
	Transports      []TransportObs `json:"transports"`
	Events          []EventObs     `json:"events"`
}

type TransportObs struct {
	ID             string             `json:"id"`
	Owner          string             `json:"owner"`
	Tile           [2]int             `json:"tile"`
	TrackType      string             `json:"track_type"`
	PointingIn     string             `json:"pointing_in"`
	Progress       float64            `json:"progress"`
	Velocity       float64            `json:"velocity"`
	ForceStop      bool               `json:"force_stop"`
	OrderIndex     int                `json:"order_index"`
	Loading        string             `json:"loading"`
	Cargo          map[string]float64 `json:"cargo,omitempty"`
	CompletedStops uint64             `json:"completed_stops"`
}

// Event kinds.
const (
	EventForceStop     = "FORCE_STOP"
	EventStopCompleted = "STOP_COMPLETED"
)

type EventObs struct {
	Kind        string `json:"kind"`
	TransportID string `json:"transport_id"`
	StationID   string `json:"station_id,omitempty"`
	Reason      string `json:"reason,omitempty"`
}
