package protocol

// Command kinds.
const (
	CmdBuildTracks       = "BUILD_TRACKS"
	CmdPlanTracks        = "PLAN_TRACKS"
	CmdBuildStation      = "BUILD_STATION"
	CmdBuildIndustry     = "BUILD_INDUSTRY"
	CmdDemolishTrack     = "DEMOLISH_TRACK"
	CmdDemolishBuilding  = "DEMOLISH_BUILDING"
	CmdPurchaseTransport = "PURCHASE_TRANSPORT"
	CmdUpdateOrders      = "UPDATE_ORDERS"
	CmdClearForceStop    = "CLEAR_FORCE_STOP"
)

// TrackRef is one track type on one tile.
type TrackRef struct {
	X         int    `json:"x"`
	Z         int    `json:"z"`
	TrackType string `json:"track_type"`
}

// EdgeRef is a tile side crossed while entering the tile at (X,Z) from From.
type EdgeRef struct {
	X    int    `json:"x"`
	Z    int    `json:"z"`
	From string `json:"from"`
}

type OrderRef struct {
	StationID string `json:"station_id"`
	NoUnload  bool   `json:"no_unload,omitempty"`
	NoLoad    bool   `json:"no_load,omitempty"`
}

// Command is the union of every player command; Kind says which fields
// are read.
type Command struct {
	Kind string `json:"kind"`

	// BUILD_TRACKS
	Tracks []TrackRef `json:"tracks,omitempty"`

	// PLAN_TRACKS
	Head  *EdgeRef  `json:"head,omitempty"`
	Tails []EdgeRef `json:"tails,omitempty"`

	// BUILD_STATION, BUILD_INDUSTRY, DEMOLISH_TRACK
	Tile      *[2]int `json:"tile,omitempty"`
	TrackType string  `json:"track_type,omitempty"`
	Platforms int     `json:"platforms,omitempty"`
	Length    int     `json:"length,omitempty"`
	Industry  string  `json:"industry,omitempty"`

	// DEMOLISH_BUILDING
	BuildingID string `json:"building_id,omitempty"`

	// PURCHASE_TRANSPORT, UPDATE_ORDERS, CLEAR_FORCE_STOP
	TransportID string     `json:"transport_id,omitempty"`
	Cars        []string   `json:"cars,omitempty"`
	Orders      []OrderRef `json:"orders,omitempty"`
	Push        *OrderRef  `json:"push,omitempty"`
	RemoveIndex *int       `json:"remove_index,omitempty"`
}

// CMD (client -> server)
type CmdMsg struct {
	Type            string  `json:"type"`
	ProtocolVersion string  `json:"protocol_version"`
	ID              string  `json:"id"`
	Cmd             Command `json:"cmd"`
}

// CMD_RESULT (server -> client)
type CmdResultMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Tick            uint64 `json:"tick"`
	ID              string `json:"id"`
	OK              bool   `json:"ok"`
	Code            string `json:"code,omitempty"`
	Message         string `json:"message,omitempty"`

	CreatedID string     `json:"created_id,omitempty"`
	Tracks    []TrackRef `json:"tracks,omitempty"`
	Cost      float64    `json:"cost,omitempty"`
}
