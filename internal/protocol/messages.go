package protocol

// HELLO (client -> server)
type HelloMsg struct {
	Type              string   `json:"type"`
	ProtocolVersion   string   `json:"protocol_version"`
	SupportedVersions []string `json:"supported_versions,omitempty"`
	PlayerName        string   `json:"player_name"`
	GamePreference    string   `json:"game_preference,omitempty"`
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string    `json:"type"`
	ProtocolVersion string    `json:"protocol_version"`
	PlayerID        string    `json:"player_id"`
	GameID          string    `json:"game_id"`
	MapParams       MapParams `json:"map_params"`
}

type MapParams struct {
	Width        int `json:"width"`
	Depth        int `json:"depth"`
	SeaLevel     int `json:"sea_level"`
	TickRateHz   int `json:"tick_rate_hz"`
	LinkDistance int `json:"link_distance"`
}
