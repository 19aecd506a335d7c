package protocol_test

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"railcraft.ai/internal/protocol"
)

func compile(t *testing.T, name string) *jsonschema.Schema {
	t.Helper()
	p := filepath.Join("..", "..", "schemas", name)
	s, err := jsonschema.Compile(p)
	if err != nil {
		t.Fatalf("compile %s: %v", name, err)
	}
	return s
}

func validate(t *testing.T, s *jsonschema.Schema, v any) {
	t.Helper()
	if err := s.Validate(v); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

// roundTrip converts a Go message into the generic form the validator takes.
func roundTrip(t *testing.T, msg any) any {
	t.Helper()
	b, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return v
}

func TestSchemas_ValidateSamples(t *testing.T) {
	helloSchema := compile(t, "hello.schema.json")
	welcomeSchema := compile(t, "welcome.schema.json")
	cmdSchema := compile(t, "cmd.schema.json")
	resultSchema := compile(t, "cmd_result.schema.json")
	obsSchema := compile(t, "obs.schema.json")

	var hello any
	_ = json.Unmarshal([]byte(`{
	  "type":"HELLO",
	  "protocol_version":"1.0",
	  "player_name":"alice"
	}`), &hello)
	validate(t, helloSchema, hello)

	var cmd any
	_ = json.Unmarshal([]byte(`{
	  "type":"CMD",
	  "protocol_version":"1.0",
	  "id":"c1",
	  "cmd":{"kind":"PLAN_TRACKS","head":{"x":1,"z":5,"from":"W"},"tails":[{"x":9,"z":5,"from":"E"}]}
	}`), &cmd)
	validate(t, cmdSchema, cmd)

	var bad any
	_ = json.Unmarshal([]byte(`{"type":"CMD","protocol_version":"1.0","id":"c2","cmd":{"kind":"TELEPORT"}}`), &bad)
	if err := cmdSchema.Validate(bad); err == nil {
		t.Fatalf("unknown command kind accepted")
	}

	validate(t, welcomeSchema, roundTrip(t, protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		PlayerID:        "P-1",
		GameID:          "G-1",
		MapParams:       protocol.MapParams{Width: 64, Depth: 64, TickRateHz: 5, LinkDistance: 4},
	}))

	validate(t, resultSchema, roundTrip(t, protocol.CmdResultMsg{
		Type:            protocol.TypeCmdResult,
		ProtocolVersion: protocol.Version,
		Tick:            3,
		ID:              "c1",
		Code:            protocol.ErrNoRoute,
		Message:         "no route",
	}))

	validate(t, obsSchema, roundTrip(t, protocol.ObsMsg{
		Type:            protocol.TypeObs,
		ProtocolVersion: protocol.Version,
		Tick:            7,
		GameTime:        1.4,
		PlayerID:        "P-1",
		Transports: []protocol.TransportObs{{
			ID: "T1", Owner: "P-1", Tile: [2]int{4, 5}, TrackType: "EW", PointingIn: "E",
			Progress: 0.25, Velocity: 2, Loading: "NOT_STARTED", Cargo: map[string]float64{"COAL": 10},
		}},
		Events: []protocol.EventObs{{Kind: protocol.EventForceStop, TransportID: "T1", Reason: "no route"}},
	}))
}
