package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"railcraft.ai/internal/protocol"
	"railcraft.ai/internal/sim/multigame"
	"railcraft.ai/internal/sim/tuning"
)

func startServer(t *testing.T) string {
	t.Helper()
	tu := tuning.Defaults()
	tu.TickRateHz = 50
	tu.Map.Width, tu.Map.Depth = 16, 16
	rt, err := multigame.NewRuntime(multigame.GameSpec{ID: "G-ws"}, tu, nil)
	if err != nil {
		t.Fatal(err)
	}
	m, err := multigame.NewManager("G-ws", []*multigame.Runtime{rt}, "", nil)
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = m.RunAll(ctx)
		close(done)
	}()
	srv := httptest.NewServer(NewServer(m, nil).Handler())
	t.Cleanup(func() {
		srv.Close()
		cancel()
		<-done
		m.Close()
	})
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// readUntil reads messages until one of type typ arrives.
func readUntil(t *testing.T, conn *websocket.Conn, typ string) []byte {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		_, b, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read waiting for %s: %v", typ, err)
		}
		base, err := protocol.DecodeBase(b)
		if err == nil && base.Type == typ {
			return b
		}
	}
}

func TestHelloCmdResult(t *testing.T) {
	conn := dial(t, startServer(t))
	if err := conn.WriteJSON(protocol.HelloMsg{Type: protocol.TypeHello, ProtocolVersion: "0.9", SupportedVersions: []string{protocol.Version}, PlayerName: "ivy"}); err != nil {
		t.Fatal(err)
	}
	var welcome protocol.WelcomeMsg
	if err := json.Unmarshal(readUntil(t, conn, protocol.TypeWelcome), &welcome); err != nil {
		t.Fatal(err)
	}
	if welcome.GameID != "G-ws" || welcome.PlayerID == "" || welcome.MapParams.Width != 16 {
		t.Fatalf("welcome=%+v", welcome)
	}

	_ = conn.WriteJSON(protocol.CmdMsg{Type: protocol.TypeCmd, ProtocolVersion: "0.1", ID: "old"})
	var res protocol.CmdResultMsg
	if err := json.Unmarshal(readUntil(t, conn, protocol.TypeCmdResult), &res); err != nil {
		t.Fatal(err)
	}
	if res.OK || res.ID != "old" || res.Code != protocol.ErrProtoBadRequest {
		t.Fatalf("bad version result=%+v", res)
	}

	_ = conn.WriteJSON(protocol.CmdMsg{
		Type: protocol.TypeCmd, ProtocolVersion: protocol.Version, ID: "s1",
		Cmd: protocol.Command{Kind: protocol.CmdBuildStation, Tile: &[2]int{3, 3}, TrackType: "NS", Platforms: 1, Length: 2},
	})
	if err := json.Unmarshal(readUntil(t, conn, protocol.TypeCmdResult), &res); err != nil {
		t.Fatal(err)
	}
	if !res.OK || res.ID != "s1" || res.CreatedID != "B1" {
		t.Fatalf("result=%+v", res)
	}

	var obs protocol.ObsMsg
	if err := json.Unmarshal(readUntil(t, conn, protocol.TypeObs), &obs); err != nil {
		t.Fatal(err)
	}
	if obs.PlayerID != welcome.PlayerID {
		t.Fatalf("obs=%+v", obs)
	}
}

func TestHandshakeRejections(t *testing.T) {
	url := startServer(t)
	cases := []struct {
		name   string
		hello  any
		reason string
	}{
		{"not hello", protocol.CmdMsg{Type: protocol.TypeCmd}, "expected HELLO"},
		{"version", protocol.HelloMsg{Type: protocol.TypeHello, ProtocolVersion: "9.9"}, "bad protocol_version"},
		{"game", protocol.HelloMsg{Type: protocol.TypeHello, ProtocolVersion: protocol.Version, GamePreference: "G-none"}, protocol.ErrGameNotFound},
	}
	for _, tc := range cases {
		conn := dial(t, url)
		if err := conn.WriteJSON(tc.hello); err != nil {
			t.Fatal(err)
		}
		_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		_, _, err := conn.ReadMessage()
		var ce *websocket.CloseError
		if !errors.As(err, &ce) || ce.Code != websocket.ClosePolicyViolation || ce.Text != tc.reason {
			t.Fatalf("%s: err=%v", tc.name, err)
		}
	}
}
