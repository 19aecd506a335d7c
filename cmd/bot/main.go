package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"railcraft.ai/internal/logging"
	"railcraft.ai/internal/protocol"
)

func main() {
	var (
		url      = flag.String("url", "ws://localhost:8080/v1/ws", "ws url")
		name     = flag.String("name", "bot", "player name")
		game     = flag.String("game", "", "preferred game id")
		x        = flag.Int("x", 2, "west station tile x")
		z        = flag.Int("z", 5, "station row z")
		span     = flag.Int("span", 7, "distance between the two stations")
		cars     = flag.String("cars", "COAL", "comma separated car cargo")
		logLevel = flag.String("log_level", "info", "log level")
	)
	flag.Parse()

	logger, err := logging.New(logging.Config{Level: *logLevel})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	defer func() { _ = logger.Sync() }()
	logger = logger.Named("bot")

	conn, _, err := websocket.DefaultDialer.Dial(*url, nil)
	if err != nil {
		logger.Fatal("dial", zap.Error(err))
	}
	defer conn.Close()

	hello := protocol.HelloMsg{
		Type:            protocol.TypeHello,
		ProtocolVersion: protocol.Version,
		PlayerName:      *name,
		GamePreference:  *game,
	}
	if err := conn.WriteJSON(hello); err != nil {
		logger.Fatal("send HELLO", zap.Error(err))
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	go func() {
		<-stop
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"))
		_ = conn.Close()
	}()

	sc := newScript(*x, *z, *span, splitCars(*cars))
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			logger.Info("disconnected", zap.Error(err))
			return
		}
		base, err := protocol.DecodeBase(msg)
		if err != nil {
			continue
		}
		switch base.Type {
		case protocol.TypeWelcome:
			var w protocol.WelcomeMsg
			if err := json.Unmarshal(msg, &w); err != nil {
				continue
			}
			logger.Info("WELCOME",
				zap.String("player_id", w.PlayerID),
				zap.String("game_id", w.GameID),
				zap.Int("width", w.MapParams.Width),
				zap.Int("depth", w.MapParams.Depth),
				zap.Int("tick_rate", w.MapParams.TickRateHz))
			send(conn, logger, sc)

		case protocol.TypeCmdResult:
			var r protocol.CmdResultMsg
			if err := json.Unmarshal(msg, &r); err != nil {
				continue
			}
			if !r.OK {
				logger.Warn("command rejected", zap.String("id", r.ID), zap.String("code", r.Code), zap.String("message", r.Message))
				continue
			}
			logger.Info("command ok", zap.String("id", r.ID), zap.String("created", r.CreatedID), zap.Int("tracks", len(r.Tracks)), zap.Float64("cost", r.Cost))
			sc.record(r)
			send(conn, logger, sc)

		case protocol.TypeObs:
			var obs protocol.ObsMsg
			if err := json.Unmarshal(msg, &obs); err != nil {
				continue
			}
			for _, ev := range obs.Events {
				logEvent(logger, obs.Tick, ev)
			}
		}
	}
}

func send(conn *websocket.Conn, logger *zap.Logger, sc *script) {
	m, ok := sc.next()
	if !ok {
		return
	}
	logger.Debug("send", zap.String("id", m.ID), zap.String("kind", m.Cmd.Kind))
	if err := conn.WriteJSON(m); err != nil {
		logger.Error("send CMD", zap.Error(err))
	}
}

func logEvent(logger *zap.Logger, tick uint64, ev protocol.EventObs) {
	fields := []zap.Field{zap.Uint64("tick", tick), zap.String("transport", ev.TransportID)}
	if ev.StationID != "" {
		fields = append(fields, zap.String("station", ev.StationID))
	}
	switch ev.Kind {
	case protocol.EventForceStop:
		logger.Warn("transport stopped", append(fields, zap.String("reason", ev.Reason))...)
	default:
		logger.Info(ev.Kind, fields...)
	}
}
