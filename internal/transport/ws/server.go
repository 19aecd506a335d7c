package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"railcraft.ai/internal/protocol"
	"railcraft.ai/internal/sim/multigame"
)

const (
	handshakeTimeout = 5 * time.Second
	readTimeout      = 60 * time.Second
	writeTimeout     = 5 * time.Second
	outQueue         = 32
)

// Server speaks the player protocol: HELLO then WELCOME, then CMD from the
// client and CMD_RESULT and OBS from the game.
type Server struct {
	games *multigame.Manager
	log   *zap.Logger

	upgrader websocket.Upgrader
}

func NewServer(m *multigame.Manager, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		games: m,
		log:   log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		sess, ok := s.handshake(ctx, conn)
		if !ok {
			return
		}
		defer s.games.Leave(sess)
		log := s.log.With(zap.String("game", string(sess.GameID)), zap.String("player", string(sess.PlayerID)))

		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case b := <-sess.Out:
					_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						cancel()
						_ = conn.Close()
						return
					}
				}
			}
		}()

		for {
			_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				log.Debug("connection closed", zap.Error(err))
				return
			}
			base, err := protocol.DecodeBase(msg)
			if err != nil || base.Type != protocol.TypeCmd {
				continue
			}
			var cmd protocol.CmdMsg
			if err := json.Unmarshal(msg, &cmd); err != nil {
				reject(sess.Out, "", protocol.ErrProtoBadRequest, "malformed CMD")
				continue
			}
			if cmd.ProtocolVersion != protocol.Version {
				reject(sess.Out, cmd.ID, protocol.ErrProtoBadRequest, "bad protocol_version")
				continue
			}
			if err := s.games.RouteCmd(ctx, sess, cmd); err != nil {
				log.Warn("command not queued", zap.String("cmd", cmd.ID), zap.Error(err))
				reject(sess.Out, cmd.ID, protocol.ErrGameBusy, err.Error())
			}
		}
	}
}

func (s *Server) handshake(ctx context.Context, conn *websocket.Conn) (multigame.Session, bool) {
	_ = conn.SetReadDeadline(time.Now().Add(handshakeTimeout))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return multigame.Session{}, false
	}
	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		closeWith(conn, "expected HELLO")
		return multigame.Session{}, false
	}
	var hello protocol.HelloMsg
	if err := json.Unmarshal(msg, &hello); err != nil {
		closeWith(conn, protocol.ErrProtoBadRequest)
		return multigame.Session{}, false
	}
	if !supports(hello) {
		closeWith(conn, "bad protocol_version")
		return multigame.Session{}, false
	}
	if hello.PlayerName == "" {
		hello.PlayerName = "player"
	}

	out := make(chan []byte, outQueue)
	sess, resp, err := s.games.Join(ctx, hello.PlayerName, hello.GamePreference, out)
	switch {
	case errors.Is(err, multigame.ErrGameNotFound):
		closeWith(conn, protocol.ErrGameNotFound)
		return multigame.Session{}, false
	case err != nil:
		s.log.Warn("join failed", zap.String("name", hello.PlayerName), zap.Error(err))
		closeWith(conn, protocol.ErrGameBusy)
		return multigame.Session{}, false
	}
	if err := writeJSON(conn, resp.Welcome); err != nil {
		s.games.Leave(sess)
		return multigame.Session{}, false
	}
	return sess, true
}

// supports accepts a client whose preferred or fallback versions include ours.
func supports(h protocol.HelloMsg) bool {
	if h.ProtocolVersion == protocol.Version {
		return true
	}
	for _, v := range h.SupportedVersions {
		if v == protocol.Version {
			return true
		}
	}
	return false
}

func reject(out chan []byte, id, code, message string) {
	b, err := json.Marshal(protocol.CmdResultMsg{
		Type:            protocol.TypeCmdResult,
		ProtocolVersion: protocol.Version,
		ID:              id,
		Code:            code,
		Message:         message,
	})
	if err != nil {
		return
	}
	select {
	case out <- b:
	default:
	}
}

func closeWith(conn *websocket.Conn, reason string) {
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason), time.Now().Add(time.Second))
}

func writeJSON(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteMessage(websocket.TextMessage, b)
}
