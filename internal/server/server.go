// Package server exposes the negotiation session over a persistent
// websocket connection carrying line-delimited JSON envelopes.
package server

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/haggle-core-poc/server/internal/negotiation"
	"github.com/haggle-core-poc/server/internal/negotiation/model"
	logx "github.com/haggle-core-poc/server/pkg/logger"
)

// Server routes inbound protocol messages to the shared session. All
// connections dispatch into the same Session; serialisation happens inside
// it, so a connection's handler never races another's.
type Server struct {
	session *negotiation.Session
}

func New(session *negotiation.Session) *Server {
	return &Server{session: session}
}

// Router builds the HTTP surface: the websocket endpoint plus a health probe.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(chiMiddleware.Recoverer)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/ws", s.handleWS)
	return r
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		logx.Error().Err(err).Str("remote", r.RemoteAddr).Msg("failed to accept websocket")
		return
	}
	logx.Info().Str("remote", r.RemoteAddr).Msg("client connected")

	defer func() {
		// Connection close is a protocol event: the history concession
		// maximum resets globally, whatever the close reason was.
		s.session.Disconnect(context.Background())
		_ = conn.Close(websocket.StatusNormalClosure, "session ended")
		logx.Info().Str("remote", r.RemoteAddr).Msg("client disconnected")
	}()

	ctx := r.Context()
	for {
		typ, data, err := conn.Read(ctx)
		if err != nil {
			return
		}
		if typ != websocket.MessageText {
			logx.Warn().Str("remote", r.RemoteAddr).Msg("non-text frame dropped")
			continue
		}

		if ack := s.Dispatch(ctx, data); ack != nil {
			if err := conn.Write(ctx, websocket.MessageText, ack); err != nil {
				logx.Error().Err(err).Str("remote", r.RemoteAddr).Msg("failed to write acknowledgement")
				return
			}
		}
	}
}

// Dispatch decodes one envelope, routes it, and returns the encoded
// acknowledgement, or nil when the message produces none. Malformed
// payloads and unknown types are logged and dropped; neither closes the
// connection.
func (s *Server) Dispatch(ctx context.Context, raw []byte) []byte {
	var env model.Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		logx.Warn().Err(err).Msg("unparsable message dropped")
		return nil
	}

	switch env.Type {
	case model.TypeEnvUpdate:
		var msg model.EnvUpdateMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			logx.Warn().Err(err).Msg("malformed env_update dropped")
			return nil
		}
		return marshalAck(s.session.ApplyEnvironment(ctx, msg))

	case model.TypeUserUtterance:
		var msg model.UtteranceMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			logx.Warn().Err(err).Msg("malformed user_utterance dropped")
			return nil
		}
		ack := s.session.Utterance(ctx, msg.Utterance)
		if ack == nil {
			return nil
		}
		return marshalAck(ack)

	case model.TypeItemSelected:
		var msg model.ItemSelectedMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			logx.Warn().Err(err).Msg("malformed item_selected dropped")
			return nil
		}
		return marshalAck(s.session.SelectItem(ctx, msg.Item))

	default:
		logx.Warn().Str("type", env.Type).Msg("unknown message type dropped")
		return nil
	}
}

func marshalAck(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		logx.Error().Err(err).Msg("failed to marshal acknowledgement")
		return nil
	}
	return b
}
