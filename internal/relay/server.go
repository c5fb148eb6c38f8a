package relay

import (
	"context"
	"encoding/json"
	"log/slog"

	"go-relay/internal/gateway"
)

// Server dispatches inbound events to the registry, the signal router, and
// the per-connection upload coordinators, and forwards domain events to the
// persistence gateway.
type Server struct {
	registry *Registry
	router   *Router
	gw       gateway.Gateway
	log      *slog.Logger
}

func NewServer(registry *Registry, router *Router, gw gateway.Gateway, log *slog.Logger) *Server {
	return &Server{registry: registry, router: router, gw: gw, log: log}
}

// Session is the per-connection state. A session starts anonymous; the login
// event gives it an identity and binds it in the registry. Until then events
// are still accepted with an empty sender id, the protocol has no auth gate.
type Session struct {
	conn    Conn
	userID  string
	uploads *UploadCoordinator
}

func (s *Server) NewSession(conn Conn) *Session {
	return &Session{
		conn:    conn,
		uploads: NewUploadCoordinator(s.gw, s.log),
	}
}

// Dispatch handles one inbound frame. All events within a session arrive
// from a single read loop, so session state needs no locking here. Failures
// never travel back to the client: malformed frames and persistence errors
// are logged and swallowed, and a panic in a handler is contained to the
// frame that caused it.
func (s *Server) Dispatch(ctx context.Context, sess *Session, raw []byte) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("handler panic", "conn", sess.conn.ID(), "panic", r)
		}
	}()

	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		s.log.Warn("bad frame", "conn", sess.conn.ID(), "err", err)
		return
	}

	switch env.Event {
	case EventLogin:
		var ev LoginEvent
		if err := json.Unmarshal(env.Data, &ev); err != nil {
			s.log.Warn("bad login payload", "conn", sess.conn.ID(), "err", err)
			return
		}
		sess.userID = ev.UserID
		s.registry.Bind(ev.UserID, sess.conn)
		s.log.Info("client logged in", "user", ev.UserID, "conn", sess.conn.ID())

	case EventText:
		var ev TextEvent
		if err := json.Unmarshal(env.Data, &ev); err != nil {
			s.log.Warn("bad text payload", "conn", sess.conn.ID(), "err", err)
			return
		}
		// Fire-and-forget: the sender gets no ack and no retry.
		go func(from string) {
			saveCtx := context.WithoutCancel(ctx)
			if err := s.gw.SaveTextMessage(saveCtx, ev.ChatID, from, ev.Text, ev.Type); err != nil {
				s.log.Error("text save failed", "chat", ev.ChatID, "err", err)
			}
		}(sess.userID)

	case EventAddToGroupChat:
		var ev AddToGroupChatEvent
		if err := json.Unmarshal(env.Data, &ev); err != nil {
			s.log.Warn("bad group payload", "conn", sess.conn.ID(), "err", err)
			return
		}
		s.router.AddToGroupChat(ctx, sess.userID, ev.NewUserIDs, ev.ChatID)

	case EventAudio:
		var ev AudioChunkEvent
		if err := json.Unmarshal(env.Data, &ev); err != nil {
			s.log.Warn("bad audio payload", "conn", sess.conn.ID(), "err", err)
			return
		}
		sess.uploads.HandleAudioChunk(context.WithoutCancel(ctx), ev)

	case EventDataFiles:
		var ev FileChunkEvent
		if err := json.Unmarshal(env.Data, &ev); err != nil {
			s.log.Warn("bad file payload", "conn", sess.conn.ID(), "err", err)
			return
		}
		sess.uploads.HandleFileChunk(context.WithoutCancel(ctx), ev)

	case EventCallUser:
		var ev CallEvent
		if err := json.Unmarshal(env.Data, &ev); err != nil {
			s.log.Warn("bad call payload", "conn", sess.conn.ID(), "err", err)
			return
		}
		s.router.CallInvite(ctx, ev.ChatUserIDs, env.Data)

	case EventAnswerCall:
		var ev CallEvent
		if err := json.Unmarshal(env.Data, &ev); err != nil {
			s.log.Warn("bad answer payload", "conn", sess.conn.ID(), "err", err)
			return
		}
		s.router.CallAccept(ctx, ev.ChatUserIDs, env.Data)

	default:
		s.log.Warn("unknown event", "event", env.Event, "conn", sess.conn.ID())
	}
}

// Disconnect unbinds the session's user and lets its upload state go. An
// anonymous session has nothing bound, unbinding the empty id is harmless.
func (s *Server) Disconnect(sess *Session) {
	s.registry.Unbind(sess.userID)
	s.log.Info("client disconnected", "user", sess.userID, "conn", sess.conn.ID())
}
