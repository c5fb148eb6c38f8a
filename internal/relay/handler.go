package relay

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true // tighten before exposing publicly
	},
}

// Handler upgrades HTTP requests to websocket connections and hands each one
// to the relay server.
type Handler struct {
	server *Server
	log    *slog.Logger
}

func NewHandler(server *Server, log *slog.Logger) *Handler {
	return &Handler{server: server, log: log}
}

func (h *Handler) ServeWs(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error("ws upgrade failed", "err", err)
		return
	}

	client := &Client{
		id:     uuid.NewString(),
		ctx:    context.WithoutCancel(r.Context()),
		server: h.server,
		conn:   conn,
		send:   make(chan []byte, 256),
		done:   make(chan struct{}),
		log:    h.log,
	}
	sess := h.server.NewSession(client)
	h.log.Info("client connected", "conn", client.id, "remote", r.RemoteAddr)

	go client.writePump()
	go client.readPump(sess)
}
