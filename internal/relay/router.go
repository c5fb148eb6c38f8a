package relay

import (
	"context"
	"encoding/json"
	"log/slog"
)

// Forwarder hands an event off toward a user that is not connected to this
// instance. May be nil in single-instance deployments.
type Forwarder interface {
	Forward(ctx context.Context, targetUserID, event string, payload any) error
}

// Router delivers call-signaling events to the connections of their target
// users. Targets without a local connection go through the forwarder when
// one is configured; otherwise they are skipped, offline users are not an
// error.
type Router struct {
	registry *Registry
	forward  Forwarder
	log      *slog.Logger
}

func NewRouter(registry *Registry, forward Forwarder, log *slog.Logger) *Router {
	return &Router{registry: registry, forward: forward, log: log}
}

// CallInvite pushes a callUser event to every resolved target connection.
// The full inbound payload travels wrapped in {response: ...}.
func (r *Router) CallInvite(ctx context.Context, targetUserIDs []string, payload json.RawMessage) {
	r.fanOut(ctx, targetUserIDs, EventCallUser, payload)
}

// CallAccept pushes a callAccepted event to every resolved target connection.
func (r *Router) CallAccept(ctx context.Context, targetUserIDs []string, payload json.RawMessage) {
	r.fanOut(ctx, targetUserIDs, EventCallAccepted, payload)
}

func (r *Router) fanOut(ctx context.Context, targetUserIDs []string, event string, payload json.RawMessage) {
	resp := CallResponse{Response: payload}
	for i, c := range r.registry.ResolveMany(targetUserIDs) {
		if c == nil {
			if r.forward != nil {
				if err := r.forward.Forward(ctx, targetUserIDs[i], event, resp); err != nil {
					r.log.Error("forward failed", "event", event, "target", targetUserIDs[i], "err", err)
				}
			}
			continue
		}
		if err := c.Emit(event, resp); err != nil {
			r.log.Error("emit failed", "event", event, "target", targetUserIDs[i], "err", err)
		}
	}
}

// AddToGroupChat echoes an addToGroupChat event back to the initiating
// user's own connection. The added users are not contacted; the client of
// the initiator propagates the invite.
func (r *Router) AddToGroupChat(ctx context.Context, initiatorID string, newUserIDs []string, chatID string) {
	invite := GroupInvite{NewUserIDs: newUserIDs, ChatID: chatID}
	c, ok := r.registry.Resolve(initiatorID)
	if !ok {
		if r.forward != nil {
			if err := r.forward.Forward(ctx, initiatorID, EventAddToGroupChat, invite); err != nil {
				r.log.Error("forward failed", "event", EventAddToGroupChat, "target", initiatorID, "err", err)
			}
		}
		return
	}
	if err := c.Emit(EventAddToGroupChat, invite); err != nil {
		r.log.Error("emit failed", "event", EventAddToGroupChat, "target", initiatorID, "err", err)
	}
}
