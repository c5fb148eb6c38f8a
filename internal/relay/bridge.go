package relay

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// bridgeChannel carries targeted events between relay instances. Every
// instance publishes events for users it cannot resolve locally and delivers
// the subset of received events whose target is bound here.
const bridgeChannel = "relay-events"

type bridgeFrame struct {
	TargetUserID string          `json:"targetUserId"`
	Event        string          `json:"event"`
	Payload      json.RawMessage `json:"payload"`
}

// Bridge fans targeted events out across relay instances over Redis pub/sub.
type Bridge struct {
	rdb      *redis.Client
	registry *Registry
	log      *slog.Logger
}

func NewBridge(rdb *redis.Client, registry *Registry, log *slog.Logger) *Bridge {
	return &Bridge{rdb: rdb, registry: registry, log: log}
}

// Forward publishes an event for a user bound on some other instance.
func (b *Bridge) Forward(ctx context.Context, targetUserID, event string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	frame, err := json.Marshal(bridgeFrame{
		TargetUserID: targetUserID,
		Event:        event,
		Payload:      raw,
	})
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, bridgeChannel, frame).Err()
}

// Run consumes the bridge channel until ctx is cancelled, delivering frames
// whose target is connected to this instance. Frames for unknown users are
// dropped; some other instance owns them.
func (b *Bridge) Run(ctx context.Context) {
	pubsub := b.rdb.Subscribe(ctx, bridgeChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var frame bridgeFrame
			if err := json.Unmarshal([]byte(msg.Payload), &frame); err != nil {
				b.log.Error("bad bridge frame", "err", err)
				continue
			}
			c, ok := b.registry.Resolve(frame.TargetUserID)
			if !ok {
				continue
			}
			if err := c.Emit(frame.Event, frame.Payload); err != nil {
				b.log.Error("bridge emit failed", "event", frame.Event, "target", frame.TargetUserID, "err", err)
			}
		}
	}
}
