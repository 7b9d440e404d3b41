package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const relayChannelPrefix = "chat:room:"

// relayEnvelope travels over Redis pub/sub between API nodes. Node identifies
// the publisher so it can drop its own messages on receipt.
type relayEnvelope struct {
	Node    string          `json:"node"`
	Room    string          `json:"room"`
	Payload json.RawMessage `json:"payload"`
}

// Relay forwards room broadcasts to peer API nodes over Redis pub/sub, so
// room members connected elsewhere still receive them. Local delivery stays
// the Router's job; the relay only handles the cross-node leg.
type Relay struct {
	client *redis.Client
	router *Router
	nodeID string
	log    *zap.Logger
}

// NewRelay constructs a Relay bound to the given Redis client and room router.
func NewRelay(client *redis.Client, router *Router, log *zap.Logger) *Relay {
	return &Relay{
		client: client,
		router: router,
		nodeID: uuid.NewString(),
		log:    log,
	}
}

// Publish sends payload for roomName to peer nodes. Best effort: callers
// treat a publish failure as a delivery gap, not a request failure.
func (r *Relay) Publish(ctx context.Context, roomName string, payload []byte) error {
	env := relayEnvelope{Node: r.nodeID, Room: roomName, Payload: payload}
	b, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("relay: encode envelope: %w", err)
	}
	return r.client.Publish(ctx, relayChannelPrefix+roomName, b).Err()
}

// Run subscribes to all room channels and re-broadcasts foreign envelopes to
// local room members. It blocks until ctx is canceled.
func (r *Relay) Run(ctx context.Context) error {
	sub := r.client.PSubscribe(ctx, relayChannelPrefix+"*")
	defer func() { _ = sub.Close() }()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			r.handle(msg)
		}
	}
}

func (r *Relay) handle(msg *redis.Message) {
	var env relayEnvelope
	if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
		r.log.Warn("relay: dropping malformed envelope", zap.String("channel", msg.Channel), zap.Error(err))
		return
	}
	if env.Node == r.nodeID {
		return
	}
	room := env.Room
	if room == "" {
		room = strings.TrimPrefix(msg.Channel, relayChannelPrefix)
	}
	delivered := r.router.Broadcast(room, env.Payload)
	r.log.Debug("relay: rebroadcast", zap.String("room", room), zap.Int("delivered", delivered))
}
