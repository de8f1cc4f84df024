package notification

import (
	"context"
	"encoding/json"
	"time"

	"prospectai_backend/internal/notification/sse"
	"prospectai_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RelayChannel is the Redis channel carrying SSE pushes from worker
// processes to the API processes holding the client connections.
const RelayChannel = "prospectai:sse"

const relayPublishTimeout = 2 * time.Second

// Pusher delivers SSE events. *sse.Service delivers to connections of this
// process; *RedisRelay forwards to other processes.
type Pusher interface {
	Publish(orgID, userID uuid.UUID, event sse.Event)
	PublishToOrganization(orgID uuid.UUID, event sse.Event)
}

var (
	_ Pusher = (*sse.Service)(nil)
	_ Pusher = (*RedisRelay)(nil)
)

// relayMessage is one SSE push on the wire. A nil UserID addresses the
// whole organization.
type relayMessage struct {
	TenantID uuid.UUID `json:"tenantId"`
	UserID   uuid.UUID `json:"userId"`
	Event    sse.Event `json:"event"`
}

// RedisRelay publishes SSE pushes on RelayChannel and replays the channel
// into a local Pusher.
type RedisRelay struct {
	client redis.UniversalClient
	log    *logger.Logger
}

// NewRedisRelay creates a relay on client.
func NewRedisRelay(client redis.UniversalClient, log *logger.Logger) *RedisRelay {
	return &RedisRelay{client: client, log: log}
}

// Publish forwards a push for one user.
func (r *RedisRelay) Publish(orgID, userID uuid.UUID, event sse.Event) {
	r.send(relayMessage{TenantID: orgID, UserID: userID, Event: event})
}

// PublishToOrganization forwards a push for every member of an org.
func (r *RedisRelay) PublishToOrganization(orgID uuid.UUID, event sse.Event) {
	r.send(relayMessage{TenantID: orgID, Event: event})
}

func (r *RedisRelay) send(msg relayMessage) {
	raw, err := json.Marshal(msg)
	if err != nil {
		r.log.Warn("failed to encode sse relay message", "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), relayPublishTimeout)
	defer cancel()
	if err := r.client.Publish(ctx, RelayChannel, raw).Err(); err != nil {
		r.log.Warn("failed to relay sse event", "type", string(msg.Event.Type), "error", err)
	}
}

// Forward subscribes to RelayChannel and hands every message to local until
// ctx is done.
func (r *RedisRelay) Forward(ctx context.Context, local Pusher) error {
	sub := r.client.Subscribe(ctx, RelayChannel)
	defer func() { _ = sub.Close() }()

	if _, err := sub.Receive(ctx); err != nil {
		return err
	}

	messages := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case m, ok := <-messages:
			if !ok {
				return nil
			}
			var msg relayMessage
			if err := json.Unmarshal([]byte(m.Payload), &msg); err != nil {
				r.log.Warn("dropping malformed sse relay message", "error", err)
				continue
			}
			if msg.UserID == uuid.Nil {
				local.PublishToOrganization(msg.TenantID, msg.Event)
			} else {
				local.Publish(msg.TenantID, msg.UserID, msg.Event)
			}
		}
	}
}
