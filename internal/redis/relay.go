package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/MYC-A/MoveUp/internal/envelope"
	"github.com/MYC-A/MoveUp/internal/metrics"
	"github.com/MYC-A/MoveUp/internal/registry"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

// DefaultChannel is the Pub/Sub channel shared by all instances.
const DefaultChannel = "moveup:envelopes"

// LocalBroadcaster delivers an encoded envelope to the connections held by
// this instance. *registry.Registry implements it.
type LocalBroadcaster interface {
	Broadcast(ctx context.Context, key registry.Key, data []byte) (int, error)
}

type frame struct {
	Origin   string          `json:"origin"`
	Key      registry.Key    `json:"key"`
	Envelope json.RawMessage `json:"envelope"`
}

// Relay fans envelopes out across instances. It delivers to local connections
// first, then publishes so that every other instance delivers to its own.
type Relay struct {
	rdb     *goredis.Client
	local   LocalBroadcaster
	channel string
	origin  string
}

func NewRelay(rdb *goredis.Client, local LocalBroadcaster, channel string) *Relay {
	if channel == "" {
		channel = DefaultChannel
	}
	return &Relay{
		rdb:     rdb,
		local:   local,
		channel: channel,
		origin:  uuid.NewString(),
	}
}

// Broadcast returns the number of local connections reached. A failed publish
// is logged and counted, never returned: local delivery has already happened.
func (r *Relay) Broadcast(ctx context.Context, key registry.Key, data []byte) (int, error) {
	reached, err := r.local.Broadcast(ctx, key, data)
	if err != nil {
		return reached, err
	}

	payload, err := json.Marshal(frame{Origin: r.origin, Key: key, Envelope: data})
	if err != nil {
		return reached, fmt.Errorf("failed to marshal relay frame: %w", err)
	}

	if err := r.rdb.Publish(ctx, r.channel, payload).Err(); err != nil {
		slog.Warn("Relay publish failed, delivered locally only", "key", key, "error", err)
		metrics.RelayPublishedTotal.WithLabelValues("error").Inc()
		metrics.RelayFallbackTotal.Inc()
		return reached, nil
	}
	metrics.RelayPublishedTotal.WithLabelValues("success").Inc()
	return reached, nil
}

// Run subscribes to the relay channel and replays frames from other instances
// into the local registry until ctx is cancelled.
func (r *Relay) Run(ctx context.Context) error {
	sub := r.rdb.Subscribe(ctx, r.channel)
	defer func() { _ = sub.Close() }()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", r.channel, err)
	}

	metrics.RelaySubscriptionActive.Set(1)
	defer metrics.RelaySubscriptionActive.Set(0)
	slog.Info("Relay subscribed", "channel", r.channel, "origin", r.origin)

	msgCh := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgCh:
			if !ok {
				return nil
			}
			r.handle(ctx, msg.Payload)
		}
	}
}

func (r *Relay) handle(ctx context.Context, payload string) {
	var f frame
	if err := json.Unmarshal([]byte(payload), &f); err != nil {
		slog.Warn("Dropping malformed relay frame", "error", err)
		metrics.RelayReceivedTotal.WithLabelValues("malformed").Inc()
		return
	}
	if f.Origin == r.origin {
		metrics.RelayReceivedTotal.WithLabelValues("own").Inc()
		return
	}
	if _, err := envelope.Decode(f.Envelope); err != nil {
		slog.Warn("Dropping relay frame with invalid envelope", "key", f.Key, "error", err)
		metrics.RelayReceivedTotal.WithLabelValues("malformed").Inc()
		return
	}

	if _, err := r.local.Broadcast(ctx, f.Key, f.Envelope); err != nil {
		slog.Warn("Relay local delivery failed", "key", f.Key, "error", err)
		metrics.RelayReceivedTotal.WithLabelValues("error").Inc()
		return
	}
	metrics.RelayReceivedTotal.WithLabelValues("delivered").Inc()
}
