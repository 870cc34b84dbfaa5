// Package bus fans pipeline membership changes out to interested consumers
// over Redis pub/sub. The conversation router subscribes elsewhere; this
// side only publishes, and publishing is always best-effort for callers.
package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/replyhive/replyhive-backend/internal/observability"
	"github.com/replyhive/replyhive-backend/internal/platform/envutil"
	"github.com/replyhive/replyhive-backend/internal/platform/logger"
)

type EventType string

const (
	EventResponseAssigned  EventType = "pipeline.response_assigned"
	EventResponseRemoved   EventType = "pipeline.response_removed"
	EventProcessingAdded   EventType = "pipeline.processing_added"
	EventProcessingUpdated EventType = "pipeline.processing_updated"
	EventProcessingRemoved EventType = "pipeline.processing_removed"
)

// Event is one pipeline membership change. At is stamped by the publisher
// when the caller leaves it zero.
type Event struct {
	Type      EventType `json:"type"`
	AccountID uuid.UUID `json:"account_id"`
	InboxID   uuid.UUID `json:"inbox_id"`
	AgentID   uuid.UUID `json:"agent_id"`
	At        time.Time `json:"at"`
}

type Bus interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

const defaultChannel = "replyhive.pipeline"

// NewFromEnv returns a Redis-backed bus when REDIS_ADDR is set and a noop
// bus otherwise, so single-process deployments need no broker.
func NewFromEnv(log *logger.Logger) (Bus, error) {
	addr := envutil.String("REDIS_ADDR", "")
	if addr == "" {
		log.Info("REDIS_ADDR unset, pipeline events disabled")
		return NewNoopBus(), nil
	}
	return NewRedisBus(log, addr, envutil.String("REDIS_CHANNEL", defaultChannel))
}

type redisBus struct {
	log     *logger.Logger
	rdb     *redis.Client
	channel string
}

func NewRedisBus(log *logger.Logger, addr, channel string) (Bus, error) {
	if channel == "" {
		channel = defaultChannel
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &redisBus{
		log:     log.With("service", "RedisPipelineBus"),
		rdb:     rdb,
		channel: channel,
	}, nil
}

func (b *redisBus) Publish(ctx context.Context, ev Event) error {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	raw, err := json.Marshal(ev)
	if err != nil {
		observability.Current().IncEventPublished(string(ev.Type), "error")
		return err
	}
	if err := b.rdb.Publish(ctx, b.channel, raw).Err(); err != nil {
		observability.Current().IncEventPublished(string(ev.Type), "error")
		return err
	}
	observability.Current().IncEventPublished(string(ev.Type), "success")
	return nil
}

func (b *redisBus) Close() error {
	if b == nil || b.rdb == nil {
		return nil
	}
	return b.rdb.Close()
}

type noopBus struct{}

// NewNoopBus returns a bus that drops every event.
func NewNoopBus() Bus { return noopBus{} }

func (noopBus) Publish(context.Context, Event) error { return nil }

func (noopBus) Close() error { return nil }
