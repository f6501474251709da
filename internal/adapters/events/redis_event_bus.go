package events

import (
	"context"
	"errors"
	"fmt"
	"sync"

	json "github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"github.com/rihla-rentals/backend/internal/domain/entities"
	"github.com/rihla-rentals/backend/internal/domain/providers"
	redisclient "github.com/rihla-rentals/backend/internal/infrastructure/clients/redis"
	"github.com/rihla-rentals/backend/internal/infrastructure/observability"
	apperrors "github.com/rihla-rentals/backend/pkg/errors"
)

const subscriberBuffer = 100

// ErrBusClosed is returned by Subscribe after Close.
var ErrBusClosed = errors.New("event bus closed")

// hub owns the single Redis subscription of one channel and the local
// listeners it fans out to.
type hub struct {
	channel   string
	pubsub    *redis.PubSub
	listeners map[chan *entities.VehicleEvent]struct{}
	dropped   int
}

// RedisEventBus carries vehicle change events over Redis Pub/Sub.
type RedisEventBus struct {
	client *redisclient.Client

	mu     sync.RWMutex
	hubs   map[string]*hub
	closed bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewRedisEventBus creates a new Redis-based event bus
func NewRedisEventBus(client *redisclient.Client) providers.EventBus {
	ctx, cancel := context.WithCancel(context.Background())
	return &RedisEventBus{
		client: client,
		hubs:   make(map[string]*hub),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Publish sends event to every instance listening on channel.
func (b *RedisEventBus) Publish(ctx context.Context, channel string, event *entities.VehicleEvent) error {
	if event == nil || event.VehicleID <= 0 {
		return apperrors.NewValidationError("vehicle event must reference a vehicle")
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode vehicle event %s: %w", event.ID, err)
	}

	receivers, err := b.client.Client().Publish(ctx, channel, payload).Result()
	if err != nil {
		return apperrors.NewExternalError("failed to publish vehicle event", err)
	}

	observability.LoggerFromContext(ctx, "event_bus").Debug().
		Str("channel", channel).
		Str("event_id", event.ID).
		Int64("vehicle_id", event.VehicleID).
		Int64("receivers", receivers).
		Msg("Published vehicle event")
	return nil
}

// Subscribe returns a channel of events that stays open until ctx is done,
// Unsubscribe is called for the channel, or the bus is closed.
func (b *RedisEventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.VehicleEvent, error) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil, ErrBusClosed
	}

	h, ok := b.hubs[channel]
	if !ok {
		pubsub := b.client.Client().Subscribe(b.ctx, channel)
		// Wait for the subscription confirmation so a dead Redis fails here.
		if _, err := pubsub.Receive(ctx); err != nil {
			b.mu.Unlock()
			_ = pubsub.Close()
			return nil, apperrors.NewExternalError("failed to subscribe to "+channel, err)
		}
		h = &hub{
			channel:   channel,
			pubsub:    pubsub,
			listeners: make(map[chan *entities.VehicleEvent]struct{}),
		}
		b.hubs[channel] = h
		b.wg.Add(1)
		go b.pump(h)
	}

	listener := make(chan *entities.VehicleEvent, subscriberBuffer)
	h.listeners[listener] = struct{}{}
	count := len(h.listeners)
	b.mu.Unlock()

	observability.GetLogger().Info().Str("channel", channel).Int("subscribers", count).Msg("Subscribed to vehicle events")

	go func() {
		select {
		case <-ctx.Done():
			b.detach(channel, listener)
		case <-b.ctx.Done():
		}
	}()

	return listener, nil
}

// pump decodes messages from one Redis subscription and hands them to the
// hub's listeners. A full listener misses the event rather than stalling
// the others.
func (b *RedisEventBus) pump(h *hub) {
	defer b.wg.Done()
	logger := observability.GetLogger().With().Str("channel", h.channel).Logger()

	messages := h.pubsub.Channel()
	for {
		select {
		case <-b.ctx.Done():
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			event, err := decodeEvent(msg.Payload)
			if err != nil {
				logger.Warn().Err(err).Msg("Discarding malformed vehicle event")
				continue
			}

			b.mu.Lock()
			for listener := range h.listeners {
				select {
				case listener <- event:
				default:
					h.dropped++
					logger.Warn().Str("event_id", event.ID).Int("dropped", h.dropped).Msg("Subscriber full, event dropped")
				}
			}
			b.mu.Unlock()
		}
	}
}

func decodeEvent(payload string) (*entities.VehicleEvent, error) {
	var event entities.VehicleEvent
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		return nil, err
	}
	if event.VehicleID <= 0 {
		return nil, fmt.Errorf("event %q has no vehicle id", event.ID)
	}
	return &event, nil
}

// detach removes one listener and tears the hub down when it was the last.
func (b *RedisEventBus) detach(channel string, listener chan *entities.VehicleEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	h, ok := b.hubs[channel]
	if !ok {
		return
	}
	if _, ok := h.listeners[listener]; !ok {
		return
	}
	delete(h.listeners, listener)
	close(listener)

	if len(h.listeners) == 0 {
		delete(b.hubs, channel)
		_ = h.pubsub.Close()
	}
}

// shutdownHub closes every listener of the hub and its Redis subscription.
// The caller holds b.mu.
func (b *RedisEventBus) shutdownHub(h *hub) error {
	for listener := range h.listeners {
		close(listener)
	}
	h.listeners = nil
	delete(b.hubs, h.channel)

	if err := h.pubsub.Close(); err != nil {
		return fmt.Errorf("failed to close subscription %s: %w", h.channel, err)
	}
	return nil
}

// Unsubscribe closes every local listener of channel.
func (b *RedisEventBus) Unsubscribe(ctx context.Context, channel string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	h, ok := b.hubs[channel]
	if !ok {
		return nil
	}
	return b.shutdownHub(h)
}

// Close ends every subscription and waits for the receive loops to exit.
func (b *RedisEventBus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.cancel()

	var errs []error
	for _, h := range b.hubs {
		if err := b.shutdownHub(h); err != nil {
			errs = append(errs, err)
		}
	}
	b.mu.Unlock()

	b.wg.Wait()
	return errors.Join(errs...)
}
