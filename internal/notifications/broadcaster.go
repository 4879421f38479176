package notifications

import (
	"context"
	"log/slog"
	"time"

	"pepeboard/internal/observability"
)

// DefaultBroadcastBuffer is the queue length used when none is configured.
const DefaultBroadcastBuffer = 1024

const publishTimeout = 5 * time.Second

// Broadcaster delivers events in the order they were published. Publish
// only enqueues; a single Run goroutine encodes and delivers, so no caller
// ever waits on a websocket or on Redis.
//
// Each event takes exactly one path: through Redis when the notifier is
// enabled (every instance, this one included, receives it from the
// subscription) or straight to the local hub otherwise.
type Broadcaster struct {
	hub      *Hub
	notifier *Notifier
	queue    chan Event
	logger   *slog.Logger
	done     chan struct{}
}

// NewBroadcaster creates a broadcaster. notifier may be nil.
func NewBroadcaster(hub *Hub, notifier *Notifier, buffer int, logger *slog.Logger) *Broadcaster {
	if buffer <= 0 {
		buffer = DefaultBroadcastBuffer
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Broadcaster{
		hub:      hub,
		notifier: notifier,
		queue:    make(chan Event, buffer),
		logger:   logger,
		done:     make(chan struct{}),
	}
}

// Publish enqueues ev. It returns false when the queue is full and the event
// was dropped.
func (b *Broadcaster) Publish(ev Event) bool {
	select {
	case b.queue <- ev:
		observability.BroadcastEvents.WithLabelValues(ev.Type, "queued").Inc()
		return true
	default:
		observability.BroadcastEvents.WithLabelValues(ev.Type, "dropped").Inc()
		b.logger.Warn("broadcast queue full, dropped event", slog.String("type", ev.Type))
		return false
	}
}

// Run delivers queued events until ctx is canceled, then flushes whatever
// is still queued and returns.
func (b *Broadcaster) Run(ctx context.Context) {
	defer close(b.done)

	for {
		select {
		case ev := <-b.queue:
			b.deliver(ctx, ev)
		case <-ctx.Done():
			for {
				select {
				case ev := <-b.queue:
					b.deliver(context.Background(), ev)
				default:
					return
				}
			}
		}
	}
}

// Done is closed when Run has returned.
func (b *Broadcaster) Done() <-chan struct{} {
	return b.done
}

func (b *Broadcaster) deliver(ctx context.Context, ev Event) {
	payload, err := ev.Encode()
	if err != nil {
		b.logger.Error("failed to encode broadcast event", slog.String("error", err.Error()))
		observability.BroadcastEvents.WithLabelValues(ev.Type, "encode_error").Inc()
		return
	}

	if b.notifier.Enabled() {
		pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
		err := b.notifier.PublishBroadcast(pubCtx, payload)
		cancel()
		if err == nil {
			observability.BroadcastEvents.WithLabelValues(ev.Type, "published").Inc()
			return
		}
		// Redis did not take it, so no instance will see it; local
		// sessions still get it.
		b.logger.Warn("redis publish failed, delivering locally",
			slog.String("type", ev.Type),
			slog.String("error", err.Error()),
		)
	}

	b.hub.BroadcastAll(payload)
	observability.BroadcastEvents.WithLabelValues(ev.Type, "delivered").Inc()
}
