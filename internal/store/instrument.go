package store

import (
	"context"
	"log/slog"

	"pepeboard/internal/models"
	"pepeboard/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

// instrumented decorates a Store with metrics, spans and failure logs.
type instrumented struct {
	next   Store
	logger *slog.Logger
}

// Instrument wraps s so every operation records latency and errors in
// prometheus, opens a span and logs failures.
func Instrument(s Store, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &instrumented{next: s, logger: logger}
}

func (s *instrumented) Name() string { return s.next.Name() }

func (s *instrumented) Load(ctx context.Context) (models.Collection, error) {
	span, ctx := observability.NewSpan(ctx, "store.load", attribute.String("store.backend", s.next.Name()))
	defer span.End()
	defer observability.TrackStore(s.next.Name(), "load")()

	posts, err := s.next.Load(ctx)
	if err != nil {
		s.fail(ctx, span, "load", err)
		return nil, err
	}
	return posts, nil
}

func (s *instrumented) Save(ctx context.Context, posts models.Collection) error {
	span, ctx := observability.NewSpan(ctx, "store.save",
		attribute.String("store.backend", s.next.Name()),
		attribute.Int("store.posts", len(posts)),
	)
	defer span.End()
	defer observability.TrackStore(s.next.Name(), "save")()

	if err := s.next.Save(ctx, posts); err != nil {
		s.fail(ctx, span, "save", err)
		return err
	}
	return nil
}

func (s *instrumented) Close() error { return s.next.Close() }

// Ping forwards to the wrapped store when it supports health checks.
func (s *instrumented) Ping(ctx context.Context) error {
	if p, ok := s.next.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

func (s *instrumented) fail(ctx context.Context, span *observability.Span, op string, err error) {
	span.SetError(err)
	observability.StoreErrors.WithLabelValues(s.next.Name(), op).Inc()
	s.logger.ErrorContext(ctx, "store operation failed",
		slog.String("backend", s.next.Name()),
		slog.String("operation", op),
		slog.String("error", err.Error()),
	)
}
