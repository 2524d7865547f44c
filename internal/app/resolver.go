package app

import (
	"context"
	"log/slog"

	"github.com/jonboulle/clockwork"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	linear "github.com/eugener/linear/internal"
	"github.com/eugener/linear/internal/cache"
	"github.com/eugener/linear/internal/graphql"
	"github.com/eugener/linear/internal/telemetry"
)

// Resolver serves GraphQL requests from the cache when a fresh entry exists
// and from the transport otherwise. Only successful payloads are cached.
type Resolver struct {
	store     cache.Store // nil disables caching
	transport linear.Transport
	metrics   *telemetry.Metrics
	log       *slog.Logger
	clock     clockwork.Clock
	tracer    trace.Tracer
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithMetrics records cache and upstream metrics.
func WithMetrics(m *telemetry.Metrics) ResolverOption {
	return func(r *Resolver) { r.metrics = m }
}

// WithLogger sets the logger. Default slog.Default().
func WithLogger(l *slog.Logger) ResolverOption {
	return func(r *Resolver) { r.log = l }
}

// WithClock sets the clock used to time upstream calls.
func WithClock(c clockwork.Clock) ResolverOption {
	return func(r *Resolver) { r.clock = c }
}

// NewResolver returns a Resolver over store and transport. A nil store sends
// every request to the transport and writes nothing.
func NewResolver(store cache.Store, transport linear.Transport, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		store:     store,
		transport: transport,
		log:       slog.Default(),
		clock:     clockwork.NewRealClock(),
		tracer:    otel.Tracer("github.com/eugener/linear/internal/app"),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Resolve returns the payload for req. A cache hit returns without touching
// the network. On a miss, transport errors are returned as-is and a payload
// with a non-empty errors list becomes *graphql.RemoteError; neither is
// cached. A failed cache write is logged and the payload is still returned.
func (r *Resolver) Resolve(ctx context.Context, req linear.Request) ([]byte, error) {
	op := operationName(req)
	ctx, span := r.tracer.Start(ctx, "graphql.resolve",
		trace.WithAttributes(attribute.String("graphql.operation.name", op)))
	defer span.End()

	key := r.key(req)
	if key != "" {
		if payload, ok := r.store.Get(ctx, key); ok {
			span.SetAttributes(attribute.Bool("cache.hit", true))
			if r.metrics != nil {
				r.metrics.CacheHits.Inc()
			}
			r.log.Debug("cache hit", "operation", op, "key", key)
			return payload, nil
		}
		if r.metrics != nil {
			r.metrics.CacheMisses.Inc()
		}
		r.log.Debug("cache miss", "operation", op, "key", key)
	}
	span.SetAttributes(attribute.Bool("cache.hit", false))

	start := r.clock.Now()
	payload, err := r.transport.Do(ctx, req)
	if r.metrics != nil {
		r.metrics.UpstreamDuration.WithLabelValues(op).Observe(r.clock.Since(start).Seconds())
	}
	if err == nil {
		err = graphql.ParseErrors(payload)
	}
	if err != nil {
		if r.metrics != nil {
			r.metrics.UpstreamErrors.WithLabelValues(graphql.Classify(err).String()).Inc()
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, graphql.Classify(err).String())
		return nil, err
	}

	if key != "" {
		if err := r.store.Set(ctx, key, payload); err != nil {
			if r.metrics != nil {
				r.metrics.CacheWriteErrors.Inc()
			}
			r.log.Warn("cache write failed", "operation", op, "key", key, "error", err)
		}
	}
	return payload, nil
}

// key returns the cache key for req, or "" when caching is off or the
// variables cannot be encoded.
func (r *Resolver) key(req linear.Request) string {
	if r.store == nil {
		return ""
	}
	key, err := cache.Key(req.Query, req.Variables)
	if err != nil {
		r.log.Warn("cache bypassed", "operation", operationName(req), "error", err)
		return ""
	}
	return key
}

func operationName(req linear.Request) string {
	if req.OperationName != "" {
		return req.OperationName
	}
	return "anonymous"
}
