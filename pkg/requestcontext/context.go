// Package requestcontext provides context accessors for request-scoped values.
//
// Values are set by the calling layer (HTTP middleware, the scheduler) and
// consumed by services. Keeping this package free of net/http lets services
// import only what they need.
//
// Usage in services (read values):
//
//	actor := requestcontext.ActorID(ctx)
//	now := requestcontext.Now(ctx)
//
// Usage in tests (inject values):
//
//	ctx = requestcontext.WithTime(ctx, fixedTime)
//	ctx = requestcontext.WithActorID(ctx, "operator-7")
package requestcontext

import (
	"context"
	"time"

	id "gare/pkg/domain"
)

type (
	actorIDKey     struct{}
	requestIDKey   struct{}
	requestTimeKey struct{}
)

// ActorID retrieves the acting user identity from the context. The identity
// provider supplies it as an opaque string; empty when unset (automatic jobs
// use their own actor, see WithActorID call sites).
func ActorID(ctx context.Context) id.OperatorID {
	if actor, ok := ctx.Value(actorIDKey{}).(id.OperatorID); ok {
		return actor
	}
	return ""
}

// WithActorID injects the acting user identity into the context.
func WithActorID(ctx context.Context, actor id.OperatorID) context.Context {
	return context.WithValue(ctx, actorIDKey{}, actor)
}

// RequestID retrieves the request correlation ID from the context.
func RequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(requestIDKey{}).(string); ok {
		return reqID
	}
	return ""
}

// WithRequestID injects a request correlation ID into the context.
func WithRequestID(ctx context.Context, reqID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, reqID)
}

// Now returns the request time from the context, falling back to the wall
// clock. Injecting time keeps date-driven transitions deterministic in tests.
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(requestTimeKey{}).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a fixed time into the context.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, requestTimeKey{}, t)
}
