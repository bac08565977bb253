// Package requestcontext provides HTTP-independent context accessors for
// request-scoped values.
//
// Middleware sets these values; services consume them. Keeping the package
// free of net/http lets services avoid pulling in transport code.
//
// Usage in services (read values):
//
//	actor := requestcontext.Actor(ctx)
//	now := requestcontext.Now(ctx)
//
// Usage in tests (inject values):
//
//	ctx = requestcontext.WithTime(ctx, fixedTime)
//	ctx = requestcontext.WithActor(ctx, requestcontext.ActorInfo{Role: "ADMIN"})
package requestcontext

import (
	"context"
	"time"
)

// ActorInfo identifies the authenticated caller for the duration of a request.
// Subject is the account/session id; Name and Department are filled from the
// token claims where the role carries them.
type ActorInfo struct {
	Role       string
	Subject    string
	Name       string
	Phone      string
	Department string
}

type (
	actorKey       struct{}
	requestIDKey   struct{}
	requestTimeKey struct{}
	userAgentKey   struct{}
)

// Actor retrieves the authenticated actor from the context. Returns the zero
// value if no auth middleware ran.
func Actor(ctx context.Context) ActorInfo {
	if actor, ok := ctx.Value(actorKey{}).(ActorInfo); ok {
		return actor
	}
	return ActorInfo{}
}

// WithActor injects the authenticated actor into the context.
func WithActor(ctx context.Context, actor ActorInfo) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// RequestID retrieves the request id set by middleware, or "".
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}

// WithRequestID injects a request id into the context.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// Now returns the request time if one was injected, else time.Now(). Services
// read the clock through this so tests can pin timestamps.
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(requestTimeKey{}).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a fixed request time into the context.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, requestTimeKey{}, t)
}

// UserAgent retrieves the client User-Agent header value, or "".
func UserAgent(ctx context.Context) string {
	if ua, ok := ctx.Value(userAgentKey{}).(string); ok {
		return ua
	}
	return ""
}

// WithUserAgent injects the client User-Agent into the context.
func WithUserAgent(ctx context.Context, ua string) context.Context {
	return context.WithValue(ctx, userAgentKey{}, ua)
}
