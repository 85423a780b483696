// Package ctxutil carries request-scoped values through context.
package ctxutil

import (
	"context"
	"strings"
)

type ctxKey string

const (
	actorKey     ctxKey = "actor"
	requestIDKey ctxKey = "request_id"
)

// SystemActor is recorded for changes made without a human caller.
const SystemActor = "system"

// WithActor stores the name of the caller performing workflow actions.
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorKey, strings.TrimSpace(actor))
}

// ActorFromCtx extracts the actor from the context.
// Returns "" and false if the value is missing, blank, or of the wrong type.
func ActorFromCtx(ctx context.Context) (string, bool) {
	actor, ok := ctx.Value(actorKey).(string)
	if !ok || actor == "" {
		return "", false
	}
	return actor, true
}

// ActorOrSystem returns the actor from the context, or SystemActor.
func ActorOrSystem(ctx context.Context) string {
	if actor, ok := ActorFromCtx(ctx); ok {
		return actor
	}
	return SystemActor
}

// WithRequestID stores the request ID in the context.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromCtx extracts the request ID from the context.
// Returns an empty string if absent.
func RequestIDFromCtx(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}
