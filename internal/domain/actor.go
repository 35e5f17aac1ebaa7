package domain

import (
	"context"

	"github.com/google/uuid"
)

// Actor is the authenticated user on whose behalf an operation runs.
// Owner-scoped queries take it as an explicit parameter.
type Actor struct {
	UserID uuid.UUID
}

type actorKey struct{}

// WithActor stores the actor in ctx.
func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFromContext returns the actor stored by WithActor.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(actorKey{}).(Actor)
	return actor, ok
}
