package service

import "context"

type actorKey struct{}

// WithActor records the authenticated user performing the request.
func WithActor(ctx context.Context, actorID int32) context.Context {
	return context.WithValue(ctx, actorKey{}, actorID)
}

// ActorFrom returns the actor id, or 0 for system work such as scheduled jobs.
func ActorFrom(ctx context.Context) int32 {
	id, _ := ctx.Value(actorKey{}).(int32)
	return id
}
