package audit

import "context"

type actorKey struct{}

// WithActor tags ctx with the identity that authorised the request
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFrom returns the identity stored by WithActor, or "" when none was set
func ActorFrom(ctx context.Context) string {
	actor, _ := ctx.Value(actorKey{}).(string)
	return actor
}
