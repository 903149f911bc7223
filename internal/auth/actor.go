package auth

import (
	"context"
	"time"
)

type ctxKey string

const ContextActorKey ctxKey = "actor"

// Actor is the authenticated caller, resolved once per request by the auth
// middleware and passed explicitly into services.
type Actor struct {
	ID      int64
	Name    string
	Email   string
	Role    Role
	TokenID string

	TokenExpiresAt time.Time
}

func (a Actor) IsAdmin() bool {
	return a.Role.CanAudit()
}

func (a Actor) CanDecide() bool {
	return a.Role.CanDecide()
}

func ContextWithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, ContextActorKey, actor)
}

func ActorFromContext(ctx context.Context) (Actor, bool) {
	if ctx == nil {
		return Actor{}, false
	}
	actor, ok := ctx.Value(ContextActorKey).(Actor)
	return actor, ok
}
