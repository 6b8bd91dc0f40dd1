// Package identity carries the authenticated actor through request and run
// contexts.
package identity

import (
	"context"
	"strings"
)

// Actor is the authenticated principal a request or sync run acts as.
type Actor struct {
	Email   string `json:"email"`
	IsAdmin bool   `json:"is_admin"`
}

// RepName is the actor's salesperson display name, derived from the email
// local part. Commission visibility for non-admins matches on it.
func (a Actor) RepName() string {
	local, _, _ := strings.Cut(a.Email, "@")
	return local
}

type contextKey struct{}

func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, contextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(contextKey{}).(Actor)
	return actor, ok
}
