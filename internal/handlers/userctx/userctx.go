// Package userctx carries the authenticated user through request context
package userctx

import (
	"context"

	"github.com/nkiryanov/jobboard/internal/models"
)

type ctxKey struct{}

// Shared by the context it was put to and every context derived from it
type slot struct {
	user models.User
	set  bool
}

// Track prepares ctx so the user put by New down the handler chain is visible through ctx as well
func Track(ctx context.Context) context.Context {
	return context.WithValue(ctx, ctxKey{}, &slot{})
}

// New puts the user to the tracked slot if ctx has one, otherwise to a new context
func New(ctx context.Context, u models.User) context.Context {
	if s, ok := ctx.Value(ctxKey{}).(*slot); ok && !s.set {
		s.user, s.set = u, true
		return ctx
	}
	return context.WithValue(ctx, ctxKey{}, &slot{user: u, set: true})
}

func FromContext(ctx context.Context) (models.User, bool) {
	s, ok := ctx.Value(ctxKey{}).(*slot)
	if !ok || !s.set {
		return models.User{}, false
	}
	return s.user, true
}
