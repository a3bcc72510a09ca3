package middleware

import (
	"context"

	"github.com/gladosdev/glados-backend/pkg/db/models"
)

type contextKey string

const ctxUser contextKey = "acting_user"

// WithUser injects the authenticated user into the context.
func WithUser(ctx context.Context, user *models.User) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxUser, user)
}

// UserFromContext returns the authenticated user, or nil when the request is
// unauthenticated.
func UserFromContext(ctx context.Context) *models.User {
	if ctx == nil {
		return nil
	}
	if u, ok := ctx.Value(ctxUser).(*models.User); ok {
		return u
	}
	return nil
}
