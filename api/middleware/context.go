package middleware

import (
	"context"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/google/uuid"
)

// Caller is the authenticated principal Auth attaches to a request.
type Caller struct {
	UserID   uuid.UUID
	Role     enums.Role
	AccessID string
}

type callerKey struct{}

func WithCaller(ctx context.Context, c Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, c)
}

// CallerFromContext reports false on routes that skip Auth.
func CallerFromContext(ctx context.Context) (Caller, bool) {
	if ctx == nil {
		return Caller{}, false
	}
	c, ok := ctx.Value(callerKey{}).(Caller)
	return c, ok
}

func UserUUIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	c, ok := CallerFromContext(ctx)
	if !ok || c.UserID == uuid.Nil {
		return uuid.Nil, false
	}
	return c.UserID, true
}

func RoleFromContext(ctx context.Context) enums.Role {
	c, _ := CallerFromContext(ctx)
	return c.Role
}

// AccessIDFromContext returns the jti of the presented access token.
func AccessIDFromContext(ctx context.Context) string {
	c, _ := CallerFromContext(ctx)
	return c.AccessID
}
