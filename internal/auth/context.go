package auth

import (
	"context"
	"strings"

	"carelink.org/internal/care"
)

type ctxKey string

const (
	userIDKey ctxKey = "auth_user_id"
	roleKey   ctxKey = "auth_role"
)

// ContextWithUser stores the signed-in user's identity in the context.
func ContextWithUser(ctx context.Context, userID string, role care.Role) context.Context {
	ctx = context.WithValue(ctx, userIDKey, strings.TrimSpace(userID))
	if role.Valid() {
		ctx = context.WithValue(ctx, roleKey, role)
	}
	return ctx
}

// UserIDFromContext extracts the signed-in user id from context.
func UserIDFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(userIDKey).(string)
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return v, true
}

// RoleFromContext returns the role stored in context.
func RoleFromContext(ctx context.Context) (care.Role, bool) {
	v, ok := ctx.Value(roleKey).(care.Role)
	if !ok || !v.Valid() {
		return "", false
	}
	return v, true
}

// HasRole checks whether the context carries one of the given roles.
func HasRole(ctx context.Context, allowed ...care.Role) bool {
	role, ok := RoleFromContext(ctx)
	if !ok {
		return false
	}
	return role.In(allowed...)
}
