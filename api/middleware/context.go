package middleware

import (
	"context"

	"github.com/flipearn/flipearn-backend/pkg/auth"
	"github.com/flipearn/flipearn-backend/pkg/enums"
)

type contextKey string

const (
	ctxUserID    contextKey = "user_id"
	ctxUserEmail contextKey = "user_email"
	ctxRole      contextKey = "actor_role"
)

func UserIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxUserID).(string); ok {
		return v
	}
	return ""
}

func UserEmailFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxUserEmail).(string); ok {
		return v
	}
	return ""
}

func RoleFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxRole).(string); ok {
		return v
	}
	return ""
}

// PrincipalFromContext rebuilds the caller from context values.
func PrincipalFromContext(ctx context.Context) auth.Principal {
	role := enums.Role(RoleFromContext(ctx))
	if !role.IsValid() {
		role = enums.RoleUser
	}
	return auth.Principal{
		UserID: UserIDFromContext(ctx),
		Email:  UserEmailFromContext(ctx),
		Role:   role,
	}
}

// WithPrincipal injects the caller identity into the context.
func WithPrincipal(ctx context.Context, principal auth.Principal) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxUserID, principal.UserID)
	ctx = context.WithValue(ctx, ctxUserEmail, principal.Email)
	return context.WithValue(ctx, ctxRole, string(principal.Role))
}
