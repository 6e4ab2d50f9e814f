package auth

import (
	"github.com/golang-jwt/jwt/v5"

	"github.com/flipearn/flipearn-backend/pkg/enums"
)

// IdentityClaims is the JWT shape minted by the identity provider. Subject
// carries the opaque user id.
type IdentityClaims struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	Role  string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Principal is the resolved caller attached to request contexts.
type Principal struct {
	UserID string
	Email  string
	Role   enums.Role
}

// IsAdmin reports whether the principal holds the admin role.
func (p Principal) IsAdmin() bool {
	return p.Role == enums.RoleAdmin
}
