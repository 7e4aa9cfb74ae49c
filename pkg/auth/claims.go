package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/lunaplata/joyeria-backend/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID uuid.UUID
	Role   enums.UserRole
	// JTI ties the token to its refresh session; generated when empty.
	JTI string
}

// AccessTokenClaims represents the typed JWT issued to clients. For guest
// tokens UserID is the anonymous cart owner id.
type AccessTokenClaims struct {
	UserID uuid.UUID      `json:"user_id"`
	Role   enums.UserRole `json:"role"`
	jwt.RegisteredClaims
}

// IsAdmin reports whether the claims grant back-office access.
func (c *AccessTokenClaims) IsAdmin() bool {
	return c != nil && c.Role == enums.UserRoleAdmin
}

// IsGuest reports whether the claims belong to an anonymous shopper.
func (c *AccessTokenClaims) IsGuest() bool {
	return c != nil && c.Role == enums.UserRoleGuest
}
