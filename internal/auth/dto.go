package auth

import (
	"github.com/google/uuid"

	"github.com/lunaplata/joyeria-backend/internal/users"
	"github.com/lunaplata/joyeria-backend/pkg/enums"
)

// LoginRequest captures the credentials sent to either login endpoint.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest creates a customer account.
type RegisterRequest struct {
	Name     string  `json:"name" validate:"required,max=120"`
	Email    string  `json:"email" validate:"required,email"`
	Password string  `json:"password" validate:"required"`
	Phone    *string `json:"phone,omitempty" validate:"omitempty,max=32"`
}

// RefreshRequest carries the refresh token; the access token travels in the
// Authorization header and may already be expired.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// TokenResponse is returned by every endpoint that opens or rotates a session.
type TokenResponse struct {
	AccessToken  string         `json:"access_token"`
	RefreshToken string         `json:"refresh_token"`
	Role         enums.UserRole `json:"role"`
	User         *users.UserDTO `json:"user,omitempty"`
	// GuestID is set for anonymous sessions and owns the guest cart.
	GuestID *uuid.UUID `json:"guest_id,omitempty"`
}
