package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// RoleOperator marks back-office tokens allowed to drive fulfilment state.
// Shopper tokens carry no role.
const RoleOperator = "operator"

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID uuid.UUID
	Name   string
	Email  string
	Role   string
	JTI    string
}

// AccessTokenClaims represents the typed JWT issued by the session provider.
type AccessTokenClaims struct {
	UserID uuid.UUID `json:"user_id"`
	Name   string    `json:"name,omitempty"`
	Email  string    `json:"email,omitempty"`
	Role   string    `json:"role,omitempty"`
	jwt.RegisteredClaims
}
