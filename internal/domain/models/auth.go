package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// Claims are the JWT claims this backend cares about. The subject becomes
// the user identity every persistence query is scoped by.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
}
