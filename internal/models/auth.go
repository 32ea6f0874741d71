package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims is the payload of a session token. The subject is carried in "id".
type TokenClaims struct {
	UserID string `json:"id"`
	jwt.RegisteredClaims
}

// Identity is the authenticated caller attached to a request context.
type Identity struct {
	ID    string
	Name  string
	Email string
	Role  string
}
