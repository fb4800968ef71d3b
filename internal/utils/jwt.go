// internal/utils/jwt.go
package utils

import (
	"errors"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

// SessionClaims is the subset of a Supabase access token the API relies on.
type SessionClaims struct {
	Email       string                 `json:"email"`
	Role        string                 `json:"role"`
	AppMetadata map[string]interface{} `json:"app_metadata,omitempty"`
	jwt.RegisteredClaims
}

func (c *SessionClaims) UserID() string {
	return c.Subject
}

// IsAdmin reads the role Supabase stores in app_metadata, which clients cannot edit.
func (c *SessionClaims) IsAdmin() bool {
	role, _ := c.AppMetadata["role"].(string)
	return role == "admin"
}

var jwtSecret []byte

func SetJWTSecret(secret string) {
	jwtSecret = []byte(secret)
}

func ValidateSessionToken(tokenString string) (*SessionClaims, error) {
	if len(jwtSecret) == 0 {
		return nil, errors.New("session secret not configured")
	}

	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return jwtSecret, nil
	})

	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}

	if _, err := uuid.Parse(claims.Subject); err != nil {
		return nil, errors.New("invalid token subject")
	}

	return claims, nil
}
