package testutil

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

// SessionToken signs an access token shaped like the ones Supabase issues.
// A negative ttl yields an expired token.
func SessionToken(t *testing.T, secret string, userID uuid.UUID, email string, admin bool, ttl time.Duration) string {
	t.Helper()

	appMetadata := map[string]interface{}{"provider": "email"}
	if admin {
		appMetadata["role"] = "admin"
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":          userID.String(),
		"email":        email,
		"role":         "authenticated",
		"app_metadata": appMetadata,
		"iss":          "supabase",
		"iat":          now.Unix(),
		"exp":          now.Add(ttl).Unix(),
	})

	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("Failed to sign session token: %v", err)
	}
	return signed
}
