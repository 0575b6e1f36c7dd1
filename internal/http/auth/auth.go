// Package auth validates HMAC-signed bearer tokens and carries the principal id in the request context.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const CookieName = "auth_token"

var validMethods = []string{jwt.SigningMethodHS256.Alg(), jwt.SigningMethodHS384.Alg(), jwt.SigningMethodHS512.Alg()}

type Claims struct {
	ID string `json:"id"`
	jwt.RegisteredClaims
}

type principalKeyType struct{}

var principalKey principalKeyType

// Middleware rejects requests without a valid token with 401.
func Middleware(secret string) func(http.Handler) http.Handler {
	key := []byte(secret)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := extractToken(r)
			if tokenStr == "" {
				writeJSONError(w, http.StatusUnauthorized, "Authentication required")
				return
			}
			claims, err := Parse(key, tokenStr)
			if err != nil {
				writeJSONError(w, http.StatusUnauthorized, "Authentication failed")
				return
			}
			ctx := context.WithValue(r.Context(), principalKey, claims.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Parse verifies signature, algorithm and expiry.
func Parse(key []byte, tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(_ *jwt.Token) (interface{}, error) {
		return key, nil
	}, jwt.WithValidMethods(validMethods))
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid claims")
	}
	return claims, nil
}

// Mint signs an HS256 token for id. ttl <= 0 means no expiry.
func Mint(secret, id string, ttl time.Duration) (string, error) {
	if strings.TrimSpace(secret) == "" {
		return "", errors.New("secret is empty")
	}
	now := time.Now().UTC()
	claims := Claims{
		ID: id,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  id,
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// Principal returns the authenticated id, or "" outside the middleware.
func Principal(ctx context.Context) string {
	id, _ := ctx.Value(principalKey).(string)
	return id
}

func extractToken(r *http.Request) string {
	authz := r.Header.Get("Authorization")
	if len(authz) > 7 && strings.EqualFold(authz[:7], "Bearer ") {
		return strings.TrimSpace(authz[7:])
	}
	// Browsers cannot set headers on websocket upgrades.
	if cookie, err := r.Cookie(CookieName); err == nil {
		return cookie.Value
	}
	return ""
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"error": message})
}
