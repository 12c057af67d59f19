// Package middleware contains HTTP middleware for the API server.
package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"talentbridge/internal/store"
	"talentbridge/pkg/api"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Identity is the claim triple issued by the identity provider.
// The core trusts these verbatim.
type Identity struct {
	UserID   uuid.UUID
	Email    string
	UserType store.UserType
}

// identityKey is the context key for the authenticated identity.
type identityKey struct{}

// AuthMiddleware verifies the bearer token and puts the caller's identity
// into the request context.
func AuthMiddleware(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				unauthorized(w, "Missing authorization header")
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				unauthorized(w, "Invalid authorization header")
				return
			}

			token, err := jwt.Parse(parts[1], func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
				}
				return []byte(jwtSecret), nil
			})
			if err != nil || !token.Valid {
				unauthorized(w, "Invalid or expired token")
				return
			}

			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				unauthorized(w, "Invalid token claims")
				return
			}

			identity, err := identityFromClaims(claims)
			if err != nil {
				unauthorized(w, "Invalid token claims")
				return
			}

			ctx := NewContextWithIdentity(r.Context(), identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func identityFromClaims(claims jwt.MapClaims) (Identity, error) {
	sub, err := claims.GetSubject()
	if err != nil {
		return Identity{}, err
	}

	userID, err := uuid.Parse(sub)
	if err != nil {
		return Identity{}, fmt.Errorf("invalid subject: %w", err)
	}

	email, _ := claims["email"].(string)
	userType, _ := claims["user_type"].(string)
	if email == "" || userType == "" {
		return Identity{}, fmt.Errorf("missing email or user_type claim")
	}

	return Identity{
		UserID:   userID,
		Email:    email,
		UserType: store.UserType(userType),
	}, nil
}

// NewContextWithIdentity attaches an identity to the context.
// Exposed for handler tests.
func NewContextWithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, identity)
}

// IdentityFromContext extracts the authenticated identity from the context.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	if v := ctx.Value(identityKey{}); v != nil {
		return v.(Identity), true
	}
	return Identity{}, false
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(api.ErrorResponse{
		Error: message,
		Code:  "401",
	})
}
