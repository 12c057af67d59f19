package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"talentbridge/internal/logger"
	"talentbridge/pkg/api"

	"github.com/golang-jwt/jwt/v5"
)

// Login handles POST /auth/login.
// Credential verification is delegated to the identity provider; this
// handler owns only the attempt throttling around it.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx, h.logger)

	var req api.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.httpError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		h.httpError(w, "Email and password are required", http.StatusBadRequest)
		return
	}

	decision, err := h.logins.CheckAllowed(ctx, email)
	if err != nil {
		log.Error("login throttle check failed", "email", email, "error", err)
		decision.Allowed = true
	}
	if !decision.Allowed {
		h.rateLimited(w,
			fmt.Sprintf("Too many failed login attempts. Try again in %d minutes.", decision.RemainingMinutes),
			decision.RemainingMinutes)
		return
	}

	user, err := h.verifier.Verify(ctx, email, req.Password)
	if err != nil {
		h.logins.RecordFailure(ctx, email, err.Error(), "")
		h.httpError(w, "Invalid email or password", http.StatusUnauthorized)
		return
	}

	h.logins.Clear(ctx, email)

	token, err := h.signToken(user.ID.String(), user.Email, string(user.UserType))
	if err != nil {
		log.Error("failed to sign token", "email", email, "error", err)
		h.httpError(w, "Failed to issue token", http.StatusInternalServerError)
		return
	}

	h.respondJson(w, http.StatusOK, api.LoginResponse{
		Token:    token,
		UserID:   user.ID.String(),
		UserType: string(user.UserType),
	})
}

func (h *Handlers) signToken(userID, email, userType string) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":       userID,
		"email":     email,
		"user_type": userType,
		"iat":       now.Unix(),
		"exp":       now.Add(24 * time.Hour).Unix(),
	})
	return token.SignedString([]byte(h.cfg.JWTSecret))
}
