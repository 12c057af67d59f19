// Package identity talks to the external identity provider that owns
// passwords. The marketplace never stores credentials; it only asks the
// provider whether a pair is valid and then resolves the local account.
package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"talentbridge/internal/store"
)

// ErrInvalidCredentials is returned when the provider rejects the pair.
var ErrInvalidCredentials = errors.New("invalid credentials")

// UserResolver resolves a verified email to a marketplace account.
type UserResolver interface {
	GetUserByEmail(ctx context.Context, email string) (*store.User, error)
}

// Client verifies credentials against the identity provider over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	users      UserResolver
}

// NewClient creates an identity client for the given provider base URL.
func NewClient(baseURL string, users UserResolver) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		users: users,
	}
}

type verifyRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Verify asks the provider to check the credential pair, then resolves the
// local account for the email. A provider rejection and a missing local
// account both surface as ErrInvalidCredentials.
func (c *Client) Verify(ctx context.Context, email, password string) (*store.User, error) {
	body, err := json.Marshal(verifyRequest{Email: email, Password: password})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal verify request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/verify", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create verify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("identity provider unreachable: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, ErrInvalidCredentials
	default:
		return nil, fmt.Errorf("identity provider returned status %d", resp.StatusCode)
	}

	user, err := c.users.GetUserByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve account: %w", err)
	}

	return user, nil
}
