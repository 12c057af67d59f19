// Package payment isolates all calls to the external charge/refund API.
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrGatewayUnavailable marks a transport-level failure talking to the
// gateway, distinct from the gateway rejecting a request.
var ErrGatewayUnavailable = errors.New("payment gateway unavailable")

// ErrChargeNotFound is returned when the gateway does not know the charge.
var ErrChargeNotFound = errors.New("charge not found")

// CodeAlreadyRefunded is the gateway's machine code for a duplicate refund.
const CodeAlreadyRefunded = "already_refunded"

// Gateway is the charge/refund surface the handlers depend on.
type Gateway interface {
	// CreateCharge charges amountMinor in the smallest currency unit.
	CreateCharge(ctx context.Context, req ChargeRequest) (*Charge, error)

	// RetrieveCharge returns the current charge state, including whether it
	// has been refunded and by which refund ids.
	RetrieveCharge(ctx context.Context, chargeID string) (*Charge, error)

	// RefundCharge issues a full refund and returns the refund id. A charge
	// already refunded out-of-band is not an error: the existing refund id
	// (or a deterministic placeholder) is returned instead.
	RefundCharge(ctx context.Context, chargeID string) (string, error)
}

// ChargeRequest describes a charge to create.
type ChargeRequest struct {
	AmountMinor int64             `json:"amount"`
	Currency    string            `json:"currency"`
	Token       string            `json:"source"`
	Description string            `json:"description"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// Charge is the gateway's view of a transaction.
type Charge struct {
	ID        string   `json:"id"`
	Amount    int64    `json:"amount"`
	Currency  string   `json:"currency"`
	CardBrand string   `json:"card_brand"`
	Last4     string   `json:"last4"`
	Refunded  bool     `json:"refunded"`
	RefundIDs []string `json:"refund_ids"`
}

// ChargeError is a structured rejection from the gateway. Message carries
// the gateway's human-readable text verbatim when present.
type ChargeError struct {
	Message string
	Code    string
}

func (e *ChargeError) Error() string {
	return e.Message
}

// PlaceholderRefundID derives a deterministic refund identifier from a
// charge id for the case where the gateway confirms a refund exists but
// omits its details. Compatibility shim, not guaranteed unique.
func PlaceholderRefundID(chargeID string) string {
	return "re_from_charge_" + chargeID
}

// SecretSource supplies the gateway secret credential.
type SecretSource interface {
	Secret(ctx context.Context) (string, error)
}

// Client talks to the gateway's HTTP API. The secret credential is fetched
// lazily on first use and reused for the process lifetime.
type Client struct {
	baseURL    string
	httpClient *http.Client
	secrets    SecretSource

	cache secretCache
}

// NewClient creates a gateway client against the given base URL.
func NewClient(baseURL string, secrets SecretSource) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		secrets: secrets,
	}
}

// gatewayErrorBody is the error envelope the gateway uses.
type gatewayErrorBody struct {
	Error struct {
		Message  string `json:"message"`
		Code     string `json:"code"`
		RefundID string `json:"refund_id"`
	} `json:"error"`
}

// CreateCharge sends POST /v1/charges.
func (c *Client) CreateCharge(ctx context.Context, req ChargeRequest) (*Charge, error) {
	respBody, status, err := c.do(ctx, http.MethodPost, "/v1/charges", req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}

	if status != http.StatusOK {
		return nil, chargeErrorFrom(respBody, status)
	}

	var charge Charge
	if err := json.Unmarshal(respBody, &charge); err != nil {
		return nil, fmt.Errorf("failed to parse charge response: %w", err)
	}
	return &charge, nil
}

// RetrieveCharge sends GET /v1/charges/{id}.
func (c *Client) RetrieveCharge(ctx context.Context, chargeID string) (*Charge, error) {
	respBody, status, err := c.do(ctx, http.MethodGet, "/v1/charges/"+chargeID, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}

	switch {
	case status == http.StatusNotFound:
		return nil, ErrChargeNotFound
	case status >= 500:
		return nil, fmt.Errorf("%w: gateway returned %d", ErrGatewayUnavailable, status)
	case status != http.StatusOK:
		return nil, chargeErrorFrom(respBody, status)
	}

	var charge Charge
	if err := json.Unmarshal(respBody, &charge); err != nil {
		return nil, fmt.Errorf("failed to parse charge response: %w", err)
	}
	return &charge, nil
}

// RefundCharge sends POST /v1/charges/{id}/refund. An already_refunded
// rejection is reconciled rather than surfaced: the gateway's reported
// refund id is returned, or a placeholder derived from the charge id when
// the response omits refund details.
func (c *Client) RefundCharge(ctx context.Context, chargeID string) (string, error) {
	respBody, status, err := c.do(ctx, http.MethodPost, "/v1/charges/"+chargeID+"/refund", nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}

	if status != http.StatusOK {
		var body gatewayErrorBody
		if json.Unmarshal(respBody, &body) == nil && body.Error.Code == CodeAlreadyRefunded {
			if body.Error.RefundID != "" {
				return body.Error.RefundID, nil
			}
			return PlaceholderRefundID(chargeID), nil
		}
		return "", chargeErrorFrom(respBody, status)
	}

	var refund struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(respBody, &refund); err != nil {
		return "", fmt.Errorf("failed to parse refund response: %w", err)
	}
	return refund.ID, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload interface{}) ([]byte, int, error) {
	secret, err := c.cache.get(ctx, c.secrets)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to load gateway secret: %w", err)
	}

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Add("Authorization", "Bearer "+secret)
	httpReq.Header.Add("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read response: %w", err)
	}

	return respBody, resp.StatusCode, nil
}

func chargeErrorFrom(respBody []byte, status int) error {
	var body gatewayErrorBody
	if json.Unmarshal(respBody, &body) == nil && body.Error.Message != "" {
		return &ChargeError{Message: body.Error.Message, Code: body.Error.Code}
	}
	return &ChargeError{Message: fmt.Sprintf("payment was rejected (status %d)", status)}
}
