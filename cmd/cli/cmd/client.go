package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"talentbridge/pkg/api"
)

// BridgeClient handles API calls to the talentbridge server.
type BridgeClient struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

// NewBridgeClient creates a new client with the given base URL and token.
func NewBridgeClient(baseURL, token string) *BridgeClient {
	return &BridgeClient{
		BaseURL: baseURL,
		Token:   token,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// APIError represents an error response from the API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (%d): %s", e.StatusCode, e.Message)
}

func (c *BridgeClient) do(method, path string, payload interface{}, out interface{}) error {
	var body io.Reader
	if payload != nil {
		bodyBytes, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(bodyBytes)
	}

	httpReq, err := http.NewRequest(method, c.BaseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if c.Token != "" {
		httpReq.Header.Add("Authorization", fmt.Sprintf("Bearer %s", c.Token))
	}
	httpReq.Header.Add("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		message := string(respBody)
		var apiErr api.ErrorResponse
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error != "" {
			message = apiErr.Error
		}
		return &APIError{StatusCode: resp.StatusCode, Message: message}
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
	}

	return nil
}

// Login sends POST /auth/login and returns the issued token.
func (c *BridgeClient) Login(req api.LoginRequest) (*api.LoginResponse, error) {
	var result api.LoginResponse
	if err := c.do(http.MethodPost, "/auth/login", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ListContracts sends GET /contracts, or GET /admin/contracts when all is set.
func (c *BridgeClient) ListContracts(all bool, limit, offset int) ([]api.ContractResponse, error) {
	path := "/contracts"
	if all {
		path = fmt.Sprintf("/admin/contracts?limit=%d&offset=%d", limit, offset)
	}

	var result []api.ContractResponse
	if err := c.do(http.MethodGet, path, nil, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// GetContract sends GET /contracts/{id} to retrieve contract details.
func (c *BridgeClient) GetContract(contractID string) (*api.ContractResponse, error) {
	var result api.ContractResponse
	if err := c.do(http.MethodGet, "/contracts/"+contractID, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// RefundContract sends POST /contracts/{id}/refund.
func (c *BridgeClient) RefundContract(contractID string, req api.ProcessRefundRequest) (*api.RefundResponse, error) {
	var result api.RefundResponse
	if err := c.do(http.MethodPost, "/contracts/"+contractID+"/refund", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ListJobs sends GET /jobs to browse open postings.
func (c *BridgeClient) ListJobs(limit, offset int) ([]api.JobResponse, error) {
	var result []api.JobResponse
	if err := c.do(http.MethodGet, fmt.Sprintf("/jobs?limit=%d&offset=%d", limit, offset), nil, &result); err != nil {
		return nil, err
	}
	return result, nil
}
