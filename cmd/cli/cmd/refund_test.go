package cmd

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"talentbridge/pkg/api"

	"github.com/spf13/viper"
)

func TestRefundCommand_Success(t *testing.T) {
	resetViper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST method, got %s", r.Method)
		}
		if !strings.HasSuffix(r.URL.Path, "/contracts/contract-1/refund") {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}

		var req api.ProcessRefundRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.PaymentID != "ch_123" {
			t.Errorf("payment id = %s, want ch_123", req.PaymentID)
		}
		if req.Reason != "duplicate charge" {
			t.Errorf("reason = %s, want duplicate charge", req.Reason)
		}

		resp := api.RefundResponse{
			Message:    "Refund processed.",
			Reconciled: false,
			Contract: api.ContractResponse{
				ID:       "contract-1",
				Status:   "refunded",
				RefundID: "re_1",
			},
		}
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	viper.Set("url", server.URL)
	viper.Set("token", "admin-token")

	var stdout bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stdout)
	rootCmd.SetArgs([]string{"refund", "contract-1", "--payment-id", "ch_123", "--reason", "duplicate charge"})

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	output := stdout.String()
	if !strings.Contains(output, "refunded successfully") {
		t.Errorf("expected success message, got: %s", output)
	}
	if !strings.Contains(output, "re_1") {
		t.Errorf("expected refund id in output, got: %s", output)
	}
}

func TestRefundCommand_Reconciled(t *testing.T) {
	resetViper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := api.RefundResponse{
			Message:    "The charge had already been refunded at the payment gateway; the contract has been reconciled.",
			Reconciled: true,
			Contract: api.ContractResponse{
				ID:       "contract-1",
				Status:   "refunded",
				RefundID: "re_from_charge_ch_123",
			},
		}
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	viper.Set("url", server.URL)
	viper.Set("token", "admin-token")

	var stdout bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stdout)
	rootCmd.SetArgs([]string{"refund", "contract-1", "--payment-id", "ch_123", "--reason", "duplicate charge"})

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	output := stdout.String()
	if !strings.Contains(output, "reconciled") {
		t.Errorf("expected reconciled message, got: %s", output)
	}
	if !strings.Contains(output, "re_from_charge_ch_123") {
		t.Errorf("expected placeholder refund id, got: %s", output)
	}
}

func TestRefundCommand_RequiresFlags(t *testing.T) {
	resetViper()
	viper.Set("token", "admin-token")

	var stdout bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stdout)
	// Flag values survive between Execute calls, so blank them explicitly.
	rootCmd.SetArgs([]string{"refund", "contract-1", "--payment-id", "", "--reason", ""})

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(stdout.String(), "--payment-id and --reason are required") {
		t.Errorf("expected flag validation message, got: %s", stdout.String())
	}
}

func TestRefundCommand_PaymentIDMismatch(t *testing.T) {
	resetViper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(api.ErrorResponse{Error: "Payment ID does not match the contract"})
	}))
	defer server.Close()

	viper.Set("url", server.URL)
	viper.Set("token", "admin-token")

	var stdout bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stdout)
	rootCmd.SetArgs([]string{"refund", "contract-1", "--payment-id", "ch_stale", "--reason", "oops"})

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(stdout.String(), "Payment ID does not match the contract") {
		t.Errorf("expected mismatch message, got: %s", stdout.String())
	}
}
