package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"talentbridge/internal/payment"
	"talentbridge/internal/server/middleware"
	"talentbridge/internal/store"
	"talentbridge/pkg/api"

	"github.com/google/uuid"
)

func TestFeeAmount(t *testing.T) {
	tests := []struct {
		amount     int64
		percentage int
		want       int64
	}{
		{100000, 10, 10000},
		{333, 10, 33},  // 33.3 rounds down
		{335, 10, 34},  // 33.5 rounds half-up
		{1, 10, 0},     // 0.1 rounds down
		{5, 10, 1},     // 0.5 rounds half-up
		{999999, 10, 100000},
	}

	for _, tt := range tests {
		if got := feeAmount(tt.amount, tt.percentage); got != tt.want {
			t.Errorf("feeAmount(%d, %d) = %d, want %d", tt.amount, tt.percentage, got, tt.want)
		}
	}
}

func TestProposeContract(t *testing.T) {
	engineerID := uuid.New()
	companyID := uuid.New()
	applicationID := uuid.New()
	jobID := uuid.New()

	application := &store.Application{
		ID:         applicationID,
		JobID:      jobID,
		EngineerID: engineerID,
		Status:     store.ApplicationStatusInterested,
	}
	job := &store.Job{
		ID:        jobID,
		CompanyID: companyID,
		Title:     "Backend engineer",
		Status:    store.JobStatusOpen,
	}

	validReq := api.ProposeContractRequest{
		ApplicationID:  applicationID.String(),
		ContractAmount: 500000,
	}
	validBody, _ := json.Marshal(validReq)

	tests := []struct {
		name           string
		identity       middleware.Identity
		body           []byte
		mockSetup      func(*mockStore)
		expectedStatus int
		check          func(*testing.T, *mockStore)
	}{
		{
			name:     "Company Proposes",
			identity: middleware.Identity{UserID: companyID, Email: "co@example.com", UserType: store.UserTypeCompany},
			body:     validBody,
			mockSetup: func(m *mockStore) {
				m.getApplicationResp = application
				m.getJobByIDResp = job
			},
			expectedStatus: http.StatusOK,
			check: func(t *testing.T, m *mockStore) {
				c := m.capturedContract
				if c == nil {
					t.Fatal("expected contract to be created")
				}
				if c.Status != store.ContractStatusPendingEngineer {
					t.Errorf("status = %s, want pending_engineer", c.Status)
				}
				if !c.ApprovedByCompany || c.ApprovedByEngineer {
					t.Errorf("approvals = engineer:%t company:%t, want company only", c.ApprovedByEngineer, c.ApprovedByCompany)
				}
				if c.FeeAmount != 50000 {
					t.Errorf("fee amount = %d, want 50000", c.FeeAmount)
				}
				if m.notificationsCreated != 1 {
					t.Errorf("notifications = %d, want 1", m.notificationsCreated)
				}
			},
		},
		{
			name:     "Engineer Proposes",
			identity: middleware.Identity{UserID: engineerID, Email: "eng@example.com", UserType: store.UserTypeEngineer},
			body:     validBody,
			mockSetup: func(m *mockStore) {
				m.getApplicationResp = application
				m.getJobByIDResp = job
			},
			expectedStatus: http.StatusOK,
			check: func(t *testing.T, m *mockStore) {
				if m.capturedContract.Status != store.ContractStatusPendingCompany {
					t.Errorf("status = %s, want pending_company", m.capturedContract.Status)
				}
			},
		},
		{
			name:     "Stranger Is Forbidden",
			identity: middleware.Identity{UserID: uuid.New(), Email: "other@example.com", UserType: store.UserTypeEngineer},
			body:     validBody,
			mockSetup: func(m *mockStore) {
				m.getApplicationResp = application
				m.getJobByIDResp = job
			},
			expectedStatus: http.StatusForbidden,
		},
		{
			name:           "Non-positive Amount",
			identity:       middleware.Identity{UserID: companyID, Email: "co@example.com", UserType: store.UserTypeCompany},
			body:           []byte(`{"application_id":"` + applicationID.String() + `","contract_amount":0}`),
			mockSetup:      func(m *mockStore) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:     "Application Not Found",
			identity: middleware.Identity{UserID: companyID, Email: "co@example.com", UserType: store.UserTypeCompany},
			body:     validBody,
			mockSetup: func(m *mockStore) {
				m.getApplicationErr = store.ErrNotFound
			},
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockStore{}
			tt.mockSetup(mock)
			h := newTestHandlers(mock, nil, nil)

			req := httptest.NewRequest(http.MethodPost, "/contracts", bytes.NewReader(tt.body))
			req = req.WithContext(middleware.NewContextWithIdentity(req.Context(), tt.identity))

			rr := httptest.NewRecorder()
			h.ProposeContract(rr, req)

			if rr.Code != tt.expectedStatus {
				t.Errorf("status = %d, want %d body: %s", rr.Code, tt.expectedStatus, rr.Body.String())
			}
			if tt.check != nil {
				tt.check(t, mock)
			}
		})
	}
}

func TestApproveContract(t *testing.T) {
	engineerID := uuid.New()
	companyID := uuid.New()
	contractID := uuid.New()

	pendingEngineer := &store.Contract{
		ID:                contractID,
		EngineerID:        engineerID,
		CompanyID:         companyID,
		Status:            store.ContractStatusPendingEngineer,
		ApprovedByCompany: true,
	}

	tests := []struct {
		name           string
		identity       middleware.Identity
		mockSetup      func(*mockStore)
		expectedStatus int
		check          func(*testing.T, *mockStore)
	}{
		{
			name:     "Second Approval Moves To Pending Payment",
			identity: middleware.Identity{UserID: engineerID, Email: "eng@example.com", UserType: store.UserTypeEngineer},
			mockSetup: func(m *mockStore) {
				m.getContractResp = pendingEngineer
			},
			expectedStatus: http.StatusOK,
			check: func(t *testing.T, m *mockStore) {
				if !m.capturedBothApproved {
					t.Error("expected bothApproved to be true")
				}
			},
		},
		{
			name:     "Wrong Party Is Forbidden",
			identity: middleware.Identity{UserID: companyID, Email: "co@example.com", UserType: store.UserTypeCompany},
			mockSetup: func(m *mockStore) {
				m.getContractResp = pendingEngineer
			},
			expectedStatus: http.StatusForbidden,
		},
		{
			name:     "Already Past Approval",
			identity: middleware.Identity{UserID: engineerID, Email: "eng@example.com", UserType: store.UserTypeEngineer},
			mockSetup: func(m *mockStore) {
				m.getContractResp = &store.Contract{
					ID:         contractID,
					EngineerID: engineerID,
					CompanyID:  companyID,
					Status:     store.ContractStatusPendingPayment,
				}
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:     "Status Changed Underneath",
			identity: middleware.Identity{UserID: engineerID, Email: "eng@example.com", UserType: store.UserTypeEngineer},
			mockSetup: func(m *mockStore) {
				m.getContractResp = pendingEngineer
				m.setApprovalErr = store.ErrStatusConflict
			},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockStore{}
			tt.mockSetup(mock)
			h := newTestHandlers(mock, nil, nil)

			mux := http.NewServeMux()
			mux.HandleFunc("PUT /contracts/{id}/approve", h.ApproveContract)

			req := httptest.NewRequest(http.MethodPut, "/contracts/"+contractID.String()+"/approve", nil)
			req = req.WithContext(middleware.NewContextWithIdentity(req.Context(), tt.identity))

			rr := httptest.NewRecorder()
			mux.ServeHTTP(rr, req)

			if rr.Code != tt.expectedStatus {
				t.Errorf("status = %d, want %d body: %s", rr.Code, tt.expectedStatus, rr.Body.String())
			}
			if tt.check != nil {
				tt.check(t, mock)
			}
		})
	}
}

func TestProcessPayment(t *testing.T) {
	engineerID := uuid.New()
	companyID := uuid.New()
	contractID := uuid.New()
	jobID := uuid.New()

	companyIdentity := middleware.Identity{UserID: companyID, Email: "co@example.com", UserType: store.UserTypeCompany}

	pendingPayment := func() *store.Contract {
		return &store.Contract{
			ID:         contractID,
			JobID:      jobID,
			EngineerID: engineerID,
			CompanyID:  companyID,
			Status:     store.ContractStatusPendingPayment,
			FeeAmount:  50000,
		}
	}

	validBody := []byte(`{"payment_token":"tok_visa"}`)

	tests := []struct {
		name           string
		identity       middleware.Identity
		body           []byte
		mockSetup      func(*mockStore)
		gateway        *mockGateway
		expectedStatus int
		expectedInBody string
		check          func(*testing.T, *mockStore, *mockGateway)
	}{
		{
			name:     "Success",
			identity: companyIdentity,
			body:     validBody,
			mockSetup: func(m *mockStore) {
				m.getContractResp = pendingPayment()
			},
			gateway: &mockGateway{
				createChargeResp: &payment.Charge{ID: "ch_123", CardBrand: "visa"},
			},
			expectedStatus: http.StatusOK,
			expectedInBody: "Payment completed. The platform fee has been charged.",
			check: func(t *testing.T, m *mockStore, gw *mockGateway) {
				if gw.createChargeCalls != 1 {
					t.Errorf("gateway calls = %d, want 1", gw.createChargeCalls)
				}
				if !m.markPaidCalled || m.capturedPaymentID != "ch_123" {
					t.Errorf("markPaid called=%t payment_id=%q", m.markPaidCalled, m.capturedPaymentID)
				}
				if !m.clearCalled {
					t.Error("expected throttle ledger to be cleared")
				}
				if !m.setJobStatusCalled || m.capturedJobStatus != store.JobStatusClosed {
					t.Errorf("job close called=%t status=%s", m.setJobStatusCalled, m.capturedJobStatus)
				}
			},
		},
		{
			name:     "Locked Out",
			identity: companyIdentity,
			body:     validBody,
			mockSetup: func(m *mockStore) {
				m.getContractResp = pendingPayment()
				m.ledgerResp = &store.AttemptLedger{FailedAttempts: 5}
			},
			gateway:        &mockGateway{},
			expectedStatus: http.StatusTooManyRequests,
			expectedInBody: "Too many failed payment attempts",
			check: func(t *testing.T, m *mockStore, gw *mockGateway) {
				if gw.createChargeCalls != 0 {
					t.Errorf("gateway calls = %d, want 0 when locked out", gw.createChargeCalls)
				}
				if !m.lockStamped {
					t.Error("expected lockout deadline to be stamped")
				}
			},
		},
		{
			name:     "Ledger Read Fails Open",
			identity: companyIdentity,
			body:     validBody,
			mockSetup: func(m *mockStore) {
				m.getContractResp = pendingPayment()
				m.ledgerErr = errors.New("db down")
			},
			gateway: &mockGateway{
				createChargeResp: &payment.Charge{ID: "ch_456", CardBrand: "mastercard"},
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:     "Card Declined Verbatim",
			identity: companyIdentity,
			body:     validBody,
			mockSetup: func(m *mockStore) {
				m.getContractResp = pendingPayment()
			},
			gateway: &mockGateway{
				createChargeErr: &payment.ChargeError{Message: "Your card was declined.", Code: "card_declined"},
			},
			expectedStatus: http.StatusPaymentRequired,
			expectedInBody: "Your card was declined.",
			check: func(t *testing.T, m *mockStore, gw *mockGateway) {
				if m.failuresRecorded != 1 {
					t.Errorf("failures recorded = %d, want 1", m.failuresRecorded)
				}
				if m.markPaidCalled {
					t.Error("markPaid must not run after a declined charge")
				}
			},
		},
		{
			name:     "Gateway Unreachable Is Generic 500",
			identity: companyIdentity,
			body:     validBody,
			mockSetup: func(m *mockStore) {
				m.getContractResp = pendingPayment()
			},
			gateway: &mockGateway{
				createChargeErr: payment.ErrGatewayUnavailable,
			},
			expectedStatus: http.StatusInternalServerError,
			expectedInBody: "Payment could not be processed",
			check: func(t *testing.T, m *mockStore, gw *mockGateway) {
				if m.failuresRecorded != 1 {
					t.Errorf("failures recorded = %d, want 1", m.failuresRecorded)
				}
			},
		},
		{
			name:     "Not Awaiting Payment",
			identity: companyIdentity,
			body:     validBody,
			mockSetup: func(m *mockStore) {
				paid := pendingPayment()
				paid.Status = store.ContractStatusPaid
				m.getContractResp = paid
			},
			gateway:        &mockGateway{},
			expectedStatus: http.StatusBadRequest,
			check: func(t *testing.T, m *mockStore, gw *mockGateway) {
				if gw.createChargeCalls != 0 {
					t.Errorf("gateway calls = %d, want 0 when precondition fails", gw.createChargeCalls)
				}
			},
		},
		{
			name:     "Concurrent Submission Loses",
			identity: companyIdentity,
			body:     validBody,
			mockSetup: func(m *mockStore) {
				m.getContractResp = pendingPayment()
				m.markPaidErr = store.ErrStatusConflict
			},
			gateway: &mockGateway{
				createChargeResp: &payment.Charge{ID: "ch_123", CardBrand: "visa"},
			},
			expectedStatus: http.StatusBadRequest,
			expectedInBody: "Contract is not awaiting payment",
		},
		{
			name:           "Engineer Is Forbidden",
			identity:       middleware.Identity{UserID: engineerID, Email: "eng@example.com", UserType: store.UserTypeEngineer},
			body:           validBody,
			mockSetup:      func(m *mockStore) {},
			gateway:        &mockGateway{},
			expectedStatus: http.StatusForbidden,
		},
		{
			name:           "Missing Token",
			identity:       companyIdentity,
			body:           []byte(`{}`),
			mockSetup:      func(m *mockStore) {},
			gateway:        &mockGateway{},
			expectedStatus: http.StatusBadRequest,
			expectedInBody: "Payment token is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockStore{}
			tt.mockSetup(mock)
			h := newTestHandlers(mock, tt.gateway, nil)

			mux := http.NewServeMux()
			mux.HandleFunc("POST /contracts/{id}/payment", h.ProcessPayment)

			req := httptest.NewRequest(http.MethodPost, "/contracts/"+contractID.String()+"/payment", bytes.NewReader(tt.body))
			req = req.WithContext(middleware.NewContextWithIdentity(req.Context(), tt.identity))

			rr := httptest.NewRecorder()
			mux.ServeHTTP(rr, req)

			if rr.Code != tt.expectedStatus {
				t.Errorf("status = %d, want %d body: %s", rr.Code, tt.expectedStatus, rr.Body.String())
			}
			if tt.expectedInBody != "" && !strings.Contains(rr.Body.String(), tt.expectedInBody) {
				t.Errorf("body %q does not contain %q", rr.Body.String(), tt.expectedInBody)
			}
			if tt.check != nil {
				tt.check(t, mock, tt.gateway)
			}
		})
	}
}

func TestProcessRefund(t *testing.T) {
	engineerID := uuid.New()
	companyID := uuid.New()
	contractID := uuid.New()

	adminIdentity := middleware.Identity{UserID: uuid.New(), Email: testAdminEmail, UserType: store.UserTypeCompany}

	paymentID := "ch_123"
	paidAt := time.Now().Add(-time.Hour)
	paidContract := func() *store.Contract {
		return &store.Contract{
			ID:         contractID,
			EngineerID: engineerID,
			CompanyID:  companyID,
			Status:     store.ContractStatusPaid,
			PaymentID:  &paymentID,
			PaidAt:     &paidAt,
		}
	}

	validBody := []byte(`{"payment_id":"ch_123","reason":"duplicate charge"}`)

	tests := []struct {
		name           string
		identity       middleware.Identity
		body           []byte
		mockSetup      func(*mockStore)
		gateway        *mockGateway
		expectedStatus int
		expectedInBody string
		check          func(*testing.T, *mockStore, *mockGateway)
	}{
		{
			name:     "Fresh Refund",
			identity: adminIdentity,
			body:     validBody,
			mockSetup: func(m *mockStore) {
				m.getContractResp = paidContract()
			},
			gateway: &mockGateway{
				retrieveResp: &payment.Charge{ID: paymentID, Refunded: false},
				refundID:     "re_1",
			},
			expectedStatus: http.StatusOK,
			expectedInBody: "Refund processed.",
			check: func(t *testing.T, m *mockStore, gw *mockGateway) {
				if gw.refundCalls != 1 {
					t.Errorf("refund calls = %d, want 1", gw.refundCalls)
				}
				if m.capturedRefundID != "re_1" || m.capturedRefundReason != "duplicate charge" {
					t.Errorf("persisted refund = (%q, %q)", m.capturedRefundID, m.capturedRefundReason)
				}
				if m.notificationsCreated != 2 {
					t.Errorf("notifications = %d, want both parties notified", m.notificationsCreated)
				}
			},
		},
		{
			name:     "Reconciles Out-Of-Band Refund",
			identity: adminIdentity,
			body:     validBody,
			mockSetup: func(m *mockStore) {
				m.getContractResp = paidContract()
			},
			gateway: &mockGateway{
				retrieveResp: &payment.Charge{ID: paymentID, Refunded: true, RefundIDs: []string{"re_9"}},
			},
			expectedStatus: http.StatusOK,
			expectedInBody: "contract status reconciled",
			check: func(t *testing.T, m *mockStore, gw *mockGateway) {
				if gw.refundCalls != 0 {
					t.Errorf("refund calls = %d, want 0 when already refunded", gw.refundCalls)
				}
				if m.capturedRefundID != "re_9" {
					t.Errorf("refund id = %q, want re_9", m.capturedRefundID)
				}
			},
		},
		{
			name:     "Reconciles Without Refund Details",
			identity: adminIdentity,
			body:     validBody,
			mockSetup: func(m *mockStore) {
				m.getContractResp = paidContract()
			},
			gateway: &mockGateway{
				retrieveResp: &payment.Charge{ID: paymentID, Refunded: true},
			},
			expectedStatus: http.StatusOK,
			check: func(t *testing.T, m *mockStore, gw *mockGateway) {
				want := payment.PlaceholderRefundID(paymentID)
				if m.capturedRefundID != want {
					t.Errorf("refund id = %q, want placeholder %q", m.capturedRefundID, want)
				}
			},
		},
		{
			name:     "Retrieve Failure Is Bad Gateway",
			identity: adminIdentity,
			body:     validBody,
			mockSetup: func(m *mockStore) {
				m.getContractResp = paidContract()
			},
			gateway: &mockGateway{
				retrieveErr: payment.ErrGatewayUnavailable,
			},
			expectedStatus: http.StatusBadGateway,
			expectedInBody: "Failed to retrieve the charge from the payment gateway",
			check: func(t *testing.T, m *mockStore, gw *mockGateway) {
				if m.markRefundedCalled {
					t.Error("markRefunded must not run when the gateway state is unknown")
				}
			},
		},
		{
			name:     "Payment ID Mismatch",
			identity: adminIdentity,
			body:     []byte(`{"payment_id":"ch_other","reason":"oops"}`),
			mockSetup: func(m *mockStore) {
				m.getContractResp = paidContract()
			},
			gateway:        &mockGateway{},
			expectedStatus: http.StatusBadRequest,
			expectedInBody: "Payment ID does not match",
			check: func(t *testing.T, m *mockStore, gw *mockGateway) {
				if gw.retrieveCalls != 0 {
					t.Errorf("retrieve calls = %d, want 0", gw.retrieveCalls)
				}
			},
		},
		{
			name:     "Not Refundable State",
			identity: adminIdentity,
			body:     validBody,
			mockSetup: func(m *mockStore) {
				pending := paidContract()
				pending.Status = store.ContractStatusPendingPayment
				m.getContractResp = pending
			},
			gateway:        &mockGateway{},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Non-Admin Is Forbidden",
			identity:       middleware.Identity{UserID: companyID, Email: "co@example.com", UserType: store.UserTypeCompany},
			body:           validBody,
			mockSetup:      func(m *mockStore) {},
			gateway:        &mockGateway{},
			expectedStatus: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockStore{}
			tt.mockSetup(mock)
			h := newTestHandlers(mock, tt.gateway, nil)

			mux := http.NewServeMux()
			mux.HandleFunc("POST /contracts/{id}/refund", h.ProcessRefund)

			req := httptest.NewRequest(http.MethodPost, "/contracts/"+contractID.String()+"/refund", bytes.NewReader(tt.body))
			req = req.WithContext(middleware.NewContextWithIdentity(req.Context(), tt.identity))

			rr := httptest.NewRecorder()
			mux.ServeHTTP(rr, req)

			if rr.Code != tt.expectedStatus {
				t.Errorf("status = %d, want %d body: %s", rr.Code, tt.expectedStatus, rr.Body.String())
			}
			if tt.expectedInBody != "" && !strings.Contains(rr.Body.String(), tt.expectedInBody) {
				t.Errorf("body %q does not contain %q", rr.Body.String(), tt.expectedInBody)
			}
			if tt.check != nil {
				tt.check(t, mock, tt.gateway)
			}
		})
	}
}

func TestGetContractMasksOutsiders(t *testing.T) {
	contractID := uuid.New()
	contract := &store.Contract{
		ID:         contractID,
		EngineerID: uuid.New(),
		CompanyID:  uuid.New(),
		Status:     store.ContractStatusPaid,
	}

	mock := &mockStore{getContractResp: contract}
	h := newTestHandlers(mock, nil, nil)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /contracts/{id}", h.GetContract)

	req := httptest.NewRequest(http.MethodGet, "/contracts/"+contractID.String(), nil)
	req = req.WithContext(middleware.NewContextWithIdentity(req.Context(), middleware.Identity{
		UserID: uuid.New(), Email: "stranger@example.com", UserType: store.UserTypeEngineer,
	}))

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404 for non-party caller", rr.Code)
	}
}
