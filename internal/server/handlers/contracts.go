package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"talentbridge/internal/logger"
	"talentbridge/internal/notify"
	"talentbridge/internal/payment"
	"talentbridge/internal/server/middleware"
	"talentbridge/internal/store"
	"talentbridge/pkg/api"

	"github.com/google/uuid"
)

// feeAmount computes the platform fee in minor units, rounded half-up.
// Computed once at proposal time and never recomputed.
func feeAmount(contractAmount int64, feePercentage int) int64 {
	return (contractAmount*int64(feePercentage) + 50) / 100
}

// ProposeContract handles POST /contracts.
// Either party proposes a contract against an application; the initial
// status awaits the counterpart's approval.
func (h *Handlers) ProposeContract(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	identity, ok := middleware.IdentityFromContext(ctx)
	if !ok {
		h.httpError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req api.ProposeContractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.httpError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	applicationID, err := uuid.Parse(req.ApplicationID)
	if err != nil {
		h.httpError(w, "Invalid application id", http.StatusBadRequest)
		return
	}
	if req.ContractAmount <= 0 {
		h.httpError(w, "Contract amount must be positive", http.StatusBadRequest)
		return
	}

	application, err := h.store.GetApplicationByID(ctx, applicationID)
	if err != nil {
		h.httpError(w, "Application not found", http.StatusNotFound)
		return
	}

	job, err := h.store.GetJobByID(ctx, application.JobID)
	if err != nil {
		h.httpError(w, "Related job not found", http.StatusNotFound)
		return
	}

	// Only the application's engineer or the job's company may propose.
	var status store.ContractStatus
	switch identity.UserType {
	case store.UserTypeEngineer:
		if identity.UserID != application.EngineerID {
			h.httpError(w, "Forbidden", http.StatusForbidden)
			return
		}
		status = store.ContractStatusPendingCompany
	case store.UserTypeCompany:
		if identity.UserID != job.CompanyID {
			h.httpError(w, "Forbidden", http.StatusForbidden)
			return
		}
		status = store.ContractStatusPendingEngineer
	default:
		h.httpError(w, "Forbidden", http.StatusForbidden)
		return
	}

	now := time.Now().UTC()
	contract := &store.Contract{
		ID:                 uuid.New(),
		ApplicationID:      applicationID,
		JobID:              job.ID,
		EngineerID:         application.EngineerID,
		CompanyID:          job.CompanyID,
		Status:             status,
		InitiatedBy:        identity.UserType,
		ContractAmount:     req.ContractAmount,
		FeePercentage:      api.DefaultFeePercentage,
		FeeAmount:          feeAmount(req.ContractAmount, api.DefaultFeePercentage),
		ApprovedByEngineer: identity.UserType == store.UserTypeEngineer,
		ApprovedByCompany:  identity.UserType == store.UserTypeCompany,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := h.store.CreateContract(ctx, nil, contract); err != nil {
		h.httpError(w, "Failed to create contract", http.StatusInternalServerError)
		return
	}

	counterpart := contract.CompanyID
	if identity.UserType == store.UserTypeCompany {
		counterpart = contract.EngineerID
	}
	h.notifier.Notify(ctx, counterpart, notify.TypeContract,
		"New contract proposal",
		fmt.Sprintf("A contract has been proposed for %q.", job.Title),
		"/contracts/"+contract.ID.String(), contract.ID.String())

	h.respondJson(w, http.StatusOK, h.enrichContract(ctx, contract, identity.UserType))
}

// ApproveContract handles PUT /contracts/{id}/approve.
// The counterpart approves; once both sides have approved the contract
// moves to pending_payment.
func (h *Handlers) ApproveContract(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	identity, ok := middleware.IdentityFromContext(ctx)
	if !ok {
		h.httpError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	contractID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		h.httpError(w, "Invalid contract id", http.StatusBadRequest)
		return
	}

	contract, err := h.store.GetContractByID(ctx, contractID)
	if err != nil {
		h.httpError(w, "Contract not found", http.StatusNotFound)
		return
	}

	// Only the party the contract is pending on may approve it.
	var byEngineer bool
	switch contract.Status {
	case store.ContractStatusPendingEngineer:
		if identity.UserID != contract.EngineerID {
			h.httpError(w, "Forbidden", http.StatusForbidden)
			return
		}
		byEngineer = true
	case store.ContractStatusPendingCompany:
		if identity.UserID != contract.CompanyID {
			h.httpError(w, "Forbidden", http.StatusForbidden)
			return
		}
	default:
		h.httpError(w, "Contract is not awaiting approval", http.StatusBadRequest)
		return
	}

	bothApproved := (byEngineer && contract.ApprovedByCompany) || (!byEngineer && contract.ApprovedByEngineer)

	err = h.store.SetApproval(ctx, nil, contractID, contract.Status, byEngineer, bothApproved)
	if errors.Is(err, store.ErrStatusConflict) {
		h.httpError(w, "Contract is not awaiting approval", http.StatusBadRequest)
		return
	}
	if err != nil {
		h.httpError(w, "Failed to approve contract", http.StatusInternalServerError)
		return
	}

	counterpart := contract.CompanyID
	if !byEngineer {
		counterpart = contract.EngineerID
	}
	message := "The contract proposal has been approved."
	if bothApproved {
		message = "Both parties approved the contract. It is now awaiting the platform-fee payment."
	}
	h.notifier.Notify(ctx, counterpart, notify.TypeContract, "Contract approved", message,
		"/contracts/"+contract.ID.String(), contract.ID.String())

	refreshed, err := h.store.GetContractByID(ctx, contractID)
	if err != nil {
		h.httpError(w, "Failed to load contract", http.StatusInternalServerError)
		return
	}

	h.respondJson(w, http.StatusOK, h.enrichContract(ctx, refreshed, identity.UserType))
}

// ProcessPayment handles POST /contracts/{id}/payment.
// The company pays the platform fee; the contract amount itself is settled
// between the parties outside this system.
func (h *Handlers) ProcessPayment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx, h.logger)

	identity, ok := middleware.IdentityFromContext(ctx)
	if !ok {
		h.httpError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	if identity.UserType != store.UserTypeCompany {
		h.httpError(w, "Only companies can process payments", http.StatusForbidden)
		return
	}

	contractID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		h.httpError(w, "Invalid contract id", http.StatusBadRequest)
		return
	}

	var req api.ProcessPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PaymentToken == "" {
		h.httpError(w, "Payment token is required", http.StatusBadRequest)
		return
	}

	// Throttle check comes before any gateway traffic.
	decision, err := h.payments.CheckAllowed(ctx, identity.UserID.String())
	if err != nil {
		// Ledger reads failing open keeps the payment path available.
		log.Error("payment throttle check failed", "user_id", identity.UserID, "error", err)
		decision.Allowed = true
	}
	if !decision.Allowed {
		h.metrics.add(ctx, h.metrics.paymentsThrottled)
		h.rateLimited(w,
			fmt.Sprintf("Too many failed payment attempts. Try again in %d minutes.", decision.RemainingMinutes),
			decision.RemainingMinutes)
		return
	}

	contract, err := h.store.GetContractByID(ctx, contractID)
	if err != nil {
		h.httpError(w, "Contract not found", http.StatusNotFound)
		return
	}
	if contract.CompanyID != identity.UserID {
		h.httpError(w, "Forbidden", http.StatusForbidden)
		return
	}
	if contract.Status != store.ContractStatusPendingPayment || contract.PaidAt != nil {
		h.httpError(w, "Contract is not awaiting payment", http.StatusBadRequest)
		return
	}

	charge, err := h.gateway.CreateCharge(ctx, payment.ChargeRequest{
		AmountMinor: contract.FeeAmount,
		Currency:    h.cfg.Currency,
		Token:       req.PaymentToken,
		Description: fmt.Sprintf("Platform fee for contract %s", contract.ID),
		Metadata: map[string]string{
			"contract_id": contract.ID.String(),
			"job_id":      contract.JobID.String(),
		},
	})
	if err != nil {
		h.metrics.add(ctx, h.metrics.paymentsFailed)
		h.payments.RecordFailure(ctx, identity.UserID.String(), err.Error(), contract.ID.String())

		var chargeErr *payment.ChargeError
		if errors.As(err, &chargeErr) {
			// The gateway's human-readable message goes back verbatim.
			h.httpError(w, chargeErr.Message, http.StatusPaymentRequired)
			return
		}
		log.Error("charge creation failed", "contract_id", contract.ID, "error", err)
		h.httpError(w, "Payment could not be processed. Please try again later.", http.StatusInternalServerError)
		return
	}

	h.payments.Clear(ctx, identity.UserID.String())

	err = h.store.MarkPaid(ctx, nil, contract.ID, charge.ID, charge.CardBrand)
	if errors.Is(err, store.ErrStatusConflict) {
		// Another submission won the transition after our precondition read.
		h.httpError(w, "Contract is not awaiting payment", http.StatusBadRequest)
		return
	}
	if err != nil {
		log.Error("failed to persist payment", "contract_id", contract.ID, "charge_id", charge.ID, "error", err)
		h.httpError(w, "Failed to record payment", http.StatusInternalServerError)
		return
	}

	h.metrics.add(ctx, h.metrics.paymentsSucceeded)

	// The contract mutation is authoritative from here on; everything below
	// is best-effort bookkeeping that must not change the response.
	if err := h.store.SetJobStatus(ctx, nil, contract.JobID, store.JobStatusClosed); err != nil {
		log.Error("failed to close job after payment", "job_id", contract.JobID, "error", err)
	}

	h.notifier.Notify(ctx, contract.EngineerID, notify.TypePayment,
		"Contract payment completed",
		"The platform fee has been paid. The contract is now active.",
		"/contracts/"+contract.ID.String(), contract.ID.String())

	h.sendPaymentEmails(r, contract)

	refreshed, err := h.store.GetContractByID(ctx, contract.ID)
	if err != nil {
		log.Error("failed to reload contract after payment", "contract_id", contract.ID, "error", err)
		refreshed = contract
	}

	h.respondJson(w, http.StatusOK, api.PaymentResponse{
		Message:  "Payment completed. The platform fee has been charged.",
		Contract: h.enrichContract(ctx, refreshed, identity.UserType),
	})
}

// sendPaymentEmails composes and sends the confirmation emails to both
// parties. The three record lookups run concurrently; send failures are
// logged and never surfaced to the caller.
func (h *Handlers) sendPaymentEmails(r *http.Request, contract *store.Contract) {
	ctx := r.Context()
	log := logger.FromContext(ctx, h.logger)

	var (
		wg       sync.WaitGroup
		engineer *store.User
		company  *store.User
		job      *store.Job
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		engineer, _ = h.store.GetUserByID(ctx, contract.EngineerID)
	}()
	go func() {
		defer wg.Done()
		company, _ = h.store.GetUserByID(ctx, contract.CompanyID)
	}()
	go func() {
		defer wg.Done()
		job, _ = h.store.GetJobByID(ctx, contract.JobID)
	}()
	wg.Wait()

	jobTitle := unknownPlaceholder
	if job != nil {
		jobTitle = job.Title
	}

	subject := fmt.Sprintf("Contract payment completed: %s", jobTitle)
	body := fmt.Sprintf(
		"The platform fee for the contract on %q has been paid. The contract is now active.",
		jobTitle)

	for _, recipient := range []*store.User{engineer, company} {
		if recipient == nil {
			continue
		}
		if err := h.mail.Send(ctx, recipient.Email, subject, body); err != nil {
			log.Error("failed to send payment confirmation email",
				"to", recipient.Email, "contract_id", contract.ID, "error", err)
		}
	}
}

// ProcessRefund handles POST /contracts/{id}/refund. Admin-only.
func (h *Handlers) ProcessRefund(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx, h.logger)

	identity, ok := middleware.IdentityFromContext(ctx)
	if !ok {
		h.httpError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	if identity.Email != h.cfg.AdminEmail {
		h.httpError(w, "Forbidden", http.StatusForbidden)
		return
	}

	contractID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		h.httpError(w, "Invalid contract id", http.StatusBadRequest)
		return
	}

	var req api.ProcessRefundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.httpError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	contract, err := h.store.GetContractByID(ctx, contractID)
	if err != nil {
		h.httpError(w, "Contract not found", http.StatusNotFound)
		return
	}
	if contract.Status != store.ContractStatusPaid {
		h.httpError(w, "Contract is not in a refundable state", http.StatusBadRequest)
		return
	}
	if contract.PaymentID == nil || *contract.PaymentID != req.PaymentID {
		h.httpError(w, "Payment ID does not match this contract", http.StatusBadRequest)
		return
	}
	if contract.RefundedAt != nil {
		h.httpError(w, "Contract has already been refunded", http.StatusBadRequest)
		return
	}

	// Check current gateway state first: the charge may have been refunded
	// out-of-band and only needs reconciling here.
	charge, err := h.gateway.RetrieveCharge(ctx, *contract.PaymentID)
	if err != nil {
		log.Error("failed to retrieve charge state", "charge_id", *contract.PaymentID, "error", err)
		h.httpError(w, "Failed to retrieve the charge from the payment gateway", http.StatusBadGateway)
		return
	}

	var refundID string
	reconciled := charge.Refunded
	if reconciled {
		if len(charge.RefundIDs) > 0 {
			refundID = charge.RefundIDs[0]
		} else {
			refundID = payment.PlaceholderRefundID(*contract.PaymentID)
		}
	} else {
		refundID, err = h.gateway.RefundCharge(ctx, *contract.PaymentID)
		if err != nil {
			var chargeErr *payment.ChargeError
			if errors.As(err, &chargeErr) {
				h.httpError(w, chargeErr.Message, http.StatusPaymentRequired)
				return
			}
			log.Error("refund failed", "charge_id", *contract.PaymentID, "error", err)
			h.httpError(w, "Refund could not be processed. Please try again later.", http.StatusInternalServerError)
			return
		}
		if refundID == "" {
			h.httpError(w, "Refund was not created", http.StatusInternalServerError)
			return
		}
	}

	err = h.store.MarkRefunded(ctx, nil, contract.ID, refundID, req.Reason)
	if errors.Is(err, store.ErrStatusConflict) {
		h.httpError(w, "Contract has already been refunded", http.StatusBadRequest)
		return
	}
	if err != nil {
		log.Error("failed to persist refund", "contract_id", contract.ID, "refund_id", refundID, "error", err)
		h.httpError(w, "Failed to record refund", http.StatusInternalServerError)
		return
	}

	if reconciled {
		h.metrics.add(ctx, h.metrics.refundsReconciled)
	} else {
		h.metrics.add(ctx, h.metrics.refundsProcessed)
	}

	for _, party := range []uuid.UUID{contract.EngineerID, contract.CompanyID} {
		h.notifier.Notify(ctx, party, notify.TypeRefund,
			"Contract payment refunded",
			"The platform fee for this contract has been refunded.",
			"/contracts/"+contract.ID.String(), contract.ID.String())
	}

	message := "Refund processed."
	if reconciled {
		message = "Charge was already refunded at the gateway; contract status reconciled."
	}

	refreshed, err := h.store.GetContractByID(ctx, contract.ID)
	if err != nil {
		log.Error("failed to reload contract after refund", "contract_id", contract.ID, "error", err)
		refreshed = contract
	}

	h.respondJson(w, http.StatusOK, api.RefundResponse{
		Message:    message,
		Reconciled: reconciled,
		Contract:   h.enrichContract(ctx, refreshed, identity.UserType),
	})
}

// GetContract handles GET /contracts/{id}.
func (h *Handlers) GetContract(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	identity, ok := middleware.IdentityFromContext(ctx)
	if !ok {
		h.httpError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	contractID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		h.httpError(w, "Invalid contract id", http.StatusBadRequest)
		return
	}

	contract, err := h.store.GetContractByID(ctx, contractID)
	if err != nil {
		h.httpError(w, "Contract not found", http.StatusNotFound)
		return
	}

	isParty := identity.UserID == contract.EngineerID || identity.UserID == contract.CompanyID
	if !isParty && identity.Email != h.cfg.AdminEmail {
		// Mask as 404 so outsiders cannot probe contract ids.
		h.httpError(w, "Contract not found", http.StatusNotFound)
		return
	}

	h.respondJson(w, http.StatusOK, h.enrichContract(ctx, contract, identity.UserType))
}

// ListContracts handles GET /contracts. Returns the caller's contracts.
func (h *Handlers) ListContracts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	identity, ok := middleware.IdentityFromContext(ctx)
	if !ok {
		h.httpError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	contracts, err := h.store.ListContractsByParty(ctx, identity.UserID)
	if err != nil {
		h.httpError(w, "Failed to list contracts", http.StatusInternalServerError)
		return
	}

	resp := make([]api.ContractResponse, 0, len(contracts))
	for i := range contracts {
		resp = append(resp, h.enrichContract(ctx, &contracts[i], identity.UserType))
	}

	h.respondJson(w, http.StatusOK, resp)
}

// ListAllContracts handles GET /admin/contracts. Admin-only reporting scan.
func (h *Handlers) ListAllContracts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	identity, ok := middleware.IdentityFromContext(ctx)
	if !ok {
		h.httpError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	if identity.Email != h.cfg.AdminEmail {
		h.httpError(w, "Forbidden", http.StatusForbidden)
		return
	}

	limit, offset := parsePagination(r, 100)

	contracts, err := h.store.ListAllContracts(ctx, limit, offset)
	if err != nil {
		h.httpError(w, "Failed to list contracts", http.StatusInternalServerError)
		return
	}

	resp := make([]api.ContractResponse, 0, len(contracts))
	for i := range contracts {
		resp = append(resp, contractResponse(&contracts[i]))
	}

	h.respondJson(w, http.StatusOK, resp)
}
