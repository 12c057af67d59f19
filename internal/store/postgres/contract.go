package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"talentbridge/internal/store"

	"github.com/google/uuid"
)

const contractColumns = `id, application_id, job_id, engineer_id, company_id, status, initiated_by,
	contract_amount, fee_percentage, fee_amount, approved_by_engineer, approved_by_company,
	payment_id, payment_method, paid_at, refund_id, refund_reason, refunded_at, created_at, updated_at`

func (s *Store) CreateContract(ctx context.Context, tx store.DBTransaction, contract *store.Contract) error {
	query := `
		INSERT INTO contracts (id, application_id, job_id, engineer_id, company_id, status, initiated_by,
			contract_amount, fee_percentage, fee_amount, approved_by_engineer, approved_by_company, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	executor := s.getExecutor(tx)
	_, err := executor.ExecContext(ctx, query,
		contract.ID,
		contract.ApplicationID,
		contract.JobID,
		contract.EngineerID,
		contract.CompanyID,
		contract.Status,
		contract.InitiatedBy,
		contract.ContractAmount,
		contract.FeePercentage,
		contract.FeeAmount,
		contract.ApprovedByEngineer,
		contract.ApprovedByCompany,
		contract.CreatedAt,
		contract.UpdatedAt,
	)
	return err
}

func (s *Store) GetContractByID(ctx context.Context, id uuid.UUID) (*store.Contract, error) {
	query := "SELECT " + contractColumns + " FROM contracts WHERE id = $1"

	var c store.Contract
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&c.ID, &c.ApplicationID, &c.JobID, &c.EngineerID, &c.CompanyID, &c.Status, &c.InitiatedBy,
		&c.ContractAmount, &c.FeePercentage, &c.FeeAmount, &c.ApprovedByEngineer, &c.ApprovedByCompany,
		&c.PaymentID, &c.PaymentMethod, &c.PaidAt, &c.RefundID, &c.RefundReason, &c.RefundedAt,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &c, nil
}

// ListContractsByParty returns contracts where the user is either side.
func (s *Store) ListContractsByParty(ctx context.Context, userID uuid.UUID) ([]store.Contract, error) {
	query := "SELECT " + contractColumns + " FROM contracts WHERE engineer_id = $1 OR company_id = $1 ORDER BY created_at DESC"
	return s.queryContracts(ctx, query, userID)
}

// ListAllContracts is an admin/reporting scan, never on the payment hot path.
func (s *Store) ListAllContracts(ctx context.Context, limit, offset int) ([]store.Contract, error) {
	if limit <= 0 {
		limit = 100
	}
	query := "SELECT " + contractColumns + " FROM contracts ORDER BY created_at DESC LIMIT $1 OFFSET $2"
	return s.queryContracts(ctx, query, limit, offset)
}

// SetApproval records one party's approval. The status flip to
// pending_payment happens in the same conditional update so a concurrent
// transition cannot be double-applied.
func (s *Store) SetApproval(ctx context.Context, tx store.DBTransaction, id uuid.UUID, expected store.ContractStatus, byEngineer bool, bothApproved bool) error {
	column := "approved_by_company"
	if byEngineer {
		column = "approved_by_engineer"
	}

	newStatus := expected
	if bothApproved {
		newStatus = store.ContractStatusPendingPayment
	}

	query := `
		UPDATE contracts
		SET ` + column + ` = TRUE, status = $1, updated_at = $2
		WHERE id = $3 AND status = $4
	`

	executor := s.getExecutor(tx)
	res, err := executor.ExecContext(ctx, query, newStatus, time.Now().UTC(), id, expected)
	if err != nil {
		return err
	}
	return requireOneRow(res)
}

// MarkPaid transitions pending_payment -> paid. Payment id, method and
// paid_at are written atomically with the status flip; the condition on the
// prior status closes the double-submission race.
func (s *Store) MarkPaid(ctx context.Context, tx store.DBTransaction, id uuid.UUID, paymentID, paymentMethod string) error {
	query := `
		UPDATE contracts
		SET status = $1, payment_id = $2, payment_method = $3, paid_at = $4, updated_at = $4
		WHERE id = $5 AND status = $6 AND paid_at IS NULL
	`

	executor := s.getExecutor(tx)
	res, err := executor.ExecContext(ctx, query,
		store.ContractStatusPaid, paymentID, paymentMethod, time.Now().UTC(),
		id, store.ContractStatusPendingPayment,
	)
	if err != nil {
		return err
	}
	return requireOneRow(res)
}

// MarkRefunded transitions paid -> refunded. A contract can be refunded at
// most once; the refunded_at guard is part of the condition.
func (s *Store) MarkRefunded(ctx context.Context, tx store.DBTransaction, id uuid.UUID, refundID, reason string) error {
	query := `
		UPDATE contracts
		SET status = $1, refund_id = $2, refund_reason = $3, refunded_at = $4, updated_at = $4
		WHERE id = $5 AND status = $6 AND refunded_at IS NULL
	`

	executor := s.getExecutor(tx)
	res, err := executor.ExecContext(ctx, query,
		store.ContractStatusRefunded, refundID, reason, time.Now().UTC(),
		id, store.ContractStatusPaid,
	)
	if err != nil {
		return err
	}
	return requireOneRow(res)
}

func requireOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrStatusConflict
	}
	return nil
}

func (s *Store) queryContracts(ctx context.Context, query string, args ...interface{}) ([]store.Contract, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var contracts []store.Contract
	for rows.Next() {
		var c store.Contract
		if err := rows.Scan(
			&c.ID, &c.ApplicationID, &c.JobID, &c.EngineerID, &c.CompanyID, &c.Status, &c.InitiatedBy,
			&c.ContractAmount, &c.FeePercentage, &c.FeeAmount, &c.ApprovedByEngineer, &c.ApprovedByCompany,
			&c.PaymentID, &c.PaymentMethod, &c.PaidAt, &c.RefundID, &c.RefundReason, &c.RefundedAt,
			&c.CreatedAt, &c.UpdatedAt,
		); err != nil {
			return nil, err
		}
		contracts = append(contracts, c)
	}
	return contracts, rows.Err()
}
