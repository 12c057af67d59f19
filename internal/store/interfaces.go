package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a referenced entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrStatusConflict is returned when a conditional status transition finds
// the stored status no longer matches the expected prior status. Handlers
// treat it as an invalid-state error, not a crash.
var ErrStatusConflict = errors.New("status conflict")

// DBTransaction defines the methods shared by *sql.DB and *sql.Tx.
// This allows us to pass either a connection pool or an active transaction
// to the repository methods.
type DBTransaction interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

type Tx interface {
	DBTransaction
	Commit() error
	Rollback() error
}

// UserStore handles marketplace accounts.
type UserStore interface {
	// CreateUser inserts a new account.
	CreateUser(ctx context.Context, user *User) error

	// GetUserByID returns a user by its ID.
	GetUserByID(ctx context.Context, id uuid.UUID) (*User, error)

	// GetUserByEmail returns a user by its email address.
	GetUserByEmail(ctx context.Context, email string) (*User, error)
}

// JobStore handles the persistence of job postings.
type JobStore interface {
	CreateJob(ctx context.Context, tx DBTransaction, job *Job) error

	GetJobByID(ctx context.Context, id uuid.UUID) (*Job, error)

	// ListOpenJobs returns open postings, newest first.
	ListOpenJobs(ctx context.Context, limit, offset int) ([]Job, error)

	// ListJobsByCompany returns all postings owned by a company.
	ListJobsByCompany(ctx context.Context, companyID uuid.UUID) ([]Job, error)

	UpdateJob(ctx context.Context, tx DBTransaction, job *Job) error

	// SetJobStatus unconditionally moves a posting to the given status.
	SetJobStatus(ctx context.Context, tx DBTransaction, id uuid.UUID, status JobStatus) error

	// IncrementApplicationCount bumps the denormalized applicant counter.
	IncrementApplicationCount(ctx context.Context, tx DBTransaction, id uuid.UUID) error
}

// ApplicationStore handles engineer applications against jobs.
type ApplicationStore interface {
	CreateApplication(ctx context.Context, tx DBTransaction, app *Application) error

	GetApplicationByID(ctx context.Context, id uuid.UUID) (*Application, error)

	ListApplicationsByEngineer(ctx context.Context, engineerID uuid.UUID) ([]Application, error)

	ListApplicationsByJob(ctx context.Context, jobID uuid.UUID) ([]Application, error)

	SetApplicationStatus(ctx context.Context, tx DBTransaction, id uuid.UUID, status ApplicationStatus) error
}

// ContractStore handles the contract lifecycle and its payment state.
type ContractStore interface {
	CreateContract(ctx context.Context, tx DBTransaction, contract *Contract) error

	GetContractByID(ctx context.Context, id uuid.UUID) (*Contract, error)

	ListContractsByParty(ctx context.Context, userID uuid.UUID) ([]Contract, error)

	// ListAllContracts is an admin/reporting scan, never on the payment hot path.
	ListAllContracts(ctx context.Context, limit, offset int) ([]Contract, error)

	// SetApproval records one party's approval and, when both sides have
	// approved, moves the contract to pending_payment. The update is
	// conditional on the expected prior status; ErrStatusConflict when the
	// stored status changed underneath.
	SetApproval(ctx context.Context, tx DBTransaction, id uuid.UUID, expected ContractStatus, byEngineer bool, bothApproved bool) error

	// MarkPaid transitions pending_payment -> paid, setting payment fields
	// atomically with the status flip. ErrStatusConflict when the stored
	// status is no longer pending_payment.
	MarkPaid(ctx context.Context, tx DBTransaction, id uuid.UUID, paymentID, paymentMethod string) error

	// MarkRefunded transitions paid -> refunded. ErrStatusConflict when the
	// stored status is no longer paid.
	MarkRefunded(ctx context.Context, tx DBTransaction, id uuid.UUID, refundID, reason string) error
}

// LedgerStore persists attempt-throttle rows.
type LedgerStore interface {
	GetLedger(ctx context.Context, namespace, subjectKey string) (*AttemptLedger, error)

	// UpsertFailure increments the failure counter, creating the row if absent.
	UpsertFailure(ctx context.Context, namespace, subjectKey, lastError, relatedID string) error

	// SetLockedUntil stamps the lockout deadline on an existing row.
	SetLockedUntil(ctx context.Context, namespace, subjectKey string, lockedUntil time.Time) error

	// ClearLedger resets the counter and lockout for a subject.
	ClearLedger(ctx context.Context, namespace, subjectKey string) error
}

// NotificationStore handles user-facing notices.
type NotificationStore interface {
	CreateNotification(ctx context.Context, n *Notification) error

	ListNotificationsByUser(ctx context.Context, userID uuid.UUID, limit int) ([]Notification, error)

	// MarkNotificationRead flips the read flag; scoped by user so one user
	// cannot mark another's notices.
	MarkNotificationRead(ctx context.Context, id, userID uuid.UUID) error
}

// ScoutStore handles company-initiated outreach.
type ScoutStore interface {
	CreateScout(ctx context.Context, scout *Scout) error

	GetScoutByID(ctx context.Context, id uuid.UUID) (*Scout, error)

	ListScoutsByEngineer(ctx context.Context, engineerID uuid.UUID) ([]Scout, error)

	ListScoutsByCompany(ctx context.Context, companyID uuid.UUID) ([]Scout, error)

	SetScoutStatus(ctx context.Context, id uuid.UUID, status ScoutStatus) error
}

// ConversationStore handles message threads.
type ConversationStore interface {
	CreateConversation(ctx context.Context, c *Conversation) error

	GetConversationByID(ctx context.Context, id uuid.UUID) (*Conversation, error)

	ListConversationsByUser(ctx context.Context, userID uuid.UUID) ([]Conversation, error)

	// AddMessage appends a message and refreshes the thread's last-message
	// summary in one transaction.
	AddMessage(ctx context.Context, msg *Message) error

	ListMessages(ctx context.Context, conversationID uuid.UUID, limit int) ([]Message, error)
}
