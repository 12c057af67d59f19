// Package store contains the database layer for talentbridge.
package store

import (
	"time"

	"github.com/google/uuid"
)

// UserType distinguishes the two sides of the marketplace.
type UserType string

const (
	UserTypeEngineer UserType = "engineer"
	UserTypeCompany  UserType = "company"
)

// User is a marketplace account, either an engineer or a company.
type User struct {
	ID          uuid.UUID
	Email       string
	DisplayName string
	UserType    UserType
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// JobStatus represents the lifecycle of a job posting.
type JobStatus string

const (
	JobStatusOpen   JobStatus = "open"
	JobStatusFilled JobStatus = "filled"
	JobStatusClosed JobStatus = "closed"
)

// Job is a posting owned by a company.
type Job struct {
	ID               uuid.UUID
	CompanyID        uuid.UUID
	Title            string
	Description      string
	Requirements     string
	Duration         string
	Budget           *int64
	Status           JobStatus
	ApplicationCount int
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// ApplicationStatus represents the company's review state for an application.
type ApplicationStatus string

const (
	ApplicationStatusPending    ApplicationStatus = "pending"
	ApplicationStatusInterested ApplicationStatus = "interested"
	ApplicationStatusPassed     ApplicationStatus = "passed"
)

// Application is an engineer's submission against a job.
type Application struct {
	ID         uuid.UUID
	JobID      uuid.UUID
	EngineerID uuid.UUID
	Message    string
	Status     ApplicationStatus
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// ContractStatus represents the contract lifecycle.
// refunded is terminal.
type ContractStatus string

const (
	ContractStatusPendingEngineer ContractStatus = "pending_engineer"
	ContractStatusPendingCompany  ContractStatus = "pending_company"
	ContractStatusPendingPayment  ContractStatus = "pending_payment"
	ContractStatusPaid            ContractStatus = "paid"
	ContractStatusRefunded        ContractStatus = "refunded"
)

// Contract is the central entity and the sole owner of payment state.
// FeeAmount is computed once at proposal time and never recomputed.
type Contract struct {
	ID                 uuid.UUID
	ApplicationID      uuid.UUID
	JobID              uuid.UUID
	EngineerID         uuid.UUID
	CompanyID          uuid.UUID
	Status             ContractStatus
	InitiatedBy        UserType
	ContractAmount     int64
	FeePercentage      int
	FeeAmount          int64
	ApprovedByEngineer bool
	ApprovedByCompany  bool
	PaymentID          *string
	PaymentMethod      *string
	PaidAt             *time.Time
	RefundID           *string
	RefundReason       *string
	RefundedAt         *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// AttemptLedger is a per-subject failure counter with a time-boxed lockout.
// The same shape backs login throttling (keyed by email) and payment
// throttling (keyed by user id); Namespace keeps the two apart.
type AttemptLedger struct {
	Namespace      string
	SubjectKey     string
	FailedAttempts int
	LastFailedAt   *time.Time
	LastError      string
	LastRelatedID  string
	LockedUntil    *time.Time
	ExpiresAt      time.Time
}

// Notification is write-once except for the read-flag flip.
type Notification struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Type      string
	Title     string
	Message   string
	Link      string
	RelatedID string
	IsRead    bool
	CreatedAt time.Time
}

// ScoutStatus represents the engineer's response to an outreach.
type ScoutStatus string

const (
	ScoutStatusPending  ScoutStatus = "pending"
	ScoutStatusAccepted ScoutStatus = "accepted"
	ScoutStatusDeclined ScoutStatus = "declined"
)

// Scout is a company-initiated outreach to an engineer.
type Scout struct {
	ID         uuid.UUID
	CompanyID  uuid.UUID
	EngineerID uuid.UUID
	JobID      *uuid.UUID
	Message    string
	Status     ScoutStatus
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Conversation is a message thread between an engineer and a company.
type Conversation struct {
	ID            uuid.UUID
	EngineerID    uuid.UUID
	CompanyID     uuid.UUID
	JobID         *uuid.UUID
	LastMessage   string
	LastMessageAt time.Time
	CreatedAt     time.Time
}

// Message is a single entry in a conversation.
type Message struct {
	ID             uuid.UUID
	ConversationID uuid.UUID
	SenderID       uuid.UUID
	Body           string
	CreatedAt      time.Time
}
