// Package api contains shared JSON request/response structs.
// This package is shared between the CLI and the server.
package api

import "time"

// LoginRequest is the request body for password authentication.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is the response body after a successful login.
type LoginResponse struct {
	Token    string `json:"token"`
	UserID   string `json:"user_id"`
	UserType string `json:"user_type"`
}

// CreateJobRequest is the request body for posting a new job.
type CreateJobRequest struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	Requirements string `json:"requirements,omitempty"`
	Duration     string `json:"duration,omitempty"`
	Budget       *int64 `json:"budget,omitempty"`
}

// UpdateJobRequest is the request body for editing a job posting.
type UpdateJobRequest struct {
	Title        *string `json:"title,omitempty"`
	Description  *string `json:"description,omitempty"`
	Requirements *string `json:"requirements,omitempty"`
	Duration     *string `json:"duration,omitempty"`
	Budget       *int64  `json:"budget,omitempty"`
	Status       *string `json:"status,omitempty"`
}

// JobResponse represents a job posting in API responses.
type JobResponse struct {
	ID               string    `json:"id"`
	CompanyID        string    `json:"company_id"`
	CompanyName      string    `json:"company_name,omitempty"`
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	Requirements     string    `json:"requirements,omitempty"`
	Duration         string    `json:"duration,omitempty"`
	Budget           *int64    `json:"budget,omitempty"`
	Status           string    `json:"status"`
	ApplicationCount int       `json:"application_count"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// ApplyRequest is the request body for applying to a job.
type ApplyRequest struct {
	Message string `json:"message"`
}

// UpdateApplicationStatusRequest moves an application between review states.
type UpdateApplicationStatusRequest struct {
	Status string `json:"status"`
}

// ApplicationResponse represents an application in API responses.
type ApplicationResponse struct {
	ID           string    `json:"id"`
	JobID        string    `json:"job_id"`
	JobTitle     string    `json:"job_title,omitempty"`
	EngineerID   string    `json:"engineer_id"`
	EngineerName string    `json:"engineer_name,omitempty"`
	Message      string    `json:"message"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ProposeContractRequest is the request body for proposing a contract
// against an application.
type ProposeContractRequest struct {
	ApplicationID  string `json:"application_id"`
	ContractAmount int64  `json:"contract_amount"`
}

// ProcessPaymentRequest is the request body for paying the platform fee.
type ProcessPaymentRequest struct {
	PaymentToken string `json:"payment_token"`
}

// ProcessRefundRequest is the request body for refunding a platform fee.
type ProcessRefundRequest struct {
	PaymentID string `json:"payment_id"`
	Reason    string `json:"reason"`
}

// ContractResponse represents a contract in API responses.
type ContractResponse struct {
	ID                 string     `json:"id"`
	ApplicationID      string     `json:"application_id"`
	JobID              string     `json:"job_id"`
	JobTitle           string     `json:"job_title,omitempty"`
	EngineerID         string     `json:"engineer_id"`
	CompanyID          string     `json:"company_id"`
	OtherPartyName     string     `json:"other_party_name,omitempty"`
	Status             string     `json:"status"`
	InitiatedBy        string     `json:"initiated_by"`
	ContractAmount     int64      `json:"contract_amount"`
	FeePercentage      int        `json:"fee_percentage"`
	FeeAmount          int64      `json:"fee_amount"`
	ApprovedByEngineer bool       `json:"approved_by_engineer"`
	ApprovedByCompany  bool       `json:"approved_by_company"`
	PaymentID          string     `json:"payment_id,omitempty"`
	PaymentMethod      string     `json:"payment_method,omitempty"`
	PaidAt             *time.Time `json:"paid_at,omitempty"`
	RefundID           string     `json:"refund_id,omitempty"`
	RefundReason       string     `json:"refund_reason,omitempty"`
	RefundedAt         *time.Time `json:"refunded_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// PaymentResponse wraps the refreshed contract with a confirmation message.
type PaymentResponse struct {
	Message  string           `json:"message"`
	Contract ContractResponse `json:"contract"`
}

// RefundResponse wraps the refreshed contract with a message that
// distinguishes a fresh refund from a reconciled one.
type RefundResponse struct {
	Message    string           `json:"message"`
	Reconciled bool             `json:"reconciled"`
	Contract   ContractResponse `json:"contract"`
}

// CreateScoutRequest is the request body for scouting an engineer.
type CreateScoutRequest struct {
	EngineerID string `json:"engineer_id"`
	JobID      string `json:"job_id,omitempty"`
	Message    string `json:"message"`
}

// UpdateScoutStatusRequest accepts or declines a scout.
type UpdateScoutStatusRequest struct {
	Status string `json:"status"`
}

// ScoutResponse represents a scout in API responses.
type ScoutResponse struct {
	ID          string    `json:"id"`
	CompanyID   string    `json:"company_id"`
	CompanyName string    `json:"company_name,omitempty"`
	EngineerID  string    `json:"engineer_id"`
	JobID       string    `json:"job_id,omitempty"`
	Message     string    `json:"message"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

// StartConversationRequest opens a message thread with another user.
type StartConversationRequest struct {
	RecipientID string `json:"recipient_id"`
	JobID       string `json:"job_id,omitempty"`
}

// SendMessageRequest is the request body for sending a message.
type SendMessageRequest struct {
	Body string `json:"body"`
}

// ConversationResponse represents a message thread in API responses.
type ConversationResponse struct {
	ID            string    `json:"id"`
	EngineerID    string    `json:"engineer_id"`
	CompanyID     string    `json:"company_id"`
	JobID         string    `json:"job_id,omitempty"`
	LastMessage   string    `json:"last_message,omitempty"`
	LastMessageAt time.Time `json:"last_message_at"`
	CreatedAt     time.Time `json:"created_at"`
}

// MessageResponse represents a single message in a thread.
type MessageResponse struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	SenderID       string    `json:"sender_id"`
	Body           string    `json:"body"`
	CreatedAt      time.Time `json:"created_at"`
}

// NotificationResponse represents a notification in API responses.
type NotificationResponse struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Link      string    `json:"link,omitempty"`
	RelatedID string    `json:"related_id,omitempty"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
	// RemainingMinutes is set on 429 responses to tell the caller
	// how long the lockout lasts.
	RemainingMinutes int `json:"remaining_minutes,omitempty"`
}

// DefaultFeePercentage is the platform fee applied at contract proposal time.
const DefaultFeePercentage = 10
