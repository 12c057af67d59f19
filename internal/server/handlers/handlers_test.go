package handlers

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"time"

	"talentbridge/internal/mailer"
	"talentbridge/internal/notify"
	"talentbridge/internal/payment"
	"talentbridge/internal/store"
	"talentbridge/internal/throttle"

	"github.com/google/uuid"
)

// Mock transaction
type mockTx struct{}

func (m *mockTx) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return nil, nil
}
func (m *mockTx) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return nil, nil
}
func (m *mockTx) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return nil
}

func (m *mockTx) Commit() error { return nil }

func (m *mockTx) Rollback() error { return nil }

// Mock Store
type mockStore struct {
	beginTxErr error
	pingErr    error

	// User Hooks
	usersByID      map[uuid.UUID]*store.User
	getUserErr     error
	getByEmailResp *store.User
	getByEmailErr  error

	// Job Hooks
	createJobErr       error
	getJobByIDResp     *store.Job
	getJobByIDErr      error
	listOpenJobsResp   []store.Job
	listOpenJobsErr    error
	updateJobErr       error
	setJobStatusErr    error
	incrementCountErr  error
	capturedJobStatus  store.JobStatus
	setJobStatusCalled bool

	// Application Hooks
	createApplicationErr error
	getApplicationResp   *store.Application
	getApplicationErr    error
	setAppStatusErr      error

	// Contract Hooks
	createContractErr    error
	capturedContract     *store.Contract
	getContractResp      *store.Contract
	getContractErr       error
	listByPartyResp      []store.Contract
	listByPartyErr       error
	listAllResp          []store.Contract
	listAllErr           error
	setApprovalErr       error
	capturedBothApproved bool
	markPaidErr          error
	markPaidCalled       bool
	capturedPaymentID    string
	markRefundedErr      error
	markRefundedCalled   bool
	capturedRefundID     string
	capturedRefundReason string

	// Ledger Hooks
	ledgerResp        *store.AttemptLedger
	ledgerErr         error
	upsertFailureErr  error
	failuresRecorded  int
	lockStamped       bool
	clearCalled       bool
	capturedLastError string

	// Notification Hooks
	notificationsCreated  int
	listNotificationsResp []store.Notification
	markReadErr           error

	// Scout Hooks
	createScoutErr error
	getScoutResp   *store.Scout
	getScoutErr    error
	setScoutErr    error

	// Conversation Hooks
	createConversationErr error
	getConversationResp   *store.Conversation
	getConversationErr    error
	addMessageErr         error
	listMessagesResp      []store.Message
}

func (m *mockStore) BeginTx(ctx context.Context) (store.Tx, error) {
	if m.beginTxErr != nil {
		return nil, m.beginTxErr
	}
	return &mockTx{}, nil
}

func (m *mockStore) Ping(ctx context.Context) error {
	return m.pingErr
}

func (m *mockStore) CreateUser(ctx context.Context, user *store.User) error {
	return nil
}

func (m *mockStore) GetUserByID(ctx context.Context, id uuid.UUID) (*store.User, error) {
	if m.getUserErr != nil {
		return nil, m.getUserErr
	}
	if user, ok := m.usersByID[id]; ok {
		return user, nil
	}
	return nil, store.ErrNotFound
}

func (m *mockStore) GetUserByEmail(ctx context.Context, email string) (*store.User, error) {
	return m.getByEmailResp, m.getByEmailErr
}

func (m *mockStore) CreateJob(ctx context.Context, tx store.DBTransaction, job *store.Job) error {
	return m.createJobErr
}

func (m *mockStore) GetJobByID(ctx context.Context, id uuid.UUID) (*store.Job, error) {
	if m.getJobByIDErr != nil {
		return nil, m.getJobByIDErr
	}
	if m.getJobByIDResp == nil {
		return nil, store.ErrNotFound
	}
	return m.getJobByIDResp, nil
}

func (m *mockStore) ListOpenJobs(ctx context.Context, limit, offset int) ([]store.Job, error) {
	return m.listOpenJobsResp, m.listOpenJobsErr
}

func (m *mockStore) ListJobsByCompany(ctx context.Context, companyID uuid.UUID) ([]store.Job, error) {
	return nil, nil
}

func (m *mockStore) UpdateJob(ctx context.Context, tx store.DBTransaction, job *store.Job) error {
	return m.updateJobErr
}

func (m *mockStore) SetJobStatus(ctx context.Context, tx store.DBTransaction, id uuid.UUID, status store.JobStatus) error {
	m.setJobStatusCalled = true
	m.capturedJobStatus = status
	return m.setJobStatusErr
}

func (m *mockStore) IncrementApplicationCount(ctx context.Context, tx store.DBTransaction, id uuid.UUID) error {
	return m.incrementCountErr
}

func (m *mockStore) CreateApplication(ctx context.Context, tx store.DBTransaction, app *store.Application) error {
	return m.createApplicationErr
}

func (m *mockStore) GetApplicationByID(ctx context.Context, id uuid.UUID) (*store.Application, error) {
	return m.getApplicationResp, m.getApplicationErr
}

func (m *mockStore) ListApplicationsByEngineer(ctx context.Context, engineerID uuid.UUID) ([]store.Application, error) {
	return nil, nil
}

func (m *mockStore) ListApplicationsByJob(ctx context.Context, jobID uuid.UUID) ([]store.Application, error) {
	return nil, nil
}

func (m *mockStore) SetApplicationStatus(ctx context.Context, tx store.DBTransaction, id uuid.UUID, status store.ApplicationStatus) error {
	return m.setAppStatusErr
}

func (m *mockStore) CreateContract(ctx context.Context, tx store.DBTransaction, contract *store.Contract) error {
	m.capturedContract = contract
	return m.createContractErr
}

func (m *mockStore) GetContractByID(ctx context.Context, id uuid.UUID) (*store.Contract, error) {
	return m.getContractResp, m.getContractErr
}

func (m *mockStore) ListContractsByParty(ctx context.Context, userID uuid.UUID) ([]store.Contract, error) {
	return m.listByPartyResp, m.listByPartyErr
}

func (m *mockStore) ListAllContracts(ctx context.Context, limit, offset int) ([]store.Contract, error) {
	return m.listAllResp, m.listAllErr
}

func (m *mockStore) SetApproval(ctx context.Context, tx store.DBTransaction, id uuid.UUID, expected store.ContractStatus, byEngineer bool, bothApproved bool) error {
	m.capturedBothApproved = bothApproved
	return m.setApprovalErr
}

func (m *mockStore) MarkPaid(ctx context.Context, tx store.DBTransaction, id uuid.UUID, paymentID, paymentMethod string) error {
	m.markPaidCalled = true
	m.capturedPaymentID = paymentID
	return m.markPaidErr
}

func (m *mockStore) MarkRefunded(ctx context.Context, tx store.DBTransaction, id uuid.UUID, refundID, reason string) error {
	m.markRefundedCalled = true
	m.capturedRefundID = refundID
	m.capturedRefundReason = reason
	return m.markRefundedErr
}

func (m *mockStore) GetLedger(ctx context.Context, namespace, subjectKey string) (*store.AttemptLedger, error) {
	if m.ledgerErr != nil {
		return nil, m.ledgerErr
	}
	if m.ledgerResp == nil {
		return nil, store.ErrNotFound
	}
	return m.ledgerResp, nil
}

func (m *mockStore) UpsertFailure(ctx context.Context, namespace, subjectKey, lastError, relatedID string) error {
	m.failuresRecorded++
	m.capturedLastError = lastError
	return m.upsertFailureErr
}

func (m *mockStore) SetLockedUntil(ctx context.Context, namespace, subjectKey string, lockedUntil time.Time) error {
	m.lockStamped = true
	return nil
}

func (m *mockStore) ClearLedger(ctx context.Context, namespace, subjectKey string) error {
	m.clearCalled = true
	return nil
}

func (m *mockStore) CreateNotification(ctx context.Context, n *store.Notification) error {
	m.notificationsCreated++
	return nil
}

func (m *mockStore) ListNotificationsByUser(ctx context.Context, userID uuid.UUID, limit int) ([]store.Notification, error) {
	return m.listNotificationsResp, nil
}

func (m *mockStore) MarkNotificationRead(ctx context.Context, id, userID uuid.UUID) error {
	return m.markReadErr
}

func (m *mockStore) CreateScout(ctx context.Context, scout *store.Scout) error {
	return m.createScoutErr
}

func (m *mockStore) GetScoutByID(ctx context.Context, id uuid.UUID) (*store.Scout, error) {
	return m.getScoutResp, m.getScoutErr
}

func (m *mockStore) ListScoutsByEngineer(ctx context.Context, engineerID uuid.UUID) ([]store.Scout, error) {
	return nil, nil
}

func (m *mockStore) ListScoutsByCompany(ctx context.Context, companyID uuid.UUID) ([]store.Scout, error) {
	return nil, nil
}

func (m *mockStore) SetScoutStatus(ctx context.Context, id uuid.UUID, status store.ScoutStatus) error {
	return m.setScoutErr
}

func (m *mockStore) CreateConversation(ctx context.Context, c *store.Conversation) error {
	return m.createConversationErr
}

func (m *mockStore) GetConversationByID(ctx context.Context, id uuid.UUID) (*store.Conversation, error) {
	return m.getConversationResp, m.getConversationErr
}

func (m *mockStore) ListConversationsByUser(ctx context.Context, userID uuid.UUID) ([]store.Conversation, error) {
	return nil, nil
}

func (m *mockStore) AddMessage(ctx context.Context, msg *store.Message) error {
	return m.addMessageErr
}

func (m *mockStore) ListMessages(ctx context.Context, conversationID uuid.UUID, limit int) ([]store.Message, error) {
	return m.listMessagesResp, nil
}

// Mock Gateway
type mockGateway struct {
	createChargeResp  *payment.Charge
	createChargeErr   error
	createChargeCalls int

	retrieveResp  *payment.Charge
	retrieveErr   error
	retrieveCalls int

	refundID    string
	refundErr   error
	refundCalls int
}

func (m *mockGateway) CreateCharge(ctx context.Context, req payment.ChargeRequest) (*payment.Charge, error) {
	m.createChargeCalls++
	return m.createChargeResp, m.createChargeErr
}

func (m *mockGateway) RetrieveCharge(ctx context.Context, chargeID string) (*payment.Charge, error) {
	m.retrieveCalls++
	return m.retrieveResp, m.retrieveErr
}

func (m *mockGateway) RefundCharge(ctx context.Context, chargeID string) (string, error) {
	m.refundCalls++
	return m.refundID, m.refundErr
}

// Mock identity provider
type mockVerifier struct {
	user *store.User
	err  error
}

func (m *mockVerifier) Verify(ctx context.Context, email, password string) (*store.User, error) {
	return m.user, m.err
}

const testAdminEmail = "admin@talentbridge.example"

func newTestHandlers(m *mockStore, gw *mockGateway, verifier CredentialVerifier) *Handlers {
	discard := slog.New(slog.NewTextHandler(io.Discard, nil))
	if gw == nil {
		gw = &mockGateway{}
	}
	if verifier == nil {
		verifier = &mockVerifier{err: context.Canceled}
	}
	return New(
		m,
		gw,
		mailer.Noop{},
		notify.NewSink(m, discard),
		throttle.New(m, discard, throttle.NamespacePayment, 5, 30*time.Minute),
		throttle.New(m, discard, throttle.NamespaceLogin, 5, 15*time.Minute),
		verifier,
		discard,
		Config{
			AdminEmail: testAdminEmail,
			Currency:   "jpy",
			JWTSecret:  "test-secret",
		},
	)
}
