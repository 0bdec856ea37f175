package mocks

import (
	"context"

	"github.com/verdictapp/verdict/internal/models"
	"github.com/verdictapp/verdict/internal/service/account"
	"github.com/verdictapp/verdict/internal/service/requests"
)

// MockLedger is a simple mock for the credit ledger service
type MockLedger struct {
	DeductFunc func(ctx context.Context, userID uint, amount int, reason string) error
	RefundFunc func(ctx context.Context, userID uint, amount int, reason string) error
	GrantFunc  func(ctx context.Context, userID uint, amount int, reason string) error
}

func (m *MockLedger) Deduct(ctx context.Context, userID uint, amount int, reason string) error {
	if m.DeductFunc != nil {
		return m.DeductFunc(ctx, userID, amount, reason)
	}
	return nil
}

func (m *MockLedger) Refund(ctx context.Context, userID uint, amount int, reason string) error {
	if m.RefundFunc != nil {
		return m.RefundFunc(ctx, userID, amount, reason)
	}
	return nil
}

func (m *MockLedger) Grant(ctx context.Context, userID uint, amount int, reason string) error {
	if m.GrantFunc != nil {
		return m.GrantFunc(ctx, userID, amount, reason)
	}
	return nil
}

// MockEarningsRecorder is a simple mock for the earnings accrual hook
type MockEarningsRecorder struct {
	RecordFunc func(ctx context.Context, verdict *models.VerdictResponse, tier string) (*models.JudgeEarning, error)
}

func (m *MockEarningsRecorder) Record(ctx context.Context, verdict *models.VerdictResponse, tier string) (*models.JudgeEarning, error) {
	if m.RecordFunc != nil {
		return m.RecordFunc(ctx, verdict, tier)
	}
	return &models.JudgeEarning{}, nil
}

// MockNotifier is a simple mock for the webhook notifier
type MockNotifier struct {
	RequestCompletedFunc  func(request *models.VerdictRequest)
	EarningsAvailableFunc func(judgeID uint, amountCents int64)
}

func (m *MockNotifier) RequestCompleted(request *models.VerdictRequest) {
	if m.RequestCompletedFunc != nil {
		m.RequestCompletedFunc(request)
	}
}

func (m *MockNotifier) EarningsAvailable(judgeID uint, amountCents int64) {
	if m.EarningsAvailableFunc != nil {
		m.EarningsAvailableFunc(judgeID, amountCents)
	}
}

// MockAccountService is a simple mock for the account service used by handlers
type MockAccountService struct {
	InitializeUserFunc     func(ctx context.Context, identity account.Identity) (*account.InitResult, error)
	GetProfileByAuthIDFunc func(ctx context.Context, authID string) (*models.Profile, error)
}

func (m *MockAccountService) InitializeUser(ctx context.Context, identity account.Identity) (*account.InitResult, error) {
	if m.InitializeUserFunc != nil {
		return m.InitializeUserFunc(ctx, identity)
	}
	return &account.InitResult{}, nil
}

func (m *MockAccountService) GetProfileByAuthID(ctx context.Context, authID string) (*models.Profile, error) {
	if m.GetProfileByAuthIDFunc != nil {
		return m.GetProfileByAuthIDFunc(ctx, authID)
	}
	return nil, nil
}

// MockRequestService is a simple mock for the request service used by handlers
type MockRequestService struct {
	CreateFunc           func(ctx context.Context, userID uint, payload requests.CreatePayload) (*models.VerdictRequest, error)
	AddJudgeVerdictFunc  func(ctx context.Context, requestID, judgeID uint, payload requests.VerdictPayload) (*models.VerdictRequest, *models.VerdictResponse, error)
	CancelFunc           func(ctx context.Context, requestID, userID uint) (*models.VerdictRequest, error)
	GetByIDFunc          func(ctx context.Context, requestID, callerID uint) (*models.VerdictRequest, error)
	ListOpenForJudgeFunc func(ctx context.Context, judgeID uint, limit int) ([]models.VerdictRequest, error)
	ListByUserFunc       func(ctx context.Context, userID uint) ([]models.VerdictRequest, error)
}

func (m *MockRequestService) Create(ctx context.Context, userID uint, payload requests.CreatePayload) (*models.VerdictRequest, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, userID, payload)
	}
	return nil, nil
}

func (m *MockRequestService) AddJudgeVerdict(ctx context.Context, requestID, judgeID uint, payload requests.VerdictPayload) (*models.VerdictRequest, *models.VerdictResponse, error) {
	if m.AddJudgeVerdictFunc != nil {
		return m.AddJudgeVerdictFunc(ctx, requestID, judgeID, payload)
	}
	return nil, nil, nil
}

func (m *MockRequestService) Cancel(ctx context.Context, requestID, userID uint) (*models.VerdictRequest, error) {
	if m.CancelFunc != nil {
		return m.CancelFunc(ctx, requestID, userID)
	}
	return nil, nil
}

func (m *MockRequestService) GetByID(ctx context.Context, requestID, callerID uint) (*models.VerdictRequest, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, requestID, callerID)
	}
	return nil, nil
}

func (m *MockRequestService) ListOpenForJudge(ctx context.Context, judgeID uint, limit int) ([]models.VerdictRequest, error) {
	if m.ListOpenForJudgeFunc != nil {
		return m.ListOpenForJudgeFunc(ctx, judgeID, limit)
	}
	return []models.VerdictRequest{}, nil
}

func (m *MockRequestService) ListByUser(ctx context.Context, userID uint) ([]models.VerdictRequest, error) {
	if m.ListByUserFunc != nil {
		return m.ListByUserFunc(ctx, userID)
	}
	return []models.VerdictRequest{}, nil
}

// MockEarningsService is a simple mock for the earnings service used by handlers
type MockEarningsService struct {
	SummaryFunc func(ctx context.Context, judgeID uint) (*models.EarningsSummary, error)
}

func (m *MockEarningsService) Summary(ctx context.Context, judgeID uint) (*models.EarningsSummary, error) {
	if m.SummaryFunc != nil {
		return m.SummaryFunc(ctx, judgeID)
	}
	return &models.EarningsSummary{}, nil
}

// MockBillingService is a simple mock for the billing service used by handlers
type MockBillingService struct {
	CreateCheckoutSessionFunc func(ctx context.Context, userID uint, packID string) (string, error)
	HandleWebhookFunc         func(ctx context.Context, payload []byte, signature string) error
}

func (m *MockBillingService) CreateCheckoutSession(ctx context.Context, userID uint, packID string) (string, error) {
	if m.CreateCheckoutSessionFunc != nil {
		return m.CreateCheckoutSessionFunc(ctx, userID, packID)
	}
	return "", nil
}

func (m *MockBillingService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	if m.HandleWebhookFunc != nil {
		return m.HandleWebhookFunc(ctx, payload, signature)
	}
	return nil
}
