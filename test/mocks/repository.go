package mocks

import (
	"context"
	"time"

	"github.com/verdictapp/verdict/internal/models"
	"github.com/verdictapp/verdict/internal/repository"
)

// MockProfileStore is a simple mock for the profile repository
type MockProfileStore struct {
	CreateFunc        func(ctx context.Context, profile *models.Profile) error
	GetByIDFunc       func(ctx context.Context, id uint) (*models.Profile, error)
	GetByAuthIDFunc   func(ctx context.Context, authID string) (*models.Profile, error)
	DeductCreditsFunc func(ctx context.Context, userID uint, amount int) (int, bool, error)
	AddCreditsFunc    func(ctx context.Context, userID uint, amount int) (int, bool, error)
}

func (m *MockProfileStore) Create(ctx context.Context, profile *models.Profile) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, profile)
	}
	return nil
}

func (m *MockProfileStore) GetByID(ctx context.Context, id uint) (*models.Profile, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *MockProfileStore) GetByAuthID(ctx context.Context, authID string) (*models.Profile, error) {
	if m.GetByAuthIDFunc != nil {
		return m.GetByAuthIDFunc(ctx, authID)
	}
	return nil, nil
}

func (m *MockProfileStore) DeductCredits(ctx context.Context, userID uint, amount int) (int, bool, error) {
	if m.DeductCreditsFunc != nil {
		return m.DeductCreditsFunc(ctx, userID, amount)
	}
	return 0, true, nil
}

func (m *MockProfileStore) AddCredits(ctx context.Context, userID uint, amount int) (int, bool, error) {
	if m.AddCreditsFunc != nil {
		return m.AddCreditsFunc(ctx, userID, amount)
	}
	return 0, true, nil
}

// MockTransactionStore is a simple mock for the credit transaction repository
type MockTransactionStore struct {
	AppendFunc                func(ctx context.Context, tx *models.CreditTransaction) error
	FindBalanceMismatchesFunc func(ctx context.Context) ([]repository.BalanceMismatch, error)
}

func (m *MockTransactionStore) Append(ctx context.Context, tx *models.CreditTransaction) error {
	if m.AppendFunc != nil {
		return m.AppendFunc(ctx, tx)
	}
	return nil
}

func (m *MockTransactionStore) FindBalanceMismatches(ctx context.Context) ([]repository.BalanceMismatch, error) {
	if m.FindBalanceMismatchesFunc != nil {
		return m.FindBalanceMismatchesFunc(ctx)
	}
	return nil, nil
}

// MockRequestStore is a simple mock for the verdict request repository
type MockRequestStore struct {
	CreateFunc              func(ctx context.Context, request *models.VerdictRequest) error
	GetByIDFunc             func(ctx context.Context, id uint) (*models.VerdictRequest, error)
	GetByIDWithVerdictsFunc func(ctx context.Context, id uint) (*models.VerdictRequest, error)
	ListByUserFunc          func(ctx context.Context, userID uint) ([]models.VerdictRequest, error)
	ListOpenForJudgeFunc    func(ctx context.Context, judgeID uint, limit int) ([]models.VerdictRequest, error)
	FillSlotFunc            func(ctx context.Context, requestID uint) (bool, error)
	CancelFunc              func(ctx context.Context, requestID uint) (bool, error)
}

func (m *MockRequestStore) Create(ctx context.Context, request *models.VerdictRequest) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, request)
	}
	return nil
}

func (m *MockRequestStore) GetByID(ctx context.Context, id uint) (*models.VerdictRequest, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *MockRequestStore) GetByIDWithVerdicts(ctx context.Context, id uint) (*models.VerdictRequest, error) {
	if m.GetByIDWithVerdictsFunc != nil {
		return m.GetByIDWithVerdictsFunc(ctx, id)
	}
	return nil, nil
}

func (m *MockRequestStore) ListByUser(ctx context.Context, userID uint) ([]models.VerdictRequest, error) {
	if m.ListByUserFunc != nil {
		return m.ListByUserFunc(ctx, userID)
	}
	return []models.VerdictRequest{}, nil
}

func (m *MockRequestStore) ListOpenForJudge(ctx context.Context, judgeID uint, limit int) ([]models.VerdictRequest, error) {
	if m.ListOpenForJudgeFunc != nil {
		return m.ListOpenForJudgeFunc(ctx, judgeID, limit)
	}
	return []models.VerdictRequest{}, nil
}

func (m *MockRequestStore) FillSlot(ctx context.Context, requestID uint) (bool, error) {
	if m.FillSlotFunc != nil {
		return m.FillSlotFunc(ctx, requestID)
	}
	return true, nil
}

func (m *MockRequestStore) Cancel(ctx context.Context, requestID uint) (bool, error) {
	if m.CancelFunc != nil {
		return m.CancelFunc(ctx, requestID)
	}
	return true, nil
}

// MockVerdictStore is a simple mock for the verdict response repository
type MockVerdictStore struct {
	CreateFunc func(ctx context.Context, verdict *models.VerdictResponse) error
	DeleteFunc func(ctx context.Context, id uint) error
}

func (m *MockVerdictStore) Create(ctx context.Context, verdict *models.VerdictResponse) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, verdict)
	}
	return nil
}

func (m *MockVerdictStore) Delete(ctx context.Context, id uint) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

// MockEarningStore is a simple mock for the judge earning repository
type MockEarningStore struct {
	CreateFunc                 func(ctx context.Context, earning *models.JudgeEarning) error
	GetByVerdictResponseIDFunc func(ctx context.Context, verdictResponseID uint) (*models.JudgeEarning, error)
	ListByJudgeFunc            func(ctx context.Context, judgeID uint) ([]models.JudgeEarning, error)
	SummaryByJudgeFunc         func(ctx context.Context, judgeID uint) (*models.EarningsSummary, error)
	MaturedTotalsByJudgeFunc   func(ctx context.Context, now time.Time) ([]repository.JudgeMaturedTotal, error)
	PromoteMaturedFunc         func(ctx context.Context, now time.Time) (int64, error)
	MarkPaidFunc               func(ctx context.Context, judgeID uint) (int64, error)
}

func (m *MockEarningStore) Create(ctx context.Context, earning *models.JudgeEarning) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, earning)
	}
	return nil
}

func (m *MockEarningStore) GetByVerdictResponseID(ctx context.Context, verdictResponseID uint) (*models.JudgeEarning, error) {
	if m.GetByVerdictResponseIDFunc != nil {
		return m.GetByVerdictResponseIDFunc(ctx, verdictResponseID)
	}
	return nil, nil
}

func (m *MockEarningStore) ListByJudge(ctx context.Context, judgeID uint) ([]models.JudgeEarning, error) {
	if m.ListByJudgeFunc != nil {
		return m.ListByJudgeFunc(ctx, judgeID)
	}
	return []models.JudgeEarning{}, nil
}

func (m *MockEarningStore) SummaryByJudge(ctx context.Context, judgeID uint) (*models.EarningsSummary, error) {
	if m.SummaryByJudgeFunc != nil {
		return m.SummaryByJudgeFunc(ctx, judgeID)
	}
	return &models.EarningsSummary{}, nil
}

func (m *MockEarningStore) MaturedTotalsByJudge(ctx context.Context, now time.Time) ([]repository.JudgeMaturedTotal, error) {
	if m.MaturedTotalsByJudgeFunc != nil {
		return m.MaturedTotalsByJudgeFunc(ctx, now)
	}
	return []repository.JudgeMaturedTotal{}, nil
}

func (m *MockEarningStore) PromoteMatured(ctx context.Context, now time.Time) (int64, error) {
	if m.PromoteMaturedFunc != nil {
		return m.PromoteMaturedFunc(ctx, now)
	}
	return 0, nil
}

func (m *MockEarningStore) MarkPaid(ctx context.Context, judgeID uint) (int64, error) {
	if m.MarkPaidFunc != nil {
		return m.MarkPaidFunc(ctx, judgeID)
	}
	return 0, nil
}

// MockBillingEventStore is a simple mock for the billing event repository
type MockBillingEventStore struct {
	CreateFunc               func(ctx context.Context, event *models.BillingEvent) error
	GetByProviderEventIDFunc func(ctx context.Context, provider, providerEventID string) (*models.BillingEvent, error)
	MarkProcessedFunc        func(ctx context.Context, eventID uint, processingError string) error
}

func (m *MockBillingEventStore) Create(ctx context.Context, event *models.BillingEvent) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, event)
	}
	return nil
}

func (m *MockBillingEventStore) GetByProviderEventID(ctx context.Context, provider, providerEventID string) (*models.BillingEvent, error) {
	if m.GetByProviderEventIDFunc != nil {
		return m.GetByProviderEventIDFunc(ctx, provider, providerEventID)
	}
	return &models.BillingEvent{}, nil
}

func (m *MockBillingEventStore) MarkProcessed(ctx context.Context, eventID uint, processingError string) error {
	if m.MarkProcessedFunc != nil {
		return m.MarkProcessedFunc(ctx, eventID, processingError)
	}
	return nil
}
