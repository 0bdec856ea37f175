package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/verdictapp/verdict/internal/config"
	"github.com/verdictapp/verdict/internal/repository"
	"github.com/verdictapp/verdict/pkg/logger"
)

type mockEarnings struct {
	PromoteMaturedFunc func(ctx context.Context, now time.Time) (int64, error)
}

func (m *mockEarnings) PromoteMatured(ctx context.Context, now time.Time) (int64, error) {
	if m.PromoteMaturedFunc != nil {
		return m.PromoteMaturedFunc(ctx, now)
	}
	return 0, nil
}

type mockTransactions struct {
	FindBalanceMismatchesFunc func(ctx context.Context) ([]repository.BalanceMismatch, error)
}

func (m *mockTransactions) FindBalanceMismatches(ctx context.Context) ([]repository.BalanceMismatch, error) {
	if m.FindBalanceMismatchesFunc != nil {
		return m.FindBalanceMismatchesFunc(ctx)
	}
	return nil, nil
}

func newTestService(cfg *config.SchedulerConfig, earnings EarningsService, ledger TransactionStore) *Service {
	log := logger.New("debug", "text", "stdout")
	return NewService(cfg, earnings, ledger, log)
}

func TestStart_Disabled(t *testing.T) {
	cfg := &config.SchedulerConfig{Enabled: false}
	s := newTestService(cfg, &mockEarnings{}, &mockTransactions{})

	if err := s.Start(); err != nil {
		t.Fatalf("Start() with disabled scheduler returned error: %v", err)
	}
	if s.cron != nil {
		t.Error("Expected no cron instance when scheduler is disabled")
	}

	// Stop on a never-started scheduler must not panic
	s.Stop()
}

func TestStart_InvalidTimezone(t *testing.T) {
	cfg := &config.SchedulerConfig{
		Enabled:            true,
		MaturationSchedule: "@hourly",
		ReconcileSchedule:  "0 3 * * *",
		Timezone:           "Mars/Olympus",
	}
	s := newTestService(cfg, &mockEarnings{}, &mockTransactions{})

	if err := s.Start(); err == nil {
		t.Error("Expected error for invalid timezone")
	}
}

func TestStart_InvalidSchedule(t *testing.T) {
	tests := []struct {
		name       string
		maturation string
		reconcile  string
	}{
		{"bad maturation spec", "not a cron spec", "0 3 * * *"},
		{"bad reconcile spec", "@hourly", "99 99 * * *"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.SchedulerConfig{
				Enabled:            true,
				MaturationSchedule: tt.maturation,
				ReconcileSchedule:  tt.reconcile,
				Timezone:           "UTC",
			}
			s := newTestService(cfg, &mockEarnings{}, &mockTransactions{})

			if err := s.Start(); err == nil {
				t.Error("Expected error for invalid cron spec")
			}
		})
	}
}

func TestStartStop(t *testing.T) {
	cfg := &config.SchedulerConfig{
		Enabled:            true,
		MaturationSchedule: "@hourly",
		ReconcileSchedule:  "0 3 * * *",
		Timezone:           "UTC",
	}
	s := newTestService(cfg, &mockEarnings{}, &mockTransactions{})

	if err := s.Start(); err != nil {
		t.Fatalf("Start() returned error: %v", err)
	}
	if s.cron == nil {
		t.Fatal("Expected a cron instance after Start")
	}

	s.Stop()
}

func TestRunMaturation(t *testing.T) {
	promoteCalls := 0
	earnings := &mockEarnings{
		PromoteMaturedFunc: func(ctx context.Context, now time.Time) (int64, error) {
			promoteCalls++
			if time.Since(now) > time.Minute {
				t.Errorf("Expected promotion cutoff near current time, got %v", now)
			}
			return 3, nil
		},
	}
	s := newTestService(&config.SchedulerConfig{}, earnings, &mockTransactions{})

	s.runMaturation(context.Background())

	if promoteCalls != 1 {
		t.Errorf("Expected 1 PromoteMatured call, got %d", promoteCalls)
	}
}

func TestRunMaturation_Error(t *testing.T) {
	earnings := &mockEarnings{
		PromoteMaturedFunc: func(ctx context.Context, now time.Time) (int64, error) {
			return 0, errors.New("database unavailable")
		},
	}
	s := newTestService(&config.SchedulerConfig{}, earnings, &mockTransactions{})

	// Job failures are logged, never propagated
	s.runMaturation(context.Background())
}

func TestRunReconciliation(t *testing.T) {
	findCalls := 0
	ledger := &mockTransactions{
		FindBalanceMismatchesFunc: func(ctx context.Context) ([]repository.BalanceMismatch, error) {
			findCalls++
			return []repository.BalanceMismatch{
				{UserID: 1, Credits: 5, LedgerBalance: 3},
			}, nil
		},
	}
	s := newTestService(&config.SchedulerConfig{}, &mockEarnings{}, ledger)

	s.runReconciliation(context.Background())

	if findCalls != 1 {
		t.Errorf("Expected 1 FindBalanceMismatches call, got %d", findCalls)
	}
}

func TestRunReconciliation_Error(t *testing.T) {
	ledger := &mockTransactions{
		FindBalanceMismatchesFunc: func(ctx context.Context) ([]repository.BalanceMismatch, error) {
			return nil, errors.New("database unavailable")
		},
	}
	s := newTestService(&config.SchedulerConfig{}, &mockEarnings{}, ledger)

	s.runReconciliation(context.Background())
}
