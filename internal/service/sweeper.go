package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/segyhp/loan-manager/internal/domain"
	"github.com/segyhp/loan-manager/internal/metrics"
	"github.com/segyhp/loan-manager/internal/repository"
	"github.com/segyhp/loan-manager/internal/schedule"
)

const (
	JobSweep     = "status_sweep"
	JobReminders = "payment_reminders"
)

// SweepResult counts what a sweep did.
type SweepResult struct {
	Checked int            `json:"checked"`
	Changed int            `json:"changed"`
	Failed  int            `json:"failed"`
	Open    map[string]int `json:"open"`
}

// StatusSweeper re-derives the status of every open loan. A loan with at least
// threshold overdue installments is marked delinquent.
type StatusSweeper struct {
	LoanRepo    repository.LoanRepository
	PaymentRepo repository.PaymentRepository
	engine      *schedule.Engine
	cache       DashboardCache
	metrics     *metrics.Metrics
	clock       Clock
	threshold   int
}

func NewStatusSweeper(
	loanRepo repository.LoanRepository,
	paymentRepo repository.PaymentRepository,
	engine *schedule.Engine,
	cache DashboardCache,
	m *metrics.Metrics,
	clock Clock,
	threshold int,
) *StatusSweeper {
	if threshold < 1 {
		threshold = 1
	}
	return &StatusSweeper{
		LoanRepo:    loanRepo,
		PaymentRepo: paymentRepo,
		engine:      engine,
		cache:       cache,
		metrics:     m,
		clock:       clock,
		threshold:   threshold,
	}
}

// Sweep reconciles every active or delinquent loan. A failure on one loan is logged
// and counted; the sweep carries on with the rest.
func (s *StatusSweeper) Sweep(ctx context.Context) (*SweepResult, error) {
	start := time.Now()
	result, err := s.sweep(ctx)
	s.metrics.SweepDuration(time.Since(start))
	s.metrics.JobRun(JobSweep, err)
	if err != nil {
		return nil, err
	}

	slog.Info("status sweep finished",
		"checked", result.Checked,
		"changed", result.Changed,
		"failed", result.Failed,
		"duration", time.Since(start),
	)
	return result, nil
}

func (s *StatusSweeper) sweep(ctx context.Context) (*SweepResult, error) {
	loans, err := s.LoanRepo.ListByStatus(ctx, domain.LoanStatusActive, domain.LoanStatusDelinquent)
	if err != nil {
		return nil, fmt.Errorf("failed to list open loans: %w", err)
	}

	result := &SweepResult{Open: map[string]int{
		domain.LoanStatusActive:     0,
		domain.LoanStatusDelinquent: 0,
	}}
	derive := s.deriveWithDelinquency(s.clock.AsOf())
	var changed []uuid.UUID

	for _, loan := range loans {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		result.Checked++

		updated, err := s.LoanRepo.Reconcile(ctx, loan.ID, derive)
		if err != nil {
			result.Failed++
			slog.Error("failed to reconcile loan status", "loan_id", loan.ID, "error", err)
			continue
		}

		if updated.IsOpen() {
			result.Open[updated.Status]++
		}
		if updated.Status != loan.Status {
			result.Changed++
			changed = append(changed, loan.ID)
			s.metrics.StatusChanged(updated.Status)
			slog.Info("loan status changed", "loan_id", loan.ID, "from", loan.Status, "to", updated.Status)
		}
	}

	s.metrics.OpenLoans(result.Open)
	s.invalidateOwners(ctx, changed)
	return result, nil
}

// deriveWithDelinquency extends DeriveStatus: an active loan with threshold or more
// overdue installments becomes delinquent.
func (s *StatusSweeper) deriveWithDelinquency(asOf time.Time) repository.StatusFunc {
	return func(loan *domain.Loan, payments []*domain.Payment) (string, error) {
		status, err := s.engine.DeriveStatus(loan, payments)
		if err != nil || status != domain.LoanStatusActive {
			return status, err
		}

		overdue, err := s.engine.Overdue(loan, payments, asOf)
		if err != nil {
			return "", err
		}
		if len(overdue) >= s.threshold {
			return domain.LoanStatusDelinquent, nil
		}
		return status, nil
	}
}

// invalidateOwners drops the cached dashboards of the owners of the given loans.
func (s *StatusSweeper) invalidateOwners(ctx context.Context, loanIDs []uuid.UUID) {
	if s.cache == nil || len(loanIDs) == 0 {
		return
	}
	owners, err := s.LoanRepo.Owners(ctx, loanIDs)
	if err != nil {
		slog.Warn("failed to resolve loan owners", "error", err)
		return
	}
	for _, owner := range owners {
		invalidate(ctx, s.cache, owner)
	}
}

// Reminders lists, across every owner, the open loans whose next installment falls due
// within days. Each reminder is logged.
func (s *StatusSweeper) Reminders(ctx context.Context, days int) ([]*domain.DueItem, error) {
	items, err := s.reminders(ctx, days)
	s.metrics.JobRun(JobReminders, err)
	return items, err
}

func (s *StatusSweeper) reminders(ctx context.Context, days int) ([]*domain.DueItem, error) {
	loans, err := s.LoanRepo.ListByStatus(ctx, domain.LoanStatusActive, domain.LoanStatusDelinquent)
	if err != nil {
		return nil, fmt.Errorf("failed to list open loans: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(loans))
	for _, loan := range loans {
		ids = append(ids, loan.ID)
	}
	payments, err := s.PaymentRepo.ListByLoans(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load payments: %w", err)
	}

	today := s.clock.Today()
	limit := today.AddDate(0, 0, days)

	items := []*domain.DueItem{}
	for _, loan := range loans {
		next, err := s.engine.NextDue(loan, payments[loan.ID], s.clock.AsOf())
		if err != nil {
			slog.Error("failed to compute next installment", "loan_id", loan.ID, "error", err)
			continue
		}
		if next == nil || next.DueDate.Before(today) || next.DueDate.After(limit) {
			continue
		}
		items = append(items, &domain.DueItem{
			LoanID:   loan.ID,
			ClientID: loan.ClientID,
			Index:    next.Index,
			DueDate:  next.DueDate,
			Amount:   next.Amount,
		})
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].DueDate.Before(items[j].DueDate)
	})

	for _, item := range items {
		slog.Info("payment reminder",
			"loan_id", item.LoanID,
			"client_id", item.ClientID,
			"installment", item.Index,
			"due_date", item.DueDate.String(),
			"amount", item.Amount.String(),
		)
	}
	return items, nil
}
