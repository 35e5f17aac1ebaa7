package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/segyhp/loan-manager/internal/domain"
	"github.com/segyhp/loan-manager/internal/metrics"
	"github.com/segyhp/loan-manager/internal/repository"
	"github.com/segyhp/loan-manager/internal/schedule"
	customError "github.com/segyhp/loan-manager/pkg/errors"
)

type PaymentService struct {
	PaymentRepo repository.PaymentRepository
	engine      *schedule.Engine
	cache       DashboardCache
	metrics     *metrics.Metrics
}

func NewPaymentService(
	paymentRepo repository.PaymentRepository,
	engine *schedule.Engine,
	cache DashboardCache,
	m *metrics.Metrics,
) *PaymentService {
	return &PaymentService{
		PaymentRepo: paymentRepo,
		engine:      engine,
		cache:       cache,
		metrics:     m,
	}
}

func (s *PaymentService) Get(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.Payment, error) {
	payment, err := s.PaymentRepo.GetByID(ctx, actor.UserID, id)
	if err != nil {
		return nil, notFoundOr(err, customError.WrapPaymentNotFound(id.String()))
	}
	return payment, nil
}

func (s *PaymentService) List(ctx context.Context, actor domain.Actor, filter domain.PaymentFilter) ([]*domain.Payment, error) {
	filter.OwnerID = actor.UserID
	payments, err := s.PaymentRepo.List(ctx, filter)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return payments, nil
}

// Update corrects a payment; the loan status is re-derived in the same transaction
func (s *PaymentService) Update(ctx context.Context, actor domain.Actor, id uuid.UUID, req *domain.UpdatePaymentRequest) (*domain.PaymentResponse, error) {
	if req == nil {
		return nil, customError.WrapValidation("payment data is required", nil)
	}
	if !req.Amount.IsPositive() {
		return nil, customError.WrapInvalidPaymentAmount(req.Amount.String())
	}
	if req.PaidDate.IsZero() {
		return nil, customError.WrapValidation("paid_date is required", nil)
	}

	payment, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	payment.Amount = req.Amount
	payment.PaidDate = req.PaidDate
	if req.Method != "" {
		payment.Method = req.Method
	}

	loan, payments, err := s.PaymentRepo.Update(ctx, payment, s.engine.DeriveStatus)
	if err != nil {
		return nil, s.writeError(err, id)
	}
	return s.afterWrite(ctx, actor, "update", payment, loan, payments)
}

// Delete removes a payment; the loan status is re-derived in the same transaction
func (s *PaymentService) Delete(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.PaymentResponse, error) {
	payment, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	loan, payments, err := s.PaymentRepo.Delete(ctx, id, s.engine.DeriveStatus)
	if err != nil {
		return nil, s.writeError(err, id)
	}
	return s.afterWrite(ctx, actor, "delete", payment, loan, payments)
}

func (s *PaymentService) afterWrite(ctx context.Context, actor domain.Actor, op string, payment *domain.Payment,
	loan *domain.Loan, payments []*domain.Payment) (*domain.PaymentResponse, error) {
	outstanding, err := s.engine.OutstandingBalance(loan, payments)
	if err != nil {
		return nil, engineError(err)
	}

	s.metrics.PaymentWritten(op)
	invalidate(ctx, s.cache, actor.UserID)

	slog.Info("payment "+op+"d",
		"payment_id", payment.ID,
		"loan_id", loan.ID,
		"status", loan.Status,
		"outstanding", outstanding.String(),
	)

	return &domain.PaymentResponse{
		Payment:     payment,
		LoanStatus:  loan.Status,
		Outstanding: outstanding,
	}, nil
}

func (s *PaymentService) writeError(err error, id uuid.UUID) error {
	if isEngineError(err) {
		return engineError(err)
	}
	return notFoundOr(err, customError.WrapPaymentNotFound(id.String()))
}
