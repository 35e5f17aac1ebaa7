package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/segyhp/loan-manager/internal/domain"
	"github.com/segyhp/loan-manager/internal/metrics"
	"github.com/segyhp/loan-manager/internal/repository"
	"github.com/segyhp/loan-manager/internal/schedule"
	customError "github.com/segyhp/loan-manager/pkg/errors"
)

type LoanService struct {
	LoanRepo    repository.LoanRepository
	PaymentRepo repository.PaymentRepository
	ClientRepo  repository.ClientRepository
	engine      *schedule.Engine
	cache       DashboardCache
	metrics     *metrics.Metrics
	clock       Clock
}

func NewLoanService(
	loanRepo repository.LoanRepository,
	paymentRepo repository.PaymentRepository,
	clientRepo repository.ClientRepository,
	engine *schedule.Engine,
	cache DashboardCache,
	m *metrics.Metrics,
	clock Clock,
) *LoanService {
	return &LoanService{
		LoanRepo:    loanRepo,
		PaymentRepo: paymentRepo,
		ClientRepo:  clientRepo,
		engine:      engine,
		cache:       cache,
		metrics:     m,
		clock:       clock,
	}
}

// Create registers a loan for one of the actor's clients and returns it with its schedule
func (s *LoanService) Create(ctx context.Context, actor domain.Actor, req *domain.CreateLoanRequest) (*domain.CreateLoanResponse, error) {
	if req == nil {
		return nil, customError.WrapValidation("loan data is required", nil)
	}
	if _, err := s.ClientRepo.GetByID(ctx, actor.UserID, req.ClientID); err != nil {
		return nil, notFoundOr(err, customError.WrapClientNotFound(req.ClientID.String()))
	}

	now := s.clock.timestamp()
	loan := &domain.Loan{
		ID:               uuid.New(),
		ClientID:         req.ClientID,
		OriginationDate:  req.OriginationDate,
		Principal:        req.Principal,
		InterestRate:     req.InterestRate,
		InstallmentCount: req.InstallmentCount,
		PaymentInterval:  req.PaymentInterval,
		Status:           domain.LoanStatusActive,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	installments, err := s.engine.Schedule(loan)
	if err != nil {
		return nil, engineError(err)
	}

	if err := s.LoanRepo.Create(ctx, loan); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	invalidate(ctx, s.cache, actor.UserID)

	slog.Info("loan created",
		"loan_id", loan.ID,
		"client_id", loan.ClientID,
		"principal", loan.Principal.String(),
		"installments", loan.InstallmentCount,
	)

	return &domain.CreateLoanResponse{Loan: loan, Schedule: installments}, nil
}

// Get returns the loan with its client, payments, schedule and derived summary
func (s *LoanService) Get(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.LoanDetailResponse, error) {
	loan, payments, err := s.loadWithPayments(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	summary, err := s.engine.Summary(loan, payments, s.clock.AsOf())
	if err != nil {
		return nil, engineError(err)
	}
	installments, err := s.engine.Schedule(loan)
	if err != nil {
		return nil, engineError(err)
	}

	client, err := s.ClientRepo.GetByID(ctx, actor.UserID, loan.ClientID)
	if err != nil {
		return nil, notFoundOr(err, customError.WrapClientNotFound(loan.ClientID.String()))
	}

	return &domain.LoanDetailResponse{
		Loan:     loan,
		Client:   client,
		Summary:  summary,
		Payments: payments,
		Schedule: installments,
	}, nil
}

// Update changes the loan terms. A status may only be set by hand to cancelled or
// delinquent; any other status is derived from payments.
func (s *LoanService) Update(ctx context.Context, actor domain.Actor, id uuid.UUID, req *domain.UpdateLoanRequest) (*domain.Loan, error) {
	if req == nil {
		return nil, customError.WrapValidation("loan data is required", nil)
	}

	loan, err := s.getLoan(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	previous := loan.Status

	if req.Status != "" && req.Status != loan.Status {
		if err := checkManualTransition(loan, req.Status); err != nil {
			return nil, err
		}
		loan.Status = req.Status
	}

	loan.OriginationDate = req.OriginationDate
	loan.Principal = req.Principal
	loan.InterestRate = req.InterestRate
	loan.InstallmentCount = req.InstallmentCount
	loan.PaymentInterval = req.PaymentInterval
	loan.UpdatedAt = s.clock.timestamp()

	if err := s.engine.ValidateLoan(loan); err != nil {
		return nil, engineError(err)
	}
	// New terms can settle or reopen the balance.
	reconciled, err := s.LoanRepo.Update(ctx, loan, s.engine.DeriveStatus)
	if err != nil {
		if isEngineError(err) {
			return nil, engineError(err)
		}
		return nil, notFoundOr(err, customError.WrapLoanNotFound(id.String()))
	}

	s.statusChanged(reconciled, previous)
	invalidate(ctx, s.cache, actor.UserID)
	return reconciled, nil
}

// Delete removes a loan that has no payments
func (s *LoanService) Delete(ctx context.Context, actor domain.Actor, id uuid.UUID) error {
	if _, err := s.getLoan(ctx, actor, id); err != nil {
		return err
	}

	count, err := s.LoanRepo.CountPayments(ctx, id)
	if err != nil {
		return customError.WrapDatabaseError(err)
	}
	if count > 0 {
		return customError.WrapLoanHasPayments(id.String())
	}

	if err := s.LoanRepo.Delete(ctx, id); err != nil {
		return notFoundOr(err, customError.WrapLoanNotFound(id.String()))
	}
	invalidate(ctx, s.cache, actor.UserID)
	return nil
}

func (s *LoanService) List(ctx context.Context, actor domain.Actor, filter domain.LoanFilter) ([]*domain.Loan, error) {
	filter.OwnerID = actor.UserID
	loans, err := s.LoanRepo.List(ctx, filter)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return loans, nil
}

// Search finds loans by client name or document number. An empty term lists everything.
func (s *LoanService) Search(ctx context.Context, actor domain.Actor, term string) ([]*domain.Loan, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return s.List(ctx, actor, domain.LoanFilter{})
	}

	loans, err := s.LoanRepo.Search(ctx, actor.UserID, term)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return loans, nil
}

func (s *LoanService) Schedule(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.ScheduleResponse, error) {
	loan, err := s.getLoan(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	installments, err := s.engine.Schedule(loan)
	if err != nil {
		return nil, engineError(err)
	}
	return &domain.ScheduleResponse{LoanID: loan.ID, Schedule: installments}, nil
}

func (s *LoanService) Outstanding(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.OutstandingResponse, error) {
	loan, payments, err := s.loadWithPayments(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	total, err := s.engine.TotalPayable(loan)
	if err != nil {
		return nil, engineError(err)
	}
	paid, err := s.engine.AmountPaid(loan, payments)
	if err != nil {
		return nil, engineError(err)
	}

	return &domain.OutstandingResponse{
		LoanID:       loan.ID,
		TotalPayable: total,
		AmountPaid:   paid,
		Outstanding:  total.Sub(paid),
	}, nil
}

func (s *LoanService) Payments(ctx context.Context, actor domain.Actor, id uuid.UUID) ([]*domain.Payment, error) {
	_, payments, err := s.loadWithPayments(ctx, actor, id)
	return payments, err
}

// RegisterPayment records a payment and re-derives the loan status atomically
func (s *LoanService) RegisterPayment(ctx context.Context, actor domain.Actor, loanID uuid.UUID, req *domain.RegisterPaymentRequest) (*domain.PaymentResponse, error) {
	if req == nil {
		return nil, customError.WrapValidation("payment data is required", nil)
	}
	if !req.Amount.IsPositive() {
		return nil, customError.WrapInvalidPaymentAmount(req.Amount.String())
	}

	loan, err := s.getLoan(ctx, actor, loanID)
	if err != nil {
		return nil, err
	}
	if !loan.IsOpen() {
		return nil, customError.WrapLoanNotPayable(loanID.String(), loan.Status)
	}

	payment := &domain.Payment{
		ID:        uuid.New(),
		LoanID:    loanID,
		PaidDate:  req.PaidDate,
		Amount:    req.Amount,
		Method:    req.Method,
		CreatedAt: s.clock.timestamp(),
	}
	if payment.PaidDate.IsZero() {
		payment.PaidDate = s.clock.Today()
	}
	if payment.Method == "" {
		payment.Method = domain.PaymentMethodCash
	}

	updated, payments, err := s.LoanRepo.ApplyPayment(ctx, payment, s.engine.DeriveStatus)
	if err != nil {
		if isEngineError(err) {
			return nil, engineError(err)
		}
		return nil, notFoundOr(err, customError.WrapLoanNotFound(loanID.String()))
	}

	outstanding, err := s.engine.OutstandingBalance(updated, payments)
	if err != nil {
		return nil, engineError(err)
	}

	s.metrics.PaymentWritten("create")
	s.statusChanged(updated, loan.Status)
	invalidate(ctx, s.cache, actor.UserID)

	slog.Info("payment registered",
		"loan_id", loanID,
		"payment_id", payment.ID,
		"amount", payment.Amount.String(),
		"status", updated.Status,
		"outstanding", outstanding.String(),
	)

	return &domain.PaymentResponse{
		Payment:     payment,
		LoanStatus:  updated.Status,
		Outstanding: outstanding,
	}, nil
}

func (s *LoanService) getLoan(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.Loan, error) {
	loan, err := s.LoanRepo.GetByID(ctx, actor.UserID, id)
	if err != nil {
		return nil, notFoundOr(err, customError.WrapLoanNotFound(id.String()))
	}
	return loan, nil
}

func (s *LoanService) loadWithPayments(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.Loan, []*domain.Payment, error) {
	loan, err := s.getLoan(ctx, actor, id)
	if err != nil {
		return nil, nil, err
	}
	payments, err := s.PaymentRepo.ListByLoan(ctx, id)
	if err != nil {
		return nil, nil, customError.WrapDatabaseError(err)
	}
	return loan, payments, nil
}

func (s *LoanService) statusChanged(loan *domain.Loan, previous string) {
	if loan.Status == previous {
		return
	}
	s.metrics.StatusChanged(loan.Status)
	slog.Info("loan status changed", "loan_id", loan.ID, "from", previous, "to", loan.Status)
}

func checkManualTransition(loan *domain.Loan, target string) error {
	switch {
	case loan.Status == domain.LoanStatusCancelled:
		return customError.WrapInvalidStatusTransition(loan.Status, target)
	case target == domain.LoanStatusCancelled:
		return nil
	case target == domain.LoanStatusDelinquent && loan.IsOpen():
		return nil
	default:
		return customError.WrapInvalidStatusTransition(loan.Status, target)
	}
}
