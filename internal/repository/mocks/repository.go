package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/segyhp/loan-manager/internal/domain"
	"github.com/segyhp/loan-manager/internal/repository"
)

var (
	_ repository.ClientRepository  = (*MockClientRepository)(nil)
	_ repository.LoanRepository    = (*MockLoanRepository)(nil)
	_ repository.PaymentRepository = (*MockPaymentRepository)(nil)
)

type MockClientRepository struct {
	mock.Mock
}

func (m *MockClientRepository) Create(ctx context.Context, client *domain.Client) error {
	args := m.Called(ctx, client)
	return args.Error(0)
}

func (m *MockClientRepository) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*domain.Client, error) {
	args := m.Called(ctx, ownerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Client), args.Error(1)
}

func (m *MockClientRepository) Update(ctx context.Context, client *domain.Client) error {
	args := m.Called(ctx, client)
	return args.Error(0)
}

func (m *MockClientRepository) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	args := m.Called(ctx, ownerID, id)
	return args.Error(0)
}

func (m *MockClientRepository) List(ctx context.Context, ownerID uuid.UUID) ([]*domain.Client, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Client), args.Error(1)
}

func (m *MockClientRepository) Search(ctx context.Context, ownerID uuid.UUID, term string) ([]*domain.Client, error) {
	args := m.Called(ctx, ownerID, term)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Client), args.Error(1)
}

func (m *MockClientRepository) CountLoans(ctx context.Context, id uuid.UUID) (int, error) {
	args := m.Called(ctx, id)
	return args.Int(0), args.Error(1)
}

type MockLoanRepository struct {
	mock.Mock
}

func (m *MockLoanRepository) Create(ctx context.Context, loan *domain.Loan) error {
	args := m.Called(ctx, loan)
	return args.Error(0)
}

func (m *MockLoanRepository) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*domain.Loan, error) {
	args := m.Called(ctx, ownerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Loan), args.Error(1)
}

func (m *MockLoanRepository) Update(ctx context.Context, loan *domain.Loan, derive repository.StatusFunc) (*domain.Loan, error) {
	args := m.Called(ctx, loan)
	updated, _, err := applyDerive(args, derive)
	return updated, err
}

func (m *MockLoanRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockLoanRepository) List(ctx context.Context, filter domain.LoanFilter) ([]*domain.Loan, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Loan), args.Error(1)
}

func (m *MockLoanRepository) Search(ctx context.Context, ownerID uuid.UUID, term string) ([]*domain.Loan, error) {
	args := m.Called(ctx, ownerID, term)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Loan), args.Error(1)
}

func (m *MockLoanRepository) ListByStatus(ctx context.Context, statuses ...string) ([]*domain.Loan, error) {
	args := m.Called(ctx, statuses)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Loan), args.Error(1)
}

func (m *MockLoanRepository) Owners(ctx context.Context, loanIDs []uuid.UUID) ([]uuid.UUID, error) {
	args := m.Called(ctx, loanIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func (m *MockLoanRepository) CountPayments(ctx context.Context, id uuid.UUID) (int, error) {
	args := m.Called(ctx, id)
	return args.Int(0), args.Error(1)
}

// ApplyPayment returns the configured loan and post-write payments after running derive
// on them, the way the SQL implementation does inside its transaction.
func (m *MockLoanRepository) ApplyPayment(ctx context.Context, payment *domain.Payment, derive repository.StatusFunc) (*domain.Loan, []*domain.Payment, error) {
	args := m.Called(ctx, payment)
	return applyDerive(args, derive)
}

func (m *MockLoanRepository) Reconcile(ctx context.Context, id uuid.UUID, derive repository.StatusFunc) (*domain.Loan, error) {
	args := m.Called(ctx, id)
	loan, _, err := applyDerive(args, derive)
	return loan, err
}

type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*domain.Payment, error) {
	args := m.Called(ctx, ownerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

func (m *MockPaymentRepository) Update(ctx context.Context, payment *domain.Payment, derive repository.StatusFunc) (*domain.Loan, []*domain.Payment, error) {
	args := m.Called(ctx, payment)
	return applyDerive(args, derive)
}

func (m *MockPaymentRepository) Delete(ctx context.Context, id uuid.UUID, derive repository.StatusFunc) (*domain.Loan, []*domain.Payment, error) {
	args := m.Called(ctx, id)
	return applyDerive(args, derive)
}

func (m *MockPaymentRepository) ListByLoan(ctx context.Context, loanID uuid.UUID) ([]*domain.Payment, error) {
	args := m.Called(ctx, loanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Payment), args.Error(1)
}

func (m *MockPaymentRepository) ListByLoans(ctx context.Context, loanIDs []uuid.UUID) (map[uuid.UUID][]*domain.Payment, error) {
	args := m.Called(ctx, loanIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uuid.UUID][]*domain.Payment), args.Error(1)
}

func (m *MockPaymentRepository) List(ctx context.Context, filter domain.PaymentFilter) ([]*domain.Payment, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Payment), args.Error(1)
}

// applyDerive expects Return(loan, payments, err).
func applyDerive(args mock.Arguments, derive repository.StatusFunc) (*domain.Loan, []*domain.Payment, error) {
	if err := args.Error(2); err != nil {
		return nil, nil, err
	}

	loan := args.Get(0).(*domain.Loan)
	var payments []*domain.Payment
	if args.Get(1) != nil {
		payments = args.Get(1).([]*domain.Payment)
	}

	status, err := derive(loan, payments)
	if err != nil {
		return nil, nil, err
	}
	updated := *loan
	updated.Status = status
	return &updated, payments, nil
}
