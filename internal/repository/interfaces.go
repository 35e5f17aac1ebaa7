package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/segyhp/loan-manager/internal/domain"
)

// StatusFunc derives a loan status from the loan and the complete, post-write set of its payments.
type StatusFunc func(loan *domain.Loan, payments []*domain.Payment) (string, error)

// ClientRepository defines the interface for client data operations.
// Every lookup is scoped to the owning user.
type ClientRepository interface {
	// Create creates a new client
	Create(ctx context.Context, client *domain.Client) error

	// GetByID retrieves a client owned by ownerID
	GetByID(ctx context.Context, ownerID, id uuid.UUID) (*domain.Client, error)

	// Update updates the editable fields of a client
	Update(ctx context.Context, client *domain.Client) error

	// Delete removes a client
	Delete(ctx context.Context, ownerID, id uuid.UUID) error

	// List returns every client of ownerID ordered by name
	List(ctx context.Context, ownerID uuid.UUID) ([]*domain.Client, error)

	// Search matches term against the name (case-insensitive) or the document number
	Search(ctx context.Context, ownerID uuid.UUID, term string) ([]*domain.Client, error)

	// CountLoans counts the loans registered for a client
	CountLoans(ctx context.Context, id uuid.UUID) (int, error)
}

// LoanRepository defines the interface for loan data operations
type LoanRepository interface {
	// Create creates a new loan
	Create(ctx context.Context, loan *domain.Loan) error

	// GetByID retrieves a loan whose client belongs to ownerID
	GetByID(ctx context.Context, ownerID, id uuid.UUID) (*domain.Loan, error)

	// Update stores new terms and re-derives the status under the same lock as ApplyPayment
	Update(ctx context.Context, loan *domain.Loan, derive StatusFunc) (*domain.Loan, error)

	// Delete removes a loan
	Delete(ctx context.Context, id uuid.UUID) error

	// List returns loans matching filter, newest origination first
	List(ctx context.Context, filter domain.LoanFilter) ([]*domain.Loan, error)

	// Search matches term against the client's name or document number
	Search(ctx context.Context, ownerID uuid.UUID, term string) ([]*domain.Loan, error)

	// ListByStatus returns loans of every owner in one of the given statuses
	ListByStatus(ctx context.Context, statuses ...string) ([]*domain.Loan, error)

	// Owners returns the distinct owners of the given loans
	Owners(ctx context.Context, loanIDs []uuid.UUID) ([]uuid.UUID, error)

	// CountPayments counts the payments registered against a loan
	CountPayments(ctx context.Context, id uuid.UUID) (int, error)

	// ApplyPayment inserts payment and stores the status derived from the resulting snapshot,
	// all in one transaction holding the loan row lock.
	ApplyPayment(ctx context.Context, payment *domain.Payment, derive StatusFunc) (*domain.Loan, []*domain.Payment, error)

	// Reconcile re-derives and stores the status of a loan under the same lock as ApplyPayment
	Reconcile(ctx context.Context, id uuid.UUID, derive StatusFunc) (*domain.Loan, error)
}

// PaymentRepository defines the interface for payment data operations
type PaymentRepository interface {
	// GetByID retrieves a payment whose loan belongs to ownerID
	GetByID(ctx context.Context, ownerID, id uuid.UUID) (*domain.Payment, error)

	// Update changes a payment and re-derives its loan status in one transaction
	Update(ctx context.Context, payment *domain.Payment, derive StatusFunc) (*domain.Loan, []*domain.Payment, error)

	// Delete removes a payment and re-derives its loan status in one transaction
	Delete(ctx context.Context, id uuid.UUID, derive StatusFunc) (*domain.Loan, []*domain.Payment, error)

	// ListByLoan retrieves all payments for a loan in paid-date order
	ListByLoan(ctx context.Context, loanID uuid.UUID) ([]*domain.Payment, error)

	// ListByLoans retrieves the payments of several loans, grouped by loan ID
	ListByLoans(ctx context.Context, loanIDs []uuid.UUID) (map[uuid.UUID][]*domain.Payment, error)

	// List returns payments matching filter in paid-date order
	List(ctx context.Context, filter domain.PaymentFilter) ([]*domain.Payment, error)
}
