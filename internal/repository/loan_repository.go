package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/segyhp/loan-manager/internal/domain"
)

type loanRepository struct {
	db *sqlx.DB
}

func NewLoanRepository(db *sqlx.DB) LoanRepository {
	return &loanRepository{db: db}
}

func (r *loanRepository) Create(ctx context.Context, loan *domain.Loan) error {
	query := r.db.Rebind(`
		INSERT INTO loans (id, client_id, origination_date, principal, interest_rate, installment_count,
			payment_interval, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)

	_, err := r.db.ExecContext(ctx, query,
		loan.ID,
		loan.ClientID,
		loan.OriginationDate,
		loan.Principal,
		loan.InterestRate,
		loan.InstallmentCount,
		loan.PaymentInterval,
		loan.Status,
		loan.CreatedAt,
		loan.UpdatedAt,
	)
	return err
}

func (r *loanRepository) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*domain.Loan, error) {
	query := r.db.Rebind(`
		SELECT ` + loanColumns + `
		FROM loans l
		JOIN clients c ON c.id = l.client_id
		WHERE l.id = ? AND c.owner_id = ?
	`)

	var loan domain.Loan
	if err := r.db.GetContext(ctx, &loan, query, id, ownerID); err != nil {
		return nil, err
	}
	return &loan, nil
}

// Update stores the new terms and status of loan, then re-derives the status from its
// payments before the row lock is released.
func (r *loanRepository) Update(ctx context.Context, loan *domain.Loan, derive StatusFunc) (*domain.Loan, error) {
	updated, _, err := inLoanTx(ctx, r.db, loan.ID, derive, func(tx *sqlx.Tx, locked *domain.Loan) error {
		query := tx.Rebind(`
			UPDATE loans
			SET origination_date = ?, principal = ?, interest_rate = ?, installment_count = ?,
				payment_interval = ?, status = ?, updated_at = ?
			WHERE id = ?
		`)
		if _, err := tx.ExecContext(ctx, query,
			loan.OriginationDate,
			loan.Principal,
			loan.InterestRate,
			loan.InstallmentCount,
			loan.PaymentInterval,
			loan.Status,
			loan.UpdatedAt,
			loan.ID,
		); err != nil {
			return fmt.Errorf("failed to update loan: %w", err)
		}

		locked.OriginationDate = loan.OriginationDate
		locked.Principal = loan.Principal
		locked.InterestRate = loan.InterestRate
		locked.InstallmentCount = loan.InstallmentCount
		locked.PaymentInterval = loan.PaymentInterval
		locked.Status = loan.Status
		locked.UpdatedAt = loan.UpdatedAt
		return nil
	})
	return updated, err
}

func (r *loanRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM loans WHERE id = ?`), id)
	if err != nil {
		return err
	}
	return expectRow(res)
}

func (r *loanRepository) List(ctx context.Context, filter domain.LoanFilter) ([]*domain.Loan, error) {
	conds := []string{"c.owner_id = ?"}
	args := []interface{}{filter.OwnerID}

	if filter.ClientID != nil {
		conds = append(conds, "l.client_id = ?")
		args = append(args, *filter.ClientID)
	}
	if filter.Status != "" {
		conds = append(conds, "l.status = ?")
		args = append(args, filter.Status)
	}
	if filter.From != nil {
		conds = append(conds, "l.origination_date >= ?")
		args = append(args, *filter.From)
	}
	if filter.To != nil {
		conds = append(conds, "l.origination_date <= ?")
		args = append(args, *filter.To)
	}

	query := r.db.Rebind(`
		SELECT ` + loanColumns + `
		FROM loans l
		JOIN clients c ON c.id = l.client_id
		WHERE ` + strings.Join(conds, " AND ") + `
		ORDER BY l.origination_date DESC, l.created_at DESC
	`)

	loans := []*domain.Loan{}
	if err := r.db.SelectContext(ctx, &loans, query, args...); err != nil {
		return nil, err
	}
	return loans, nil
}

func (r *loanRepository) Search(ctx context.Context, ownerID uuid.UUID, term string) ([]*domain.Loan, error) {
	query := r.db.Rebind(`
		SELECT ` + loanColumns + `
		FROM loans l
		JOIN clients c ON c.id = l.client_id
		WHERE c.owner_id = ? AND (LOWER(c.name) LIKE ? OR c.document_id LIKE ?)
		ORDER BY l.origination_date DESC, l.created_at DESC
	`)

	pattern := likePattern(term)
	loans := []*domain.Loan{}
	if err := r.db.SelectContext(ctx, &loans, query, ownerID, strings.ToLower(pattern), pattern); err != nil {
		return nil, err
	}
	return loans, nil
}

func (r *loanRepository) ListByStatus(ctx context.Context, statuses ...string) ([]*domain.Loan, error) {
	if len(statuses) == 0 {
		return []*domain.Loan{}, nil
	}

	query, args, err := sqlx.In(`SELECT `+loanColumns+` FROM loans l WHERE l.status IN (?) ORDER BY l.origination_date`, statuses)
	if err != nil {
		return nil, fmt.Errorf("failed to build status query: %w", err)
	}

	loans := []*domain.Loan{}
	if err := r.db.SelectContext(ctx, &loans, r.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	return loans, nil
}

func (r *loanRepository) Owners(ctx context.Context, loanIDs []uuid.UUID) ([]uuid.UUID, error) {
	if len(loanIDs) == 0 {
		return []uuid.UUID{}, nil
	}

	query, args, err := sqlx.In(`
		SELECT DISTINCT c.owner_id
		FROM loans l
		JOIN clients c ON c.id = l.client_id
		WHERE l.id IN (?)
	`, loanIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to build owners query: %w", err)
	}

	owners := []uuid.UUID{}
	if err := r.db.SelectContext(ctx, &owners, r.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	return owners, nil
}

func (r *loanRepository) CountPayments(ctx context.Context, id uuid.UUID) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, r.db.Rebind(`SELECT COUNT(*) FROM payments WHERE loan_id = ?`), id); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *loanRepository) ApplyPayment(ctx context.Context, payment *domain.Payment, derive StatusFunc) (*domain.Loan, []*domain.Payment, error) {
	return inLoanTx(ctx, r.db, payment.LoanID, derive, func(tx *sqlx.Tx, _ *domain.Loan) error {
		query := tx.Rebind(`
			INSERT INTO payments (id, loan_id, paid_date, amount, method, created_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`)
		if _, err := tx.ExecContext(ctx, query,
			payment.ID,
			payment.LoanID,
			payment.PaidDate,
			payment.Amount,
			payment.Method,
			payment.CreatedAt,
		); err != nil {
			return fmt.Errorf("failed to insert payment: %w", err)
		}
		return nil
	})
}

func (r *loanRepository) Reconcile(ctx context.Context, id uuid.UUID, derive StatusFunc) (*domain.Loan, error) {
	loan, _, err := inLoanTx(ctx, r.db, id, derive, nil)
	return loan, err
}
