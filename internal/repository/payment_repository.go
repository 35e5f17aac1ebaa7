package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/segyhp/loan-manager/internal/domain"
)

type paymentRepository struct {
	db *sqlx.DB
}

func NewPaymentRepository(db *sqlx.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*domain.Payment, error) {
	query := r.db.Rebind(`
		SELECT ` + paymentColumns + `
		FROM payments p
		JOIN loans l ON l.id = p.loan_id
		JOIN clients c ON c.id = l.client_id
		WHERE p.id = ? AND c.owner_id = ?
	`)

	var payment domain.Payment
	if err := r.db.GetContext(ctx, &payment, query, id, ownerID); err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *paymentRepository) Update(ctx context.Context, payment *domain.Payment, derive StatusFunc) (*domain.Loan, []*domain.Payment, error) {
	return inLoanTx(ctx, r.db, payment.LoanID, derive, func(tx *sqlx.Tx, _ *domain.Loan) error {
		query := tx.Rebind(`UPDATE payments SET paid_date = ?, amount = ?, method = ? WHERE id = ? AND loan_id = ?`)
		res, err := tx.ExecContext(ctx, query, payment.PaidDate, payment.Amount, payment.Method, payment.ID, payment.LoanID)
		if err != nil {
			return fmt.Errorf("failed to update payment: %w", err)
		}
		return expectRow(res)
	})
}

func (r *paymentRepository) Delete(ctx context.Context, id uuid.UUID, derive StatusFunc) (*domain.Loan, []*domain.Payment, error) {
	var loanID uuid.UUID
	if err := r.db.GetContext(ctx, &loanID, r.db.Rebind(`SELECT loan_id FROM payments WHERE id = ?`), id); err != nil {
		return nil, nil, err
	}

	return inLoanTx(ctx, r.db, loanID, derive, func(tx *sqlx.Tx, _ *domain.Loan) error {
		res, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM payments WHERE id = ? AND loan_id = ?`), id, loanID)
		if err != nil {
			return fmt.Errorf("failed to delete payment: %w", err)
		}
		return expectRow(res)
	})
}

func (r *paymentRepository) ListByLoan(ctx context.Context, loanID uuid.UUID) ([]*domain.Payment, error) {
	payments, err := selectPayments(ctx, r.db, loanID)
	if err != nil {
		return nil, err
	}
	if payments == nil {
		payments = []*domain.Payment{}
	}
	return payments, nil
}

func (r *paymentRepository) ListByLoans(ctx context.Context, loanIDs []uuid.UUID) (map[uuid.UUID][]*domain.Payment, error) {
	grouped := make(map[uuid.UUID][]*domain.Payment, len(loanIDs))
	if len(loanIDs) == 0 {
		return grouped, nil
	}

	query, args, err := sqlx.In(`SELECT `+paymentColumns+` FROM payments p WHERE p.loan_id IN (?) ORDER BY p.paid_date, p.created_at`, loanIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to build payments query: %w", err)
	}

	var payments []*domain.Payment
	if err := r.db.SelectContext(ctx, &payments, r.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	for _, p := range payments {
		grouped[p.LoanID] = append(grouped[p.LoanID], p)
	}
	return grouped, nil
}

func (r *paymentRepository) List(ctx context.Context, filter domain.PaymentFilter) ([]*domain.Payment, error) {
	conds := []string{"c.owner_id = ?"}
	args := []interface{}{filter.OwnerID}

	if filter.LoanID != nil {
		conds = append(conds, "p.loan_id = ?")
		args = append(args, *filter.LoanID)
	}
	if filter.ClientID != nil {
		conds = append(conds, "l.client_id = ?")
		args = append(args, *filter.ClientID)
	}
	if filter.From != nil {
		conds = append(conds, "p.paid_date >= ?")
		args = append(args, *filter.From)
	}
	if filter.To != nil {
		conds = append(conds, "p.paid_date <= ?")
		args = append(args, *filter.To)
	}

	query := r.db.Rebind(`
		SELECT ` + paymentColumns + `
		FROM payments p
		JOIN loans l ON l.id = p.loan_id
		JOIN clients c ON c.id = l.client_id
		WHERE ` + strings.Join(conds, " AND ") + `
		ORDER BY p.paid_date, p.created_at
	`)

	payments := []*domain.Payment{}
	if err := r.db.SelectContext(ctx, &payments, query, args...); err != nil {
		return nil, err
	}
	return payments, nil
}
