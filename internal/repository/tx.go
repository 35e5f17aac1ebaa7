package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/segyhp/loan-manager/internal/config"
	"github.com/segyhp/loan-manager/internal/domain"
)

const loanColumns = `l.id, l.client_id, l.origination_date, l.principal, l.interest_rate,
		l.installment_count, l.payment_interval, l.status, l.created_at, l.updated_at`

const paymentColumns = `p.id, p.loan_id, p.paid_date, p.amount, p.method, p.created_at`

// inLoanTx runs fn inside a transaction that holds the lock on loanID, then derives and
// stores the loan status from the payments visible at the end of fn.
func inLoanTx(ctx context.Context, db *sqlx.DB, loanID uuid.UUID, derive StatusFunc,
	fn func(tx *sqlx.Tx, loan *domain.Loan) error) (*domain.Loan, []*domain.Payment, error) {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	loan, err := lockLoan(ctx, tx, loanID)
	if err != nil {
		return nil, nil, err
	}

	if fn != nil {
		if err := fn(tx, loan); err != nil {
			return nil, nil, err
		}
	}

	payments, err := selectPayments(ctx, tx, loanID)
	if err != nil {
		return nil, nil, err
	}

	status, err := derive(loan, payments)
	if err != nil {
		return nil, nil, err
	}
	if status != loan.Status {
		loan.Status = status
		loan.UpdatedAt = time.Now().UTC()
		query := tx.Rebind(`UPDATE loans SET status = ?, updated_at = ? WHERE id = ?`)
		if _, err := tx.ExecContext(ctx, query, loan.Status, loan.UpdatedAt, loan.ID); err != nil {
			return nil, nil, fmt.Errorf("failed to update loan status: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return loan, payments, nil
}

// lockLoan reads the loan row for update. SQLite has no row locks; the single
// connection configured in Open already serializes transactions.
func lockLoan(ctx context.Context, tx *sqlx.Tx, loanID uuid.UUID) (*domain.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans l WHERE l.id = ?`
	if tx.DriverName() == config.DriverPostgres {
		query += ` FOR UPDATE`
	}

	var loan domain.Loan
	if err := tx.GetContext(ctx, &loan, tx.Rebind(query), loanID); err != nil {
		return nil, err
	}
	return &loan, nil
}

// queryer is satisfied by both *sqlx.DB and *sqlx.Tx.
type queryer interface {
	sqlx.QueryerContext
	Rebind(query string) string
}

func selectPayments(ctx context.Context, q queryer, loanID uuid.UUID) ([]*domain.Payment, error) {
	query := q.Rebind(`SELECT ` + paymentColumns + ` FROM payments p WHERE p.loan_id = ? ORDER BY p.paid_date, p.created_at`)

	var payments []*domain.Payment
	if err := sqlx.SelectContext(ctx, q, &payments, query, loanID); err != nil {
		return nil, fmt.Errorf("failed to load payments: %w", err)
	}
	return payments, nil
}
