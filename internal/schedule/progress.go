package schedule

import (
	"github.com/segyhp/loan-manager/internal/domain"

	"github.com/shopspring/decimal"
)

// ProgressEstimator decides how many installments a set of payments covers.
// Payments handed to it are validated, belong to the loan and are sorted by paid date.
type ProgressEstimator interface {
	InstallmentsPaid(loan *domain.Loan, totalPayable decimal.Decimal, payments []*domain.Payment) int
}

// CumulativeEstimator infers progress from the cumulative amount paid only:
// floor(paid / installmentAmount). Partial or early payments are not tied to
// specific due dates, so an underpaid installment is not counted as missed
// until the running total falls behind.
type CumulativeEstimator struct{}

func (CumulativeEstimator) InstallmentsPaid(loan *domain.Loan, totalPayable decimal.Decimal, payments []*domain.Payment) int {
	paid := decimal.Zero
	for _, p := range payments {
		paid = paid.Add(p.Amount)
	}

	// paid / (total / n) == paid * n / total; QuoRem keeps the floor exact.
	count := decimal.NewFromInt(int64(loan.InstallmentCount))
	q, _ := paid.Mul(count).QuoRem(totalPayable, 0)

	n := int(q.IntPart())
	if n < 0 {
		return 0
	}
	if n > loan.InstallmentCount {
		return loan.InstallmentCount
	}
	return n
}
