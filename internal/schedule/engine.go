// Package schedule derives every balance and installment figure of a loan from
// the loan itself and a snapshot of its payments. It performs no I/O and keeps
// no state between calls, so an Engine may be shared freely across goroutines.
package schedule

import (
	"sort"
	"time"

	"github.com/segyhp/loan-manager/internal/domain"
	"github.com/segyhp/loan-manager/pkg/utils"

	"github.com/shopspring/decimal"
)

// DefaultPrecision is the number of decimal places installments are rounded to.
// Guaraníes have no minor unit.
const DefaultPrecision int32 = 0

// fallbackIntervalDays spaces installments of an unrecognized interval.
const fallbackIntervalDays = 30

var hundred = decimal.NewFromInt(100)

type Engine struct {
	precision int32
	progress  ProgressEstimator
}

type Option func(*Engine)

// WithProgressEstimator replaces the cumulative-amount estimator.
func WithProgressEstimator(p ProgressEstimator) Option {
	return func(e *Engine) {
		e.progress = p
	}
}

// New creates an Engine that rounds installment amounts down to precision decimal places.
func New(precision int32, opts ...Option) *Engine {
	e := &Engine{
		precision: precision,
		progress:  CumulativeEstimator{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Precision returns the rounding precision used for installment amounts.
func (e *Engine) Precision() int32 {
	return e.precision
}

// ValidateLoan checks the parameters every computation depends on.
func (e *Engine) ValidateLoan(loan *domain.Loan) error {
	if loan == nil {
		return &InvalidLoanError{Field: "loan", Reason: "is required"}
	}
	if loan.OriginationDate.IsZero() {
		return &InvalidLoanError{LoanID: loan.ID, Field: "origination_date", Reason: "is required"}
	}
	if !loan.Principal.IsPositive() {
		return &InvalidLoanError{LoanID: loan.ID, Field: "principal", Reason: "must be greater than zero"}
	}
	if loan.InstallmentCount <= 0 {
		return &InvalidLoanError{LoanID: loan.ID, Field: "installment_count", Reason: "must be greater than zero"}
	}
	if loan.InterestRate.IsNegative() {
		return &InvalidLoanError{LoanID: loan.ID, Field: "interest_rate", Reason: "cannot be negative"}
	}
	return nil
}

// ValidatePayment checks a single payment amount.
func (e *Engine) ValidatePayment(payment *domain.Payment) error {
	if !payment.Amount.IsPositive() {
		return &InvalidPaymentError{PaymentID: payment.ID, Amount: payment.Amount}
	}
	return nil
}

// TotalPayable returns principal plus simple interest, unrounded.
func (e *Engine) TotalPayable(loan *domain.Loan) (decimal.Decimal, error) {
	if err := e.ValidateLoan(loan); err != nil {
		return decimal.Zero, err
	}
	return totalPayable(loan), nil
}

// InstallmentAmount returns the nominal, unrounded amount of one installment.
func (e *Engine) InstallmentAmount(loan *domain.Loan) (decimal.Decimal, error) {
	if err := e.ValidateLoan(loan); err != nil {
		return decimal.Zero, err
	}
	return installmentAmount(loan), nil
}

// AmountPaid sums the payments that belong to loan. Dates are not considered.
func (e *Engine) AmountPaid(loan *domain.Loan, payments []*domain.Payment) (decimal.Decimal, error) {
	if err := e.ValidateLoan(loan); err != nil {
		return decimal.Zero, err
	}
	own, err := e.ownPayments(loan, payments)
	if err != nil {
		return decimal.Zero, err
	}
	return sumAmounts(own), nil
}

// OutstandingBalance is TotalPayable minus AmountPaid. Negative when overpaid.
func (e *Engine) OutstandingBalance(loan *domain.Loan, payments []*domain.Payment) (decimal.Decimal, error) {
	paid, err := e.AmountPaid(loan, payments)
	if err != nil {
		return decimal.Zero, err
	}
	return totalPayable(loan).Sub(paid), nil
}

// InstallmentsPaid returns how many installments the payments cover, within [0, InstallmentCount].
func (e *Engine) InstallmentsPaid(loan *domain.Loan, payments []*domain.Payment) (int, error) {
	if err := e.ValidateLoan(loan); err != nil {
		return 0, err
	}
	own, err := e.ownPayments(loan, payments)
	if err != nil {
		return 0, err
	}
	return e.progress.InstallmentsPaid(loan, totalPayable(loan), own), nil
}

// DueDate returns the due date of the 1-based installment index.
func (e *Engine) DueDate(loan *domain.Loan, index int) (domain.Date, error) {
	if err := e.ValidateLoan(loan); err != nil {
		return domain.Date{}, err
	}
	if index < 1 {
		return domain.Date{}, ErrInvalidIndex
	}
	return dueDate(loan, index), nil
}

// Schedule lists every installment. All but the last carry the installment amount
// rounded down to the engine precision; the last absorbs the remainder so the
// amounts sum exactly to TotalPayable.
func (e *Engine) Schedule(loan *domain.Loan) ([]*domain.Installment, error) {
	if err := e.ValidateLoan(loan); err != nil {
		return nil, err
	}
	return e.schedule(loan), nil
}

// NextDue returns the first installment not yet covered by payments, or nil when
// the loan is fully paid.
func (e *Engine) NextDue(loan *domain.Loan, payments []*domain.Payment, asOf time.Time) (*domain.Installment, error) {
	st, err := e.state(loan, payments)
	if err != nil {
		return nil, err
	}
	return st.nextDue(), nil
}

// Overdue lists the uncovered installments due before asOf, most overdue first.
func (e *Engine) Overdue(loan *domain.Loan, payments []*domain.Payment, asOf time.Time) ([]*domain.OverdueInstallment, error) {
	st, err := e.state(loan, payments)
	if err != nil {
		return nil, err
	}
	return st.overdue(asOf), nil
}

// DeriveStatus recomputes the loan status from its payments. Cancelled loans stay
// cancelled and delinquency is kept until the balance is settled.
func (e *Engine) DeriveStatus(loan *domain.Loan, payments []*domain.Payment) (string, error) {
	outstanding, err := e.OutstandingBalance(loan, payments)
	if err != nil {
		return "", err
	}
	return deriveStatus(loan.Status, outstanding), nil
}

// Summary bundles the derived figures shown on a loan's detail view.
func (e *Engine) Summary(loan *domain.Loan, payments []*domain.Payment, asOf time.Time) (*domain.LoanSummary, error) {
	st, err := e.state(loan, payments)
	if err != nil {
		return nil, err
	}

	outstanding := st.total.Sub(st.paid)
	return &domain.LoanSummary{
		TotalPayable:        st.total,
		InstallmentAmount:   installmentAmount(loan),
		AmountPaid:          st.paid,
		Outstanding:         outstanding,
		InstallmentsPaid:    st.paidCount,
		InstallmentsPending: loan.InstallmentCount - st.paidCount,
		OverdueCount:        len(st.overdue(asOf)),
		NextDue:             st.nextDue(),
		Status:              deriveStatus(loan.Status, outstanding),
	}, nil
}

// loanState is one consistent evaluation of a loan against a payment snapshot.
type loanState struct {
	total     decimal.Decimal
	paid      decimal.Decimal
	paidCount int
	schedule  []*domain.Installment
}

func (e *Engine) state(loan *domain.Loan, payments []*domain.Payment) (*loanState, error) {
	if err := e.ValidateLoan(loan); err != nil {
		return nil, err
	}
	own, err := e.ownPayments(loan, payments)
	if err != nil {
		return nil, err
	}

	total := totalPayable(loan)
	return &loanState{
		total:     total,
		paid:      sumAmounts(own),
		paidCount: e.progress.InstallmentsPaid(loan, total, own),
		schedule:  e.schedule(loan),
	}, nil
}

func (s *loanState) nextDue() *domain.Installment {
	if s.paidCount >= len(s.schedule) || !s.total.Sub(s.paid).IsPositive() {
		return nil
	}
	next := *s.schedule[s.paidCount]
	return &next
}

func (s *loanState) overdue(asOf time.Time) []*domain.OverdueInstallment {
	var result []*domain.OverdueInstallment
	for _, inst := range s.schedule[s.paidCount:] {
		if !utils.IsDateOverdue(inst.DueDate.Time, asOf) {
			continue
		}
		result = append(result, &domain.OverdueInstallment{
			Index:       inst.Index,
			DueDate:     inst.DueDate,
			Amount:      inst.Amount,
			DaysOverdue: utils.DaysBetweenCeil(inst.DueDate.Time, asOf),
		})
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].DaysOverdue > result[j].DaysOverdue
	})
	return result
}

func (e *Engine) schedule(loan *domain.Loan) []*domain.Installment {
	total := totalPayable(loan)
	amount := installmentAmount(loan).RoundFloor(e.precision)
	last := total.Sub(amount.Mul(decimal.NewFromInt(int64(loan.InstallmentCount - 1))))

	installments := make([]*domain.Installment, 0, loan.InstallmentCount)
	for i := 1; i <= loan.InstallmentCount; i++ {
		inst := &domain.Installment{
			Index:   i,
			DueDate: dueDate(loan, i),
			Amount:  amount,
		}
		if i == loan.InstallmentCount {
			inst.Amount = last
		}
		installments = append(installments, inst)
	}
	return installments
}

// ownPayments validates and returns, sorted by paid date, the payments that belong to loan.
// The caller's slice is never reordered.
func (e *Engine) ownPayments(loan *domain.Loan, payments []*domain.Payment) ([]*domain.Payment, error) {
	own := make([]*domain.Payment, 0, len(payments))
	for _, p := range payments {
		if p == nil || p.LoanID != loan.ID {
			continue
		}
		if err := e.ValidatePayment(p); err != nil {
			return nil, err
		}
		own = append(own, p)
	}

	sort.SliceStable(own, func(i, j int) bool {
		return own[i].PaidDate.Before(own[j].PaidDate)
	})
	return own, nil
}

func totalPayable(loan *domain.Loan) decimal.Decimal {
	interest := loan.Principal.Mul(loan.InterestRate).Div(hundred)
	return loan.Principal.Add(interest)
}

func installmentAmount(loan *domain.Loan) decimal.Decimal {
	return totalPayable(loan).Div(decimal.NewFromInt(int64(loan.InstallmentCount)))
}

func dueDate(loan *domain.Loan, index int) domain.Date {
	start := loan.OriginationDate
	switch loan.PaymentInterval {
	case domain.IntervalDaily:
		return start.AddDate(0, 0, index)
	case domain.IntervalWeekly:
		return start.AddDate(0, 0, index*7)
	case domain.IntervalBiweekly:
		return start.AddDate(0, 0, index*15)
	case domain.IntervalMonthly:
		return start.AddDate(0, index, 0)
	default:
		return start.AddDate(0, 0, index*fallbackIntervalDays)
	}
}

func deriveStatus(current string, outstanding decimal.Decimal) string {
	switch {
	case current == domain.LoanStatusCancelled:
		return domain.LoanStatusCancelled
	case !outstanding.IsPositive():
		return domain.LoanStatusPaid
	case current == domain.LoanStatusDelinquent:
		return domain.LoanStatusDelinquent
	default:
		return domain.LoanStatusActive
	}
}

func sumAmounts(payments []*domain.Payment) decimal.Decimal {
	total := decimal.Zero
	for _, p := range payments {
		total = total.Add(p.Amount)
	}
	return total
}
