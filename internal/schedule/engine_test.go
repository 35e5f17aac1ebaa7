package schedule

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/segyhp/loan-manager/internal/domain"
)

func newLoan(principal int64, rate int64, count int, interval string) *domain.Loan {
	return &domain.Loan{
		ID:               uuid.New(),
		ClientID:         uuid.New(),
		OriginationDate:  domain.NewDate(2024, time.January, 15),
		Principal:        decimal.NewFromInt(principal),
		InterestRate:     decimal.NewFromInt(rate),
		InstallmentCount: count,
		PaymentInterval:  interval,
		Status:           domain.LoanStatusActive,
	}
}

func pay(loan *domain.Loan, amount int64, date domain.Date) *domain.Payment {
	return &domain.Payment{
		ID:       uuid.New(),
		LoanID:   loan.ID,
		PaidDate: date,
		Amount:   decimal.NewFromInt(amount),
	}
}

func amounts(schedule []*domain.Installment) []string {
	out := make([]string, 0, len(schedule))
	for _, inst := range schedule {
		out = append(out, inst.Amount.String())
	}
	return out
}

func TestTotalPayableAndInstallmentAmount(t *testing.T) {
	engine := New(DefaultPrecision)
	loan := newLoan(1000000, 10, 4, domain.IntervalMonthly)

	total, err := engine.TotalPayable(loan)
	require.NoError(t, err)
	assert.True(t, total.Equal(decimal.NewFromInt(1100000)))

	amount, err := engine.InstallmentAmount(loan)
	require.NoError(t, err)
	assert.True(t, amount.Equal(decimal.NewFromInt(275000)))
}

func TestTotalPayableIsNotRounded(t *testing.T) {
	engine := New(DefaultPrecision)
	loan := newLoan(1000, 0, 1, domain.IntervalMonthly)
	loan.InterestRate = decimal.RequireFromString("3.5")

	total, err := engine.TotalPayable(loan)
	require.NoError(t, err)
	assert.Equal(t, "1035", total.String())

	loan.Principal = decimal.NewFromInt(999)
	total, err = engine.TotalPayable(loan)
	require.NoError(t, err)
	assert.Equal(t, "1033.965", total.String())
}

func TestScheduleMonthlyScenario(t *testing.T) {
	engine := New(DefaultPrecision)
	loan := newLoan(1000000, 10, 4, domain.IntervalMonthly)

	schedule, err := engine.Schedule(loan)
	require.NoError(t, err)
	require.Len(t, schedule, 4)

	assert.Equal(t, []string{"275000", "275000", "275000", "275000"}, amounts(schedule))

	expectedDates := []string{"2024-02-15", "2024-03-15", "2024-04-15", "2024-05-15"}
	for i, inst := range schedule {
		assert.Equal(t, i+1, inst.Index)
		assert.Equal(t, expectedDates[i], inst.DueDate.String())
	}
}

func TestScheduleLastInstallmentAbsorbsRemainder(t *testing.T) {
	engine := New(DefaultPrecision)

	tests := []struct {
		name      string
		principal int64
		count     int
		expected  []string
	}{
		{
			name:      "exact division",
			principal: 900000,
			count:     3,
			expected:  []string{"300000", "300000", "300000"},
		},
		{
			name:      "inexact division",
			principal: 1000000,
			count:     3,
			expected:  []string{"333333", "333333", "333334"},
		},
		{
			name:      "remainder larger than one unit",
			principal: 100,
			count:     7,
			expected:  []string{"14", "14", "14", "14", "14", "14", "16"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loan := newLoan(tt.principal, 0, tt.count, domain.IntervalWeekly)

			schedule, err := engine.Schedule(loan)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, amounts(schedule))
		})
	}
}

func TestScheduleSumsToTotalPayable(t *testing.T) {
	tests := []struct {
		principal string
		rate      string
		count     int
		precision int32
	}{
		{"1000000", "10", 4, 0},
		{"1000000", "0", 3, 0},
		{"1234567", "7.5", 13, 0},
		{"500", "33.333", 9, 2},
		{"2500000", "18", 52, 0},
		{"1", "0", 1, 0},
		{"750000", "12.25", 30, 0},
	}

	for _, tt := range tests {
		t.Run(tt.principal+"/"+tt.rate, func(t *testing.T) {
			engine := New(tt.precision)
			loan := newLoan(0, 0, tt.count, domain.IntervalDaily)
			loan.Principal = decimal.RequireFromString(tt.principal)
			loan.InterestRate = decimal.RequireFromString(tt.rate)

			schedule, err := engine.Schedule(loan)
			require.NoError(t, err)
			require.Len(t, schedule, tt.count)

			sum := decimal.Zero
			for _, inst := range schedule {
				sum = sum.Add(inst.Amount)
			}

			total, err := engine.TotalPayable(loan)
			require.NoError(t, err)
			assert.True(t, sum.Equal(total), "sum %s != total %s", sum, total)
		})
	}
}

func TestScheduleSingleInstallment(t *testing.T) {
	engine := New(DefaultPrecision)
	loan := newLoan(1000000, 15, 1, domain.IntervalMonthly)

	schedule, err := engine.Schedule(loan)
	require.NoError(t, err)
	require.Len(t, schedule, 1)

	total, _ := engine.TotalPayable(loan)
	assert.True(t, schedule[0].Amount.Equal(total))
	assert.Equal(t, "2024-02-15", schedule[0].DueDate.String())
}

func TestScheduleIsIdempotent(t *testing.T) {
	engine := New(DefaultPrecision)
	loan := newLoan(1000000, 10, 12, domain.IntervalBiweekly)

	first, err := engine.Schedule(loan)
	require.NoError(t, err)
	second, err := engine.Schedule(loan)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestDueDate(t *testing.T) {
	engine := New(DefaultPrecision)

	tests := []struct {
		name     string
		interval string
		origin   domain.Date
		index    int
		expected string
	}{
		{"daily first", domain.IntervalDaily, domain.NewDate(2024, 1, 15), 1, "2024-01-16"},
		{"daily crosses month", domain.IntervalDaily, domain.NewDate(2024, 1, 31), 1, "2024-02-01"},
		{"weekly third", domain.IntervalWeekly, domain.NewDate(2024, 1, 15), 3, "2024-02-05"},
		{"biweekly second", domain.IntervalBiweekly, domain.NewDate(2024, 1, 15), 2, "2024-02-14"},
		{"monthly keeps day", domain.IntervalMonthly, domain.NewDate(2024, 1, 15), 12, "2025-01-15"},
		{"monthly rolls over short month", domain.IntervalMonthly, domain.NewDate(2024, 1, 31), 1, "2024-03-02"},
		{"monthly leap day", domain.IntervalMonthly, domain.NewDate(2024, 1, 29), 1, "2024-02-29"},
		{"unknown interval falls back to 30 days", "quarterly", domain.NewDate(2024, 1, 15), 2, "2024-03-15"},
		{"empty interval falls back to 30 days", "", domain.NewDate(2024, 1, 1), 1, "2024-01-31"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loan := newLoan(1000, 0, 12, tt.interval)
			loan.OriginationDate = tt.origin

			due, err := engine.DueDate(loan, tt.index)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, due.String())
		})
	}

	_, err := engine.DueDate(newLoan(1000, 0, 2, domain.IntervalDaily), 0)
	assert.ErrorIs(t, err, ErrInvalidIndex)
}

func TestBalancesAfterOnePayment(t *testing.T) {
	engine := New(DefaultPrecision)
	loan := newLoan(1000000, 10, 4, domain.IntervalMonthly)
	payments := []*domain.Payment{pay(loan, 275000, domain.NewDate(2024, 2, 15))}

	paidCount, err := engine.InstallmentsPaid(loan, payments)
	require.NoError(t, err)
	assert.Equal(t, 1, paidCount)

	outstanding, err := engine.OutstandingBalance(loan, payments)
	require.NoError(t, err)
	assert.True(t, outstanding.Equal(decimal.NewFromInt(825000)))

	status, err := engine.DeriveStatus(loan, payments)
	require.NoError(t, err)
	assert.Equal(t, domain.LoanStatusActive, status)
}

func TestFullyPaidLoan(t *testing.T) {
	engine := New(DefaultPrecision)
	loan := newLoan(1000000, 10, 4, domain.IntervalMonthly)
	payments := []*domain.Payment{
		pay(loan, 500000, domain.NewDate(2024, 2, 15)),
		pay(loan, 600000, domain.NewDate(2024, 4, 1)),
	}

	status, err := engine.DeriveStatus(loan, payments)
	require.NoError(t, err)
	assert.Equal(t, domain.LoanStatusPaid, status)

	outstanding, err := engine.OutstandingBalance(loan, payments)
	require.NoError(t, err)
	assert.False(t, outstanding.IsPositive())

	next, err := engine.NextDue(loan, payments, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Nil(t, next)

	overdue, err := engine.Overdue(loan, payments, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Empty(t, overdue)
}

func TestOutstandingBalanceMayBeNegative(t *testing.T) {
	engine := New(DefaultPrecision)
	loan := newLoan(1000, 0, 1, domain.IntervalDaily)
	payments := []*domain.Payment{pay(loan, 1500, domain.NewDate(2024, 1, 16))}

	outstanding, err := engine.OutstandingBalance(loan, payments)
	require.NoError(t, err)
	assert.True(t, outstanding.Equal(decimal.NewFromInt(-500)))

	paidCount, err := engine.InstallmentsPaid(loan, payments)
	require.NoError(t, err)
	assert.Equal(t, 1, paidCount, "clamped to installment count")
}

func TestOutstandingEqualsTotalMinusPaid(t *testing.T) {
	engine := New(DefaultPrecision)
	loan := newLoan(2000000, 12, 6, domain.IntervalWeekly)

	var payments []*domain.Payment
	for _, amount := range []int64{0, 100000, 373333, 1, 999999, 766667} {
		if amount > 0 {
			payments = append(payments, pay(loan, amount, domain.NewDate(2024, 2, 1)))
		}

		total, err := engine.TotalPayable(loan)
		require.NoError(t, err)
		paid, err := engine.AmountPaid(loan, payments)
		require.NoError(t, err)
		outstanding, err := engine.OutstandingBalance(loan, payments)
		require.NoError(t, err)

		assert.True(t, outstanding.Equal(total.Sub(paid)))
	}
}

func TestAmountPaidIgnoresOtherLoans(t *testing.T) {
	engine := New(DefaultPrecision)
	loan := newLoan(1000000, 10, 4, domain.IntervalMonthly)
	other := newLoan(1000000, 10, 4, domain.IntervalMonthly)

	payments := []*domain.Payment{
		pay(loan, 100000, domain.NewDate(2024, 2, 1)),
		pay(other, 900000, domain.NewDate(2024, 2, 1)),
		nil,
		pay(loan, 50000, domain.NewDate(2023, 12, 1)),
	}

	paid, err := engine.AmountPaid(loan, payments)
	require.NoError(t, err)
	assert.True(t, paid.Equal(decimal.NewFromInt(150000)))
}

func TestInstallmentsPaidIsMonotonic(t *testing.T) {
	engine := New(DefaultPrecision)
	loan := newLoan(1000000, 0, 3, domain.IntervalMonthly)

	var payments []*domain.Payment
	previous := 0
	for _, amount := range []int64{100000, 233333, 1, 333333, 200000, 133332, 1, 50000} {
		payments = append(payments, pay(loan, amount, domain.NewDate(2024, 2, 1)))

		count, err := engine.InstallmentsPaid(loan, payments)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, count, previous)
		previous = count
	}
	assert.Equal(t, 3, previous)
}

func TestInstallmentsPaidOnExactThirds(t *testing.T) {
	engine := New(DefaultPrecision)
	loan := newLoan(2, 0, 3, domain.IntervalDaily)
	payments := []*domain.Payment{pay(loan, 2, domain.NewDate(2024, 1, 16))}

	count, err := engine.InstallmentsPaid(loan, payments)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestInstallmentsPaidPartialPayment(t *testing.T) {
	engine := New(DefaultPrecision)
	loan := newLoan(1000000, 0, 3, domain.IntervalMonthly)

	// 333333 is the rounded schedule amount but falls short of the nominal 333333.33...
	payments := []*domain.Payment{pay(loan, 333333, domain.NewDate(2024, 2, 15))}

	count, err := engine.InstallmentsPaid(loan, payments)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestNextDue(t *testing.T) {
	engine := New(DefaultPrecision)
	loan := newLoan(1000000, 10, 4, domain.IntervalMonthly)
	asOf := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	next, err := engine.NextDue(loan, nil, asOf)
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, 1, next.Index)
	assert.Equal(t, "2024-02-15", next.DueDate.String())
	assert.True(t, next.Amount.Equal(decimal.NewFromInt(275000)))

	payments := []*domain.Payment{
		pay(loan, 275000, domain.NewDate(2024, 2, 15)),
		pay(loan, 300000, domain.NewDate(2024, 3, 15)),
	}
	next, err = engine.NextDue(loan, payments, asOf)
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, 3, next.Index)
	assert.Equal(t, "2024-04-15", next.DueDate.String())
}

func TestNextDueDoesNotAliasSchedule(t *testing.T) {
	engine := New(DefaultPrecision)
	loan := newLoan(1000000, 10, 4, domain.IntervalMonthly)

	next, err := engine.NextDue(loan, nil, time.Now())
	require.NoError(t, err)
	next.Amount = decimal.Zero

	schedule, err := engine.Schedule(loan)
	require.NoError(t, err)
	assert.True(t, schedule[0].Amount.Equal(decimal.NewFromInt(275000)))
}

func TestOverdue(t *testing.T) {
	engine := New(DefaultPrecision)
	loan := newLoan(1000000, 10, 4, domain.IntervalMonthly)
	payments := []*domain.Payment{pay(loan, 275000, domain.NewDate(2024, 2, 10))}
	asOf := time.Date(2024, 4, 20, 0, 0, 0, 0, time.UTC)

	overdue, err := engine.Overdue(loan, payments, asOf)
	require.NoError(t, err)
	require.Len(t, overdue, 2)

	assert.Equal(t, 2, overdue[0].Index)
	assert.Equal(t, "2024-03-15", overdue[0].DueDate.String())
	assert.Equal(t, 36, overdue[0].DaysOverdue)

	assert.Equal(t, 3, overdue[1].Index)
	assert.Equal(t, "2024-04-15", overdue[1].DueDate.String())
	assert.Equal(t, 5, overdue[1].DaysOverdue)
}

func TestOverdueExcludesDueToday(t *testing.T) {
	engine := New(DefaultPrecision)
	loan := newLoan(1000000, 10, 4, domain.IntervalMonthly)

	overdue, err := engine.Overdue(loan, nil, time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Empty(t, overdue)

	overdue, err = engine.Overdue(loan, nil, time.Date(2024, 2, 15, 8, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, 1, overdue[0].DaysOverdue, "partial days round up")
}

func TestDeriveStatus(t *testing.T) {
	engine := New(DefaultPrecision)

	tests := []struct {
		name     string
		current  string
		paid     int64
		expected string
	}{
		{"active stays active", domain.LoanStatusActive, 100000, domain.LoanStatusActive},
		{"active becomes paid", domain.LoanStatusActive, 1100000, domain.LoanStatusPaid},
		{"overpaid is paid", domain.LoanStatusActive, 1200000, domain.LoanStatusPaid},
		{"delinquent is sticky", domain.LoanStatusDelinquent, 100000, domain.LoanStatusDelinquent},
		{"delinquent becomes paid", domain.LoanStatusDelinquent, 1100000, domain.LoanStatusPaid},
		{"cancelled stays cancelled", domain.LoanStatusCancelled, 100000, domain.LoanStatusCancelled},
		{"cancelled stays cancelled when paid", domain.LoanStatusCancelled, 1100000, domain.LoanStatusCancelled},
		{"paid with balance reopens as active", domain.LoanStatusPaid, 100000, domain.LoanStatusActive},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loan := newLoan(1000000, 10, 4, domain.IntervalMonthly)
			loan.Status = tt.current
			payments := []*domain.Payment{pay(loan, tt.paid, domain.NewDate(2024, 2, 1))}

			status, err := engine.DeriveStatus(loan, payments)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, status)
		})
	}
}

func TestDeriveStatusNeverLeavesCancelled(t *testing.T) {
	engine := New(DefaultPrecision)
	loan := newLoan(1000000, 10, 4, domain.IntervalMonthly)
	loan.Status = domain.LoanStatusCancelled

	var payments []*domain.Payment
	for i := 0; i < 6; i++ {
		status, err := engine.DeriveStatus(loan, payments)
		require.NoError(t, err)
		assert.Equal(t, domain.LoanStatusCancelled, status)
		payments = append(payments, pay(loan, 275000, domain.NewDate(2024, 2, 1)))
	}
}

func TestSummary(t *testing.T) {
	engine := New(DefaultPrecision)
	loan := newLoan(1000000, 10, 4, domain.IntervalMonthly)
	payments := []*domain.Payment{pay(loan, 275000, domain.NewDate(2024, 2, 15))}

	summary, err := engine.Summary(loan, payments, time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.True(t, summary.TotalPayable.Equal(decimal.NewFromInt(1100000)))
	assert.True(t, summary.AmountPaid.Equal(decimal.NewFromInt(275000)))
	assert.True(t, summary.Outstanding.Equal(decimal.NewFromInt(825000)))
	assert.Equal(t, 1, summary.InstallmentsPaid)
	assert.Equal(t, 3, summary.InstallmentsPending)
	assert.Equal(t, 1, summary.OverdueCount)
	require.NotNil(t, summary.NextDue)
	assert.Equal(t, 2, summary.NextDue.Index)
	assert.Equal(t, domain.LoanStatusActive, summary.Status)
}

func TestInvalidLoan(t *testing.T) {
	engine := New(DefaultPrecision)

	tests := []struct {
		name   string
		mutate func(*domain.Loan)
		field  string
	}{
		{"zero principal", func(l *domain.Loan) { l.Principal = decimal.Zero }, "principal"},
		{"negative principal", func(l *domain.Loan) { l.Principal = decimal.NewFromInt(-1) }, "principal"},
		{"zero installments", func(l *domain.Loan) { l.InstallmentCount = 0 }, "installment_count"},
		{"negative installments", func(l *domain.Loan) { l.InstallmentCount = -2 }, "installment_count"},
		{"negative rate", func(l *domain.Loan) { l.InterestRate = decimal.NewFromInt(-5) }, "interest_rate"},
		{"missing origination date", func(l *domain.Loan) { l.OriginationDate = domain.Date{} }, "origination_date"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loan := newLoan(1000000, 10, 4, domain.IntervalMonthly)
			tt.mutate(loan)

			_, err := engine.InstallmentAmount(loan)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidLoan)

			var invalid *InvalidLoanError
			require.True(t, errors.As(err, &invalid))
			assert.Equal(t, tt.field, invalid.Field)

			_, err = engine.Schedule(loan)
			assert.ErrorIs(t, err, ErrInvalidLoan)
			_, err = engine.DeriveStatus(loan, nil)
			assert.ErrorIs(t, err, ErrInvalidLoan)
		})
	}

	_, err := engine.TotalPayable(nil)
	assert.ErrorIs(t, err, ErrInvalidLoan)
}

func TestInvalidPayment(t *testing.T) {
	engine := New(DefaultPrecision)
	loan := newLoan(1000000, 10, 4, domain.IntervalMonthly)

	for _, amount := range []int64{0, -100} {
		payments := []*domain.Payment{
			pay(loan, 100, domain.NewDate(2024, 2, 1)),
			pay(loan, amount, domain.NewDate(2024, 2, 2)),
		}

		_, err := engine.AmountPaid(loan, payments)
		assert.ErrorIs(t, err, ErrInvalidPayment)

		var invalid *InvalidPaymentError
		require.True(t, errors.As(err, &invalid))
		assert.Equal(t, payments[1].ID, invalid.PaymentID)

		_, err = engine.Overdue(loan, payments, time.Now())
		assert.ErrorIs(t, err, ErrInvalidPayment)
	}
}

func TestEngineDoesNotReorderCallerPayments(t *testing.T) {
	engine := New(DefaultPrecision)
	loan := newLoan(1000000, 10, 4, domain.IntervalMonthly)
	late := pay(loan, 100, domain.NewDate(2024, 5, 1))
	early := pay(loan, 100, domain.NewDate(2024, 2, 1))
	payments := []*domain.Payment{late, early}

	_, err := engine.InstallmentsPaid(loan, payments)
	require.NoError(t, err)

	assert.Same(t, late, payments[0])
	assert.Same(t, early, payments[1])
}

type fixedEstimator int

func (f fixedEstimator) InstallmentsPaid(*domain.Loan, decimal.Decimal, []*domain.Payment) int {
	return int(f)
}

func TestWithProgressEstimator(t *testing.T) {
	engine := New(DefaultPrecision, WithProgressEstimator(fixedEstimator(2)))
	loan := newLoan(1000000, 10, 4, domain.IntervalMonthly)

	count, err := engine.InstallmentsPaid(loan, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	next, err := engine.NextDue(loan, nil, time.Now())
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, 3, next.Index)
}

func TestPrecision(t *testing.T) {
	engine := New(2)
	loan := newLoan(100, 0, 3, domain.IntervalDaily)

	schedule, err := engine.Schedule(loan)
	require.NoError(t, err)
	assert.Equal(t, []string{"33.33", "33.33", "33.34"}, amounts(schedule))
	assert.Equal(t, int32(2), engine.Precision())
}
