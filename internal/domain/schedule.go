package domain

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Installment is one scheduled portion of a loan's total payable amount.
type Installment struct {
	Index   int             `json:"index"`
	DueDate Date            `json:"due_date"`
	Amount  decimal.Decimal `json:"amount"`
}

// OverdueInstallment is an unpaid installment whose due date has passed.
type OverdueInstallment struct {
	Index       int             `json:"index"`
	DueDate     Date            `json:"due_date"`
	Amount      decimal.Decimal `json:"amount"`
	DaysOverdue int             `json:"days_overdue"`
}

// LoanSummary bundles the derived figures of a loan at a given date.
type LoanSummary struct {
	TotalPayable        decimal.Decimal `json:"total_payable"`
	InstallmentAmount   decimal.Decimal `json:"installment_amount"`
	AmountPaid          decimal.Decimal `json:"amount_paid"`
	Outstanding         decimal.Decimal `json:"outstanding"`
	InstallmentsPaid    int             `json:"installments_paid"`
	InstallmentsPending int             `json:"installments_pending"`
	OverdueCount        int             `json:"overdue_count"`
	NextDue             *Installment    `json:"next_due,omitempty"`
	Status              string          `json:"status"`
}

type ScheduleResponse struct {
	LoanID   uuid.UUID      `json:"loan_id"`
	Schedule []*Installment `json:"schedule"`
}
