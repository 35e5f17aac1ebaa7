package domain

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DashboardMetrics is the financial overview across the actor's open loans.
type DashboardMetrics struct {
	ActiveLoans      int             `json:"active_loans"`
	DelinquentLoans  int             `json:"delinquent_loans"`
	CapitalLent      decimal.Decimal `json:"capital_lent"`
	ExpectedInterest decimal.Decimal `json:"expected_interest"`
	Collected        decimal.Decimal `json:"collected"`
	Receivable       decimal.Decimal `json:"receivable"`
	LoansByStatus    map[string]int  `json:"loans_by_status"`
}

// DueItem is a loan's next or overdue installment as listed on the dashboard.
type DueItem struct {
	LoanID      uuid.UUID       `json:"loan_id"`
	ClientID    uuid.UUID       `json:"client_id"`
	ClientName  string          `json:"client_name"`
	Index       int             `json:"index"`
	DueDate     Date            `json:"due_date"`
	Amount      decimal.Decimal `json:"amount"`
	DaysOverdue int             `json:"days_overdue,omitempty"`
}

// CalendarDay aggregates the pending installments falling on one date.
type CalendarDay struct {
	Date  Date            `json:"date"`
	Count int             `json:"count"`
	Total decimal.Decimal `json:"total"`
	Items []*DueItem      `json:"items"`
}

// ClientRanking is one row of the top-clients widgets.
type ClientRanking struct {
	ClientID   uuid.UUID       `json:"client_id"`
	ClientName string          `json:"client_name"`
	Debt       decimal.Decimal `json:"debt"`
	LoanCount  int             `json:"loan_count"`
}

type TopClientsResponse struct {
	ByDebt      []*ClientRanking `json:"by_debt"`
	ByLoanCount []*ClientRanking `json:"by_loan_count"`
}
