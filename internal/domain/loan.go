package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	LoanStatusActive     = "active"
	LoanStatusPaid       = "paid"
	LoanStatusDelinquent = "delinquent"
	LoanStatusCancelled  = "cancelled"
)

const (
	IntervalDaily    = "daily"
	IntervalWeekly   = "weekly"
	IntervalBiweekly = "biweekly"
	IntervalMonthly  = "monthly"
)

// MaxInstallments caps the installment count accepted from requests; the lte tags
// on the loan requests below must match it. One hundred years of monthly installments.
const MaxInstallments = 1200

// Loan represents a loan entity
type Loan struct {
	ID               uuid.UUID       `json:"id" db:"id"`
	ClientID         uuid.UUID       `json:"client_id" db:"client_id"`
	OriginationDate  Date            `json:"origination_date" db:"origination_date"`
	Principal        decimal.Decimal `json:"principal" db:"principal"`
	InterestRate     decimal.Decimal `json:"interest_rate" db:"interest_rate"` // percentage, simple interest
	InstallmentCount int             `json:"installment_count" db:"installment_count"`
	PaymentInterval  string          `json:"payment_interval" db:"payment_interval"`
	Status           string          `json:"status" db:"status"`
	CreatedAt        time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at" db:"updated_at"`
}

// IsOpen reports whether the loan still expects payments.
func (l *Loan) IsOpen() bool {
	return l.Status == LoanStatusActive || l.Status == LoanStatusDelinquent
}

// LoanFilter narrows loan listings. OwnerID is always applied.
type LoanFilter struct {
	OwnerID  uuid.UUID
	ClientID *uuid.UUID
	Status   string
	From     *Date
	To       *Date
}

// DTOs for requests and responses

type CreateLoanRequest struct {
	ClientID         uuid.UUID       `json:"client_id" validate:"required"`
	OriginationDate  Date            `json:"origination_date" validate:"required"`
	Principal        decimal.Decimal `json:"principal" validate:"gt=0"`
	InterestRate     decimal.Decimal `json:"interest_rate" validate:"gte=0"`
	InstallmentCount int             `json:"installment_count" validate:"required,gt=0,lte=1200"`
	PaymentInterval  string          `json:"payment_interval" validate:"required,oneof=daily weekly biweekly monthly"`
}

type UpdateLoanRequest struct {
	OriginationDate  Date            `json:"origination_date" validate:"required"`
	Principal        decimal.Decimal `json:"principal" validate:"gt=0"`
	InterestRate     decimal.Decimal `json:"interest_rate" validate:"gte=0"`
	InstallmentCount int             `json:"installment_count" validate:"required,gt=0,lte=1200"`
	PaymentInterval  string          `json:"payment_interval" validate:"required,oneof=daily weekly biweekly monthly"`
	Status           string          `json:"status" validate:"omitempty,oneof=active paid delinquent cancelled"`
}

type CreateLoanResponse struct {
	Loan     *Loan          `json:"loan"`
	Schedule []*Installment `json:"schedule"`
}

type LoanDetailResponse struct {
	Loan     *Loan          `json:"loan"`
	Client   *Client        `json:"client,omitempty"`
	Summary  *LoanSummary   `json:"summary"`
	Payments []*Payment     `json:"payments"`
	Schedule []*Installment `json:"schedule"`
}

type OutstandingResponse struct {
	LoanID       uuid.UUID       `json:"loan_id"`
	TotalPayable decimal.Decimal `json:"total_payable"`
	AmountPaid   decimal.Decimal `json:"amount_paid"`
	Outstanding  decimal.Decimal `json:"outstanding"`
}
