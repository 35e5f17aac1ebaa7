package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	PaymentMethodCash     = "cash"
	PaymentMethodTransfer = "transfer"
)

// Payment is a single amount received against a loan.
type Payment struct {
	ID        uuid.UUID       `json:"id" db:"id"`
	LoanID    uuid.UUID       `json:"loan_id" db:"loan_id"`
	PaidDate  Date            `json:"paid_date" db:"paid_date"`
	Amount    decimal.Decimal `json:"amount" db:"amount"`
	Method    string          `json:"method" db:"method"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
}

// PaymentFilter narrows payment listings. OwnerID is always applied.
type PaymentFilter struct {
	OwnerID  uuid.UUID
	LoanID   *uuid.UUID
	ClientID *uuid.UUID
	From     *Date
	To       *Date
}

type RegisterPaymentRequest struct {
	Amount   decimal.Decimal `json:"amount" validate:"gt=0"`
	PaidDate Date            `json:"paid_date"` // defaults to today
	Method   string          `json:"method" validate:"omitempty,oneof=cash transfer"`
}

type UpdatePaymentRequest struct {
	Amount   decimal.Decimal `json:"amount" validate:"gt=0"`
	PaidDate Date            `json:"paid_date" validate:"required"`
	Method   string          `json:"method" validate:"omitempty,oneof=cash transfer"`
}

type PaymentResponse struct {
	Payment     *Payment        `json:"payment"`
	LoanStatus  string          `json:"loan_status"`
	Outstanding decimal.Decimal `json:"outstanding"`
}
