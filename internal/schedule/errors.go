package schedule

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidLoan    = errors.New("invalid loan")
	ErrInvalidPayment = errors.New("invalid payment")
	ErrInvalidIndex   = errors.New("installment index must be at least 1")
)

// InvalidLoanError reports a loan whose parameters cannot produce a schedule.
type InvalidLoanError struct {
	LoanID uuid.UUID
	Field  string
	Reason string
}

func (e *InvalidLoanError) Error() string {
	return fmt.Sprintf("invalid loan %s: %s %s", e.LoanID, e.Field, e.Reason)
}

func (e *InvalidLoanError) Unwrap() error {
	return ErrInvalidLoan
}

// InvalidPaymentError reports a payment with a non-positive amount.
type InvalidPaymentError struct {
	PaymentID uuid.UUID
	Amount    decimal.Decimal
}

func (e *InvalidPaymentError) Error() string {
	return fmt.Sprintf("invalid payment %s: amount %s must be greater than zero", e.PaymentID, e.Amount.String())
}

func (e *InvalidPaymentError) Unwrap() error {
	return ErrInvalidPayment
}
