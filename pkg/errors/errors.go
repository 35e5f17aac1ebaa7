package errors

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	ErrLoanNotFound            = errors.New("loan not found")
	ErrClientNotFound          = errors.New("client not found")
	ErrPaymentNotFound         = errors.New("payment not found")
	ErrInvalidLoan             = errors.New("invalid loan")
	ErrInvalidPaymentAmount    = errors.New("invalid payment amount")
	ErrLoanHasPayments         = errors.New("loan has payments")
	ErrClientHasLoans          = errors.New("client has loans")
	ErrLoanNotPayable          = errors.New("loan does not accept payments")
	ErrInvalidStatusTransition = errors.New("invalid status transition")
	ErrValidation              = errors.New("validation failed")
)

// BusinessError represents a business logic error
type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

// NewBusinessError creates a new business error
func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Code returns the code of the first BusinessError in err's chain, or "" if there is none.
func Code(err error) string {
	var be *BusinessError
	if errors.As(err, &be) {
		return be.Code
	}
	return ""
}

// Error codes
const (
	ErrCodeLoanNotFound            = "LOAN_NOT_FOUND"
	ErrCodeClientNotFound          = "CLIENT_NOT_FOUND"
	ErrCodePaymentNotFound         = "PAYMENT_NOT_FOUND"
	ErrCodeInvalidLoan             = "INVALID_LOAN"
	ErrCodeInvalidPaymentAmount    = "INVALID_PAYMENT_AMOUNT"
	ErrCodeLoanHasPayments         = "LOAN_HAS_PAYMENTS"
	ErrCodeClientHasLoans          = "CLIENT_HAS_LOANS"
	ErrCodeLoanNotPayable          = "LOAN_NOT_PAYABLE"
	ErrCodeInvalidStatusTransition = "INVALID_STATUS_TRANSITION"
	ErrCodeDatabaseError           = "DATABASE_ERROR"
	ErrCodeCacheError              = "CACHE_ERROR"
	ErrCodeValidation              = "VALIDATION_ERROR"
)

// Wrap common errors with business context
func WrapLoanNotFound(loanID string) *BusinessError {
	return NewBusinessError(
		ErrCodeLoanNotFound,
		fmt.Sprintf("Loan with ID %s not found", loanID),
		ErrLoanNotFound,
	)
}

func WrapClientNotFound(clientID string) *BusinessError {
	return NewBusinessError(
		ErrCodeClientNotFound,
		fmt.Sprintf("Client with ID %s not found", clientID),
		ErrClientNotFound,
	)
}

func WrapPaymentNotFound(paymentID string) *BusinessError {
	return NewBusinessError(
		ErrCodePaymentNotFound,
		fmt.Sprintf("Payment with ID %s not found", paymentID),
		ErrPaymentNotFound,
	)
}

// WrapInvalidLoan keeps the engine error in the chain so callers can still errors.As it.
func WrapInvalidLoan(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeInvalidLoan,
		"Loan parameters are invalid",
		errors.Join(ErrInvalidLoan, err),
	)
}

func WrapInvalidPaymentAmount(amount string) *BusinessError {
	return NewBusinessError(
		ErrCodeInvalidPaymentAmount,
		fmt.Sprintf("Invalid payment amount: %s", amount),
		ErrInvalidPaymentAmount,
	)
}

func WrapLoanHasPayments(loanID string) *BusinessError {
	return NewBusinessError(
		ErrCodeLoanHasPayments,
		fmt.Sprintf("Loan with ID %s has registered payments and cannot be deleted", loanID),
		ErrLoanHasPayments,
	)
}

func WrapClientHasLoans(clientID string) *BusinessError {
	return NewBusinessError(
		ErrCodeClientHasLoans,
		fmt.Sprintf("Client with ID %s has loans and cannot be deleted", clientID),
		ErrClientHasLoans,
	)
}

func WrapLoanNotPayable(loanID, status string) *BusinessError {
	return NewBusinessError(
		ErrCodeLoanNotPayable,
		fmt.Sprintf("Loan with ID %s is %s and does not accept payments", loanID, status),
		ErrLoanNotPayable,
	)
}

func WrapInvalidStatusTransition(from, to string) *BusinessError {
	return NewBusinessError(
		ErrCodeInvalidStatusTransition,
		fmt.Sprintf("Loan status cannot change from %s to %s", from, to),
		ErrInvalidStatusTransition,
	)
}

func WrapValidation(message string, err error) *BusinessError {
	if err == nil {
		err = ErrValidation
	}
	return NewBusinessError(ErrCodeValidation, message, err)
}

func WrapDatabaseError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeDatabaseError,
		"database operation failed",
		err,
	)
}

func WrapCacheError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeCacheError,
		"cache operation failed",
		err,
	)
}
