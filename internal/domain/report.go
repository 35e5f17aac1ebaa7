package domain

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CollectionFilter selects the payments included in a collection report.
type CollectionFilter struct {
	From     *Date
	To       *Date
	ClientID *uuid.UUID
}

// CollectionLine groups the payments collected for one loan.
type CollectionLine struct {
	LoanID            uuid.UUID       `json:"loan_id"`
	OriginationDate   Date            `json:"origination_date"`
	ClientName        string          `json:"client_name"`
	Payments          []*Payment      `json:"payments"`
	PaymentsInPeriod  int             `json:"payments_in_period"`
	PaymentsTotal     int             `json:"payments_total"`
	InstallmentCount  int             `json:"installment_count"`
	CapitalCollected  decimal.Decimal `json:"capital_collected"`
	InterestCollected decimal.Decimal `json:"interest_collected"`
	AmountCollected   decimal.Decimal `json:"amount_collected"`
}

type CollectionReport struct {
	From              *Date             `json:"from,omitempty"`
	To                *Date             `json:"to,omitempty"`
	Lines             []*CollectionLine `json:"lines"`
	CapitalCollected  decimal.Decimal   `json:"capital_collected"`
	InterestCollected decimal.Decimal   `json:"interest_collected"`
	AmountCollected   decimal.Decimal   `json:"amount_collected"`
}

// PromissoryNote carries everything a renderer needs to print a note.
type PromissoryNote struct {
	Number          string          `json:"number"`
	IssueDate       Date            `json:"issue_date"`
	DebtorName      string          `json:"debtor_name"`
	DebtorDocument  string          `json:"debtor_document"`
	DebtorAddress   string          `json:"debtor_address"`
	DebtorPhone     string          `json:"debtor_phone"`
	Amount          decimal.Decimal `json:"amount"`
	AmountFormatted string          `json:"amount_formatted"`
	AmountInWords   string          `json:"amount_in_words"`
	Schedule        []*Installment  `json:"schedule"`
}
