package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	ClientStatusActive   = "active"
	ClientStatusInactive = "inactive"
)

// Client is a borrower. Clients are owned by the user that registered them.
type Client struct {
	ID            uuid.UUID `json:"id" db:"id"`
	OwnerID       uuid.UUID `json:"owner_id" db:"owner_id"`
	Name          string    `json:"name" db:"name"`
	DocumentID    string    `json:"document_id" db:"document_id"`
	Phone         string    `json:"phone" db:"phone"`
	Address       string    `json:"address" db:"address"`
	HomeLocation  string    `json:"home_location" db:"home_location"`
	HomeReference string    `json:"home_reference" db:"home_reference"`
	WorkLocation  string    `json:"work_location" db:"work_location"`
	WorkReference string    `json:"work_reference" db:"work_reference"`
	Status        string    `json:"status" db:"status"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

type ClientRequest struct {
	Name          string `json:"name" validate:"required,max=200"`
	DocumentID    string `json:"document_id" validate:"required,max=50"`
	Phone         string `json:"phone" validate:"required,max=50"`
	Address       string `json:"address"`
	HomeLocation  string `json:"home_location"`
	HomeReference string `json:"home_reference"`
	WorkLocation  string `json:"work_location"`
	WorkReference string `json:"work_reference"`
	Status        string `json:"status" validate:"omitempty,oneof=active inactive"`
}
