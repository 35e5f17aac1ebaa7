package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/segyhp/loan-manager/internal/domain"
)

const clientColumns = `id, owner_id, name, document_id, phone, address, home_location, home_reference,
		work_location, work_reference, status, created_at, updated_at`

type clientRepository struct {
	db *sqlx.DB
}

func NewClientRepository(db *sqlx.DB) ClientRepository {
	return &clientRepository{db: db}
}

func (r *clientRepository) Create(ctx context.Context, client *domain.Client) error {
	query := r.db.Rebind(`
		INSERT INTO clients (` + clientColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)

	_, err := r.db.ExecContext(ctx, query,
		client.ID,
		client.OwnerID,
		client.Name,
		client.DocumentID,
		client.Phone,
		client.Address,
		client.HomeLocation,
		client.HomeReference,
		client.WorkLocation,
		client.WorkReference,
		client.Status,
		client.CreatedAt,
		client.UpdatedAt,
	)
	return err
}

func (r *clientRepository) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*domain.Client, error) {
	query := r.db.Rebind(`SELECT ` + clientColumns + ` FROM clients WHERE id = ? AND owner_id = ?`)

	var client domain.Client
	if err := r.db.GetContext(ctx, &client, query, id, ownerID); err != nil {
		return nil, err
	}
	return &client, nil
}

func (r *clientRepository) Update(ctx context.Context, client *domain.Client) error {
	query := r.db.Rebind(`
		UPDATE clients
		SET name = ?, document_id = ?, phone = ?, address = ?, home_location = ?, home_reference = ?,
			work_location = ?, work_reference = ?, status = ?, updated_at = ?
		WHERE id = ? AND owner_id = ?
	`)

	res, err := r.db.ExecContext(ctx, query,
		client.Name,
		client.DocumentID,
		client.Phone,
		client.Address,
		client.HomeLocation,
		client.HomeReference,
		client.WorkLocation,
		client.WorkReference,
		client.Status,
		client.UpdatedAt,
		client.ID,
		client.OwnerID,
	)
	if err != nil {
		return err
	}
	return expectRow(res)
}

func (r *clientRepository) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	query := r.db.Rebind(`DELETE FROM clients WHERE id = ? AND owner_id = ?`)

	res, err := r.db.ExecContext(ctx, query, id, ownerID)
	if err != nil {
		return err
	}
	return expectRow(res)
}

func (r *clientRepository) List(ctx context.Context, ownerID uuid.UUID) ([]*domain.Client, error) {
	query := r.db.Rebind(`SELECT ` + clientColumns + ` FROM clients WHERE owner_id = ? ORDER BY name`)

	clients := []*domain.Client{}
	if err := r.db.SelectContext(ctx, &clients, query, ownerID); err != nil {
		return nil, err
	}
	return clients, nil
}

func (r *clientRepository) Search(ctx context.Context, ownerID uuid.UUID, term string) ([]*domain.Client, error) {
	query := r.db.Rebind(`
		SELECT ` + clientColumns + `
		FROM clients
		WHERE owner_id = ? AND (LOWER(name) LIKE ? OR document_id LIKE ?)
		ORDER BY name
	`)

	pattern := likePattern(term)
	clients := []*domain.Client{}
	if err := r.db.SelectContext(ctx, &clients, query, ownerID, strings.ToLower(pattern), pattern); err != nil {
		return nil, err
	}
	return clients, nil
}

func (r *clientRepository) CountLoans(ctx context.Context, id uuid.UUID) (int, error) {
	query := r.db.Rebind(`SELECT COUNT(*) FROM loans WHERE client_id = ?`)

	var count int
	if err := r.db.GetContext(ctx, &count, query, id); err != nil {
		return 0, err
	}
	return count, nil
}
