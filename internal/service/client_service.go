package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/segyhp/loan-manager/internal/domain"
	"github.com/segyhp/loan-manager/internal/repository"
	customError "github.com/segyhp/loan-manager/pkg/errors"
)

type ClientService struct {
	ClientRepo repository.ClientRepository
	clock      Clock
}

func NewClientService(clientRepo repository.ClientRepository, clock Clock) *ClientService {
	return &ClientService{
		ClientRepo: clientRepo,
		clock:      clock,
	}
}

// Create registers a client owned by the actor
func (s *ClientService) Create(ctx context.Context, actor domain.Actor, req *domain.ClientRequest) (*domain.Client, error) {
	if err := validateClient(req); err != nil {
		return nil, err
	}

	now := s.clock.timestamp()
	client := &domain.Client{
		ID:        uuid.New(),
		OwnerID:   actor.UserID,
		Status:    domain.ClientStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	applyClientRequest(client, req)

	if err := s.ClientRepo.Create(ctx, client); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return client, nil
}

func (s *ClientService) Get(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.Client, error) {
	client, err := s.ClientRepo.GetByID(ctx, actor.UserID, id)
	if err != nil {
		return nil, notFoundOr(err, customError.WrapClientNotFound(id.String()))
	}
	return client, nil
}

func (s *ClientService) Update(ctx context.Context, actor domain.Actor, id uuid.UUID, req *domain.ClientRequest) (*domain.Client, error) {
	if err := validateClient(req); err != nil {
		return nil, err
	}

	client, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	applyClientRequest(client, req)
	client.UpdatedAt = s.clock.timestamp()

	if err := s.ClientRepo.Update(ctx, client); err != nil {
		return nil, notFoundOr(err, customError.WrapClientNotFound(id.String()))
	}
	return client, nil
}

// Delete removes a client that has no loans
func (s *ClientService) Delete(ctx context.Context, actor domain.Actor, id uuid.UUID) error {
	if _, err := s.Get(ctx, actor, id); err != nil {
		return err
	}

	count, err := s.ClientRepo.CountLoans(ctx, id)
	if err != nil {
		return customError.WrapDatabaseError(err)
	}
	if count > 0 {
		return customError.WrapClientHasLoans(id.String())
	}

	if err := s.ClientRepo.Delete(ctx, actor.UserID, id); err != nil {
		return notFoundOr(err, customError.WrapClientNotFound(id.String()))
	}
	return nil
}

func (s *ClientService) List(ctx context.Context, actor domain.Actor) ([]*domain.Client, error) {
	clients, err := s.ClientRepo.List(ctx, actor.UserID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return clients, nil
}

// Search matches the term against name or document number. An empty term lists everything.
func (s *ClientService) Search(ctx context.Context, actor domain.Actor, term string) ([]*domain.Client, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return s.List(ctx, actor)
	}

	clients, err := s.ClientRepo.Search(ctx, actor.UserID, term)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return clients, nil
}

func validateClient(req *domain.ClientRequest) error {
	if req == nil {
		return customError.WrapValidation("client data is required", nil)
	}

	var missing []string
	if strings.TrimSpace(req.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(req.DocumentID) == "" {
		missing = append(missing, "document_id")
	}
	if strings.TrimSpace(req.Phone) == "" {
		missing = append(missing, "phone")
	}
	if len(missing) > 0 {
		return customError.WrapValidation("missing required fields: "+strings.Join(missing, ", "), nil)
	}
	return nil
}

func applyClientRequest(client *domain.Client, req *domain.ClientRequest) {
	client.Name = strings.TrimSpace(req.Name)
	client.DocumentID = strings.TrimSpace(req.DocumentID)
	client.Phone = strings.TrimSpace(req.Phone)
	client.Address = req.Address
	client.HomeLocation = req.HomeLocation
	client.HomeReference = req.HomeReference
	client.WorkLocation = req.WorkLocation
	client.WorkReference = req.WorkReference
	if req.Status != "" {
		client.Status = req.Status
	}
}
