package handler

import (
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/segyhp/loan-manager/internal/domain"
	"github.com/segyhp/loan-manager/internal/service"
	"github.com/segyhp/loan-manager/pkg/response"
)

type ClientHandler struct {
	clients   *service.ClientService
	loans     *service.LoanService
	validator *validator.Validate
}

func NewClientHandler(clients *service.ClientService, loans *service.LoanService, v *validator.Validate) *ClientHandler {
	return &ClientHandler{
		clients:   clients,
		loans:     loans,
		validator: v,
	}
}

// Create handles POST /clients
func (h *ClientHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.ClientRequest
	if err := decode(r, h.validator, &req); err != nil {
		response.FromError(w, err)
		return
	}

	client, err := h.clients.Create(r.Context(), actorFrom(r), &req)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Created(w, client)
}

// List handles GET /clients
func (h *ClientHandler) List(w http.ResponseWriter, r *http.Request) {
	clients, err := h.clients.List(r.Context(), actorFrom(r))
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, clients)
}

// Search handles GET /clients/search?q=
func (h *ClientHandler) Search(w http.ResponseWriter, r *http.Request) {
	clients, err := h.clients.Search(r.Context(), actorFrom(r), r.URL.Query().Get("q"))
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, clients)
}

func (h *ClientHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		response.FromError(w, err)
		return
	}

	client, err := h.clients.Get(r.Context(), actorFrom(r), id)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, client)
}

func (h *ClientHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		response.FromError(w, err)
		return
	}
	var req domain.ClientRequest
	if err := decode(r, h.validator, &req); err != nil {
		response.FromError(w, err)
		return
	}

	client, err := h.clients.Update(r.Context(), actorFrom(r), id, &req)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, client)
}

func (h *ClientHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		response.FromError(w, err)
		return
	}

	if err := h.clients.Delete(r.Context(), actorFrom(r), id); err != nil {
		response.FromError(w, err)
		return
	}
	response.Message(w, "client deleted")
}

// Loans handles GET /clients/{id}/loans
func (h *ClientHandler) Loans(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		response.FromError(w, err)
		return
	}

	actor := actorFrom(r)
	if _, err := h.clients.Get(r.Context(), actor, id); err != nil {
		response.FromError(w, err)
		return
	}

	loans, err := h.loans.List(r.Context(), actor, domain.LoanFilter{ClientID: &id})
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, loans)
}
