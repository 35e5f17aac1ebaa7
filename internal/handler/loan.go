package handler

import (
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/segyhp/loan-manager/internal/domain"
	"github.com/segyhp/loan-manager/internal/service"
	customError "github.com/segyhp/loan-manager/pkg/errors"
	"github.com/segyhp/loan-manager/pkg/response"
)

type LoanHandler struct {
	loans     *service.LoanService
	reports   *service.ReportService
	validator *validator.Validate
}

func NewLoanHandler(loans *service.LoanService, reports *service.ReportService, v *validator.Validate) *LoanHandler {
	return &LoanHandler{
		loans:     loans,
		reports:   reports,
		validator: v,
	}
}

// Create handles POST /loans
func (h *LoanHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateLoanRequest
	if err := decode(r, h.validator, &req); err != nil {
		response.FromError(w, err)
		return
	}

	result, err := h.loans.Create(r.Context(), actorFrom(r), &req)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Created(w, result)
}

// List handles GET /loans?status=&client_id=&from=&to=
func (h *LoanHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, err := loanFilter(r)
	if err != nil {
		response.FromError(w, err)
		return
	}

	loans, err := h.loans.List(r.Context(), actorFrom(r), filter)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, loans)
}

// Search handles GET /loans/search?q=
func (h *LoanHandler) Search(w http.ResponseWriter, r *http.Request) {
	loans, err := h.loans.Search(r.Context(), actorFrom(r), r.URL.Query().Get("q"))
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, loans)
}

func (h *LoanHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		response.FromError(w, err)
		return
	}

	detail, err := h.loans.Get(r.Context(), actorFrom(r), id)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, detail)
}

func (h *LoanHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		response.FromError(w, err)
		return
	}
	var req domain.UpdateLoanRequest
	if err := decode(r, h.validator, &req); err != nil {
		response.FromError(w, err)
		return
	}

	loan, err := h.loans.Update(r.Context(), actorFrom(r), id, &req)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, loan)
}

func (h *LoanHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		response.FromError(w, err)
		return
	}

	if err := h.loans.Delete(r.Context(), actorFrom(r), id); err != nil {
		response.FromError(w, err)
		return
	}
	response.Message(w, "loan deleted")
}

// Schedule handles GET /loans/{id}/schedule
func (h *LoanHandler) Schedule(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		response.FromError(w, err)
		return
	}

	result, err := h.loans.Schedule(r.Context(), actorFrom(r), id)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, result)
}

// Outstanding handles GET /loans/{id}/outstanding
func (h *LoanHandler) Outstanding(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		response.FromError(w, err)
		return
	}

	result, err := h.loans.Outstanding(r.Context(), actorFrom(r), id)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, result)
}

// Payments handles GET /loans/{id}/payments
func (h *LoanHandler) Payments(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		response.FromError(w, err)
		return
	}

	payments, err := h.loans.Payments(r.Context(), actorFrom(r), id)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, payments)
}

// RegisterPayment handles POST /loans/{id}/payments
func (h *LoanHandler) RegisterPayment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		response.FromError(w, err)
		return
	}
	var req domain.RegisterPaymentRequest
	if err := decode(r, h.validator, &req); err != nil {
		response.FromError(w, err)
		return
	}

	result, err := h.loans.RegisterPayment(r.Context(), actorFrom(r), id, &req)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Created(w, result)
}

// PromissoryNote handles GET /loans/{id}/promissory-note
func (h *LoanHandler) PromissoryNote(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		response.FromError(w, err)
		return
	}

	note, err := h.reports.PromissoryNote(r.Context(), actorFrom(r), id)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, note)
}

func loanFilter(r *http.Request) (domain.LoanFilter, error) {
	var filter domain.LoanFilter

	status := strings.TrimSpace(r.URL.Query().Get("status"))
	switch status {
	case "", domain.LoanStatusActive, domain.LoanStatusPaid, domain.LoanStatusDelinquent, domain.LoanStatusCancelled:
		filter.Status = status
	default:
		return filter, customError.WrapValidation("invalid status "+status, nil)
	}

	var err error
	if filter.ClientID, err = queryUUID(r, "client_id"); err != nil {
		return filter, err
	}
	if filter.From, err = queryDate(r, "from"); err != nil {
		return filter, err
	}
	if filter.To, err = queryDate(r, "to"); err != nil {
		return filter, err
	}
	return filter, nil
}
