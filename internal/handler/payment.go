package handler

import (
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/segyhp/loan-manager/internal/domain"
	"github.com/segyhp/loan-manager/internal/service"
	"github.com/segyhp/loan-manager/pkg/response"
)

type PaymentHandler struct {
	payments  *service.PaymentService
	validator *validator.Validate
}

func NewPaymentHandler(payments *service.PaymentService, v *validator.Validate) *PaymentHandler {
	return &PaymentHandler{
		payments:  payments,
		validator: v,
	}
}

// List handles GET /payments?loan_id=&client_id=&from=&to=
func (h *PaymentHandler) List(w http.ResponseWriter, r *http.Request) {
	var (
		filter domain.PaymentFilter
		err    error
	)
	if filter.LoanID, err = queryUUID(r, "loan_id"); err != nil {
		response.FromError(w, err)
		return
	}
	if filter.ClientID, err = queryUUID(r, "client_id"); err != nil {
		response.FromError(w, err)
		return
	}
	if filter.From, err = queryDate(r, "from"); err != nil {
		response.FromError(w, err)
		return
	}
	if filter.To, err = queryDate(r, "to"); err != nil {
		response.FromError(w, err)
		return
	}

	payments, err := h.payments.List(r.Context(), actorFrom(r), filter)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, payments)
}

func (h *PaymentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		response.FromError(w, err)
		return
	}

	payment, err := h.payments.Get(r.Context(), actorFrom(r), id)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, payment)
}

func (h *PaymentHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		response.FromError(w, err)
		return
	}
	var req domain.UpdatePaymentRequest
	if err := decode(r, h.validator, &req); err != nil {
		response.FromError(w, err)
		return
	}

	result, err := h.payments.Update(r.Context(), actorFrom(r), id, &req)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, result)
}

func (h *PaymentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		response.FromError(w, err)
		return
	}

	result, err := h.payments.Delete(r.Context(), actorFrom(r), id)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, result)
}
