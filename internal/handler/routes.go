package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/segyhp/loan-manager/internal/metrics"
	"github.com/segyhp/loan-manager/pkg/response"
)

// Handlers groups everything the router dispatches to.
type Handlers struct {
	Health    *HealthHandler
	Clients   *ClientHandler
	Loans     *LoanHandler
	Payments  *PaymentHandler
	Dashboard *DashboardHandler
	Reports   *ReportHandler
	Metrics   *metrics.Metrics
}

// NewRouter wires every route. Everything under /api/v1 requires the X-User-ID header.
// CORS wraps the returned router so preflight requests never reach route matching.
func NewRouter(h Handlers) *mux.Router {
	router := mux.NewRouter()
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		response.NotFound(w, "route not found")
	})
	router.Use(response.LoggingMiddleware)
	if h.Metrics != nil {
		router.Use(h.Metrics.Middleware)
		router.Handle("/metrics", h.Metrics.Handler()).Methods(http.MethodGet)
	}

	// Health check
	router.HandleFunc("/health", h.Health.Health).Methods(http.MethodGet)
	router.HandleFunc("/health/ready", h.Health.Ready).Methods(http.MethodGet)

	api := router.PathPrefix("/api/v1").Subrouter()
	api.Use(ActorMiddleware)

	api.HandleFunc("/clients", h.Clients.Create).Methods(http.MethodPost)
	api.HandleFunc("/clients", h.Clients.List).Methods(http.MethodGet)
	api.HandleFunc("/clients/search", h.Clients.Search).Methods(http.MethodGet)
	api.HandleFunc("/clients/{id}", h.Clients.Get).Methods(http.MethodGet)
	api.HandleFunc("/clients/{id}", h.Clients.Update).Methods(http.MethodPut)
	api.HandleFunc("/clients/{id}", h.Clients.Delete).Methods(http.MethodDelete)
	api.HandleFunc("/clients/{id}/loans", h.Clients.Loans).Methods(http.MethodGet)

	api.HandleFunc("/loans", h.Loans.Create).Methods(http.MethodPost)
	api.HandleFunc("/loans", h.Loans.List).Methods(http.MethodGet)
	api.HandleFunc("/loans/search", h.Loans.Search).Methods(http.MethodGet)
	api.HandleFunc("/loans/{id}", h.Loans.Get).Methods(http.MethodGet)
	api.HandleFunc("/loans/{id}", h.Loans.Update).Methods(http.MethodPut)
	api.HandleFunc("/loans/{id}", h.Loans.Delete).Methods(http.MethodDelete)
	api.HandleFunc("/loans/{id}/schedule", h.Loans.Schedule).Methods(http.MethodGet)
	api.HandleFunc("/loans/{id}/outstanding", h.Loans.Outstanding).Methods(http.MethodGet)
	api.HandleFunc("/loans/{id}/payments", h.Loans.Payments).Methods(http.MethodGet)
	api.HandleFunc("/loans/{id}/payments", h.Loans.RegisterPayment).Methods(http.MethodPost)
	api.HandleFunc("/loans/{id}/promissory-note", h.Loans.PromissoryNote).Methods(http.MethodGet)

	api.HandleFunc("/payments", h.Payments.List).Methods(http.MethodGet)
	api.HandleFunc("/payments/{id}", h.Payments.Get).Methods(http.MethodGet)
	api.HandleFunc("/payments/{id}", h.Payments.Update).Methods(http.MethodPut)
	api.HandleFunc("/payments/{id}", h.Payments.Delete).Methods(http.MethodDelete)

	api.HandleFunc("/dashboard/metrics", h.Dashboard.Metrics).Methods(http.MethodGet)
	api.HandleFunc("/dashboard/upcoming", h.Dashboard.Upcoming).Methods(http.MethodGet)
	api.HandleFunc("/dashboard/overdue", h.Dashboard.Overdue).Methods(http.MethodGet)
	api.HandleFunc("/dashboard/calendar", h.Dashboard.Calendar).Methods(http.MethodGet)
	api.HandleFunc("/dashboard/top-clients", h.Dashboard.TopClients).Methods(http.MethodGet)

	api.HandleFunc("/reports/collections", h.Reports.Collections).Methods(http.MethodGet)

	return router
}
