package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/segyhp/loan-manager/pkg/response"
)

// Pinger is a dependency the readiness check pings.
type Pinger interface {
	Ping(ctx context.Context) error
}

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

type dependency struct {
	name   string
	target Pinger // nil reports the dependency as disabled
}

type HealthHandler struct {
	deps    []dependency
	timeout time.Duration
	started time.Time
}

// NewHealthHandler checks db and, when cache is non-nil, the dashboard cache.
func NewHealthHandler(db *sqlx.DB, cache Pinger, timeout time.Duration) *HealthHandler {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HealthHandler{
		deps: []dependency{
			{name: "database", target: pingFunc(db.PingContext)},
			{name: "redis", target: cache},
		},
		timeout: timeout,
		started: time.Now(),
	}
}

type HealthStatus struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Uptime    string            `json:"uptime"`
	Checks    map[string]string `json:"checks,omitempty"`
}

func (h *HealthHandler) status(ok bool) HealthStatus {
	s := HealthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
		Uptime:    time.Since(h.started).Truncate(time.Second).String(),
	}
	if !ok {
		s.Status = "error"
	}
	return s
}

// Health reports liveness without touching dependencies.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	response.Success(w, h.status(true))
}

// Ready pings every dependency within the configured timeout.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	ready := true
	checks := make(map[string]string, len(h.deps))
	for _, d := range h.deps {
		if d.target == nil {
			checks[d.name] = "disabled"
			continue
		}
		if err := d.target.Ping(ctx); err != nil {
			ready = false
			checks[d.name] = "failed: " + err.Error()
			continue
		}
		checks[d.name] = "ok"
	}

	status := h.status(ready)
	status.Checks = checks
	if !ready {
		response.ServiceUnavailable(w, status)
		return
	}
	response.Success(w, status)
}
