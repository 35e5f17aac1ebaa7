package handler

import (
	"net/http"
	"strings"

	"github.com/segyhp/loan-manager/internal/domain"
	"github.com/segyhp/loan-manager/internal/service"
	customError "github.com/segyhp/loan-manager/pkg/errors"
	"github.com/segyhp/loan-manager/pkg/response"
)

type ReportHandler struct {
	reports *service.ReportService
}

func NewReportHandler(reports *service.ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// Collections handles GET /reports/collections?from=&to=&client_id=&format=json|csv
func (h *ReportHandler) Collections(w http.ResponseWriter, r *http.Request) {
	var (
		filter domain.CollectionFilter
		err    error
	)
	if filter.From, err = queryDate(r, "from"); err != nil {
		response.FromError(w, err)
		return
	}
	if filter.To, err = queryDate(r, "to"); err != nil {
		response.FromError(w, err)
		return
	}
	if filter.ClientID, err = queryUUID(r, "client_id"); err != nil {
		response.FromError(w, err)
		return
	}

	format := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("format")))
	if format != "" && format != "json" && format != "csv" {
		response.FromError(w, customError.WrapValidation("format must be json or csv", nil))
		return
	}

	report, err := h.reports.CollectionReport(r.Context(), actorFrom(r), filter)
	if err != nil {
		response.FromError(w, err)
		return
	}

	if format == "csv" {
		response.CSV(w, collectionsFilename(filter), h.reports.CollectionCSV(report))
		return
	}
	response.Success(w, report)
}

func collectionsFilename(filter domain.CollectionFilter) string {
	name := "collections"
	if filter.From != nil {
		name += "_" + filter.From.String()
	}
	if filter.To != nil {
		name += "_" + filter.To.String()
	}
	return name + ".csv"
}
