package response

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	apperrors "github.com/segyhp/loan-manager/pkg/errors"
)

type Response struct {
	Success   bool        `json:"success"`
	Message   string      `json:"message,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Error     string      `json:"error,omitempty"`
	Code      string      `json:"code,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// JSON sends a JSON response
func JSON(w http.ResponseWriter, statusCode int, data interface{}) {
	response := Response{
		Success:   statusCode >= 200 && statusCode < 300,
		Data:      data,
		Timestamp: time.Now(),
	}
	write(w, statusCode, response)
}

// Success sends a successful JSON response
func Success(w http.ResponseWriter, data interface{}) {
	JSON(w, http.StatusOK, data)
}

// Created sends a created JSON response
func Created(w http.ResponseWriter, data interface{}) {
	JSON(w, http.StatusCreated, data)
}

// Message sends a successful response that carries only a message.
func Message(w http.ResponseWriter, message string) {
	write(w, http.StatusOK, Response{
		Success:   true,
		Message:   message,
		Timestamp: time.Now(),
	})
}

// Error sends an error JSON response
func Error(w http.ResponseWriter, statusCode int, message string, err error) {
	response := Response{
		Success:   false,
		Message:   message,
		Code:      apperrors.Code(err),
		Timestamp: time.Now(),
	}
	if err != nil {
		response.Error = err.Error()
	}
	write(w, statusCode, response)
}

// FromError picks the status from the business error code in err and writes the error.
// Anything that is not a BusinessError is a 500.
func FromError(w http.ResponseWriter, err error) {
	var be *apperrors.BusinessError
	if !errors.As(err, &be) {
		slog.Error("unhandled error", "error", err)
		InternalServerError(w, "internal server error", nil)
		return
	}

	status := StatusForCode(be.Code)
	if status >= http.StatusInternalServerError {
		slog.Error("request failed", "code", be.Code, "error", err)
		// Driver messages stay in the log.
		Error(w, status, be.Message, apperrors.NewBusinessError(be.Code, be.Message, nil))
		return
	}
	Error(w, status, be.Message, be)
}

// StatusForCode maps business error codes to HTTP status codes.
func StatusForCode(code string) int {
	switch code {
	case apperrors.ErrCodeLoanNotFound, apperrors.ErrCodeClientNotFound, apperrors.ErrCodePaymentNotFound:
		return http.StatusNotFound
	case apperrors.ErrCodeLoanHasPayments, apperrors.ErrCodeClientHasLoans,
		apperrors.ErrCodeLoanNotPayable, apperrors.ErrCodeInvalidStatusTransition:
		return http.StatusConflict
	case apperrors.ErrCodeInvalidLoan, apperrors.ErrCodeInvalidPaymentAmount:
		return http.StatusUnprocessableEntity
	case apperrors.ErrCodeValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// CSV streams records as a downloadable CSV file.
func CSV(w http.ResponseWriter, filename string, records [][]string) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)

	cw := csv.NewWriter(w)
	if err := cw.WriteAll(records); err != nil {
		slog.Error("Error encoding CSV response", "error", err)
	}
}

func write(w http.ResponseWriter, statusCode int, response Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(response); err != nil {
		slog.Error("Error encoding JSON response", "error", err)
	}
}

// NotFound sends a 404 not found response
func NotFound(w http.ResponseWriter, message string) {
	Error(w, http.StatusNotFound, message, nil)
}

// InternalServerError sends a 500 internal server error response
func InternalServerError(w http.ResponseWriter, message string, err error) {
	Error(w, http.StatusInternalServerError, message, err)
}

// Unauthorized sends a 401 unauthorized response
func Unauthorized(w http.ResponseWriter, message string) {
	Error(w, http.StatusUnauthorized, message, nil)
}

// ServiceUnavailable sends data with a 503 status, for reports that describe the outage.
func ServiceUnavailable(w http.ResponseWriter, data interface{}) {
	JSON(w, http.StatusServiceUnavailable, data)
}

// CORSMiddleware adds CORS headers
func CORSMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-User-ID")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// LoggingMiddleware logs HTTP requests
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := NewRecorder(w)

		next.ServeHTTP(recorder, r)

		attrs := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"status", recorder.StatusCode,
			"duration_ms", time.Since(start).Milliseconds(),
		}
		switch {
		case recorder.StatusCode >= 500:
			slog.Error("HTTP request", attrs...)
		case recorder.StatusCode >= 400:
			slog.Warn("HTTP request", attrs...)
		default:
			slog.Info("HTTP request", attrs...)
		}
	})
}

// Recorder captures the status code written by a handler.
type Recorder struct {
	http.ResponseWriter
	StatusCode int
}

func NewRecorder(w http.ResponseWriter) *Recorder {
	return &Recorder{ResponseWriter: w, StatusCode: http.StatusOK}
}

func (rec *Recorder) WriteHeader(statusCode int) {
	rec.StatusCode = statusCode
	rec.ResponseWriter.WriteHeader(statusCode)
}
