package rest

import (
	"encoding/json"
	"errors"
	"net/http"

	"invoice-dashboard/internal/domain"
	"invoice-dashboard/internal/logger"
)

type APIResponse struct {
	ErrorCode int         `json:"error_code"`
	Status    string      `json:"status"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data"`
}

func Response(w http.ResponseWriter, message string, data interface{}, errorCode int, status string, httpStatus int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)

	response := APIResponse{
		ErrorCode: errorCode,
		Status:    status,
		Message:   message,
		Data:      data,
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		l := logger.WithComponent("http")
		l.Warn().Err(err).Msg("write response failed")
	}
}

func Success(w http.ResponseWriter, message string, data interface{}) {
	Response(w, message, data, 0, "success", http.StatusOK)
}

func SuccessCreated(w http.ResponseWriter, message string, data interface{}) {
	Response(w, message, data, 0, "success", http.StatusCreated)
}

func SuccessAccepted(w http.ResponseWriter, message string, data interface{}) {
	Response(w, message, data, 0, "success", http.StatusAccepted)
}

func Error(w http.ResponseWriter, message string, errorCode int, httpStatus int) {
	Response(w, message, nil, errorCode, "error", httpStatus)
}

func ErrorBadRequest(w http.ResponseWriter, message string) {
	Error(w, message, 400, http.StatusBadRequest)
}

func ErrorNotFound(w http.ResponseWriter, message string) {
	Error(w, message, 404, http.StatusNotFound)
}

func ErrorUnavailable(w http.ResponseWriter, message string) {
	Error(w, message, 503, http.StatusServiceUnavailable)
}

func ErrorInternal(w http.ResponseWriter, message string) {
	Error(w, message, 500, http.StatusInternalServerError)
}

// WriteError maps service errors onto the envelope. Store failures are never
// reported as empty data.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		ErrorBadRequest(w, verr.Error())
	case errors.Is(err, domain.ErrMalformedDate), errors.Is(err, domain.ErrInvalidArgument):
		ErrorBadRequest(w, err.Error())
	case errors.Is(err, domain.ErrInvoiceNotFound), errors.Is(err, domain.ErrExportNotFound):
		ErrorNotFound(w, err.Error())
	case errors.Is(err, domain.ErrDataUnavailable):
		logRequestError(r, err)
		ErrorUnavailable(w, "data unavailable, try again later")
	default:
		logRequestError(r, err)
		ErrorInternal(w, "internal error")
	}
}

func logRequestError(r *http.Request, err error) {
	l := logger.WithComponent("http")
	l.Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("request failed")
}
