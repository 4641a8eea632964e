package rest

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"invoice-dashboard/internal/domain"
)

func (h *Handler) exportInvoices(w http.ResponseWriter, r *http.Request) {
	var req exportRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, r, err)
		return
	}

	ref := h.today()
	if req.AsOf != "" {
		parsed, err := domain.ParseDate(req.AsOf)
		if err != nil {
			WriteError(w, r, err)
			return
		}
		ref = parsed
	}

	exportID, err := h.exports.StartInvoiceExport(r.Context(), req.Fields, ref)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	SuccessAccepted(w, "export queued", map[string]interface{}{"export_id": exportID})
}

func (h *Handler) listExports(w http.ResponseWriter, r *http.Request) {
	exports, err := h.exports.ListExports(r.Context())
	if err != nil {
		WriteError(w, r, err)
		return
	}
	Success(w, "", exports)
}

func (h *Handler) getExport(w http.ResponseWriter, r *http.Request) {
	exportIDParam := chi.URLParam(r, "export_id")
	if exportIDParam == "" {
		ErrorBadRequest(w, "export_id is required")
		return
	}
	exportID := exportIDParam
	if !strings.HasPrefix(exportID, "exports:") {
		exportID = "exports:" + exportIDParam
	}

	export, err := h.exports.GetExport(r.Context(), exportID)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	Success(w, "", export)
}

func (h *Handler) today() domain.Date {
	return domain.DateOf(h.now())
}
