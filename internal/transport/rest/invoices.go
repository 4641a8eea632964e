package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (h *Handler) listInvoices(w http.ResponseWriter, r *http.Request) {
	ref, err := h.referenceDate(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	invoices, err := h.dashboard.ListInvoices(r.Context(), ref)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	Success(w, "", invoices)
}

func (h *Handler) invoicePayments(w http.ResponseWriter, r *http.Request) {
	invoiceID, err := int64Param(chi.URLParam(r, "invoice_id"), "invoice_id")
	if err != nil {
		WriteError(w, r, err)
		return
	}
	payments, err := h.dashboard.InvoicePayments(r.Context(), invoiceID)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	Success(w, "", payments)
}

func (h *Handler) recordPayment(w http.ResponseWriter, r *http.Request) {
	var req recordPaymentRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, r, err)
		return
	}
	in, err := req.toInput()
	if err != nil {
		WriteError(w, r, err)
		return
	}

	payment, err := h.dashboard.RecordPayment(r.Context(), in, h.today())
	if err != nil {
		WriteError(w, r, err)
		return
	}
	SuccessCreated(w, "payment recorded", payment)
}
