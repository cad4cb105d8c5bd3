package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// ListInvoices returns a student's fee invoices.
func (h *Handlers) ListInvoices(w http.ResponseWriter, r *http.Request) {
	studentID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid student id")
		return
	}

	invoices, err := h.db.ListInvoices(r.Context(), studentID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list invoices")
		return
	}
	respondJSON(w, http.StatusOK, invoices)
}

// RecordPayment applies a payment to an invoice.
func (h *Handlers) RecordPayment(w http.ResponseWriter, r *http.Request) {
	invoiceID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid invoice id")
		return
	}

	var req struct {
		AmountCents int64  `json:"amount_cents"`
		Method      string `json:"method"`
		Reference   string `json:"reference"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.AmountCents <= 0 {
		respondError(w, http.StatusBadRequest, "amount_cents must be positive")
		return
	}

	if err := h.db.RecordPayment(r.Context(), invoiceID, req.AmountCents, req.Method, req.Reference, nil); err != nil {
		respondError(w, http.StatusConflict, err.Error())
		return
	}

	invoice, err := h.db.GetInvoice(r.Context(), invoiceID)
	if err != nil || invoice == nil {
		respondError(w, http.StatusInternalServerError, "failed to reload invoice")
		return
	}
	respondJSON(w, http.StatusCreated, invoice)
}
