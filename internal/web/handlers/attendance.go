package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/schoolhouse-dev/schoolhouse/internal/database"
	"github.com/schoolhouse-dev/schoolhouse/internal/store"
)

// BulkMarkAttendance records one date's attendance for a class in a single
// transaction; a failure on any student rolls back the whole batch and
// returns 409 so the client can correct and resubmit.
func (h *Handlers) BulkMarkAttendance(w http.ResponseWriter, r *http.Request) {
	classID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid class id")
		return
	}

	var req struct {
		Date  string          `json:"date"`
		Marks []database.Mark `json:"marks"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if _, err := time.Parse("2006-01-02", req.Date); err != nil {
		respondError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}
	if len(req.Marks) == 0 {
		respondError(w, http.StatusBadRequest, "marks are required")
		return
	}

	if class, err := h.db.GetClass(r.Context(), classID); err != nil || class == nil {
		respondError(w, http.StatusNotFound, "class not found")
		return
	}

	if err := h.db.BulkMark(r.Context(), req.Date, req.Marks, nil); err != nil {
		if errors.Is(err, store.ErrTransactionAlreadyOpen) {
			respondError(w, http.StatusServiceUnavailable, "store busy, retry")
			return
		}
		respondError(w, http.StatusConflict, "attendance batch rejected: "+err.Error())
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{"marked": len(req.Marks), "date": req.Date})
}

// ListAttendance returns a class's attendance for ?date=.
func (h *Handlers) ListAttendance(w http.ResponseWriter, r *http.Request) {
	classID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid class id")
		return
	}
	date := r.URL.Query().Get("date")
	if _, err := time.Parse("2006-01-02", date); err != nil {
		respondError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	records, err := h.db.ListAttendance(r.Context(), classID, date)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list attendance")
		return
	}
	respondJSON(w, http.StatusOK, records)
}
