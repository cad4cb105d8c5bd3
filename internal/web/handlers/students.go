package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/schoolhouse-dev/schoolhouse/internal/database"
)

// ListStudents returns active students, filtered by ?class_id=.
func (h *Handlers) ListStudents(w http.ResponseWriter, r *http.Request) {
	var classID *int64
	if raw := r.URL.Query().Get("class_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid class_id")
			return
		}
		classID = &id
	}

	students, err := h.db.ListStudents(r.Context(), classID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list students")
		return
	}
	respondJSON(w, http.StatusOK, students)
}

// GetStudent returns one student by ID.
func (h *Handlers) GetStudent(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid student id")
		return
	}

	student, err := h.db.GetStudent(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to get student")
		return
	}
	if student == nil {
		respondError(w, http.StatusNotFound, "student not found")
		return
	}
	respondJSON(w, http.StatusOK, student)
}

// CreateStudent enrolls a new student.
func (h *Handlers) CreateStudent(w http.ResponseWriter, r *http.Request) {
	var req database.Student
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.AdmissionNo == "" || req.Name == "" {
		respondError(w, http.StatusBadRequest, "admission_no and name are required")
		return
	}
	req.Active = true

	// Duplicate admission numbers are a caller mistake, not a server fault.
	if existing, err := h.db.GetStudentByAdmissionNo(r.Context(), req.AdmissionNo); err == nil && existing != nil {
		respondError(w, http.StatusConflict, "admission number already exists")
		return
	}

	if err := h.db.CreateStudent(r.Context(), &req); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to create student")
		return
	}
	respondJSON(w, http.StatusCreated, req)
}
