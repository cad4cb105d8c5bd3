package handlers

import (
	"net/http"

	"github.com/schoolhouse-dev/schoolhouse/internal/store"
)

// Health reports the store's operational status. Degraded is distinct from
// ready so operators can tell a fully bootstrapped store from one running
// with missing optional structures; both serve 200, anything else 503.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	st := h.db.Status(r.Context())

	status := http.StatusOK
	switch h.db.State() {
	case store.StateReady, store.StateDegraded:
	default:
		status = http.StatusServiceUnavailable
	}

	respondJSON(w, status, map[string]any{
		"state":              st.State,
		"degraded":           h.db.State() == store.StateDegraded,
		"database_path":      st.Path,
		"database_size":      st.SizeBytes,
		"database_modified":  st.ModTime,
		"objects":            st.Objects,
		"skipped_statements": st.SkippedStatements,
	})
}
