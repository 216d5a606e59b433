package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/eventgate/gatekeeper/internal/services"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, map[string]string{"status": code, "message": msg})
}

// rejectStatus maps the authority's rejection reasons onto HTTP statuses,
// 1:1 with the backend contract: conflict, not_found, expired,
// event_mismatch.
func rejectStatus(r services.RejectReason) int {
	switch r {
	case services.ReasonNotFound:
		return http.StatusNotFound
	case services.ReasonExpired:
		return http.StatusGone
	default: // already_used, event_mismatch
		return http.StatusConflict
	}
}
