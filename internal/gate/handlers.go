package gate

import (
	"encoding/json"
	"net/http"

	"github.com/CampusTransit/CT-Backend/internal/session"
	"github.com/go-chi/chi/v5"
)

// Handlers exposes the gate to the SPA router over HTTP.
type Handlers struct {
	Policy  Policy
	Manager *session.Manager
}

// DecideHandler evaluates the access rules for one navigation. The session
// is rebuilt from the cookie; no state is cached between calls.
func (h *Handlers) DecideHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Path string `json:"path"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil || input.Path == "" {
		http.Error(w, "Path is required", http.StatusBadRequest)
		return
	}

	var sessionID string
	if cookie, err := r.Cookie("session_id"); err == nil {
		sessionID = cookie.Value
	}

	s := h.Manager.Bootstrap(r.Context(), sessionID)
	decision := Decide(h.Policy, s, s.Survey, input.Path)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"decision": decision.String(),
		"target":   decision.Target(h.Policy),
	})
}

func SetupRoutes(h *Handlers) http.Handler {
	r := chi.NewRouter()
	r.Post("/decide", h.DecideHandler)
	return r
}
