package session

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/CampusTransit/CT-Backend/internal/utils"
)

// PaymentResumer is the hook into the payment workflow's resume-on-load
// check. It reports whether a pending payment was settled during the call.
type PaymentResumer interface {
	Resume(ctx context.Context, userID string) (bool, error)
}

// Handlers bundles the HTTP handlers for the session endpoints.
type Handlers struct {
	Manager  *Manager
	Payments PaymentResumer

	// SecureCookies turns on the Secure cookie attribute; off for local
	// development over plain HTTP.
	SecureCookies bool
}

type surveySnapshot struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data,omitempty"`
	Error  string          `json:"error,omitempty"`
}

type snapshot struct {
	Authenticated        bool           `json:"authenticated"`
	InitialCheckComplete bool           `json:"initial_check_complete"`
	User                 *UserRecord    `json:"user,omitempty"`
	Survey               surveySnapshot `json:"survey"`
	PendingEmail         string         `json:"pending_email,omitempty"`
	Redirect             string         `json:"redirect,omitempty"`
}

func makeSnapshot(s Session) snapshot {
	return snapshot{
		Authenticated:        s.IsAuthenticated(),
		InitialCheckComplete: s.InitialCheckComplete,
		User:                 s.User,
		Survey: surveySnapshot{
			Status: s.Survey.Phase.String(),
			Data:   s.Survey.Data,
			Error:  s.Survey.FetchError,
		},
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[session] encode response: %v", err)
	}
}

func (h *Handlers) sessionCookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     "session_id",
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   h.SecureCookies,
	}
}

// LoginHandler authenticates credentials against the upstream auth service
// and establishes the durable session.
func (h *Handlers) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		ID       string `json:"id"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request format", http.StatusBadRequest)
		return
	}
	if input.ID == "" || input.Password == "" {
		http.Error(w, "Id and password are required", http.StatusBadRequest)
		return
	}

	s, sessionID, redirect, err := h.Manager.Login(r.Context(), input.ID, input.Password)
	if err != nil {
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	const week = 7 * 24 * 60 * 60
	http.SetCookie(w, h.sessionCookie(sessionID, week))

	resp := makeSnapshot(s)
	resp.Redirect = redirect
	writeJSON(w, http.StatusOK, resp)
}

// BootstrapHandler rebuilds the session from durable storage. It is called
// once per application load, and is also where a pending payment left over
// from a gateway redirect gets picked up and verified.
func (h *Handlers) BootstrapHandler(w http.ResponseWriter, r *http.Request) {
	var sessionID string
	if cookie, err := r.Cookie("session_id"); err == nil {
		sessionID = cookie.Value
	}

	s := h.Manager.Bootstrap(r.Context(), sessionID)

	if s.IsAuthenticated() && h.Payments != nil {
		settled, err := h.Payments.Resume(r.Context(), s.User.ID)
		if err != nil {
			log.Printf("[session] payment resume: %v", err)
		}
		if settled {
			// The optimistic completion marker was just written; a plain
			// refresh picks it up without hitting the survey service.
			s = h.Manager.FetchSurvey(r.Context(), s, false)
		}
	}

	resp := makeSnapshot(s)
	if sessionID != "" {
		if email, err := h.Manager.PendingEmail(r.Context(), sessionID); err == nil {
			resp.PendingEmail = email
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// LogoutHandler clears the durable credentials and expires the cookie.
func (h *Handlers) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := utils.GetSessionIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if err := h.Manager.Logout(r.Context(), sessionID); err != nil {
		http.Error(w, "Failed to clear session", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, h.sessionCookie("", -1))
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logout successful"})
}

// MeHandler returns the stored user record for the current session.
func (h *Handlers) MeHandler(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := utils.GetSessionIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	user, err := h.Manager.CurrentUser(r.Context(), sessionID)
	if err != nil {
		http.Error(w, "Couldn't find user", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// UpdateUserHandler replaces the stored user record wholesale. The caller
// sends the complete, previously fetched record; no field-level merging
// happens here.
func (h *Handlers) UpdateUserHandler(w http.ResponseWriter, r *http.Request) {
	sessionID, _ := utils.GetSessionIDFromContext(r.Context())
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var user UserRecord
	if err := json.NewDecoder(r.Body).Decode(&user); err != nil {
		http.Error(w, "Invalid request format", http.StatusBadRequest)
		return
	}
	if user.ID != userID {
		http.Error(w, "Cannot update another user's record", http.StatusForbidden)
		return
	}

	if err := h.Manager.UpdateUser(r.Context(), sessionID, user); err != nil {
		http.Error(w, "Failed to update user", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// UpdatePasswordHandler forwards a password change to the auth service.
func (h *Handlers) UpdatePasswordHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Email           string `json:"email"`
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Current and new password are required", http.StatusBadRequest)
		return
	}

	message, err := h.Manager.UpdatePassword(r.Context(), input.Email, input.CurrentPassword, input.NewPassword)
	if err != nil {
		http.Error(w, "Failed to update password", http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": message})
}

// RequestVerifyEmailHandler records that a verification email is in flight
// so a reloaded client can resume the verify screen.
func (h *Handlers) RequestVerifyEmailHandler(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := utils.GetSessionIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var input struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil || input.Email == "" {
		http.Error(w, "Email is required", http.StatusBadRequest)
		return
	}

	if err := h.Manager.SetPendingEmail(r.Context(), sessionID, input.Email); err != nil {
		http.Error(w, "Failed to record pending email", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Verification pending"})
}
