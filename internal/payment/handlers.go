package payment

import (
	"encoding/json"
	"log"
	"net/http"
	"net/url"

	"github.com/CampusTransit/CT-Backend/internal/session"
	"github.com/CampusTransit/CT-Backend/internal/utils"
)

// Handlers bundles the HTTP handlers for the payment endpoints.
type Handlers struct {
	Workflow *Workflow
	Manager  *session.Manager

	// FrontendURL is where the return handler sends the browser after the
	// callback is processed.
	FrontendURL string
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[payment] encode response: %v", err)
	}
}

func (h *Handlers) currentUser(r *http.Request) (session.UserRecord, bool) {
	sessionID, ok := utils.GetSessionIDFromContext(r.Context())
	if !ok {
		return session.UserRecord{}, false
	}
	user, err := h.Manager.CurrentUser(r.Context(), sessionID)
	if err != nil {
		return session.UserRecord{}, false
	}
	return user, true
}

// InitiateHandler opens a gateway checkout and answers with the URL the
// client must navigate to. The navigation away is the client's job; from
// here on the attempt survives only in the pending record.
func (h *Handlers) InitiateHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var input struct {
		PhoneNumber string          `json:"phone_number"`
		BusClass    BusClass        `json:"bus_class"`
		Survey      json.RawMessage `json:"survey"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request format", http.StatusBadRequest)
		return
	}

	redirectURL, err := h.Workflow.Initiate(r.Context(), user, input.PhoneNumber, input.BusClass, input.Survey)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"redirect_url": redirectURL})
}

// ReturnHandler is the gateway's redirect target. It verifies the signed
// state token, settles the attempt, and bounces the browser to the
// frontend's confirmation or failure page.
func (h *Handlers) ReturnHandler(w http.ResponseWriter, r *http.Request) {
	state := r.URL.Query().Get("state")
	if state == "" {
		http.Error(w, "Missing state", http.StatusBadRequest)
		return
	}

	confirmation, err := h.Workflow.CompleteFromCallback(r.Context(), state)
	if err != nil {
		log.Printf("[payment] callback: %v", err)
		http.Redirect(w, r, h.FrontendURL+"/payment/failed", http.StatusFound)
		return
	}

	target := h.FrontendURL + "/payment/success?trx=" + url.QueryEscape(confirmation.TransactionID)
	http.Redirect(w, r, target, http.StatusFound)
}

// ManualVerifyHandler settles an attempt from a user-pasted transaction id
// when the automatic redirect back never happened.
func (h *Handlers) ManualVerifyHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var input struct {
		TransactionID string          `json:"transaction_id"`
		PhoneNumber   string          `json:"phone_number"`
		Amount        int             `json:"amount"`
		Survey        json.RawMessage `json:"survey"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request format", http.StatusBadRequest)
		return
	}

	confirmation, err := h.Workflow.ManualVerify(r.Context(), user, input.TransactionID, input.PhoneNumber, input.Amount, input.Survey)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	writeJSON(w, http.StatusOK, confirmation)
}

// PendingListHandler exposes orphaned pending records to operators. Gated
// behind ops auth; the records are correlation ids and amounts, nothing
// sensitive.
func (h *Handlers) PendingListHandler(w http.ResponseWriter, r *http.Request) {
	records, err := h.Workflow.Pending.List(r.Context())
	if err != nil {
		http.Error(w, "Failed to list pending payments", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, records)
}
