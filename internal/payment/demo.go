//go:build demo

package payment

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/CampusTransit/CT-Backend/internal/session"
	"github.com/go-chi/chi/v5"
)

// DemoVerify settles an attempt with a random transaction id and no
// gateway contact. Test builds only; the route does not exist without the
// demo build tag.
func (w *Workflow) DemoVerify(ctx context.Context, user session.UserRecord, phoneNumber string, amount int, surveyData json.RawMessage) (Confirmation, error) {
	transactionID, err := NewCorrelationID()
	if err != nil {
		return Confirmation{}, err
	}

	return w.reconcile(ctx, PendingPayment{
		UserID:      user.ID,
		UserName:    user.Username,
		Amount:      amount,
		PhoneNumber: phoneNumber,
		SurveyData:  surveyData,
	}, transactionID, MethodDemo)
}

func (h *Handlers) demoHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var input struct {
		PhoneNumber string          `json:"phone_number"`
		Amount      int             `json:"amount"`
		Survey      json.RawMessage `json:"survey"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request format", http.StatusBadRequest)
		return
	}

	confirmation, err := h.Workflow.DemoVerify(r.Context(), user, input.PhoneNumber, input.Amount, input.Survey)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	writeJSON(w, http.StatusOK, confirmation)
}

func mountDemoRoutes(r chi.Router, h *Handlers) {
	r.Post("/demo", h.demoHandler)
}
