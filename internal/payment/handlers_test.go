package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/CampusTransit/CT-Backend/internal/credstore"
	"github.com/CampusTransit/CT-Backend/internal/middleware"
	"github.com/CampusTransit/CT-Backend/internal/session"
	"github.com/CampusTransit/CT-Backend/internal/upstream/authapi"
	"golang.org/x/crypto/bcrypt"
)

type stubAuth struct{}

func (stubAuth) Login(context.Context, string, string) (authapi.LoginResult, error) {
	return authapi.LoginResult{
		User:  authapi.User{ID: "u1", Username: "rahim", Role: "student", Verified: true},
		Token: "tok-1",
	}, nil
}

func (stubAuth) UpdatePassword(context.Context, string, string, string) (string, error) {
	return "", nil
}

type stubSurvey struct{}

func (stubSurvey) GetByUser(context.Context, string) (json.RawMessage, error) {
	return nil, nil
}

func paymentRouter(t *testing.T) (http.Handler, *http.Cookie, *Workflow) {
	t.Helper()

	manager := session.NewManager(credstore.NewMemory(), stubAuth{}, stubSurvey{})
	_, sessionID, _, err := manager.Login(context.Background(), "rahim", "pass")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	cookie := &http.Cookie{Name: "session_id", Value: sessionID}

	w, _, _, _, _, _ := testWorkflow()
	w.Sessions = manager

	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}

	h := &Handlers{Workflow: w, Manager: manager, FrontendURL: "https://app.example"}
	return SetupRoutes(h, middleware.OpsAuth("ops", string(hash))), cookie, w
}

// TestInitiateEndpoint verifies the authenticated initiate round trip and
// the 401 for anonymous callers.
func TestInitiateEndpoint(t *testing.T) {
	router, cookie, _ := paymentRouter(t)

	body := `{"phone_number":"01712345678","bus_class":"ac","survey":{"bus":"ac"}}`
	req := httptest.NewRequest("POST", "/initiate", strings.NewReader(body))
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		RedirectURL string `json:"redirect_url"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	if resp.RedirectURL != "https://gateway.example/pay/abc" {
		t.Errorf("redirect_url = %q", resp.RedirectURL)
	}

	req = httptest.NewRequest("POST", "/initiate", strings.NewReader(body))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous initiate = %d, want 401", rec.Code)
	}
}

// TestReturnEndpoint verifies the gateway redirect target: success bounces
// to the confirmation page with the transaction id, failure to the failed
// page, and a missing state is a plain 400.
func TestReturnEndpoint(t *testing.T) {
	router, cookie, w := paymentRouter(t)

	body := `{"phone_number":"01712345678","bus_class":"ac"}`
	req := httptest.NewRequest("POST", "/initiate", strings.NewReader(body))
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("initiate failed: %s", rec.Body.String())
	}
	state := extractState(t, w.Gateway.(*fakeGateway).lastCallback)

	req = httptest.NewRequest("GET", "/return?state="+state, nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "https://app.example/payment/success?trx=TRX123" {
		t.Errorf("location = %q", loc)
	}

	// Replaying the settled state token fails and goes to the failed page.
	req = httptest.NewRequest("GET", "/return?state="+state, nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if loc := rec.Header().Get("Location"); loc != "https://app.example/payment/failed" {
		t.Errorf("location = %q, want the failed page", loc)
	}

	req = httptest.NewRequest("GET", "/return", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing state = %d, want 400", rec.Code)
	}
}

// TestManualVerifyEndpoint verifies the manual settlement endpoint and its
// 422 for malformed transaction ids.
func TestManualVerifyEndpoint(t *testing.T) {
	router, cookie, _ := paymentRouter(t)

	body := `{"transaction_id":"111222","phone_number":"01712345678","amount":800}`
	req := httptest.NewRequest("POST", "/verify-manual", strings.NewReader(body))
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var confirmation Confirmation
	if err := json.Unmarshal(rec.Body.Bytes(), &confirmation); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	if confirmation.TransactionID != "111222" || confirmation.PaymentID != "pay-1" {
		t.Errorf("confirmation = %+v", confirmation)
	}

	req = httptest.NewRequest("POST", "/verify-manual", strings.NewReader(`{"transaction_id":"12ab"}`))
	req.AddCookie(cookie)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("malformed id = %d, want 422", rec.Code)
	}
}

// TestPendingEndpointRequiresOpsAuth verifies the operator listing is
// guarded and answers with the stored records.
func TestPendingEndpointRequiresOpsAuth(t *testing.T) {
	router, _, w := paymentRouter(t)
	_ = w.Pending.Create(context.Background(), PendingPayment{
		CorrelationID: "123456", UserID: "u1", Amount: 800, CreatedAt: time.Now(),
	})

	req := httptest.NewRequest("GET", "/pending", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated listing = %d, want 401", rec.Code)
	}

	req = httptest.NewRequest("GET", "/pending", nil)
	req.SetBasicAuth("ops", "hunter2")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var records []PendingPayment
	if err := json.Unmarshal(rec.Body.Bytes(), &records); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	if len(records) != 1 || records[0].CorrelationID != "123456" {
		t.Errorf("records = %+v", records)
	}
}
