// Package payment orchestrates the three-phase interaction with the
// external payment gateway: initiate a checkout, hand the browser to the
// gateway, and verify on the way back. Because the redirect is a full page
// navigation away from the application, the workflow leans on a durable
// pending-payment record rather than on anything held in memory.
package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/url"

	"github.com/CampusTransit/CT-Backend/internal/session"
	"github.com/CampusTransit/CT-Backend/internal/upstream/gatewayapi"
	"github.com/CampusTransit/CT-Backend/internal/upstream/paymentapi"
	"github.com/CampusTransit/CT-Backend/internal/upstream/surveyapi"
)

// Payment methods recorded with the settled payment.
const (
	MethodGateway = "gateway"
	MethodManual  = "manual"
	MethodDemo    = "demo"
)

// GatewayClient is the slice of the gateway the workflow needs.
type GatewayClient interface {
	Create(ctx context.Context, amount int, orderID, phoneNumber, callbackURL string) (gatewayapi.CheckoutResult, error)
	Verify(ctx context.Context, orderID string) (gatewayapi.VerifyResult, error)
}

// RecordClient stores settled payments with the payment-record service.
type RecordClient interface {
	Create(ctx context.Context, record paymentapi.Record) (string, error)
}

// SurveySubmitter submits the survey record that the payment unlocks.
type SurveySubmitter interface {
	Submit(ctx context.Context, record json.RawMessage) (surveyapi.Receipt, error)
}

// SessionMarker is the callback into the session layer after a verified
// success.
type SessionMarker interface {
	MarkSurveyCompleted(ctx context.Context, userID string, payload json.RawMessage) error
}

// Confirmation is the outcome of a verified, reconciled payment.
type Confirmation struct {
	TransactionID   string `json:"transaction_id"`
	PaymentID       string `json:"payment_id"`
	SurveyReceiptID string `json:"survey_receipt_id"`
}

// Workflow wires the collaborators together. One instance serves all users;
// per-attempt state lives in the pending record, not in the struct.
type Workflow struct {
	Pending  PendingStore
	Gateway  GatewayClient
	Records  RecordClient
	Surveys  SurveySubmitter
	Sessions SessionMarker
	States   *StateTokens

	// CallbackURL is this service's own /payments/return endpoint, handed
	// to the gateway so it knows where to send the browser back.
	CallbackURL string
}

// Initiate opens a checkout. The pending record is persisted before the
// gateway is contacted: if the user never comes back, the record is what
// lets the next application load pick the attempt up again.
func (w *Workflow) Initiate(ctx context.Context, user session.UserRecord, phoneNumber string, class BusClass, surveyData json.RawMessage) (string, error) {
	if phoneNumber == "" {
		return "", fmt.Errorf("phone number is required")
	}

	amount, err := Fare(user.Role, class)
	if err != nil {
		return "", err
	}

	correlationID, err := NewCorrelationID()
	if err != nil {
		return "", err
	}

	err = w.Pending.Create(ctx, PendingPayment{
		CorrelationID: correlationID,
		UserID:        user.ID,
		UserName:      user.Username,
		Amount:        amount,
		PhoneNumber:   phoneNumber,
		SurveyData:    surveyData,
	})
	if err != nil {
		return "", fmt.Errorf("persist pending payment: %w", err)
	}

	state, err := w.States.Issue(correlationID, user.ID)
	if err != nil {
		return "", fmt.Errorf("issue state token: %w", err)
	}
	callback := w.CallbackURL + "?state=" + url.QueryEscape(state)

	checkout, err := w.Gateway.Create(ctx, amount, correlationID, phoneNumber, callback)
	if err != nil {
		// The pending record stays: the resume check will re-ask the
		// gateway, which simply reports the order as unknown/unsettled.
		return "", err
	}

	return checkout.RedirectURL, nil
}

// Resume is the on-load recovery check. With no pending record it is a
// no-op, safe to call any number of times. A record that the gateway does
// not consider settled is left in place for the next load.
func (w *Workflow) Resume(ctx context.Context, userID string) (bool, error) {
	pending, err := w.Pending.FindByUser(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("load pending payment: %w", err)
	}
	if pending == nil {
		return false, nil
	}

	verdict, err := w.Gateway.Verify(ctx, pending.CorrelationID)
	if err != nil {
		return false, err
	}
	if !verdict.Completed() {
		return false, nil
	}

	transactionID := verdict.TransactionID
	if transactionID == "" {
		transactionID = pending.CorrelationID
	}

	if _, err := w.reconcile(ctx, *pending, transactionID, MethodGateway); err != nil {
		return false, err
	}

	if err := w.Pending.Delete(ctx, pending.CorrelationID); err != nil {
		log.Printf("[payment] delete pending %s: %v", pending.CorrelationID, err)
	}
	return true, nil
}

// CompleteFromCallback handles the gateway redirect back into the service.
// The signed state token names the checkout; everything else comes from the
// pending record and the gateway's own verify answer.
func (w *Workflow) CompleteFromCallback(ctx context.Context, stateToken string) (Confirmation, error) {
	correlationID, userID, err := w.States.Verify(stateToken)
	if err != nil {
		return Confirmation{}, err
	}

	pending, err := w.Pending.FindByUser(ctx, userID)
	if err != nil {
		return Confirmation{}, fmt.Errorf("load pending payment: %w", err)
	}
	if pending == nil || pending.CorrelationID != correlationID {
		return Confirmation{}, fmt.Errorf("no pending payment for order %s", correlationID)
	}

	verdict, err := w.Gateway.Verify(ctx, correlationID)
	if err != nil {
		return Confirmation{}, err
	}
	if !verdict.Completed() {
		return Confirmation{}, fmt.Errorf("payment not completed: status %q", verdict.Status)
	}

	transactionID := verdict.TransactionID
	if transactionID == "" {
		transactionID = correlationID
	}

	confirmation, err := w.reconcile(ctx, *pending, transactionID, MethodGateway)
	if err != nil {
		return Confirmation{}, err
	}

	if err := w.Pending.Delete(ctx, correlationID); err != nil {
		log.Printf("[payment] delete pending %s: %v", correlationID, err)
	}
	return confirmation, nil
}

// ManualVerify accepts a user-supplied transaction id after a missed
// redirect. The id is trusted as given, with no gateway cross-check, which is
// a documented weaker guarantee. Amount, phone, and survey payload come
// from the pending record when one exists, else from the request.
func (w *Workflow) ManualVerify(ctx context.Context, user session.UserRecord, transactionID, phoneNumber string, amount int, surveyData json.RawMessage) (Confirmation, error) {
	if !ValidCorrelationID(transactionID) {
		return Confirmation{}, fmt.Errorf("transaction id must be 6 digits")
	}

	pending, err := w.Pending.FindByUser(ctx, user.ID)
	if err != nil {
		return Confirmation{}, fmt.Errorf("load pending payment: %w", err)
	}

	record := PendingPayment{
		UserID:      user.ID,
		UserName:    user.Username,
		Amount:      amount,
		PhoneNumber: phoneNumber,
		SurveyData:  surveyData,
	}
	if pending != nil {
		record = *pending
	}

	confirmation, err := w.reconcile(ctx, record, transactionID, MethodManual)
	if err != nil {
		return Confirmation{}, err
	}

	if pending != nil {
		if err := w.Pending.Delete(ctx, pending.CorrelationID); err != nil {
			log.Printf("[payment] delete pending %s: %v", pending.CorrelationID, err)
		}
	}
	return confirmation, nil
}

// reconcile is the shared verified-success path. Strictly sequential: the
// survey is never submitted unless the payment record was stored, and the
// session is never marked complete unless the survey was submitted. There
// is no rollback: a stored payment with a failed survey submission is
// surfaced as an error for out-of-band reconciliation.
func (w *Workflow) reconcile(ctx context.Context, pending PendingPayment, transactionID, method string) (Confirmation, error) {
	paymentID, err := w.Records.Create(ctx, paymentapi.Record{
		UserID:        pending.UserID,
		UserName:      pending.UserName,
		PaymentMethod: method,
		Amount:        pending.Amount,
		PhoneNumber:   pending.PhoneNumber,
		TransactionID: transactionID,
	})
	if err != nil {
		return Confirmation{}, fmt.Errorf("store payment record: %w", err)
	}

	surveyRecord, err := embedPaymentID(pending.SurveyData, pending.UserID, paymentID)
	if err != nil {
		return Confirmation{}, err
	}

	receipt, err := w.Surveys.Submit(ctx, surveyRecord)
	if err != nil {
		return Confirmation{}, fmt.Errorf("submit survey: %w", err)
	}

	if err := w.Sessions.MarkSurveyCompleted(ctx, pending.UserID, surveyRecord); err != nil {
		// Local bookkeeping only; the survey is already stored upstream.
		log.Printf("[payment] mark survey completed for %s: %v", pending.UserID, err)
	}

	return Confirmation{
		TransactionID:   transactionID,
		PaymentID:       paymentID,
		SurveyReceiptID: receipt.ID,
	}, nil
}

// embedPaymentID stamps the survey payload with the ids the survey service
// requires before accepting it.
func embedPaymentID(surveyData json.RawMessage, userID, paymentID string) (json.RawMessage, error) {
	record := make(map[string]interface{})
	if len(surveyData) > 0 {
		if err := json.Unmarshal(surveyData, &record); err != nil {
			return nil, fmt.Errorf("corrupt survey payload: %w", err)
		}
	}
	record["userId"] = userID
	record["paymentId"] = paymentID

	out, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("serialize survey payload: %w", err)
	}
	return out, nil
}
