package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync/atomic"

	"github.com/CampusTransit/CT-Backend/internal/credstore"
	"github.com/CampusTransit/CT-Backend/internal/upstream/authapi"
	"github.com/google/uuid"
)

// AuthClient is the slice of the auth service the manager needs.
type AuthClient interface {
	Login(ctx context.Context, id, password string) (authapi.LoginResult, error)
	UpdatePassword(ctx context.Context, email, currentPass, newPass string) (string, error)
}

// SurveyClient is the slice of the survey service the manager needs.
type SurveyClient interface {
	GetByUser(ctx context.Context, userID string) (json.RawMessage, error)
}

// Manager drives the session state machine and owns all credential-store
// side effects. State transitions themselves go through Apply so they stay
// pure and unit-testable.
type Manager struct {
	store  credstore.Store
	auth   AuthClient
	survey SurveyClient

	// surveyGen stamps each survey fetch; see SurveyStatus.Generation.
	surveyGen atomic.Uint64
}

func NewManager(store credstore.Store, auth AuthClient, survey SurveyClient) *Manager {
	return &Manager{store: store, auth: auth, survey: survey}
}

// Bootstrap rebuilds the session from the durable store. Any failure along
// the way degrades to an unauthenticated session; the initial-check flag is
// set unconditionally at the end so the access gate never hangs on it.
func (m *Manager) Bootstrap(ctx context.Context, sessionID string) Session {
	s := Apply(Session{}, BootstrapStarted{})

	creds, err := m.loadCredentials(ctx, sessionID)
	if err != nil {
		if !errors.Is(err, credstore.ErrNotFound) {
			log.Printf("[session] bootstrap: %v", err)
		}
		s = Apply(s, CredentialsMissing{})
	} else {
		s = Apply(s, CredentialsLoaded{User: creds.user, Token: creds.token})
		s = m.fetchSurveyInto(ctx, s, creds.user.ID, false)
	}

	return Apply(s, InitialCheckDone{})
}

// Login authenticates against the upstream auth service, persists the
// credentials under a fresh session id, and derives the post-login redirect
// from the survey status. No retry on failure: retrying is a user action.
func (m *Manager) Login(ctx context.Context, id, password string) (Session, string, string, error) {
	s := Apply(Session{InitialCheckComplete: true}, LoginStarted{})

	result, err := m.auth.Login(ctx, id, password)
	if err != nil {
		return Apply(s, LoginFailed{}), "", "", err
	}

	user := fromAuthUser(result.User)
	userJSON, err := json.Marshal(user)
	if err != nil {
		return Apply(s, LoginFailed{}), "", "", fmt.Errorf("serialize user: %w", err)
	}

	sessionID := uuid.NewString()
	err = m.store.Save(ctx, sessionID, credstore.Credentials{
		Token: result.Token,
		User:  userJSON,
	})
	if err != nil {
		return Apply(s, LoginFailed{}), "", "", fmt.Errorf("persist credentials: %w", err)
	}

	s = Apply(s, LoginSucceeded{User: user, Token: result.Token})
	s = m.fetchSurveyInto(ctx, s, user.ID, false)

	redirect := "/survey"
	if s.Survey.Phase == SurveyCompleted || user.Role.Privileged() {
		redirect = "/"
	}

	return s, sessionID, redirect, nil
}

// Logout clears the durable credentials. This is the only operation that
// resets the survey sub-state.
func (m *Manager) Logout(ctx context.Context, sessionID string) error {
	return m.store.Clear(ctx, sessionID)
}

// CurrentUser returns the stored user record for a session id.
func (m *Manager) CurrentUser(ctx context.Context, sessionID string) (UserRecord, error) {
	creds, err := m.loadCredentials(ctx, sessionID)
	if err != nil {
		return UserRecord{}, err
	}
	return creds.user, nil
}

// UpdateUser replaces the stored user record wholesale. Callers pass the
// complete record; there is no partial merge here.
func (m *Manager) UpdateUser(ctx context.Context, sessionID string, user UserRecord) error {
	if _, err := m.loadCredentials(ctx, sessionID); err != nil {
		return err
	}
	userJSON, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("serialize user: %w", err)
	}
	return m.store.ReplaceUser(ctx, sessionID, userJSON)
}

// UpdatePassword forwards a password change to the auth service.
func (m *Manager) UpdatePassword(ctx context.Context, email, currentPass, newPass string) (string, error) {
	return m.auth.UpdatePassword(ctx, email, currentPass, newPass)
}

// FetchSurvey refreshes the survey sub-state of the given session. With
// forceRefresh the optimistic completion cache is bypassed and the survey
// service is asked directly.
func (m *Manager) FetchSurvey(ctx context.Context, s Session, forceRefresh bool) Session {
	if s.User == nil {
		return s
	}
	return m.fetchSurveyInto(ctx, s, s.User.ID, forceRefresh)
}

// MarkSurveyCompleted records the optimistic completion marker consulted by
// later bootstraps, bridging backend replication lag after a payment.
func (m *Manager) MarkSurveyCompleted(ctx context.Context, userID string, payload json.RawMessage) error {
	if len(payload) == 0 {
		payload = json.RawMessage(`{}`)
	}
	return m.store.MarkSurveyCompleted(ctx, userID, payload)
}

// SetPendingEmail records that a verification email is in flight.
func (m *Manager) SetPendingEmail(ctx context.Context, sessionID, email string) error {
	return m.store.SetPendingEmail(ctx, sessionID, email)
}

// PendingEmail returns the in-flight verification address, if any.
func (m *Manager) PendingEmail(ctx context.Context, sessionID string) (string, error) {
	return m.store.PendingEmail(ctx, sessionID)
}

func (m *Manager) fetchSurveyInto(ctx context.Context, s Session, userID string, forceRefresh bool) Session {
	gen := m.surveyGen.Add(1)
	s = Apply(s, SurveyFetchStarted{Generation: gen})

	if !forceRefresh {
		payload, done, err := m.store.SurveyCompleted(ctx, userID)
		if err == nil && done {
			if len(payload) == 0 {
				payload = []byte(`{}`)
			}
			return Apply(s, SurveyFetched{Generation: gen, Record: payload})
		}
	}

	record, err := m.survey.GetByUser(ctx, userID)
	if err != nil {
		return Apply(s, SurveyFetchFailed{Generation: gen, Reason: err.Error()})
	}
	return Apply(s, SurveyFetched{Generation: gen, Record: record})
}

type loadedCredentials struct {
	user  UserRecord
	token string
}

func (m *Manager) loadCredentials(ctx context.Context, sessionID string) (loadedCredentials, error) {
	if sessionID == "" {
		return loadedCredentials{}, credstore.ErrNotFound
	}
	creds, err := m.store.Load(ctx, sessionID)
	if err != nil {
		return loadedCredentials{}, err
	}
	var user UserRecord
	if err := json.Unmarshal(creds.User, &user); err != nil {
		return loadedCredentials{}, fmt.Errorf("corrupt user record: %w", err)
	}
	return loadedCredentials{user: user, token: creds.Token}, nil
}

func fromAuthUser(u authapi.User) UserRecord {
	return UserRecord{
		ID:         u.ID,
		DisplayID:  u.DisplayID,
		Username:   u.Username,
		Email:      u.Email,
		Role:       ParseRole(u.Role),
		Verified:   u.Verified,
		Department: u.Department,
		Phone:      u.Phone,
		AvatarURL:  u.AvatarURL,
	}
}
