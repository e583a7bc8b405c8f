// Package credstore is the durable, expiring credential store backing the
// session layer: per session id it holds the upstream auth token, the
// serialized user record, and an email-verification-in-progress marker.
// Credentials expire together after seven days; only the session manager
// writes them.
package credstore

import (
	"context"
	"errors"
	"time"
)

// CredentialTTL is how long stored credentials live without a refresh.
const CredentialTTL = 7 * 24 * time.Hour

// ErrNotFound is returned when no credentials exist for a session id.
var ErrNotFound = errors.New("credstore: not found")

// Credentials is everything persisted for one session.
type Credentials struct {
	Token string
	User  []byte // serialized user record, owned by the session package
}

// Store is the narrow persistence contract the session manager depends on.
type Store interface {
	// Save writes token + user under the session id with a fresh TTL.
	Save(ctx context.Context, sessionID string, creds Credentials) error
	// Load returns the stored credentials or ErrNotFound.
	Load(ctx context.Context, sessionID string) (Credentials, error)
	// ReplaceUser swaps the serialized user record without touching the token.
	ReplaceUser(ctx context.Context, sessionID string, user []byte) error
	// Clear removes everything stored for the session id.
	Clear(ctx context.Context, sessionID string) error

	// SetPendingEmail records that a verification email is in flight for the
	// given address. PendingEmail returns "" when no marker exists.
	SetPendingEmail(ctx context.Context, sessionID, email string) error
	PendingEmail(ctx context.Context, sessionID string) (string, error)

	// MarkSurveyCompleted caches an optimistic survey-completed marker for a
	// user so the next bootstrap does not race backend replication lag.
	// SurveyCompleted returns (payload, true) when the marker exists.
	MarkSurveyCompleted(ctx context.Context, userID string, payload []byte) error
	SurveyCompleted(ctx context.Context, userID string) ([]byte, bool, error)
}
