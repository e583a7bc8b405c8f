package credstore

import (
	"context"
	"sync"
)

// Memory is an in-process Store used by tests and local development without
// Redis. Entries never expire; expiry behavior belongs to RedisStore.
type Memory struct {
	mu      sync.Mutex
	creds   map[string]Credentials
	emails  map[string]string
	surveys map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{
		creds:   make(map[string]Credentials),
		emails:  make(map[string]string),
		surveys: make(map[string][]byte),
	}
}

func (m *Memory) Save(_ context.Context, sessionID string, creds Credentials) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creds[sessionID] = creds
	return nil
}

func (m *Memory) Load(_ context.Context, sessionID string) (Credentials, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	creds, ok := m.creds[sessionID]
	if !ok || creds.Token == "" || len(creds.User) == 0 {
		return Credentials{}, ErrNotFound
	}
	return creds, nil
}

func (m *Memory) ReplaceUser(_ context.Context, sessionID string, user []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	creds := m.creds[sessionID]
	creds.User = user
	m.creds[sessionID] = creds
	return nil
}

func (m *Memory) Clear(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.creds, sessionID)
	delete(m.emails, sessionID)
	return nil
}

func (m *Memory) SetPendingEmail(_ context.Context, sessionID, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.emails[sessionID] = email
	return nil
}

func (m *Memory) PendingEmail(_ context.Context, sessionID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.emails[sessionID], nil
}

func (m *Memory) MarkSurveyCompleted(_ context.Context, userID string, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.surveys[userID] = payload
	return nil
}

func (m *Memory) SurveyCompleted(_ context.Context, userID string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	payload, ok := m.surveys[userID]
	return payload, ok, nil
}
