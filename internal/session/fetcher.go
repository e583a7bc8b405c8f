package session

import (
	"context"

	"github.com/CampusTransit/CT-Backend/internal/middleware"
)

// FindSessionByID implements middleware.SessionFetcher. A session resolves
// while its credentials are still present in the store; once the TTL lapses
// the store forgets them and the session stops resolving.
func (m *Manager) FindSessionByID(ctx context.Context, id string) (middleware.SessionData, error) {
	creds, err := m.loadCredentials(ctx, id)
	if err != nil {
		return middleware.SessionData{}, err
	}
	return middleware.SessionData{SessionID: id, UserID: creds.user.ID}, nil
}
