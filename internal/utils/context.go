package utils

import (
	"context"
)

type contextKey string

const (
	ContextUserIDKey    contextKey = "userID"
	ContextSessionIDKey contextKey = "sessionID"
)

func GetUserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(ContextUserIDKey).(string)
	return userID, ok
}

func GetSessionIDFromContext(ctx context.Context) (string, bool) {
	sessionID, ok := ctx.Value(ContextSessionIDKey).(string)
	return sessionID, ok
}
