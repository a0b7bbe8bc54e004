package app

import (
	"context"
	"log/slog"
	"net/http"
)

type contextKey string

const (
	identityContextKey = contextKey("identity")
	loggerContextKey   = contextKey("logger")
)

// Identity is the caller resolved from a verified access token.
type Identity struct {
	UserID int
	Role   string
}

func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

func (app *Application) contextSetIdentity(r *http.Request, identity Identity) *http.Request {
	ctx := context.WithValue(r.Context(), identityContextKey, identity)
	return r.WithContext(ctx)
}

func (app *Application) contextGetIdentity(r *http.Request) (Identity, bool) {
	identity, ok := r.Context().Value(identityContextKey).(Identity)
	return identity, ok
}

func (app *Application) contextSetLogger(r *http.Request, logger *slog.Logger) *http.Request {
	ctx := context.WithValue(r.Context(), loggerContextKey, logger)
	return r.WithContext(ctx)
}

func (app *Application) contextGetLogger(r *http.Request) *slog.Logger {
	logger, ok := r.Context().Value(loggerContextKey).(*slog.Logger)
	if !ok {
		return app.logger
	}

	return logger
}
