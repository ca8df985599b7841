package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

type contextKey string

const contextUserIDKey contextKey = "user_id"

const internalErrorMessage = "internal server error"

// Options carries settings shared by every handler.
type Options struct {
	Logger zerolog.Logger
	// DebugErrors exposes the underlying error text in 500 responses.
	DebugErrors bool
}

// ErrorResponse is a simple error payload.
type ErrorResponse struct {
	Error string `json:"error"`
}

// MessageResponse acknowledges a write.
type MessageResponse struct {
	Message string `json:"message"`
	ID      int    `json:"id,omitempty"`
}

func withUserID(ctx context.Context, userID int) context.Context {
	return context.WithValue(ctx, contextUserIDKey, userID)
}

func userIDFromContext(ctx context.Context) (int, error) {
	userID, ok := ctx.Value(contextUserIDKey).(int)
	if !ok {
		return 0, errors.New("missing subject")
	}
	if userID < 1 {
		return 0, errors.New("invalid subject")
	}
	return userID, nil
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

// writeInternalError logs err and answers 500.
func (o Options) writeInternalError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	o.Logger.Error().
		Err(err).
		Str("request_id", middleware.GetReqID(r.Context())).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Msg(msg)

	message := internalErrorMessage
	if o.DebugErrors {
		message = err.Error()
	}
	writeError(w, http.StatusInternalServerError, message)
}
