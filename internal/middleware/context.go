package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/Lolobw32/ecom-oslan/internal/auth"
)

type ctxKey string

const (
	ctxCorrelationID ctxKey = "correlation_id"
	ctxSessionID     ctxKey = "session_id"
	ctxUser          ctxKey = "user"
)

// ErrorResponse is the JSON body of every error answer.
type ErrorResponse struct {
	Error         string `json:"error"`
	CorrelationID string `json:"correlationId,omitempty"`
}

func WriteError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Error:         msg,
		CorrelationID: GetCorrelationID(r.Context()),
	})
}

func stringValue(ctx context.Context, key ctxKey) string {
	if v := ctx.Value(key); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func GetCorrelationID(ctx context.Context) string {
	return stringValue(ctx, ctxCorrelationID)
}

func GetSessionID(ctx context.Context) string {
	return stringValue(ctx, ctxSessionID)
}

func WithUser(ctx context.Context, u auth.User) context.Context {
	return context.WithValue(ctx, ctxUser, u)
}

func GetUser(ctx context.Context) (auth.User, bool) {
	u, ok := ctx.Value(ctxUser).(auth.User)
	return u, ok
}
