package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

const (
	HeaderCorrelationID = "X-Correlation-Id"
	HeaderSessionID     = "X-Session-Id"
)

// CorrelationID tags the request for logs and published events.
var CorrelationID = headerID(HeaderCorrelationID, ctxCorrelationID)

// SessionID identifies the browser session that owns the cart and checkout.
var SessionID = headerID(HeaderSessionID, ctxSessionID)

// headerID reads an id from header, mints a uuid when it is absent, echoes it
// on the response and stores it under key.
func headerID(header string, key ctxKey) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimSpace(r.Header.Get(header))
			if id == "" {
				id = uuid.NewString()
			}
			w.Header().Set(header, id)
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), key, id)))
		})
	}
}
