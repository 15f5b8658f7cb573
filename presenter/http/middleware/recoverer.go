package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/dbkchain/bridge-service/logging"
)

// Recoverer converts handler panics into plain 500 responses.
func Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logger := logging.LoggerFromContext(r.Context())
				if err, ok := rec.(error); ok {
					logger = logger.WithError(err)
				} else {
					logger = logger.WithField("panic", rec)
				}
				logger.WithField("stack", string(debug.Stack())).Error("recovered panic in http handler")
				w.WriteHeader(http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
