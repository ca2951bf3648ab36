// Package recovery converts downstream handler panics into JSON 500
// responses.
package recovery

import (
	"net/http"
	"runtime/debug"

	"github.com/rs/zerolog/log"

	"github.com/avclabs/faxdesk/internal/api/respond"
)

// Middleware recovers a panicking handler, logs the stack and answers
// with the standard 500 body so one bad request cannot take the
// listener down.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			log.Error().
				Interface("panic", rec).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Str("remote", r.RemoteAddr).
				Bytes("stack", debug.Stack()).
				Msg("panic recovered")
			respond.WriteInternalError(w, "internal server error")
		}()
		next.ServeHTTP(w, r)
	})
}
