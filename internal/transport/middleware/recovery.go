package middleware

import (
	"encoding/json"
	"net/http"
	"runtime/debug"

	"github.com/yusufwdn/reimverse/internal"
	"github.com/yusufwdn/reimverse/pkg/logger"
)

// Recovery turns a panic into the generic 500 body. The panic value is logged,
// never echoed to the client.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}

			logger.From(r.Context()).Error("panic recovered",
				"panic", rec,
				"method", r.Method,
				"path", r.URL.Path,
				"stack", string(debug.Stack()))

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			_ = json.NewEncoder(w).Encode(internal.NewInternalError("Internal server error", nil))
		}()

		next.ServeHTTP(w, r)
	})
}
