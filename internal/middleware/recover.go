package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"bovine-monitoring/internal/platform/httpx"
	"bovine-monitoring/internal/platform/logger"
)

// Recover captura panics, los loguea con el logger del request y responde
// el 500 con el formato común de errores.
func Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}

			logger.FromContext(r.Context()).Error("panic recovered", map[string]any{
				"panic": fmt.Sprint(rec),
				"stack": string(debug.Stack()),
			})
			httpx.WriteStatus(w, http.StatusInternalServerError, "internal server error")
		}()
		next.ServeHTTP(w, r)
	})
}
