package handler

import (
	"log"
	"net/http"
	"runtime/debug"

	"github.com/kdduha/code-explainer/backend/internal/failure"
	"github.com/kdduha/code-explainer/backend/internal/metrics"
	"github.com/kdduha/code-explainer/backend/internal/models"
)

// Recoverer turns a panic into the generic JSON 500 body. The panic value
// and stack are only logged.
func Recoverer(logger *log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rvr := recover()
				if rvr == nil {
					return
				}
				if rvr == http.ErrAbortHandler {
					panic(rvr)
				}

				logger.Printf("panic serving %s %s: %v\n%s", r.Method, r.URL.Path, rvr, debug.Stack())

				report := failure.Unexpected()
				metrics.ExplainRequestsTotal(string(report.Category))
				writeJSON(w, report.Status, models.ExplainResponse{Explanation: report.Explanation})
			}()

			next.ServeHTTP(w, r)
		})
	}
}
