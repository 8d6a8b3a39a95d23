package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"go.uber.org/zap"

	"perkhub-analytics/pkg/logging/logging"
)

// Recoverer turns a panic into a logged 500 with the standard error envelope.
// The stack is attached to the response only when development is set.
func Recoverer(development bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				stack := debug.Stack()
				logging.L(r.Context()).Error("panic recovered",
					zap.Any("error", rec),
					zap.ByteString("stack", stack),
				)

				body := errorBody{Success: false, Error: "Internal server error"}
				if development {
					body.Details = fmt.Sprintf("%v\n%s", rec, stack)
				}
				writeError(w, http.StatusInternalServerError, body)
			}()

			next.ServeHTTP(w, r)
		})
	}
}
