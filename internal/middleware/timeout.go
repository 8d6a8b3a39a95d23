package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"perkhub-analytics/pkg/logging/logging"
)

// Timeout cancels the request context after d and returns 504 if the handler
// is still running. Writes the handler makes after that point are dropped.
func Timeout(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()

			tw := &timeoutWriter{w: w, h: make(http.Header)}
			done := make(chan struct{})
			panicked := make(chan any, 1)
			go func() {
				defer func() {
					if rec := recover(); rec != nil {
						panicked <- rec
					}
				}()
				next.ServeHTTP(tw, r.WithContext(ctx))
				close(done)
			}()

			select {
			case <-done:
			case rec := <-panicked:
				// Re-raise on the serving goroutine so Recoverer sees it.
				panic(rec)
			case <-ctx.Done():
				tw.mu.Lock()
				defer tw.mu.Unlock()
				tw.timedOut = true
				if tw.wroteHeader {
					return
				}
				logging.L(ctx).Warn("request timeout", zap.Duration("timeout", d))
				writeError(w, http.StatusGatewayTimeout, errorBody{Success: false, Error: "Request timed out"})
			}
		})
	}
}

// timeoutWriter gives the handler its own header map. It is copied to the
// real writer under mu on the first write, so the timeout branch never shares
// a map with the handler goroutine.
type timeoutWriter struct {
	w           http.ResponseWriter
	h           http.Header
	mu          sync.Mutex
	timedOut    bool
	wroteHeader bool
}

func (tw *timeoutWriter) Header() http.Header { return tw.h }

func (tw *timeoutWriter) WriteHeader(code int) {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	if tw.timedOut || tw.wroteHeader {
		return
	}
	tw.writeHeaderLocked(code)
}

func (tw *timeoutWriter) Write(b []byte) (int, error) {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	if tw.timedOut {
		return 0, http.ErrHandlerTimeout
	}
	if !tw.wroteHeader {
		tw.writeHeaderLocked(http.StatusOK)
	}
	return tw.w.Write(b)
}

func (tw *timeoutWriter) writeHeaderLocked(code int) {
	tw.wroteHeader = true
	dst := tw.w.Header()
	for k, vv := range tw.h {
		dst[k] = append([]string(nil), vv...)
	}
	tw.w.WriteHeader(code)
}
