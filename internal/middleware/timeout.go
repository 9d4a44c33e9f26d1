package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// TimeoutMessage is the body sent when a page could not be built in time,
// almost always because the glossary backend is slow.
const TimeoutMessage = "The glossary service did not respond in time. Please try again."

// timeoutRetryAfter is the Retry-After hint on a timed out response.
const timeoutRetryAfter = 5 * time.Second

// Timeout bounds the whole request. Backend calls made by the handler share
// the deadline, so a slow backend yields 503 rather than a hung page.
// A non-positive d disables the limit.
func Timeout(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if d <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()

			dw := &deadlineWriter{w: w, pending: w.Header().Clone()}
			done := make(chan struct{})
			go func() {
				defer close(done)
				next.ServeHTTP(dw, r.WithContext(ctx))
			}()

			select {
			case <-done:
				return
			case <-ctx.Done():
			}

			if !dw.expire() {
				// The handler already started its response; let it finish.
				<-done
				return
			}
			slog.Warn("request timed out",
				"method", r.Method,
				"path", r.URL.Path,
				"timeout", d,
				"request_id", chimw.GetReqID(r.Context()),
			)
			h := w.Header()
			h.Set("Content-Type", "text/plain; charset=utf-8")
			h.Set("Retry-After", strconv.Itoa(int(timeoutRetryAfter.Seconds())))
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(TimeoutMessage))
		})
	}
}

// deadlineWriter keeps header changes private until the handler commits a
// status. Once the deadline wins, every later write is dropped.
type deadlineWriter struct {
	w       http.ResponseWriter
	pending http.Header

	mu        sync.Mutex
	committed bool
	expired   bool
}

func (dw *deadlineWriter) Header() http.Header { return dw.pending }

// expire marks the response as timed out. It reports false when the
// handler has already committed a status.
func (dw *deadlineWriter) expire() bool {
	dw.mu.Lock()
	defer dw.mu.Unlock()
	if dw.committed {
		return false
	}
	dw.expired = true
	return true
}

func (dw *deadlineWriter) WriteHeader(code int) {
	dw.mu.Lock()
	defer dw.mu.Unlock()
	dw.commit(code)
}

func (dw *deadlineWriter) commit(code int) {
	if dw.committed || dw.expired {
		return
	}
	dw.committed = true
	dst := dw.w.Header()
	for k, v := range dw.pending {
		dst[k] = v
	}
	dw.w.WriteHeader(code)
}

func (dw *deadlineWriter) Write(b []byte) (int, error) {
	dw.mu.Lock()
	defer dw.mu.Unlock()
	if dw.expired {
		return 0, http.ErrHandlerTimeout
	}
	dw.commit(http.StatusOK)
	return dw.w.Write(b)
}
