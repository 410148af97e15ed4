package middleware

import (
	apperrors "agendabot/pkg/errors"
	httputil "agendabot/pkg/http"
	"context"
	"net/http"
	"sync"
	"time"
)

// RequestTimeout bounds a handler's run time. On expiry the client gets a 503
// unless the handler already started answering, and every later handler write
// fails with http.ErrHandlerTimeout. A panic in the handler is re-raised on
// the serving goroutine so Recovery still sees it.
func RequestTimeout(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()

			tw := &timeoutWriter{ResponseWriter: w}
			done := make(chan struct{})
			panicked := make(chan any, 1)

			go func() {
				defer func() {
					if p := recover(); p != nil {
						panicked <- p
						return
					}
					close(done)
				}()
				next.ServeHTTP(tw, r.WithContext(ctx))
			}()

			select {
			case p := <-panicked:
				panic(p)
			case <-done:
			case <-ctx.Done():
				if tw.expire() {
					_ = httputil.WriteError(w, apperrors.Unavailable("Service"))
				}
			}
		})
	}
}

type timeoutWriter struct {
	http.ResponseWriter
	mu      sync.Mutex
	expired bool
	started bool
}

func (tw *timeoutWriter) WriteHeader(code int) {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	if tw.expired || tw.started {
		return
	}
	tw.started = true
	tw.ResponseWriter.WriteHeader(code)
}

func (tw *timeoutWriter) Write(b []byte) (int, error) {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	if tw.expired {
		return 0, http.ErrHandlerTimeout
	}
	tw.started = true
	return tw.ResponseWriter.Write(b)
}

// expire blocks further handler writes and reports whether the response is
// still untouched.
func (tw *timeoutWriter) expire() bool {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	tw.expired = true
	return !tw.started
}
