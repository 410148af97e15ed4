package middleware

import (
	apperrors "agendabot/pkg/errors"
	httputil "agendabot/pkg/http"
	"agendabot/pkg/logger"
	"net/http"
	"sync"
	"time"
)

// SenderExtractor returns the identity a request is rate limited by, or "" to skip limiting.
type SenderExtractor func(r *http.Request) string

// SenderRateLimiter is a sliding-window limiter keyed by sender.
type SenderRateLimiter struct {
	mu        sync.Mutex
	requests  map[string][]time.Time
	limit     int
	window    time.Duration
	extractor SenderExtractor
	log       *logger.Logger
	now       func() time.Time
	stopCh    chan struct{}
	stopOnce  sync.Once
}

func NewSenderRateLimiter(limit int, window time.Duration, extractor SenderExtractor, log *logger.Logger) *SenderRateLimiter {
	limiter := &SenderRateLimiter{
		requests:  make(map[string][]time.Time),
		limit:     limit,
		window:    window,
		extractor: extractor,
		log:       log,
		now:       time.Now,
		stopCh:    make(chan struct{}),
	}

	go limiter.cleanup()

	return limiter
}

func (rl *SenderRateLimiter) cleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			now := rl.now()
			rl.mu.Lock()
			for sender, timestamps := range rl.requests {
				if len(timestamps) == 0 || now.Sub(timestamps[len(timestamps)-1]) > rl.window {
					delete(rl.requests, sender)
				}
			}
			rl.mu.Unlock()
		case <-rl.stopCh:
			return
		}
	}
}

func (rl *SenderRateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stopCh) })
}

func (rl *SenderRateLimiter) Allow(sender string) bool {
	if sender == "" {
		return true
	}

	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	valid := rl.requests[sender][:0]
	for _, ts := range rl.requests[sender] {
		if now.Sub(ts) < rl.window {
			valid = append(valid, ts)
		}
	}

	if len(valid) >= rl.limit {
		rl.requests[sender] = valid
		return false
	}

	rl.requests[sender] = append(valid, now)
	return true
}

func SenderRateLimit(limiter *SenderRateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sender := extractSender(r, limiter.extractor)

			if sender == "" {
				next.ServeHTTP(w, r)
				return
			}

			if !limiter.Allow(sender) {
				rejectRateLimited(w, limiter.log, r, sender)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func extractSender(r *http.Request, extractor SenderExtractor) string {
	if extractor == nil {
		return DefaultSenderExtractor(r)
	}
	return extractor(r)
}

func rejectRateLimited(w http.ResponseWriter, log *logger.Logger, r *http.Request, sender string) {
	log.Warn("Rate limit exceeded",
		"request_id", RequestIDFromContext(r.Context()),
		"sender", sender,
		"path", r.URL.Path,
	)

	if err := httputil.WriteError(w, apperrors.TooManyRequests("Rate limit exceeded")); err != nil {
		log.Error("failed to write error response", "operation", "WriteError", "error", err)
	}
}

func DefaultSenderExtractor(r *http.Request) string {
	return r.Header.Get("X-Phone-Number")
}
