package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// IdempotencyStore remembers responses by key. Both the HTTP middleware and
// the inbound pipeline (message redelivery) use it.
type IdempotencyStore interface {
	Get(ctx context.Context, key string) (*CachedResponse, bool)
	Set(ctx context.Context, key string, response *CachedResponse)
	Stop()
}

type CachedResponse struct {
	StatusCode int         `json:"status_code"`
	Headers    http.Header `json:"headers"`
	Body       []byte      `json:"body"`
	CreatedAt  time.Time   `json:"created_at"`
}

// KeyFunc extracts the idempotency key from a request. "" disables caching for it.
type KeyFunc func(r *http.Request) string

// HeaderKey reads the key from a request header, Idempotency-Key by default.
func HeaderKey(header string) KeyFunc {
	if header == "" {
		header = "Idempotency-Key"
	}
	return func(r *http.Request) string { return r.Header.Get(header) }
}

type memoryEntry struct {
	response  *CachedResponse
	expiresAt time.Time
}

type InMemoryIdempotencyStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	ttl     time.Duration
	done    chan struct{}
	once    sync.Once
}

// NewInMemoryIdempotencyStore starts a sweeper that drops expired entries
// until Stop is called.
func NewInMemoryIdempotencyStore(ttl time.Duration) *InMemoryIdempotencyStore {
	s := &InMemoryIdempotencyStore{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		done:    make(chan struct{}),
	}
	go s.sweep(sweepInterval(ttl))
	return s
}

func sweepInterval(ttl time.Duration) time.Duration {
	if ttl < time.Minute {
		return time.Minute
	}
	return min(ttl, time.Hour)
}

func (s *InMemoryIdempotencyStore) Get(_ context.Context, key string) (*CachedResponse, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok {
		return nil, false
	}
	if time.Now().After(entry.expiresAt) {
		delete(s.entries, key)
		return nil, false
	}
	return entry.response, true
}

func (s *InMemoryIdempotencyStore) Set(_ context.Context, key string, response *CachedResponse) {
	now := time.Now()
	response.CreatedAt = now

	s.mu.Lock()
	s.entries[key] = memoryEntry{response: response, expiresAt: now.Add(s.ttl)}
	s.mu.Unlock()
}

func (s *InMemoryIdempotencyStore) sweep(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case now := <-ticker.C:
			s.mu.Lock()
			for key, entry := range s.entries {
				if now.After(entry.expiresAt) {
					delete(s.entries, key)
				}
			}
			s.mu.Unlock()
		}
	}
}

func (s *InMemoryIdempotencyStore) Stop() {
	s.once.Do(func() { close(s.done) })
}

// RedisIdempotencyStore shares cached responses across replicas. Redis
// failures degrade to a cache miss.
type RedisIdempotencyStore struct {
	client *redis.Client
	ttl    time.Duration
}

const redisIdempotencyPrefix = "idempotency:"

func NewRedisIdempotencyStore(client *redis.Client, ttl time.Duration) *RedisIdempotencyStore {
	return &RedisIdempotencyStore{client: client, ttl: ttl}
}

func (s *RedisIdempotencyStore) Get(ctx context.Context, key string) (*CachedResponse, bool) {
	raw, err := s.client.Get(ctx, redisIdempotencyPrefix+key).Bytes()
	if err != nil {
		return nil, false
	}
	cached := new(CachedResponse)
	if json.Unmarshal(raw, cached) != nil {
		return nil, false
	}
	return cached, true
}

func (s *RedisIdempotencyStore) Set(ctx context.Context, key string, response *CachedResponse) {
	response.CreatedAt = time.Now()
	raw, err := json.Marshal(response)
	if err != nil {
		return
	}
	s.client.Set(ctx, redisIdempotencyPrefix+key, raw, s.ttl)
}

func (s *RedisIdempotencyStore) Stop() {}

// recorder tees the response body and snapshots headers when the status is written.
type recorder struct {
	http.ResponseWriter
	status  int
	headers http.Header
	body    bytes.Buffer
}

func (rec *recorder) WriteHeader(code int) {
	if rec.status == 0 {
		rec.status = code
		rec.headers = rec.Header().Clone()
	}
	rec.ResponseWriter.WriteHeader(code)
}

func (rec *recorder) Write(b []byte) (int, error) {
	if rec.status == 0 {
		rec.WriteHeader(http.StatusOK)
	}
	rec.body.Write(b)
	return rec.ResponseWriter.Write(b)
}

// Idempotency replays the cached 2xx response for a key seen before. Keys are
// scoped to method and path.
func Idempotency(store IdempotencyStore, keyFunc KeyFunc) func(http.Handler) http.Handler {
	if keyFunc == nil {
		keyFunc = HeaderKey("")
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := keyFunc(r)
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}
			key = r.Method + " " + r.URL.Path + " " + key

			if cached, ok := store.Get(r.Context(), key); ok {
				replay(w, cached)
				return
			}

			rec := &recorder{ResponseWriter: w}
			next.ServeHTTP(rec, r)

			if rec.status == 0 || rec.status/100 != 2 {
				return
			}
			store.Set(context.WithoutCancel(r.Context()), key, &CachedResponse{
				StatusCode: rec.status,
				Headers:    rec.headers,
				Body:       rec.body.Bytes(),
			})
		})
	}
}

func replay(w http.ResponseWriter, cached *CachedResponse) {
	header := w.Header()
	for name, values := range cached.Headers {
		header[name] = append([]string(nil), values...)
	}
	header.Set("Idempotent-Replayed", "true")
	w.WriteHeader(cached.StatusCode)
	_, _ = w.Write(cached.Body)
}
