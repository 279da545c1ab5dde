package mcp

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"log"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultMCPMaxBodyBytes int64 = 1 << 20
	defaultMCPPerMin             = 60
	idleClientTTL                = 10 * time.Minute
)

// SharedLimiter counts requests across replicas, e.g. in redis.
type SharedLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

type HTTPHandlerConfig struct {
	AuthToken       string
	RateLimitPerMin int
	MaxBodyBytes    int64
	// Shared, when set, takes precedence over the in-process limiter.
	// The in-process limiter still applies while the shared one is erroring.
	Shared SharedLimiter
}

func wrapHTTPHandler(base http.Handler, cfg HTTPHandlerConfig) http.Handler {
	h := withBodyLimit(base, cfg.MaxBodyBytes)
	h = withRateLimit(h, newClientLimiter(cfg.RateLimitPerMin), cfg.Shared)
	h = withBearerAuth(h, cfg.AuthToken)
	return h
}

func withBearerAuth(next http.Handler, token string) http.Handler {
	want := []byte(token)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		provided, ok := bearerToken(r)
		if !ok {
			writeJSONError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		if len(want) == 0 || provided == "" || subtle.ConstantTimeCompare([]byte(provided), want) != 1 {
			writeJSONError(w, http.StatusForbidden, "invalid bearer token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) (string, bool) {
	authz := strings.TrimSpace(r.Header.Get("Authorization"))
	if !strings.HasPrefix(authz, "Bearer ") {
		return "", false
	}
	return strings.TrimSpace(strings.TrimPrefix(authz, "Bearer ")), true
}

func withBodyLimit(next http.Handler, limit int64) http.Handler {
	if limit <= 0 {
		limit = defaultMCPMaxBodyBytes
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, limit)
		}
		next.ServeHTTP(w, r)
	})
}

func withRateLimit(next http.Handler, local *clientLimiter, shared SharedLimiter) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !allowRequest(r.Context(), clientKey(r), local, shared) {
			w.Header().Set("Retry-After", strconv.Itoa(local.retryAfterSecs()))
			writeJSONError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func allowRequest(ctx context.Context, key string, local *clientLimiter, shared SharedLimiter) bool {
	if shared != nil {
		ok, err := shared.Allow(ctx, key)
		if err == nil {
			return ok
		}
		log.Printf("Warning: shared MCP rate limiter unavailable, using local limiter: %v", err)
	}
	return local.Allow(key)
}

// clientKey identifies a caller by remote host and a fingerprint of its token.
// The raw token never leaves the process since keys end up in redis.
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err != nil {
		host = strings.TrimSpace(r.RemoteAddr)
	}
	if host == "" {
		host = "unknown"
	}
	token, _ := bearerToken(r)
	if token == "" {
		return host
	}
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:6]) + "@" + host
}

// clientLimiter keeps one token bucket per client key, refilling perMin tokens a minute.
type clientLimiter struct {
	mu        sync.Mutex
	every     time.Duration
	burst     int
	clients   map[string]*clientEntry
	lastSweep time.Time
	now       func() time.Time
}

type clientEntry struct {
	limiter *rate.Limiter
	seen    time.Time
}

func newClientLimiter(perMin int) *clientLimiter {
	if perMin <= 0 {
		perMin = defaultMCPPerMin
	}
	return &clientLimiter{
		every:   time.Minute / time.Duration(perMin),
		burst:   perMin,
		clients: make(map[string]*clientEntry),
		now:     time.Now,
	}
}

func (l *clientLimiter) Allow(key string) bool {
	if l == nil {
		return true
	}
	if key == "" {
		key = "default"
	}

	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()

	l.sweep(now)
	entry, ok := l.clients[key]
	if !ok {
		entry = &clientEntry{limiter: rate.NewLimiter(rate.Every(l.every), l.burst)}
		l.clients[key] = entry
	}
	entry.seen = now
	return entry.limiter.AllowN(now, 1)
}

// sweep drops clients idle for longer than idleClientTTL. Callers hold mu.
func (l *clientLimiter) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < time.Minute {
		return
	}
	l.lastSweep = now
	for key, entry := range l.clients {
		if now.Sub(entry.seen) > idleClientTTL {
			delete(l.clients, key)
		}
	}
}

func (l *clientLimiter) retryAfterSecs() int {
	if l == nil {
		return 60
	}
	return int(math.Max(1, math.Ceil(l.every.Seconds())))
}

func (l *clientLimiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
