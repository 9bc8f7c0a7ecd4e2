package httpx

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/allisson/go-env"
	"golang.org/x/time/rate"

	"github.com/aussiebroadwan/tokentrust/pkg/authsdk"
	"github.com/aussiebroadwan/tokentrust/pkg/slogx"
)

// RateLimit is a token bucket refilled at Requests per Window.
type RateLimit struct {
	Requests int
	Window   time.Duration
	Burst    int
}

func (l RateLimit) every() rate.Limit {
	return rate.Limit(float64(l.Requests) / l.Window.Seconds())
}

// Profiles, tunable with RATELIMIT_<NAME>_{REQUESTS,WINDOW_SEC,BURST}.
var (
	// StrictLimit guards the token endpoint against credential stuffing.
	StrictLimit = limitFromEnv("STRICT", RateLimit{5, time.Minute, 5})

	// ModerateLimit covers revocation and authenticated resource calls.
	ModerateLimit = limitFromEnv("MODERATE", RateLimit{20, time.Minute, 20})

	LenientLimit = limitFromEnv("LENIENT", RateLimit{100, time.Minute, 100})
	PublicLimit  = limitFromEnv("PUBLIC", RateLimit{1000, time.Minute, 1000})
)

func limitFromEnv(name string, def RateLimit) RateLimit {
	prefix := "RATELIMIT_" + name + "_"
	l := RateLimit{
		Requests: env.GetInt(prefix+"REQUESTS", def.Requests),
		Window:   env.GetDuration(prefix+"WINDOW_SEC", int64(def.Window/time.Second), time.Second),
		Burst:    env.GetInt(prefix+"BURST", def.Burst),
	}
	if l.Requests <= 0 || l.Window <= 0 || l.Burst <= 0 {
		return def
	}
	return l
}

// KeyFunc groups requests into buckets. An empty key bypasses the limiter.
type KeyFunc func(*http.Request) string

// ClientIP is the first X-Forwarded-For hop, then X-Real-IP, then the peer
// address.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// PrincipalOrIP keys authenticated requests by subject and everything
// else by client address.
func PrincipalOrIP(r *http.Request) string {
	if p, ok := PrincipalFromContext(r.Context()); ok && p.Subject != "" {
		return "sub:" + p.Subject
	}
	return "ip:" + ClientIP(r)
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// buckets holds one limiter per key and drops keys idle for longer than
// ttl. The sweep runs inline, at most once per ttl.
type buckets struct {
	mu        sync.Mutex
	limit     RateLimit
	ttl       time.Duration
	entries   map[string]*bucket
	lastSweep time.Time
}

func newBuckets(limit RateLimit) *buckets {
	return &buckets{
		limit:     limit,
		ttl:       max(limit.Window, time.Minute),
		entries:   make(map[string]*bucket),
		lastSweep: time.Now(),
	}
}

func (b *buckets) get(key string, now time.Time) *rate.Limiter {
	b.mu.Lock()
	defer b.mu.Unlock()

	if now.Sub(b.lastSweep) >= b.ttl {
		for k, e := range b.entries {
			if now.Sub(e.lastSeen) >= b.ttl {
				delete(b.entries, k)
			}
		}
		b.lastSweep = now
	}

	e, ok := b.entries[key]
	if !ok {
		e = &bucket{limiter: rate.NewLimiter(b.limit.every(), b.limit.Burst)}
		b.entries[key] = e
	}
	e.lastSeen = now
	return e.limiter
}

var errRateLimited = authsdk.NewOAuth2Error(http.StatusTooManyRequests,
	"rate_limit_exceeded", "too many requests, retry later")

// RateLimitMiddleware rejects requests beyond limit with 429 and a
// Retry-After header.
func RateLimitMiddleware(limit RateLimit, key KeyFunc) Middleware {
	b := newBuckets(limit)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			k := key(r)
			if k == "" {
				next.ServeHTTP(w, r)
				return
			}

			now := time.Now()
			lim := b.get(k, now)
			res := lim.ReserveN(now, 1)
			delay := res.DelayFrom(now)
			if res.OK() && delay == 0 {
				next.ServeHTTP(w, r)
				return
			}
			res.CancelAt(now)
			retry := max(int(delay.Round(time.Second)/time.Second), 1)

			slogx.FromContext(r.Context()).Warn("rate limit exceeded",
				"key", k,
				"path", r.URL.Path,
				"retry_after", retry,
			)

			w.Header().Set("Retry-After", strconv.Itoa(retry))
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limit.Requests))
			w.Header().Set("X-RateLimit-Window", limit.Window.String())
			errRateLimited.WriteError(w)
		})
	}
}

// RateLimitByIP limits per client address.
func RateLimitByIP(limit RateLimit) Middleware {
	return RateLimitMiddleware(limit, ClientIP)
}

// RateLimitByUser limits per authenticated subject. It must sit behind
// AuthnMiddleware to see the principal.
func RateLimitByUser(limit RateLimit) Middleware {
	return RateLimitMiddleware(limit, PrincipalOrIP)
}
