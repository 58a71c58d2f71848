package http

import (
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"

	"video-quiz-service/internal/auth"
	"video-quiz-service/internal/logger"
	"video-quiz-service/internal/metrics"
)

// accessLog writes one zap line per request and feeds the request metrics, labelled by
// route pattern so ids do not explode cardinality.
func accessLog(log *logger.Logger, m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			route := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}
			took := time.Since(start)
			m.ObserveRequest(r.Method, route, status, took)
			log.Info("http request",
				"method", r.Method,
				"route", route,
				"status", status,
				"duration_ms", took.Milliseconds(),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// callerLimiter applies a token bucket per caller (or per client address when anonymous).
type callerLimiter struct {
	mu        sync.Mutex
	visitors  map[string]*visitor
	every     rate.Limit
	burst     int
	idle      time.Duration
	lastSweep time.Time
}

func newCallerLimiter(maxRequests int, window time.Duration) *callerLimiter {
	if maxRequests <= 0 {
		return nil
	}
	idle := window * 3
	if idle < time.Minute {
		idle = time.Minute
	}
	return &callerLimiter{
		visitors:  make(map[string]*visitor),
		every:     rate.Every(window / time.Duration(maxRequests)),
		burst:     maxRequests,
		idle:      idle,
		lastSweep: time.Now(),
	}
}

func (l *callerLimiter) allow(key string) bool {
	now := time.Now()
	l.mu.Lock()
	if now.Sub(l.lastSweep) > l.idle {
		for k, v := range l.visitors {
			if now.Sub(v.lastSeen) > l.idle {
				delete(l.visitors, k)
			}
		}
		l.lastSweep = now
	}
	v, ok := l.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.every, l.burst)}
		l.visitors[key] = v
	}
	v.lastSeen = now
	l.mu.Unlock()
	return v.limiter.Allow()
}

// middleware is a no-op on a nil limiter so rate limiting can be switched off in config.
func (l *callerLimiter) middleware(next http.Handler) http.Handler {
	if l == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := auth.CallerFrom(r.Context())
		if key == "" {
			key = "addr:" + r.RemoteAddr
		}
		if !l.allow(key) {
			writeJSON(w, http.StatusTooManyRequests, errorBody{Error: errorPayload{Code: "rate_limited", Message: "too many requests"}})
			return
		}
		next.ServeHTTP(w, r)
	})
}
