package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"video-quiz-service/internal/app"
	"video-quiz-service/internal/auth"
	"video-quiz-service/internal/logger"
	"video-quiz-service/internal/metrics"
)

// RouterConfig carries everything the HTTP surface needs.
type RouterConfig struct {
	Service       *app.AssessmentService
	Authenticator auth.Authenticator
	Logger        *logger.Logger
	Metrics       *metrics.Metrics
	// CORSOrigins defaults to allowing any origin when empty.
	CORSOrigins []string
	// CreateLimit caps assessment creations per caller per CreateWindow; zero disables it.
	CreateLimit  int
	CreateWindow time.Duration
}

// NewRouter wires the REST, WebSocket, health and metrics endpoints.
func NewRouter(cfg RouterConfig) http.Handler {
	log := cfg.Logger
	if log == nil {
		log = logger.Nop()
	}
	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	window := cfg.CreateWindow
	if window <= 0 {
		window = time.Minute
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	r.Use(accessLog(log, cfg.Metrics))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		ExposedHeaders: []string{"Content-Length"},
		MaxAge:         300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", cfg.Metrics.Handler())

	handler := NewAssessmentHandler(cfg.Service)
	ws := NewWSHandler(cfg.Service, log)
	limiter := newCallerLimiter(cfg.CreateLimit, window)

	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(cfg.Authenticator, log, writeError))
		r.Get("/ws", ws.ServeWS)
		r.Route("/api/assessments", func(r chi.Router) {
			r.Get("/", handler.List)
			r.With(limiter.middleware).Post("/", handler.Create)
			r.Route("/{assessmentID}", func(r chi.Router) {
				r.Get("/", handler.Get)
				r.Post("/submit", handler.Submit)
			})
		})
	})
	return r
}
