package service

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/mmynk/classroll/internal/enrollment"
	"github.com/mmynk/classroll/internal/metrics"
	"github.com/mmynk/classroll/internal/middleware"
)

// RouterOptions configures the HTTP surface around the services.
type RouterOptions struct {
	// Metrics enables request instrumentation and the /metrics endpoint.
	Metrics *metrics.Metrics

	// RateLimit is the sustained requests per second accepted by the API
	// routes; zero disables limiting. RateBurst is the bucket size.
	RateLimit float64
	RateBurst int

	// AllowedOrigins lists CORS origins; empty means "*".
	AllowedOrigins []string
}

// NewRouter mounts every service on a chi router.
func NewRouter(enroll *enrollment.Service, store Pinger, opts RouterOptions) http.Handler {
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", middleware.RequestIDHeader},
		ExposedHeaders: []string{middleware.RequestIDHeader},
		MaxAge:         300,
	}))
	if opts.Metrics != nil {
		r.Use(middleware.Instrument(opts.Metrics))
		r.Method(http.MethodGet, "/metrics", opts.Metrics.Handler())
	}

	r.Get("/health", NewHealthService(store).Serve)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimit(opts.RateLimit, opts.RateBurst))
		r.Mount("/members", NewMemberService(enroll).Routes())
		r.Mount("/groups", NewGroupService(enroll).Routes())
		r.Mount("/enrollments", NewEnrollmentService(enroll).Routes())
	})

	return r
}
