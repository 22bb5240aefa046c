package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"content-payment-service/internal/usecase"
)

const maxBodyBytes = 1 << 20

// IntentLimiter throttles payment intent creation per user.
type IntentLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

type Options struct {
	RequestTimeout time.Duration
	RateLimit      int // per IP per minute; 0 disables
	IntentsPerHour int // per user; 0 disables
	Limiter        IntentLimiter
	Auth           *ServiceAuth

	// Checks back /health; a failing check turns it into a 503.
	Checks map[string]func(ctx context.Context) error
}

// Server exposes the content payment endpoints over HTTP.
type Server struct {
	uc   usecase.ContentPaymentUseCase
	opts Options
	log  *zerolog.Logger
}

func NewServer(uc usecase.ContentPaymentUseCase, opts Options, logger *zerolog.Logger) *Server {
	if logger == nil {
		l := zerolog.Nop()
		logger = &l
	}
	return &Server{uc: uc, opts: opts, log: logger}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(TraceID())
	r.Use(RequestLog(s.log))
	r.Use(Recover(s.log))

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/content", func(r chi.Router) {
		r.Use(middleware.RequestSize(maxBodyBytes))
		r.Use(Timeout(s.opts.RequestTimeout))
		if s.opts.RateLimit > 0 {
			r.Use(httprate.LimitByIP(s.opts.RateLimit, time.Minute))
		}

		r.Post("/create-payment-intent", s.handleCreatePaymentIntent)
		r.Post("/verify-and-create-job", s.handleVerifyAndCreateJob)
		r.With(s.opts.Auth.Require(RoleWorker, RoleOperator)).
			Post("/refund-failed-job", s.handleRefundFailedJob)
		r.Get("/jobs/{jobID}", s.handleGetJob)
	})
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	for name, check := range s.opts.Checks {
		if err := check(ctx); err != nil {
			s.log.Warn().Err(err).Str("check", name).Msg("health check failed")
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(name + " unavailable"))
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}
