package handlers

import (
	"net/http"

	"github.com/Varun5711/bookshelf/internal/metrics"
	"github.com/Varun5711/bookshelf/internal/middleware"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

type RouterConfig struct {
	GraphQL      http.Handler
	Auth         *middleware.AuthMiddleware
	RateLimiter  *middleware.RateLimiter
	Health       *HealthHandler
	Metrics      *metrics.Metrics
	Gatherer     prometheus.Gatherer
	MaxBodyBytes int64
	Log          *logrus.Entry
}

// NewRouter wires the HTTP surface. Middleware order: recovery, request logging, metrics,
// then on /graphql only the rate limiter and the authentication gate.
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()
	r.Use(middleware.Recovery(cfg.Log))
	r.Use(middleware.RequestLogger(cfg.Log))
	r.Use(cfg.Metrics.Middleware)

	var gql http.Handler = cfg.GraphQL
	gql = cfg.Auth.Authenticate(gql)
	if cfg.RateLimiter != nil {
		gql = cfg.RateLimiter.Middleware(gql)
	}
	if cfg.MaxBodyBytes > 0 {
		gql = limitBody(gql, cfg.MaxBodyBytes)
	}
	r.Handle("/graphql", gql).Methods(http.MethodPost)

	if cfg.Health != nil {
		r.Handle("/health", cfg.Health).Methods(http.MethodGet)
	}
	if cfg.Gatherer != nil {
		r.Handle("/metrics", metrics.Handler(cfg.Gatherer)).Methods(http.MethodGet)
	}

	return r
}

func limitBody(next http.Handler, n int64) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, n)
		next.ServeHTTP(w, r)
	})
}
