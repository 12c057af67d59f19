// Package server assembles the HTTP API: routes, middleware, and the
// lifecycle of the underlying http.Server.
package server

import (
	"context"
	"net/http"
	"time"

	"talentbridge/internal/server/handlers"
	"talentbridge/internal/server/middleware"
)

// Options carries the transport-level knobs the server needs.
type Options struct {
	JWTSecret      string
	RateLimit      float64
	RateLimitBurst int
}

// Server is the HTTP server for the marketplace API.
type Server struct {
	httpServer *http.Server
}

// New creates a new API server. metricsHandler serves the Prometheus
// scrape endpoint and may be nil when metrics are disabled.
func New(addr string, h *handlers.Handlers, opts Options, metricsHandler http.Handler) *Server {
	authMW := middleware.AuthMiddleware(opts.JWTSecret)
	rateMW := middleware.RateLimitMiddleware(opts.RateLimit, opts.RateLimitBurst)

	authed := func(fn http.HandlerFunc) http.Handler {
		return authMW(rateMW(fn))
	}

	mux := http.NewServeMux()

	// Unauthenticated surface
	mux.HandleFunc("POST /auth/login", h.Login)
	mux.HandleFunc("GET /healthz", h.Health)
	if metricsHandler != nil {
		mux.Handle("GET /metrics", metricsHandler)
	}

	// Jobs
	mux.Handle("POST /jobs", authed(h.CreateJob))
	mux.Handle("GET /jobs", authed(h.ListJobs))
	mux.Handle("GET /jobs/{id}", authed(h.GetJob))
	mux.Handle("PUT /jobs/{id}", authed(h.UpdateJob))

	// Applications
	mux.Handle("POST /jobs/{id}/applications", authed(h.Apply))
	mux.Handle("GET /applications", authed(h.ListApplications))
	mux.Handle("PUT /applications/{id}/status", authed(h.UpdateApplicationStatus))

	// Contracts and payments
	mux.Handle("POST /contracts", authed(h.ProposeContract))
	mux.Handle("GET /contracts", authed(h.ListContracts))
	mux.Handle("GET /admin/contracts", authed(h.ListAllContracts))
	mux.Handle("GET /contracts/{id}", authed(h.GetContract))
	mux.Handle("PUT /contracts/{id}/approve", authed(h.ApproveContract))
	mux.Handle("POST /contracts/{id}/payment", authed(h.ProcessPayment))
	mux.Handle("POST /contracts/{id}/refund", authed(h.ProcessRefund))

	// Scouts
	mux.Handle("POST /scouts", authed(h.CreateScout))
	mux.Handle("GET /scouts", authed(h.ListScouts))
	mux.Handle("PUT /scouts/{id}/status", authed(h.UpdateScoutStatus))

	// Conversations
	mux.Handle("POST /conversations", authed(h.StartConversation))
	mux.Handle("GET /conversations", authed(h.ListConversations))
	mux.Handle("POST /conversations/{id}/messages", authed(h.SendMessage))
	mux.Handle("GET /conversations/{id}/messages", authed(h.ListMessages))

	// Notifications
	mux.Handle("GET /notifications", authed(h.ListNotifications))
	mux.Handle("PUT /notifications/{id}/read", authed(h.MarkNotificationRead))

	handler := middleware.CORSMiddleware(middleware.RequestIDMiddleware(mux))

	return &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      handler,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
	}
}

// Run starts the HTTP server. It blocks until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
		shutDownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		return s.Shutdown(shutDownCtx)
	}
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
