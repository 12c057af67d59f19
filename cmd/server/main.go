// Package main is the entry point for the talentbridge API server.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"talentbridge/internal/config"
	"talentbridge/internal/identity"
	"talentbridge/internal/logger"
	"talentbridge/internal/mailer"
	"talentbridge/internal/notify"
	"talentbridge/internal/observability"
	"talentbridge/internal/payment"
	"talentbridge/internal/server"
	"talentbridge/internal/server/handlers"
	"talentbridge/internal/store/postgres"
	"talentbridge/internal/throttle"
)

func main() {
	migrateFlag := flag.Bool("migrate", false, "Run database migrations before starting")
	configPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	slogger := logger.New()

	ctx := context.Background()
	st, err := postgres.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer st.Close()

	if *migrateFlag {
		log.Println("Running database migrations...")
		if err := postgres.Migrate(st.DB()); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
		log.Println("Migrations completed successfully")
	}

	// Tracing
	shutdownTracer, err := observability.InitTracer(ctx, "talentbridge-server", cfg.OTELEndpoint)
	if err != nil {
		log.Fatalf("Failed to init tracing: %v", err)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			log.Printf("Failed to shutdown tracer: %v", err)
		}
	}()

	// Metrics
	metricsHandler, shutdownMetrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatalf("Failed to init metrics: %v", err)
	}
	defer func() {
		if err := shutdownMetrics(context.Background()); err != nil {
			log.Printf("Failed to shutdown metrics: %v", err)
		}
	}()

	// Payment gateway
	var secrets payment.SecretSource
	if cfg.GatewaySecretFile != "" {
		secrets = payment.FileSecret(cfg.GatewaySecretFile)
	} else {
		secrets = payment.StaticSecret(cfg.GatewaySecret)
	}
	gateway := payment.NewClient(cfg.GatewayBaseURL, secrets)

	// Email delivery is optional; without it, payment confirmations are
	// simply not sent.
	var mail mailer.Sender = mailer.Noop{}
	if cfg.MailBaseURL != "" {
		mail = mailer.New(cfg.MailBaseURL, cfg.MailAPIKey, cfg.MailFrom)
	}

	notifier := notify.NewSink(st, slogger)
	payments := throttle.New(st, slogger, throttle.NamespacePayment, cfg.PaymentMaxAttempts, cfg.PaymentLockout)
	logins := throttle.New(st, slogger, throttle.NamespaceLogin, cfg.LoginMaxAttempts, cfg.LoginLockout)
	verifier := identity.NewClient(cfg.IdentityBaseURL, st)

	h := handlers.New(st, gateway, mail, notifier, payments, logins, verifier, slogger, handlers.Config{
		AdminEmail: cfg.AdminEmail,
		Currency:   cfg.Currency,
		JWTSecret:  cfg.JWTSecret,
	})

	addr := fmt.Sprintf(":%d", cfg.HTTPPort)
	srv := server.New(addr, h, server.Options{
		JWTSecret:      cfg.JWTSecret,
		RateLimit:      cfg.RateLimit,
		RateLimitBurst: cfg.RateLimitBurst,
	}, metricsHandler)

	go func() {
		log.Printf("TalentBridge server starting on %s", addr)
		if err := srv.Run(ctx); err != nil {
			log.Printf("Server stopped: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}
	log.Println("Server exited properly")
}
