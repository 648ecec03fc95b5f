package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/staysuite/guestgate/internal/access"
	"github.com/staysuite/guestgate/internal/ai"
	"github.com/staysuite/guestgate/internal/http/handlers"
	gatemw "github.com/staysuite/guestgate/internal/http/middleware"
	"github.com/staysuite/guestgate/internal/mailer"
	"github.com/staysuite/guestgate/internal/ratelimit"
	"github.com/staysuite/guestgate/internal/repo/postgres"
	"github.com/staysuite/guestgate/pkg/config"
	"github.com/staysuite/guestgate/pkg/database"
	"github.com/staysuite/guestgate/pkg/events"
	"github.com/staysuite/guestgate/pkg/kv"
	"github.com/staysuite/guestgate/pkg/logger"
	mw "github.com/staysuite/guestgate/pkg/middleware"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	ctx := context.Background()
	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := newRedisClient(cfg)
	if err != nil {
		logger.Error("Failed to configure redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	// Repositories
	tokenRepo := postgres.NewTokenRepo(pool)
	propertyRepo := postgres.NewPropertyRepo(pool)
	activityRepo := postgres.NewActivityRepo(pool)

	// Optional audit fan-out
	var bus events.Publisher
	if cfg.NATS.Enabled {
		natsBus, err := events.NewNATSEventBus(cfg.NATS.URL)
		if err != nil {
			logger.Error("Failed to connect to NATS", "error", err)
			os.Exit(1)
		}
		defer natsBus.Close()
		bus = natsBus

		if err := access.StartAlertLog(natsBus); err != nil {
			logger.Warn("Failed to start alert log", "error", err)
		}
	}
	auditor := access.NewAuditor(activityRepo, bus)

	// Rate limit counter backend
	var counter ratelimit.WindowCounter
	var pruner access.EventPruner
	if cfg.RateLimit.Backend == "redis" {
		counter = ratelimit.NewRedisCounter(redisClient, "rl")
	} else {
		pgCounter := ratelimit.NewPostgresCounter(pool)
		counter = pgCounter
		pruner = pgCounter
	}
	limiter := ratelimit.NewLimiter(counter, cfg.RateLimit)

	var mail mailer.Service
	if cfg.Email.DevMode || cfg.Email.MailerSendKey == "" {
		mail = mailer.NewDevMailer()
	} else {
		mail = mailer.NewMailer(cfg.Email.MailerSendKey, cfg.Email.FromName, cfg.Email.FromEmail)
	}

	var provider ai.Provider
	if cfg.AI.OpenAIKey == "" {
		provider = ai.NewDevProvider()
	} else {
		provider = ai.NewOpenAIProvider(cfg.AI.OpenAIKey, cfg.AI.ChatModel)
	}

	// Core services
	validator := access.NewValidator(tokenRepo, auditor, cfg.Gateway.LookupTimeout)
	issuer := access.NewIssuer(tokenRepo, propertyRepo, mail, cfg.Site.BaseURL)
	reaccess := access.NewReaccess(tokenRepo, propertyRepo,
		kv.NewRedisStore(redisClient, "guestgate"), mail, cfg.Site.BaseURL)
	gate := gatemw.NewGate(validator, auditor, cfg.Auth.JWTSecret, cfg.Gateway.FailOpen)

	janitor := access.NewJanitor(tokenRepo, pruner)
	if err := janitor.Start(); err != nil {
		logger.Error("Failed to start janitor", "error", err)
		os.Exit(1)
	}
	defer janitor.Stop()

	// Handlers
	tokenHandler := handlers.NewTokenHandler(issuer)
	guestHandler := handlers.NewGuestHandler(validator, limiter, auditor, provider, propertyRepo, reaccess)
	guideHandler := handlers.NewGuideHandler(propertyRepo)

	// Router
	r := chi.NewRouter()
	r.Use(mw.RequestID)
	r.Use(mw.ServiceName("guestgate"))
	r.Use(mw.Logging)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(mw.Health)
	r.Use(gate.Middleware())

	r.Get(gatemw.DeniedPath, handlers.Denied)
	r.Route("/api", func(r chi.Router) {
		r.Route("/tokens", func(r chi.Router) {
			r.Use(handlers.RequireOwner(cfg.Auth.JWTSecret))
			r.Mount("/", tokenHandler.Routes())
		})
		r.Mount("/guest", guestHandler.Routes())
	})
	r.Get("/{slug}", guideHandler.Serve)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down guestgate...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Shutdown error", "error", err)
		}
	}()

	logger.Info("Starting guestgate", "port", cfg.Server.Port, "rate_limit_backend", cfg.RateLimit.Backend)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
}

func newRedisClient(cfg *config.Config) (*redis.Client, error) {
	opt, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		return nil, err
	}
	if cfg.Redis.Password != "" {
		opt.Password = cfg.Redis.Password
	}
	if cfg.Redis.DB != 0 {
		opt.DB = cfg.Redis.DB
	}
	return redis.NewClient(opt), nil
}
