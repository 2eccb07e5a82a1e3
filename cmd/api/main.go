package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/infinito/infinito-api/internal/config"
	"github.com/infinito/infinito-api/internal/domain/admin"
	"github.com/infinito/infinito-api/internal/domain/auth"
	"github.com/infinito/infinito-api/internal/domain/credential"
	"github.com/infinito/infinito-api/internal/domain/credit"
	"github.com/infinito/infinito-api/internal/domain/ledger"
	"github.com/infinito/infinito-api/internal/domain/payment"
	"github.com/infinito/infinito-api/internal/domain/transaction"
	"github.com/infinito/infinito-api/internal/domain/user"
	"github.com/infinito/infinito-api/internal/middleware"
	"github.com/infinito/infinito-api/internal/pkg/database"
	"github.com/infinito/infinito-api/internal/pkg/jwt"
	"github.com/infinito/infinito-api/internal/pkg/logger"
	pkgresponse "github.com/infinito/infinito-api/internal/pkg/response"
	"github.com/infinito/infinito-api/internal/pkg/secretbox"
)

const version = "1.0.0"

func main() {
	cfg := config.Load()
	setupLogger(cfg)

	log.Info().
		Str("env", cfg.Env).
		Str("port", cfg.Port).
		Msg("Starting Infinito API")

	ctx := context.Background()

	db, err := database.NewPostgres(ctx, cfg.DatabaseURL, database.DefaultPoolConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer database.ClosePostgres(db)

	if err := database.RunMigrations(db.DB); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	redisClient, err := database.NewRedis(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer database.CloseRedis(redisClient)

	box, err := secretbox.New(cfg.CredentialEncryptionKey)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid credential encryption key")
	}
	if cfg.CredentialEncryptionKey == nil {
		log.Warn().Msg("CREDENTIAL_ENCRYPTION_KEY not set, credential storage disabled")
	}
	if cfg.PaymentWebhookSecret == "" {
		log.Warn().Msg("PAYMENT_WEBHOOK_SECRET not set, payment webhook disabled")
	}

	// ---------- Repositories ----------
	userRepo := user.NewRepository(db)
	ledgerRepo := ledger.NewRepository(db)
	credentialRepo := credential.NewRepository(db)

	// ---------- Services ----------
	jwtService := jwt.NewService(cfg.AuthJWTSecret, cfg.AuthJWTIssuer)
	gate := auth.NewGate(jwtService, userRepo)
	creditService := credit.NewService(ledgerRepo)
	transactionService := transaction.NewService(ledgerRepo, cfg.TransactionsMaxLimit)
	credentialService := credential.NewService(credentialRepo, box)
	resolver := credential.NewResolver(box, credential.DefaultStrategies(credentialRepo)...)
	adminService := admin.NewService(userRepo, creditService)
	paymentService := payment.NewService(creditService, cfg.PaymentWebhookSecret)

	// A nil *redis.Client must not become a non-nil Cmdable.
	var limiterClient redis.Cmdable
	if redisClient != nil {
		limiterClient = redisClient
	}

	r := newRouter(cfg, routes{
		gate:          gate,
		creditLimiter: middleware.NewRateLimiter(limiterClient, "credits_check", cfg.CreditCheckRateLimit, time.Minute),
		health:        db.PingContext,
		auth:          auth.NewHandler(),
		credit:        credit.NewHandler(creditService),
		transaction:   transaction.NewHandler(transactionService),
		credential:    credential.NewHandler(credentialService, resolver),
		admin:         admin.NewHandler(adminService),
		payment:       payment.NewHandler(paymentService),
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
		return
	}

	log.Info().Msg("Server exited properly")
}

// routes groups what newRouter mounts.
type routes struct {
	gate          middleware.Authenticator
	creditLimiter *middleware.RateLimiter
	health        func(ctx context.Context) error

	auth        *auth.Handler
	credit      *credit.Handler
	transaction *transaction.Handler
	credential  *credential.Handler
	admin       *admin.Handler
	payment     *payment.Handler
}

func newRouter(cfg *config.Config, rt routes) chi.Router {
	authMiddleware := middleware.Auth(rt.gate)

	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recover)
	r.Use(middleware.CORSHandler(cfg.AllowedOrigins))
	r.Use(chimw.Timeout(cfg.RequestTimeout))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if rt.health != nil {
			if err := rt.health(r.Context()); err != nil {
				log.Warn().Err(err).Msg("health check failed")
				pkgresponse.Error(w, http.StatusServiceUnavailable, "UNHEALTHY", "Database unreachable")
				return
			}
		}
		pkgresponse.OK(w, map[string]string{
			"status":  "ok",
			"version": version,
		})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Mount("/auth", rt.auth.Routes(authMiddleware))
		r.Mount("/credits", rt.credit.Routes(authMiddleware, rt.creditLimiter.Handler))
		r.Mount("/transactions", rt.transaction.Routes(authMiddleware))
		r.Mount("/credentials", rt.credential.Routes(authMiddleware))
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Use(middleware.RequireAdmin())
		r.Mount("/users", rt.admin.Routes())
		r.Mount("/credentials", rt.credential.AdminRoutes())
	})

	r.Mount("/webhooks", rt.payment.WebhookRoutes())

	return r
}

func setupLogger(cfg *config.Config) {
	logger.Init(logger.Config{
		Level:       cfg.LogLevel,
		Environment: cfg.Env,
	})
}
