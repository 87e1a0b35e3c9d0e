package main

import (
	"database/sql"
	"net/http"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/joho/godotenv/autoload"
	"github.com/rs/zerolog/log"

	"reviewpilot/internal/adapters/gemini"
	"reviewpilot/internal/adapters/google"
	server "reviewpilot/internal/adapters/http_server"
	"reviewpilot/internal/adapters/observability"
	redisad "reviewpilot/internal/adapters/redis"
	"reviewpilot/internal/adapters/stripebilling"
	"reviewpilot/internal/app"
	"reviewpilot/internal/auth"
	"reviewpilot/internal/shared"
	mysqlrepo "reviewpilot/internal/storage/mysql"
)

func main() {
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	observability.Serve()

	// db
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("database connection ok")

	// deps
	repo := mysqlrepo.New(db)
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)

	googleClient, err := google.New(google.Config{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  cfg.GoogleRedirectURI,
		RPS:          cfg.GoogleRPS,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize Google client")
	}
	oracle, err := gemini.New(cfg.GeminiBase, cfg.GeminiModel, cfg.GeminiKey, 5)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize Gemini client")
	}
	billing, err := stripebilling.New(stripebilling.Config{
		SecretKey:     cfg.StripeSecretKey,
		WebhookSecret: cfg.StripeWebhookSecret,
		FrontendURL:   cfg.FrontendURL,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize Stripe client")
	}

	tokens := auth.NewManager(cfg.JWTSecret)

	h := &server.Handlers{
		Auth:     app.NewAuthService(repo, googleClient, tokens),
		Business: app.NewBusinessService(repo, googleClient, cache),
		Reviews:  app.NewReviewService(repo, cache, cfg.CacheTTL),
		Analysis: app.NewAnalysisService(repo, oracle, cache),
		Billing:  app.NewBillingService(repo, billing, cache, cfg.CacheTTL),
		Tokens:   tokens,
	}

	// http
	srv := server.New()
	reg := observability.InitRegistry()
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(h)

	log.Info().Str("addr", cfg.HTTPAddr).Msg("API listening")
	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux()}

	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("http server failed")
	}
}
