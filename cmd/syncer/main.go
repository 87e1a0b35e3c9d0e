package main

import (
	"context"
	"database/sql"
	"sync"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/joho/godotenv/autoload"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"reviewpilot/internal/adapters/google"
	"reviewpilot/internal/adapters/observability"
	redisad "reviewpilot/internal/adapters/redis"
	"reviewpilot/internal/app"
	"reviewpilot/internal/shared"
	mysqlrepo "reviewpilot/internal/storage/mysql"
)

func main() {
	ctx := context.Background()
	cfg := shared.Load()

	// initialize global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	log.Info().
		Int("workers", cfg.Workers).
		Msg("syncer starting")

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("db ping ok")

	repo := mysqlrepo.New(db)

	client, err := google.New(google.Config{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  cfg.GoogleRedirectURI,
		RPS:          cfg.GoogleRPS,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize Google client")
	}
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	biz := app.NewBusinessService(repo, client, cache)

	users, err := repo.ListConnectedUsers(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("listing connected users failed")
	}
	log.Info().Int("users", len(users)).Msg("users to sync")

	sem := semaphore.NewWeighted(int64(cfg.Workers))
	var wg sync.WaitGroup

	for _, u := range users {
		u := u

		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, int64(1)); err != nil {
			log.Fatal().Err(err).Msg("semaphore acquire failed")
		}

		wg.Add(1)
		go func(userID string) {
			defer wg.Done()
			defer sem.Release(int64(1))

			accounts, err := biz.ListAccounts(ctx, userID)
			if err != nil {
				log.Warn().Str("user", userID).Err(err).Msg("listing accounts failed")
				return
			}
			for _, acct := range accounts {
				if err := biz.SyncReviews(ctx, acct.ID, userID); err != nil {
					log.Warn().Str("user", userID).Str("account", acct.ID).Err(err).Msg("sync failed")
					continue
				}
				log.Info().Str("user", userID).Str("account", acct.ID).Msg("sync ok")
			}
		}(u.ID)
	}

	wg.Wait()
	log.Info().Msg("sync completed")
}
