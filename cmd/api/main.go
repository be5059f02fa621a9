package main

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	"restate_api/internal/adapters/appwrite"
	server "restate_api/internal/adapters/http_server"
	"restate_api/internal/adapters/observability"
	redisad "restate_api/internal/adapters/redis"
	"restate_api/internal/app"
	"restate_api/internal/domain"
	"restate_api/internal/fetch"
	"restate_api/internal/shared"
	mysqlstore "restate_api/internal/storage/mysql"
)

func main() {
	ctx := context.Background()
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	observability.Serve()

	store, identity := buildBackend(cfg)

	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	if err := cache.Ping(ctx); err != nil {
		log.Warn().Err(err).Msg("redis unreachable, cache reads will miss")
	}

	q := app.NewPropertyService(store, cfg.Collections, cache, cfg.CacheTTL)

	// keep the featured rail warm; the handler serves its snapshot
	featured := fetch.New(ctx, fetch.Options[int, []domain.Property]{
		Fn:     q.Featured,
		Params: 5,
	})
	go func() {
		t := time.NewTicker(cfg.CacheTTL)
		defer t.Stop()
		for range t.C {
			go featured.Refetch(ctx)
		}
	}()

	srv := server.New()
	reg := observability.InitRegistry()
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{Q: q, Identity: identity, Featured: featured})

	log.Info().Str("addr", cfg.HTTPAddr).Str("backend", cfg.Backend).Msg("API listening")
	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux()}

	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("http server failed")
	}
}

// buildBackend wires the configured document store and, when an Appwrite
// project is configured, the hosted identity provider.
func buildBackend(cfg shared.Config) (domain.DocumentStore, domain.Identity) {
	var (
		store    domain.DocumentStore
		identity domain.Identity
	)

	if cfg.AppwriteProject != "" {
		client, err := appwrite.New(cfg.AppwriteEndpoint, cfg.AppwriteProject, cfg.AppwriteKey, 10)
		if err != nil {
			log.Fatal().Err(err).Msg("appwrite client init failed")
		}
		identity = client.Account()
		if cfg.Backend == "appwrite" {
			store = client.Database(cfg.DatabaseID)
		}
	}

	if cfg.Backend == "mysql" {
		db, err := sql.Open("mysql", cfg.MySQLDSN)
		if err != nil {
			log.Fatal().Err(err).Msg("sql.Open failed")
		}
		if err := db.Ping(); err != nil {
			log.Fatal().Err(err).Msg("db.Ping failed")
		}
		log.Info().Msg("database connection ok")
		store = mysqlstore.New(db)
	}

	return store, identity
}
