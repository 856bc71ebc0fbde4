// api/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"eventstream/api/config"
	"eventstream/api/database"
	"eventstream/api/handlers"
	"eventstream/api/logging"
	"eventstream/api/store"
	"eventstream/api/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("loading configuration")
	}

	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	if cfg.ReleaseMode() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()

	// PostgreSQL holds dashboard users.
	dbClient, err := database.NewPostgresDB(ctx, cfg.DatabaseURL)
	if err != nil {
		logging.Fatal().Err(err).Msg("initializing PostgreSQL")
	}
	defer dbClient.Close()

	// ClickHouse holds tracked events.
	chClient, err := database.NewClickHouseDB(ctx, cfg.ClickHouse)
	if err != nil {
		logging.Fatal().Err(err).Msg("initializing ClickHouse")
	}
	defer chClient.Close()

	if err := dbClient.EnsureSchema(ctx); err != nil {
		logging.Fatal().Err(err).Msg("preparing PostgreSQL schema")
	}
	if err := chClient.EnsureSchema(ctx); err != nil {
		logging.Fatal().Err(err).Msg("preparing ClickHouse schema")
	}

	jwtManager := utils.NewJWTManager(cfg.JWTSecret)

	r := newRouter(cfg, routerDeps{
		auth:      handlers.NewAuthHandlers(store.NewUserStore(dbClient.DB), jwtManager, cfg.ReleaseMode()),
		analytics: handlers.NewAnalyticsHandlers(store.NewAnalyticsStore(chClient), cfg.RecentEventsLimit, cfg.MaxRecentEventsLimit),
		tokens:    jwtManager,
		health: map[string]handlers.Pinger{
			"postgres":   dbClient,
			"clickhouse": chClient,
		},
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logging.Info().Str("addr", srv.Addr).Msg("event stream API listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logging.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("server forced to shutdown")
	}

	logging.Info().Msg("server exiting")
}
