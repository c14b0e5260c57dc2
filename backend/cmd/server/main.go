// Copyright (C) 2025 efchat.net <tj@efchat.net>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/efchatnet/efmsg/backend/config"
	"github.com/efchatnet/efmsg/backend/hub"
	"github.com/efchatnet/efmsg/backend/integration"
	"github.com/efchatnet/efmsg/backend/logging"
	"github.com/efchatnet/efmsg/backend/middleware"
	"github.com/efchatnet/efmsg/backend/storage"
	"github.com/efchatnet/efmsg/backend/storage/memory"
	"github.com/efchatnet/efmsg/backend/storage/postgres"
	redisstore "github.com/efchatnet/efmsg/backend/storage/redis"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "efmsg: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	// No socket survives a restart.
	if err := store.ResetConnections(ctx); err != nil {
		return fmt.Errorf("reset connections: %w", err)
	}

	var rdb *redis.Client
	if cfg.RedisURL != "" {
		if rdb, err = redisstore.Connect(ctx, cfg.RedisURL); err != nil {
			return err
		}
		defer rdb.Close()
		logger.Info().Msg("connected to Redis")
	}

	dm, err := integration.NewDMIntegration(&integration.Config{
		Store:            store,
		Redis:            rdb,
		JWTSecret:        cfg.JWTSecret,
		JWTIssuer:        cfg.JWTIssuer,
		MaxMessageLength: cfg.MaxMessageLength,
		Socket: hub.Config{
			WriteTimeout:      cfg.WriteTimeout,
			PingInterval:      cfg.PingInterval,
			SendRatePerSecond: cfg.SendRatePerSecond,
			SendBurst:         cfg.SendBurst,
			AllowedOrigins:    cfg.Origins(),
		},
		Logger: logger,
	})
	if err != nil {
		return err
	}

	r := mux.NewRouter()
	r.Use(middleware.Logger(logging.Component(logger, "http")))
	r.Use(middleware.CORS(cfg.Origins()))
	dm.RegisterOperational(r)
	dm.RegisterRoutes(r, nil)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().
			Str("port", cfg.Port).
			Str("storage", cfg.StorageDriver).
			Str("jwt_issuer", cfg.JWTIssuer).
			Msg("DM server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info().Msg("server stopped")
	return nil
}

func openStore(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (storage.Store, error) {
	switch cfg.StorageDriver {
	case config.DriverMemory:
		logger.Warn().Msg("using in-memory storage; messages are lost on restart")
		return memory.NewStore(), nil
	default:
		store, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := store.Migrate(ctx); err != nil {
			store.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		logger.Info().Msg("connected to PostgreSQL")
		return store, nil
	}
}
