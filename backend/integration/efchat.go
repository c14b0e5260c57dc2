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

// Package integration wires the messaging service together so it can run
// standalone or be mounted into an existing efchat router.
package integration

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/efchatnet/efmsg/backend/delivery"
	"github.com/efchatnet/efmsg/backend/handlers"
	"github.com/efchatnet/efmsg/backend/hub"
	"github.com/efchatnet/efmsg/backend/middleware"
	"github.com/efchatnet/efmsg/backend/presence"
	"github.com/efchatnet/efmsg/backend/session"
	"github.com/efchatnet/efmsg/backend/storage"
	redisstore "github.com/efchatnet/efmsg/backend/storage/redis"
)

// DMIntegration provides direct messaging as a plugin for efchat
type DMIntegration struct {
	store          storage.Store
	registry       *presence.Registry
	hub            *hub.Hub
	controller     *session.Controller
	engine         *delivery.Engine
	wsHandler      *hub.Handler
	messageHandler *handlers.MessageHandler
	userHandler    *handlers.UserHandler
	jwtSecret      string
	jwtIssuer      string
	log            zerolog.Logger
}

// Config holds configuration for the DM integration
type Config struct {
	Store            storage.Store
	Redis            *redis.Client // optional
	JWTSecret        string
	JWTIssuer        string
	MaxMessageLength int
	Socket           hub.Config
	Logger           zerolog.Logger
}

// NewDMIntegration creates a DM integration that can be embedded into efchat.
// Without Redis, last activity is kept on the user row and notifications
// stay in process.
func NewDMIntegration(config *Config) (*DMIntegration, error) {
	if config.Store == nil {
		return nil, &ValidationError{Message: "no message store configured"}
	}
	log := config.Logger
	registry := presence.NewRegistry()
	h := hub.New(log)

	var activity storage.ActivityTracker = storage.NewUserActivity(config.Store)
	opts := []delivery.Option{delivery.WithMaxMessageLength(config.MaxMessageLength)}
	if config.Redis != nil {
		redisActivity := redisstore.NewActivityStore(config.Redis)
		activity = redisActivity
		opts = append(opts, delivery.WithNotifier(redisActivity))
	}
	opts = append(opts, delivery.WithActivity(activity))

	controller := session.NewController(config.Store, registry, h, activity, log)
	engine := delivery.NewEngine(config.Store, registry, h, log, opts...)

	return &DMIntegration{
		store:          config.Store,
		registry:       registry,
		hub:            h,
		controller:     controller,
		engine:         engine,
		wsHandler:      hub.NewHandler(h, controller, engine, config.Socket, log),
		messageHandler: handlers.NewMessageHandler(config.Store, log),
		userHandler:    handlers.NewUserHandler(config.Store, registry, activity, log),
		jwtSecret:      config.JWTSecret,
		jwtIssuer:      config.JWTIssuer,
		log:            log,
	}, nil
}

// RegisterRoutes adds DM routes to an existing router.
// If authMiddleware is nil, it will use the built-in JWT validation
func (e *DMIntegration) RegisterRoutes(router *mux.Router, authMiddleware func(http.Handler) http.Handler) {
	api := router.PathPrefix("/api/dm").Subrouter()

	if authMiddleware != nil {
		api.Use(authMiddleware)
	} else {
		api.Use(middleware.NewAuthMiddleware(e.jwtSecret, e.jwtIssuer))
	}

	api.Handle("/ws", e.wsHandler).Methods("GET")

	api.HandleFunc("/messages", e.messageHandler.ListMessages).Methods("GET", "OPTIONS")
	api.HandleFunc("/messages/{id}", e.messageHandler.GetMessage).Methods("GET", "OPTIONS")
	api.HandleFunc("/messages/{id}", e.messageHandler.DeleteMessage).Methods("DELETE", "OPTIONS")
	api.HandleFunc("/thread/{username}", e.messageHandler.GetThread).Methods("GET", "OPTIONS")

	api.HandleFunc("/users/me", e.userHandler.UpdateMe).Methods("PUT", "OPTIONS")
	api.HandleFunc("/users/{username}/presence", e.userHandler.GetPresence).Methods("GET", "OPTIONS")
	api.HandleFunc("/online", e.userHandler.Online).Methods("GET", "OPTIONS")
}

// RegisterOperational adds the unauthenticated /health and /metrics routes.
func (e *DMIntegration) RegisterOperational(router *mux.Router) {
	router.HandleFunc("/health", e.Health).Methods("GET")
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")
}

// Health reports whether the message store is reachable.
func (e *DMIntegration) Health(w http.ResponseWriter, r *http.Request) {
	if err := e.store.Ping(r.Context()); err != nil {
		e.log.Warn().Err(err).Msg("health check failed")
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("Database unavailable"))
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// ValidateSetup checks if the DM module is properly configured
func (e *DMIntegration) ValidateSetup(ctx context.Context) error {
	if err := e.store.Ping(ctx); err != nil {
		return err
	}
	if e.jwtSecret == "" {
		return &ValidationError{Message: "JWT secret is not configured"}
	}
	return nil
}

// ValidationError represents a configuration validation error
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Registry returns the live presence registry.
func (e *DMIntegration) Registry() *presence.Registry {
	return e.registry
}

// Engine returns the delivery engine for callers that send on behalf of
// users, such as a bridge.
func (e *DMIntegration) Engine() *delivery.Engine {
	return e.engine
}

// OpenConnections returns the number of open sockets.
func (e *DMIntegration) OpenConnections() int {
	return e.hub.ConnectionCount()
}
