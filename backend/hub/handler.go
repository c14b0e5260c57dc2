// Copyright (C) 2025 efchat.net <tj@efchat.net>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package hub

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"golang.org/x/time/rate"

	"github.com/efchatnet/efmsg/backend/delivery"
	"github.com/efchatnet/efmsg/backend/events"
	"github.com/efchatnet/efmsg/backend/metrics"
	"github.com/efchatnet/efmsg/backend/middleware"
	"github.com/efchatnet/efmsg/backend/models"
	"github.com/efchatnet/efmsg/backend/session"
	"github.com/efchatnet/efmsg/backend/storage"
)

const maxFrameSize = 16 * 1024

type Config struct {
	WriteTimeout      time.Duration
	PingInterval      time.Duration
	SendRatePerSecond int
	SendBurst         int
	SendBuffer        int
	AllowedOrigins    []string
}

func (c Config) withDefaults() Config {
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 10 * time.Second
	}
	if c.PingInterval <= 0 {
		c.PingInterval = 30 * time.Second
	}
	if c.SendRatePerSecond <= 0 {
		c.SendRatePerSecond = 5
	}
	if c.SendBurst <= 0 {
		c.SendBurst = 10
	}
	return c
}

// Handler upgrades GET /api/dm/ws?user={peer} and runs one session per socket.
type Handler struct {
	hub        *Hub
	controller *session.Controller
	engine     *delivery.Engine
	upgrader   websocket.Upgrader
	cfg        Config
	log        zerolog.Logger
}

func NewHandler(h *Hub, controller *session.Controller, engine *delivery.Engine, cfg Config, log zerolog.Logger) *Handler {
	cfg = cfg.withDefaults()
	return &Handler{
		hub:        h,
		controller: controller,
		engine:     engine,
		cfg:        cfg,
		log:        log.With().Str("component", "ws").Logger(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || len(cfg.AllowedOrigins) == 0 || lo.Contains(cfg.AllowedOrigins, origin)
			},
		},
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	username := middleware.GetUsername(r)
	if username == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	peer := models.NormalizeUsername(r.URL.Query().Get("user"))
	if peer == "" {
		http.Error(w, "user parameter is required", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// the upgrader already replied
		h.log.Debug().Err(err).Msg("upgrade failed")
		return
	}

	limiter := rate.NewLimiter(rate.Limit(h.cfg.SendRatePerSecond), h.cfg.SendBurst)
	c := newClient(uuid.NewString(), username, conn, limiter, h.cfg.SendBuffer)
	h.hub.register(c)
	metrics.OpenConnections.Inc()

	go h.writePump(c)
	h.readPump(r.Context(), c, peer)
}

// readPump runs the session: connect, then one inbound frame at a time
// until the socket closes, then disconnect.
func (h *Handler) readPump(ctx context.Context, c *client, peer string) {
	sess := session.New(c.id, c.username, peer)
	log := h.log.With().Str("connection_id", c.id).Str("username", c.username).Logger()

	defer func() {
		if rec := recover(); rec != nil {
			log.Error().Interface("panic", rec).Msg("connection handler panicked")
		}
		// the request context is gone once the client has left
		if err := h.controller.Disconnect(context.WithoutCancel(ctx), sess); err != nil {
			log.Warn().Err(err).Msg("disconnect")
		}
		h.hub.unregister(c)
		metrics.OpenConnections.Dec()
	}()

	if err := h.controller.Connect(ctx, sess); err != nil {
		h.sendError(c, "Connect", err)
		return
	}

	pongWait := h.cfg.PingInterval * 10 / 9
	c.conn.SetReadLimit(maxFrameSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug().Err(err).Msg("connection dropped")
			}
			return
		}
		h.handleFrame(ctx, c, data)
	}
}

func (h *Handler) handleFrame(ctx context.Context, c *client, data []byte) {
	env, err := events.DecodeInbound(data)
	if err != nil {
		h.sendError(c, "Decode", err)
		return
	}
	if !c.limiter.Allow() {
		metrics.RateLimitHits.Inc()
		h.sendError(c, string(env.Type), errRateLimited)
		return
	}

	switch env.Type {
	case events.TypeSendMessage:
		var p events.SendMessage
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			h.sendError(c, string(env.Type), err)
			return
		}
		if _, err := h.engine.Send(ctx, c.username, p.RecipientUsername, p.Content); err != nil {
			h.sendError(c, string(env.Type), err)
		}
	default:
		h.sendError(c, string(env.Type), errUnknownFrame)
	}
}

var (
	errRateLimited  = errors.New("rate limit exceeded")
	errUnknownFrame = errors.New("unknown frame type")
)

func (h *Handler) sendError(c *client, op string, err error) {
	msg := publicMessage(err)
	if msg == "internal error" {
		h.log.Error().Err(err).Str("connection_id", c.id).Str("operation", op).Msg("operation failed")
	}
	data, encErr := events.Encode(events.Error{Operation: op, Message: msg})
	if encErr != nil {
		return
	}
	if err := c.enqueue(data); err != nil {
		h.log.Debug().Err(err).Str("connection_id", c.id).Msg("could not report error")
	}
}

// publicMessage keeps store and driver details away from clients.
func publicMessage(err error) string {
	var deliveryErr *delivery.DeliveryError
	switch {
	case errors.As(err, &deliveryErr):
		return "message stored but could not be delivered"
	case errors.Is(err, models.ErrSelfSend),
		errors.Is(err, models.ErrUserNotFound),
		errors.Is(err, models.ErrInvalidMessage),
		errors.Is(err, models.ErrUnauthenticated),
		errors.Is(err, session.ErrSessionClosed),
		errors.Is(err, errRateLimited),
		errors.Is(err, errUnknownFrame):
		return err.Error()
	case errors.Is(err, storage.ErrNotFound):
		return "not found"
	}
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return "invalid frame"
	}
	return "internal error"
}

func (h *Handler) writePump(c *client) {
	ticker := time.NewTicker(h.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteTimeout))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
