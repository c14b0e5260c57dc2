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

// Package hub is the WebSocket side of the transport boundary. It owns the
// sockets, the per-connection send queues and the transport groups.
package hub

import (
	"context"
	"errors"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/efchatnet/efmsg/backend/events"
	"github.com/efchatnet/efmsg/backend/transport"
)

const defaultSendBuffer = 64

// client is one open socket. Frames are queued on send and written by the
// client's write pump.
type client struct {
	id       string
	username string
	conn     *websocket.Conn
	limiter  *rate.Limiter

	mu     sync.Mutex
	send   chan []byte
	closed bool
}

func newClient(id, username string, conn *websocket.Conn, limiter *rate.Limiter, buffer int) *client {
	if buffer <= 0 {
		buffer = defaultSendBuffer
	}
	return &client{
		id:       id,
		username: username,
		conn:     conn,
		limiter:  limiter,
		send:     make(chan []byte, buffer),
	}
}

// enqueue never blocks: a client that cannot keep up loses the frame.
func (c *client) enqueue(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return transport.ErrUnknownConnection
	}
	select {
	case c.send <- data:
		return nil
	default:
		return transport.ErrSendBufferFull
	}
}

func (c *client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// Hub implements transport.Transport over WebSocket clients.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*client
	groups  map[string]map[string]struct{}
	log     zerolog.Logger
}

var _ transport.Transport = (*Hub)(nil)

func New(log zerolog.Logger) *Hub {
	return &Hub{
		clients: make(map[string]*client),
		groups:  make(map[string]map[string]struct{}),
		log:     log.With().Str("component", "hub").Logger(),
	}
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c.id] = c
}

// unregister forgets the client and closes its queue, which stops its
// write pump.
func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	delete(h.clients, c.id)
	for name, members := range h.groups {
		delete(members, c.id)
		if len(members) == 0 {
			delete(h.groups, name)
		}
	}
	h.mu.Unlock()
	c.close()
}

func (h *Hub) Send(_ context.Context, connectionID string, evt events.Event) error {
	h.mu.RLock()
	c, ok := h.clients[connectionID]
	h.mu.RUnlock()
	if !ok {
		return transport.ErrUnknownConnection
	}
	data, err := events.Encode(evt)
	if err != nil {
		return err
	}
	return c.enqueue(data)
}

// Broadcast queues evt for every member of group. A slow member does not
// hold up the others; its failure is part of the returned error.
func (h *Hub) Broadcast(_ context.Context, group string, evt events.Event) error {
	data, err := events.Encode(evt)
	if err != nil {
		return err
	}

	h.mu.RLock()
	targets := make([]*client, 0, len(h.groups[group]))
	for id := range h.groups[group] {
		if c, ok := h.clients[id]; ok {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()

	var errs []error
	for _, c := range targets {
		if err := c.enqueue(data); err != nil {
			h.log.Warn().Err(err).Str("connection_id", c.id).Str("group", group).Msg("dropped broadcast")
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (h *Hub) AddToGroup(connectionID, group string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	members, ok := h.groups[group]
	if !ok {
		members = make(map[string]struct{})
		h.groups[group] = members
	}
	members[connectionID] = struct{}{}
}

func (h *Hub) RemoveFromGroup(connectionID, group string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if members, ok := h.groups[group]; ok {
		delete(members, connectionID)
		if len(members) == 0 {
			delete(h.groups, group)
		}
	}
}

// ConnectionCount returns the number of open sockets.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
