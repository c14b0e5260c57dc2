// Copyright (C) 2025 efchat.net <tj@efchat.net>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package transport is the boundary between the messaging core and the
// client connections. The core only addresses connections by id and groups
// by name; it never sees a socket.
package transport

import (
	"context"
	"errors"

	"github.com/efchatnet/efmsg/backend/events"
)

var (
	ErrUnknownConnection = errors.New("transport: unknown connection")
	ErrSendBufferFull    = errors.New("transport: send buffer full")
)

type Transport interface {
	// Send delivers evt to a single connection.
	Send(ctx context.Context, connectionID string, evt events.Event) error
	// Broadcast delivers evt to every connection in the named group.
	Broadcast(ctx context.Context, group string, evt events.Event) error
	AddToGroup(connectionID, group string)
	RemoveFromGroup(connectionID, group string)
}
