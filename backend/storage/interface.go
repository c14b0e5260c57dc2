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

package storage

//go:generate go run go.uber.org/mock/mockgen -destination=../mocks/mock_storage.go -package=mocks github.com/efchatnet/efmsg/backend/storage Store,UnitOfWork

import (
	"context"
	"errors"
	"time"

	"github.com/efchatnet/efmsg/backend/models"
)

var ErrNotFound = errors.New("storage: not found")

// GroupStore persists conversation groups and the connections viewing them.
type GroupStore interface {
	// GetOrCreateGroup returns the named group, creating it empty when it
	// does not exist yet. Concurrent callers converge on a single group.
	GetOrCreateGroup(ctx context.Context, name string) (*models.Group, error)
	GetGroup(ctx context.Context, name string) (*models.Group, error)
	// GetGroupForConnection finds the group holding connectionID.
	GetGroupForConnection(ctx context.Context, connectionID string) (*models.Group, error)
	AddConnection(ctx context.Context, group string, conn models.Connection) error
	RemoveConnection(ctx context.Context, group string, connectionID string) error
}

type MessageStore interface {
	CreateMessage(ctx context.Context, msg *models.Message) error
	GetMessage(ctx context.Context, id string) (*models.Message, error)
	// MessageThread returns the messages between requester and other that
	// requester has not deleted, oldest first.
	MessageThread(ctx context.Context, requester, other string) ([]models.Message, error)
	// MessagesForUser returns one page of a container, newest first, and
	// the total number of matching messages.
	MessagesForUser(ctx context.Context, params models.MessageParams) ([]models.Message, int, error)
	// MarkRead sets ReadAt on every listed message that is still unread and
	// not deleted by its recipient.
	MarkRead(ctx context.Context, ids []string, at time.Time) error
	SoftDeleteMessage(ctx context.Context, id, username string) (*models.Message, error)
	HardDeleteIfBothSidesDeleted(ctx context.Context, id string) (bool, error)
}

type UserStore interface {
	GetUser(ctx context.Context, username string) (*models.User, error)
	// UpsertUser creates the user or updates its display name. An empty
	// knownAs leaves the stored one untouched.
	UpsertUser(ctx context.Context, username, knownAs string) (*models.User, error)
	TouchUser(ctx context.Context, username string, at time.Time) error
}

// UnitOfWork groups store calls that commit or roll back together.
// Rollback after Complete is a no-op.
type UnitOfWork interface {
	GroupStore
	MessageStore
	UserStore

	Complete(ctx context.Context) error
	Rollback() error
}

type Store interface {
	Begin(ctx context.Context) (UnitOfWork, error)
	// ResetConnections drops every persisted group connection. Called at
	// startup, since no connection survives a restart.
	ResetConnections(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

// WithUnitOfWork runs fn inside a unit of work and completes it when fn
// returns nil.
func WithUnitOfWork(ctx context.Context, store Store, fn func(uow UnitOfWork) error) error {
	uow, err := store.Begin(ctx)
	if err != nil {
		return err
	}
	defer uow.Rollback()

	if err := fn(uow); err != nil {
		return err
	}
	return uow.Complete(ctx)
}

// DeleteMessageForUser removes username's copy of a message and drops the
// row once both sides have deleted it. It reports whether the row is gone.
func DeleteMessageForUser(ctx context.Context, store Store, id, username string) (bool, error) {
	var removed bool
	err := WithUnitOfWork(ctx, store, func(uow UnitOfWork) error {
		if _, err := uow.SoftDeleteMessage(ctx, id, username); err != nil {
			return err
		}
		var err error
		removed, err = uow.HardDeleteIfBothSidesDeleted(ctx, id)
		return err
	})
	return removed, err
}
