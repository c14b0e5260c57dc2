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

package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/efchatnet/efmsg/backend/events"
	"github.com/efchatnet/efmsg/backend/metrics"
	"github.com/efchatnet/efmsg/backend/models"
	"github.com/efchatnet/efmsg/backend/presence"
	"github.com/efchatnet/efmsg/backend/storage"
	"github.com/efchatnet/efmsg/backend/transport"
)

// Controller joins sessions to their conversation group and takes them
// out again. Persisted membership lives in the store, live presence in the
// registry; the controller keeps both in step.
type Controller struct {
	store     storage.Store
	registry  *presence.Registry
	transport transport.Transport
	activity  storage.ActivityTracker
	log       zerolog.Logger
	now       func() time.Time
}

// NewController builds a controller. activity may be nil.
func NewController(store storage.Store, registry *presence.Registry, tr transport.Transport,
	activity storage.ActivityTracker, log zerolog.Logger) *Controller {
	return &Controller{
		store:     store,
		registry:  registry,
		transport: tr,
		activity:  activity,
		log:       log.With().Str("component", "session").Logger(),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Connect joins s to its conversation. The requester is provisioned on
// first use; the peer must already exist. Every message waiting for the
// requester in this thread is marked read, and the thread is sent to the
// connection once the join is committed.
func (c *Controller) Connect(ctx context.Context, s *Session) error {
	if s.State() != Connecting {
		return ErrSessionClosed
	}
	log := c.log.With().
		Str("connection_id", s.ConnectionID).
		Str("username", s.Username).
		Str("group", s.Group).
		Logger()

	if err := c.validatePeers(s); err != nil {
		s.setState(Closed)
		metrics.JoinFailures.Inc()
		return err
	}

	// Join the transport group first: a send that sees the persisted
	// membership must also reach this connection. A message can then show
	// up both live and in the snapshot, never in neither.
	c.transport.AddToGroup(s.ConnectionID, s.Group)

	var (
		group  *models.Group
		thread []models.Message
	)
	err := storage.WithUnitOfWork(ctx, c.store, func(uow storage.UnitOfWork) error {
		if _, err := uow.UpsertUser(ctx, s.Username, ""); err != nil {
			return err
		}
		if _, err := uow.GetUser(ctx, s.Peer); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return models.ErrUserNotFound
			}
			return err
		}

		var err error
		if _, err = uow.GetOrCreateGroup(ctx, s.Group); err != nil {
			return err
		}
		if err = uow.AddConnection(ctx, s.Group, s.connection()); err != nil {
			return err
		}
		if group, err = uow.GetGroup(ctx, s.Group); err != nil {
			return err
		}
		if thread, err = uow.MessageThread(ctx, s.Username, s.Peer); err != nil {
			return err
		}

		unread := lo.Filter(thread, func(m models.Message, _ int) bool {
			return m.RecipientUsername == s.Username && m.ReadAt == nil
		})
		if len(unread) == 0 {
			return nil
		}
		at := c.now()
		ids := lo.Map(unread, func(m models.Message, _ int) string { return m.ID })
		if err = uow.MarkRead(ctx, ids, at); err != nil {
			return err
		}
		for i := range thread {
			if thread[i].RecipientUsername == s.Username && thread[i].ReadAt == nil {
				readAt := at
				thread[i].ReadAt = &readAt
			}
		}
		return nil
	})
	if err != nil {
		c.transport.RemoveFromGroup(s.ConnectionID, s.Group)
		s.setState(Closed)
		metrics.JoinFailures.Inc()
		log.Warn().Err(err).Msg("join failed")
		return fmt.Errorf("join %s: %w", s.Group, err)
	}

	c.registry.Add(s.Username, s.ConnectionID)
	s.setState(Joined)
	metrics.GroupJoins.Inc()
	c.touch(ctx, s.Username)

	members := events.GroupMembershipChanged{Group: s.Group, Members: group.Connections}
	if err := c.transport.Broadcast(ctx, s.Group, members); err != nil {
		log.Warn().Err(err).Msg("failed to broadcast membership")
	}
	if err := c.transport.Send(ctx, s.ConnectionID, events.ThreadSnapshot{Messages: thread}); err != nil {
		return fmt.Errorf("send thread snapshot: %w", err)
	}

	log.Debug().Int("messages", len(thread)).Msg("joined")
	return nil
}

func (c *Controller) validatePeers(s *Session) error {
	switch {
	case s.Username == "":
		return models.ErrUnauthenticated
	case s.Peer == "":
		return models.ErrUserNotFound
	case s.Username == s.Peer:
		return models.ErrSelfSend
	}
	return nil
}

// Disconnect takes s out of its group. It runs for normal and abrupt
// closes alike and is safe to call more than once. Registry and transport
// cleanup happen even when the group lookup fails.
func (c *Controller) Disconnect(ctx context.Context, s *Session) error {
	if s.transition(Connecting, Closed) {
		return nil
	}
	if !s.transition(Joined, Closing) {
		return nil
	}
	log := c.log.With().
		Str("connection_id", s.ConnectionID).
		Str("username", s.Username).
		Logger()

	var group *models.Group
	err := storage.WithUnitOfWork(ctx, c.store, func(uow storage.UnitOfWork) error {
		var err error
		if group, err = uow.GetGroupForConnection(ctx, s.ConnectionID); err != nil {
			return err
		}
		if err = uow.RemoveConnection(ctx, group.Name, s.ConnectionID); err != nil {
			return err
		}
		group.Remove(s.ConnectionID)
		return nil
	})

	c.transport.RemoveFromGroup(s.ConnectionID, s.Group)
	remaining := c.registry.Remove(s.Username, s.ConnectionID)
	s.setState(Closed)
	c.touch(ctx, s.Username)

	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			metrics.MembershipNotFound.Inc()
			log.Warn().Err(err).Msg("connection had no group membership")
		} else {
			log.Error().Err(err).Msg("failed to leave group")
		}
		return fmt.Errorf("leave %s: %w", s.Group, err)
	}

	members := events.GroupMembershipChanged{Group: group.Name, Members: group.Connections}
	if err := c.transport.Broadcast(ctx, group.Name, members); err != nil {
		log.Warn().Err(err).Msg("failed to broadcast membership")
	}

	log.Debug().Int("remaining_connections", remaining).Msg("left")
	return nil
}

func (c *Controller) touch(ctx context.Context, username string) {
	if c.activity == nil {
		return
	}
	if err := c.activity.Touch(ctx, username, c.now()); err != nil {
		c.log.Warn().Err(err).Str("username", username).Msg("failed to record activity")
	}
}
