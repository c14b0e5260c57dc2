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

// Package delivery stores outgoing messages and routes them: live to the
// conversation group, or as a notification to the recipient's other
// connections when the recipient is not viewing the thread.
package delivery

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/efchatnet/efmsg/backend/events"
	"github.com/efchatnet/efmsg/backend/metrics"
	"github.com/efchatnet/efmsg/backend/models"
	"github.com/efchatnet/efmsg/backend/presence"
	"github.com/efchatnet/efmsg/backend/storage"
	"github.com/efchatnet/efmsg/backend/transport"
)

const DefaultMaxMessageLength = 4000

// DeliveryError is returned when a message was stored but the read-state
// update that follows failed. The message is not stored again.
type DeliveryError struct {
	Message *models.Message
	Err     error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("message %s stored but not delivered: %v", e.Message.ID, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// Notifier forwards out-of-band notifications to other services.
type Notifier interface {
	Notify(ctx context.Context, recipient string, n events.MessageNotification) error
}

type Engine struct {
	store     storage.Store
	registry  *presence.Registry
	transport transport.Transport
	activity  storage.ActivityTracker
	notifier  Notifier
	validate  *validator.Validate
	maxLength int
	log       zerolog.Logger
	now       func() time.Time
}

type Option func(*Engine)

func WithActivity(a storage.ActivityTracker) Option {
	return func(e *Engine) { e.activity = a }
}

func WithNotifier(n Notifier) Option {
	return func(e *Engine) { e.notifier = n }
}

func WithMaxMessageLength(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxLength = n
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func NewEngine(store storage.Store, registry *presence.Registry, tr transport.Transport,
	log zerolog.Logger, opts ...Option) *Engine {
	e := &Engine{
		store:     store,
		registry:  registry,
		transport: tr,
		validate:  validator.New(),
		maxLength: DefaultMaxMessageLength,
		log:       log.With().Str("component", "delivery").Logger(),
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) validateContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("%w: content is empty", models.ErrInvalidMessage)
	}
	if err := e.validate.Var(content, fmt.Sprintf("required,max=%d", e.maxLength)); err != nil {
		return fmt.Errorf("%w: content longer than %d characters", models.ErrInvalidMessage, e.maxLength)
	}
	return nil
}

// Send stores a message from sender to recipient and delivers it.
//
// When the recipient has a connection in the conversation group the
// message is marked read before it is broadcast. Otherwise every other
// connection of the recipient gets a MessageNotification.
func (e *Engine) Send(ctx context.Context, senderUsername, recipientUsername, content string) (*models.Message, error) {
	senderUsername = models.NormalizeUsername(senderUsername)
	recipientUsername = models.NormalizeUsername(recipientUsername)

	if senderUsername == "" {
		return nil, models.ErrUnauthenticated
	}
	if senderUsername == recipientUsername {
		return nil, models.ErrSelfSend
	}
	if err := e.validateContent(content); err != nil {
		return nil, err
	}

	var (
		sender *models.User
		msg    *models.Message
	)
	err := storage.WithUnitOfWork(ctx, e.store, func(uow storage.UnitOfWork) error {
		var err error
		if sender, err = uow.GetUser(ctx, senderUsername); err != nil {
			return userLookup(err)
		}
		recipient, err := uow.GetUser(ctx, recipientUsername)
		if err != nil {
			return userLookup(err)
		}
		msg = models.NewMessage(sender, recipient, content, e.now())
		return uow.CreateMessage(ctx, msg)
	})
	if err != nil {
		return nil, err
	}
	metrics.MessagesSent.Inc()

	groupName := models.GroupName(senderUsername, recipientUsername)
	log := e.log.With().Str("message_id", msg.ID).Str("group", groupName).Logger()

	var inGroup bool
	err = storage.WithUnitOfWork(ctx, e.store, func(uow storage.UnitOfWork) error {
		group, err := uow.GetGroup(ctx, groupName)
		switch {
		case errors.Is(err, storage.ErrNotFound):
			return nil
		case err != nil:
			return err
		}
		if !group.HasUser(recipientUsername) {
			return nil
		}
		inGroup = true
		at := e.now()
		if err := uow.MarkRead(ctx, []string{msg.ID}, at); err != nil {
			return err
		}
		msg.ReadAt = &at
		return nil
	})
	if err != nil {
		msg.ReadAt = nil
		log.Error().Err(err).Msg("failed to update read state")
		return nil, &DeliveryError{Message: msg, Err: err}
	}
	if inGroup {
		metrics.LiveReadReceipts.Inc()
	}

	if err := e.transport.Broadcast(ctx, groupName, events.MessageDelivered{Message: *msg}); err != nil {
		log.Warn().Err(err).Msg("failed to broadcast message")
	}

	if !inGroup {
		e.notify(ctx, sender, recipientUsername)
	}
	e.touch(ctx, senderUsername)
	return msg, nil
}

func (e *Engine) notify(ctx context.Context, sender *models.User, recipient string) {
	conns := e.registry.ConnectionsFor(recipient)
	if len(conns) == 0 {
		return
	}
	n := events.MessageNotification{Username: sender.Username, KnownAs: sender.KnownAs}
	for _, id := range conns {
		if err := e.transport.Send(ctx, id, n); err != nil {
			e.log.Warn().Err(err).Str("connection_id", id).Msg("failed to send notification")
			continue
		}
		metrics.Notifications.Inc()
	}
	if e.notifier != nil {
		if err := e.notifier.Notify(ctx, recipient, n); err != nil {
			e.log.Warn().Err(err).Str("recipient", recipient).Msg("failed to publish notification")
		}
	}
}

func (e *Engine) touch(ctx context.Context, username string) {
	if e.activity == nil {
		return
	}
	if err := e.activity.Touch(ctx, username, e.now()); err != nil {
		e.log.Warn().Err(err).Str("username", username).Msg("failed to record activity")
	}
}

func userLookup(err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return models.ErrUserNotFound
	}
	return err
}
