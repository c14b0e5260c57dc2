// Copyright (C) 2025 efchat.net <tj@efchat.net>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/samber/lo"

	"github.com/efchatnet/efmsg/backend/models"
	"github.com/efchatnet/efmsg/backend/storage"
)

func (u *unitOfWork) CreateMessage(ctx context.Context, msg *models.Message) error {
	if err := u.check(ctx); err != nil {
		return err
	}
	s := u.store
	if _, exists := s.messages[msg.ID]; exists {
		return fmt.Errorf("message %s already exists", msg.ID)
	}
	stored := copyMessage(msg)
	s.messages[msg.ID] = &stored
	s.order = append(s.order, msg.ID)
	u.restoreMessage(msg.ID, nil)
	return nil
}

func (u *unitOfWork) GetMessage(ctx context.Context, id string) (*models.Message, error) {
	if err := u.check(ctx); err != nil {
		return nil, err
	}
	m, ok := u.store.messages[id]
	if !ok {
		return nil, fmt.Errorf("message %s: %w", id, storage.ErrNotFound)
	}
	c := copyMessage(m)
	return &c, nil
}

// collect returns copies of the matching messages in insertion order.
func (s *Store) collect(match func(m *models.Message) bool) []models.Message {
	out := make([]models.Message, 0)
	for _, id := range s.order {
		if m := s.messages[id]; m != nil && match(m) {
			out = append(out, copyMessage(m))
		}
	}
	return out
}

func (u *unitOfWork) MessageThread(ctx context.Context, requester, other string) ([]models.Message, error) {
	if err := u.check(ctx); err != nil {
		return nil, err
	}
	thread := u.store.collect(func(m *models.Message) bool {
		switch {
		case m.SenderUsername == requester && m.RecipientUsername == other:
			return !m.SenderDeleted
		case m.SenderUsername == other && m.RecipientUsername == requester:
			return !m.RecipientDeleted
		}
		return false
	})
	sort.SliceStable(thread, func(i, j int) bool {
		return thread[i].SentAt.Before(thread[j].SentAt)
	})
	return thread, nil
}

func (u *unitOfWork) MessagesForUser(ctx context.Context, params models.MessageParams) ([]models.Message, int, error) {
	if err := u.check(ctx); err != nil {
		return nil, 0, err
	}
	username := params.Username
	all := u.store.collect(func(m *models.Message) bool {
		switch params.Container {
		case models.ContainerInbox:
			return m.RecipientUsername == username && !m.RecipientDeleted
		case models.ContainerOutbox:
			return m.SenderUsername == username && !m.SenderDeleted
		default:
			return m.RecipientUsername == username && !m.RecipientDeleted && m.ReadAt == nil
		}
	})
	// newest first
	sort.SliceStable(all, func(i, j int) bool {
		return all[j].SentAt.Before(all[i].SentAt)
	})

	total := len(all)
	offset := params.Offset()
	if offset >= total {
		return []models.Message{}, total, nil
	}
	end := total
	if params.PageSize > 0 {
		end = lo.Min([]int{offset + params.PageSize, total})
	}
	return all[offset:end], total, nil
}

func (u *unitOfWork) MarkRead(ctx context.Context, ids []string, at time.Time) error {
	if err := u.check(ctx); err != nil {
		return err
	}
	s := u.store
	for _, id := range lo.Uniq(ids) {
		m, ok := s.messages[id]
		if !ok || m.ReadAt != nil || m.RecipientDeleted {
			continue
		}
		prev := copyMessage(m)
		updated := copyMessage(m)
		readAt := at.UTC()
		updated.ReadAt = &readAt
		s.messages[id] = &updated
		u.restoreMessage(id, &prev)
	}
	return nil
}

func (u *unitOfWork) SoftDeleteMessage(ctx context.Context, id, username string) (*models.Message, error) {
	if err := u.check(ctx); err != nil {
		return nil, err
	}
	s := u.store
	m, ok := s.messages[id]
	if !ok {
		return nil, fmt.Errorf("message %s: %w", id, storage.ErrNotFound)
	}
	prev := copyMessage(m)
	updated := copyMessage(m)
	if !updated.MarkDeletedBy(username) {
		return nil, models.ErrForbidden
	}
	s.messages[id] = &updated
	u.restoreMessage(id, &prev)

	c := copyMessage(&updated)
	return &c, nil
}

func (u *unitOfWork) HardDeleteIfBothSidesDeleted(ctx context.Context, id string) (bool, error) {
	if err := u.check(ctx); err != nil {
		return false, err
	}
	s := u.store
	m, ok := s.messages[id]
	if !ok || !m.BothSidesDeleted() {
		return false, nil
	}
	prev := copyMessage(m)
	pos := lo.IndexOf(s.order, id)
	delete(s.messages, id)
	s.removeFromOrder(id)
	u.journal(func() {
		s.messages[id] = &prev
		s.order = append(s.order[:pos], append([]string{id}, s.order[pos:]...)...)
	})
	return true, nil
}
