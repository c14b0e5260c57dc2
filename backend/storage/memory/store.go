// Copyright (C) 2025 efchat.net <tj@efchat.net>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package memory is a process-local storage backend for development and tests.
// A unit of work holds the store lock until it completes or rolls back, so
// units of work are serialized and see each other's effects only once committed.
package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/efchatnet/efmsg/backend/models"
	"github.com/efchatnet/efmsg/backend/storage"
)

var errUnitOfWorkDone = errors.New("memory: unit of work already finished")

type Store struct {
	mu sync.Mutex

	nextUserID int64
	users      map[string]*models.User
	messages   map[string]*models.Message
	// insertion order of message ids, so equal SentAt values stay stable
	order  []string
	groups map[string]*models.Group
}

var _ storage.Store = (*Store)(nil)

func NewStore() *Store {
	return &Store{
		users:    make(map[string]*models.User),
		messages: make(map[string]*models.Message),
		groups:   make(map[string]*models.Group),
	}
}

func (s *Store) Begin(ctx context.Context) (storage.UnitOfWork, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	return &unitOfWork{store: s}, nil
}

func (s *Store) ResetConnections(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, g := range s.groups {
		g.Connections = nil
	}
	return nil
}

func (s *Store) Ping(_ context.Context) error { return nil }

func (s *Store) Close() error { return nil }

// unitOfWork mutates the store in place and keeps an undo journal.
type unitOfWork struct {
	store *Store
	undo  []func()
	done  bool
}

func (u *unitOfWork) journal(fn func()) {
	u.undo = append(u.undo, fn)
}

func (u *unitOfWork) Complete(ctx context.Context) error {
	if u.done {
		return errUnitOfWorkDone
	}
	if err := ctx.Err(); err != nil {
		u.rollback()
		return err
	}
	u.done = true
	u.undo = nil
	u.store.mu.Unlock()
	return nil
}

func (u *unitOfWork) Rollback() error {
	if u.done {
		return nil
	}
	u.rollback()
	return nil
}

func (u *unitOfWork) rollback() {
	for i := len(u.undo) - 1; i >= 0; i-- {
		u.undo[i]()
	}
	u.undo = nil
	u.done = true
	u.store.mu.Unlock()
}

func (u *unitOfWork) check(ctx context.Context) error {
	if u.done {
		return errUnitOfWorkDone
	}
	return ctx.Err()
}

func copyMessage(m *models.Message) models.Message {
	c := *m
	if m.ReadAt != nil {
		at := *m.ReadAt
		c.ReadAt = &at
	}
	return c
}

func copyUser(user *models.User) *models.User {
	c := *user
	return &c
}

// restoreGroup puts back the state of name as it was before a mutation.
func (u *unitOfWork) restoreGroup(name string, prev *models.Group) {
	s := u.store
	if prev == nil {
		u.journal(func() { delete(s.groups, name) })
		return
	}
	u.journal(func() { s.groups[name] = prev })
}

func (u *unitOfWork) restoreMessage(id string, prev *models.Message) {
	s := u.store
	if prev == nil {
		u.journal(func() {
			delete(s.messages, id)
			s.removeFromOrder(id)
		})
		return
	}
	u.journal(func() { s.messages[id] = prev })
}

func (s *Store) removeFromOrder(id string) {
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			return
		}
	}
}

// Seed creates the given users. Used by tests and the development server.
func (s *Store) Seed(ctx context.Context, usernames ...string) error {
	return storage.WithUnitOfWork(ctx, s, func(uow storage.UnitOfWork) error {
		for _, name := range usernames {
			if _, err := uow.UpsertUser(ctx, name, ""); err != nil {
				return err
			}
		}
		return nil
	})
}

func (u *unitOfWork) now() time.Time {
	return time.Now().UTC()
}
