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
	"time"

	"github.com/efchatnet/efmsg/backend/models"
	"github.com/efchatnet/efmsg/backend/storage"
)

func (u *unitOfWork) GetUser(ctx context.Context, username string) (*models.User, error) {
	if err := u.check(ctx); err != nil {
		return nil, err
	}
	user, ok := u.store.users[models.NormalizeUsername(username)]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", username, storage.ErrNotFound)
	}
	return copyUser(user), nil
}

func (u *unitOfWork) UpsertUser(ctx context.Context, username, knownAs string) (*models.User, error) {
	if err := u.check(ctx); err != nil {
		return nil, err
	}
	s := u.store
	name := models.NormalizeUsername(username)
	if name == "" {
		return nil, models.ErrUnauthenticated
	}

	if existing, ok := s.users[name]; ok {
		prev := copyUser(existing)
		if knownAs != "" && knownAs != existing.KnownAs {
			existing.KnownAs = knownAs
			u.journal(func() { s.users[name] = prev })
		}
		return copyUser(existing), nil
	}

	s.nextUserID++
	now := u.now()
	user := &models.User{
		ID:         s.nextUserID,
		Username:   name,
		KnownAs:    knownAs,
		CreatedAt:  now,
		LastActive: now,
	}
	s.users[name] = user
	u.journal(func() {
		delete(s.users, name)
		s.nextUserID--
	})
	return copyUser(user), nil
}

func (u *unitOfWork) TouchUser(ctx context.Context, username string, at time.Time) error {
	if err := u.check(ctx); err != nil {
		return err
	}
	s := u.store
	name := models.NormalizeUsername(username)
	user, ok := s.users[name]
	if !ok {
		return fmt.Errorf("user %s: %w", username, storage.ErrNotFound)
	}
	prev := copyUser(user)
	updated := copyUser(user)
	updated.LastActive = at.UTC()
	s.users[name] = updated
	u.journal(func() { s.users[name] = prev })
	return nil
}
