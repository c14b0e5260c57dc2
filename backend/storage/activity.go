// Copyright (C) 2025 efchat.net <tj@efchat.net>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package storage

import (
	"context"
	"time"
)

// ActivityTracker records when a user was last seen doing something.
type ActivityTracker interface {
	Touch(ctx context.Context, username string, at time.Time) error
	// LastActive returns false when nothing was ever recorded.
	LastActive(ctx context.Context, username string) (time.Time, bool, error)
}

// UserActivity keeps last activity on the user row. Used when no Redis is
// configured.
type UserActivity struct {
	store Store
}

func NewUserActivity(store Store) *UserActivity {
	return &UserActivity{store: store}
}

func (a *UserActivity) Touch(ctx context.Context, username string, at time.Time) error {
	return WithUnitOfWork(ctx, a.store, func(uow UnitOfWork) error {
		return uow.TouchUser(ctx, username, at)
	})
}

func (a *UserActivity) LastActive(ctx context.Context, username string) (time.Time, bool, error) {
	var last time.Time
	err := WithUnitOfWork(ctx, a.store, func(uow UnitOfWork) error {
		user, err := uow.GetUser(ctx, username)
		if err != nil {
			return err
		}
		last = user.LastActive
		return nil
	})
	if err != nil {
		return time.Time{}, false, err
	}
	return last, !last.IsZero(), nil
}
