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

	"github.com/efchatnet/efmsg/backend/models"
	"github.com/efchatnet/efmsg/backend/storage"
)

func (u *unitOfWork) GetOrCreateGroup(ctx context.Context, name string) (*models.Group, error) {
	if err := u.check(ctx); err != nil {
		return nil, err
	}
	s := u.store
	g, ok := s.groups[name]
	if !ok {
		g = &models.Group{Name: name}
		s.groups[name] = g
		u.restoreGroup(name, nil)
	}
	return g.Clone(), nil
}

func (u *unitOfWork) GetGroup(ctx context.Context, name string) (*models.Group, error) {
	if err := u.check(ctx); err != nil {
		return nil, err
	}
	g, ok := u.store.groups[name]
	if !ok {
		return nil, fmt.Errorf("group %s: %w", name, storage.ErrNotFound)
	}
	return g.Clone(), nil
}

func (u *unitOfWork) GetGroupForConnection(ctx context.Context, connectionID string) (*models.Group, error) {
	if err := u.check(ctx); err != nil {
		return nil, err
	}
	for _, g := range u.store.groups {
		if g.HasConnection(connectionID) {
			return g.Clone(), nil
		}
	}
	return nil, fmt.Errorf("group for connection %s: %w", connectionID, storage.ErrNotFound)
}

func (u *unitOfWork) AddConnection(ctx context.Context, group string, conn models.Connection) error {
	if err := u.check(ctx); err != nil {
		return err
	}
	g, ok := u.store.groups[group]
	if !ok {
		return fmt.Errorf("group %s: %w", group, storage.ErrNotFound)
	}
	prev := g.Clone()
	if g.Add(conn) {
		u.restoreGroup(group, prev)
	}
	return nil
}

func (u *unitOfWork) RemoveConnection(ctx context.Context, group string, connectionID string) error {
	if err := u.check(ctx); err != nil {
		return err
	}
	g, ok := u.store.groups[group]
	if !ok {
		return fmt.Errorf("group %s: %w", group, storage.ErrNotFound)
	}
	prev := g.Clone()
	if !g.Remove(connectionID) {
		return fmt.Errorf("connection %s in group %s: %w", connectionID, group, storage.ErrNotFound)
	}
	u.restoreGroup(group, prev)
	return nil
}
