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

package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/efchatnet/efmsg/backend/models"
	"github.com/efchatnet/efmsg/backend/storage"
)

func (u *unitOfWork) GetOrCreateGroup(ctx context.Context, name string) (*models.Group, error) {
	// Concurrent first joins race here; the loser's insert is a no-op
	_, err := u.tx.ExecContext(ctx, `
		INSERT INTO conversation_groups (name, created_at)
		VALUES ($1, $2)
		ON CONFLICT (name) DO NOTHING`,
		name, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to create group: %w", err)
	}
	return u.loadGroup(ctx, name)
}

func (u *unitOfWork) GetGroup(ctx context.Context, name string) (*models.Group, error) {
	var found string
	err := u.tx.QueryRowContext(ctx, `
		SELECT name FROM conversation_groups
		WHERE name = $1`, name).Scan(&found)
	if err != nil {
		return nil, notFound(err, "group "+name)
	}
	return u.loadGroup(ctx, found)
}

func (u *unitOfWork) GetGroupForConnection(ctx context.Context, connectionID string) (*models.Group, error) {
	var name string
	err := u.tx.QueryRowContext(ctx, `
		SELECT group_name FROM group_connections
		WHERE connection_id = $1`, connectionID).Scan(&name)
	if err != nil {
		return nil, notFound(err, "group for connection "+connectionID)
	}
	return u.loadGroup(ctx, name)
}

func (u *unitOfWork) loadGroup(ctx context.Context, name string) (*models.Group, error) {
	rows, err := u.tx.QueryContext(ctx, `
		SELECT connection_id, username FROM group_connections
		WHERE group_name = $1
		ORDER BY joined_at, connection_id`, name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	group := &models.Group{Name: name}
	for rows.Next() {
		var conn models.Connection
		if err := rows.Scan(&conn.ConnectionID, &conn.Username); err != nil {
			return nil, err
		}
		group.Connections = append(group.Connections, conn)
	}
	return group, rows.Err()
}

func (u *unitOfWork) AddConnection(ctx context.Context, group string, conn models.Connection) error {
	_, err := u.tx.ExecContext(ctx, `
		INSERT INTO group_connections (connection_id, group_name, username, joined_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (connection_id) DO NOTHING`,
		conn.ConnectionID, group, conn.Username, time.Now().UTC())
	return err
}

func (u *unitOfWork) RemoveConnection(ctx context.Context, group string, connectionID string) error {
	res, err := u.tx.ExecContext(ctx, `
		DELETE FROM group_connections
		WHERE group_name = $1 AND connection_id = $2`,
		group, connectionID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("connection %s in group %s: %w", connectionID, group, storage.ErrNotFound)
	}
	return nil
}
