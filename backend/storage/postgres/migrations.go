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
)

var migrations = []string{
	// Users known to the messaging layer (mirrors efchat accounts)
	`CREATE TABLE IF NOT EXISTS users (
		id BIGSERIAL PRIMARY KEY,
		username VARCHAR(255) NOT NULL UNIQUE,
		known_as VARCHAR(255) NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		last_active TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,

	// Direct messages, soft deleted per side
	`CREATE TABLE IF NOT EXISTS messages (
		message_id VARCHAR(64) PRIMARY KEY,
		sender_id BIGINT NOT NULL REFERENCES users(id),
		recipient_id BIGINT NOT NULL REFERENCES users(id),
		sender_username VARCHAR(255) NOT NULL,
		recipient_username VARCHAR(255) NOT NULL,
		content TEXT NOT NULL,
		sent_at TIMESTAMPTZ NOT NULL,
		read_at TIMESTAMPTZ,
		sender_deleted BOOLEAN NOT NULL DEFAULT FALSE,
		recipient_deleted BOOLEAN NOT NULL DEFAULT FALSE,
		CONSTRAINT no_self_messages CHECK (sender_id <> recipient_id)
	)`,

	`CREATE INDEX IF NOT EXISTS idx_messages_thread
	ON messages(sender_username, recipient_username, sent_at)`,

	`CREATE INDEX IF NOT EXISTS idx_messages_unread
	ON messages(recipient_username, sent_at DESC)
	WHERE read_at IS NULL`,

	// Conversation groups are created lazily and never deleted
	`CREATE TABLE IF NOT EXISTS conversation_groups (
		name TEXT PRIMARY KEY,
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,

	// A connection views at most one conversation
	`CREATE TABLE IF NOT EXISTS group_connections (
		connection_id VARCHAR(64) PRIMARY KEY,
		group_name TEXT NOT NULL,
		username VARCHAR(255) NOT NULL,
		joined_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (group_name) REFERENCES conversation_groups(name) ON DELETE CASCADE
	)`,

	`CREATE INDEX IF NOT EXISTS idx_group_connections_group
	ON group_connections(group_name)`,
}

func (s *Store) Migrate(ctx context.Context) error {
	for i, migration := range migrations {
		if _, err := s.db.ExecContext(ctx, migration); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}
