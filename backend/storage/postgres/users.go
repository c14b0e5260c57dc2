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

func scanUser(row rowScanner) (*models.User, error) {
	var user models.User
	if err := row.Scan(&user.ID, &user.Username, &user.KnownAs, &user.CreatedAt, &user.LastActive); err != nil {
		return nil, err
	}
	return &user, nil
}

func (u *unitOfWork) GetUser(ctx context.Context, username string) (*models.User, error) {
	row := u.tx.QueryRowContext(ctx, `
		SELECT id, username, known_as, created_at, last_active FROM users
		WHERE username = $1`, models.NormalizeUsername(username))
	user, err := scanUser(row)
	if err != nil {
		return nil, notFound(err, "user "+username)
	}
	return user, nil
}

func (u *unitOfWork) UpsertUser(ctx context.Context, username, knownAs string) (*models.User, error) {
	name := models.NormalizeUsername(username)
	if name == "" {
		return nil, models.ErrUnauthenticated
	}
	row := u.tx.QueryRowContext(ctx, `
		INSERT INTO users (username, known_as, created_at, last_active)
		VALUES ($1, $2, $3, $3)
		ON CONFLICT (username) DO UPDATE
		SET known_as = CASE WHEN EXCLUDED.known_as <> '' THEN EXCLUDED.known_as ELSE users.known_as END
		RETURNING id, username, known_as, created_at, last_active`,
		name, knownAs, time.Now().UTC())
	user, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}
	return user, nil
}

func (u *unitOfWork) TouchUser(ctx context.Context, username string, at time.Time) error {
	res, err := u.tx.ExecContext(ctx, `
		UPDATE users SET last_active = $2
		WHERE username = $1`,
		models.NormalizeUsername(username), at.UTC())
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("user %s: %w", username, storage.ErrNotFound)
	}
	return nil
}
