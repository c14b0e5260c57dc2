// Copyright (C) 2025 efchat.net <tj@efchat.net>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/efchatnet/efmsg/backend/models"
)

const messageColumns = `message_id, sender_id, recipient_id, sender_username, recipient_username,
		content, sent_at, read_at, sender_deleted, recipient_deleted`

func scanMessage(row rowScanner) (*models.Message, error) {
	var (
		msg    models.Message
		readAt sql.NullTime
	)
	err := row.Scan(&msg.ID, &msg.SenderID, &msg.RecipientID, &msg.SenderUsername,
		&msg.RecipientUsername, &msg.Content, &msg.SentAt, &readAt,
		&msg.SenderDeleted, &msg.RecipientDeleted)
	if err != nil {
		return nil, err
	}
	if readAt.Valid {
		at := readAt.Time.UTC()
		msg.ReadAt = &at
	}
	msg.SentAt = msg.SentAt.UTC()
	return &msg, nil
}

func scanMessages(rows *sql.Rows) ([]models.Message, error) {
	defer rows.Close()

	messages := make([]models.Message, 0)
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, *msg)
	}
	return messages, rows.Err()
}

func (u *unitOfWork) CreateMessage(ctx context.Context, msg *models.Message) error {
	var readAt sql.NullTime
	if msg.ReadAt != nil {
		readAt = sql.NullTime{Time: *msg.ReadAt, Valid: true}
	}
	_, err := u.tx.ExecContext(ctx, `
		INSERT INTO messages (`+messageColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		msg.ID, msg.SenderID, msg.RecipientID, msg.SenderUsername, msg.RecipientUsername,
		msg.Content, msg.SentAt, readAt, msg.SenderDeleted, msg.RecipientDeleted)
	if err != nil {
		return fmt.Errorf("failed to store message: %w", err)
	}
	return nil
}

func (u *unitOfWork) GetMessage(ctx context.Context, id string) (*models.Message, error) {
	row := u.tx.QueryRowContext(ctx, `
		SELECT `+messageColumns+` FROM messages
		WHERE message_id = $1`, id)
	msg, err := scanMessage(row)
	if err != nil {
		return nil, notFound(err, "message "+id)
	}
	return msg, nil
}

func (u *unitOfWork) MessageThread(ctx context.Context, requester, other string) ([]models.Message, error) {
	rows, err := u.tx.QueryContext(ctx, `
		SELECT `+messageColumns+` FROM messages
		WHERE (sender_username = $1 AND recipient_username = $2 AND sender_deleted = FALSE)
		   OR (sender_username = $2 AND recipient_username = $1 AND recipient_deleted = FALSE)
		ORDER BY sent_at ASC, message_id ASC`,
		requester, other)
	if err != nil {
		return nil, err
	}
	return scanMessages(rows)
}

func containerFilter(c models.Container) string {
	switch c {
	case models.ContainerInbox:
		return `recipient_username = $1 AND recipient_deleted = FALSE`
	case models.ContainerOutbox:
		return `sender_username = $1 AND sender_deleted = FALSE`
	default:
		return `recipient_username = $1 AND recipient_deleted = FALSE AND read_at IS NULL`
	}
}

func (u *unitOfWork) MessagesForUser(ctx context.Context, params models.MessageParams) ([]models.Message, int, error) {
	where := containerFilter(params.Container)

	var total int
	err := u.tx.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM messages
		WHERE `+where, params.Username).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	rows, err := u.tx.QueryContext(ctx, `
		SELECT `+messageColumns+` FROM messages
		WHERE `+where+`
		ORDER BY sent_at DESC, message_id DESC
		LIMIT $2 OFFSET $3`,
		params.Username, params.PageSize, params.Offset())
	if err != nil {
		return nil, 0, err
	}
	messages, err := scanMessages(rows)
	if err != nil {
		return nil, 0, err
	}
	return messages, total, nil
}

func (u *unitOfWork) MarkRead(ctx context.Context, ids []string, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := u.tx.ExecContext(ctx, `
		UPDATE messages SET read_at = $1
		WHERE message_id = ANY($2) AND read_at IS NULL AND recipient_deleted = FALSE`,
		at.UTC(), pq.Array(ids))
	if err != nil {
		return fmt.Errorf("failed to mark messages read: %w", err)
	}
	return nil
}

func (u *unitOfWork) SoftDeleteMessage(ctx context.Context, id, username string) (*models.Message, error) {
	row := u.tx.QueryRowContext(ctx, `
		SELECT `+messageColumns+` FROM messages
		WHERE message_id = $1
		FOR UPDATE`, id)
	msg, err := scanMessage(row)
	if err != nil {
		return nil, notFound(err, "message "+id)
	}
	if !msg.MarkDeletedBy(username) {
		return nil, models.ErrForbidden
	}

	_, err = u.tx.ExecContext(ctx, `
		UPDATE messages SET sender_deleted = $2, recipient_deleted = $3
		WHERE message_id = $1`,
		id, msg.SenderDeleted, msg.RecipientDeleted)
	if err != nil {
		return nil, err
	}
	return msg, nil
}

func (u *unitOfWork) HardDeleteIfBothSidesDeleted(ctx context.Context, id string) (bool, error) {
	res, err := u.tx.ExecContext(ctx, `
		DELETE FROM messages
		WHERE message_id = $1 AND sender_deleted = TRUE AND recipient_deleted = TRUE`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
