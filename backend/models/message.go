// Copyright (C) 2025 efchat.net <tj@efchat.net>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package models

import (
	"time"

	"github.com/google/uuid"
)

// Message is a direct message between two users.
// Each side deletes its own copy; the row is removed once both sides have.
type Message struct {
	ID                string     `json:"id" db:"message_id"`
	SenderID          int64      `json:"senderId" db:"sender_id"`
	RecipientID       int64      `json:"recipientId" db:"recipient_id"`
	SenderUsername    string     `json:"senderUsername" db:"sender_username"`
	RecipientUsername string     `json:"recipientUsername" db:"recipient_username"`
	Content           string     `json:"content" db:"content"`
	SentAt            time.Time  `json:"sentAt" db:"sent_at"`
	ReadAt            *time.Time `json:"readAt,omitempty" db:"read_at"`
	SenderDeleted     bool       `json:"-" db:"sender_deleted"`
	RecipientDeleted  bool       `json:"-" db:"recipient_deleted"`
}

// NewMessage builds an unread message from sender to recipient.
func NewMessage(sender, recipient *User, content string, sentAt time.Time) *Message {
	return &Message{
		ID:                uuid.New().String(),
		SenderID:          sender.ID,
		RecipientID:       recipient.ID,
		SenderUsername:    sender.Username,
		RecipientUsername: recipient.Username,
		Content:           content,
		SentAt:            sentAt.UTC(),
	}
}

// IsParticipant reports whether username is the sender or the recipient.
func (m *Message) IsParticipant(username string) bool {
	return m.SenderUsername == username || m.RecipientUsername == username
}

// DeletedBy reports whether username has deleted its copy.
func (m *Message) DeletedBy(username string) bool {
	switch username {
	case m.SenderUsername:
		return m.SenderDeleted
	case m.RecipientUsername:
		return m.RecipientDeleted
	}
	return false
}

// MarkDeletedBy sets the deleted flag for the side username is on.
// It returns false when username is not a participant.
func (m *Message) MarkDeletedBy(username string) bool {
	ok := false
	if m.SenderUsername == username {
		m.SenderDeleted = true
		ok = true
	}
	if m.RecipientUsername == username {
		m.RecipientDeleted = true
		ok = true
	}
	return ok
}

// BothSidesDeleted reports whether the row can be removed.
func (m *Message) BothSidesDeleted() bool {
	return m.SenderDeleted && m.RecipientDeleted
}

// Container selects which of a user's messages a history query returns.
type Container string

const (
	ContainerInbox  Container = "Inbox"
	ContainerOutbox Container = "Outbox"
	ContainerUnread Container = "Unread"
)

// ParseContainer maps a query value to a Container, defaulting to Unread.
func ParseContainer(s string) Container {
	switch Container(s) {
	case ContainerInbox, ContainerOutbox:
		return Container(s)
	}
	return ContainerUnread
}

// MessageParams describes one page of a user's message history.
type MessageParams struct {
	Username  string
	Container Container
	PageIndex int // 1-based
	PageSize  int
}

// Offset returns the number of rows to skip.
func (p MessageParams) Offset() int {
	if p.PageIndex < 1 {
		return 0
	}
	return (p.PageIndex - 1) * p.PageSize
}

// MessagePage is a page of history, newest first.
type MessagePage struct {
	Items      []Message `json:"items"`
	PageIndex  int       `json:"pageIndex"`
	PageSize   int       `json:"pageSize"`
	TotalCount int       `json:"totalCount"`
	TotalPages int       `json:"totalPages"`
}

// NewMessagePage fills in the page counters.
func NewMessagePage(items []Message, params MessageParams, total int) MessagePage {
	pages := 0
	if params.PageSize > 0 {
		pages = (total + params.PageSize - 1) / params.PageSize
	}
	if items == nil {
		items = []Message{}
	}
	return MessagePage{
		Items:      items,
		PageIndex:  params.PageIndex,
		PageSize:   params.PageSize,
		TotalCount: total,
		TotalPages: pages,
	}
}
