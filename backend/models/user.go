// Copyright (C) 2025 efchat.net <tj@efchat.net>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package models

import (
	"strings"
	"time"
)

// User is the messaging view of an efchat account.
type User struct {
	ID         int64     `json:"id" db:"id"`
	Username   string    `json:"username" db:"username"`
	KnownAs    string    `json:"knownAs" db:"known_as"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
	LastActive time.Time `json:"lastActive" db:"last_active"`
}

// NormalizeUsername is applied to every username entering the system.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}
