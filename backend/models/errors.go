// Copyright (C) 2025 efchat.net <tj@efchat.net>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package models

import "errors"

// Validation errors. They are returned before any state is mutated.
var (
	ErrUnauthenticated = errors.New("no authenticated user")
	ErrSelfSend        = errors.New("you cannot send messages to yourself")
	ErrUserNotFound    = errors.New("user not found")
	ErrInvalidMessage  = errors.New("invalid message")
	ErrForbidden       = errors.New("not a participant of this message")
)
