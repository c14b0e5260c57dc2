// Copyright (C) 2025 efchat.net <tj@efchat.net>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package session drives the lifecycle of one client connection inside a
// conversation: joining its group, receiving the backlog and leaving.
package session

import (
	"errors"
	"sync"

	"github.com/efchatnet/efmsg/backend/models"
)

var ErrSessionClosed = errors.New("session: closed")

type State int

const (
	Connecting State = iota
	Joined
	Closing
	Closed
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Joined:
		return "joined"
	case Closing:
		return "closing"
	case Closed:
		return "closed"
	}
	return "unknown"
}

// Session is one connection viewing the thread between Username and Peer.
type Session struct {
	ConnectionID string
	Username     string
	Peer         string
	Group        string

	mu    sync.Mutex
	state State
}

func New(connectionID, username, peer string) *Session {
	username = models.NormalizeUsername(username)
	peer = models.NormalizeUsername(peer)
	return &Session{
		ConnectionID: connectionID,
		Username:     username,
		Peer:         peer,
		Group:        models.GroupName(username, peer),
		state:        Connecting,
	}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) setState(state State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
}

// transition moves from one state to another and reports whether the
// session was in from.
func (s *Session) transition(from, to State) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != from {
		return false
	}
	s.state = to
	return true
}

func (s *Session) connection() models.Connection {
	return models.Connection{ConnectionID: s.ConnectionID, Username: s.Username}
}
