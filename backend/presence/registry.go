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

// Package presence tracks which users are reachable in real time and
// through which connections. It is process-local and starts empty.
package presence

import (
	"sort"
	"sync"

	"github.com/samber/lo"
)

type connectionSet = map[string]struct{}

// Registry maps a username to the set of its open connection ids.
// A user with no connection has no entry: absence means offline.
// All methods are safe for concurrent use and never block on I/O.
type Registry struct {
	mu     sync.RWMutex
	online map[string]connectionSet
}

func NewRegistry() *Registry {
	return &Registry{
		online: make(map[string]connectionSet),
	}
}

// Add records an open connection. Connections of the same user accumulate.
func (r *Registry) Add(username, connectionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	conns, ok := r.online[username]
	if !ok {
		conns = make(connectionSet)
		r.online[username] = conns
	}
	conns[connectionID] = struct{}{}
}

// Remove forgets a connection and returns how many the user still has.
// Removing an unknown connection is a no-op.
func (r *Registry) Remove(username, connectionID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	conns, ok := r.online[username]
	if !ok {
		return 0
	}
	delete(conns, connectionID)
	if len(conns) == 0 {
		delete(r.online, username)
		return 0
	}
	return len(conns)
}

// ConnectionsFor returns the user's connection ids, sorted. Empty when offline.
func (r *Registry) ConnectionsFor(username string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := lo.Keys(r.online[username])
	sort.Strings(ids)
	return ids
}

func (r *Registry) IsOnline(username string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.online[username]
	return ok
}

// OnlineUsers returns a sorted snapshot of every online username.
func (r *Registry) OnlineUsers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := lo.Keys(r.online)
	sort.Strings(users)
	return users
}

// ConnectionCount returns the number of open connections across all users.
func (r *Registry) ConnectionCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return lo.SumBy(lo.Values(r.online), func(c connectionSet) int { return len(c) })
}
