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

package models

import (
	"strings"

	"github.com/samber/lo"
)

// GroupNameSeparator joins the two usernames of a conversation group.
const GroupNameSeparator = "-"

// groupNameEscaper keeps the separator out of each half so two different
// pairs never share a key. "%" is escaped too, so an escape sequence never
// matches a literal name.
var groupNameEscaper = strings.NewReplacer("%", "%25", GroupNameSeparator, "%2D")

// Connection is one open transport session of a user.
type Connection struct {
	ConnectionID string `json:"connectionId" db:"connection_id"`
	Username     string `json:"username" db:"username"`
}

// Group is the live view of a conversation: the connections currently
// looking at the thread between two users. Groups are never deleted; an
// empty group is reused by the next session.
type Group struct {
	Name        string       `json:"name" db:"name"`
	Connections []Connection `json:"connections"`
}

// GroupName returns the conversation key for two usernames. The ordinally
// smaller name goes first so both participants compute the same key.
// A separator inside a username is escaped: ("a-b", "c") is "a%2Db-c".
func GroupName(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return groupNameEscaper.Replace(a) + GroupNameSeparator + groupNameEscaper.Replace(b)
}

// HasConnection reports whether connectionID is inside the group.
func (g *Group) HasConnection(connectionID string) bool {
	return lo.ContainsBy(g.Connections, func(c Connection) bool {
		return c.ConnectionID == connectionID
	})
}

// HasUser reports whether username has at least one connection inside the group.
func (g *Group) HasUser(username string) bool {
	return lo.ContainsBy(g.Connections, func(c Connection) bool {
		return c.Username == username
	})
}

// Add appends conn unless its connection id is already present.
func (g *Group) Add(conn Connection) bool {
	if g.HasConnection(conn.ConnectionID) {
		return false
	}
	g.Connections = append(g.Connections, conn)
	return true
}

// Remove drops connectionID from the group and reports whether it was there.
func (g *Group) Remove(connectionID string) bool {
	before := len(g.Connections)
	g.Connections = lo.Reject(g.Connections, func(c Connection, _ int) bool {
		return c.ConnectionID == connectionID
	})
	return len(g.Connections) != before
}

// Clone returns a copy that shares nothing with g.
func (g *Group) Clone() *Group {
	return &Group{
		Name:        g.Name,
		Connections: append([]Connection{}, g.Connections...),
	}
}
