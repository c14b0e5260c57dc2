// Copyright (C) 2025 efchat.net <tj@efchat.net>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package models

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGroupName_IsSymmetric(t *testing.T) {
	req := require.New(t)
	pairs := [][2]string{
		{"alice", "bob"},
		{"bob", "alice"},
		{"zed", "amy"},
		{"Bob", "bob"},
		{"a", "ab"},
		{"", "x"},
	}
	for _, p := range pairs {
		req.Equal(GroupName(p[0], p[1]), GroupName(p[1], p[0]), "pair %v", p)
	}
}

func TestGroupName_SmallerNameFirst(t *testing.T) {
	req := require.New(t)
	req.Equal("alice-bob", GroupName("bob", "alice"))
	req.Equal("alice-bob", GroupName("alice", "bob"))
	// ordinal comparison: upper case sorts before lower case
	req.Equal("Zed-amy", GroupName("amy", "Zed"))
}

func TestGroupName_Separator_In_Username_Does_Not_Collide(t *testing.T) {
	req := require.New(t)

	// Given two different pairs that join to the same text
	first := GroupName("a-b", "c")
	second := GroupName("a", "b-c")

	// Then they still get different groups
	req.NotEqual(first, second)
	req.Equal("a%2Db-c", first)
	req.Equal("a-b%2Dc", second)

	// And the escape itself cannot be forged by a literal name
	req.NotEqual(GroupName("a%2Db", "c"), first)
	req.Equal(GroupName("c", "a-b"), first)
}

func TestGroup_AddRejectsDuplicateConnection(t *testing.T) {
	req := require.New(t)
	g := &Group{Name: GroupName("alice", "bob")}

	req.True(g.Add(Connection{ConnectionID: "c1", Username: "alice"}))
	req.False(g.Add(Connection{ConnectionID: "c1", Username: "alice"}))
	req.True(g.Add(Connection{ConnectionID: "c2", Username: "alice"}))

	req.Len(g.Connections, 2)
	req.True(g.HasUser("alice"))
	req.False(g.HasUser("bob"))
}

func TestGroup_Remove(t *testing.T) {
	req := require.New(t)
	g := &Group{Name: "alice-bob"}
	g.Add(Connection{ConnectionID: "c1", Username: "alice"})
	g.Add(Connection{ConnectionID: "c2", Username: "bob"})

	req.True(g.Remove("c2"))
	req.False(g.Remove("c2"))
	req.False(g.HasUser("bob"))
	req.True(g.HasConnection("c1"))
}

func TestGroup_CloneIsIndependent(t *testing.T) {
	req := require.New(t)
	g := &Group{Name: "alice-bob"}
	g.Add(Connection{ConnectionID: "c1", Username: "alice"})

	c := g.Clone()
	c.Add(Connection{ConnectionID: "c2", Username: "bob"})

	req.Len(g.Connections, 1)
	req.Len(c.Connections, 2)
}

func TestMessage_MarkDeletedBy(t *testing.T) {
	req := require.New(t)
	m := &Message{SenderUsername: "alice", RecipientUsername: "bob"}

	req.False(m.MarkDeletedBy("carol"))
	req.True(m.MarkDeletedBy("alice"))
	req.True(m.DeletedBy("alice"))
	req.False(m.DeletedBy("bob"))
	req.False(m.BothSidesDeleted())

	req.True(m.MarkDeletedBy("bob"))
	req.True(m.BothSidesDeleted())
}

func TestNewMessagePage_CountsPages(t *testing.T) {
	req := require.New(t)
	params := MessageParams{PageIndex: 2, PageSize: 10}

	page := NewMessagePage(nil, params, 21)

	req.Equal(3, page.TotalPages)
	req.Equal(21, page.TotalCount)
	req.NotNil(page.Items)
	req.Equal(10, params.Offset())
}
