// Copyright (C) 2025 efchat.net <tj@efchat.net>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package presence

import (
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Add_Multiple_Tabs_Are_Additive(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	tab1 := uuid.NewString()
	tab2 := uuid.NewString()

	// Given alice opens two tabs
	registry.Add("alice", tab1)
	registry.Add("alice", tab2)

	// Then both connections are tracked
	req.True(registry.IsOnline("alice"))
	req.ElementsMatch([]string{tab1, tab2}, registry.ConnectionsFor("alice"))
	req.Equal(2, registry.ConnectionCount())
}

func TestRegistry_Remove_Last_Connection_Removes_Entry(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	// Given alice has one connection
	registry.Add("alice", "c1")

	// When it closes
	remaining := registry.Remove("alice", "c1")

	// Then alice is offline and has no entry
	req.Equal(0, remaining)
	req.False(registry.IsOnline("alice"))
	req.Empty(registry.ConnectionsFor("alice"))
	req.Empty(registry.online)
}

func TestRegistry_Remove_Is_Idempotent(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	registry.Add("alice", "c1")
	registry.Add("alice", "c2")

	req.Equal(1, registry.Remove("alice", "c1"))
	// double disconnect
	req.Equal(1, registry.Remove("alice", "c1"))
	// unknown user
	req.Equal(0, registry.Remove("bob", "c9"))

	req.Equal([]string{"c2"}, registry.ConnectionsFor("alice"))
}

func TestRegistry_N_Connects_M_Disconnects(t *testing.T) {
	for n := 1; n <= 5; n++ {
		for m := 0; m <= n; m++ {
			t.Run(fmt.Sprintf("n=%d,m=%d", n, m), func(t *testing.T) {
				req := require.New(t)
				registry := NewRegistry()
				ids := make([]string, n)
				for i := range ids {
					ids[i] = uuid.NewString()
					registry.Add("alice", ids[i])
				}
				for i := 0; i < m; i++ {
					registry.Remove("alice", ids[i])
				}

				req.Len(registry.ConnectionsFor("alice"), n-m)
				req.Equal(n-m > 0, registry.IsOnline("alice"))
			})
		}
	}
}

func TestRegistry_Concurrent_Add_Remove(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	users := []string{"alice", "bob", "carol"}
	const perUser = 50

	var wg sync.WaitGroup
	for _, user := range users {
		for i := 0; i < perUser; i++ {
			wg.Add(1)
			go func(user string, i int) {
				defer wg.Done()
				id := fmt.Sprintf("%s-%d", user, i)
				registry.Add(user, id)
				_ = registry.ConnectionsFor(user)
				if i%2 == 0 {
					registry.Remove(user, id)
				}
			}(user, i)
		}
	}
	wg.Wait()

	for _, user := range users {
		req.Len(registry.ConnectionsFor(user), perUser/2)
	}
	req.Equal([]string{"alice", "bob", "carol"}, registry.OnlineUsers())
}
