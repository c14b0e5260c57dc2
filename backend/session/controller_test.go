// Copyright (C) 2025 efchat.net <tj@efchat.net>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/efchatnet/efmsg/backend/events"
	"github.com/efchatnet/efmsg/backend/mocks"
	"github.com/efchatnet/efmsg/backend/models"
	"github.com/efchatnet/efmsg/backend/presence"
	"github.com/efchatnet/efmsg/backend/storage"
	"github.com/efchatnet/efmsg/backend/storage/memory"
	"github.com/efchatnet/efmsg/backend/transport/transporttest"
)

func newTestController(t *testing.T, users ...string) (*Controller, *memory.Store, *presence.Registry, *transporttest.Recorder) {
	t.Helper()
	store := memory.NewStore()
	require.NoError(t, store.Seed(context.Background(), users...))
	registry := presence.NewRegistry()
	rec := transporttest.NewRecorder()
	ctrl := NewController(store, registry, rec, storage.NewUserActivity(store), zerolog.Nop())
	return ctrl, store, registry, rec
}

func TestNew_Normalizes_And_Names_Group(t *testing.T) {
	req := require.New(t)

	s := New("c1", " Bob", "ALICE")

	req.Equal("bob", s.Username)
	req.Equal("alice", s.Peer)
	req.Equal("alice-bob", s.Group)
	req.Equal(Connecting, s.State())
}

func TestController_Connect_Registers_And_Sends_Snapshot(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	ctrl, store, registry, rec := newTestController(t, "alice", "bob")
	rec.Open("c1")
	s := New("c1", "alice", "bob")

	req.NoError(ctrl.Connect(ctx, s))

	req.Equal(Joined, s.State())
	req.Equal([]string{"c1"}, registry.ConnectionsFor("alice"))
	req.Equal([]string{"c1"}, rec.Members("alice-bob"))
	req.Equal([]events.Type{events.TypeGroupMembershipChanged, events.TypeThreadSnapshot}, rec.Types("c1"))

	var group *models.Group
	req.NoError(storage.WithUnitOfWork(ctx, store, func(uow storage.UnitOfWork) error {
		var err error
		group, err = uow.GetGroup(ctx, "alice-bob")
		return err
	}))
	req.True(group.HasConnection("c1"))
}

func TestController_Connect_Rejects_Bad_Peers(t *testing.T) {
	ctrl, _, registry, rec := newTestController(t, "alice")
	rec.Open("c1")

	tests := []struct {
		name string
		peer string
		want error
	}{
		{"self", "Alice", models.ErrSelfSend},
		{"unknown", "nobody", models.ErrUserNotFound},
		{"missing", "", models.ErrUserNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			s := New("c1", "alice", tt.peer)

			err := ctrl.Connect(context.Background(), s)

			req.ErrorIs(err, tt.want)
			req.Equal(Closed, s.State())
			req.False(registry.IsOnline("alice"))
			req.Empty(rec.Events("c1"))
		})
	}
}

func TestController_Connect_After_Close_Fails(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	ctrl, _, _, rec := newTestController(t, "alice", "bob")
	rec.Open("c1")
	s := New("c1", "alice", "bob")

	req.NoError(ctrl.Disconnect(ctx, s))
	req.Equal(Closed, s.State())

	req.ErrorIs(ctrl.Connect(ctx, s), ErrSessionClosed)
}

func TestController_Connect_Store_Failure_Registers_Nothing(t *testing.T) {
	req := require.New(t)
	mock := gomock.NewController(t)
	defer mock.Finish()

	store := mocks.NewMockStore(mock)
	uow := mocks.NewMockUnitOfWork(mock)
	registry := presence.NewRegistry()
	rec := transporttest.NewRecorder()
	rec.Open("c1")
	ctrl := NewController(store, registry, rec, nil, zerolog.Nop())
	boom := errors.New("deadlock detected")

	store.EXPECT().Begin(gomock.Any()).Return(uow, nil)
	uow.EXPECT().UpsertUser(gomock.Any(), "alice", "").Return(&models.User{ID: 1, Username: "alice"}, nil)
	uow.EXPECT().GetUser(gomock.Any(), "bob").Return(&models.User{ID: 2, Username: "bob"}, nil)
	uow.EXPECT().GetOrCreateGroup(gomock.Any(), "alice-bob").Return(&models.Group{Name: "alice-bob"}, nil)
	uow.EXPECT().AddConnection(gomock.Any(), "alice-bob", models.Connection{ConnectionID: "c1", Username: "alice"}).Return(nil)
	uow.EXPECT().GetGroup(gomock.Any(), "alice-bob").Return(&models.Group{Name: "alice-bob"}, nil)
	uow.EXPECT().MessageThread(gomock.Any(), "alice", "bob").Return(nil, nil)
	uow.EXPECT().Complete(gomock.Any()).Return(boom)
	uow.EXPECT().Rollback().Return(nil)

	s := New("c1", "alice", "bob")
	err := ctrl.Connect(context.Background(), s)

	req.ErrorIs(err, boom)
	req.Equal(Closed, s.State())
	req.False(registry.IsOnline("alice"))
	req.Empty(rec.Members("alice-bob"))
	req.Empty(rec.Events("c1"))
}

func TestController_Connect_Joins_Transport_Before_Commit(t *testing.T) {
	req := require.New(t)
	mock := gomock.NewController(t)
	defer mock.Finish()

	store := mocks.NewMockStore(mock)
	uow := mocks.NewMockUnitOfWork(mock)
	rec := transporttest.NewRecorder()
	rec.Open("c1")
	ctrl := NewController(store, presence.NewRegistry(), rec, nil, zerolog.Nop())
	group := &models.Group{Name: "alice-bob", Connections: []models.Connection{{ConnectionID: "c1", Username: "alice"}}}

	store.EXPECT().Begin(gomock.Any()).Return(uow, nil)
	uow.EXPECT().UpsertUser(gomock.Any(), "alice", "").Return(&models.User{ID: 1, Username: "alice"}, nil)
	uow.EXPECT().GetUser(gomock.Any(), "bob").Return(&models.User{ID: 2, Username: "bob"}, nil)
	uow.EXPECT().GetOrCreateGroup(gomock.Any(), "alice-bob").Return(&models.Group{Name: "alice-bob"}, nil)
	uow.EXPECT().AddConnection(gomock.Any(), "alice-bob", models.Connection{ConnectionID: "c1", Username: "alice"}).Return(nil)
	uow.EXPECT().GetGroup(gomock.Any(), "alice-bob").Return(group, nil)
	uow.EXPECT().MessageThread(gomock.Any(), "alice", "bob").Return(nil, nil)
	// anything broadcast once the membership is visible must reach c1
	uow.EXPECT().Complete(gomock.Any()).DoAndReturn(func(context.Context) error {
		req.Equal([]string{"c1"}, rec.Members("alice-bob"))
		return nil
	})
	uow.EXPECT().Rollback().Return(nil)

	req.NoError(ctrl.Connect(context.Background(), New("c1", "alice", "bob")))
	req.Equal([]string{"c1"}, rec.Members("alice-bob"))
}

func TestController_Connect_Marks_Backlog_Read(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	ctrl, store, _, rec := newTestController(t, "alice", "bob")
	ctrl.now = func() time.Time { return time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC) }

	// Given bob wrote twice and alice once
	req.NoError(storage.WithUnitOfWork(ctx, store, func(uow storage.UnitOfWork) error {
		alice, _ := uow.GetUser(ctx, "alice")
		bob, _ := uow.GetUser(ctx, "bob")
		base := time.Now()
		for i, m := range []*models.Message{
			models.NewMessage(bob, alice, "one", base),
			models.NewMessage(alice, bob, "two", base.Add(time.Second)),
			models.NewMessage(bob, alice, "three", base.Add(2*time.Second)),
		} {
			if err := uow.CreateMessage(ctx, m); err != nil {
				return fmt.Errorf("message %d: %w", i, err)
			}
		}
		return nil
	}))

	// When alice opens the thread
	rec.Open("c1")
	req.NoError(ctrl.Connect(ctx, New("c1", "alice", "bob")))

	// Then what bob wrote is read, what alice wrote is untouched
	evt, ok := rec.Last("c1", events.TypeThreadSnapshot)
	req.True(ok)
	thread := evt.(events.ThreadSnapshot).Messages
	req.Len(thread, 3)
	req.Equal([]string{"one", "two", "three"}, []string{thread[0].Content, thread[1].Content, thread[2].Content})
	req.NotNil(thread[0].ReadAt)
	req.Nil(thread[1].ReadAt)
	req.NotNil(thread[2].ReadAt)
	req.True(thread[0].ReadAt.Equal(ctrl.now()))
}

func TestController_Disconnect_Broadcasts_To_Remaining(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	ctrl, _, registry, rec := newTestController(t, "alice", "bob")
	rec.Open("a1")
	rec.Open("b1")
	a := New("a1", "alice", "bob")
	b := New("b1", "bob", "alice")
	req.NoError(ctrl.Connect(ctx, a))
	req.NoError(ctrl.Connect(ctx, b))
	rec.Reset()

	req.NoError(ctrl.Disconnect(ctx, b))

	req.Equal(Closed, b.State())
	req.False(registry.IsOnline("bob"))
	req.Equal([]string{"a1"}, rec.Members("alice-bob"))
	evt, ok := rec.Last("a1", events.TypeGroupMembershipChanged)
	req.True(ok)
	req.Equal([]models.Connection{{ConnectionID: "a1", Username: "alice"}},
		evt.(events.GroupMembershipChanged).Members)
	req.Empty(rec.Events("b1"))

	// second disconnect is a no-op
	req.NoError(ctrl.Disconnect(ctx, b))
}

func TestController_Disconnect_Cleans_Up_When_Membership_Missing(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	ctrl, store, registry, rec := newTestController(t, "alice", "bob")
	rec.Open("a1")
	s := New("a1", "alice", "bob")
	req.NoError(ctrl.Connect(ctx, s))

	// Given the persisted membership vanished
	req.NoError(store.ResetConnections(ctx))

	err := ctrl.Disconnect(ctx, s)

	// Then the error is reported but nothing is left behind
	req.ErrorIs(err, storage.ErrNotFound)
	req.Equal(Closed, s.State())
	req.False(registry.IsOnline("alice"))
	req.Empty(rec.Members("alice-bob"))
}

func TestController_Concurrent_First_Joins(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	ctrl, store, registry, rec := newTestController(t, "alice", "bob")

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		user, peer := "alice", "bob"
		if i%2 == 1 {
			user, peer = peer, user
		}
		id := fmt.Sprintf("c%d", i)
		rec.Open(id)
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- ctrl.Connect(ctx, New(id, user, peer))
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		req.NoError(err)
	}

	var group *models.Group
	req.NoError(storage.WithUnitOfWork(ctx, store, func(uow storage.UnitOfWork) error {
		var err error
		group, err = uow.GetGroup(ctx, "alice-bob")
		return err
	}))
	req.Len(group.Connections, 10)
	req.Len(registry.ConnectionsFor("alice"), 5)
	req.Len(registry.ConnectionsFor("bob"), 5)
}

func TestController_Connect_Records_Activity(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	ctrl, store, _, rec := newTestController(t, "alice", "bob")
	at := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	ctrl.now = func() time.Time { return at }
	rec.Open("c1")

	req.NoError(ctrl.Connect(ctx, New("c1", "alice", "bob")))

	last, ok, err := storage.NewUserActivity(store).LastActive(ctx, "alice")
	req.NoError(err)
	req.True(ok)
	req.True(last.Equal(at))
}
