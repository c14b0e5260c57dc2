// Copyright (C) 2025 efchat.net <tj@efchat.net>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package delivery

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/efchatnet/efmsg/backend/events"
	"github.com/efchatnet/efmsg/backend/mocks"
	"github.com/efchatnet/efmsg/backend/models"
	"github.com/efchatnet/efmsg/backend/presence"
	"github.com/efchatnet/efmsg/backend/session"
	"github.com/efchatnet/efmsg/backend/storage"
	"github.com/efchatnet/efmsg/backend/storage/memory"
	"github.com/efchatnet/efmsg/backend/transport/transporttest"
)

type harness struct {
	store    *memory.Store
	registry *presence.Registry
	rec      *transporttest.Recorder
	ctrl     *session.Controller
	engine   *Engine
	notifier *fakeNotifier
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent map[string][]events.MessageNotification
}

func (f *fakeNotifier) Notify(_ context.Context, recipient string, n events.MessageNotification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sent == nil {
		f.sent = make(map[string][]events.MessageNotification)
	}
	f.sent[recipient] = append(f.sent[recipient], n)
	return nil
}

func newHarness(t *testing.T, users ...string) *harness {
	t.Helper()
	store := memory.NewStore()
	require.NoError(t, store.Seed(context.Background(), users...))
	registry := presence.NewRegistry()
	rec := transporttest.NewRecorder()
	notifier := &fakeNotifier{}
	return &harness{
		store:    store,
		registry: registry,
		rec:      rec,
		ctrl:     session.NewController(store, registry, rec, nil, zerolog.Nop()),
		engine:   NewEngine(store, registry, rec, zerolog.Nop(), WithNotifier(notifier)),
		notifier: notifier,
	}
}

func (h *harness) connect(t *testing.T, connectionID, username, peer string) *session.Session {
	t.Helper()
	h.rec.Open(connectionID)
	s := session.New(connectionID, username, peer)
	require.NoError(t, h.ctrl.Connect(context.Background(), s))
	return s
}

func (h *harness) disconnect(t *testing.T, s *session.Session) {
	t.Helper()
	require.NoError(t, h.ctrl.Disconnect(context.Background(), s))
	h.rec.Close(s.ConnectionID)
}

func (h *harness) thread(t *testing.T, requester, other string) []models.Message {
	t.Helper()
	ctx := context.Background()
	var thread []models.Message
	require.NoError(t, storage.WithUnitOfWork(ctx, h.store, func(uow storage.UnitOfWork) error {
		var err error
		thread, err = uow.MessageThread(ctx, requester, other)
		return err
	}))
	return thread
}

func TestEngine_Alice_Bob_Conversation(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	h := newHarness(t, "alice", "bob", "carol")

	// Given alice opens the thread with bob and there is no history
	h.connect(t, "a1", "alice", "bob")
	snap, ok := h.rec.Last("a1", events.TypeThreadSnapshot)
	req.True(ok)
	req.Empty(snap.(events.ThreadSnapshot).Messages)

	// When alice says hi while bob is offline
	hi, err := h.engine.Send(ctx, "alice", "bob", "hi")
	req.NoError(err)

	// Then only alice's connection sees it and nobody is notified
	req.Nil(hi.ReadAt)
	req.Equal([]events.Type{
		events.TypeGroupMembershipChanged,
		events.TypeThreadSnapshot,
		events.TypeMessageDelivered,
	}, h.rec.Types("a1"))
	req.Empty(h.notifier.sent)

	// When bob opens the thread
	b1 := h.connect(t, "b1", "bob", "alice")

	// Then his snapshot holds "hi", now read
	snap, ok = h.rec.Last("b1", events.TypeThreadSnapshot)
	req.True(ok)
	backlog := snap.(events.ThreadSnapshot).Messages
	req.Len(backlog, 1)
	req.Equal("hi", backlog[0].Content)
	req.NotNil(backlog[0].ReadAt)
	req.NotNil(h.thread(t, "alice", "bob")[0].ReadAt)

	// And alice sees bob join
	joined, ok := h.rec.Last("a1", events.TypeGroupMembershipChanged)
	req.True(ok)
	req.Len(joined.(events.GroupMembershipChanged).Members, 2)

	// When alice sends while bob is viewing the thread
	yo, err := h.engine.Send(ctx, "alice", "bob", "yo")
	req.NoError(err)

	// Then both connections get it and it is stored as read
	req.NotNil(yo.ReadAt)
	for _, id := range []string{"a1", "b1"} {
		evt, ok := h.rec.Last(id, events.TypeMessageDelivered)
		req.True(ok)
		req.Equal(yo.ID, evt.(events.MessageDelivered).Message.ID)
	}
	stored := h.thread(t, "bob", "alice")
	req.Len(stored, 2)
	req.NotNil(stored[1].ReadAt)
	req.Empty(h.notifier.sent)

	// Given bob has another tab open on a different thread and closes this one
	h.connect(t, "b2", "bob", "carol")
	h.disconnect(t, b1)
	left, ok := h.rec.Last("a1", events.TypeGroupMembershipChanged)
	req.True(ok)
	req.Equal([]models.Connection{{ConnectionID: "a1", Username: "alice"}},
		left.(events.GroupMembershipChanged).Members)
	h.rec.Reset()

	// When alice sends again
	there, err := h.engine.Send(ctx, "alice", "bob", "u there?")
	req.NoError(err)

	// Then the message stays unread, bob's other tab is notified and
	// alice's tab only sees the delivery
	req.Nil(there.ReadAt)
	req.Equal([]events.Type{events.TypeMessageDelivered}, h.rec.Types("a1"))
	req.Equal([]events.Type{events.TypeMessageNotification}, h.rec.Types("b2"))
	req.Empty(h.rec.Types("b1"))

	n, _ := h.rec.Last("b2", events.TypeMessageNotification)
	req.Equal(events.MessageNotification{Username: "alice"}, n)
	req.Equal([]events.MessageNotification{{Username: "alice"}}, h.notifier.sent["bob"])
}

func TestEngine_Notification_Carries_KnownAs(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	h := newHarness(t, "bob")
	req.NoError(storage.WithUnitOfWork(ctx, h.store, func(uow storage.UnitOfWork) error {
		_, err := uow.UpsertUser(ctx, "alice", "Alice A.")
		return err
	}))
	h.rec.Open("b1")
	h.registry.Add("bob", "b1")

	_, err := h.engine.Send(ctx, "alice", "bob", "ping")
	req.NoError(err)

	n, ok := h.rec.Last("b1", events.TypeMessageNotification)
	req.True(ok)
	req.Equal("Alice A.", n.(events.MessageNotification).KnownAs)
}

func TestEngine_Send_Validation_Mutates_Nothing(t *testing.T) {
	h := newHarness(t, "alice", "bob")
	h.connect(t, "a1", "alice", "bob")
	h.rec.Reset()

	tests := []struct {
		name      string
		sender    string
		recipient string
		content   string
		want      error
	}{
		{"self send", "alice", "Alice", "hi", models.ErrSelfSend},
		{"empty content", "alice", "bob", "", models.ErrInvalidMessage},
		{"blank content", "alice", "bob", "  \n\t", models.ErrInvalidMessage},
		{"too long", "alice", "bob", strings.Repeat("x", DefaultMaxMessageLength+1), models.ErrInvalidMessage},
		{"unknown recipient", "alice", "nobody", "hi", models.ErrUserNotFound},
		{"unknown sender", "ghost", "bob", "hi", models.ErrUserNotFound},
		{"no sender", "", "bob", "hi", models.ErrUnauthenticated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)

			msg, err := h.engine.Send(context.Background(), tt.sender, tt.recipient, tt.content)

			req.ErrorIs(err, tt.want)
			req.Nil(msg)
			req.Empty(h.thread(t, "alice", "bob"))
			req.Empty(h.rec.Types("a1"))
		})
	}
}

func TestEngine_Recipient_Other_Tab_Not_Notified_While_Viewing(t *testing.T) {
	req := require.New(t)
	h := newHarness(t, "alice", "bob", "carol")
	h.connect(t, "a1", "alice", "bob")
	h.connect(t, "b1", "bob", "alice")
	h.connect(t, "b2", "bob", "carol")
	h.rec.Reset()

	msg, err := h.engine.Send(context.Background(), "alice", "bob", "hello")
	req.NoError(err)

	req.NotNil(msg.ReadAt)
	req.Empty(h.rec.Types("b2"))
	req.Empty(h.notifier.sent)
}

func TestEngine_Hyphenated_Usernames_Stay_In_Their_Own_Thread(t *testing.T) {
	req := require.New(t)
	h := newHarness(t, "a", "b-c", "a-b", "c")

	// Given c views the thread with a-b, whose plain key would read "a-b-c"
	h.connect(t, "c1", "c", "a-b")
	h.connect(t, "bc1", "b-c", "a")
	h.rec.Reset()

	// When a writes to b-c
	msg, err := h.engine.Send(context.Background(), "a", "b-c", "private to b-c")
	req.NoError(err)

	// Then only b-c gets it
	req.NotNil(msg.ReadAt)
	req.Empty(h.rec.Types("c1"))
	delivered, ok := h.rec.Last("bc1", events.TypeMessageDelivered)
	req.True(ok)
	req.Equal("private to b-c", delivered.(events.MessageDelivered).Message.Content)
}

// commitHookStore runs onCommit once, right after the next unit of work
// is completed.
type commitHookStore struct {
	storage.Store
	mu       sync.Mutex
	onCommit func()
}

func (s *commitHookStore) Begin(ctx context.Context) (storage.UnitOfWork, error) {
	uow, err := s.Store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &commitHookUnit{UnitOfWork: uow, store: s}, nil
}

type commitHookUnit struct {
	storage.UnitOfWork
	store *commitHookStore
}

func (u *commitHookUnit) Complete(ctx context.Context) error {
	if err := u.UnitOfWork.Complete(ctx); err != nil {
		return err
	}
	u.store.mu.Lock()
	hook := u.store.onCommit
	u.store.onCommit = nil
	u.store.mu.Unlock()
	if hook != nil {
		hook()
	}
	return nil
}

func TestEngine_Send_Right_After_Join_Commit_Reaches_Joiner(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	store := memory.NewStore()
	req.NoError(store.Seed(ctx, "alice", "bob"))
	hooked := &commitHookStore{Store: store}
	registry := presence.NewRegistry()
	rec := transporttest.NewRecorder()
	ctrl := session.NewController(hooked, registry, rec, nil, zerolog.Nop())
	engine := NewEngine(hooked, registry, rec, zerolog.Nop())

	// Given alice sends the moment bob's membership is committed
	var (
		sent    *models.Message
		sendErr error
	)
	hooked.onCommit = func() {
		sent, sendErr = engine.Send(ctx, "alice", "bob", "during join")
	}
	rec.Open("b1")

	// When bob finishes joining
	req.NoError(ctrl.Connect(ctx, session.New("b1", "bob", "alice")))

	// Then the message is read and bob's connection has it
	req.NoError(sendErr)
	req.NotNil(sent)
	req.NotNil(sent.ReadAt)
	delivered, ok := rec.Last("b1", events.TypeMessageDelivered)
	req.True(ok)
	req.Equal(sent.ID, delivered.(events.MessageDelivered).Message.ID)
}

func TestEngine_Max_Length_Option(t *testing.T) {
	req := require.New(t)
	h := newHarness(t, "alice", "bob")
	engine := NewEngine(h.store, h.registry, h.rec, zerolog.Nop(), WithMaxMessageLength(3))

	_, err := engine.Send(context.Background(), "alice", "bob", "four")
	req.ErrorIs(err, models.ErrInvalidMessage)

	// multi-byte characters count once
	_, err = engine.Send(context.Background(), "alice", "bob", "héé")
	req.NoError(err)
}

func TestEngine_ReadState_Failure_Returns_DeliveryError(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := mocks.NewMockStore(ctrl)
	create := mocks.NewMockUnitOfWork(ctrl)
	markRead := mocks.NewMockUnitOfWork(ctrl)
	rec := transporttest.NewRecorder()
	rec.Open("b1")
	rec.AddToGroup("b1", "alice-bob")
	engine := NewEngine(store, presence.NewRegistry(), rec, zerolog.Nop())

	alice := &models.User{ID: 1, Username: "alice"}
	bob := &models.User{ID: 2, Username: "bob"}
	boom := errors.New("connection reset")

	gomock.InOrder(
		store.EXPECT().Begin(gomock.Any()).Return(create, nil),
		create.EXPECT().GetUser(gomock.Any(), "alice").Return(alice, nil),
		create.EXPECT().GetUser(gomock.Any(), "bob").Return(bob, nil),
		create.EXPECT().CreateMessage(gomock.Any(), gomock.Any()).Return(nil).Times(1),
		create.EXPECT().Complete(gomock.Any()).Return(nil),
		create.EXPECT().Rollback().Return(nil),

		store.EXPECT().Begin(gomock.Any()).Return(markRead, nil),
		markRead.EXPECT().GetGroup(gomock.Any(), "alice-bob").Return(&models.Group{
			Name:        "alice-bob",
			Connections: []models.Connection{{ConnectionID: "b1", Username: "bob"}},
		}, nil),
		markRead.EXPECT().MarkRead(gomock.Any(), gomock.Len(1), gomock.Any()).Return(boom),
		markRead.EXPECT().Rollback().Return(nil),
	)

	msg, err := engine.Send(ctx, "alice", "bob", "hi")

	req.Nil(msg)
	req.ErrorIs(err, boom)
	var deliveryErr *DeliveryError
	req.ErrorAs(err, &deliveryErr)
	req.Equal("hi", deliveryErr.Message.Content)
	req.Nil(deliveryErr.Message.ReadAt)
	// nothing was broadcast for a message whose read state is unknown
	req.Empty(rec.Types("b1"))
}

func TestEngine_Store_Failure_On_Create(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := mocks.NewMockStore(ctrl)
	store.EXPECT().Begin(gomock.Any()).Return(nil, errors.New("pool exhausted"))
	engine := NewEngine(store, presence.NewRegistry(), transporttest.NewRecorder(), zerolog.Nop())

	_, err := engine.Send(context.Background(), "alice", "bob", "hi")

	req.Error(err)
	var deliveryErr *DeliveryError
	req.False(errors.As(err, &deliveryErr))
}
