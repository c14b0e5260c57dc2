// Copyright (C) 2025 efchat.net <tj@efchat.net>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package transporttest provides an in-memory Transport that records what
// every connection received.
package transporttest

import (
	"context"
	"sort"
	"sync"

	"github.com/samber/lo"

	"github.com/efchatnet/efmsg/backend/events"
	"github.com/efchatnet/efmsg/backend/transport"
)

// Recorder implements transport.Transport. Connections exist once they
// are opened with Open; sending to an unopened connection fails like the
// real hub does for a closed socket.
type Recorder struct {
	mu       sync.Mutex
	open     map[string]bool
	received map[string][]events.Event
	groups   map[string]map[string]struct{}
}

var _ transport.Transport = (*Recorder)(nil)

func NewRecorder() *Recorder {
	return &Recorder{
		open:     make(map[string]bool),
		received: make(map[string][]events.Event),
		groups:   make(map[string]map[string]struct{}),
	}
}

// Open makes connectionID reachable.
func (r *Recorder) Open(connectionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.open[connectionID] = true
}

// Close makes connectionID unreachable, as a dropped socket would.
func (r *Recorder) Close(connectionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.open, connectionID)
}

func (r *Recorder) Send(_ context.Context, connectionID string, evt events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.open[connectionID] {
		return transport.ErrUnknownConnection
	}
	r.received[connectionID] = append(r.received[connectionID], evt)
	return nil
}

func (r *Recorder) Broadcast(_ context.Context, group string, evt events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id := range r.groups[group] {
		if r.open[id] {
			r.received[id] = append(r.received[id], evt)
		}
	}
	return nil
}

func (r *Recorder) AddToGroup(connectionID, group string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.groups[group]; !ok {
		r.groups[group] = make(map[string]struct{})
	}
	r.groups[group][connectionID] = struct{}{}
}

func (r *Recorder) RemoveFromGroup(connectionID, group string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if members, ok := r.groups[group]; ok {
		delete(members, connectionID)
		if len(members) == 0 {
			delete(r.groups, group)
		}
	}
}

// Events returns everything connectionID received, in order.
func (r *Recorder) Events(connectionID string) []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]events.Event(nil), r.received[connectionID]...)
}

// Types returns the types of everything connectionID received, in order.
func (r *Recorder) Types(connectionID string) []events.Type {
	return lo.Map(r.Events(connectionID), func(e events.Event, _ int) events.Type {
		return e.Type()
	})
}

// Last returns the most recent event of type t received by connectionID.
func (r *Recorder) Last(connectionID string, t events.Type) (events.Event, bool) {
	evts := r.Events(connectionID)
	for i := len(evts) - 1; i >= 0; i-- {
		if evts[i].Type() == t {
			return evts[i], true
		}
	}
	return nil, false
}

// Members returns the sorted connection ids of a transport group.
func (r *Recorder) Members(group string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := lo.Keys(r.groups[group])
	sort.Strings(ids)
	return ids
}

// Reset forgets everything received so far.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.received = make(map[string][]events.Event)
}
