// Copyright (C) 2025 efchat.net <tj@efchat.net>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/efchatnet/efmsg/backend/events"
)

const (
	// ActivityTTL bounds how long an idle user's last-active key is kept
	ActivityTTL = 30 * 24 * time.Hour

	activityPrefix = "dm:active:" // dm:active:{username} - RFC3339 timestamp
	notifyPrefix   = "dm:notify:" // dm:notify:{username} - pub/sub channel
)

// ActivityStore keeps last-active times in Redis and fans notifications
// out to other services over pub/sub.
type ActivityStore struct {
	rdb *redis.Client
}

func NewActivityStore(rdb *redis.Client) *ActivityStore {
	return &ActivityStore{rdb: rdb}
}

// Connect parses redisURL and pings the server.
func Connect(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return rdb, nil
}

func (s *ActivityStore) Touch(ctx context.Context, username string, at time.Time) error {
	if err := s.rdb.Set(ctx, activityPrefix+username, at.UTC().Format(time.RFC3339Nano), ActivityTTL).Err(); err != nil {
		return fmt.Errorf("failed to store activity: %w", err)
	}
	return nil
}

func (s *ActivityStore) LastActive(ctx context.Context, username string) (time.Time, bool, error) {
	val, err := s.rdb.Get(ctx, activityPrefix+username).Result()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to get activity: %w", err)
	}
	at, err := time.Parse(time.RFC3339Nano, val)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("malformed activity for %s: %w", username, err)
	}
	return at, true, nil
}

// Notify publishes n on the recipient's notification channel.
func (s *ActivityStore) Notify(ctx context.Context, recipient string, n events.MessageNotification) error {
	data, err := events.Encode(n)
	if err != nil {
		return err
	}
	return s.rdb.Publish(ctx, notifyPrefix+recipient, data).Err()
}

// SubscribeNotifications subscribes to username's notification channel.
// The caller closes the returned PubSub.
func (s *ActivityStore) SubscribeNotifications(ctx context.Context, username string) *redis.PubSub {
	return s.rdb.Subscribe(ctx, notifyPrefix+username)
}
