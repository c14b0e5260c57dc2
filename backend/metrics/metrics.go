// Copyright (C) 2025 efchat.net <tj@efchat.net>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "efmsg_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "efmsg_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "route"},
	)

	// Connection metrics
	OpenConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "efmsg_open_connections",
			Help: "WebSocket connections currently open",
		},
	)

	GroupJoins = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "efmsg_group_joins_total",
			Help: "Connections that joined a conversation group",
		},
	)

	JoinFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "efmsg_join_failures_total",
			Help: "Connections that failed to join a conversation group",
		},
	)

	MembershipNotFound = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "efmsg_membership_not_found_total",
			Help: "Disconnects whose group membership was already gone",
		},
	)

	// Business metrics
	MessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "efmsg_messages_sent_total",
			Help: "Total direct messages stored",
		},
	)

	LiveReadReceipts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "efmsg_live_read_receipts_total",
			Help: "Messages marked read on delivery because the recipient was viewing the thread",
		},
	)

	Notifications = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "efmsg_notifications_total",
			Help: "Out-of-band message notifications sent to connections",
		},
	)

	RateLimitHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "efmsg_rate_limit_hits_total",
			Help: "Inbound frames rejected by the per-connection rate limiter",
		},
	)
)
