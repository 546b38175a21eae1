// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Rejection reasons for BallotRejections
const (
	ReasonNotFound     = "not_found"
	ReasonAlreadyVoted = "already_voted"
	ReasonInvalid      = "invalid"
)

// Notification kinds for NotificationFailures
const (
	KindManage = "manage"
	KindVote   = "vote"
)

var (
	PollsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "interpoll_polls_created_total",
		Help: "Polls created.",
	})

	BallotsCast = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "interpoll_ballots_cast_total",
		Help: "Successful voting actions by ballot mode.",
	}, []string{"mode"})

	BallotRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "interpoll_ballot_rejections_total",
		Help: "Rejected voting actions by reason.",
	}, []string{"reason"})

	NotificationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "interpoll_notifications_failed_total",
		Help: "Notifications that could not be handed to the mail transport.",
	}, []string{"kind"})

	OperationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "interpoll_operation_duration_seconds",
		Help:    "Duration of domain operations.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
)

// ObserveSince records the time elapsed since start for operation
func ObserveSince(operation string, start time.Time) {
	OperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// Handler serves the default registry in the Prometheus text format
func Handler() http.Handler {
	return promhttp.Handler()
}
