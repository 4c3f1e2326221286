package observ

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Webhook and command counters. Labels are kept low-cardinality:
// event kind, drop reason, command name, and a coarse outcome.
var (
	WebhookEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "handwave_webhook_events_total",
		Help: "Zoom webhook events accepted for processing, by event kind.",
	}, []string{"event"})

	WebhookDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "handwave_webhook_dropped_total",
		Help: "Zoom webhook deliveries dropped before processing.",
	}, []string{"reason"})

	Commands = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "handwave_commands_total",
		Help: "Operator meeting commands handled, by command and outcome.",
	}, []string{"command", "outcome"})
)
