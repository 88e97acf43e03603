// Package metrics declares the bot's domain collectors and serves the
// default registry over HTTP. Transport-level collectors live in
// core/telegram/middleware.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "wbcoef"

var (
	UpstreamRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "upstream_requests_total",
		Help:      "Marketplace API calls by operation and outcome.",
	}, []string{"op", "status"})

	SweeperRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sweeper_runs_total",
		Help:      "Expired-coefficient sweeps by outcome.",
	}, []string{"status"})

	SweeperDeletedRows = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sweeper_deleted_rows_total",
		Help:      "Coefficient rows removed because their date passed.",
	})

	BroadcastMessages = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "broadcast_messages_total",
		Help:      "Admin broadcast deliveries by result.",
	}, []string{"result"})
)

// Outcome labels shared by the counters above.
const (
	StatusOK    = "ok"
	StatusError = "error"
	StatusEmpty = "empty"
)
