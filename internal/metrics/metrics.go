// Package metrics exposes the Prometheus collectors Routify registers on
// its admin /metrics endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsServed counts TCP protocol requests handled, by message
	// type and outcome ("ok" or "error").
	RequestsServed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "routify_requests_served_total",
			Help: "Number of TCP protocol requests served, by request type and outcome",
		},
		[]string{"request_type", "outcome"},
	)

	// RequestDuration tracks end-to-end handling time per request type.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "routify_request_duration_seconds",
			Help:    "Time to handle a TCP protocol request, by request type",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"request_type"},
	)
)

var (
	// GAGenerationsRun counts the generations evolved by the winning GA
	// task of each plan request, by planner decision (route_found,
	// direct_walk, no_route). Requests with no successful task add nothing.
	GAGenerationsRun = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "routify_ga_generations_run_total",
			Help: "Number of GA generations evolved, by eventual planner decision",
		},
		[]string{"decision"},
	)

	// GATaskDuration tracks how long a single (start, end) fan-out task
	// takes to seed and evolve its population.
	GATaskDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "routify_ga_task_duration_seconds",
			Help:    "Wall time of a single multi-start GA fan-out task",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"success"},
	)

	// GATaskWinsByStartRole counts how often each representative
	// start-station selection role (s1, sn, sk) produced the fittest
	// route across a fan-out.
	GATaskWinsByStartRole = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "routify_ga_task_wins_by_start_role_total",
			Help: "Number of times a given representative start-station role won its fan-out",
		},
		[]string{"start_role"},
	)
)

var (
	// PlannerDecisions counts the final direct-walk-vs-transit decision
	// made for each plan request.
	PlannerDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "routify_planner_decisions_total",
			Help: "Number of planner decisions, by decision kind",
		},
		[]string{"decision"},
	)
)

var (
	// OutgoingLatency tracks latency of outgoing HTTP requests made by the
	// process itself (the remote config refresh fetch), labeled by URL,
	// method and status.
	OutgoingLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "routify_outgoing_request_duration_seconds",
			Help:    "Latency of outgoing HTTP requests made by the process",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"url", "method", "status"},
	)
)
