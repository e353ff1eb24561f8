// Package observability exposes Prometheus metrics for the coin economy:
// ledger operation counts and latencies, rate-limit decisions, earning-rule
// outcomes, and redemption activity. Served on /metrics when enabled.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ─── Ledger Metrics ─────────────────────────────────────────────────────────

// LedgerOps counts wallet ledger operations by operation and result.
var LedgerOps = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "coinledger",
	Subsystem: "ledger",
	Name:      "ops_total",
	Help:      "Total wallet ledger operations by operation and result.",
}, []string{"op", "result"})

// LedgerOpDuration tracks wallet ledger operation latency.
var LedgerOpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "coinledger",
	Subsystem: "ledger",
	Name:      "op_duration_seconds",
	Help:      "Wallet ledger operation latency in seconds.",
	Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
}, []string{"op"})

// CoinsMoved counts coins moved through the ledger by entry kind.
var CoinsMoved = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "coinledger",
	Subsystem: "ledger",
	Name:      "coins_total",
	Help:      "Total coins moved through the ledger by entry kind.",
}, []string{"kind"})

// ─── Earning Metrics ────────────────────────────────────────────────────────

// EarnRequests counts earning-engine decisions by task type and outcome.
var EarnRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "coinledger",
	Subsystem: "earning",
	Name:      "requests_total",
	Help:      "Total earn requests by task type and outcome.",
}, []string{"task", "outcome"})

// ─── Redemption Metrics ─────────────────────────────────────────────────────

// Redemptions counts redemption attempts by outcome.
var Redemptions = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "coinledger",
	Subsystem: "redemption",
	Name:      "attempts_total",
	Help:      "Total redemption attempts by outcome.",
}, []string{"outcome"})

// ─── Rate Limiter Metrics ───────────────────────────────────────────────────

// RateLimitDecisions counts rate-limit checks by concern and decision.
var RateLimitDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "coinledger",
	Subsystem: "ratelimit",
	Name:      "decisions_total",
	Help:      "Total rate-limit checks by concern and decision.",
}, []string{"scope", "decision"})

// ─── Admin Metrics ──────────────────────────────────────────────────────────

// AdminAdjustments counts manual adjustments by action and result.
var AdminAdjustments = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "coinledger",
	Subsystem: "admin",
	Name:      "adjustments_total",
	Help:      "Total manual admin adjustments by action and result.",
}, []string{"action", "result"})
