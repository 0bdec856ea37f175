// Package metrics provides Prometheus exporters for application metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the verdict marketplace.
var (
	// Counters.
	RequestsCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "verdict_requests_created_total",
			Help: "Total number of verdict requests created",
		},
		[]string{"tier"},
	)

	VerdictsSubmittedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "verdicts_submitted_total",
			Help: "Total number of verdicts accepted",
		},
		[]string{"tier"},
	)

	VerdictsRejectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "verdicts_rejected_total",
			Help: "Total number of verdict submissions rejected",
		},
		[]string{"reason"},
	)

	CreditsDebitedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "credits_debited_total",
			Help: "Total credits debited from profiles",
		},
	)

	CreditsGrantedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "credits_granted_total",
			Help: "Total credits granted to profiles",
		},
		[]string{"reason"},
	)

	InsufficientCreditsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "insufficient_credits_total",
			Help: "Total debit attempts rejected for insufficient balance",
		},
	)

	EarningsAccruedCentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "earnings_accrued_cents_total",
			Help: "Total earnings accrued in cents",
		},
		[]string{"tier"},
	)

	BillingEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "billing_events_total",
			Help: "Total billing webhook events received",
		},
		[]string{"type", "status"},
	)

	// Gauges.
	OpenRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "open_requests",
			Help: "Current number of fillable verdict requests",
		},
	)

	// Histograms.
	RequestFillSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "request_fill_seconds",
			Help:    "Time from request creation to completion in seconds",
			Buckets: prometheus.ExponentialBuckets(60, 2, 12), // 1min to ~3 days
		},
		[]string{"tier"},
	)
)
