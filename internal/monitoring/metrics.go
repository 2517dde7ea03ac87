package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HttpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	ResponseTimeHistogram = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_response_time_seconds",
			Help:    "Histogram of response times",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	PurchasesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shop_purchases_total",
			Help: "Purchase attempts by outcome",
		},
		[]string{"result"},
	)

	LinkAllocationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shop_link_allocations_total",
			Help: "Access token allocation attempts by outcome",
		},
		[]string{"result"},
	)

	DepositsResolvedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shop_deposits_resolved_total",
			Help: "Deposit requests resolved by decision",
		},
		[]string{"decision"},
	)

	ReferralCommissionPaid = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "shop_referral_commission_paid_total",
			Help: "Sum of referral commission credited to referrers",
		},
	)

	WatcherCyclesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shop_watcher_cycles_total",
			Help: "Expiry watcher cycles by outcome",
		},
		[]string{"result"},
	)

	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shop_notifications_total",
			Help: "Outbound notifications by outcome",
		},
		[]string{"result"},
	)
)
