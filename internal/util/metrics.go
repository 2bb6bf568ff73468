package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SalesCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sales_created_total",
		Help: "Total number of sales recorded",
	})

	SalesDeletedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sales_deleted_total",
		Help: "Total number of sales deleted, by whether stock was restored",
	}, []string{"restored"})

	SaleRevenueTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sale_revenue_total",
		Help: "Sum of totalAmount over recorded sales",
	})

	SaleIdempotentReplaysTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sale_idempotent_replays_total",
		Help: "Sales returned from a repeated Idempotency-Key instead of being created",
	})

	StockAdjustmentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stock_adjustments_total",
		Help: "Total number of direct stock adjustments",
	}, []string{"direction"})

	InsufficientStockTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "insufficient_stock_total",
		Help: "Deductions rejected for insufficient stock",
	}, []string{"source"})

	StockMutationLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "stock_mutation_latency_seconds",
		Help:    "Latency of stock mutations",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	LowStockAlertsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "low_stock_alerts_total",
		Help: "Low-stock conditions that were dispatched to notification sinks",
	})

	LowStockAlertsSuppressedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "low_stock_alerts_suppressed_total",
		Help: "Low-stock alerts skipped because the product is in its cooldown window",
	})

	NotificationFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notification_failures_total",
		Help: "Notification dispatches that failed",
	}, []string{"channel"})

	AnalyticsCacheTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "analytics_cache_total",
		Help: "Analytics cache lookups by result",
	}, []string{"result"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
