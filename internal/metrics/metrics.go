package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Scope monitoring metrics
var (
	// ScopeChecksTotal tracks scope checks by platform and outcome
	ScopeChecksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scopewatch_scope_checks_total",
			Help: "Total number of scope checks by platform and outcome",
		},
		[]string{"platform", "outcome"},
	)

	// ScopeChangesTotal tracks detected scope changes by type
	ScopeChangesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scopewatch_scope_changes_total",
			Help: "Total number of detected scope changes by change type",
		},
		[]string{"platform", "change_type"},
	)

	// ScopeCheckDuration tracks full scope check duration per program
	ScopeCheckDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scopewatch_scope_check_duration_seconds",
			Help:    "Scope check duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"platform"},
	)
)

// Asset change metrics
var (
	// AssetFieldChangesTotal tracks detected asset field changes
	AssetFieldChangesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scopewatch_asset_field_changes_total",
			Help: "Total number of detected asset field changes by field",
		},
		[]string{"field"},
	)

	// NewAssetsTotal tracks newly discovered assets
	NewAssetsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "scopewatch_new_assets_total",
			Help: "Total number of newly discovered assets",
		},
	)

	// ProbesProcessedTotal tracks processed probe records
	ProbesProcessedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scopewatch_probes_processed_total",
			Help: "Total number of processed probe records by outcome",
		},
		[]string{"outcome"},
	)
)

// Scan decision metrics
var (
	// ScanDecisionsTotal tracks scan policy decisions by reason
	ScanDecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scopewatch_scan_decisions_total",
			Help: "Total number of scan policy decisions by reason",
		},
		[]string{"scan", "reason"},
	)
)

// Notification metrics
var (
	// NotificationsSentTotal tracks alert deliveries by provider and status
	NotificationsSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scopewatch_notifications_sent_total",
			Help: "Total number of notification deliveries by provider and status",
		},
		[]string{"provider", "status"},
	)
)
