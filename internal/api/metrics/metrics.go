// Package metrics defines and registers the custom Prometheus metrics of the
// content API. It is the single source of truth for metric names, labels and
// help strings.
//
// Metrics are registered with the default registry on package init through
// promauto; the HTTP layer exposes them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "classmates"

// ── Authentication ───────────────────────────────────────────────────────────

// SignInTotal counts sign-in attempts.
// Label:
//   - result: "success", "invalid_credentials", "inactive" or "error"
var SignInTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sign_in_total",
		Help:      "Total number of sign-in attempts, by result.",
	},
	[]string{"result"},
)

// TokensIssuedTotal counts signed tokens.
// Label:
//   - kind: "access" or "refresh"
var TokensIssuedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tokens_issued_total",
		Help:      "Total number of tokens issued, by kind.",
	},
	[]string{"kind"},
)

// GuardRejectionsTotal counts requests stopped by a guard.
// Labels:
//   - guard: "authenticate" or "authorize"
//   - reason: "missing", "invalid", "inactive", "role"
var GuardRejectionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "guard_rejections_total",
		Help:      "Total number of requests rejected by the auth guard pipeline.",
	},
	[]string{"guard", "reason"},
)

// BootstrapTotal counts startup admin bootstrap outcomes.
// Label:
//   - outcome: "created", "present", "race" or "error"
var BootstrapTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "bootstrap_total",
		Help:      "Outcomes of the startup admin bootstrap step.",
	},
	[]string{"outcome"},
)

// ── Media ────────────────────────────────────────────────────────────────────

// MediaUploadedBytes accumulates stored upload sizes.
// Label:
//   - kind: "image" or "video"
var MediaUploadedBytes = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "media_uploaded_bytes_total",
		Help:      "Total bytes of media stored, by kind.",
	},
	[]string{"kind"},
)

// MediaCleanupQueueDepth tracks pending deletions per cleanup worker.
// Label:
//   - worker_id: numeric worker index
var MediaCleanupQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "media_cleanup_queue_depth",
		Help:      "Current number of media deletions pending in each cleanup worker.",
	},
	[]string{"worker_id"},
)

// MediaCleanupErrorsTotal counts failed deletions.
var MediaCleanupErrorsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "media_cleanup_errors_total",
		Help:      "Total number of media deletions that failed.",
	},
)
