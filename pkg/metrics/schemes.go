package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Skip reasons recorded by the apply hook.
const (
	SkipUnreadable    = "unreadable"
	SkipParty         = "party_mismatch"
	SkipNoItems       = "no_matched_items"
	SkipLookupFailed  = "lookup_failed"
	SkipThreshold     = "threshold_not_met"
	SkipUnknownPolicy = "unknown_policy"
)

// SchemeMetrics records scheme application and reporting activity.
type SchemeMetrics struct {
	applications   *prometheus.CounterVec
	skips          *prometheus.CounterVec
	freeLines      prometheus.Counter
	reportDuration prometheus.Histogram
	reportRows     prometheus.Histogram
}

// NewSchemeMetrics registers the scheme metrics on the provided registerer. A nil
// registerer yields a no-op recorder.
func NewSchemeMetrics(reg prometheus.Registerer) *SchemeMetrics {
	if reg == nil {
		return &SchemeMetrics{}
	}
	applications := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "scheme_applications_total",
		Help: "Schemes applied to submitted invoices, by threshold policy.",
	}, []string{"policy"})
	skips := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "scheme_skips_total",
		Help: "Active schemes evaluated but not applied, by reason.",
	}, []string{"reason"})
	freeLines := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "scheme_free_lines_total",
		Help: "Free-goods lines appended to invoices.",
	})
	reportDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "scheme_report_duration_seconds",
		Help:    "Duration of promotional scheme report executions.",
		Buckets: prometheus.DefBuckets,
	})
	reportRows := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "scheme_report_rows",
		Help:    "Rows returned per promotional scheme report execution.",
		Buckets: prometheus.ExponentialBuckets(1, 4, 8),
	})
	reg.MustRegister(applications, skips, freeLines, reportDuration, reportRows)
	return &SchemeMetrics{
		applications:   applications,
		skips:          skips,
		freeLines:      freeLines,
		reportDuration: reportDuration,
		reportRows:     reportRows,
	}
}

// IncApplied counts one applied scheme.
func (m *SchemeMetrics) IncApplied(policy string) {
	if m == nil || m.applications == nil {
		return
	}
	m.applications.WithLabelValues(normalizeLabel(policy)).Inc()
}

// IncSkipped counts one skipped scheme.
func (m *SchemeMetrics) IncSkipped(reason string) {
	if m == nil || m.skips == nil {
		return
	}
	m.skips.WithLabelValues(normalizeLabel(reason)).Inc()
}

// AddFreeLines counts appended free-goods lines.
func (m *SchemeMetrics) AddFreeLines(n int) {
	if m == nil || m.freeLines == nil || n <= 0 {
		return
	}
	m.freeLines.Add(float64(n))
}

// ObserveReport records a report execution.
func (m *SchemeMetrics) ObserveReport(duration time.Duration, rows int) {
	if m == nil || m.reportDuration == nil {
		return
	}
	m.reportDuration.Observe(duration.Seconds())
	m.reportRows.Observe(float64(rows))
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
