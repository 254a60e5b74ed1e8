package metrics

import (
	"slices"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures a Manager.
type Option func(*Manager)

// WithNames sets the namespace, the subsystem and a prefix for every metric
// name. Empty values keep the defaults. Characters Prometheus does not allow
// in a name become underscores and a non-empty prefix always ends in one, so
// "api" yields imobrank_ranking_api_events_recorded_total.
func WithNames(namespace, subsystem, prefix string) Option {
	return func(m *Manager) {
		if ns := metricName(namespace); ns != "" {
			m.namespace = ns
		}
		if sub := metricName(subsystem); sub != "" {
			m.subsystem = sub
		}
		if p := metricName(prefix); p != "" {
			m.metricPrefix = strings.TrimSuffix(p, "_") + "_"
		}
	}
}

// WithLatencyBuckets sets the buckets of the ranking, store and HTTP latency
// histograms. Buckets are sorted and deduplicated; non-positive ones are
// dropped.
func WithLatencyBuckets(buckets []float64) Option {
	return func(m *Manager) {
		var bs []float64
		for _, b := range buckets {
			if b > 0 {
				bs = append(bs, b)
			}
		}
		if len(bs) == 0 {
			return
		}
		slices.Sort(bs)
		m.histogramBuckets = slices.Compact(bs)
	}
}

// WithMetricsEnabled turns the Record* helpers into no-ops when false. The
// collectors are still registered so /metrics keeps its shape.
func WithMetricsEnabled(enabled bool) Option {
	return func(m *Manager) {
		m.enabled = enabled
	}
}

// WithRefreshInterval sets how often cmd samples the system and pool gauges.
func WithRefreshInterval(interval time.Duration) Option {
	return func(m *Manager) {
		if interval > 0 {
			m.refreshInterval = interval
		}
	}
}

// WithCustomLabels attaches constant labels, such as the store driver, to
// every collector.
func WithCustomLabels(labels map[string]string) Option {
	return func(m *Manager) {
		if len(labels) > 0 {
			m.customLabels = labels
		}
	}
}

// WithPrometheusRegistry registers the collectors on registry instead of the
// default registerer.
func WithPrometheusRegistry(registry prometheus.Registerer) Option {
	return func(m *Manager) {
		if registry != nil {
			m.registry = registry
		}
	}
}

func metricName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			return r
		default:
			return '_'
		}
	}, s)
}
