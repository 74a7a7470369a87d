// Package metrics collects and exposes prometheus metrics for the slideshow
package metrics

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector records slideshow events
type Collector struct {
	recoveryAttempts prometheus.Counter
	recoveryFailures prometheus.Counter
	markedBad        prometheus.Counter
	urlsRefreshed    prometheus.Counter
	geoLookups       *prometheus.CounterVec
	reportedErrors   *prometheus.CounterVec
}

// NewCollector creates a Collector and registers its metrics with reg
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		recoveryAttempts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "framesaver_recovery_attempts_total",
			Help: "Bulk url refresh cycles started after a photo failed to load",
		}),
		recoveryFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "framesaver_recovery_failures_total",
			Help: "Bulk url refresh cycles whose photo fetch failed",
		}),
		markedBad: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "framesaver_photos_marked_bad_total",
			Help: "Photos permanently removed from the rotation",
		}),
		urlsRefreshed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "framesaver_urls_refreshed_total",
			Help: "Slide urls replaced by a refresh cycle",
		}),
		geoLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "framesaver_geo_lookups_total",
			Help: "Reverse geocoding lookups by result",
		}, []string{"result"}),
		reportedErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "framesaver_reported_errors_total",
			Help: "Errors reported by slideshow components",
		}, []string{"where"}),
	}

	reg.MustRegister(
		c.recoveryAttempts,
		c.recoveryFailures,
		c.markedBad,
		c.urlsRefreshed,
		c.geoLookups,
		c.reportedErrors,
	)

	return c
}

func (c *Collector) RecordRecoveryAttempt() {
	c.recoveryAttempts.Inc()
}

func (c *Collector) RecordRecoveryFailure() {
	c.recoveryFailures.Inc()
}

func (c *Collector) RecordMarkedBad(count int) {
	c.markedBad.Add(float64(count))
}

func (c *Collector) RecordURLsRefreshed(count int) {
	c.urlsRefreshed.Add(float64(count))
}

// RecordGeoLookup records a lookup result, one of ok, network or error
func (c *Collector) RecordGeoLookup(result string) {
	c.geoLookups.WithLabelValues(result).Inc()
}

// ReportError logs the error and counts it by where it happened
func (c *Collector) ReportError(msg, where string) {
	slog.Error(msg, "where", where)
	c.reportedErrors.WithLabelValues(where).Inc()
}

// Handler returns the prometheus scrape handler
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
