// Package metrics collects and exposes Prometheus metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector is the metrics interface used by the aggregator and
// the HTTP layer.
type MetricsCollector interface {
	RecordListSuccess(section string)
	RecordListFailure(section string)
	RecordParseFailure(section string)
	RecordArticlesLoaded(count int)
	RecordLoadSuppressed(reason string)
	RecordLoadLatency(duration time.Duration)
	RecordHTTPStatus(statusCode int)
}

// Collector implements MetricsCollector on a Prometheus registry.
type Collector struct {
	listSuccess    prometheus.Counter
	listFail       prometheus.Counter
	parseFail      prometheus.Counter
	articlesLoaded prometheus.Counter
	loadSuppressed *prometheus.CounterVec
	loadLatency    prometheus.Histogram
	httpStatus     *prometheus.CounterVec
}

// NewCollector creates a Collector and registers its metrics on reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		listSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gaceta_list_success_total",
			Help: "Total number of successful section listings",
		}),
		listFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gaceta_list_fail_total",
			Help: "Total number of failed section listings",
		}),
		parseFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gaceta_article_parse_fail_total",
			Help: "Total number of articles dropped by fetch or parse failures",
		}),
		articlesLoaded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gaceta_articles_loaded_total",
			Help: "Total number of articles loaded into memory",
		}),
		loadSuppressed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gaceta_load_suppressed_total",
			Help: "Total number of suppressed load requests by reason",
		}, []string{"reason"}),
		loadLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "gaceta_load_latency_seconds",
			Help:    "Latency of full aggregation loads in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gaceta_http_status_total",
			Help: "Number of HTTP responses by status code",
		}, []string{"status_code"}),
	}

	reg.MustRegister(
		c.listSuccess,
		c.listFail,
		c.parseFail,
		c.articlesLoaded,
		c.loadSuppressed,
		c.loadLatency,
		c.httpStatus,
	)

	return c
}

// RecordListSuccess records one successful section listing.
func (c *Collector) RecordListSuccess(section string) {
	c.listSuccess.Inc()
}

// RecordListFailure records one failed section listing.
func (c *Collector) RecordListFailure(section string) {
	c.listFail.Inc()
}

// RecordParseFailure records one dropped article.
func (c *Collector) RecordParseFailure(section string) {
	c.parseFail.Inc()
}

// RecordArticlesLoaded records the article count of a completed load.
func (c *Collector) RecordArticlesLoaded(count int) {
	c.articlesLoaded.Add(float64(count))
}

// RecordLoadSuppressed records one suppressed load with its reason
// (in_flight, cache_hit or stale).
func (c *Collector) RecordLoadSuppressed(reason string) {
	c.loadSuppressed.WithLabelValues(reason).Inc()
}

// RecordLoadLatency records the latency of one aggregation load.
func (c *Collector) RecordLoadLatency(duration time.Duration) {
	c.loadLatency.Observe(duration.Seconds())
}

// RecordHTTPStatus records one HTTP response status code.
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// Handler returns the HTTP handler for Prometheus scrapes.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetupMetricsRoute returns an HTTP handler serving the /metrics
// endpoint for Prometheus scrapes.
func SetupMetricsRoute(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	return mux
}
