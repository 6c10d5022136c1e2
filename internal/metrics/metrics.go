package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Record outcomes used as the "outcome" label
const (
	OutcomeResolved   = "resolved"
	OutcomeUnresolved = "unresolved"
	OutcomeFailed     = "failed"
)

var (
	RecordsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "geoenrich_records_total",
		Help: "Total number of processed tracking records by outcome",
	}, []string{"outcome"})
	ResolveDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "geoenrich_resolve_duration_ms",
		Help:    "Point resolution duration in milliseconds",
		Buckets: []float64{0.1, 0.5, 1, 5, 10, 20, 50, 100, 500},
	})
	UpdateRetriesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "geoenrich_update_retries_total",
		Help: "Total retried record updates",
	})
	CacheHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "geoenrich_cache_hits_total",
		Help: "Total resolution cache hits",
	})
	CacheMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "geoenrich_cache_misses_total",
		Help: "Total resolution cache misses",
	})
	PolygonsLoaded = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "geoenrich_polygons_loaded",
		Help: "Number of keys in the boundary index",
	})
	ImportErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "geoenrich_import_errors_total",
		Help: "Total placemarks that failed to import",
	})
	RunsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "geoenrich_runs_total",
		Help: "Total enrichment runs",
	})
)

func init() {
	prometheus.MustRegister(RecordsTotal)
	prometheus.MustRegister(ResolveDurationMs)
	prometheus.MustRegister(UpdateRetriesTotal)
	prometheus.MustRegister(CacheHitsTotal)
	prometheus.MustRegister(CacheMissesTotal)
	prometheus.MustRegister(PolygonsLoaded)
	prometheus.MustRegister(ImportErrorsTotal)
	prometheus.MustRegister(RunsTotal)
}

// Handler exposes the registered metrics for scraping
func Handler() http.Handler { return promhttp.Handler() }
