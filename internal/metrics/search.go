package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Search outcome labels.
const (
	StatusOK      = "ok"
	StatusInvalid = "invalid"
	StatusError   = "error"
)

var (
	searchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_total",
			Help:      "Searches run, by outcome",
		},
		[]string{"status"},
	)

	searchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "Time spent scanning and ranking stored content",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
	)

	searchResults = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_results",
			Help:      "Number of results returned per successful search",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 500},
		},
	)

	suggestionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "suggestions_total",
			Help:      "Suggestion lookups, by outcome",
		},
		[]string{"status"},
	)
)

// Recorder receives search engine observations.
type Recorder interface {
	ObserveSearch(status string, d time.Duration, results int)
	ObserveSuggest(status string)
}

// Prometheus records into the package collectors.
type Prometheus struct{}

func (Prometheus) ObserveSearch(status string, d time.Duration, results int) {
	searchesTotal.WithLabelValues(status).Inc()
	if status != StatusOK {
		return
	}
	searchDuration.Observe(d.Seconds())
	searchResults.Observe(float64(results))
}

func (Prometheus) ObserveSuggest(status string) {
	suggestionsTotal.WithLabelValues(status).Inc()
}

// Nop discards observations.
type Nop struct{}

func (Nop) ObserveSearch(string, time.Duration, int) {}
func (Nop) ObserveSuggest(string)                    {}
