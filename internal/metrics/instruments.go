package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Namespace prefixes the exporter's own metrics.
const Namespace = "rp_exporter"

// Label values of the self metrics.
const (
	ResultSuccess = "success"
	ResultAborted = "aborted"

	SkipMalformed    = "malformed"
	SkipDetailFailed = "detail_failed"
)

// Instruments are the exporter's self metrics. A nil *Instruments is valid
// and records nothing.
type Instruments struct {
	collections        *prometheus.CounterVec
	collectionDuration prometheus.Histogram
	upstreamRequests   *prometheus.CounterVec
	skippedEntries     *prometheus.CounterVec
	lastSuccess        prometheus.Gauge
	series             prometheus.GaugeFunc
}

// NewInstruments creates the self metrics. The series gauge reports the size
// of state at scrape time.
func NewInstruments(state *GaugeState) *Instruments {
	i := &Instruments{
		collections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "collections_total",
			Help:      "Collection cycles run, by result.",
		}, []string{"result"}),
		collectionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "collection_duration_seconds",
			Help:      "Wall time of a collection cycle.",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		}),
		upstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "upstream_requests_total",
			Help:      "Console API requests, by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),
		skippedEntries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "skipped_entries_total",
			Help:      "Topic or partition entries skipped during collection, by reason.",
		}, []string{"reason"}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last collection cycle that reached the console.",
		}),
		series: prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "series",
			Help:      "Disk usage series currently exported.",
		}, func() float64 { return float64(state.Len()) }),
	}

	for _, r := range []string{ResultSuccess, ResultAborted} {
		i.collections.WithLabelValues(r)
	}
	for _, r := range []string{SkipMalformed, SkipDetailFailed} {
		i.skippedEntries.WithLabelValues(r)
	}

	return i
}

// Collectors returns every self metric for registration.
func (i *Instruments) Collectors() []prometheus.Collector {
	if i == nil {
		return nil
	}
	return []prometheus.Collector{
		i.collections,
		i.collectionDuration,
		i.upstreamRequests,
		i.skippedEntries,
		i.lastSuccess,
		i.series,
	}
}

// ObserveCollection records one finished cycle.
func (i *Instruments) ObserveCollection(aborted bool, d time.Duration, finished time.Time) {
	if i == nil {
		return
	}
	i.collectionDuration.Observe(d.Seconds())
	if aborted {
		i.collections.WithLabelValues(ResultAborted).Inc()
		return
	}
	i.collections.WithLabelValues(ResultSuccess).Inc()
	i.lastSuccess.Set(float64(finished.UnixNano()) / 1e9)
}

// ObserveUpstream records one console request.
func (i *Instruments) ObserveUpstream(endpoint, outcome string) {
	if i == nil {
		return
	}
	i.upstreamRequests.WithLabelValues(endpoint, outcome).Inc()
}

// SkipEntries records n skipped entries.
func (i *Instruments) SkipEntries(reason string, n int) {
	if i == nil || n <= 0 {
		return
	}
	i.skippedEntries.WithLabelValues(reason).Add(float64(n))
}

// NewRegistry returns a private registry holding state, the self metrics and
// the Go runtime and process collectors.
func NewRegistry(state *GaugeState, inst *Instruments) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(state)
	reg.MustRegister(inst.Collectors()...)
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}
