package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "wfc"

// Recorder collects per-attempt collapse metrics. A nil Recorder
// records nothing.
type Recorder struct {
	attempts     *prometheus.CounterVec
	propagations prometheus.Histogram
	collapses    prometheus.Histogram
	cacheHits    prometheus.Counter
	cacheMisses  prometheus.Counter
}

// NewRecorder creates the collectors and registers them with reg.
func NewRecorder(reg prometheus.Registerer) (*Recorder, error) {
	r := &Recorder{
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "attempts_total",
			Help:      "Collapse attempts by outcome.",
		}, []string{"outcome"}),
		propagations: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "propagation_steps",
			Help:      "Propagation tasks processed per attempt.",
			Buckets:   prometheus.ExponentialBuckets(16, 4, 8),
		}),
		collapses: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "collapses",
			Help:      "Weighted random choices made per attempt.",
			Buckets:   prometheus.ExponentialBuckets(4, 4, 8),
		}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "constraint_cache_hits_total",
			Help:      "Constraint lookups served from the cache.",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "constraint_cache_misses_total",
			Help:      "Constraint lookups computed from the rules.",
		}),
	}
	for _, c := range []prometheus.Collector{r.attempts, r.propagations, r.collapses, r.cacheHits, r.cacheMisses} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// ObserveAttempt records one finished attempt.
func (r *Recorder) ObserveAttempt(outcome string, propagations, collapses int) {
	if r == nil {
		return
	}
	r.attempts.WithLabelValues(outcome).Inc()
	r.propagations.Observe(float64(propagations))
	r.collapses.Observe(float64(collapses))
}

// ObserveCache adds constraint cache lookups.
func (r *Recorder) ObserveCache(hits, misses uint64) {
	if r == nil {
		return
	}
	r.cacheHits.Add(float64(hits))
	r.cacheMisses.Add(float64(misses))
}
