package analytics

import (
	"errors"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	cacheMetricsMu          sync.Mutex
	cacheMetricsInitialized bool

	cacheHitCounter   *prometheus.CounterVec
	cacheMissCounter  *prometheus.CounterVec
	cacheMetricsError error
)

// SetupCacheMetrics registers the result cache counters once. Later calls
// return the first outcome.
func SetupCacheMetrics(reg prometheus.Registerer) error {
	cacheMetricsMu.Lock()
	defer cacheMetricsMu.Unlock()
	if cacheMetricsInitialized {
		return cacheMetricsError
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	hits := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "velodash_analytics_cache_hits_total",
		Help: "Number of analytics results served from the cache.",
	}, []string{"kind"})
	misses := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "velodash_analytics_cache_miss_total",
		Help: "Number of analytics results computed because the cache was empty.",
	}, []string{"kind"})

	cacheHitCounter, cacheMissCounter = hits, misses
	for _, collector := range []*prometheus.CounterVec{hits, misses} {
		if err := reg.Register(collector); err != nil {
			var already prometheus.AlreadyRegisteredError
			if errors.As(err, &already) {
				existing, ok := already.ExistingCollector.(*prometheus.CounterVec)
				if !ok {
					cacheMetricsError = fmt.Errorf("analytics cache metrics: unexpected collector type %T", already.ExistingCollector)
					continue
				}
				if collector == hits {
					cacheHitCounter = existing
				} else {
					cacheMissCounter = existing
				}
				continue
			}
			cacheMetricsError = err
			cacheHitCounter = nil
			cacheMissCounter = nil
			break
		}
	}
	cacheMetricsInitialized = true
	return cacheMetricsError
}

func recordCacheHit(kind string) {
	if cacheHitCounter == nil {
		return
	}
	cacheHitCounter.WithLabelValues(kind).Inc()
}

func recordCacheMiss(kind string) {
	if cacheMissCounter == nil {
		return
	}
	cacheMissCounter.WithLabelValues(kind).Inc()
}
