package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "blog"

// Website collects website server metrics. Routes are not used as labels to
// keep cardinality bounded.
type Website struct {
	cacheHits   prometheus.Counter
	cacheMisses prometheus.Counter
	renders     *prometheus.HistogramVec
	responses   *prometheus.CounterVec
}

// NewWebsite creates the collectors and registers them with registerer. A
// nil registerer leaves them unregistered.
func NewWebsite(registerer prometheus.Registerer) (*Website, error) {
	m := &Website{
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "website",
			Name:      "cache_hits_total",
			Help:      "Website responses served from the cache.",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "website",
			Name:      "cache_misses_total",
			Help:      "Cacheable website requests that had to be rendered.",
		}),
		renders: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "website",
			Name:      "render_duration_seconds",
			Help:      "Time spent executing page templates.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"template"}),
		responses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "website",
			Name:      "responses_total",
			Help:      "Website responses by status code.",
		}, []string{"status"}),
	}
	if registerer != nil {
		for _, collector := range []prometheus.Collector{m.cacheHits, m.cacheMisses, m.renders, m.responses} {
			if err := registerer.Register(collector); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

func (m *Website) CacheHit(string) {
	m.cacheHits.Inc()
}

func (m *Website) CacheMiss(string) {
	m.cacheMisses.Inc()
}

func (m *Website) ObserveRender(template string, elapsed time.Duration) {
	m.renders.WithLabelValues(template).Observe(elapsed.Seconds())
}

func (m *Website) ObserveResponse(status int) {
	m.responses.WithLabelValues(strconv.Itoa(status)).Inc()
}

// Handler exposes the metrics gathered by gatherer. A nil gatherer serves
// the default registry.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	if gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
