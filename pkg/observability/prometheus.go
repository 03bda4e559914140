package observability

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Prometheus implements every hook interface on top of a private registry.
type Prometheus struct {
	registry *prometheus.Registry

	analyses        *prometheus.CounterVec
	analyzeDuration prometheus.Histogram
	graphNodes      prometheus.Gauge
	graphEdges      prometheus.Gauge
	droppedPairs    prometheus.Counter
	islands         prometheus.Gauge
	longestPath     prometheus.Gauge
	componentHops   prometheus.Histogram

	cacheEvents *prometheus.CounterVec
	cacheBytes  *prometheus.CounterVec

	storeOps      *prometheus.CounterVec
	storeDuration *prometheus.HistogramVec

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

// NewPrometheus creates the collectors under namespace. Nothing is
// installed as a hook until Register is called.
func NewPrometheus(namespace string) *Prometheus {
	p := &Prometheus{
		registry: prometheus.NewRegistry(),
		analyses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analyses_total",
			Help:      "Total number of graph analyses by outcome",
		}, []string{"status"}),
		analyzeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "analyze_duration_seconds",
			Help:      "Graph analysis duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		graphNodes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "graph_nodes",
			Help:      "Node count of the last analyzed graph",
		}),
		graphEdges: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "graph_edges",
			Help:      "Deduplicated edge count of the last analyzed graph",
		}),
		droppedPairs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dropped_pairs_total",
			Help:      "Similarity pairs dropped as self loops, duplicates or dangling",
		}),
		islands: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "islands",
			Help:      "Connected component count of the last analysis",
		}),
		longestPath: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "longest_path_hops",
			Help:      "Hop length of the last reported rabbit hole",
		}),
		componentHops: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "component_hops",
			Help:      "Estimated diameter per evaluated component",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		}),
		cacheEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_events_total",
			Help:      "Cache hits, misses and writes by key type",
		}, []string{"event", "key_type"}),
		cacheBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_written_bytes_total",
			Help:      "Bytes written to the cache by key type",
		}, []string{"key_type"}),
		storeOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_operations_total",
			Help:      "Total number of store operations",
		}, []string{"driver", "operation", "status"}),
		storeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "store_operation_duration_seconds",
			Help:      "Store operation duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"driver", "operation"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	p.registry.MustRegister(
		p.analyses, p.analyzeDuration, p.graphNodes, p.graphEdges,
		p.droppedPairs, p.islands, p.longestPath, p.componentHops,
		p.cacheEvents, p.cacheBytes,
		p.storeOps, p.storeDuration,
		p.httpRequests, p.httpDuration,
	)
	return p
}

// Register installs p as the global hook implementation for every category.
func (p *Prometheus) Register() {
	SetAnalysisHooks(p)
	SetCacheHooks(p)
	SetStoreHooks(p)
	SetHTTPHooks(p)
}

// Handler serves the registry in the Prometheus exposition format.
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry, mainly for tests.
func (p *Prometheus) Registry() *prometheus.Registry { return p.registry }

func (p *Prometheus) OnAnalyzeStart(ctx context.Context, _, _ int) context.Context { return ctx }

func (p *Prometheus) OnGraphBuilt(_ context.Context, nodes, edges, dropped int) {
	p.graphNodes.Set(float64(nodes))
	p.graphEdges.Set(float64(edges))
	p.droppedPairs.Add(float64(dropped))
}

func (p *Prometheus) OnComponent(_ context.Context, _, hops int) {
	p.componentHops.Observe(float64(hops))
}

func (p *Prometheus) OnAnalyzeComplete(_ context.Context, islands, hops int, d time.Duration, err error) {
	p.analyses.WithLabelValues(status(err)).Inc()
	p.analyzeDuration.Observe(d.Seconds())
	if err == nil {
		p.islands.Set(float64(islands))
		p.longestPath.Set(float64(hops))
	}
}

func (p *Prometheus) OnCacheHit(_ context.Context, keyType string) {
	p.cacheEvents.WithLabelValues("hit", keyType).Inc()
}

func (p *Prometheus) OnCacheMiss(_ context.Context, keyType string) {
	p.cacheEvents.WithLabelValues("miss", keyType).Inc()
}

func (p *Prometheus) OnCacheSet(_ context.Context, keyType string, size int) {
	p.cacheEvents.WithLabelValues("set", keyType).Inc()
	p.cacheBytes.WithLabelValues(keyType).Add(float64(size))
}

func (p *Prometheus) OnQuery(_ context.Context, driver, op string, d time.Duration, err error) {
	p.storeOps.WithLabelValues(driver, op, status(err)).Inc()
	p.storeDuration.WithLabelValues(driver, op).Observe(d.Seconds())
}

func (p *Prometheus) OnRequest(_ context.Context, method, route string, code int, d time.Duration) {
	p.httpRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	p.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
