//go:build !noprom

package metrics

import (
	"fmt"
	"net/http"

	prom "github.com/prometheus/client_golang/prometheus"
	promhttp "github.com/prometheus/client_golang/prometheus/promhttp"
)

type promRecorder struct {
	queryTotal   *prom.CounterVec
	querySeconds *prom.HistogramVec
	cacheHits    *prom.CounterVec
	cacheMisses  *prom.CounterVec
	rankSeconds  *prom.HistogramVec
	toolTotal    *prom.CounterVec
	toolSeconds  *prom.HistogramVec
}

func (p *promRecorder) IncQueryTotal(strategy string, success bool) {
	p.queryTotal.WithLabelValues(strategy, fmt.Sprintf("%t", success)).Inc()
}

func (p *promRecorder) ObserveQuerySeconds(strategy string, success bool, seconds float64) {
	p.querySeconds.WithLabelValues(strategy, fmt.Sprintf("%t", success)).Observe(seconds)
}

func (p *promRecorder) IncCacheHit(kb string) {
	p.cacheHits.WithLabelValues(kb).Inc()
}

func (p *promRecorder) IncCacheMiss(kb string) {
	p.cacheMisses.WithLabelValues(kb).Inc()
}

func (p *promRecorder) ObserveRankSeconds(ranker string, success bool, seconds float64) {
	p.rankSeconds.WithLabelValues(ranker, fmt.Sprintf("%t", success)).Observe(seconds)
}

func (p *promRecorder) IncToolTotal(tool string, success bool) {
	p.toolTotal.WithLabelValues(tool, fmt.Sprintf("%t", success)).Inc()
}

func (p *promRecorder) ObserveToolSeconds(tool string, success bool, seconds float64) {
	p.toolSeconds.WithLabelValues(tool, fmt.Sprintf("%t", success)).Observe(seconds)
}

func enablePrometheus(addr string) error {
	registry := prom.NewRegistry()
	p := &promRecorder{
		queryTotal: prom.NewCounterVec(prom.CounterOpts{
			Name: "kb_queries_total",
			Help: "Total number of knowledge-base strategy queries",
		}, []string{"strategy", "success"}),
		querySeconds: prom.NewHistogramVec(prom.HistogramOpts{
			Name:    "kb_query_seconds",
			Help:    "Knowledge-base strategy query duration in seconds",
			Buckets: prom.DefBuckets,
		}, []string{"strategy", "success"}),
		cacheHits: prom.NewCounterVec(prom.CounterOpts{
			Name: "kb_candidate_cache_hits_total",
			Help: "Candidate cache hits per knowledge base",
		}, []string{"kb"}),
		cacheMisses: prom.NewCounterVec(prom.CounterOpts{
			Name: "kb_candidate_cache_misses_total",
			Help: "Candidate cache misses per knowledge base",
		}, []string{"kb"}),
		rankSeconds: prom.NewHistogramVec(prom.HistogramOpts{
			Name:    "ranking_seconds",
			Help:    "Candidate ranking duration in seconds",
			Buckets: prom.DefBuckets,
		}, []string{"ranker", "success"}),
		toolTotal: prom.NewCounterVec(prom.CounterOpts{
			Name: "tool_calls_total",
			Help: "Total number of tool handler calls",
		}, []string{"tool", "success"}),
		toolSeconds: prom.NewHistogramVec(prom.HistogramOpts{
			Name:    "tool_call_seconds",
			Help:    "Tool handler duration in seconds",
			Buckets: prom.DefBuckets,
		}, []string{"tool", "success"}),
	}

	registry.MustRegister(p.queryTotal, p.querySeconds, p.cacheHits, p.cacheMisses,
		p.rankSeconds, p.toolTotal, p.toolSeconds)
	SetRecorder(p)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	go func() { _ = http.ListenAndServe(addr, mux) }()
	return nil
}
