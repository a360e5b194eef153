package metrics

import (
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "campus"

// PrometheusRecorder implements Recorder with Prometheus collectors.
type PrometheusRecorder struct {
	reg            *prom.Registry
	resolveSeconds *prom.HistogramVec
	stageSeconds   *prom.HistogramVec
	buildSeconds   *prom.HistogramVec
	routes         prom.Counter
	searchUploads  *prom.CounterVec
	previews       *prom.CounterVec
}

// NewPrometheusRecorder creates the collectors and registers them with reg.
// A nil reg gets a fresh registry.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		reg: reg,
		resolveSeconds: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "resolve_duration_seconds",
			Help:      "Duration of single entity resolutions",
			Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .5, 1},
		}, []string{"kind", "result"}),
		stageSeconds: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of build stages",
			Buckets:   prom.DefBuckets,
		}, []string{"stage"}),
		buildSeconds: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "build_duration_seconds",
			Help:      "Total build duration by outcome",
			Buckets:   prom.DefBuckets,
		}, []string{"outcome"}),
		routes: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "routes_generated_total",
			Help:      "Routes written by builds",
		}),
		searchUploads: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "search_uploads_total",
			Help:      "Search index uploads by backend and outcome",
		}, []string{"backend", "outcome"}),
		previews: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "preview_results_total",
			Help:      "Preview recompilations by outcome",
		}, []string{"outcome"}),
	}
	reg.MustRegister(pr.resolveSeconds, pr.stageSeconds, pr.buildSeconds, pr.routes, pr.searchUploads, pr.previews)
	return pr
}

// Handler serves the registry in the Prometheus exposition format.
func (p *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(p.reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

func (p *PrometheusRecorder) ObserveResolve(kind string, d time.Duration, ok bool) {
	if p == nil {
		return
	}
	result := string(OutcomeSuccess)
	if !ok {
		result = string(OutcomeFailed)
	}
	p.resolveSeconds.WithLabelValues(kind, result).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveStage(stage string, d time.Duration) {
	if p == nil {
		return
	}
	p.stageSeconds.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveBuild(d time.Duration, outcome Outcome) {
	if p == nil {
		return
	}
	p.buildSeconds.WithLabelValues(string(outcome)).Observe(d.Seconds())
}

func (p *PrometheusRecorder) AddRoutes(n int) {
	if p == nil {
		return
	}
	p.routes.Add(float64(n))
}

func (p *PrometheusRecorder) IncSearchUpload(backend string, outcome Outcome) {
	if p == nil {
		return
	}
	p.searchUploads.WithLabelValues(backend, string(outcome)).Inc()
}

func (p *PrometheusRecorder) IncPreview(outcome Outcome) {
	if p == nil {
		return
	}
	p.previews.WithLabelValues(string(outcome)).Inc()
}
