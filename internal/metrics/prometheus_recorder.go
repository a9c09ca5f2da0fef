package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	resolutions        *prom.CounterVec
	resolutionDuration *prom.HistogramVec
	forgeRequests      *prom.CounterVec
	forgeRetries       *prom.CounterVec
	scanConcurrency    prom.Gauge
}

// NewPrometheusRecorder constructs the metrics and registers them with reg.
// A nil registry gets a private one.
func NewPrometheusRecorder(reg prom.Registerer) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		resolutions: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "docviewer",
			Name:      "resolutions_total",
			Help:      "Documentation viewer resolutions by outcome",
		}, []string{"outcome"}),
		resolutionDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "docviewer",
			Name:      "resolution_duration_seconds",
			Help:      "Duration of documentation viewer resolutions",
			Buckets:   prom.DefBuckets,
		}, []string{"outcome"}),
		forgeRequests: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "docviewer",
			Name:      "forge_requests_total",
			Help:      "Forge API requests by forge and result",
		}, []string{"forge", "result"}),
		forgeRetries: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "docviewer",
			Name:      "forge_request_retries_total",
			Help:      "Forge API request retries after transient failures",
		}, []string{"forge"}),
		scanConcurrency: prom.NewGauge(prom.GaugeOpts{
			Namespace: "docviewer",
			Name:      "scan_concurrency",
			Help:      "Configured concurrency of the last repository scan",
		}),
	}
	reg.MustRegister(pr.resolutions, pr.resolutionDuration, pr.forgeRequests, pr.forgeRetries, pr.scanConcurrency)
	return pr
}

func (p *PrometheusRecorder) IncResolution(outcome string) {
	if p == nil {
		return
	}
	p.resolutions.WithLabelValues(outcome).Inc()
}

func (p *PrometheusRecorder) ObserveResolutionDuration(outcome string, d time.Duration) {
	if p == nil {
		return
	}
	p.resolutionDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncForgeRequest(forge, result string) {
	if p == nil {
		return
	}
	p.forgeRequests.WithLabelValues(forge, result).Inc()
}

func (p *PrometheusRecorder) IncForgeRetry(forge string) {
	if p == nil {
		return
	}
	p.forgeRetries.WithLabelValues(forge).Inc()
}

func (p *PrometheusRecorder) SetScanConcurrency(n int) {
	if p == nil {
		return
	}
	p.scanConcurrency.Set(float64(n))
}
