package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "docpublish"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	stageDuration   *prom.HistogramVec
	publishDuration prom.Histogram
	stageResults    *prom.CounterVec
	publishOutcome  *prom.CounterVec
	uploadDuration  *prom.HistogramVec
	uploadResults   *prom.CounterVec
	staleDeleted    prom.Counter
	transitions     *prom.CounterVec
	deployTriggers  *prom.CounterVec
}

// NewPrometheusRecorder constructs and registers the publish metrics on reg.
func NewPrometheusRecorder(reg prom.Registerer) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		stageDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of individual publish stages",
			Buckets:   prom.DefBuckets,
		}, []string{"stage"}),
		publishDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "publish_duration_seconds",
			Help:      "Total publish request duration",
			Buckets:   prom.DefBuckets,
		}),
		stageResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "stage_results_total",
			Help:      "Stage result counts by outcome",
		}, []string{"stage", "result"}),
		publishOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "publish_outcomes_total",
			Help:      "Publish requests by final status",
		}, []string{"outcome"}),
		uploadDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "upload_duration_seconds",
			Help:      "Duration of individual asset uploads",
			Buckets:   prom.DefBuckets,
		}, []string{"kind", "result"}),
		uploadResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "upload_results_total",
			Help:      "Asset uploads by kind and success/failure",
		}, []string{"kind", "result"}),
		staleDeleted: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "stale_subpages_deleted_total",
			Help:      "Stored subpage documents removed because they left the subpage set",
		}),
		transitions: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "provisioning_transitions_total",
			Help:      "Monetization transitions applied on the payment platform",
		}, []string{"transition"}),
		deployTriggers: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "deploy_triggers_total",
			Help:      "Site rebuild triggers by success/failure",
		}, []string{"result"}),
	}
	reg.MustRegister(pr.stageDuration, pr.publishDuration, pr.stageResults, pr.publishOutcome,
		pr.uploadDuration, pr.uploadResults, pr.staleDeleted, pr.transitions, pr.deployTriggers)
	return pr
}

func resultOf(success bool) string {
	if success {
		return "success"
	}
	return "failed"
}

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	if p == nil {
		return
	}
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObservePublishDuration(d time.Duration) {
	if p == nil {
		return
	}
	p.publishDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncStageResult(stage string, result ResultLabel) {
	if p == nil {
		return
	}
	p.stageResults.WithLabelValues(stage, string(result)).Inc()
}

func (p *PrometheusRecorder) IncPublishOutcome(outcome OutcomeLabel) {
	if p == nil {
		return
	}
	p.publishOutcome.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) ObserveUpload(kind string, d time.Duration, success bool) {
	if p == nil {
		return
	}
	res := resultOf(success)
	p.uploadDuration.WithLabelValues(kind, res).Observe(d.Seconds())
	p.uploadResults.WithLabelValues(kind, res).Inc()
}

func (p *PrometheusRecorder) AddStaleSubpagesDeleted(n int) {
	if p == nil || n <= 0 {
		return
	}
	p.staleDeleted.Add(float64(n))
}

func (p *PrometheusRecorder) IncProvisioningTransition(transition string) {
	if p == nil {
		return
	}
	p.transitions.WithLabelValues(transition).Inc()
}

func (p *PrometheusRecorder) IncDeployTrigger(success bool) {
	if p == nil {
		return
	}
	p.deployTriggers.WithLabelValues(resultOf(success)).Inc()
}
