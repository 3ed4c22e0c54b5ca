package metrics

import "time"

// ResultLabel enumerates stage result categories for counters.
type ResultLabel string

const (
	ResultSuccess ResultLabel = "success"
	ResultWarning ResultLabel = "warning"
	ResultFatal   ResultLabel = "fatal"
	ResultSkipped ResultLabel = "skipped"
)

// OutcomeLabel enumerates the final status of a publish request.
type OutcomeLabel string

const (
	OutcomeSuccess  OutcomeLabel = "success"
	OutcomeRejected OutcomeLabel = "rejected" // validation or authorization
	OutcomeFailed   OutcomeLabel = "failed"
)

// Recorder defines observability hooks for publish and stage metrics. All
// methods must be safe to call on the NoopRecorder.
type Recorder interface {
	ObserveStageDuration(stage string, d time.Duration)
	ObservePublishDuration(d time.Duration)
	IncStageResult(stage string, result ResultLabel)
	IncPublishOutcome(outcome OutcomeLabel)
	ObserveUpload(kind string, d time.Duration, success bool)
	AddStaleSubpagesDeleted(n int)
	IncProvisioningTransition(transition string)
	IncDeployTrigger(success bool)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveStageDuration(string, time.Duration)       {}
func (NoopRecorder) ObservePublishDuration(time.Duration)             {}
func (NoopRecorder) IncStageResult(string, ResultLabel)               {}
func (NoopRecorder) IncPublishOutcome(OutcomeLabel)                   {}
func (NoopRecorder) ObserveUpload(string, time.Duration, bool)        {}
func (NoopRecorder) AddStaleSubpagesDeleted(int)                      {}
func (NoopRecorder) IncProvisioningTransition(string)                 {}
func (NoopRecorder) IncDeployTrigger(bool)                            {}
