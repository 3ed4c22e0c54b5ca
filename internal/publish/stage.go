package publish

import (
	"fmt"
	"time"

	"git.home.luguber.info/inful/docpublish/internal/metrics"
)

// StageName identifies a pipeline stage.
type StageName string

// Canonical stage names, in execution order.
const (
	StageValidate     StageName = "validate"
	StageAuthorize    StageName = "authorize"
	StageArchive      StageName = "archive"
	StageFetchRecord  StageName = "fetch_record"
	StageMonetization StageName = "monetization"
	StageMetadata     StageName = "metadata"
	StageReconcile    StageName = "reconcile"
	StageUpload       StageName = "upload"
	StageDeploy       StageName = "deploy"
	StageBundle       StageName = "bundle"
)

// StageResult classifies how a stage ended.
type StageResult string

const (
	StageResultSuccess StageResult = "success"
	// StageResultWarning is a failure the pipeline absorbed.
	StageResultWarning StageResult = "warning"
	StageResultFatal   StageResult = "fatal"
	StageResultSkipped StageResult = "skipped"
)

func (r StageResult) label() metrics.ResultLabel {
	switch r {
	case StageResultWarning:
		return metrics.ResultWarning
	case StageResultFatal:
		return metrics.ResultFatal
	case StageResultSkipped:
		return metrics.ResultSkipped
	default:
		return metrics.ResultSuccess
	}
}

// StageError is a failed stage together with its cause.
type StageError struct {
	Stage StageName
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("stage %s: %v", e.Stage, e.Err) }
func (e *StageError) Unwrap() error { return e.Err }

// StageReport is the typed outcome of one stage.
type StageReport struct {
	Stage    StageName     `json:"stage"`
	Result   StageResult   `json:"result"`
	Duration time.Duration `json:"duration"`
	Error    string        `json:"error,omitempty"`
	// AlertID is set when the failure was reported to an operator.
	AlertID string `json:"alertId,omitempty"`
}
