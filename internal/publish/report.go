package publish

import (
	"sync"
	"time"

	"git.home.luguber.info/inful/docpublish/internal/linkcheck"
	"git.home.luguber.info/inful/docpublish/internal/metrics"
	"git.home.luguber.info/inful/docpublish/internal/monetization"
)

// Report is the outcome of one publish. Stages are listed in completion
// order; the two concurrent branches interleave.
type Report struct {
	PublishID string        `json:"publishId"`
	Path      string        `json:"path"`
	Version   string        `json:"version"`
	Start     time.Time     `json:"start"`
	End       time.Time     `json:"end"`
	Stages    []StageReport `json:"stages"`
	Outcome   string        `json:"outcome"`

	// ETag of the main document.
	ETag            string                  `json:"etag,omitempty"`
	Uploaded        []string                `json:"uploaded,omitempty"`
	DeletedSubpages []string                `json:"deletedSubpages,omitempty"`
	LinkWarnings    []linkcheck.Warning     `json:"linkWarnings,omitempty"`
	Transition      monetization.Transition `json:"transition,omitempty"`
	MetadataChanges []string                `json:"metadataChanges,omitempty"`
	DeployStatus    int                     `json:"deployStatus,omitempty"`
	DeployETag      string                  `json:"deployEtag,omitempty"`

	mu sync.Mutex
}

func (r *Report) addStage(s StageReport) {
	r.mu.Lock()
	r.Stages = append(r.Stages, s)
	r.mu.Unlock()
}

// Stage returns the report of stage name.
func (r *Report) Stage(name StageName) (StageReport, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.Stages {
		if s.Stage == name {
			return s, true
		}
	}
	return StageReport{}, false
}

// Warnings returns the stages that failed without failing the publish.
func (r *Report) Warnings() []StageReport {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []StageReport
	for _, s := range r.Stages {
		if s.Result == StageResultWarning {
			out = append(out, s)
		}
	}
	return out
}

// Duration is the wall time of the publish.
func (r *Report) Duration() time.Duration { return r.End.Sub(r.Start) }

func (r *Report) finish(end time.Time, outcome metrics.OutcomeLabel) {
	r.End = end
	r.Outcome = string(outcome)
}
