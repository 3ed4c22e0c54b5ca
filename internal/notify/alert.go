// Package notify delivers failed-stage reports to operators.
package notify

import (
	"time"

	"github.com/google/uuid"
)

// Alert is an operator notification about a failed publish stage.
type Alert struct {
	ID        string    `json:"id"`
	Subject   string    `json:"subject"`
	Path      string    `json:"path,omitempty"`
	Stage     string    `json:"stage,omitempty"`
	PublishID string    `json:"publishId,omitempty"`
	Category  string    `json:"category,omitempty"`
	Error     string    `json:"error"`
	Timestamp time.Time `json:"timestamp"`
}

// NewAlert returns an alert with a fresh id.
func NewAlert(subject string, err error) Alert {
	a := Alert{
		ID:        uuid.NewString(),
		Subject:   subject,
		Timestamp: time.Now().UTC(),
	}
	if err != nil {
		a.Error = err.Error()
	}
	return a
}
