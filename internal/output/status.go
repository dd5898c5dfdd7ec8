package output

import (
	"time"

	"github.com/strrl/postwatch/internal/activity"
)

const (
	StatusActive  = "active"
	StatusWarning = "warning"
	StatusUnknown = "unknown"
)

// Status is the health of the most recent monitoring session.
type Status struct {
	LastCheck    *time.Time `json:"lastCheck"`
	RecordsFound int        `json:"recordsFound"`
	Errors       []string   `json:"errors"`
	Status       string     `json:"status"`
}

// StatusFromSession maps the latest session to a status. A nil session means
// nothing has been collected yet.
func StatusFromSession(session *activity.Session) Status {
	if session == nil {
		return Status{Errors: []string{}, Status: StatusUnknown}
	}

	started := session.StartedAt.UTC()
	status := Status{
		LastCheck:    &started,
		RecordsFound: session.RecordsFound,
		Errors:       session.Errors,
		Status:       StatusActive,
	}
	if status.Errors == nil {
		status.Errors = []string{}
	}
	if len(status.Errors) > 0 {
		status.Status = StatusWarning
	}
	return status
}
