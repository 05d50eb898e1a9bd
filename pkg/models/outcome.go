package models

import "time"

// Outcome values carried by OutcomeEvent.
const (
	OutcomeQueued         = "queued"
	OutcomeSubmitRejected = "submit_rejected"
	OutcomeEnriched       = "enriched"
	OutcomeNotFound       = "not_found"
	OutcomeAPIFailure     = "api_failure"
	OutcomeRequeued       = "requeued"
	OutcomeRejected       = "rejected"
	OutcomeWriteFailed    = "write_failed"
)

// OutcomeEvent is the record published to the outcome topic after a
// submission or a settled lookup job.
type OutcomeEvent struct {
	InstallID      string    `json:"install_id"`
	UserID         string    `json:"user_id,omitempty"`
	LookupURL      string    `json:"lookup_url,omitempty"`
	Outcome        string    `json:"outcome"`
	Error          string    `json:"error,omitempty"`
	CorrelationKey string    `json:"correlation_key,omitempty"`
	Redelivered    bool      `json:"redelivered"`
	OccurredAt     time.Time `json:"occurred_at"`
}

func (e OutcomeEvent) Key() string {
	if e.UserID != "" {
		return e.InstallID + ":" + e.UserID
	}
	return e.InstallID
}
