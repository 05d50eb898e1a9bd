package models

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestOutcomeBuilder(t *testing.T) {
	before := time.Now().UTC()

	event := NewOutcome("inst-1", OutcomeAPIFailure).
		WithUser("user-1", "https://linkedin.com/in/jane").
		WithError(errors.New("boom")).
		WithCorrelationKey("corr-1").
		Redelivered(true).
		Build()

	assert.Equal(t, "inst-1", event.InstallID)
	assert.Equal(t, "user-1", event.UserID)
	assert.Equal(t, "https://linkedin.com/in/jane", event.LookupURL)
	assert.Equal(t, OutcomeAPIFailure, event.Outcome)
	assert.Equal(t, "boom", event.Error)
	assert.Equal(t, "corr-1", event.CorrelationKey)
	assert.True(t, event.Redelivered)
	assert.False(t, event.OccurredAt.Before(before))
}

func TestOutcomeBuilder_NilErrorKeepsMessage(t *testing.T) {
	event := NewOutcome("inst-1", OutcomeNotFound).
		WithMessage("No profile").
		WithError(nil).
		Build()

	assert.Equal(t, "No profile", event.Error)
}

func TestOutcomeEvent_Key(t *testing.T) {
	assert.Equal(t, "inst-1:user-1", OutcomeEvent{InstallID: "inst-1", UserID: "user-1"}.Key())
	assert.Equal(t, "inst-1", OutcomeEvent{InstallID: "inst-1"}.Key())
}
