package models

import "time"

type OutcomeBuilder struct {
	event OutcomeEvent
}

func NewOutcome(installID, outcome string) *OutcomeBuilder {
	return &OutcomeBuilder{
		event: OutcomeEvent{
			InstallID:  installID,
			Outcome:    outcome,
			OccurredAt: time.Now().UTC(),
		},
	}
}

func (b *OutcomeBuilder) WithUser(userID, lookupURL string) *OutcomeBuilder {
	b.event.UserID = userID
	b.event.LookupURL = lookupURL
	return b
}

func (b *OutcomeBuilder) WithError(err error) *OutcomeBuilder {
	if err != nil {
		b.event.Error = err.Error()
	}
	return b
}

func (b *OutcomeBuilder) WithMessage(msg string) *OutcomeBuilder {
	b.event.Error = msg
	return b
}

func (b *OutcomeBuilder) WithCorrelationKey(key string) *OutcomeBuilder {
	b.event.CorrelationKey = key
	return b
}

func (b *OutcomeBuilder) Redelivered(redelivered bool) *OutcomeBuilder {
	b.event.Redelivered = redelivered
	return b
}

func (b *OutcomeBuilder) Build() OutcomeEvent {
	return b.event
}
