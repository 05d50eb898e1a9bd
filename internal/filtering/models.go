package filtering

import (
	"enrichsync/internal/crm"
	"enrichsync/internal/enrichment/provider"
)

// Envelope is the filter's verdict on one update message. ServiceObject is
// set only for enrich operations.
type Envelope[M any, S any] struct {
	Message       M        `json:"message"`
	Operation     string   `json:"operation"`
	ObjectType    string   `json:"objectType"`
	ServiceObject *S       `json:"serviceObject,omitempty"`
	Notes         []string `json:"notes,omitempty"`
}

type Filtered[M any, S any] struct {
	Actionables []Envelope[M, S]
	Skips       []Envelope[M, S]
}

type (
	UserEnvelope    = Envelope[crm.UserUpdateMessage, provider.LookupRequest]
	AccountEnvelope = Envelope[crm.AccountUpdateMessage, provider.DomainSearchParams]

	FilteredUsers    = Filtered[crm.UserUpdateMessage, provider.LookupRequest]
	FilteredAccounts = Filtered[crm.AccountUpdateMessage, provider.DomainSearchParams]
)
