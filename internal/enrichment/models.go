package enrichment

import (
	"enrichsync/internal/crm"
	"enrichsync/internal/install"
	apperrors "enrichsync/pkg/errors"
)

// LookupJob is the lane message between SyncAgent and Worker. It carries a
// snapshot of the install so the worker needs no settings lookup.
type LookupJob struct {
	ConnectorAuth  install.Auth            `json:"connectorAuth"`
	Settings       install.PrivateSettings `json:"appSettings"`
	User           crm.Entity              `json:"user"`
	LookupURL      string                  `json:"lookupUrl"`
	CorrelationKey string                  `json:"correlationKey,omitempty"`
}

func (j LookupJob) Validate() error {
	switch {
	case j.ConnectorAuth.ID == "":
		return apperrors.ErrMalformedMessage.WithDetail("message", "lookup job has no install id")
	case j.LookupURL == "":
		return apperrors.ErrMalformedMessage.WithDetail("message", "lookup job has no lookup url")
	case crm.UserIdentityOf(j.User).Empty():
		return apperrors.ErrMalformedMessage.WithDetail("message", "lookup job has no user identity")
	}
	return nil
}

type FieldOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// FieldsSchema is the answer to a meta fields request.
type FieldsSchema struct {
	OK      bool          `json:"ok"`
	Error   *string       `json:"error"`
	Options []FieldOption `json:"options"`
}

type ImportSummary struct {
	ListID   int    `json:"list_id"`
	ListName string `json:"list_name"`
	Pages    int    `json:"pages"`
	Imported int    `json:"imported"`
	Skipped  int    `json:"skipped"`
	Failed   int    `json:"failed"`
}
