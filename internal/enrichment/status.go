package enrichment

import (
	"context"
	"time"

	"enrichsync/internal/constants"
	"enrichsync/internal/crm"
	"enrichsync/internal/install"
	"enrichsync/internal/logger"
	"enrichsync/internal/tokencache"
)

const (
	StatusNoClientID     = "Connector unauthenticated: No Client ID is present."
	StatusNoClientSecret = "Connector unauthenticated: No Client Secret is present."
	ErrorUnhandled       = "An unhandled error occurred and our engineering team has been notified."
)

// AuthStore keeps the CRM credentials of an install for background work.
type AuthStore interface {
	StoreConnectorAuth(ctx context.Context, auth install.Auth, ttl time.Duration) error
}

var _ AuthStore = (*tokencache.Cache)(nil)

type StatusService struct {
	auth   AuthStore
	crm    crm.Factory
	ttl    time.Duration
	logger logger.Logger
}

func NewStatusService(auth AuthStore, crmFactory crm.Factory, ttl time.Duration, log logger.Logger) *StatusService {
	if ttl <= 0 {
		ttl = constants.ConnectorAuthCacheTTL
	}
	return &StatusService{auth: auth, crm: crmFactory, ttl: ttl, logger: log}
}

// Determine computes the connector status, remembers the install's CRM
// credentials and pushes the status to the CRM. Failures turn the returned
// status into an error status rather than an error.
func (s *StatusService) Determine(ctx context.Context, inst *install.Install) crm.ConnectorStatus {
	status := crm.ConnectorStatus{Status: crm.StatusOK, Messages: []string{}}

	s.logger.DebugwCtx(ctx, "Determining connector status")

	if inst.Settings.ClientID == "" {
		status.Status = crm.StatusSetupRequired
		status.Messages = append(status.Messages, StatusNoClientID)
	}
	if inst.Settings.ClientSecret == "" {
		status.Status = crm.StatusSetupRequired
		status.Messages = append(status.Messages, StatusNoClientSecret)
	}

	if err := s.auth.StoreConnectorAuth(ctx, inst.Auth(), s.ttl); err != nil {
		return s.unhandled(ctx, status, err)
	}

	if err := s.crm.ForInstall(inst.Auth()).PutStatus(ctx, status); err != nil {
		return s.unhandled(ctx, status, err)
	}

	s.logger.DebugwCtx(ctx, "Connector status pushed",
		"status", status.Status,
	)
	return status
}

func (s *StatusService) unhandled(ctx context.Context, status crm.ConnectorStatus, err error) crm.ConnectorStatus {
	s.logger.ErrorwCtx(ctx, "Failed to determine connector status",
		"error", err,
	)
	status.Status = crm.StatusError
	status.Messages = append(status.Messages, ErrorUnhandled)
	return status
}
