package enrichment

import (
	"context"
	"encoding/json"
	"fmt"

	"enrichsync/internal/broker"
	"enrichsync/internal/constants"
	"enrichsync/internal/crm"
	"enrichsync/internal/enrichment/provider"
	"enrichsync/internal/filtering"
	"enrichsync/internal/install"
	"enrichsync/internal/logger"
	"enrichsync/pkg/logging"
	"enrichsync/pkg/metrics"
	"enrichsync/pkg/models"
	"enrichsync/pkg/tracing"
)

// Submission results counted by the connector.
const (
	submissionQueued        = "queued"
	submissionRejected      = "rejected"
	submissionAPIFailure    = "api_failure"
	submissionEnqueueFailed = "enqueue_failed"
)

// CodeEnqueueFailed marks a submission the provider accepted but that could
// not be put on the lane.
const CodeEnqueueFailed = "EENQUEUE"

// SyncAgent is the producer side: it filters update notifications, submits
// lookups to the provider and queues them for the worker.
type SyncAgent struct {
	client   provider.Client
	tokens   *TokenResolver
	crm      crm.Factory
	lane     broker.Publisher
	mapper   *Mapper
	outcomes broker.OutcomePublisher
	logger   logger.Logger
}

func NewSyncAgent(
	client provider.Client,
	tokens *TokenResolver,
	crmFactory crm.Factory,
	lane broker.Publisher,
	mapper *Mapper,
	outcomes broker.OutcomePublisher,
	log logger.Logger,
) *SyncAgent {
	if outcomes == nil {
		outcomes = broker.NopOutcomePublisher{}
	}
	return &SyncAgent{
		client:   client,
		tokens:   tokens,
		crm:      crmFactory,
		lane:     lane,
		mapper:   mapper,
		outcomes: outcomes,
		logger:   log,
	}
}

// SendUserMessages processes user:update notifications in order. It returns
// an error only when no access token could be obtained; every other failure
// is recorded on the user it concerns.
func (a *SyncAgent) SendUserMessages(ctx context.Context, inst *install.Install, messages []crm.UserUpdateMessage, isBatch bool) error {
	ctx = logging.WithInstallID(ctx, inst.ID)
	ctx, span := tracing.GetTracer("enrichment-sync").Start(ctx, "enrichment.send_user_messages")
	defer span.End()

	settings := inst.Settings
	if !settings.CanEnrichUsers() {
		a.logger.DebugwCtx(ctx, "Connector not configured for enrichment, skipping user messages",
			"messages", len(messages),
		)
		return nil
	}

	filtered := filtering.FilterUserMessages(settings, messages, isBatch)
	for _, skip := range filtered.Skips {
		metrics.IncFilterDecision(constants.ObjectTypeUser, constants.OperationSkip)
		a.logger.InfowCtx(ctx, "User skipped",
			"user_id", crm.UserIdentityOf(skip.Message.User).ID,
			"notes", skip.Notes,
		)
	}

	if len(filtered.Actionables) == 0 {
		a.logger.DebugwCtx(ctx, "No actionable user messages",
			"messages", len(messages),
			"skipped", len(filtered.Skips),
		)
		return nil
	}

	token, err := a.tokens.Resolve(ctx, inst.ID, settings)
	if err != nil {
		a.logger.ErrorwCtx(ctx, "Aborting user messages, no access token",
			"error", err,
			"actionable", len(filtered.Actionables),
		)
		return err
	}

	client := a.crm.ForInstall(inst.Auth())
	for _, envelope := range filtered.Actionables {
		if err := ctx.Err(); err != nil {
			return err
		}
		metrics.IncFilterDecision(constants.ObjectTypeUser, constants.OperationEnrich)
		a.submitUser(ctx, client, inst, token, envelope)
	}

	return nil
}

func (a *SyncAgent) submitUser(ctx context.Context, client crm.Client, inst *install.Install, token string, envelope filtering.UserEnvelope) {
	identity := crm.UserIdentityOf(envelope.Message.User)
	lookupURL := envelope.ServiceObject.URL
	outcome := func(kind string) *models.OutcomeBuilder {
		return models.NewOutcome(inst.ID, kind).
			WithUser(identity.ID, lookupURL).
			WithCorrelationKey(logging.GetCorrelationKey(ctx))
	}

	res := a.client.SubmitForEnrichment(ctx, token, lookupURL)
	switch {
	case !res.Success:
		if res.IsAuthFailure() {
			a.tokens.Invalidate(ctx, inst.ID)
		}
		details := res.Details()
		metrics.IncSubmission(submissionAPIFailure)
		a.logger.WarnwCtx(ctx, "Submission to enrichment provider failed",
			"user_id", identity.ID,
			"error", details.Message,
			"code", details.Code,
		)
		a.writeUser(ctx, client, identity, a.mapper.MapAPIFailure(details))
		a.publishOutcome(ctx, outcome(models.OutcomeAPIFailure).WithMessage(describeFailure(details)).Build())

	case !res.Data.Accepted():
		var message string
		if res.Data != nil {
			message = res.Data.Message
		}
		metrics.IncSubmission(submissionRejected)
		a.logger.InfowCtx(ctx, "Submission rejected by enrichment provider",
			"user_id", identity.ID,
			"message", message,
		)
		a.writeUser(ctx, client, identity, a.mapper.MapFailure(message))
		a.publishOutcome(ctx, outcome(models.OutcomeSubmitRejected).WithMessage(message).Build())

	default:
		if err := a.enqueue(ctx, inst, envelope); err != nil {
			metrics.IncSubmission(submissionEnqueueFailed)
			a.logger.ErrorwCtx(ctx, "Failed to queue lookup job",
				"user_id", identity.ID,
				"error", err,
			)
			details := provider.ErrorDetails{Message: err.Error(), Code: CodeEnqueueFailed}
			a.writeUser(ctx, client, identity, a.mapper.MapAPIFailure(details))
			a.publishOutcome(ctx, outcome(models.OutcomeAPIFailure).WithError(err).Build())
			return
		}
		metrics.IncSubmission(submissionQueued)
		a.logger.DebugwCtx(ctx, "Lookup job queued",
			"user_id", identity.ID,
		)
		a.publishOutcome(ctx, outcome(models.OutcomeQueued).Build())
	}
}

func (a *SyncAgent) enqueue(ctx context.Context, inst *install.Install, envelope filtering.UserEnvelope) error {
	correlationKey := logging.GetCorrelationKey(ctx)
	job := LookupJob{
		ConnectorAuth:  inst.Auth(),
		Settings:       inst.Settings,
		User:           envelope.Message.User,
		LookupURL:      envelope.ServiceObject.URL,
		CorrelationKey: correlationKey,
	}

	body, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to encode lookup job: %w", err)
	}
	return a.lane.Publish(ctx, body, correlationKey)
}

// SendAccountMessages runs a domain search for each actionable account and
// writes the result straight back; there is no queued step.
func (a *SyncAgent) SendAccountMessages(ctx context.Context, inst *install.Install, messages []crm.AccountUpdateMessage, isBatch bool) error {
	ctx = logging.WithInstallID(ctx, inst.ID)
	ctx, span := tracing.GetTracer("enrichment-sync").Start(ctx, "enrichment.send_account_messages")
	defer span.End()

	settings := inst.Settings
	if !settings.HasCredentials() {
		a.logger.DebugwCtx(ctx, "Connector not configured, skipping account messages",
			"messages", len(messages),
		)
		return nil
	}

	filtered := filtering.FilterAccountMessages(settings, messages, isBatch)
	for _, skip := range filtered.Skips {
		metrics.IncFilterDecision(constants.ObjectTypeAccount, constants.OperationSkip)
		a.logger.InfowCtx(ctx, "Account skipped",
			"account_id", crm.AccountIdentityOf(skip.Message.Account).ID,
			"notes", skip.Notes,
		)
	}

	if len(filtered.Actionables) == 0 {
		return nil
	}

	token, err := a.tokens.Resolve(ctx, inst.ID, settings)
	if err != nil {
		a.logger.ErrorwCtx(ctx, "Aborting account messages, no access token",
			"error", err,
			"actionable", len(filtered.Actionables),
		)
		return err
	}

	client := a.crm.ForInstall(inst.Auth())
	for _, envelope := range filtered.Actionables {
		if err := ctx.Err(); err != nil {
			return err
		}
		metrics.IncFilterDecision(constants.ObjectTypeAccount, constants.OperationEnrich)

		identity := crm.AccountIdentityOf(envelope.Message.Account)
		res := a.client.SearchDomain(ctx, token, *envelope.ServiceObject)

		var writes crm.AttributeWriteSet
		if res.Success && res.Data != nil {
			writes = a.mapper.MapDomainResult(ctx, settings.EmailsAccountAttributesIncoming, res.Data)
		} else {
			if res.IsAuthFailure() {
				a.tokens.Invalidate(ctx, inst.ID)
			}
			details := res.Details()
			a.logger.WarnwCtx(ctx, "Domain search failed",
				"account_id", identity.ID,
				"domain", envelope.ServiceObject.Domain,
				"error", details.Message,
				"code", details.Code,
			)
			writes = a.mapper.MapDomainFailure(details)
		}

		if err := client.WriteAccountAttributes(ctx, identity, writes); err != nil {
			a.logger.ErrorwCtx(ctx, "Failed to write account attributes",
				"account_id", identity.ID,
				"error", err,
			)
		}
	}

	return nil
}

func (a *SyncAgent) writeUser(ctx context.Context, client crm.Client, identity crm.UserIdentity, writes crm.AttributeWriteSet) {
	if err := client.WriteUserAttributes(ctx, identity, writes); err != nil {
		a.logger.ErrorwCtx(ctx, "Failed to write user attributes",
			"user_id", identity.ID,
			"error", err,
		)
	}
}

func (a *SyncAgent) publishOutcome(ctx context.Context, event models.OutcomeEvent) {
	if err := a.outcomes.PublishOutcome(ctx, event); err != nil {
		a.logger.WarnwCtx(ctx, "Failed to publish outcome event",
			"outcome", event.Outcome,
			"error", err,
		)
	}
}
