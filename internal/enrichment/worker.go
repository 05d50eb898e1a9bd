package enrichment

import (
	"context"
	"encoding/json"
	"time"

	"enrichsync/internal/broker"
	"enrichsync/internal/crm"
	"enrichsync/internal/enrichment/provider"
	"enrichsync/internal/logger"
	apperrors "enrichsync/pkg/errors"
	"enrichsync/pkg/logging"
	"enrichsync/pkg/metrics"
	"enrichsync/pkg/models"
	"enrichsync/pkg/tracing"
)

// Worker is the consumer side of the lookup lane. Each job gets at most one
// redelivery: a failed fetch is requeued once and recorded as a failure on
// the second attempt.
type Worker struct {
	client   provider.Client
	tokens   *TokenResolver
	crm      crm.Factory
	mapper   *Mapper
	lane     broker.Consumer
	outcomes broker.OutcomePublisher
	logger   logger.Logger
}

func NewWorker(
	client provider.Client,
	tokens *TokenResolver,
	crmFactory crm.Factory,
	mapper *Mapper,
	lane broker.Consumer,
	outcomes broker.OutcomePublisher,
	log logger.Logger,
) *Worker {
	if outcomes == nil {
		outcomes = broker.NopOutcomePublisher{}
	}
	return &Worker{
		client:   client,
		tokens:   tokens,
		crm:      crmFactory,
		mapper:   mapper,
		lane:     lane,
		outcomes: outcomes,
		logger:   log,
	}
}

func (w *Worker) Run(ctx context.Context) error {
	w.reportQueueDepth(ctx)
	return w.lane.Consume(ctx, w.Handle)
}

// Handle settles exactly one delivery. The returned error is a settlement
// failure; job failures are recorded on the user instead.
func (w *Worker) Handle(ctx context.Context, d broker.Delivery) (err error) {
	start := time.Now()
	delivery := &settleOnce{Delivery: d}
	outcome := models.OutcomeRejected

	defer func() {
		if r := recover(); r != nil {
			panicErr := apperrors.RecoverPanic(r)
			w.logger.ErrorwCtx(ctx, "Panic recovered during lookup job",
				"error", panicErr,
				"redelivered", d.Redelivered(),
			)
			if !delivery.settled {
				outcome = models.OutcomeRejected
				if !d.Redelivered() {
					outcome = models.OutcomeRequeued
				}
				err = delivery.Reject(!d.Redelivered())
			}
		}

		metrics.ObserveWorkerDuration(time.Since(start), outcome)
		metrics.IncWorkerOutcome(outcome)
		w.reportQueueDepth(ctx)
	}()

	ctx, span := tracing.GetTracer("enrichment-worker").Start(ctx, "enrichment.lookup")
	defer span.End()

	var job LookupJob
	if err := json.Unmarshal(d.Body(), &job); err != nil {
		w.logger.ErrorwCtx(ctx, "Rejecting malformed lookup job",
			"error", apperrors.ErrMalformedMessage.WithCause(err),
		)
		return delivery.Reject(false)
	}
	if err := job.Validate(); err != nil {
		w.logger.ErrorwCtx(ctx, "Rejecting invalid lookup job",
			"error", err,
		)
		return delivery.Reject(false)
	}

	ctx = logging.WithInstallID(ctx, job.ConnectorAuth.ID)
	if logging.GetCorrelationKey(ctx) == "" && job.CorrelationKey != "" {
		ctx = logging.WithCorrelationKey(ctx, job.CorrelationKey)
	}

	var message string
	outcome, message, err = w.process(ctx, delivery, job)

	// Outcome reporting outlives a shutdown that interrupted the lookup.
	ctx = context.WithoutCancel(ctx)

	event := models.NewOutcome(job.ConnectorAuth.ID, outcome).
		WithUser(crm.UserIdentityOf(job.User).ID, job.LookupURL).
		WithCorrelationKey(logging.GetCorrelationKey(ctx)).
		WithMessage(message).
		Redelivered(d.Redelivered()).
		Build()
	if pubErr := w.outcomes.PublishOutcome(ctx, event); pubErr != nil {
		w.logger.WarnwCtx(ctx, "Failed to publish outcome event",
			"outcome", outcome,
			"error", pubErr,
		)
	}

	return err
}

func (w *Worker) process(ctx context.Context, d broker.Delivery, job LookupJob) (outcome, message string, err error) {
	installID := job.ConnectorAuth.ID

	token, err := w.tokens.Resolve(ctx, installID, job.Settings)
	if err != nil {
		return w.failed(ctx, d, job, failureDetails(err))
	}

	res := w.client.FetchResult(ctx, token, job.LookupURL)
	if !res.Success {
		if res.IsAuthFailure() {
			w.tokens.Invalidate(context.WithoutCancel(ctx), installID)
		}
		return w.failed(ctx, d, job, res.Details())
	}

	var writes crm.AttributeWriteSet
	if res.Data.Found() {
		outcome = models.OutcomeEnriched
		writes = w.mapper.MapSuccess(ctx, job.Settings.EnrichmentUserAttributesIncoming, res.Data.Data)
	} else {
		outcome = models.OutcomeNotFound
		if res.Data != nil {
			message = res.Data.Message
		}
		writes = w.mapper.MapFailure(message)
	}

	if err := w.write(ctx, job, writes); err != nil {
		if !d.Redelivered() {
			w.logger.WarnwCtx(ctx, "CRM write failed, requeueing lookup job",
				"error", err,
			)
			return models.OutcomeRequeued, err.Error(), d.Reject(true)
		}
		w.logger.ErrorwCtx(ctx, "CRM write failed on redelivery, dropping lookup job",
			"error", err,
		)
		return models.OutcomeWriteFailed, err.Error(), d.Reject(false)
	}

	w.logger.InfowCtx(ctx, "Lookup job completed",
		"outcome", outcome,
		"redelivered", d.Redelivered(),
	)
	return outcome, message, d.Ack()
}

// failed handles a transport or API failure: requeue on first delivery,
// record the failure and drop the job on redelivery. A lookup cut short by
// cancellation is always requeued and never recorded on the user.
func (w *Worker) failed(ctx context.Context, d broker.Delivery, job LookupJob, details provider.ErrorDetails) (string, string, error) {
	description := describeFailure(details)

	if ctx.Err() != nil || details.Code == provider.CodeCanceled {
		w.logger.WarnwCtx(ctx, "Lookup interrupted, requeueing",
			"error", details.Message,
			"redelivered", d.Redelivered(),
		)
		return models.OutcomeRequeued, description, d.Reject(true)
	}

	if !d.Redelivered() {
		w.logger.WarnwCtx(ctx, "Lookup failed, requeueing once",
			"error", details.Message,
			"code", details.Code,
		)
		return models.OutcomeRequeued, description, d.Reject(true)
	}

	w.logger.WarnwCtx(ctx, "Lookup failed on redelivery, recording failure",
		"error", details.Message,
		"code", details.Code,
	)
	if err := w.write(ctx, job, w.mapper.MapAPIFailure(details)); err != nil {
		w.logger.ErrorwCtx(ctx, "Failed to record lookup failure",
			"error", err,
		)
	}
	return models.OutcomeAPIFailure, description, d.Reject(false)
}

// write runs detached from ctx cancellation; the CRM client carries its own
// timeout.
func (w *Worker) write(ctx context.Context, job LookupJob, writes crm.AttributeWriteSet) error {
	client := w.crm.ForInstall(job.ConnectorAuth)
	return client.WriteUserAttributes(context.WithoutCancel(ctx), crm.UserIdentityOf(job.User), writes)
}

func (w *Worker) reportQueueDepth(ctx context.Context) {
	count, err := w.lane.MessageCount()
	if err != nil {
		w.logger.DebugwCtx(ctx, "Failed to read queue load",
			"error", err,
		)
		return
	}
	metrics.SetMessageQueueSize(w.lane.Name(), count)
	w.logger.DebugwCtx(ctx, "Queue load",
		"lane", w.lane.Name(),
		"messages", count,
	)
}

// settleOnce records whether the delivery has been acked or rejected.
type settleOnce struct {
	broker.Delivery
	settled bool
}

func (s *settleOnce) Ack() error {
	s.settled = true
	return s.Delivery.Ack()
}

func (s *settleOnce) Reject(requeue bool) error {
	s.settled = true
	return s.Delivery.Reject(requeue)
}
