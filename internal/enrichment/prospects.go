package enrichment

import (
	"context"
	"strconv"

	"enrichsync/internal/constants"
	"enrichsync/internal/crm"
	"enrichsync/internal/enrichment/provider"
	"enrichsync/internal/install"
	"enrichsync/internal/logger"
	apperrors "enrichsync/pkg/errors"
	"enrichsync/pkg/logging"
	"enrichsync/pkg/tracing"
)

// ProspectImporter copies the prospects of a provider list into the CRM as
// users identified by their primary email.
type ProspectImporter struct {
	client   provider.Client
	tokens   *TokenResolver
	crm      crm.Factory
	mapper   *Mapper
	pageSize int
	logger   logger.Logger
}

func NewProspectImporter(client provider.Client, tokens *TokenResolver, crmFactory crm.Factory, mapper *Mapper, log logger.Logger) *ProspectImporter {
	return &ProspectImporter{
		client:   client,
		tokens:   tokens,
		crm:      crmFactory,
		mapper:   mapper,
		pageSize: constants.ProspectPageSize,
		logger:   log,
	}
}

// Lists returns the install's live prospect lists as selectable options.
func (p *ProspectImporter) Lists(ctx context.Context, inst *install.Install) ([]FieldOption, error) {
	ctx = logging.WithInstallID(ctx, inst.ID)
	if !inst.Settings.HasCredentials() {
		return nil, apperrors.ErrValidation.WithDetail("message", "connector has no provider credentials")
	}

	token, err := p.tokens.Resolve(ctx, inst.ID, inst.Settings)
	if err != nil {
		return nil, err
	}

	res := p.client.GetUserLists(ctx, token)
	if !res.Success {
		if res.IsAuthFailure() {
			p.tokens.Invalidate(ctx, inst.ID)
		}
		return nil, apperrors.ErrProvider.WithDetail("message", describeFailure(res.Details()))
	}

	options := make([]FieldOption, 0)
	if res.Data != nil {
		for _, l := range *res.Data {
			if l.IsDeleted {
				continue
			}
			options = append(options, FieldOption{Value: strconv.Itoa(l.ID), Label: l.Name})
		}
	}
	return options, nil
}

// Import pages through list listID until a short page is returned.
func (p *ProspectImporter) Import(ctx context.Context, inst *install.Install, listID int) (ImportSummary, error) {
	ctx = logging.WithInstallID(ctx, inst.ID)
	ctx, span := tracing.GetTracer("enrichment-prospects").Start(ctx, "enrichment.import_prospect_list")
	defer span.End()

	summary := ImportSummary{ListID: listID}

	if !inst.Settings.HasCredentials() {
		return summary, apperrors.ErrValidation.WithDetail("message", "connector has no provider credentials")
	}

	token, err := p.tokens.Resolve(ctx, inst.ID, inst.Settings)
	if err != nil {
		return summary, err
	}

	client := p.crm.ForInstall(inst.Auth())
	for page := 1; ; page++ {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		res := p.client.GetProspectList(ctx, token, provider.ProspectListParams{
			ListID:  listID,
			Page:    page,
			PerPage: p.pageSize,
		})
		if !res.Success {
			if res.IsAuthFailure() {
				p.tokens.Invalidate(ctx, inst.ID)
			}
			return summary, apperrors.ErrProvider.WithDetail("message", describeFailure(res.Details()))
		}
		if res.Data == nil || !res.Data.Success {
			message := "prospect list not available"
			if res.Data != nil && res.Data.Message != "" {
				message = res.Data.Message
			}
			return summary, apperrors.ErrNotFound.WithDetail("message", message)
		}

		if res.Data.List != nil && summary.ListName == "" {
			summary.ListName = res.Data.List.Name
		}
		summary.Pages++

		for _, prospect := range res.Data.Prospects {
			p.importProspect(ctx, client, inst.Settings, prospect, &summary)
		}

		p.logger.DebugwCtx(ctx, "Imported prospect list page",
			"list_id", listID,
			"page", page,
			"prospects", len(res.Data.Prospects),
		)

		if len(res.Data.Prospects) < p.pageSize {
			break
		}
	}

	p.logger.InfowCtx(ctx, "Prospect list imported",
		"list_id", listID,
		"list_name", summary.ListName,
		"imported", summary.Imported,
		"skipped", summary.Skipped,
		"failed", summary.Failed,
	)
	return summary, nil
}

func (p *ProspectImporter) importProspect(ctx context.Context, client crm.Client, settings install.PrivateSettings, prospect provider.Prospect, summary *ImportSummary) {
	email := PrimaryEmail(settings.ProspectionListsEmailStrategy, prospect.Emails)
	if email == "" {
		summary.Skipped++
		p.logger.DebugwCtx(ctx, "Skipping prospect without email",
			"prospect_id", prospect.ID,
		)
		return
	}

	writes := p.mapper.MapProspect(ctx, settings, prospect, summary.ListName)
	if err := client.WriteUserAttributes(ctx, crm.UserIdentity{Email: email}, writes); err != nil {
		summary.Failed++
		p.logger.ErrorwCtx(ctx, "Failed to write prospect",
			"prospect_id", prospect.ID,
			"error", err,
		)
		return
	}
	summary.Imported++
}
