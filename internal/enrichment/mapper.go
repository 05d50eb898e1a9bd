package enrichment

import (
	"context"
	"sort"
	"strings"
	"time"

	"enrichsync/internal/constants"
	"enrichsync/internal/crm"
	"enrichsync/internal/enrichment/provider"
	"enrichsync/internal/install"
	"enrichsync/internal/logger"
	"enrichsync/pkg/cel"
)

const unknownFailureReason = "Unknown reason."

// Evaluator evaluates one mapping expression against a decoded record.
type Evaluator interface {
	Evaluate(ctx context.Context, expression string, record map[string]interface{}) (interface{}, error)
}

// Mapper turns provider answers into CRM attribute writes. Expressions see
// the by-url profile as `profile`, a domain search result as `domain` and a
// prospect list entry as `prospect`.
type Mapper struct {
	profiles  Evaluator
	domains   Evaluator
	prospects Evaluator
	now       func() time.Time
	logger    logger.Logger
}

func NewMapper(log logger.Logger) (*Mapper, error) {
	profiles, err := cel.NewEvaluator("profile")
	if err != nil {
		return nil, err
	}
	domains, err := cel.NewEvaluator("domain")
	if err != nil {
		return nil, err
	}
	prospects, err := cel.NewEvaluator("prospect")
	if err != nil {
		return nil, err
	}

	return &Mapper{
		profiles:  profiles,
		domains:   domains,
		prospects: prospects,
		now:       time.Now,
		logger:    log,
	}, nil
}

func attr(name string) string {
	return constants.AttributeGroup + "/" + name
}

func (m *Mapper) timestamp() string {
	return m.now().UTC().Format(time.RFC3339)
}

// MapSuccess maps a found profile with the install's incoming user mappings.
func (m *Mapper) MapSuccess(ctx context.Context, mappings []install.AttributeMapping, profile *provider.ProspectProfile) crm.AttributeWriteSet {
	writes := crm.AttributeWriteSet{}

	record, err := provider.AsRecord(profile)
	if err != nil {
		m.logger.WarnwCtx(ctx, "Failed to convert profile for mapping", "error", err)
	} else {
		m.applyRules(ctx, m.profiles, mappings, record, writes)
	}

	var id string
	if profile != nil {
		id = profile.ID
	}
	writes.SetIfNull(attr("id"), id)
	writes.Set(attr("enriched_at"), m.timestamp())
	writes.Set(attr("enriched_success"), true)
	writes.Set(attr("enriched_error"), nil)
	return writes
}

// MapFailure records a well-formed negative answer from the provider.
func (m *Mapper) MapFailure(message string) crm.AttributeWriteSet {
	if message == "" {
		message = unknownFailureReason
	}
	return m.failure("enriched", message)
}

// MapAPIFailure records a transport or API failure.
func (m *Mapper) MapAPIFailure(details provider.ErrorDetails) crm.AttributeWriteSet {
	return m.failure("enriched", describeFailure(details))
}

func (m *Mapper) MapDomainResult(ctx context.Context, mappings []install.AttributeMapping, result *provider.DomainSearchResponse) crm.AttributeWriteSet {
	writes := crm.AttributeWriteSet{}

	record, err := provider.AsRecord(result)
	if err != nil {
		m.logger.WarnwCtx(ctx, "Failed to convert domain result for mapping", "error", err)
	} else {
		m.applyRules(ctx, m.domains, mappings, record, writes)
	}

	emails := make([]string, 0)
	if result != nil {
		for _, e := range result.Emails {
			if e.Email != "" {
				emails = append(emails, e.Email)
			}
		}
	}
	writes.Set(attr("domain_emails"), emails)
	writes.Set(attr("domain_enriched_at"), m.timestamp())
	writes.Set(attr("domain_enriched_success"), true)
	writes.Set(attr("domain_enriched_error"), nil)
	return writes
}

func (m *Mapper) MapDomainFailure(details provider.ErrorDetails) crm.AttributeWriteSet {
	return m.failure("domain_enriched", describeFailure(details))
}

// MapProspect maps one entry of a prospect list that is being imported.
func (m *Mapper) MapProspect(ctx context.Context, settings install.PrivateSettings, prospect provider.Prospect, listName string) crm.AttributeWriteSet {
	writes := crm.AttributeWriteSet{}

	record, err := provider.AsRecord(prospect)
	if err != nil {
		m.logger.WarnwCtx(ctx, "Failed to convert prospect for mapping", "error", err)
	} else {
		m.applyRules(ctx, m.prospects, settings.ProspectionListsUserAttributesIncoming, record, writes)
	}

	writes.SetIfNull(attr("id"), prospect.ID)
	writes.Set(attr("prospect_imported_at"), m.timestamp())
	writes.SetIfNull(attr("prospect_list_first"), listName)
	writes.Set(attr("prospect_list_latest"), listName)

	if email := PrimaryEmail(settings.ProspectionListsEmailStrategy, prospect.Emails); email != "" {
		writes.Set(attr("prospect_primary_email"), email)
	}
	return writes
}

func (m *Mapper) failure(prefix, message string) crm.AttributeWriteSet {
	writes := crm.AttributeWriteSet{}
	writes.Set(attr(prefix+"_at"), m.timestamp())
	writes.Set(attr(prefix+"_success"), false)
	writes.Set(attr(prefix+"_error"), message)
	return writes
}

// applyRules evaluates every valid mapping. A rule that fails to evaluate is
// left out of the write set.
func (m *Mapper) applyRules(ctx context.Context, eval Evaluator, mappings []install.AttributeMapping, record map[string]interface{}, writes crm.AttributeWriteSet) {
	for _, mapping := range mappings {
		if !mapping.Valid() {
			continue
		}

		value, err := eval.Evaluate(ctx, mapping.Service, record)
		if err != nil {
			m.logger.DebugwCtx(ctx, "Skipping attribute mapping",
				"target", mapping.Hull,
				"expression", mapping.Service,
				"error", err,
			)
			continue
		}

		target := strings.Replace(mapping.Hull, "traits_", "", 1)
		if mapping.Overwrite != nil && !*mapping.Overwrite {
			writes.SetIfNull(target, value)
		} else {
			writes.Set(target, value)
		}
	}
}

// PrimaryEmail picks the email to store as primary according to strategy.
// With no candidate for the strategy the first listed email is used.
func PrimaryEmail(strategy string, emails []provider.ProspectEmail) string {
	if len(emails) == 0 {
		return ""
	}

	company := func(e provider.ProspectEmail) bool { return e.DomainType == "company_domain" }
	verified := func(e provider.ProspectEmail) bool { return e.Verified() }

	var candidates []provider.ProspectEmail
	switch strategy {
	case install.EmailStrategyHighestProbabilityOverall:
		candidates = byProbability(emails)
	case install.EmailStrategyHighestProbabilityCompany:
		candidates = byProbability(emails, company)
	case install.EmailStrategyHighestProbabilityVerifiedOverall:
		candidates = byProbability(emails, verified)
	case install.EmailStrategyHighestProbabilityVerifiedCompany:
		candidates = byProbability(emails, company, verified)
		if len(candidates) == 0 {
			candidates = byProbability(emails, company)
		}
	}

	if len(candidates) == 0 {
		return emails[0].Email
	}
	return candidates[0].Email
}

func byProbability(emails []provider.ProspectEmail, filters ...func(provider.ProspectEmail) bool) []provider.ProspectEmail {
	out := make([]provider.ProspectEmail, 0, len(emails))
next:
	for _, e := range emails {
		for _, keep := range filters {
			if !keep(e) {
				continue next
			}
		}
		out = append(out, e)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ProbabilityValue() > out[j].ProbabilityValue()
	})
	return out
}
