package enrichment

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"enrichsync/internal/constants"
	"enrichsync/internal/crm"
	"enrichsync/internal/enrichment/provider"
	"enrichsync/internal/install"
)

func TestMapper_MapSuccess(t *testing.T) {
	m := newTestMapper(t)
	mappings := []install.AttributeMapping{
		{Hull: "traits_snov/first_name", Service: "profile.firstName"},
		{Hull: "traits_snov/company", Service: "profile.currentJob[0].companyName", Overwrite: boolPtr(false)},
		{Hull: "snov/emails", Service: "profile.emails.map(e, e.email)", Overwrite: boolPtr(true)},
		{Hull: "snov/broken", Service: "profile.unknownField"},
		{Hull: "", Service: "profile.id"},
	}

	writes := m.MapSuccess(context.Background(), mappings, janeProfile())

	assert.Equal(t, crm.AttributeWrite{Value: "Jane", Operation: constants.AttributeOperationSet}, writes["snov/first_name"])
	assert.Equal(t, crm.AttributeWrite{Value: "Acme", Operation: constants.AttributeOperationSetIfNull}, writes["snov/company"])
	assert.Equal(t, []interface{}{"jane@acme.io"}, writes["snov/emails"].Value)
	assert.NotContains(t, writes, "snov/broken")

	assert.Equal(t, crm.AttributeWrite{Value: "snov-42", Operation: constants.AttributeOperationSetIfNull}, writes["snov/id"])
	assert.Equal(t, crm.AttributeWrite{Value: "2024-03-01T12:00:00Z", Operation: constants.AttributeOperationSet}, writes["snov/enriched_at"])
	assert.Equal(t, crm.AttributeWrite{Value: true, Operation: constants.AttributeOperationSet}, writes["snov/enriched_success"])
	assert.Equal(t, crm.AttributeWrite{Value: nil, Operation: constants.AttributeOperationSet}, writes["snov/enriched_error"])
	assert.Len(t, writes, 7)
}

func TestMapper_MapSuccess_SetIfNullKeepsExistingValue(t *testing.T) {
	m := newTestMapper(t)
	mappings := []install.AttributeMapping{
		{Hull: "traits_snov/company", Service: "profile.currentJob[0].companyName", Overwrite: boolPtr(false)},
		{Hull: "traits_snov/first_name", Service: "profile.firstName", Overwrite: boolPtr(true)},
	}

	existing := map[string]interface{}{
		"snov/company":    "Initech",
		"snov/first_name": "J.",
		"snov/id":         "snov-1",
	}
	result := m.MapSuccess(context.Background(), mappings, janeProfile()).Apply(existing)

	assert.Equal(t, "Initech", result["snov/company"])
	assert.Equal(t, "Jane", result["snov/first_name"])
	assert.Equal(t, "snov-1", result["snov/id"])
	assert.Equal(t, true, result["snov/enriched_success"])
}

func TestMapper_MapFailure(t *testing.T) {
	m := newTestMapper(t)

	tests := []struct {
		name    string
		message string
		want    string
	}{
		{name: "provider message", message: "invalid url", want: "invalid url"},
		{name: "empty message", message: "", want: "Unknown reason."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			writes := m.MapFailure(tt.message)

			assert.Equal(t, tt.want, writes["snov/enriched_error"].Value)
			assert.Equal(t, false, writes["snov/enriched_success"].Value)
			assert.Equal(t, "2024-03-01T12:00:00Z", writes["snov/enriched_at"].Value)
			assert.Len(t, writes, 3)
		})
	}
}

func TestMapper_MapAPIFailure(t *testing.T) {
	m := newTestMapper(t)

	tests := []struct {
		name    string
		details provider.ErrorDetails
		want    string
	}{
		{
			name:    "with code",
			details: provider.ErrorDetails{Message: "timeout of 10000ms exceeded", Code: "ETIMEDOUT"},
			want:    "timeout of 10000ms exceeded (code: ETIMEDOUT)",
		},
		{
			name:    "without code",
			details: provider.ErrorDetails{Message: "Request failed with status code 500"},
			want:    "Request failed with status code 500 (code: n/a)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			writes := m.MapAPIFailure(tt.details)

			assert.Equal(t, tt.want, writes["snov/enriched_error"].Value)
			assert.Equal(t, false, writes["snov/enriched_success"].Value)
			for _, w := range writes {
				assert.Equal(t, constants.AttributeOperationSet, w.Operation)
			}
		})
	}
}

func TestMapper_MapDomainResult(t *testing.T) {
	m := newTestMapper(t)
	mappings := []install.AttributeMapping{
		{Hull: "snov/company_name", Service: "domain.companyName"},
		{Hull: "snov/webmail", Service: "domain.webmail"},
	}

	writes := m.MapDomainResult(context.Background(), mappings, &provider.DomainSearchResponse{
		Success:     true,
		Domain:      "acme.io",
		CompanyName: "Acme",
		Emails: []provider.DomainEmail{
			{Email: "jane@acme.io"},
			{Email: ""},
			{Email: "john@acme.io"},
		},
	})

	assert.Equal(t, "Acme", writes["snov/company_name"].Value)
	assert.Equal(t, false, writes["snov/webmail"].Value)
	assert.Equal(t, []string{"jane@acme.io", "john@acme.io"}, writes["snov/domain_emails"].Value)
	assert.Equal(t, true, writes["snov/domain_enriched_success"].Value)
	assert.Nil(t, writes["snov/domain_enriched_error"].Value)
}

func TestMapper_MapDomainFailure(t *testing.T) {
	m := newTestMapper(t)

	writes := m.MapDomainFailure(provider.ErrorDetails{Message: "Not enough credits", Code: "HTTP_402"})

	assert.Equal(t, "Not enough credits (code: HTTP_402)", writes["snov/domain_enriched_error"].Value)
	assert.Equal(t, false, writes["snov/domain_enriched_success"].Value)
}

func verifiedFlag(v int) *int { return &v }

func TestPrimaryEmail(t *testing.T) {
	emails := []provider.ProspectEmail{
		{Email: "first@gmail.com", Probability: "40", DomainType: "webmail"},
		{Email: "best@gmail.com", Probability: "99", DomainType: "webmail", IsVerified: verifiedFlag(1)},
		{Email: "work@acme.io", Probability: "80", DomainType: "company_domain"},
		{Email: "verified@acme.io", Probability: "60", DomainType: "company_domain", IsVerified: verifiedFlag(1)},
	}

	tests := []struct {
		name     string
		strategy string
		emails   []provider.ProspectEmail
		want     string
	}{
		{name: "overall", strategy: install.EmailStrategyHighestProbabilityOverall, emails: emails, want: "best@gmail.com"},
		{name: "company", strategy: install.EmailStrategyHighestProbabilityCompany, emails: emails, want: "work@acme.io"},
		{name: "verified overall", strategy: install.EmailStrategyHighestProbabilityVerifiedOverall, emails: emails, want: "best@gmail.com"},
		{name: "verified company", strategy: install.EmailStrategyHighestProbabilityVerifiedCompany, emails: emails, want: "verified@acme.io"},
		{
			name:     "verified company falls back to company",
			strategy: install.EmailStrategyHighestProbabilityVerifiedCompany,
			emails:   emails[:3],
			want:     "work@acme.io",
		},
		{
			name:     "no candidate uses first email",
			strategy: install.EmailStrategyHighestProbabilityCompany,
			emails:   emails[:2],
			want:     "first@gmail.com",
		},
		{name: "no strategy uses first email", strategy: "", emails: emails, want: "first@gmail.com"},
		{name: "no emails", strategy: install.EmailStrategyHighestProbabilityOverall, emails: nil, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PrimaryEmail(tt.strategy, tt.emails))
		})
	}
}

func TestPrimaryEmail_DoesNotReorderInput(t *testing.T) {
	emails := []provider.ProspectEmail{
		{Email: "low@acme.io", Probability: "10"},
		{Email: "high@acme.io", Probability: "90"},
	}

	require.Equal(t, "high@acme.io", PrimaryEmail(install.EmailStrategyHighestProbabilityOverall, emails))
	assert.Equal(t, "low@acme.io", emails[0].Email)
}

func TestMapper_MapProspect(t *testing.T) {
	m := newTestMapper(t)
	settings := install.PrivateSettings{
		ProspectionListsEmailStrategy: install.EmailStrategyHighestProbabilityOverall,
		ProspectionListsUserAttributesIncoming: []install.AttributeMapping{
			{Hull: "traits_snov/prospect_name", Service: "prospect.name"},
		},
	}
	prospect := provider.Prospect{
		ID:   "p-7",
		Name: "Jane Doe",
		Emails: []provider.ProspectEmail{
			{Email: "a@acme.io", Probability: "50"},
			{Email: "b@acme.io", Probability: "75"},
		},
	}

	writes := m.MapProspect(context.Background(), settings, prospect, "Q1 Leads")

	assert.Equal(t, "Jane Doe", writes["snov/prospect_name"].Value)
	assert.Equal(t, crm.AttributeWrite{Value: "p-7", Operation: constants.AttributeOperationSetIfNull}, writes["snov/id"])
	assert.Equal(t, crm.AttributeWrite{Value: "Q1 Leads", Operation: constants.AttributeOperationSetIfNull}, writes["snov/prospect_list_first"])
	assert.Equal(t, crm.AttributeWrite{Value: "Q1 Leads", Operation: constants.AttributeOperationSet}, writes["snov/prospect_list_latest"])
	assert.Equal(t, "b@acme.io", writes["snov/prospect_primary_email"].Value)
	assert.Equal(t, "2024-03-01T12:00:00Z", writes["snov/prospect_imported_at"].Value)
}

func TestMapper_MapProspect_NoEmail(t *testing.T) {
	m := newTestMapper(t)

	writes := m.MapProspect(context.Background(), install.PrivateSettings{}, provider.Prospect{ID: "p-8"}, "Q1 Leads")

	assert.NotContains(t, writes, "snov/prospect_primary_email")
	assert.Contains(t, writes, "snov/id")
}
