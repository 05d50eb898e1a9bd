package install

import (
	"fmt"
	"strings"
	"time"

	apperrors "enrichsync/pkg/errors"
)

// Email strategies for picking the primary email of an imported prospect.
const (
	EmailStrategyHighestProbabilityOverall         = "HIGHEST_PROBABILITY_OVERALL"
	EmailStrategyHighestProbabilityCompany         = "HIGHEST_PROBABILITY_COMPANY"
	EmailStrategyHighestProbabilityVerifiedOverall = "HIGHEST_PROBABILITY_VERIFIED_OVERALL"
	EmailStrategyHighestProbabilityVerifiedCompany = "HIGHEST_PROBABILITY_VERIFIED_COMPANY"
)

// Auth identifies an install towards the CRM. It travels inside queued jobs so
// the worker never has to look the install up again.
type Auth struct {
	ID           string `json:"id"`
	Secret       string `json:"secret"`
	Organization string `json:"organization"`
}

type Install struct {
	ID           string          `json:"id"`
	Secret       string          `json:"-"`
	Organization string          `json:"organization"`
	Settings     PrivateSettings `json:"private_settings"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

func (i *Install) Auth() Auth {
	return Auth{ID: i.ID, Secret: i.Secret, Organization: i.Organization}
}

// AttributeMapping maps one provider expression onto one CRM attribute.
// A nil Overwrite means overwrite.
type AttributeMapping struct {
	Hull      string `json:"hull"`
	Service   string `json:"service"`
	Overwrite *bool  `json:"overwrite,omitempty"`
}

func (m AttributeMapping) Valid() bool {
	return strings.TrimSpace(m.Hull) != "" && strings.TrimSpace(m.Service) != ""
}

type PrivateSettings struct {
	ClientID     string `json:"client_id,omitempty"`
	ClientSecret string `json:"client_secret,omitempty"`

	EnrichmentUserSynchronizedSegments []string           `json:"enrichment_user_synchronized_segments"`
	EnrichmentUserLookupSocialURL      string             `json:"enrichment_user_lookup_socialurl,omitempty"`
	EnrichmentUserAttributesIncoming   []AttributeMapping `json:"enrichment_user_attributes_incoming"`

	EmailsAccountSynchronizedSegments []string           `json:"emails_account_synchronized_segments"`
	EmailsAccountAttributesIncoming   []AttributeMapping `json:"emails_account_attributes_incoming"`

	ProspectionListsUserAttributesIncoming []AttributeMapping `json:"prospectionlists_user_attributes_incoming"`
	ProspectionListsEmailStrategy          string             `json:"prospectionlists_emailstrategy,omitempty"`
}

func (s PrivateSettings) HasCredentials() bool {
	return s.ClientID != "" && s.ClientSecret != ""
}

// CanEnrichUsers is false when any piece needed for a by-url lookup is
// missing; the producer then does nothing at all.
func (s PrivateSettings) CanEnrichUsers() bool {
	return s.HasCredentials() && s.EnrichmentUserLookupSocialURL != ""
}

func (s PrivateSettings) Validate() error {
	switch s.ProspectionListsEmailStrategy {
	case "",
		EmailStrategyHighestProbabilityOverall,
		EmailStrategyHighestProbabilityCompany,
		EmailStrategyHighestProbabilityVerifiedOverall,
		EmailStrategyHighestProbabilityVerifiedCompany:
	default:
		return apperrors.ErrValidation.WithDetail("message",
			fmt.Sprintf("unknown prospect list email strategy '%s'", s.ProspectionListsEmailStrategy))
	}

	groups := map[string][]AttributeMapping{
		"enrichment_user_attributes_incoming":       s.EnrichmentUserAttributesIncoming,
		"emails_account_attributes_incoming":        s.EmailsAccountAttributesIncoming,
		"prospectionlists_user_attributes_incoming": s.ProspectionListsUserAttributesIncoming,
	}
	for field, mappings := range groups {
		for i, m := range mappings {
			if strings.TrimSpace(m.Hull) == "" {
				return apperrors.ErrValidation.WithDetail("message",
					fmt.Sprintf("%s[%d]: target attribute is required", field, i))
			}
		}
	}

	return nil
}
