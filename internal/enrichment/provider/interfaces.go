package provider

import (
	"context"
)

// Client is the enrichment provider. Every method is a single call with no
// retry of its own.
type Client interface {
	Authenticate(ctx context.Context, clientID, clientSecret string) Result[AccessToken]
	SubmitForEnrichment(ctx context.Context, token, lookupURL string) Result[AddURLResponse]
	FetchResult(ctx context.Context, token, lookupURL string) Result[ProspectByURLResponse]
	SearchDomain(ctx context.Context, token string, params DomainSearchParams) Result[DomainSearchResponse]
	GetUserLists(ctx context.Context, token string) Result[[]UserList]
	GetProspectList(ctx context.Context, token string, params ProspectListParams) Result[ProspectListResponse]
}
