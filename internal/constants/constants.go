package constants

import "time"

const (
	KafkaBatchTimeout = 10 * time.Millisecond
	KafkaWriteTimeout = 10 * time.Second
)

const (
	DefaultProviderBaseURL = "https://api.snov.io"
	DefaultProviderTimeout = 10 * time.Second
	DefaultCRMTimeout      = 10 * time.Second
)

// Tokens are cached for the provider-declared lifetime minus this margin.
const (
	TokenSafetyMargin = 30 * time.Second
)

const (
	CacheKeySuffixAccessToken   = "_accesstoken"
	CacheKeySuffixConnectorAuth = "_connectorauth"
	ConnectorAuthCacheTTL       = 12 * time.Hour
)

const (
	DefaultLookupLane   = "enrichment.lookup"
	DefaultOutcomeTopic = "enrichment.outcomes"
)

const (
	ShutdownTimeout = 5 * time.Second
)

const (
	HTTPStatusOKMin = 200
	HTTPStatusOKMax = 300
)

const (
	ObjectTypeUser    = "user"
	ObjectTypeAccount = "account"
)

const (
	OperationEnrich = "enrich"
	OperationSkip   = "skip"
)

const (
	AttributeOperationSet       = "set"
	AttributeOperationSetIfNull = "setIfNull"
)

// AttributeGroup prefixes every attribute this connector owns in the CRM.
const AttributeGroup = "snov"

const (
	MetaObjectTypeEnrichByURL = "enrichmentbyurl"
	MetaObjectTypeDomain      = "domainsearch"
	MetaObjectTypeProspect    = "prospectlist"
)

const (
	ProspectPageSize = 100
	DomainSearchType = "all"
	DomainSearchSize = 100
)

const (
	HeaderInstallID     = "X-Install-Id"
	HeaderInstallSecret = "X-Install-Secret"
	HeaderOrganization  = "X-Install-Organization"
	HeaderCorrelationID = "X-Correlation-Id"
)

const (
	ServiceNameConnector = "enrichment-connector"
	ServiceNameWorker    = "enrichment-worker"
)
