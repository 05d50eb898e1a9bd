package enrichment

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/streadway/amqp"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"enrichsync/internal/broker"
	"enrichsync/internal/crm"
	"enrichsync/internal/enrichment/provider"
	"enrichsync/internal/install"
	"enrichsync/internal/logger"
	"enrichsync/internal/tokencache"
	"enrichsync/pkg/models"
)

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) Authenticate(ctx context.Context, clientID, clientSecret string) provider.Result[provider.AccessToken] {
	args := m.Called(ctx, clientID, clientSecret)
	return args.Get(0).(provider.Result[provider.AccessToken])
}

func (m *mockProvider) SubmitForEnrichment(ctx context.Context, token, lookupURL string) provider.Result[provider.AddURLResponse] {
	args := m.Called(ctx, token, lookupURL)
	return args.Get(0).(provider.Result[provider.AddURLResponse])
}

func (m *mockProvider) FetchResult(ctx context.Context, token, lookupURL string) provider.Result[provider.ProspectByURLResponse] {
	args := m.Called(ctx, token, lookupURL)
	return args.Get(0).(provider.Result[provider.ProspectByURLResponse])
}

func (m *mockProvider) SearchDomain(ctx context.Context, token string, params provider.DomainSearchParams) provider.Result[provider.DomainSearchResponse] {
	args := m.Called(ctx, token, params)
	return args.Get(0).(provider.Result[provider.DomainSearchResponse])
}

func (m *mockProvider) GetUserLists(ctx context.Context, token string) provider.Result[[]provider.UserList] {
	args := m.Called(ctx, token)
	return args.Get(0).(provider.Result[[]provider.UserList])
}

func (m *mockProvider) GetProspectList(ctx context.Context, token string, params provider.ProspectListParams) provider.Result[provider.ProspectListResponse] {
	args := m.Called(ctx, token, params)
	return args.Get(0).(provider.Result[provider.ProspectListResponse])
}

// mockCRM is both the factory and the per-install client.
type mockCRM struct {
	mock.Mock

	mu    sync.Mutex
	auths []install.Auth
}

func (m *mockCRM) ForInstall(auth install.Auth) crm.Client {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.auths = append(m.auths, auth)
	return m
}

func (m *mockCRM) WriteUserAttributes(ctx context.Context, identity crm.UserIdentity, attrs crm.AttributeWriteSet) error {
	args := m.Called(ctx, identity, attrs)
	return args.Error(0)
}

func (m *mockCRM) WriteAccountAttributes(ctx context.Context, identity crm.AccountIdentity, attrs crm.AttributeWriteSet) error {
	args := m.Called(ctx, identity, attrs)
	return args.Error(0)
}

func (m *mockCRM) PutStatus(ctx context.Context, status crm.ConnectorStatus) error {
	args := m.Called(ctx, status)
	return args.Error(0)
}

// writes returns the attribute sets passed to method, in call order.
func (m *mockCRM) writes(method string) []crm.AttributeWriteSet {
	var out []crm.AttributeWriteSet
	for _, call := range m.Calls {
		if call.Method == method {
			out = append(out, call.Arguments.Get(2).(crm.AttributeWriteSet))
		}
	}
	return out
}

type fakePublisher struct {
	bodies         [][]byte
	correlationIDs []string
	err            error
}

func (p *fakePublisher) Publish(ctx context.Context, body []byte, correlationID string) error {
	if p.err != nil {
		return p.err
	}
	p.bodies = append(p.bodies, body)
	p.correlationIDs = append(p.correlationIDs, correlationID)
	return nil
}

type recordingOutcomes struct {
	events []models.OutcomeEvent
}

func (r *recordingOutcomes) PublishOutcome(ctx context.Context, event models.OutcomeEvent) error {
	r.events = append(r.events, event)
	return nil
}

func (r *recordingOutcomes) Close() error { return nil }

func (r *recordingOutcomes) outcomes() []string {
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Outcome)
	}
	return out
}

type fakeDelivery struct {
	body        []byte
	redelivered bool

	acked    bool
	rejected bool
	requeue  bool
}

func (d *fakeDelivery) Body() []byte { return d.body }
func (d *fakeDelivery) MessageID() string { return "msg-1" }
func (d *fakeDelivery) CorrelationID() string { return "" }
func (d *fakeDelivery) Headers() amqp.Table { return amqp.Table{} }
func (d *fakeDelivery) Redelivered() bool { return d.redelivered }

func (d *fakeDelivery) Ack() error {
	if d.acked || d.rejected {
		return errors.New("delivery already settled")
	}
	d.acked = true
	return nil
}

func (d *fakeDelivery) Reject(requeue bool) error {
	if d.acked || d.rejected {
		return errors.New("delivery already settled")
	}
	d.rejected = true
	d.requeue = requeue
	return nil
}

type fakeLane struct {
	deliveries []broker.Delivery
	count      int
	inspected  int
}

func (l *fakeLane) Consume(ctx context.Context, handler broker.HandlerFunc) error {
	for _, d := range l.deliveries {
		if err := handler(ctx, d); err != nil {
			return err
		}
	}
	return nil
}

func (l *fakeLane) MessageCount() (int, error) {
	l.inspected++
	return l.count, nil
}

func (l *fakeLane) Name() string { return "enrichment.lookup" }

func newTestTokens(t *testing.T, client provider.Client) (*TokenResolver, *miniredis.Miniredis, *tokencache.Cache) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cache := tokencache.New(rdb)
	return NewTokenResolver(cache, client, logger.NopLogger()), mr, cache
}

func seedToken(t *testing.T, cache *tokencache.Cache, installID, token string) {
	t.Helper()
	require.NoError(t, cache.Set(context.Background(), installID, token, time.Hour))
}

func newTestMapper(t *testing.T) *Mapper {
	t.Helper()

	m, err := NewMapper(logger.NopLogger())
	require.NoError(t, err)
	m.now = func() time.Time { return fixedNow }
	return m
}

func boolPtr(b bool) *bool { return &b }

func strPtr(s string) *string { return &s }

func testInstall() *install.Install {
	return &install.Install{
		ID:           "inst-1",
		Secret:       "s3cret",
		Organization: "org.crm.example",
		Settings: install.PrivateSettings{
			ClientID:                           "client-id",
			ClientSecret:                       "client-secret",
			EnrichmentUserSynchronizedSegments: []string{"seg-1"},
			EnrichmentUserLookupSocialURL:      "linkedin_url",
			EnrichmentUserAttributesIncoming: []install.AttributeMapping{
				{Hull: "traits_snov/first_name", Service: "profile.firstName", Overwrite: boolPtr(true)},
				{Hull: "traits_snov/company", Service: "profile.currentJob[0].companyName", Overwrite: boolPtr(false)},
			},
			EmailsAccountSynchronizedSegments: []string{"acc-seg-1"},
			EmailsAccountAttributesIncoming: []install.AttributeMapping{
				{Hull: "snov/company_name", Service: "domain.companyName"},
			},
		},
	}
}

func janeMessage() crm.UserUpdateMessage {
	return crm.UserUpdateMessage{
		User: crm.Entity{
			"id":           "user-1",
			"email":        "jane@acme.io",
			"linkedin_url": "https://linkedin.com/in/jane",
		},
		Segments: []crm.Segment{{ID: "seg-1"}},
	}
}

const janeLookupURL = "https://www.linkedin.com/in/jane"

func janeProfile() *provider.ProspectProfile {
	return &provider.ProspectProfile{
		ID:        "snov-42",
		FirstName: "Jane",
		LastName:  "Doe",
		CurrentJob: []provider.Job{
			{CompanyName: "Acme", Position: "CTO", Site: strPtr("acme.io")},
		},
		Emails: []provider.ProfileEmail{{Email: "jane@acme.io", Status: "valid"}},
	}
}
