//go:build integration

package install

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	postgresmodule "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	apperrors "enrichsync/pkg/errors"
)

func setupPostgres(t *testing.T) *sql.DB {
	t.Helper()
	ctx := context.Background()

	container, err := postgresmodule.Run(ctx, "postgres:15",
		postgresmodule.WithDatabase("test_db"),
		postgresmodule.WithUsername("test_user"),
		postgresmodule.WithPassword("test_password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { container.Terminate(ctx) })

	conn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := sql.Open("postgres", conn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, db.PingContext(ctx))
	require.NoError(t, Migrate(db))
	return db
}

func TestPostgresRepository(t *testing.T) {
	db := setupPostgres(t)
	repo := NewRepository(db)
	ctx := context.Background()

	overwrite := false
	inst := &Install{
		Secret:       "install-secret",
		Organization: "acme.crm.example",
		Settings: PrivateSettings{
			ClientID:                      "cid",
			ClientSecret:                  "csecret",
			EnrichmentUserLookupSocialURL: "linkedin_url",
			EnrichmentUserAttributesIncoming: []AttributeMapping{
				{Hull: "traits_snov/first_name", Service: "profile.firstName", Overwrite: &overwrite},
			},
		},
	}

	t.Run("create assigns id", func(t *testing.T) {
		require.NoError(t, repo.Upsert(ctx, inst))
		assert.NotEmpty(t, inst.ID)
		assert.False(t, inst.CreatedAt.IsZero())
	})

	t.Run("get round-trips settings", func(t *testing.T) {
		got, err := repo.Get(ctx, inst.ID)
		require.NoError(t, err)
		assert.Equal(t, inst.Secret, got.Secret)
		assert.Equal(t, inst.Settings, got.Settings)
	})

	t.Run("update replaces settings", func(t *testing.T) {
		inst.Settings.EnrichmentUserSynchronizedSegments = []string{"seg-vip"}
		require.NoError(t, repo.Upsert(ctx, inst))

		got, err := repo.Get(ctx, inst.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{"seg-vip"}, got.Settings.EnrichmentUserSynchronizedSegments)
	})

	t.Run("list", func(t *testing.T) {
		all, err := repo.List(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})

	t.Run("missing install", func(t *testing.T) {
		_, err := repo.Get(ctx, "does-not-exist")
		assert.True(t, apperrors.IsNotFound(err))
	})

	t.Run("migrations are idempotent", func(t *testing.T) {
		assert.NoError(t, Migrate(db))
	})
}
