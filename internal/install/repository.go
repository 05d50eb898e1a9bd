package install

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	apperrors "enrichsync/pkg/errors"
	"enrichsync/pkg/metrics"
)

type Repository interface {
	Get(ctx context.Context, id string) (*Install, error)
	Upsert(ctx context.Context, inst *Install) error
	List(ctx context.Context) ([]Install, error)
}

type PostgresRepository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (inst *Install, err error) {
	start := time.Now()
	defer func() { metrics.ObserveDatabaseQuery("postgresql", "install_get", err, time.Since(start)) }()

	query := `
		SELECT id, secret, organization, settings, created_at, updated_at
		FROM installs
		WHERE id = $1
	`

	var (
		found    Install
		settings []byte
	)
	err = r.db.QueryRowContext(ctx, query, id).Scan(
		&found.ID, &found.Secret, &found.Organization, &settings, &found.CreatedAt, &found.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.ErrNotFound.WithCause(err).WithDetail("message", fmt.Sprintf("install '%s' not found", id))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get install: %w", err)
	}

	if err = json.Unmarshal(settings, &found.Settings); err != nil {
		return nil, fmt.Errorf("failed to decode settings of install %s: %w", id, err)
	}

	return &found, nil
}

// Upsert creates the install or replaces its secret, organization and
// settings. An empty ID gets a fresh uuid.
func (r *PostgresRepository) Upsert(ctx context.Context, inst *Install) (err error) {
	start := time.Now()
	defer func() { metrics.ObserveDatabaseQuery("postgresql", "install_upsert", err, time.Since(start)) }()

	if inst.ID == "" {
		inst.ID = uuid.New().String()
	}
	if err = inst.Settings.Validate(); err != nil {
		return err
	}

	settings, err := json.Marshal(inst.Settings)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}

	now := time.Now().UTC()
	query := `
		INSERT INTO installs (id, secret, organization, settings, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		ON CONFLICT (id) DO UPDATE
		SET secret = EXCLUDED.secret,
		    organization = EXCLUDED.organization,
		    settings = EXCLUDED.settings,
		    updated_at = EXCLUDED.updated_at
		RETURNING created_at, updated_at
	`

	err = r.db.QueryRowContext(ctx, query, inst.ID, inst.Secret, inst.Organization, settings, now).
		Scan(&inst.CreatedAt, &inst.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23514" {
			return apperrors.ErrValidation.WithCause(err).WithDetail("message", pqErr.Message)
		}
		return fmt.Errorf("failed to upsert install: %w", err)
	}

	return nil
}

func (r *PostgresRepository) List(ctx context.Context) (installs []Install, err error) {
	start := time.Now()
	defer func() { metrics.ObserveDatabaseQuery("postgresql", "install_list", err, time.Since(start)) }()

	query := `
		SELECT id, secret, organization, settings, created_at, updated_at
		FROM installs
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list installs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		if err = ctx.Err(); err != nil {
			return nil, fmt.Errorf("context cancelled: %w", err)
		}

		var (
			inst     Install
			settings []byte
		)
		if err = rows.Scan(&inst.ID, &inst.Secret, &inst.Organization, &settings, &inst.CreatedAt, &inst.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan install: %w", err)
		}
		if err = json.Unmarshal(settings, &inst.Settings); err != nil {
			return nil, fmt.Errorf("failed to decode settings of install %s: %w", inst.ID, err)
		}
		installs = append(installs, inst)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate installs: %w", err)
	}

	return installs, nil
}
