package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/RMahshie/photoiso/internal/repository"
	"github.com/RMahshie/photoiso/pkg/models"
)

const schema = `
	CREATE TABLE IF NOT EXISTS collecting_areas (
		name       TEXT PRIMARY KEY,
		area_um2   DOUBLE PRECISION NOT NULL CHECK (area_um2 >= 0),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`

// PostgresCollectingAreaRepository implements CollectingAreaRepository for PostgreSQL
type PostgresCollectingAreaRepository struct {
	db *sql.DB
}

// NewPostgresCollectingAreaRepository creates a new PostgreSQL collecting area repository
func NewPostgresCollectingAreaRepository(db *sql.DB) *PostgresCollectingAreaRepository {
	return &PostgresCollectingAreaRepository{db: db}
}

var _ repository.CollectingAreaRepository = (*PostgresCollectingAreaRepository)(nil)

// Migrate creates the schema if it does not exist
func (r *PostgresCollectingAreaRepository) Migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to migrate collecting_areas: %w", err)
	}
	return nil
}

// Get retrieves the default collecting area for a photoreceptor
func (r *PostgresCollectingAreaRepository) Get(ctx context.Context, name string) (*models.CollectingArea, error) {
	query := `
		SELECT name, area_um2, updated_at
		FROM collecting_areas
		WHERE name = $1`

	var area models.CollectingArea
	err := r.db.QueryRowContext(ctx, query, name).Scan(
		&area.Name,
		&area.AreaUM2,
		&area.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: collecting area for %s", repository.ErrNotFound, name)
	}
	if err != nil {
		return nil, err
	}

	return &area, nil
}

// Upsert saves or replaces the default collecting area for a photoreceptor
func (r *PostgresCollectingAreaRepository) Upsert(ctx context.Context, name string, areaUM2 float64) (*models.CollectingArea, error) {
	query := `
		INSERT INTO collecting_areas (name, area_um2, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (name) DO UPDATE
		SET area_um2 = EXCLUDED.area_um2, updated_at = NOW()
		RETURNING name, area_um2, updated_at`

	var area models.CollectingArea
	err := r.db.QueryRowContext(ctx, query, name, areaUM2).Scan(
		&area.Name,
		&area.AreaUM2,
		&area.UpdatedAt)
	if err != nil {
		return nil, err
	}

	return &area, nil
}

// List retrieves every stored collecting area ordered by name
func (r *PostgresCollectingAreaRepository) List(ctx context.Context) ([]*models.CollectingArea, error) {
	query := `
		SELECT name, area_um2, updated_at
		FROM collecting_areas
		ORDER BY name`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var areas []*models.CollectingArea
	for rows.Next() {
		var area models.CollectingArea
		if err := rows.Scan(&area.Name, &area.AreaUM2, &area.UpdatedAt); err != nil {
			return nil, err
		}
		areas = append(areas, &area)
	}

	return areas, rows.Err()
}
