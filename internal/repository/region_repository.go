package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/field-placement-api/internal/models"
)

// RegionRepository handles persistence of regions.
type RegionRepository struct {
	db *sqlx.DB
}

// NewRegionRepository constructs the repository.
func NewRegionRepository(db *sqlx.DB) *RegionRepository {
	return &RegionRepository{db: db}
}

// List returns all regions ordered by name.
func (r *RegionRepository) List(ctx context.Context) ([]models.Region, error) {
	const query = `SELECT id, name FROM regions ORDER BY name`
	var regions []models.Region
	if err := r.db.SelectContext(ctx, &regions, query); err != nil {
		return nil, fmt.Errorf("list regions: %w", err)
	}
	return regions, nil
}

// FindByID returns a region by its ID.
func (r *RegionRepository) FindByID(ctx context.Context, id string) (*models.Region, error) {
	const query = `SELECT id, name FROM regions WHERE id = $1`
	var region models.Region
	if err := r.db.GetContext(ctx, &region, query, id); err != nil {
		return nil, err
	}
	return &region, nil
}

// Create persists a new region record.
func (r *RegionRepository) Create(ctx context.Context, region *models.Region) error {
	if region.ID == "" {
		region.ID = uuid.NewString()
	}
	const query = `INSERT INTO regions (id, name) VALUES (:id, :name)`
	if _, err := r.db.NamedExecContext(ctx, query, region); err != nil {
		return fmt.Errorf("create region: %w", err)
	}
	return nil
}
