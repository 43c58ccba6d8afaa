package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/field-placement-api/internal/models"
)

// DistrictRepository handles persistence of districts.
type DistrictRepository struct {
	db *sqlx.DB
}

// NewDistrictRepository constructs the repository.
func NewDistrictRepository(db *sqlx.DB) *DistrictRepository {
	return &DistrictRepository{db: db}
}

// ListByRegion returns the districts of a region ordered by name.
func (r *DistrictRepository) ListByRegion(ctx context.Context, regionID string) ([]models.DistrictDetail, error) {
	const query = `SELECT d.id, d.name, d.region_id, r.name AS region_name
        FROM districts d
        JOIN regions r ON r.id = d.region_id
        WHERE d.region_id = $1
        ORDER BY d.name`
	var districts []models.DistrictDetail
	if err := r.db.SelectContext(ctx, &districts, query, regionID); err != nil {
		return nil, fmt.Errorf("list districts: %w", err)
	}
	return districts, nil
}

// FindByID returns a district by its ID.
func (r *DistrictRepository) FindByID(ctx context.Context, id string) (*models.District, error) {
	const query = `SELECT id, name, region_id FROM districts WHERE id = $1`
	var district models.District
	if err := r.db.GetContext(ctx, &district, query, id); err != nil {
		return nil, err
	}
	return &district, nil
}

// Create persists a new district record.
func (r *DistrictRepository) Create(ctx context.Context, district *models.District) error {
	if district.ID == "" {
		district.ID = uuid.NewString()
	}
	const query = `INSERT INTO districts (id, name, region_id) VALUES (:id, :name, :region_id)`
	if _, err := r.db.NamedExecContext(ctx, query, district); err != nil {
		return fmt.Errorf("create district: %w", err)
	}
	return nil
}
