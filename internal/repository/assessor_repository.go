package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/field-placement-api/internal/models"
)

// AssessorRepository handles persistence of assessors.
type AssessorRepository struct {
	db *sqlx.DB
}

// NewAssessorRepository constructs the repository.
func NewAssessorRepository(db *sqlx.DB) *AssessorRepository {
	return &AssessorRepository{db: db}
}

// List returns all assessors ordered by name.
func (r *AssessorRepository) List(ctx context.Context, activeOnly bool) ([]models.Assessor, error) {
	query := `SELECT id, user_id, full_name, email, phone_number, is_active, credentials_sent, created_at
        FROM assessors`
	var args []interface{}
	if activeOnly {
		query += ` WHERE is_active = $1`
		args = append(args, true)
	}
	query += ` ORDER BY full_name`

	var assessors []models.Assessor
	if err := r.db.SelectContext(ctx, &assessors, query, args...); err != nil {
		return nil, fmt.Errorf("list assessors: %w", err)
	}
	return assessors, nil
}

// FindByID returns an assessor by its ID.
func (r *AssessorRepository) FindByID(ctx context.Context, id string) (*models.Assessor, error) {
	const query = `SELECT id, user_id, full_name, email, phone_number, is_active, credentials_sent, created_at
        FROM assessors WHERE id = $1`
	var assessor models.Assessor
	if err := r.db.GetContext(ctx, &assessor, query, id); err != nil {
		return nil, err
	}
	return &assessor, nil
}

// FindByUserID returns the assessor linked to a user account.
func (r *AssessorRepository) FindByUserID(ctx context.Context, userID string) (*models.Assessor, error) {
	const query = `SELECT id, user_id, full_name, email, phone_number, is_active, credentials_sent, created_at
        FROM assessors WHERE user_id = $1`
	var assessor models.Assessor
	if err := r.db.GetContext(ctx, &assessor, query, userID); err != nil {
		return nil, err
	}
	return &assessor, nil
}

// Create persists a new assessor record.
func (r *AssessorRepository) Create(ctx context.Context, assessor *models.Assessor) error {
	if assessor.ID == "" {
		assessor.ID = uuid.NewString()
	}
	if assessor.CreatedAt.IsZero() {
		assessor.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO assessors (id, user_id, full_name, email, phone_number, is_active, credentials_sent, created_at)
        VALUES (:id, :user_id, :full_name, :email, :phone_number, :is_active, :credentials_sent, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, assessor); err != nil {
		return fmt.Errorf("create assessor: %w", err)
	}
	return nil
}

// MarkCredentialsSent records that login credentials were delivered.
func (r *AssessorRepository) MarkCredentialsSent(ctx context.Context, id string) error {
	const query = `UPDATE assessors SET credentials_sent = TRUE WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("mark credentials sent: %w", err)
	}
	return nil
}
