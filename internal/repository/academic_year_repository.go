package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/field-placement-api/internal/models"
)

// AcademicYearRepository handles persistence of academic years.
type AcademicYearRepository struct {
	db *sqlx.DB
}

// NewAcademicYearRepository constructs the repository.
func NewAcademicYearRepository(db *sqlx.DB) *AcademicYearRepository {
	return &AcademicYearRepository{db: db}
}

// List returns all academic years, newest first.
func (r *AcademicYearRepository) List(ctx context.Context) ([]models.AcademicYear, error) {
	const query = `SELECT id, year, is_active FROM academic_years ORDER BY year DESC`
	var years []models.AcademicYear
	if err := r.db.SelectContext(ctx, &years, query); err != nil {
		return nil, fmt.Errorf("list academic years: %w", err)
	}
	return years, nil
}

// FindActive returns the single active year, or nil when no year is active.
func (r *AcademicYearRepository) FindActive(ctx context.Context) (*models.AcademicYear, error) {
	const query = `SELECT id, year, is_active FROM academic_years WHERE is_active = TRUE LIMIT 1`
	var year models.AcademicYear
	if err := r.db.GetContext(ctx, &year, query); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("find active academic year: %w", err)
	}
	return &year, nil
}

// FindByID returns an academic year by its ID.
func (r *AcademicYearRepository) FindByID(ctx context.Context, id string) (*models.AcademicYear, error) {
	const query = `SELECT id, year, is_active FROM academic_years WHERE id = $1`
	var year models.AcademicYear
	if err := r.db.GetContext(ctx, &year, query, id); err != nil {
		return nil, err
	}
	return &year, nil
}

// GetOrCreate returns the year with the given name, creating it when absent.
func (r *AcademicYearRepository) GetOrCreate(ctx context.Context, yearName string) (*models.AcademicYear, error) {
	const selectQuery = `SELECT id, year, is_active FROM academic_years WHERE year = $1`
	var year models.AcademicYear
	err := r.db.GetContext(ctx, &year, selectQuery, yearName)
	if err == nil {
		return &year, nil
	}
	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("find academic year: %w", err)
	}

	year = models.AcademicYear{ID: uuid.NewString(), Year: yearName, IsActive: false}
	const insertQuery = `INSERT INTO academic_years (id, year, is_active) VALUES ($1, $2, $3)`
	if _, err := r.db.ExecContext(ctx, insertQuery, year.ID, year.Year, year.IsActive); err != nil {
		return nil, fmt.Errorf("create academic year: %w", err)
	}
	return &year, nil
}

// Create persists a new academic year record.
func (r *AcademicYearRepository) Create(ctx context.Context, year *models.AcademicYear) error {
	if year.ID == "" {
		year.ID = uuid.NewString()
	}
	const query = `INSERT INTO academic_years (id, year, is_active) VALUES (:id, :year, :is_active)`
	if _, err := r.db.NamedExecContext(ctx, query, year); err != nil {
		return fmt.Errorf("create academic year: %w", err)
	}
	return nil
}

// SetActive marks one year active and every other year inactive in a single
// transaction, so at most one active year can ever be observed.
func (r *AcademicYearRepository) SetActive(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin set active year: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `UPDATE academic_years SET is_active = FALSE WHERE id <> $1`, id); err != nil {
		return fmt.Errorf("deactivate academic years: %w", err)
	}

	res, err := tx.ExecContext(ctx, `UPDATE academic_years SET is_active = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("activate academic year: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("activate academic year result: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit set active year: %w", err)
	}
	return nil
}
