package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/field-placement-api/internal/models"
	appErrors "github.com/noah-isme/field-placement-api/pkg/errors"
)

type academicYearRepository interface {
	List(ctx context.Context) ([]models.AcademicYear, error)
	FindActive(ctx context.Context) (*models.AcademicYear, error)
	FindByID(ctx context.Context, id string) (*models.AcademicYear, error)
	Create(ctx context.Context, year *models.AcademicYear) error
	SetActive(ctx context.Context, id string) error
}

// CreateAcademicYearRequest names a new placement cycle.
type CreateAcademicYearRequest struct {
	Year string `json:"year" validate:"required"`
}

// AcademicYearService manages placement cycles. At most one year is active;
// activation flips the others off in the same transaction.
type AcademicYearService struct {
	years     academicYearRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAcademicYearService constructs AcademicYearService.
func NewAcademicYearService(years academicYearRepository, validate *validator.Validate, logger *zap.Logger) *AcademicYearService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AcademicYearService{years: years, validator: validate, logger: logger}
}

// List returns all academic years.
func (s *AcademicYearService) List(ctx context.Context) ([]models.AcademicYear, error) {
	years, err := s.years.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list academic years")
	}
	return years, nil
}

// Active returns the active year, or nil when none is configured. Handlers
// resolve this once per request and pass it down.
func (s *AcademicYearService) Active(ctx context.Context) (*models.AcademicYear, error) {
	year, err := s.years.FindActive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve active academic year")
	}
	return year, nil
}

// Create registers a new year. The first year created may be activated
// separately; creation alone never changes the active year.
func (s *AcademicYearService) Create(ctx context.Context, req CreateAcademicYearRequest) (*models.AcademicYear, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid academic year payload")
	}

	year := &models.AcademicYear{Year: req.Year}
	if err := s.years.Create(ctx, year); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create academic year")
	}
	return year, nil
}

// SetActive activates one year and deactivates the rest.
func (s *AcademicYearService) SetActive(ctx context.Context, id string) (*models.AcademicYear, error) {
	if err := s.years.SetActive(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "academic year not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to activate academic year")
	}

	year, err := s.years.FindByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload academic year")
	}
	s.logger.Info("academic year activated", zap.String("year", year.Year))
	return year, nil
}
