package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/field-placement-api/internal/models"
	appErrors "github.com/noah-isme/field-placement-api/pkg/errors"
)

type assessorRepository interface {
	List(ctx context.Context, activeOnly bool) ([]models.Assessor, error)
	FindByID(ctx context.Context, id string) (*models.Assessor, error)
	FindByUserID(ctx context.Context, userID string) (*models.Assessor, error)
	Create(ctx context.Context, assessor *models.Assessor) error
}

// CreateAssessorRequest registers an assessor. The linked user account, when
// any, is provisioned separately by the identity service.
type CreateAssessorRequest struct {
	FullName    string `json:"full_name" validate:"required"`
	Email       string `json:"email" validate:"required,email"`
	PhoneNumber string `json:"phone_number" validate:"required"`
}

// AssessorService serves assessor records.
type AssessorService struct {
	assessors assessorRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAssessorService constructs AssessorService.
func NewAssessorService(assessors assessorRepository, validate *validator.Validate, logger *zap.Logger) *AssessorService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssessorService{assessors: assessors, validator: validate, logger: logger}
}

// List returns assessors, optionally only active ones.
func (s *AssessorService) List(ctx context.Context, activeOnly bool) ([]models.Assessor, error) {
	assessors, err := s.assessors.List(ctx, activeOnly)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assessors")
	}
	return assessors, nil
}

// Get returns one assessor.
func (s *AssessorService) Get(ctx context.Context, id string) (*models.Assessor, error) {
	assessor, err := s.assessors.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assessor not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assessor")
	}
	return assessor, nil
}

// GetByUser resolves the assessor record behind a user account.
func (s *AssessorService) GetByUser(ctx context.Context, userID string) (*models.Assessor, error) {
	assessor, err := s.assessors.FindByUserID(ctx, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assessor profile not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assessor")
	}
	return assessor, nil
}

// Create registers an assessor. Credentials go out with the first assignment,
// not at creation.
func (s *AssessorService) Create(ctx context.Context, req CreateAssessorRequest) (*models.Assessor, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assessor payload")
	}

	assessor := &models.Assessor{
		FullName:    req.FullName,
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
		IsActive:    true,
	}
	if err := s.assessors.Create(ctx, assessor); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create assessor")
	}

	s.logger.Info("assessor created", zap.String("assessor_id", assessor.ID))
	return assessor, nil
}
