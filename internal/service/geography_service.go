package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/field-placement-api/internal/models"
	appErrors "github.com/noah-isme/field-placement-api/pkg/errors"
)

type geographyRegionStore interface {
	List(ctx context.Context) ([]models.Region, error)
	FindByID(ctx context.Context, id string) (*models.Region, error)
	Create(ctx context.Context, region *models.Region) error
}

type geographyDistrictStore interface {
	ListByRegion(ctx context.Context, regionID string) ([]models.DistrictDetail, error)
	FindByID(ctx context.Context, id string) (*models.District, error)
	Create(ctx context.Context, district *models.District) error
}

type geographySchoolStore interface {
	FindByID(ctx context.Context, id string) (*models.School, error)
	Create(ctx context.Context, school *models.School) error
	Update(ctx context.Context, school *models.School) error
}

// CreateSchoolRequest describes the admin school creation payload. Capacity
// starts fully unoccupied; the occupancy counter is never set directly.
type CreateSchoolRequest struct {
	Name       string             `json:"name" validate:"required"`
	DistrictID string             `json:"district_id" validate:"required"`
	Level      models.SchoolLevel `json:"level" validate:"required,oneof=Primary Secondary"`
	Capacity   int                `json:"capacity" validate:"required,min=1"`
	Latitude   *float64           `json:"latitude" validate:"omitempty,min=-90,max=90"`
	Longitude  *float64           `json:"longitude" validate:"omitempty,min=-180,max=180"`
	Address    string             `json:"address"`
}

// UpdateSchoolRequest describes the admin school update payload.
type UpdateSchoolRequest struct {
	Name     string             `json:"name" validate:"required"`
	Level    models.SchoolLevel `json:"level" validate:"required,oneof=Primary Secondary"`
	Capacity int                `json:"capacity" validate:"required,min=1"`
	Address  string             `json:"address"`
}

// GeographyService serves the Region > District > School reference hierarchy.
type GeographyService struct {
	regions   geographyRegionStore
	districts geographyDistrictStore
	schools   geographySchoolStore
	validator *validator.Validate
	logger    *zap.Logger
}

// NewGeographyService constructs GeographyService.
func NewGeographyService(regions geographyRegionStore, districts geographyDistrictStore, schools geographySchoolStore, validate *validator.Validate, logger *zap.Logger) *GeographyService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GeographyService{
		regions:   regions,
		districts: districts,
		schools:   schools,
		validator: validate,
		logger:    logger,
	}
}

// ListRegions returns all regions.
func (s *GeographyService) ListRegions(ctx context.Context) ([]models.Region, error) {
	regions, err := s.regions.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list regions")
	}
	return regions, nil
}

// ListDistricts returns the districts of a region.
func (s *GeographyService) ListDistricts(ctx context.Context, regionID string) ([]models.DistrictDetail, error) {
	if _, err := s.regions.FindByID(ctx, regionID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "region not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load region")
	}
	districts, err := s.districts.ListByRegion(ctx, regionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list districts")
	}
	return districts, nil
}

// CreateSchool registers a new placement school.
func (s *GeographyService) CreateSchool(ctx context.Context, req CreateSchoolRequest) (*models.School, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid school payload")
	}
	if _, err := s.districts.FindByID(ctx, req.DistrictID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "district not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load district")
	}

	school := &models.School{
		Name:       req.Name,
		DistrictID: req.DistrictID,
		Level:      req.Level,
		Capacity:   req.Capacity,
		Latitude:   req.Latitude,
		Longitude:  req.Longitude,
	}
	if req.Address != "" {
		school.Address = &req.Address
	}
	if err := s.schools.Create(ctx, school); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create school")
	}

	s.logger.Info("school created", zap.String("school_id", school.ID), zap.String("name", school.Name))
	return school, nil
}

// UpdateSchool changes school master data. Occupancy is untouched; lowering
// capacity below the current occupancy is allowed and simply marks the school
// full.
func (s *GeographyService) UpdateSchool(ctx context.Context, id string, req UpdateSchoolRequest) (*models.School, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid school payload")
	}

	school, err := s.schools.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "school not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load school")
	}

	school.Name = req.Name
	school.Level = req.Level
	school.Capacity = req.Capacity
	if req.Address != "" {
		school.Address = &req.Address
	}
	if err := s.schools.Update(ctx, school); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update school")
	}
	return school, nil
}
