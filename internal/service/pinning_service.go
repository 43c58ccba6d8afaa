package service

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/field-placement-api/internal/models"
	"github.com/noah-isme/field-placement-api/internal/repository"
	appErrors "github.com/noah-isme/field-placement-api/pkg/errors"
)

type pinWriter interface {
	ReplaceYearPins(ctx context.Context, yearID string, entries []repository.YearPinEntry) error
	UpsertSchoolPin(ctx context.Context, pin *models.SchoolPin) error
	FindSchoolPin(ctx context.Context, yearID, schoolID string) (*models.SchoolPin, error)
}

type pinRegionReader interface {
	List(ctx context.Context) ([]models.Region, error)
}

type pinSchoolReader interface {
	FindByID(ctx context.Context, id string) (*models.School, error)
	ListIDsByRegion(ctx context.Context, regionID string) ([]string, error)
}

type yearProvider interface {
	GetOrCreate(ctx context.Context, yearName string) (*models.AcademicYear, error)
}

type cacheInvalidator interface {
	InvalidateCache(ctx context.Context)
}

// SubmitAllowedRegionsRequest is the admin payload naming which regions stay
// available for a year. Every region not listed gets pinned, together with all
// of its schools.
type SubmitAllowedRegionsRequest struct {
	AcademicYear   string   `json:"academic_year" validate:"required"`
	AllowedRegions []string `json:"allowed_regions" validate:"required,min=1"`
}

// PinSchoolRequest is the manual per-school override payload.
type PinSchoolRequest struct {
	Reason models.PinReason `json:"reason" validate:"omitempty,oneof=manual problematic capacity other"`
	Notes  string           `json:"notes"`
}

// PinningService manages availability pins. Pins make regions and schools
// unselectable for one academic year without touching capacity counters.
type PinningService struct {
	pins      pinWriter
	regions   pinRegionReader
	schools   pinSchoolReader
	years     yearProvider
	cache     cacheInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewPinningService constructs PinningService.
func NewPinningService(pins pinWriter, regions pinRegionReader, schools pinSchoolReader, years yearProvider, cache cacheInvalidator, validate *validator.Validate, logger *zap.Logger) *PinningService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PinningService{
		pins:      pins,
		regions:   regions,
		schools:   schools,
		years:     years,
		cache:     cache,
		validator: validate,
		logger:    logger,
	}
}

// SubmitAllowedRegions applies a full allowed-regions list for a year. Regions
// match by name case-insensitively; unknown names are ignored rather than
// rejected, matching how the import sheet is filled in by hand. The whole
// submission is one transaction, and replays flip rows in place.
func (s *PinningService) SubmitAllowedRegions(ctx context.Context, req SubmitAllowedRegionsRequest) (*models.AcademicYear, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid allowed regions payload")
	}

	year, err := s.years.GetOrCreate(ctx, req.AcademicYear)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve academic year")
	}

	allowed := make(map[string]struct{}, len(req.AllowedRegions))
	for _, name := range req.AllowedRegions {
		allowed[strings.ToLower(strings.TrimSpace(name))] = struct{}{}
	}

	regions, err := s.regions.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list regions")
	}

	entries := make([]repository.YearPinEntry, 0, len(regions))
	for _, region := range regions {
		_, ok := allowed[strings.ToLower(region.Name)]
		schoolIDs, err := s.schools.ListIDsByRegion(ctx, region.ID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list region schools")
		}
		entries = append(entries, repository.YearPinEntry{
			RegionID:  region.ID,
			SchoolIDs: schoolIDs,
			Pinned:    !ok,
		})
	}

	if err := s.pins.ReplaceYearPins(ctx, year.ID, entries); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to apply region pins")
	}
	if s.cache != nil {
		s.cache.InvalidateCache(ctx)
	}

	s.logger.Info("allowed regions submitted",
		zap.String("academic_year", req.AcademicYear),
		zap.Int("regions", len(regions)),
		zap.Int("allowed", len(allowed)))
	return year, nil
}

// PinSchool pins one school for the year regardless of its region.
func (s *PinningService) PinSchool(ctx context.Context, year *models.AcademicYear, schoolID, adminID string, req PinSchoolRequest) (*models.SchoolPin, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid pin payload")
	}
	if year == nil {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "no active academic year")
	}
	return s.setSchoolPin(ctx, year, schoolID, adminID, true, req.Reason, req.Notes)
}

// UnpinSchool clears a manual pin for the year.
func (s *PinningService) UnpinSchool(ctx context.Context, year *models.AcademicYear, schoolID, adminID string) (*models.SchoolPin, error) {
	if year == nil {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "no active academic year")
	}
	return s.setSchoolPin(ctx, year, schoolID, adminID, false, models.PinReasonManual, "")
}

func (s *PinningService) setSchoolPin(ctx context.Context, year *models.AcademicYear, schoolID, adminID string, pinned bool, reason models.PinReason, notes string) (*models.SchoolPin, error) {
	if _, err := s.schools.FindByID(ctx, schoolID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "school not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load school")
	}

	if reason == "" {
		reason = models.PinReasonManual
	}
	now := time.Now().UTC()
	pin := &models.SchoolPin{
		AcademicYearID: year.ID,
		SchoolID:       schoolID,
		IsPinned:       pinned,
		PinReason:      reason,
		PinnedAt:       &now,
		PinnedBy:       &adminID,
	}
	if notes != "" {
		pin.Notes = &notes
	}
	if err := s.pins.UpsertSchoolPin(ctx, pin); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update school pin")
	}
	if s.cache != nil {
		s.cache.InvalidateCache(ctx)
	}

	s.logger.Info("school pin updated",
		zap.String("school_id", schoolID),
		zap.Bool("pinned", pinned),
		zap.String("reason", string(reason)))
	return pin, nil
}
