package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/field-placement-api/internal/dto"
	"github.com/noah-isme/field-placement-api/internal/models"
	appErrors "github.com/noah-isme/field-placement-api/pkg/errors"
)

type regionReader interface {
	List(ctx context.Context) ([]models.Region, error)
	FindByID(ctx context.Context, id string) (*models.Region, error)
}

type schoolAvailabilityReader interface {
	List(ctx context.Context, filter models.SchoolFilter) ([]models.SchoolDetail, int, error)
	FindDetailByID(ctx context.Context, id string) (*models.SchoolDetail, error)
}

type pinReader interface {
	RegionPinsForYear(ctx context.Context, yearID string) (map[string]models.RegionPin, error)
	SchoolPinsForYear(ctx context.Context, yearID string) (map[string]models.SchoolPin, error)
	FindSchoolPin(ctx context.Context, yearID, schoolID string) (*models.SchoolPin, error)
	FindRegionPin(ctx context.Context, yearID, regionID string) (*models.RegionPin, error)
}

type districtReader interface {
	FindByID(ctx context.Context, id string) (*models.District, error)
}

type availabilityCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// AvailabilityService answers whether regions and schools can be selected for
// a given academic year. A school is selectable only when it is neither pinned
// nor full; the two conditions are evaluated independently and both reported.
type AvailabilityService struct {
	regions   regionReader
	districts districtReader
	schools   schoolAvailabilityReader
	pins      pinReader
	cache     availabilityCache
	cacheTTL  time.Duration
	failOpen  bool
	logger    *zap.Logger
}

// NewAvailabilityService constructs AvailabilityService. failOpen controls the
// no-active-year behaviour: treat everything as unpinned (legacy default) or
// report everything unavailable. cache may be nil to disable caching.
func NewAvailabilityService(regions regionReader, districts districtReader, schools schoolAvailabilityReader, pins pinReader, cache availabilityCache, cacheTTL time.Duration, failOpen bool, logger *zap.Logger) *AvailabilityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AvailabilityService{
		regions:   regions,
		districts: districts,
		schools:   schools,
		pins:      pins,
		cache:     cache,
		cacheTTL:  cacheTTL,
		failOpen:  failOpen,
		logger:    logger,
	}
}

// ListRegions annotates every region with its pin state for the year. A nil
// year falls back to the configured fail-open or fail-closed behaviour.
func (s *AvailabilityService) ListRegions(ctx context.Context, year *models.AcademicYear) ([]dto.RegionAvailability, error) {
	regions, err := s.regions.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list regions")
	}

	pins := map[string]models.RegionPin{}
	if year != nil {
		pins, err = s.pins.RegionPinsForYear(ctx, year.ID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load region pins")
		}
	}

	out := make([]dto.RegionAvailability, 0, len(regions))
	for _, region := range regions {
		pinned := s.pinnedFallback(year)
		if year != nil {
			if pin, ok := pins[region.ID]; ok {
				pinned = pin.IsPinned
			} else {
				pinned = false
			}
		}
		out = append(out, dto.RegionAvailability{Region: region, IsPinned: pinned})
	}
	return out, nil
}

// SchoolAvailability returns the two-level verdict for one school.
func (s *AvailabilityService) SchoolAvailability(ctx context.Context, year *models.AcademicYear, schoolID string) (*dto.SchoolAvailability, error) {
	school, err := s.schools.FindDetailByID(ctx, schoolID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "school not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load school")
	}

	availability := s.annotate(*school, nil, year)
	if year != nil {
		// No pin row means the school was never pinned for this year.
		pin, err := s.pins.FindSchoolPin(ctx, year.ID, schoolID)
		if err != nil && err != sql.ErrNoRows {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load school pin")
		}
		availability = s.annotate(*school, pin, year)
	}
	return &availability, nil
}

// ListSchools returns availability-annotated schools for a district with the
// aggregate counts shown on the selection page.
func (s *AvailabilityService) ListSchools(ctx context.Context, year *models.AcademicYear, filter models.SchoolFilter) ([]dto.SchoolAvailability, *dto.SchoolAvailabilitySummary, *models.Pagination, error) {
	key := availabilityCacheKey(year, filter)
	if s.cache != nil {
		var cached cachedSchoolList
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return cached.Schools, cached.Summary, cached.Pagination, nil
		} else if err != appErrors.ErrCacheMiss {
			s.logger.Warn("availability cache read failed", zap.Error(err))
		}
	}

	if filter.DistrictID != "" {
		if _, err := s.districts.FindByID(ctx, filter.DistrictID); err != nil {
			if err == sql.ErrNoRows {
				return nil, nil, nil, appErrors.Clone(appErrors.ErrNotFound, "district not found")
			}
			return nil, nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load district")
		}
	}

	schools, total, err := s.schools.List(ctx, filter)
	if err != nil {
		return nil, nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list schools")
	}

	pins := map[string]models.SchoolPin{}
	if year != nil {
		pins, err = s.pins.SchoolPinsForYear(ctx, year.ID)
		if err != nil {
			return nil, nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load school pins")
		}
	}

	summary := &dto.SchoolAvailabilitySummary{TotalSchools: total}
	out := make([]dto.SchoolAvailability, 0, len(schools))
	for _, school := range schools {
		var pin *models.SchoolPin
		if p, ok := pins[school.ID]; ok {
			pin = &p
		}
		annotated := s.annotate(school, pin, year)
		if annotated.IsPinned {
			summary.PinnedSchools++
		}
		if annotated.IsFull {
			summary.FullSchools++
		}
		if annotated.IsSelectable {
			summary.AvailableSchools++
		}
		out = append(out, annotated)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}

	if s.cache != nil {
		payload := cachedSchoolList{Schools: out, Summary: summary, Pagination: pagination}
		if err := s.cache.Set(ctx, key, payload, s.cacheTTL); err != nil {
			s.logger.Warn("availability cache write failed", zap.Error(err))
		}
	}
	return out, summary, pagination, nil
}

// InvalidateCache drops every cached school list. Called after pin changes
// and capacity mutations so stale verdicts never outlive a write.
func (s *AvailabilityService) InvalidateCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, "availability:schools:*"); err != nil {
		s.logger.Warn("availability cache invalidation failed", zap.Error(err))
	}
}

// IsSchoolSelectable is the gate used by the selection workflow before it
// attempts a reservation. It reports pinned and full separately so callers can
// surface the precise rejection.
func (s *AvailabilityService) IsSchoolSelectable(ctx context.Context, year *models.AcademicYear, schoolID string) (pinned, full bool, err error) {
	availability, err := s.SchoolAvailability(ctx, year, schoolID)
	if err != nil {
		return false, false, err
	}
	return availability.IsPinned, availability.IsFull, nil
}

func (s *AvailabilityService) annotate(school models.SchoolDetail, pin *models.SchoolPin, year *models.AcademicYear) dto.SchoolAvailability {
	pinned := s.pinnedFallback(year)
	reason := models.PinReason("")
	notes := ""
	if year != nil {
		pinned = false
		if pin != nil {
			pinned = pin.IsPinned
			if pinned {
				reason = pin.PinReason
				if pin.Notes != nil {
					notes = *pin.Notes
				}
			}
		}
	}

	full := school.CurrentStudents >= school.Capacity
	occupancy := 0
	if school.Capacity > 0 {
		occupancy = school.CurrentStudents * 100 / school.Capacity
	}
	return dto.SchoolAvailability{
		SchoolDetail:     school,
		IsPinned:         pinned,
		PinReason:        reason,
		PinNotes:         notes,
		IsFull:           full,
		IsSelectable:     !pinned && !full,
		OccupancyPercent: occupancy,
	}
}

// pinnedFallback is the verdict when no active year exists.
func (s *AvailabilityService) pinnedFallback(year *models.AcademicYear) bool {
	if year != nil {
		return false
	}
	return !s.failOpen
}

type cachedSchoolList struct {
	Schools    []dto.SchoolAvailability       `json:"schools"`
	Summary    *dto.SchoolAvailabilitySummary `json:"summary"`
	Pagination *models.Pagination             `json:"pagination"`
}

func availabilityCacheKey(year *models.AcademicYear, filter models.SchoolFilter) string {
	yearID := "none"
	if year != nil {
		yearID = year.ID
	}
	return fmt.Sprintf("availability:schools:%s:%s:%s:%s:%d:%d",
		yearID, filter.DistrictID, filter.Level, filter.Search, filter.Page, filter.PageSize)
}
