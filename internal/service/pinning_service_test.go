package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/field-placement-api/internal/models"
	"github.com/noah-isme/field-placement-api/internal/repository"
	appErrors "github.com/noah-isme/field-placement-api/pkg/errors"
)

type mockPinWriter struct {
	entries   []repository.YearPinEntry
	yearID    string
	upserts   []models.SchoolPin
	replayErr error
}

func (m *mockPinWriter) ReplaceYearPins(ctx context.Context, yearID string, entries []repository.YearPinEntry) error {
	if m.replayErr != nil {
		return m.replayErr
	}
	m.yearID = yearID
	m.entries = entries
	return nil
}

func (m *mockPinWriter) UpsertSchoolPin(ctx context.Context, pin *models.SchoolPin) error {
	m.upserts = append(m.upserts, *pin)
	return nil
}

func (m *mockPinWriter) FindSchoolPin(ctx context.Context, yearID, schoolID string) (*models.SchoolPin, error) {
	return nil, sql.ErrNoRows
}

type mockPinRegions struct {
	regions []models.Region
}

func (m *mockPinRegions) List(ctx context.Context) ([]models.Region, error) {
	return m.regions, nil
}

type mockPinSchools struct {
	byRegion map[string][]string
}

func (m *mockPinSchools) FindByID(ctx context.Context, id string) (*models.School, error) {
	if id == "missing" {
		return nil, sql.ErrNoRows
	}
	return &models.School{ID: id}, nil
}

func (m *mockPinSchools) ListIDsByRegion(ctx context.Context, regionID string) ([]string, error) {
	return m.byRegion[regionID], nil
}

type mockYearProvider struct {
	year *models.AcademicYear
}

func (m *mockYearProvider) GetOrCreate(ctx context.Context, yearName string) (*models.AcademicYear, error) {
	if m.year == nil {
		m.year = &models.AcademicYear{ID: "year-1", Year: yearName}
	}
	return m.year, nil
}

type mockInvalidator struct {
	calls int
}

func (m *mockInvalidator) InvalidateCache(ctx context.Context) {
	m.calls++
}

func TestPinningServiceSubmitAllowedRegions(t *testing.T) {
	pins := &mockPinWriter{}
	regions := &mockPinRegions{regions: []models.Region{
		{ID: "region-1", Name: "Dodoma"},
		{ID: "region-2", Name: "Arusha"},
		{ID: "region-3", Name: "Chamwino"},
	}}
	schools := &mockPinSchools{byRegion: map[string][]string{
		"region-1": {"school-1", "school-2"},
		"region-2": {"school-3"},
		"region-3": {"school-4"},
	}}
	cache := &mockInvalidator{}
	svc := NewPinningService(pins, regions, schools, &mockYearProvider{}, cache, validator.New(), zap.NewNop())

	year, err := svc.SubmitAllowedRegions(context.Background(), SubmitAllowedRegionsRequest{
		AcademicYear:   "2026/2027",
		AllowedRegions: []string{" dodoma ", "ARUSHA"},
	})
	require.NoError(t, err)
	assert.Equal(t, "2026/2027", year.Year)
	assert.Equal(t, "year-1", pins.yearID)
	require.Len(t, pins.entries, 3)

	byRegion := make(map[string]repository.YearPinEntry, len(pins.entries))
	for _, entry := range pins.entries {
		byRegion[entry.RegionID] = entry
	}
	assert.False(t, byRegion["region-1"].Pinned)
	assert.False(t, byRegion["region-2"].Pinned)
	assert.True(t, byRegion["region-3"].Pinned)
	assert.Equal(t, []string{"school-4"}, byRegion["region-3"].SchoolIDs)
	assert.Equal(t, 1, cache.calls)
}

func TestPinningServiceSubmitAllowedRegionsEmptyList(t *testing.T) {
	svc := NewPinningService(&mockPinWriter{}, &mockPinRegions{}, &mockPinSchools{}, &mockYearProvider{}, nil, validator.New(), zap.NewNop())

	_, err := svc.SubmitAllowedRegions(context.Background(), SubmitAllowedRegionsRequest{AcademicYear: "2026/2027"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestPinningServicePinSchool(t *testing.T) {
	pins := &mockPinWriter{}
	cache := &mockInvalidator{}
	svc := NewPinningService(pins, &mockPinRegions{}, &mockPinSchools{}, &mockYearProvider{}, cache, validator.New(), zap.NewNop())

	pin, err := svc.PinSchool(context.Background(), &models.AcademicYear{ID: "year-1"}, "school-1", "admin-1", PinSchoolRequest{
		Reason: models.PinReasonProblematic,
		Notes:  "accreditation review",
	})
	require.NoError(t, err)
	assert.True(t, pin.IsPinned)
	assert.Equal(t, models.PinReasonProblematic, pin.PinReason)
	require.NotNil(t, pin.Notes)
	assert.Equal(t, "accreditation review", *pin.Notes)
	require.Len(t, pins.upserts, 1)
	assert.Equal(t, 1, cache.calls)
}

func TestPinningServicePinSchoolNoActiveYear(t *testing.T) {
	svc := NewPinningService(&mockPinWriter{}, &mockPinRegions{}, &mockPinSchools{}, &mockYearProvider{}, nil, validator.New(), zap.NewNop())

	_, err := svc.PinSchool(context.Background(), nil, "school-1", "admin-1", PinSchoolRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
}

func TestPinningServiceUnpinSchool(t *testing.T) {
	pins := &mockPinWriter{}
	svc := NewPinningService(pins, &mockPinRegions{}, &mockPinSchools{}, &mockYearProvider{}, nil, validator.New(), zap.NewNop())

	pin, err := svc.UnpinSchool(context.Background(), &models.AcademicYear{ID: "year-1"}, "school-1", "admin-1")
	require.NoError(t, err)
	assert.False(t, pin.IsPinned)
	require.Len(t, pins.upserts, 1)
}

func TestPinningServicePinUnknownSchool(t *testing.T) {
	svc := NewPinningService(&mockPinWriter{}, &mockPinRegions{}, &mockPinSchools{}, &mockYearProvider{}, nil, validator.New(), zap.NewNop())

	_, err := svc.PinSchool(context.Background(), &models.AcademicYear{ID: "year-1"}, "missing", "admin-1", PinSchoolRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
