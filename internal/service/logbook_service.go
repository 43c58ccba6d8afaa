package service

import (
	"context"
	"database/sql"
	"math"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/field-placement-api/internal/models"
	appErrors "github.com/noah-isme/field-placement-api/pkg/errors"
)

type logbookRepository interface {
	Upsert(ctx context.Context, entry *models.LogbookEntry) error
	List(ctx context.Context, filter models.LogbookFilter) ([]models.LogbookEntry, int, error)
}

type logbookStudentReader interface {
	FindByID(ctx context.Context, id string) (*models.StudentTeacher, error)
}

type logbookSchoolReader interface {
	FindByID(ctx context.Context, id string) (*models.School, error)
}

// SubmitLogbookRequest is one daily field report.
type SubmitLogbookRequest struct {
	Date              time.Time `json:"date" validate:"required"`
	MorningActivity   string    `json:"morning_activity"`
	AfternoonActivity string    `json:"afternoon_activity"`
	ChallengesFaced   string    `json:"challenges_faced"`
	LessonsLearned    string    `json:"lessons_learned"`
	Latitude          *float64  `json:"latitude" validate:"omitempty,min=-90,max=90"`
	Longitude         *float64  `json:"longitude" validate:"omitempty,min=-180,max=180"`
	LocationAddress   string    `json:"location_address"`
}

// LogbookService records daily field reports. One entry per (student, date);
// resubmitting a day overwrites it. When coordinates are supplied they are
// verified against the placement school's location.
type LogbookService struct {
	entries      logbookRepository
	students     logbookStudentReader
	schools      logbookSchoolReader
	radiusMeters float64
	validator    *validator.Validate
	logger       *zap.Logger
}

// NewLogbookService constructs LogbookService. radiusMeters bounds how far
// from the school a check-in still counts as on-site.
func NewLogbookService(entries logbookRepository, students logbookStudentReader, schools logbookSchoolReader, radiusMeters float64, validate *validator.Validate, logger *zap.Logger) *LogbookService {
	if radiusMeters <= 0 {
		radiusMeters = 500
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogbookService{
		entries:      entries,
		students:     students,
		schools:      schools,
		radiusMeters: radiusMeters,
		validator:    validate,
		logger:       logger,
	}
}

// Submit records the day's report, overwriting any earlier report for the
// same day.
func (s *LogbookService) Submit(ctx context.Context, studentID string, req SubmitLogbookRequest) (*models.LogbookEntry, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid logbook payload")
	}

	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student profile not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if student.SelectedSchoolID == nil {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "no confirmed school selection")
	}

	date := req.Date.UTC().Truncate(24 * time.Hour)
	entry := &models.LogbookEntry{
		StudentID: studentID,
		Date:      date,
		DayOfWeek: date.Weekday().String(),
		SchoolID:  student.SelectedSchoolID,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
	}
	if req.MorningActivity != "" {
		entry.MorningActivity = &req.MorningActivity
	}
	if req.AfternoonActivity != "" {
		entry.AfternoonActivity = &req.AfternoonActivity
	}
	if req.ChallengesFaced != "" {
		entry.ChallengesFaced = &req.ChallengesFaced
	}
	if req.LessonsLearned != "" {
		entry.LessonsLearned = &req.LessonsLearned
	}
	if req.LocationAddress != "" {
		entry.LocationAddress = &req.LocationAddress
	}

	if req.Latitude != nil && req.Longitude != nil {
		atSchool, verified, err := s.verifyLocation(ctx, *student.SelectedSchoolID, *req.Latitude, *req.Longitude)
		if err != nil {
			return nil, err
		}
		entry.IsLocationVerified = verified
		entry.IsAtSchool = atSchool
	}

	if err := s.entries.Upsert(ctx, entry); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save logbook entry")
	}
	return entry, nil
}

// History returns the student's entries within the optional date window.
func (s *LogbookService) History(ctx context.Context, filter models.LogbookFilter) ([]models.LogbookEntry, *models.Pagination, error) {
	entries, total, err := s.entries.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list logbook entries")
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
	return entries, pagination, nil
}

// verifyLocation reports whether the coordinates fall within the radius of
// the school. Verification is only possible when the school has coordinates.
func (s *LogbookService) verifyLocation(ctx context.Context, schoolID string, lat, lng float64) (atSchool, verified bool, err error) {
	school, err := s.schools.FindByID(ctx, schoolID)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, false, nil
		}
		return false, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load school")
	}
	if school.Latitude == nil || school.Longitude == nil {
		return false, false, nil
	}

	distance := haversineMeters(lat, lng, *school.Latitude, *school.Longitude)
	return distance <= s.radiusMeters, true, nil
}

const earthRadiusMeters = 6371000

// haversineMeters is the great-circle distance between two coordinates.
func haversineMeters(lat1, lng1, lat2, lng2 float64) float64 {
	toRad := func(deg float64) float64 { return deg * math.Pi / 180 }

	dLat := toRad(lat2 - lat1)
	dLng := toRad(lng2 - lng1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusMeters * c
}
