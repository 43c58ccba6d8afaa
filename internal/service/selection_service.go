package service

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/field-placement-api/internal/dto"
	"github.com/noah-isme/field-placement-api/internal/models"
	appErrors "github.com/noah-isme/field-placement-api/pkg/errors"
)

type selectionStore interface {
	SetPending(ctx context.Context, studentID string, pending dto.PendingSelection) (bool, error)
	GetPending(ctx context.Context, studentID string) (*dto.PendingSelection, error)
	ClearPending(ctx context.Context, studentID, schoolID string) (bool, error)
	ExpiredPending(ctx context.Context, now time.Time) ([]dto.ExpiredSelection, error)
	DropExpired(ctx context.Context, entry dto.ExpiredSelection) (bool, error)
}

type slotReserver interface {
	FindDetailByID(ctx context.Context, id string) (*models.SchoolDetail, error)
	TryReserveSlot(ctx context.Context, schoolID string) (bool, error)
	ReleaseSlot(ctx context.Context, schoolID string) error
}

type selectionStudentStore interface {
	FindByID(ctx context.Context, id string) (*models.StudentTeacher, error)
	SetSelectedSchool(ctx context.Context, id, schoolID string) error
}

type availabilityGate interface {
	IsSchoolSelectable(ctx context.Context, year *models.AcademicYear, schoolID string) (pinned, full bool, err error)
}

// SelectionService runs the select / cancel / confirm workflow. A selection
// holds a seat from the moment it is pending; cancel releases the seat,
// confirm makes it permanent. The reserve happens before the pending record
// is written so the counter can never undercount held seats.
type SelectionService struct {
	selections selectionStore
	schools    slotReserver
	students   selectionStudentStore
	gate       availabilityGate
	metrics    *MetricsService
	logger     *zap.Logger
}

// NewSelectionService constructs SelectionService.
func NewSelectionService(selections selectionStore, schools slotReserver, students selectionStudentStore, gate availabilityGate, metrics *MetricsService, logger *zap.Logger) *SelectionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SelectionService{
		selections: selections,
		schools:    schools,
		students:   students,
		gate:       gate,
		metrics:    metrics,
		logger:     logger,
	}
}

// Select reserves a seat at the school and records a pending selection.
func (s *SelectionService) Select(ctx context.Context, year *models.AcademicYear, studentID, schoolID string) (*dto.PendingSelection, error) {
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student profile not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if student.SelectedSchoolID != nil {
		s.countRejection("already_selected")
		return nil, appErrors.ErrAlreadySelected
	}

	pending, err := s.selections.GetPending(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read pending selection")
	}
	if pending != nil {
		s.countRejection("already_selected")
		return nil, appErrors.ErrAlreadySelected
	}

	pinned, full, err := s.gate.IsSchoolSelectable(ctx, year, schoolID)
	if err != nil {
		return nil, err
	}
	if pinned {
		s.countRejection("pinned")
		return nil, appErrors.ErrSchoolUnavailable
	}
	if full {
		s.countRejection("full")
		return nil, appErrors.ErrSchoolFull
	}

	// The check above is advisory; the reservation below is the authority.
	reserved, err := s.schools.TryReserveSlot(ctx, schoolID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reserve school slot")
	}
	if !reserved {
		s.countRejection("race_lost")
		return nil, appErrors.ErrCapacityRaceLost
	}

	entry := dto.PendingSelection{SchoolID: schoolID, SelectedAt: time.Now().UTC()}
	stored, err := s.selections.SetPending(ctx, studentID, entry)
	if err != nil || !stored {
		// Hand the seat back before reporting failure.
		if releaseErr := s.schools.ReleaseSlot(ctx, schoolID); releaseErr != nil {
			s.logger.Error("failed to release slot after pending write failure",
				zap.String("school_id", schoolID), zap.Error(releaseErr))
		}
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record pending selection")
		}
		s.countRejection("already_selected")
		return nil, appErrors.ErrAlreadySelected
	}

	s.logger.Info("school selected",
		zap.String("student_id", studentID), zap.String("school_id", schoolID))
	return &entry, nil
}

// Cancel releases the pending selection and its reserved seat.
func (s *SelectionService) Cancel(ctx context.Context, studentID string) error {
	pending, err := s.selections.GetPending(ctx, studentID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read pending selection")
	}
	if pending == nil {
		return appErrors.ErrNoPendingSelection
	}

	if err := s.schools.ReleaseSlot(ctx, pending.SchoolID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to release school slot")
	}
	if _, err := s.selections.ClearPending(ctx, studentID, pending.SchoolID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear pending selection")
	}

	s.logger.Info("school selection cancelled",
		zap.String("student_id", studentID), zap.String("school_id", pending.SchoolID))
	return nil
}

// Confirm persists the pending selection onto the student profile. The seat
// was reserved at select time, so no counter moves here.
func (s *SelectionService) Confirm(ctx context.Context, studentID string) (*models.StudentTeacher, error) {
	pending, err := s.selections.GetPending(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read pending selection")
	}
	if pending == nil {
		return nil, appErrors.ErrNoPendingSelection
	}

	if err := s.students.SetSelectedSchool(ctx, studentID, pending.SchoolID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to confirm selection")
	}
	if _, err := s.selections.ClearPending(ctx, studentID, pending.SchoolID); err != nil {
		s.logger.Warn("failed to clear pending selection after confirm",
			zap.String("student_id", studentID), zap.Error(err))
	}
	if s.metrics != nil {
		s.metrics.SelectionConfirmed()
	}

	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload student")
	}
	s.logger.Info("school selection confirmed",
		zap.String("student_id", studentID), zap.String("school_id", pending.SchoolID))
	return student, nil
}

// Current reports both phases of a student's selection.
func (s *SelectionService) Current(ctx context.Context, studentID string) (*dto.SelectionState, error) {
	pending, err := s.selections.GetPending(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read pending selection")
	}

	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student profile not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	state := &dto.SelectionState{Pending: pending}
	if student.SelectedSchoolID != nil {
		school, err := s.schools.FindDetailByID(ctx, *student.SelectedSchoolID)
		if err != nil && err != sql.ErrNoRows {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load selected school")
		}
		if school != nil {
			state.ConfirmedSchool = &dto.SchoolSummary{
				ID:              school.ID,
				Name:            school.Name,
				DistrictName:    school.DistrictName,
				Capacity:        school.Capacity,
				CurrentStudents: school.CurrentStudents,
			}
		}
	}
	return state, nil
}

// ReleaseExpired hands back the seats held by pending selections whose TTL
// lapsed without a confirm or cancel. Each entry is claimed before its seat
// is released so overlapping sweeps stay single-shot per reservation.
func (s *SelectionService) ReleaseExpired(ctx context.Context) (int, error) {
	expired, err := s.selections.ExpiredPending(ctx, time.Now().UTC())
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list expired selections")
	}

	released := 0
	for _, entry := range expired {
		claimed, err := s.selections.DropExpired(ctx, entry)
		if err != nil {
			s.logger.Error("failed to drop expired selection",
				zap.String("student_id", entry.StudentID), zap.Error(err))
			continue
		}
		if !claimed {
			continue
		}
		if err := s.schools.ReleaseSlot(ctx, entry.SchoolID); err != nil {
			s.logger.Error("failed to release slot for expired selection",
				zap.String("student_id", entry.StudentID),
				zap.String("school_id", entry.SchoolID), zap.Error(err))
			continue
		}
		released++
		s.logger.Info("expired pending selection released",
			zap.String("student_id", entry.StudentID), zap.String("school_id", entry.SchoolID))
	}
	return released, nil
}

func (s *SelectionService) countRejection(reason string) {
	if s.metrics != nil {
		s.metrics.SelectionRejected(reason)
	}
}
