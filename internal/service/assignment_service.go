package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/field-placement-api/internal/dto"
	"github.com/noah-isme/field-placement-api/internal/models"
	appErrors "github.com/noah-isme/field-placement-api/pkg/errors"
	"github.com/noah-isme/field-placement-api/pkg/jobs"
	"github.com/noah-isme/field-placement-api/pkg/mailer"
)

type assessmentRepository interface {
	FindByAssessorAndSchool(ctx context.Context, assessorID, schoolID string) (*models.SchoolAssessment, error)
	CreateWithRoster(ctx context.Context, assessment *models.SchoolAssessment, studentIDs []string) error
	ListByAssessor(ctx context.Context, assessorID string) ([]models.SchoolAssessment, error)
	Complete(ctx context.Context, id string) error
	ListStudentAssessments(ctx context.Context, assessorID, schoolID string) ([]models.StudentAssessmentDetail, error)
	FindStudentAssessment(ctx context.Context, id string) (*models.StudentAssessment, error)
	UpdateStudentAssessment(ctx context.Context, id string, status models.AssessmentStatus, score, comments string) error
}

type assignmentAssessorStore interface {
	FindByID(ctx context.Context, id string) (*models.Assessor, error)
	MarkCredentialsSent(ctx context.Context, id string) error
}

type assignmentSchoolReader interface {
	FindByID(ctx context.Context, id string) (*models.School, error)
}

type approvedStudentLister interface {
	ListApprovedBySchool(ctx context.Context, schoolID string) ([]models.StudentTeacher, error)
}

// AssignRequest describes one assessor-to-school assignment.
type AssignRequest struct {
	AssessorID     string    `json:"assessor_id" validate:"required"`
	SchoolID       string    `json:"school_id" validate:"required"`
	AssessmentDate time.Time `json:"assessment_date" validate:"required"`
}

// BulkAssignRequest assigns every listed assessor to every listed school.
type BulkAssignRequest struct {
	AssessorIDs    []string  `json:"assessor_ids" validate:"required,min=1"`
	SchoolIDs      []string  `json:"school_ids" validate:"required,min=1"`
	AssessmentDate time.Time `json:"assessment_date" validate:"required"`
}

// UpdateStudentAssessmentRequest records assessment progress for one student.
type UpdateStudentAssessmentRequest struct {
	Status   models.AssessmentStatus `json:"status" validate:"required,oneof=pending in_progress completed"`
	Score    string                  `json:"score"`
	Comments string                  `json:"comments"`
}

// AssignmentService assigns assessors to schools. Assigning is idempotent per
// (assessor, school): the first call creates the assignment and snapshots the
// school's approved students; repeats are no-ops. Bulk assignment reports
// per-pair outcomes and never aborts the batch on one failure.
type AssignmentService struct {
	assessments assessmentRepository
	assessors   assignmentAssessorStore
	schools     assignmentSchoolReader
	students    approvedStudentLister
	mail        mailer.Mailer
	metrics     *MetricsService
	notify      bool
	loginURL    string
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewAssignmentService constructs AssignmentService.
func NewAssignmentService(assessments assessmentRepository, assessors assignmentAssessorStore, schools assignmentSchoolReader, students approvedStudentLister, mail mailer.Mailer, metrics *MetricsService, notify bool, loginURL string, validate *validator.Validate, logger *zap.Logger) *AssignmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssignmentService{
		assessments: assessments,
		assessors:   assessors,
		schools:     schools,
		students:    students,
		mail:        mail,
		metrics:     metrics,
		notify:      notify,
		loginURL:    loginURL,
		validator:   validate,
		logger:      logger,
	}
}

// Assign creates the (assessor, school) assignment, or reports it as skipped
// when the pair already exists.
func (s *AssignmentService) Assign(ctx context.Context, req AssignRequest) (*dto.AssignmentOutcome, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}

	assessor, err := s.assessors.FindByID(ctx, req.AssessorID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assessor not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assessor")
	}
	school, err := s.schools.FindByID(ctx, req.SchoolID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "school not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load school")
	}

	outcome, err := s.assign(ctx, assessor, school, req.AssessmentDate)
	if err != nil {
		return nil, err
	}
	return outcome, nil
}

// BulkAssign applies the cross product of assessors and schools. Each pair
// succeeds or fails on its own; the report aggregates the outcomes.
func (s *AssignmentService) BulkAssign(ctx context.Context, req BulkAssignRequest) (*dto.BulkAssignmentReport, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid bulk assignment payload")
	}

	report := &dto.BulkAssignmentReport{StartedAt: time.Now().UTC()}
	for _, assessorID := range req.AssessorIDs {
		for _, schoolID := range req.SchoolIDs {
			report.Total++
			outcome := s.assignPair(ctx, assessorID, schoolID, req.AssessmentDate)
			switch outcome.Status {
			case dto.AssignmentCreated:
				report.Created++
			case dto.AssignmentSkipped:
				report.Skipped++
			default:
				report.Failed++
			}
			report.Outcomes = append(report.Outcomes, outcome)
		}
	}

	s.logger.Info("bulk assignment finished",
		zap.Int("total", report.Total),
		zap.Int("created", report.Created),
		zap.Int("skipped", report.Skipped),
		zap.Int("failed", report.Failed))
	return report, nil
}

// assignmentJobPayload is the per-pair unit queued for background bulk runs.
type assignmentJobPayload struct {
	AssessorID     string
	SchoolID       string
	AssessmentDate time.Time
}

// EnqueueBulk queues the cross product for background processing and returns
// how many pairs were accepted. Per-pair semantics match the synchronous path.
func (s *AssignmentService) EnqueueBulk(ctx context.Context, queue *jobs.Queue, req BulkAssignRequest) (int, error) {
	if err := s.validator.Struct(req); err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid bulk assignment payload")
	}

	queued := 0
	for _, assessorID := range req.AssessorIDs {
		for _, schoolID := range req.SchoolIDs {
			err := queue.Enqueue(jobs.Task{
				Kind: "assessor_assignment",
				Payload: assignmentJobPayload{
					AssessorID:     assessorID,
					SchoolID:       schoolID,
					AssessmentDate: req.AssessmentDate,
				},
			})
			if err != nil {
				return queued, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to queue assignment")
			}
			queued++
		}
	}
	return queued, nil
}

// JobHandler adapts the per-pair assignment into a queue handler.
func (s *AssignmentService) JobHandler() jobs.HandlerFunc {
	return func(ctx context.Context, task jobs.Task) error {
		payload, ok := task.Payload.(assignmentJobPayload)
		if !ok {
			return fmt.Errorf("unexpected payload type %T", task.Payload)
		}
		outcome := s.assignPair(ctx, payload.AssessorID, payload.SchoolID, payload.AssessmentDate)
		if outcome.Status == dto.AssignmentFailed {
			return fmt.Errorf("assign %s to %s: %s", payload.AssessorID, payload.SchoolID, outcome.Error)
		}
		s.logger.Info("background assignment processed",
			zap.String("assessor_id", payload.AssessorID),
			zap.String("school_id", payload.SchoolID),
			zap.String("status", string(outcome.Status)))
		return nil
	}
}

func (s *AssignmentService) assignPair(ctx context.Context, assessorID, schoolID string, date time.Time) dto.AssignmentOutcome {
	failed := func(err error) dto.AssignmentOutcome {
		if s.metrics != nil {
			s.metrics.AssignmentOutcome(false, false)
		}
		return dto.AssignmentOutcome{
			AssessorID: assessorID,
			SchoolID:   schoolID,
			Status:     dto.AssignmentFailed,
			Error:      err.Error(),
		}
	}

	assessor, err := s.assessors.FindByID(ctx, assessorID)
	if err != nil {
		if err == sql.ErrNoRows {
			return failed(fmt.Errorf("assessor %s not found", assessorID))
		}
		return failed(err)
	}
	school, err := s.schools.FindByID(ctx, schoolID)
	if err != nil {
		if err == sql.ErrNoRows {
			return failed(fmt.Errorf("school %s not found", schoolID))
		}
		return failed(err)
	}

	outcome, err := s.assign(ctx, assessor, school, date)
	if err != nil {
		return failed(err)
	}
	return *outcome
}

func (s *AssignmentService) assign(ctx context.Context, assessor *models.Assessor, school *models.School, date time.Time) (*dto.AssignmentOutcome, error) {
	existing, err := s.assessments.FindByAssessorAndSchool(ctx, assessor.ID, school.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing assignment")
	}
	if existing != nil {
		if s.metrics != nil {
			s.metrics.AssignmentOutcome(false, true)
		}
		return &dto.AssignmentOutcome{
			AssessorID:   assessor.ID,
			SchoolID:     school.ID,
			Status:       dto.AssignmentSkipped,
			AssessmentID: existing.ID,
		}, nil
	}

	roster, err := s.students.ListApprovedBySchool(ctx, school.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list school students")
	}
	studentIDs := make([]string, 0, len(roster))
	for _, student := range roster {
		studentIDs = append(studentIDs, student.ID)
	}

	assessment := &models.SchoolAssessment{
		AssessorID:     assessor.ID,
		SchoolID:       school.ID,
		AssessmentDate: date,
	}
	if err := s.assessments.CreateWithRoster(ctx, assessment, studentIDs); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create assignment")
	}

	if s.metrics != nil {
		s.metrics.AssignmentOutcome(true, false)
	}
	s.notifyAssessor(ctx, assessor, school, date)

	return &dto.AssignmentOutcome{
		AssessorID:       assessor.ID,
		SchoolID:         school.ID,
		Status:           dto.AssignmentCreated,
		AssessmentID:     assessment.ID,
		StudentsSnapshot: len(studentIDs),
	}, nil
}

// notifyAssessor sends the assignment email. Delivery is fire-and-forget;
// failures are logged by the mailer, never surfaced to the caller.
func (s *AssignmentService) notifyAssessor(ctx context.Context, assessor *models.Assessor, school *models.School, date time.Time) {
	if !s.notify || s.mail == nil || assessor.Email == "" {
		return
	}

	body := fmt.Sprintf(
		"Dear %s,\n\nYou have been assigned to assess student teachers at %s on %s.\n\nSign in at %s to view your assessment roster.\n",
		assessor.FullName, school.Name, date.Format("2 January 2006"), s.loginURL)
	s.mail.Send(mailer.Message{
		ToName:    assessor.FullName,
		ToAddress: assessor.Email,
		Subject:   "Field placement assessment assignment",
		Body:      body,
	})

	if !assessor.CredentialsSent {
		if err := s.assessors.MarkCredentialsSent(ctx, assessor.ID); err != nil {
			s.logger.Warn("failed to mark assessor credentials sent",
				zap.String("assessor_id", assessor.ID), zap.Error(err))
		}
	}
}

// ListAssignments returns an assessor's school assignments.
func (s *AssignmentService) ListAssignments(ctx context.Context, assessorID string) ([]models.SchoolAssessment, error) {
	assignments, err := s.assessments.ListByAssessor(ctx, assessorID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assignments")
	}
	return assignments, nil
}

// CompleteAssessment marks a school assessment finished.
func (s *AssignmentService) CompleteAssessment(ctx context.Context, id string) error {
	if err := s.assessments.Complete(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "assessment not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to complete assessment")
	}
	return nil
}

// ListStudentAssessments returns the snapshot roster for an assessor.
func (s *AssignmentService) ListStudentAssessments(ctx context.Context, assessorID, schoolID string) ([]models.StudentAssessmentDetail, error) {
	assessments, err := s.assessments.ListStudentAssessments(ctx, assessorID, schoolID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list student assessments")
	}
	return assessments, nil
}

// UpdateStudentAssessment records progress on one roster entry. Assessors may
// only touch their own roster.
func (s *AssignmentService) UpdateStudentAssessment(ctx context.Context, id, assessorID string, req UpdateStudentAssessmentRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assessment payload")
	}

	assessment, err := s.assessments.FindStudentAssessment(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "student assessment not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student assessment")
	}
	if assessorID != "" && assessment.AssessorID != assessorID {
		return appErrors.Clone(appErrors.ErrForbidden, "assessment belongs to another assessor")
	}

	if err := s.assessments.UpdateStudentAssessment(ctx, id, req.Status, req.Score, req.Comments); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student assessment")
	}
	return nil
}
