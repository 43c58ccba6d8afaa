package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/field-placement-api/internal/dto"
	"github.com/noah-isme/field-placement-api/internal/models"
	appErrors "github.com/noah-isme/field-placement-api/pkg/errors"
	"github.com/noah-isme/field-placement-api/pkg/mailer"
)

type mockAssessmentRepo struct {
	existing  map[string]*models.SchoolAssessment
	rosters   map[string][]string
	createErr error
	roster    map[string]*models.StudentAssessment
	updated   []string
	completed []string
}

func pairKey(assessorID, schoolID string) string { return assessorID + "|" + schoolID }

func (m *mockAssessmentRepo) FindByAssessorAndSchool(ctx context.Context, assessorID, schoolID string) (*models.SchoolAssessment, error) {
	return m.existing[pairKey(assessorID, schoolID)], nil
}

func (m *mockAssessmentRepo) CreateWithRoster(ctx context.Context, assessment *models.SchoolAssessment, studentIDs []string) error {
	if m.createErr != nil {
		return m.createErr
	}
	assessment.ID = "assessment-" + assessment.AssessorID + "-" + assessment.SchoolID
	if m.existing == nil {
		m.existing = make(map[string]*models.SchoolAssessment)
	}
	m.existing[pairKey(assessment.AssessorID, assessment.SchoolID)] = assessment
	if m.rosters == nil {
		m.rosters = make(map[string][]string)
	}
	m.rosters[assessment.ID] = studentIDs
	return nil
}

func (m *mockAssessmentRepo) ListByAssessor(ctx context.Context, assessorID string) ([]models.SchoolAssessment, error) {
	var out []models.SchoolAssessment
	for _, a := range m.existing {
		if a.AssessorID == assessorID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (m *mockAssessmentRepo) Complete(ctx context.Context, id string) error {
	m.completed = append(m.completed, id)
	return nil
}

func (m *mockAssessmentRepo) ListStudentAssessments(ctx context.Context, assessorID, schoolID string) ([]models.StudentAssessmentDetail, error) {
	return nil, nil
}

func (m *mockAssessmentRepo) FindStudentAssessment(ctx context.Context, id string) (*models.StudentAssessment, error) {
	if a, ok := m.roster[id]; ok {
		return a, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAssessmentRepo) UpdateStudentAssessment(ctx context.Context, id string, status models.AssessmentStatus, score, comments string) error {
	m.updated = append(m.updated, id)
	return nil
}

type mockAssessorStore struct {
	assessors       map[string]*models.Assessor
	credentialsSent []string
}

func (m *mockAssessorStore) FindByID(ctx context.Context, id string) (*models.Assessor, error) {
	if a, ok := m.assessors[id]; ok {
		return a, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAssessorStore) MarkCredentialsSent(ctx context.Context, id string) error {
	m.credentialsSent = append(m.credentialsSent, id)
	if a, ok := m.assessors[id]; ok {
		a.CredentialsSent = true
	}
	return nil
}

type mockAssignmentSchools struct {
	schools map[string]*models.School
}

func (m *mockAssignmentSchools) FindByID(ctx context.Context, id string) (*models.School, error) {
	if s, ok := m.schools[id]; ok {
		return s, nil
	}
	return nil, sql.ErrNoRows
}

type mockApprovedLister struct {
	approved map[string][]models.StudentTeacher
	err      error
}

func (m *mockApprovedLister) ListApprovedBySchool(ctx context.Context, schoolID string) ([]models.StudentTeacher, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.approved[schoolID], nil
}

type recordingMailer struct {
	sent []mailer.Message
}

func (m *recordingMailer) Send(msg mailer.Message) {
	m.sent = append(m.sent, msg)
}

func assignmentFixture(repo *mockAssessmentRepo, mail mailer.Mailer) (*AssignmentService, *mockAssessorStore, *mockApprovedLister) {
	assessors := &mockAssessorStore{assessors: map[string]*models.Assessor{
		"assessor-1": {ID: "assessor-1", FullName: "Dr. Rina", Email: "rina@example.ac.id"},
	}}
	schools := &mockAssignmentSchools{schools: map[string]*models.School{
		"school-1": {ID: "school-1", Name: "Dodoma Secondary School"},
		"school-2": {ID: "school-2", Name: "Chamwino Secondary School"},
	}}
	students := &mockApprovedLister{approved: map[string][]models.StudentTeacher{
		"school-1": {{ID: "student-1"}, {ID: "student-2"}},
	}}
	svc := NewAssignmentService(repo, assessors, schools, students, mail, nil, true, "https://placement.example.ac.id/login", validator.New(), zap.NewNop())
	return svc, assessors, students
}

func TestAssignmentServiceAssign(t *testing.T) {
	repo := &mockAssessmentRepo{}
	mail := &recordingMailer{}
	svc, assessors, _ := assignmentFixture(repo, mail)

	outcome, err := svc.Assign(context.Background(), AssignRequest{
		AssessorID:     "assessor-1",
		SchoolID:       "school-1",
		AssessmentDate: time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Equal(t, dto.AssignmentCreated, outcome.Status)
	assert.Equal(t, 2, outcome.StudentsSnapshot)
	assert.Equal(t, []string{"student-1", "student-2"}, repo.rosters[outcome.AssessmentID])
	require.Len(t, mail.sent, 1)
	assert.Equal(t, "rina@example.ac.id", mail.sent[0].ToAddress)
	assert.Contains(t, assessors.credentialsSent, "assessor-1")
}

func TestAssignmentServiceAssignIdempotent(t *testing.T) {
	repo := &mockAssessmentRepo{existing: map[string]*models.SchoolAssessment{
		pairKey("assessor-1", "school-1"): {ID: "assessment-9", AssessorID: "assessor-1", SchoolID: "school-1"},
	}}
	mail := &recordingMailer{}
	svc, _, _ := assignmentFixture(repo, mail)

	outcome, err := svc.Assign(context.Background(), AssignRequest{
		AssessorID:     "assessor-1",
		SchoolID:       "school-1",
		AssessmentDate: time.Now(),
	})
	require.NoError(t, err)
	assert.Equal(t, dto.AssignmentSkipped, outcome.Status)
	assert.Equal(t, "assessment-9", outcome.AssessmentID)
	assert.Empty(t, mail.sent)
}

func TestAssignmentServiceAssignUnknownAssessor(t *testing.T) {
	svc, _, _ := assignmentFixture(&mockAssessmentRepo{}, &recordingMailer{})

	_, err := svc.Assign(context.Background(), AssignRequest{
		AssessorID:     "assessor-9",
		SchoolID:       "school-1",
		AssessmentDate: time.Now(),
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestAssignmentServiceBulkAssignPartialFailure(t *testing.T) {
	repo := &mockAssessmentRepo{existing: map[string]*models.SchoolAssessment{
		pairKey("assessor-1", "school-2"): {ID: "assessment-8", AssessorID: "assessor-1", SchoolID: "school-2"},
	}}
	svc, _, _ := assignmentFixture(repo, &recordingMailer{})

	report, err := svc.BulkAssign(context.Background(), BulkAssignRequest{
		AssessorIDs:    []string{"assessor-1", "assessor-9"},
		SchoolIDs:      []string{"school-1", "school-2"},
		AssessmentDate: time.Now(),
	})
	require.NoError(t, err)
	assert.Equal(t, 4, report.Total)
	assert.Equal(t, 1, report.Created)
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, 2, report.Failed)
	require.Len(t, report.Outcomes, 4)
}

func TestAssignmentServiceBulkAssignRosterError(t *testing.T) {
	repo := &mockAssessmentRepo{}
	svc, _, students := assignmentFixture(repo, &recordingMailer{})
	students.err = errors.New("db down")

	report, err := svc.BulkAssign(context.Background(), BulkAssignRequest{
		AssessorIDs:    []string{"assessor-1"},
		SchoolIDs:      []string{"school-1"},
		AssessmentDate: time.Now(),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, dto.AssignmentFailed, report.Outcomes[0].Status)
	assert.NotEmpty(t, report.Outcomes[0].Error)
}

func TestAssignmentServiceUpdateStudentAssessmentOwnership(t *testing.T) {
	repo := &mockAssessmentRepo{roster: map[string]*models.StudentAssessment{
		"sa-1": {ID: "sa-1", AssessorID: "assessor-1", StudentID: "student-1"},
	}}
	svc, _, _ := assignmentFixture(repo, &recordingMailer{})

	err := svc.UpdateStudentAssessment(context.Background(), "sa-1", "assessor-2", UpdateStudentAssessmentRequest{Status: models.AssessmentStatusCompleted, Score: "A"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.updated)

	require.NoError(t, svc.UpdateStudentAssessment(context.Background(), "sa-1", "assessor-1", UpdateStudentAssessmentRequest{Status: models.AssessmentStatusCompleted, Score: "A"}))
	assert.Contains(t, repo.updated, "sa-1")

	// Admins pass an empty assessor ID and may edit any entry.
	require.NoError(t, svc.UpdateStudentAssessment(context.Background(), "sa-1", "", UpdateStudentAssessmentRequest{Status: models.AssessmentStatusInProgress}))
}
