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
	appErrors "github.com/noah-isme/field-placement-api/pkg/errors"
)

type mockApplicationRepo struct {
	applications map[string]models.StudentApplication
	existing     map[string]bool
	created      *models.StudentApplication
	approved     []string
	rejected     []string
	approveErr   error
	rejectErr    error
}

func (m *mockApplicationRepo) List(ctx context.Context, filter models.ApplicationFilter) ([]models.ApplicationDetail, int, error) {
	return nil, 0, nil
}

func (m *mockApplicationRepo) FindByID(ctx context.Context, id string) (*models.StudentApplication, error) {
	if a, ok := m.applications[id]; ok {
		return &a, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockApplicationRepo) Exists(ctx context.Context, studentID, subjectID, schoolID string) (bool, error) {
	return m.existing[studentID+subjectID+schoolID], nil
}

func (m *mockApplicationRepo) Create(ctx context.Context, application *models.StudentApplication) error {
	application.ID = "new-application"
	m.created = application
	return nil
}

func (m *mockApplicationRepo) Approve(ctx context.Context, application *models.StudentApplication, approvedBy string) error {
	if m.approveErr != nil {
		return m.approveErr
	}
	m.approved = append(m.approved, application.ID)
	return nil
}

func (m *mockApplicationRepo) Reject(ctx context.Context, id, rejectedBy string) error {
	if m.rejectErr != nil {
		return m.rejectErr
	}
	m.rejected = append(m.rejected, id)
	return nil
}

type mockApplicationStudents struct {
	students map[string]*models.StudentTeacher
}

func (m *mockApplicationStudents) FindByID(ctx context.Context, id string) (*models.StudentTeacher, error) {
	if s, ok := m.students[id]; ok {
		return s, nil
	}
	return nil, sql.ErrNoRows
}

type mockSubjectReader struct{}

func (m *mockSubjectReader) FindByID(ctx context.Context, id string) (*models.Subject, error) {
	if id == "missing" {
		return nil, sql.ErrNoRows
	}
	return &models.Subject{ID: id, Name: "Mathematics"}, nil
}

type mockCapacityReader struct {
	capacities map[string]*models.SchoolSubjectCapacity
}

func (m *mockCapacityReader) Find(ctx context.Context, schoolID, subjectID string) (*models.SchoolSubjectCapacity, error) {
	if c, ok := m.capacities[schoolID+subjectID]; ok {
		return c, nil
	}
	return nil, sql.ErrNoRows
}

func applicationFixture(repo *mockApplicationRepo, capacities *mockCapacityReader) *ApplicationService {
	schoolID := "school-1"
	students := &mockApplicationStudents{students: map[string]*models.StudentTeacher{
		"student-1": {ID: "student-1", FullName: "Amani", SelectedSchoolID: &schoolID},
		"student-2": {ID: "student-2", FullName: "Neema"},
	}}
	return NewApplicationService(repo, students, &mockSubjectReader{}, capacities, nil, validator.New(), zap.NewNop())
}

func TestApplicationServiceApply(t *testing.T) {
	repo := &mockApplicationRepo{}
	capacities := &mockCapacityReader{capacities: map[string]*models.SchoolSubjectCapacity{
		"school-1subject-1": {SchoolID: "school-1", SubjectID: "subject-1", MaxStudents: 5, CurrentStudents: 2},
	}}
	svc := applicationFixture(repo, capacities)

	application, err := svc.Apply(context.Background(), "student-1", ApplyRequest{SubjectID: "subject-1", SchoolID: "school-1"})
	require.NoError(t, err)
	assert.Equal(t, models.ApprovalStatusPending, application.Status)
	assert.NotNil(t, repo.created)
}

func TestApplicationServiceApplyWrongSchool(t *testing.T) {
	svc := applicationFixture(&mockApplicationRepo{}, &mockCapacityReader{})

	_, err := svc.Apply(context.Background(), "student-1", ApplyRequest{SubjectID: "subject-1", SchoolID: "school-9"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
}

func TestApplicationServiceApplyNoConfirmedSchool(t *testing.T) {
	svc := applicationFixture(&mockApplicationRepo{}, &mockCapacityReader{})

	_, err := svc.Apply(context.Background(), "student-2", ApplyRequest{SubjectID: "subject-1", SchoolID: "school-1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
}

func TestApplicationServiceApplyDuplicate(t *testing.T) {
	repo := &mockApplicationRepo{existing: map[string]bool{"student-1subject-1school-1": true}}
	svc := applicationFixture(repo, &mockCapacityReader{})

	_, err := svc.Apply(context.Background(), "student-1", ApplyRequest{SubjectID: "subject-1", SchoolID: "school-1"})
	assert.Equal(t, appErrors.ErrAlreadyApplied.Code, appErrors.FromError(err).Code)
}

func TestApplicationServiceApplySubjectNotOffered(t *testing.T) {
	svc := applicationFixture(&mockApplicationRepo{}, &mockCapacityReader{})

	_, err := svc.Apply(context.Background(), "student-1", ApplyRequest{SubjectID: "subject-1", SchoolID: "school-1"})
	assert.Equal(t, appErrors.ErrSubjectNotOffered.Code, appErrors.FromError(err).Code)
}

func TestApplicationServiceApplySubjectFull(t *testing.T) {
	capacities := &mockCapacityReader{capacities: map[string]*models.SchoolSubjectCapacity{
		"school-1subject-1": {SchoolID: "school-1", SubjectID: "subject-1", MaxStudents: 5, CurrentStudents: 5},
	}}
	svc := applicationFixture(&mockApplicationRepo{}, capacities)

	_, err := svc.Apply(context.Background(), "student-1", ApplyRequest{SubjectID: "subject-1", SchoolID: "school-1"})
	assert.Equal(t, appErrors.ErrSubjectFull.Code, appErrors.FromError(err).Code)
}

func TestApplicationServiceApprove(t *testing.T) {
	repo := &mockApplicationRepo{applications: map[string]models.StudentApplication{
		"app-1": {ID: "app-1", StudentID: "student-1", SubjectID: "subject-1", SchoolID: "school-1", Status: models.ApprovalStatusPending},
	}}
	svc := applicationFixture(repo, &mockCapacityReader{})

	require.NoError(t, svc.Approve(context.Background(), "app-1", "admin-1"))
	assert.Contains(t, repo.approved, "app-1")
}

func TestApplicationServiceApproveAlreadyDecided(t *testing.T) {
	repo := &mockApplicationRepo{applications: map[string]models.StudentApplication{
		"app-1": {ID: "app-1", Status: models.ApprovalStatusApproved},
	}}
	svc := applicationFixture(repo, &mockCapacityReader{})

	err := svc.Approve(context.Background(), "app-1", "admin-1")
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.approved)
}

func TestApplicationServiceApproveRaceLost(t *testing.T) {
	repo := &mockApplicationRepo{
		applications: map[string]models.StudentApplication{
			"app-1": {ID: "app-1", Status: models.ApprovalStatusPending},
		},
		approveErr: sql.ErrNoRows,
	}
	svc := applicationFixture(repo, &mockCapacityReader{})

	err := svc.Approve(context.Background(), "app-1", "admin-1")
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestApplicationServiceReject(t *testing.T) {
	repo := &mockApplicationRepo{applications: map[string]models.StudentApplication{
		"app-1": {ID: "app-1", Status: models.ApprovalStatusPending},
	}}
	svc := applicationFixture(repo, &mockCapacityReader{})

	require.NoError(t, svc.Reject(context.Background(), "app-1", "admin-1"))
	assert.Contains(t, repo.rejected, "app-1")
}

func TestApplicationServiceRejectNotFound(t *testing.T) {
	svc := applicationFixture(&mockApplicationRepo{}, &mockCapacityReader{})

	err := svc.Reject(context.Background(), "gone", "admin-1")
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
