package service

import (
	"context"
	"database/sql"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/field-placement-api/internal/models"
	appErrors "github.com/noah-isme/field-placement-api/pkg/errors"
	"github.com/noah-isme/field-placement-api/pkg/export"
	"github.com/noah-isme/field-placement-api/pkg/storage"
)

type mockApprovedApplications struct {
	approved map[string][]models.ApplicationDetail
}

func (m *mockApprovedApplications) ListApprovedByStudent(ctx context.Context, studentID string) ([]models.ApplicationDetail, error) {
	return m.approved[studentID], nil
}

type mockLetterStudents struct {
	students map[string]*models.StudentTeacher
	rosters  map[string][]models.StudentTeacher
}

func (m *mockLetterStudents) FindByID(ctx context.Context, id string) (*models.StudentTeacher, error) {
	if s, ok := m.students[id]; ok {
		return s, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockLetterStudents) ListApprovedBySchool(ctx context.Context, schoolID string) ([]models.StudentTeacher, error) {
	return m.rosters[schoolID], nil
}

type mockLetterSchools struct {
	schools map[string]*models.SchoolDetail
}

func (m *mockLetterSchools) FindDetailByID(ctx context.Context, id string) (*models.SchoolDetail, error) {
	if s, ok := m.schools[id]; ok {
		return s, nil
	}
	return nil, sql.ErrNoRows
}

type mockRenderer struct {
	individual *export.IndividualLetter
	group      *export.GroupLetter
}

func (m *mockRenderer) RenderIndividual(letter export.IndividualLetter) ([]byte, error) {
	m.individual = &letter
	return []byte("%PDF-individual"), nil
}

func (m *mockRenderer) RenderGroup(letter export.GroupLetter) ([]byte, error) {
	m.group = &letter
	return []byte("%PDF-group"), nil
}

func letterFixture(quota int) (*LetterService, *mockApprovedApplications, *mockLetterStudents, *mockRenderer) {
	schoolID := "school-1"
	applications := &mockApprovedApplications{approved: map[string][]models.ApplicationDetail{}}
	students := &mockLetterStudents{
		students: map[string]*models.StudentTeacher{
			"student-1": {ID: "student-1", FullName: "Amani", SelectedSchoolID: &schoolID},
		},
		rosters: map[string][]models.StudentTeacher{},
	}
	schools := &mockLetterSchools{schools: map[string]*models.SchoolDetail{
		"school-1": {School: models.School{ID: "school-1", Name: "Dodoma Secondary School", Capacity: 40}, DistrictName: "Chamwino", RegionName: "Dodoma"},
	}}
	renderer := &mockRenderer{}
	return NewLetterService(applications, students, schools, renderer, nil, nil, quota, zap.NewNop()), applications, students, renderer
}

func TestLetterServiceIndividualLetter(t *testing.T) {
	svc, applications, _, renderer := letterFixture(5)
	applications.approved["student-1"] = []models.ApplicationDetail{
		{StudentApplication: models.StudentApplication{ID: "app-1"}, SubjectName: "Mathematics", SchoolName: "Dodoma Secondary School"},
	}

	doc, err := svc.IndividualLetter(context.Background(), "student-1")
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-individual"), doc.Payload)
	assert.Empty(t, doc.DownloadToken)
	require.NotNil(t, renderer.individual)
	assert.Equal(t, "Amani", renderer.individual.StudentName)
	assert.Equal(t, "Dodoma Secondary School", renderer.individual.SchoolName)
	require.Len(t, renderer.individual.Subjects, 1)
	assert.Equal(t, "Mathematics", renderer.individual.Subjects[0].SubjectName)
}

func TestLetterServiceIndividualLetterNoApprovals(t *testing.T) {
	svc, _, _, _ := letterFixture(5)

	_, err := svc.IndividualLetter(context.Background(), "student-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
}

func TestLetterServiceGroupLetterQuota(t *testing.T) {
	svc, _, students, renderer := letterFixture(3)
	students.rosters["school-1"] = []models.StudentTeacher{
		{ID: "s1", FullName: "Amani"},
		{ID: "s2", FullName: "Neema"},
	}

	_, err := svc.GroupLetter(context.Background(), "school-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)

	students.rosters["school-1"] = append(students.rosters["school-1"], models.StudentTeacher{ID: "s3", FullName: "Baraka"})
	doc, err := svc.GroupLetter(context.Background(), "school-1")
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-group"), doc.Payload)
	require.NotNil(t, renderer.group)
	assert.Equal(t, []string{"Amani", "Neema", "Baraka"}, renderer.group.Students)
}

func TestLetterServiceArchivesLetter(t *testing.T) {
	store, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewDownloadSigner("letters-secret", time.Hour)

	schoolID := "school-1"
	applications := &mockApprovedApplications{approved: map[string][]models.ApplicationDetail{
		"student-1": {{StudentApplication: models.StudentApplication{ID: "app-1"}, SubjectName: "Mathematics", SchoolName: "Dodoma Secondary School"}},
	}}
	students := &mockLetterStudents{
		students: map[string]*models.StudentTeacher{
			"student-1": {ID: "student-1", FullName: "Amani", SelectedSchoolID: &schoolID},
		},
		rosters: map[string][]models.StudentTeacher{},
	}
	schools := &mockLetterSchools{schools: map[string]*models.SchoolDetail{}}
	svc := NewLetterService(applications, students, schools, &mockRenderer{}, store, signer, 3, zap.NewNop())

	doc, err := svc.IndividualLetter(context.Background(), "student-1")
	require.NoError(t, err)
	require.NotEmpty(t, doc.DownloadToken)
	assert.True(t, doc.ExpiresAt.After(time.Now()))

	file, name, err := svc.OpenStoredLetter(doc.DownloadToken)
	require.NoError(t, err)
	defer file.Close()
	assert.Equal(t, "student-1.pdf", name)

	stored, err := io.ReadAll(file)
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-individual"), stored)
}

func TestLetterServiceRejectsForgedDownloadToken(t *testing.T) {
	store, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewDownloadSigner("letters-secret", time.Hour)
	svc := NewLetterService(
		&mockApprovedApplications{approved: map[string][]models.ApplicationDetail{}},
		&mockLetterStudents{students: map[string]*models.StudentTeacher{}, rosters: map[string][]models.StudentTeacher{}},
		&mockLetterSchools{schools: map[string]*models.SchoolDetail{}},
		&mockRenderer{}, store, signer, 3, zap.NewNop(),
	)

	forged := storage.NewDownloadSigner("other-secret", time.Hour)
	token, _, err := forged.Generate("student-1", "individual/student-1.pdf")
	require.NoError(t, err)

	_, _, err = svc.OpenStoredLetter(token)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}
