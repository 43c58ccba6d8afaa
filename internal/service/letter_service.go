package service

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/field-placement-api/internal/models"
	appErrors "github.com/noah-isme/field-placement-api/pkg/errors"
	"github.com/noah-isme/field-placement-api/pkg/export"
)

type approvedApplicationReader interface {
	ListApprovedByStudent(ctx context.Context, studentID string) ([]models.ApplicationDetail, error)
}

type letterStudentReader interface {
	FindByID(ctx context.Context, id string) (*models.StudentTeacher, error)
	ListApprovedBySchool(ctx context.Context, schoolID string) ([]models.StudentTeacher, error)
}

type letterSchoolReader interface {
	FindDetailByID(ctx context.Context, id string) (*models.SchoolDetail, error)
}

type letterRenderer interface {
	RenderIndividual(letter export.IndividualLetter) ([]byte, error)
	RenderGroup(letter export.GroupLetter) ([]byte, error)
}

type letterStore interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
}

type downloadSigner interface {
	Generate(letterID, relPath string) (string, time.Time, error)
	Parse(token string, allowExpired bool) (letterID, relPath string, expiresAt time.Time, err error)
}

// LetterDocument is a rendered letter plus, when archiving is enabled, the
// signed token that re-downloads the stored copy without an API session.
type LetterDocument struct {
	FileName      string
	Payload       []byte
	DownloadToken string
	ExpiresAt     time.Time
}

// LetterService renders placement approval letters as PDF documents and
// archives each rendered copy for signed download links.
type LetterService struct {
	applications approvedApplicationReader
	students     letterStudentReader
	schools      letterSchoolReader
	renderer     letterRenderer
	store        letterStore
	signer       downloadSigner
	groupQuota   int
	logger       *zap.Logger
}

// NewLetterService constructs LetterService. groupQuota is the minimum number
// of approved students a school needs before a group letter can be issued.
// store and signer may be nil to disable archiving.
func NewLetterService(applications approvedApplicationReader, students letterStudentReader, schools letterSchoolReader, renderer letterRenderer, store letterStore, signer downloadSigner, groupQuota int, logger *zap.Logger) *LetterService {
	if groupQuota <= 0 {
		groupQuota = 5
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LetterService{
		applications: applications,
		students:     students,
		schools:      schools,
		renderer:     renderer,
		store:        store,
		signer:       signer,
		groupQuota:   groupQuota,
		logger:       logger,
	}
}

// IndividualLetter renders the approval letter for one student. The student
// needs at least one approved application.
func (s *LetterService) IndividualLetter(ctx context.Context, studentID string) (*LetterDocument, error) {
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student profile not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	approved, err := s.applications.ListApprovedByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list approved applications")
	}
	if len(approved) == 0 {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "no approved applications for this student")
	}

	letter := export.IndividualLetter{
		StudentName: student.FullName,
		StudentID:   student.ID,
		Phone:       student.PhoneNumber,
		Email:       student.Email,
		GeneratedAt: time.Now().UTC(),
	}
	if student.SelectedSchoolID != nil {
		school, err := s.schools.FindDetailByID(ctx, *student.SelectedSchoolID)
		if err != nil && err != sql.ErrNoRows {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load school")
		}
		if school != nil {
			letter.SchoolName = school.Name
			letter.DistrictName = school.DistrictName
			letter.RegionName = school.RegionName
		}
	}
	for _, application := range approved {
		letter.Subjects = append(letter.Subjects, export.ApprovedSubject{
			SubjectName: application.SubjectName,
			SchoolName:  application.SchoolName,
			ApprovedOn:  application.ApprovalDate,
		})
	}

	payload, err := s.renderer.RenderIndividual(letter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render letter")
	}

	doc := &LetterDocument{FileName: "placement-approval-letter.pdf", Payload: payload}
	doc.DownloadToken, doc.ExpiresAt = s.archive(studentID, fmt.Sprintf("individual/%s.pdf", studentID), payload)
	return doc, nil
}

// GroupLetter renders the roster letter for a school once enough students
// are approved there.
func (s *LetterService) GroupLetter(ctx context.Context, schoolID string) (*LetterDocument, error) {
	school, err := s.schools.FindDetailByID(ctx, schoolID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "school not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load school")
	}

	roster, err := s.students.ListApprovedBySchool(ctx, schoolID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list school students")
	}
	if len(roster) < s.groupQuota {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "not enough approved students for a group letter")
	}

	letter := export.GroupLetter{
		SchoolName:   school.Name,
		DistrictName: school.DistrictName,
		Capacity:     school.Capacity,
		GeneratedAt:  time.Now().UTC(),
	}
	for _, student := range roster {
		letter.Students = append(letter.Students, student.FullName)
	}

	payload, err := s.renderer.RenderGroup(letter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render letter")
	}

	doc := &LetterDocument{FileName: "placement-group-letter.pdf", Payload: payload}
	doc.DownloadToken, doc.ExpiresAt = s.archive(schoolID, fmt.Sprintf("group/%s.pdf", schoolID), payload)
	return doc, nil
}

// OpenStoredLetter resolves a signed download token to its archived file.
func (s *LetterService) OpenStoredLetter(token string) (*os.File, string, error) {
	if s.store == nil || s.signer == nil {
		return nil, "", appErrors.Clone(appErrors.ErrPreconditionFailed, "letter downloads are not enabled")
	}
	_, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, "", appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired download token")
	}
	file, err := s.store.Open(relPath)
	if err != nil {
		return nil, "", appErrors.Clone(appErrors.ErrNotFound, "letter not found")
	}
	return file, filepath.Base(relPath), nil
}

// archive stores the rendered letter and signs a download token. Archiving
// failures degrade to an inline-only response rather than failing the letter.
func (s *LetterService) archive(letterID, relPath string, payload []byte) (string, time.Time) {
	if s.store == nil || s.signer == nil {
		return "", time.Time{}
	}
	if _, err := s.store.Save(relPath, payload); err != nil {
		s.logger.Warn("failed to archive letter", zap.String("path", relPath), zap.Error(err))
		return "", time.Time{}
	}
	token, expiresAt, err := s.signer.Generate(letterID, relPath)
	if err != nil {
		s.logger.Warn("failed to sign letter download token", zap.String("path", relPath), zap.Error(err))
		return "", time.Time{}
	}
	return token, expiresAt
}
