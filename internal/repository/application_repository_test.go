package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/field-placement-api/internal/models"
)

func newApplicationRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestApplicationRepositoryApprove(t *testing.T) {
	db, mock, cleanup := newApplicationRepoMock(t)
	defer cleanup()
	repo := NewApplicationRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE student_applications").
		WithArgs("app-1", models.ApprovalStatusApproved, "admin-1", sqlmock.AnyArg(), models.ApprovalStatusPending).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO student_subjects").
		WithArgs("student-1", "subject-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (school_id, subject_id)")).
		WithArgs(sqlmock.AnyArg(), "school-1", "subject-1", defaultSubjectMaxStudents).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	application := &models.StudentApplication{ID: "app-1", StudentID: "student-1", SubjectID: "subject-1", SchoolID: "school-1"}
	require.NoError(t, repo.Approve(context.Background(), application, "admin-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationRepositoryApproveAlreadyDecided(t *testing.T) {
	db, mock, cleanup := newApplicationRepoMock(t)
	defer cleanup()
	repo := NewApplicationRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE student_applications").
		WithArgs("app-1", models.ApprovalStatusApproved, "admin-1", sqlmock.AnyArg(), models.ApprovalStatusPending).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	application := &models.StudentApplication{ID: "app-1", StudentID: "student-1", SubjectID: "subject-1", SchoolID: "school-1"}
	err := repo.Approve(context.Background(), application, "admin-1")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationRepositoryReject(t *testing.T) {
	db, mock, cleanup := newApplicationRepoMock(t)
	defer cleanup()
	repo := NewApplicationRepository(db)

	mock.ExpectExec("UPDATE student_applications").
		WithArgs("app-1", models.ApprovalStatusRejected, "admin-1", sqlmock.AnyArg(), models.ApprovalStatusPending).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Reject(context.Background(), "app-1", "admin-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationRepositoryExists(t *testing.T) {
	db, mock, cleanup := newApplicationRepoMock(t)
	defer cleanup()
	repo := NewApplicationRepository(db)

	mock.ExpectQuery("SELECT 1 FROM student_applications").
		WithArgs("student-1", "subject-1", "school-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(1))

	exists, err := repo.Exists(context.Background(), "student-1", "subject-1", "school-1")
	require.NoError(t, err)
	assert.True(t, exists)

	mock.ExpectQuery("SELECT 1 FROM student_applications").
		WithArgs("student-1", "subject-2", "school-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}))

	exists, err = repo.Exists(context.Background(), "student-1", "subject-2", "school-1")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}
