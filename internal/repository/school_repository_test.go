package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/field-placement-api/internal/models"
)

func newSchoolRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestSchoolRepositoryTryReserveSlot(t *testing.T) {
	db, mock, cleanup := newSchoolRepoMock(t)
	defer cleanup()
	repo := NewSchoolRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("SET current_students = current_students + 1")).
		WithArgs("school-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	reserved, err := repo.TryReserveSlot(context.Background(), "school-1")
	require.NoError(t, err)
	assert.True(t, reserved)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSchoolRepositoryTryReserveSlotFull(t *testing.T) {
	db, mock, cleanup := newSchoolRepoMock(t)
	defer cleanup()
	repo := NewSchoolRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("current_students < capacity")).
		WithArgs("school-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	reserved, err := repo.TryReserveSlot(context.Background(), "school-1")
	require.NoError(t, err)
	assert.False(t, reserved)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSchoolRepositoryReleaseSlot(t *testing.T) {
	db, mock, cleanup := newSchoolRepoMock(t)
	defer cleanup()
	repo := NewSchoolRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("current_students > 0")).
		WithArgs("school-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.ReleaseSlot(context.Background(), "school-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSchoolRepositoryList(t *testing.T) {
	db, mock, cleanup := newSchoolRepoMock(t)
	defer cleanup()
	repo := NewSchoolRepository(db)

	rows := sqlmock.NewRows([]string{"id", "name", "district_id", "level", "capacity", "current_students", "latitude", "longitude", "address", "district_name", "region_name"}).
		AddRow("school-1", "Dodoma Secondary School", "district-1", models.SchoolLevelSecondary, 40, 12, nil, nil, "1 Uhuru Road", "Chamwino", "Dodoma")
	mock.ExpectQuery("SELECT s.id, s.name, s.district_id").
		WithArgs("district-1", "%secondary%").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*)")).
		WithArgs("district-1", "%secondary%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	schools, total, err := repo.List(context.Background(), models.SchoolFilter{DistrictID: "district-1", Search: "secondary", Page: 1, PageSize: 20})
	require.NoError(t, err)
	assert.Len(t, schools, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSchoolRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newSchoolRepoMock(t)
	defer cleanup()
	repo := NewSchoolRepository(db)

	mock.ExpectExec("INSERT INTO schools").
		WithArgs(sqlmock.AnyArg(), "Chamwino Secondary School", "district-1", string(models.SchoolLevelSecondary), 30, 0, nil, nil, nil).
		WillReturnResult(sqlmock.NewResult(1, 1))

	school := &models.School{Name: "Chamwino Secondary School", DistrictID: "district-1", Level: models.SchoolLevelSecondary, Capacity: 30}
	require.NoError(t, repo.Create(context.Background(), school))
	assert.NotEmpty(t, school.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
