package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/field-placement-api/internal/dto"
	"github.com/noah-isme/field-placement-api/internal/middleware"
	"github.com/noah-isme/field-placement-api/internal/models"
	appErrors "github.com/noah-isme/field-placement-api/pkg/errors"
)

type selectionServiceMock struct {
	pending      *dto.PendingSelection
	selectErr    error
	cancelErr    error
	confirmed    *models.StudentTeacher
	confirmErr   error
	state        *dto.SelectionState
	lastSchoolID string
	selectCalled bool
	cancelCalled bool
}

func (m *selectionServiceMock) Select(ctx context.Context, year *models.AcademicYear, studentID, schoolID string) (*dto.PendingSelection, error) {
	m.selectCalled = true
	m.lastSchoolID = schoolID
	return m.pending, m.selectErr
}

func (m *selectionServiceMock) Cancel(ctx context.Context, studentID string) error {
	m.cancelCalled = true
	return m.cancelErr
}

func (m *selectionServiceMock) Confirm(ctx context.Context, studentID string) (*models.StudentTeacher, error) {
	return m.confirmed, m.confirmErr
}

func (m *selectionServiceMock) Current(ctx context.Context, studentID string) (*dto.SelectionState, error) {
	return m.state, nil
}

type studentResolverMock struct {
	student *models.StudentTeacher
	err     error
}

func (m *studentResolverMock) ProfileByUser(ctx context.Context, userID string) (*models.StudentTeacher, error) {
	return m.student, m.err
}

type yearProviderMock struct {
	year *models.AcademicYear
}

func (m *yearProviderMock) Active(ctx context.Context) (*models.AcademicYear, error) {
	return m.year, nil
}

func selectionTestContext(t *testing.T, method, path, body string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	var reader *bytes.Buffer
	if body != "" {
		reader = bytes.NewBufferString(body)
	} else {
		reader = bytes.NewBuffer(nil)
	}
	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "user-1", Role: models.RoleStudent})
	return c, w
}

func TestSelectionHandlerSelect(t *testing.T) {
	mockSvc := &selectionServiceMock{pending: &dto.PendingSelection{SchoolID: "school-1"}}
	students := &studentResolverMock{student: &models.StudentTeacher{ID: "student-1"}}
	handler := NewSelectionHandler(mockSvc, students, &yearProviderMock{year: &models.AcademicYear{ID: "year-1"}})

	c, w := selectionTestContext(t, http.MethodPost, "/selection", `{"school_id":"school-1"}`)
	handler.Select(c)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, mockSvc.selectCalled)
	assert.Equal(t, "school-1", mockSvc.lastSchoolID)
}

func TestSelectionHandlerSelectInvalidBody(t *testing.T) {
	mockSvc := &selectionServiceMock{}
	handler := NewSelectionHandler(mockSvc, &studentResolverMock{student: &models.StudentTeacher{ID: "student-1"}}, &yearProviderMock{})

	c, w := selectionTestContext(t, http.MethodPost, "/selection", `{}`)
	handler.Select(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, mockSvc.selectCalled)
}

func TestSelectionHandlerSelectConflict(t *testing.T) {
	mockSvc := &selectionServiceMock{selectErr: appErrors.ErrSchoolFull}
	handler := NewSelectionHandler(mockSvc, &studentResolverMock{student: &models.StudentTeacher{ID: "student-1"}}, &yearProviderMock{})

	c, w := selectionTestContext(t, http.MethodPost, "/selection", `{"school_id":"school-1"}`)
	handler.Select(c)

	require.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "SCHOOL_FULL")
}

func TestSelectionHandlerCancel(t *testing.T) {
	mockSvc := &selectionServiceMock{}
	handler := NewSelectionHandler(mockSvc, &studentResolverMock{student: &models.StudentTeacher{ID: "student-1"}}, &yearProviderMock{})

	c, w := selectionTestContext(t, http.MethodDelete, "/selection", "")
	handler.Cancel(c)
	c.Writer.WriteHeaderNow()

	require.Equal(t, http.StatusNoContent, w.Code)
	assert.True(t, mockSvc.cancelCalled)
}

func TestSelectionHandlerCancelNothingPending(t *testing.T) {
	mockSvc := &selectionServiceMock{cancelErr: appErrors.ErrNoPendingSelection}
	handler := NewSelectionHandler(mockSvc, &studentResolverMock{student: &models.StudentTeacher{ID: "student-1"}}, &yearProviderMock{})

	c, w := selectionTestContext(t, http.MethodDelete, "/selection", "")
	handler.Cancel(c)

	require.Equal(t, http.StatusPreconditionFailed, w.Code)
}

func TestSelectionHandlerConfirm(t *testing.T) {
	schoolID := "school-1"
	mockSvc := &selectionServiceMock{confirmed: &models.StudentTeacher{ID: "student-1", SelectedSchoolID: &schoolID}}
	handler := NewSelectionHandler(mockSvc, &studentResolverMock{student: &models.StudentTeacher{ID: "student-1"}}, &yearProviderMock{})

	c, w := selectionTestContext(t, http.MethodPost, "/selection/confirm", "")
	handler.Confirm(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "school-1")
}

func TestSelectionHandlerMissingClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewSelectionHandler(&selectionServiceMock{}, &studentResolverMock{}, &yearProviderMock{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/selection", nil)
	c.Request = req

	handler.Current(c)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}
