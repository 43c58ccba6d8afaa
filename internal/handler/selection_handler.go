package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/field-placement-api/internal/dto"
	"github.com/noah-isme/field-placement-api/internal/models"
	appErrors "github.com/noah-isme/field-placement-api/pkg/errors"
	"github.com/noah-isme/field-placement-api/pkg/response"
)

// SelectSchoolRequest is the student's school choice payload.
type SelectSchoolRequest struct {
	SchoolID string `json:"school_id" binding:"required"`
}

type selectionService interface {
	Select(ctx context.Context, year *models.AcademicYear, studentID, schoolID string) (*dto.PendingSelection, error)
	Cancel(ctx context.Context, studentID string) error
	Confirm(ctx context.Context, studentID string) (*models.StudentTeacher, error)
	Current(ctx context.Context, studentID string) (*dto.SelectionState, error)
}

type studentProfileResolver interface {
	ProfileByUser(ctx context.Context, userID string) (*models.StudentTeacher, error)
}

type activeYearProvider interface {
	Active(ctx context.Context) (*models.AcademicYear, error)
}

// SelectionHandler exposes the select / cancel / confirm workflow.
type SelectionHandler struct {
	selections selectionService
	students   studentProfileResolver
	years      activeYearProvider
}

// NewSelectionHandler constructs SelectionHandler.
func NewSelectionHandler(selections selectionService, students studentProfileResolver, years activeYearProvider) *SelectionHandler {
	return &SelectionHandler{selections: selections, students: students, years: years}
}

func (h *SelectionHandler) currentStudent(c *gin.Context) (*models.StudentTeacher, bool) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return nil, false
	}
	student, err := h.students.ProfileByUser(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return nil, false
	}
	return student, true
}

// Select godoc
// @Summary Select a school, reserving a seat
// @Tags Selection
// @Accept json
// @Produce json
// @Param payload body SelectSchoolRequest true "School choice"
// @Success 201 {object} response.Envelope
// @Router /selection [post]
func (h *SelectionHandler) Select(c *gin.Context) {
	var req SelectSchoolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	student, ok := h.currentStudent(c)
	if !ok {
		return
	}
	year, err := h.years.Active(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	pending, err := h.selections.Select(c.Request.Context(), year, student.ID, req.SchoolID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, pending)
}

// Cancel godoc
// @Summary Cancel the pending selection, releasing the seat
// @Tags Selection
// @Produce json
// @Success 204
// @Router /selection [delete]
func (h *SelectionHandler) Cancel(c *gin.Context) {
	student, ok := h.currentStudent(c)
	if !ok {
		return
	}
	if err := h.selections.Cancel(c.Request.Context(), student.ID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Confirm godoc
// @Summary Confirm the pending selection onto the profile
// @Tags Selection
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /selection/confirm [post]
func (h *SelectionHandler) Confirm(c *gin.Context) {
	student, ok := h.currentStudent(c)
	if !ok {
		return
	}
	updated, err := h.selections.Confirm(c.Request.Context(), student.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, updated, nil)
}

// Current godoc
// @Summary Current selection state, pending and confirmed
// @Tags Selection
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /selection [get]
func (h *SelectionHandler) Current(c *gin.Context) {
	student, ok := h.currentStudent(c)
	if !ok {
		return
	}
	state, err := h.selections.Current(c.Request.Context(), student.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, state, nil)
}
