package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/field-placement-api/internal/models"
	"github.com/noah-isme/field-placement-api/internal/service"
	appErrors "github.com/noah-isme/field-placement-api/pkg/errors"
	"github.com/noah-isme/field-placement-api/pkg/jobs"
	"github.com/noah-isme/field-placement-api/pkg/response"
)

// AssignmentHandler exposes assessor assignment endpoints.
type AssignmentHandler struct {
	assignments *service.AssignmentService
	assessors   *service.AssessorService
	queue       *jobs.Queue
}

// NewAssignmentHandler constructs AssignmentHandler. queue may be nil when
// background bulk runs are disabled.
func NewAssignmentHandler(assignments *service.AssignmentService, assessors *service.AssessorService, queue *jobs.Queue) *AssignmentHandler {
	return &AssignmentHandler{assignments: assignments, assessors: assessors, queue: queue}
}

// Assign godoc
// @Summary Assign an assessor to a school
// @Tags Assignments
// @Accept json
// @Produce json
// @Param payload body service.AssignRequest true "Assignment payload"
// @Success 201 {object} response.Envelope
// @Router /assignments [post]
func (h *AssignmentHandler) Assign(c *gin.Context) {
	var req service.AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	outcome, err := h.assignments.Assign(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, outcome)
}

// BulkAssign godoc
// @Summary Assign every listed assessor to every listed school
// @Tags Assignments
// @Accept json
// @Produce json
// @Param payload body service.BulkAssignRequest true "Bulk payload"
// @Param async query bool false "Queue in the background"
// @Success 200 {object} response.Envelope
// @Router /assignments/bulk [post]
func (h *AssignmentHandler) BulkAssign(c *gin.Context) {
	var req service.BulkAssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	if c.Query("async") == "true" && h.queue != nil {
		queued, err := h.assignments.EnqueueBulk(c.Request.Context(), h.queue, req)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusAccepted, gin.H{"queued": queued}, nil)
		return
	}

	report, err := h.assignments.BulkAssign(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// List godoc
// @Summary List the caller's school assignments
// @Tags Assignments
// @Produce json
// @Param assessorId query string false "Assessor ID (admin only)"
// @Success 200 {object} response.Envelope
// @Router /assignments [get]
func (h *AssignmentHandler) List(c *gin.Context) {
	assessorID, ok := h.resolveAssessorID(c, c.Query("assessorId"))
	if !ok {
		return
	}
	assignments, err := h.assignments.ListAssignments(c.Request.Context(), assessorID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assignments, nil)
}

// Complete godoc
// @Summary Mark a school assessment finished
// @Tags Assignments
// @Produce json
// @Param id path string true "Assessment ID"
// @Success 204
// @Router /assignments/{id}/complete [post]
func (h *AssignmentHandler) Complete(c *gin.Context) {
	if err := h.assignments.CompleteAssessment(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListStudents godoc
// @Summary List an assessor's student assessment roster
// @Tags Assignments
// @Produce json
// @Param id path string true "Assessor ID"
// @Param schoolId query string false "Filter by school"
// @Success 200 {object} response.Envelope
// @Router /assessors/{id}/students [get]
func (h *AssignmentHandler) ListStudents(c *gin.Context) {
	assessorID, ok := h.resolveAssessorID(c, c.Param("id"))
	if !ok {
		return
	}
	assessments, err := h.assignments.ListStudentAssessments(c.Request.Context(), assessorID, c.Query("schoolId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assessments, nil)
}

// UpdateStudentAssessment godoc
// @Summary Record assessment progress for one student
// @Tags Assignments
// @Accept json
// @Produce json
// @Param id path string true "Student assessment ID"
// @Param payload body service.UpdateStudentAssessmentRequest true "Assessment payload"
// @Success 204
// @Router /student-assessments/{id} [put]
func (h *AssignmentHandler) UpdateStudentAssessment(c *gin.Context) {
	var req service.UpdateStudentAssessmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	// Admins may edit any roster entry; assessors only their own.
	assessorID := ""
	if claims.Role == models.RoleAssessor {
		assessor, err := h.assessors.GetByUser(c.Request.Context(), claims.UserID)
		if err != nil {
			response.Error(c, err)
			return
		}
		assessorID = assessor.ID
	}

	if err := h.assignments.UpdateStudentAssessment(c.Request.Context(), c.Param("id"), assessorID, req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// resolveAssessorID maps the caller onto an assessor record. Admins may name
// any assessor; assessors always act as themselves.
func (h *AssignmentHandler) resolveAssessorID(c *gin.Context, requested string) (string, bool) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return "", false
	}
	if claims.Role == models.RoleAdmin {
		if requested == "" {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "assessor id required"))
			return "", false
		}
		return requested, true
	}

	assessor, err := h.assessors.GetByUser(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return "", false
	}
	return assessor.ID, true
}
