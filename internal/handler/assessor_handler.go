package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/field-placement-api/internal/service"
	appErrors "github.com/noah-isme/field-placement-api/pkg/errors"
	"github.com/noah-isme/field-placement-api/pkg/response"
)

// AssessorHandler exposes assessor records.
type AssessorHandler struct {
	assessors *service.AssessorService
}

// NewAssessorHandler constructs AssessorHandler.
func NewAssessorHandler(assessors *service.AssessorService) *AssessorHandler {
	return &AssessorHandler{assessors: assessors}
}

// List godoc
// @Summary List assessors
// @Tags Assessors
// @Produce json
// @Param active query bool false "Only active assessors"
// @Success 200 {object} response.Envelope
// @Router /assessors [get]
func (h *AssessorHandler) List(c *gin.Context) {
	assessors, err := h.assessors.List(c.Request.Context(), c.Query("active") == "true")
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assessors, nil)
}

// Create godoc
// @Summary Register an assessor
// @Tags Assessors
// @Accept json
// @Produce json
// @Param payload body service.CreateAssessorRequest true "Assessor payload"
// @Success 201 {object} response.Envelope
// @Router /assessors [post]
func (h *AssessorHandler) Create(c *gin.Context) {
	var req service.CreateAssessorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	assessor, err := h.assessors.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, assessor)
}
