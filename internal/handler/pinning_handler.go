package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/field-placement-api/internal/service"
	appErrors "github.com/noah-isme/field-placement-api/pkg/errors"
	"github.com/noah-isme/field-placement-api/pkg/response"
)

// PinningHandler exposes admin availability pin endpoints.
type PinningHandler struct {
	pinning *service.PinningService
	years   *service.AcademicYearService
}

// NewPinningHandler constructs PinningHandler.
func NewPinningHandler(pinning *service.PinningService, years *service.AcademicYearService) *PinningHandler {
	return &PinningHandler{pinning: pinning, years: years}
}

// SubmitAllowedRegions godoc
// @Summary Submit the allowed-regions list for an academic year
// @Tags Pinning
// @Accept json
// @Produce json
// @Param payload body service.SubmitAllowedRegionsRequest true "Allowed regions"
// @Success 200 {object} response.Envelope
// @Router /pinning/regions [post]
func (h *PinningHandler) SubmitAllowedRegions(c *gin.Context) {
	var req service.SubmitAllowedRegionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	year, err := h.pinning.SubmitAllowedRegions(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, year, nil)
}

// PinSchool godoc
// @Summary Pin one school for the active year
// @Tags Pinning
// @Accept json
// @Produce json
// @Param id path string true "School ID"
// @Param payload body service.PinSchoolRequest true "Pin payload"
// @Success 200 {object} response.Envelope
// @Router /schools/{id}/pin [post]
func (h *PinningHandler) PinSchool(c *gin.Context) {
	var req service.PinSchoolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	year, err := h.years.Active(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	pin, err := h.pinning.PinSchool(c.Request.Context(), year, c.Param("id"), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, pin, nil)
}

// UnpinSchool godoc
// @Summary Clear a school pin for the active year
// @Tags Pinning
// @Produce json
// @Param id path string true "School ID"
// @Success 200 {object} response.Envelope
// @Router /schools/{id}/pin [delete]
func (h *PinningHandler) UnpinSchool(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	year, err := h.years.Active(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	pin, err := h.pinning.UnpinSchool(c.Request.Context(), year, c.Param("id"), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, pin, nil)
}
