package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/field-placement-api/internal/models"
	"github.com/noah-isme/field-placement-api/internal/service"
	appErrors "github.com/noah-isme/field-placement-api/pkg/errors"
	"github.com/noah-isme/field-placement-api/pkg/response"
)

// GeographyHandler exposes the region/district/school hierarchy with
// availability annotations.
type GeographyHandler struct {
	geography    *service.GeographyService
	availability *service.AvailabilityService
	years        *service.AcademicYearService
}

// NewGeographyHandler constructs GeographyHandler.
func NewGeographyHandler(geography *service.GeographyService, availability *service.AvailabilityService, years *service.AcademicYearService) *GeographyHandler {
	return &GeographyHandler{geography: geography, availability: availability, years: years}
}

// ListRegions godoc
// @Summary List regions with availability for the active year
// @Tags Geography
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /regions [get]
func (h *GeographyHandler) ListRegions(c *gin.Context) {
	year, err := h.years.Active(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	regions, err := h.availability.ListRegions(c.Request.Context(), year)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, regions, nil)
}

// ListDistricts godoc
// @Summary List districts of a region
// @Tags Geography
// @Produce json
// @Param id path string true "Region ID"
// @Success 200 {object} response.Envelope
// @Router /regions/{id}/districts [get]
func (h *GeographyHandler) ListDistricts(c *gin.Context) {
	districts, err := h.geography.ListDistricts(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, districts, nil)
}

// ListSchools godoc
// @Summary List schools of a district with availability verdicts
// @Tags Geography
// @Produce json
// @Param id path string true "District ID"
// @Param level query string false "School level (Primary|Secondary)"
// @Param q query string false "Name search"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /districts/{id}/schools [get]
func (h *GeographyHandler) ListSchools(c *gin.Context) {
	filter := models.SchoolFilter{
		DistrictID: c.Param("id"),
		Level:      models.SchoolLevel(c.Query("level")),
		Search:     c.Query("q"),
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}

	year, err := h.years.Active(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	schools, summary, pagination, err := h.availability.ListSchools(c.Request.Context(), year, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, schools, pagination, map[string]interface{}{"summary": summary})
}

// SchoolAvailability godoc
// @Summary Availability verdict for one school
// @Tags Geography
// @Produce json
// @Param id path string true "School ID"
// @Success 200 {object} response.Envelope
// @Router /schools/{id}/availability [get]
func (h *GeographyHandler) SchoolAvailability(c *gin.Context) {
	year, err := h.years.Active(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	availability, err := h.availability.SchoolAvailability(c.Request.Context(), year, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, availability, nil)
}

// CreateSchool godoc
// @Summary Register a placement school
// @Tags Geography
// @Accept json
// @Produce json
// @Param payload body service.CreateSchoolRequest true "School payload"
// @Success 201 {object} response.Envelope
// @Router /schools [post]
func (h *GeographyHandler) CreateSchool(c *gin.Context) {
	var req service.CreateSchoolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	school, err := h.geography.CreateSchool(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, school)
}

// UpdateSchool godoc
// @Summary Update school master data
// @Tags Geography
// @Accept json
// @Produce json
// @Param id path string true "School ID"
// @Param payload body service.UpdateSchoolRequest true "School payload"
// @Success 200 {object} response.Envelope
// @Router /schools/{id} [put]
func (h *GeographyHandler) UpdateSchool(c *gin.Context) {
	var req service.UpdateSchoolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	school, err := h.geography.UpdateSchool(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, school, nil)
}
