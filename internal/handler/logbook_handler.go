package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/field-placement-api/internal/models"
	"github.com/noah-isme/field-placement-api/internal/service"
	appErrors "github.com/noah-isme/field-placement-api/pkg/errors"
	"github.com/noah-isme/field-placement-api/pkg/response"
)

// LogbookHandler exposes the daily field logbook.
type LogbookHandler struct {
	logbook  *service.LogbookService
	students *service.StudentService
}

// NewLogbookHandler constructs LogbookHandler.
func NewLogbookHandler(logbook *service.LogbookService, students *service.StudentService) *LogbookHandler {
	return &LogbookHandler{logbook: logbook, students: students}
}

// Submit godoc
// @Summary Submit the day's field report
// @Tags Logbook
// @Accept json
// @Produce json
// @Param payload body service.SubmitLogbookRequest true "Logbook payload"
// @Success 201 {object} response.Envelope
// @Router /logbook [post]
func (h *LogbookHandler) Submit(c *gin.Context) {
	var req service.SubmitLogbookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	student, err := h.students.ProfileByUser(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	entry, err := h.logbook.Submit(c.Request.Context(), student.ID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, entry)
}

// History godoc
// @Summary List the caller's logbook entries
// @Tags Logbook
// @Produce json
// @Param from query string false "From date (RFC 3339)"
// @Param to query string false "To date (RFC 3339)"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /logbook [get]
func (h *LogbookHandler) History(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	student, err := h.students.ProfileByUser(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	filter := models.LogbookFilter{StudentID: student.ID}
	if raw := c.Query("from"); raw != "" {
		if from, err := time.Parse(time.RFC3339, raw); err == nil {
			filter.From = &from
		}
	}
	if raw := c.Query("to"); raw != "" {
		if to, err := time.Parse(time.RFC3339, raw); err == nil {
			filter.To = &to
		}
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}

	entries, pagination, err := h.logbook.History(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, pagination)
}
