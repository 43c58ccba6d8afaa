package handler

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/field-placement-api/internal/service"
	appErrors "github.com/noah-isme/field-placement-api/pkg/errors"
	"github.com/noah-isme/field-placement-api/pkg/response"
)

// LetterHandler serves approval letters as PDFs.
type LetterHandler struct {
	letters  *service.LetterService
	students *service.StudentService
}

// NewLetterHandler constructs LetterHandler.
func NewLetterHandler(letters *service.LetterService, students *service.StudentService) *LetterHandler {
	return &LetterHandler{letters: letters, students: students}
}

// Individual godoc
// @Summary Download the caller's approval letter
// @Tags Letters
// @Produce application/pdf
// @Success 200 {file} binary
// @Router /letters/individual [get]
func (h *LetterHandler) Individual(c *gin.Context) {
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

	doc, err := h.letters.IndividualLetter(c.Request.Context(), student.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	if doc.DownloadToken != "" {
		c.Header("X-Letter-Download-Token", doc.DownloadToken)
	}
	response.PDF(c, doc.FileName, doc.Payload)
}

// Group godoc
// @Summary Download a school's roster letter
// @Tags Letters
// @Produce application/pdf
// @Param schoolId path string true "School ID"
// @Success 200 {file} binary
// @Router /letters/group/{schoolId} [get]
func (h *LetterHandler) Group(c *gin.Context) {
	doc, err := h.letters.GroupLetter(c.Request.Context(), c.Param("schoolId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if doc.DownloadToken != "" {
		c.Header("X-Letter-Download-Token", doc.DownloadToken)
	}
	response.PDF(c, doc.FileName, doc.Payload)
}

// Download godoc
// @Summary Download an archived letter with a signed token
// @Tags Letters
// @Produce application/pdf
// @Param token path string true "Signed download token"
// @Success 200 {file} binary
// @Router /letters/files/{token} [get]
func (h *LetterHandler) Download(c *gin.Context) {
	file, name, err := h.letters.OpenStoredLetter(c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close() //nolint:errcheck

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Header("Content-Type", "application/pdf")
	c.Status(http.StatusOK)
	_, _ = io.Copy(c.Writer, file)
}
