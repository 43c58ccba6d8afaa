package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/field-placement-api/internal/models"
)

type auditRecorderMock struct {
	entries []models.AuditLog
}

func (m *auditRecorderMock) Create(ctx context.Context, entry *models.AuditLog) error {
	m.entries = append(m.entries, *entry)
	return nil
}

func TestAuditRecordsSuccessfulAction(t *testing.T) {
	gin.SetMode(gin.TestMode)
	recorder := &auditRecorderMock{}

	r := gin.New()
	r.POST("/applications/:id/approve",
		func(c *gin.Context) {
			c.Set(ContextUserKey, &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin})
		},
		Audit(recorder, "approve", "application"),
		func(c *gin.Context) { c.Status(http.StatusNoContent) },
	)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/applications/app-1/approve", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusNoContent, w.Code)
	require.Len(t, recorder.entries, 1)
	entry := recorder.entries[0]
	assert.Equal(t, "approve", entry.Action)
	assert.Equal(t, "application", entry.Resource)
	require.NotNil(t, entry.ResourceID)
	assert.Equal(t, "app-1", *entry.ResourceID)
	require.NotNil(t, entry.UserID)
	assert.Equal(t, "admin-1", *entry.UserID)
}

func TestAuditSkipsFailedAction(t *testing.T) {
	gin.SetMode(gin.TestMode)
	recorder := &auditRecorderMock{}

	r := gin.New()
	r.POST("/applications/:id/approve",
		Audit(recorder, "approve", "application"),
		func(c *gin.Context) { c.AbortWithStatus(http.StatusConflict) },
	)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/applications/app-1/approve", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusConflict, w.Code)
	assert.Empty(t, recorder.entries)
}
