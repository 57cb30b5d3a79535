package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/boutledger/escrowsettle/internal/models"
	"github.com/boutledger/escrowsettle/internal/services"
)

// AuditHandler serves a bout's audit trail.
type AuditHandler struct {
	auditService *services.AuditService
}

// NewAuditHandler creates a new audit handler.
func NewAuditHandler(auditService *services.AuditService) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

// GetBoutAuditLog returns the audit trail for a single bout, most recent first.
func (h *AuditHandler) GetBoutAuditLog(c *gin.Context) {
	boutID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		_ = c.Error(models.NewAppError(http.StatusBadRequest, "invalid bout id", err))
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if offset < 0 {
		offset = 0
	}

	entries, err := h.auditService.ListByEntity("bout", boutID, limit, offset)
	if err != nil {
		_ = c.Error(models.NewAppError(http.StatusInternalServerError, "failed to retrieve audit log", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"bout_id":    boutID,
		"audit_log":  entries,
		"limit":      limit,
		"offset":     offset,
	})
}
