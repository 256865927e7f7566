package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-complaints-api/internal/dto"
	"github.com/noah-isme/campus-complaints-api/internal/models"
	"github.com/noah-isme/campus-complaints-api/internal/service"
	"github.com/noah-isme/campus-complaints-api/pkg/response"
)

type centralComplaintService interface {
	ListAll(ctx context.Context, actor models.Actor) ([]dto.ComplaintView, error)
}

type userAdminService interface {
	ListStudents(ctx context.Context, actor models.Actor) ([]dto.UserSummary, error)
	Flag(ctx context.Context, actor models.Actor, userID string) (*dto.FlagResult, error)
	Unflag(ctx context.Context, actor models.Actor, userID string) (*dto.FlagResult, error)
}

type auditService interface {
	List(ctx context.Context, actor models.Actor) ([]models.AuditLogEntry, error)
	Export(ctx context.Context, actor models.Actor, format string) (*service.ExportFile, error)
}

// CentralHandler exposes central administration endpoints.
type CentralHandler struct {
	complaints centralComplaintService
	users      userAdminService
	audit      auditService
}

// NewCentralHandler builds a new handler.
func NewCentralHandler(complaints centralComplaintService, users userAdminService, audit auditService) *CentralHandler {
	return &CentralHandler{complaints: complaints, users: users, audit: audit}
}

// Complaints godoc
// @Summary List every complaint
// @Tags Central
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /central/complaints [get]
func (h *CentralHandler) Complaints(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	items, err := h.complaints.ListAll(c.Request.Context(), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, map[string]interface{}{"total": len(items)})
}

// Users godoc
// @Summary List student accounts
// @Tags Central
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /central/users [get]
func (h *CentralHandler) Users(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	items, err := h.users.ListStudents(c.Request.Context(), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, map[string]interface{}{"total": len(items)})
}

// Flag godoc
// @Summary Flag student
// @Tags Central
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /central/users/{id}/flag [post]
func (h *CentralHandler) Flag(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	result, err := h.users.Flag(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"message": "user flagged", "user": result}, nil)
}

// Unflag godoc
// @Summary Unflag student
// @Description Decrements the flag count and lifts any suspension
// @Tags Central
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /central/users/{id}/unflag [post]
func (h *CentralHandler) Unflag(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	result, err := h.users.Unflag(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"message": "user unflagged", "user": result}, nil)
}

// AuditLogs godoc
// @Summary List audit trail
// @Tags Central
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /central/audit-logs [get]
func (h *CentralHandler) AuditLogs(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	items, err := h.audit.List(c.Request.Context(), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, map[string]interface{}{"total": len(items)})
}

// ExportAuditLogs godoc
// @Summary Download audit trail
// @Tags Central
// @Produce text/csv
// @Produce application/pdf
// @Security BearerAuth
// @Param format query string false "csv or pdf" Enums(csv, pdf)
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /central/audit-logs/export [get]
func (h *CentralHandler) ExportAuditLogs(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	file, err := h.audit.Export(c.Request.Context(), actor, c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Body)
}
