package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-complaints-api/internal/dto"
	"github.com/noah-isme/campus-complaints-api/internal/models"
	"github.com/noah-isme/campus-complaints-api/pkg/response"
)

type adminComplaintService interface {
	ListByCategory(ctx context.Context, actor models.Actor) ([]dto.ComplaintView, error)
	Resolve(ctx context.Context, actor models.Actor, id string, req dto.ResolveComplaintRequest) (*dto.ComplaintView, error)
	MarkFalse(ctx context.Context, actor models.Actor, id string, req dto.MarkFalseRequest) (*dto.ComplaintView, error)
}

type traceService interface {
	Trace(ctx context.Context, actor models.Actor, id string) (*dto.TraceResult, error)
}

// AdminHandler exposes category admin endpoints.
type AdminHandler struct {
	complaints adminComplaintService
	tracer     traceService
}

// NewAdminHandler builds a new handler.
func NewAdminHandler(complaints adminComplaintService, tracer traceService) *AdminHandler {
	return &AdminHandler{complaints: complaints, tracer: tracer}
}

// List godoc
// @Summary List complaints in the admin's category
// @Description Anonymous complaints are returned with a null submitter
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /admin/complaints [get]
func (h *AdminHandler) List(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	items, err := h.complaints.ListByCategory(c.Request.Context(), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, map[string]interface{}{"total": len(items)})
}

// Resolve godoc
// @Summary Resolve complaint
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Complaint ID"
// @Param payload body dto.ResolveComplaintRequest true "Resolution"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/complaints/{id}/resolve [post]
func (h *AdminHandler) Resolve(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.ResolveComplaintRequest
	if !bindJSON(c, &req, "invalid resolution payload") {
		return
	}

	view, err := h.complaints.Resolve(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// MarkFalse godoc
// @Summary Mark complaint as false
// @Description Closes the complaint and flags its submitter
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Complaint ID"
// @Param payload body dto.MarkFalseRequest true "Reason"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/complaints/{id}/mark-false [post]
func (h *AdminHandler) MarkFalse(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.MarkFalseRequest
	if !bindJSON(c, &req, "invalid payload") {
		return
	}

	if _, err := h.complaints.MarkFalse(c.Request.Context(), actor, c.Param("id"), req); err != nil {
		response.Error(c, err)
		return
	}
	response.Ack(c, "complaint marked as false")
}

// Trace godoc
// @Summary Reveal complaint submitter
// @Description Always writes a trace_complaint audit entry
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "Complaint ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/complaints/{id}/trace [post]
func (h *AdminHandler) Trace(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	result, err := h.tracer.Trace(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
