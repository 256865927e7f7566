package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-complaints-api/internal/dto"
	"github.com/noah-isme/campus-complaints-api/internal/models"
	"github.com/noah-isme/campus-complaints-api/pkg/response"
)

type studentComplaintService interface {
	Create(ctx context.Context, actor models.Actor, req dto.CreateComplaintRequest) (*models.Complaint, error)
	ListOwn(ctx context.Context, actor models.Actor) ([]models.Complaint, error)
}

// ComplaintHandler exposes the student side of complaint filing.
type ComplaintHandler struct {
	service studentComplaintService
}

// NewComplaintHandler builds a new handler.
func NewComplaintHandler(service studentComplaintService) *ComplaintHandler {
	return &ComplaintHandler{service: service}
}

// Create godoc
// @Summary File a complaint
// @Tags Complaints
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.CreateComplaintRequest true "Complaint payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /complaints [post]
func (h *ComplaintHandler) Create(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.CreateComplaintRequest
	if !bindJSON(c, &req, "invalid complaint payload") {
		return
	}

	complaint, err := h.service.Create(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, complaint, nil)
}

// Mine godoc
// @Summary List own complaints
// @Tags Complaints
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /complaints/mine [get]
func (h *ComplaintHandler) Mine(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	items, err := h.service.ListOwn(c.Request.Context(), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, map[string]interface{}{"total": len(items)})
}
