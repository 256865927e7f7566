package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-complaints-api/internal/dto"
	"github.com/noah-isme/campus-complaints-api/internal/middleware"
	"github.com/noah-isme/campus-complaints-api/internal/models"
	appErrors "github.com/noah-isme/campus-complaints-api/pkg/errors"
	"github.com/noah-isme/campus-complaints-api/pkg/response"
)

type authService interface {
	Register(ctx context.Context, req models.RegisterRequest) error
	ResendCode(ctx context.Context, req models.ResendCodeRequest) error
	VerifyCode(ctx context.Context, req models.VerifyCodeRequest) error
	SetPassword(ctx context.Context, req models.SetPasswordRequest) error
	Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error)
}

// AuthHandler wires HTTP endpoints to the auth service.
type AuthHandler struct {
	service authService
}

// NewAuthHandler creates a new handler.
func NewAuthHandler(svc authService) *AuthHandler {
	return &AuthHandler{service: svc}
}

// Register godoc
// @Summary Register student account
// @Description Create an unverified account for a registration number listed in the student directory
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.RegisterRequest true "Registration payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if !bindJSON(c, &req, "invalid registration payload") {
		return
	}

	if err := h.service.Register(c.Request.Context(), req); err != nil {
		response.Error(c, err)
		return
	}

	response.Ack(c, "OTP sent. Check server logs.")
}

// ResendOTP godoc
// @Summary Re-issue one-time code
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.ResendCodeRequest true "Resend payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /auth/resend-otp [post]
func (h *AuthHandler) ResendOTP(c *gin.Context) {
	var req models.ResendCodeRequest
	if !bindJSON(c, &req, "invalid payload") {
		return
	}

	if err := h.service.ResendCode(c.Request.Context(), req); err != nil {
		response.Error(c, err)
		return
	}

	response.Ack(c, "OTP re-sent. Check server logs.")
}

// VerifyOTP godoc
// @Summary Verify one-time code
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.VerifyCodeRequest true "Verification payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 429 {object} response.Envelope
// @Router /auth/verify-otp [post]
func (h *AuthHandler) VerifyOTP(c *gin.Context) {
	var req models.VerifyCodeRequest
	if !bindJSON(c, &req, "invalid verification payload") {
		return
	}

	if err := h.service.VerifyCode(c.Request.Context(), req); err != nil {
		response.Error(c, err)
		return
	}

	response.Ack(c, "OTP verified. Please set your password.")
}

// SetPassword godoc
// @Summary Activate account
// @Description Set the password of a verified registration
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.SetPasswordRequest true "Password payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /auth/set-password [post]
func (h *AuthHandler) SetPassword(c *gin.Context) {
	var req models.SetPasswordRequest
	if !bindJSON(c, &req, "invalid payload") {
		return
	}

	if err := h.service.SetPassword(c.Request.Context(), req); err != nil {
		response.Error(c, err)
		return
	}

	response.Ack(c, "Password set successfully. You can now login.")
}

// Login godoc
// @Summary Authenticate user
// @Description Authenticate user by registration number and password
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.LoginRequest true "Login payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if !bindJSON(c, &req, "invalid login payload") {
		return
	}

	res, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, res, nil)
}

// Me godoc
// @Summary Current account
// @Tags Authentication
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	response.OK(c, dto.NewUserSummary(*user))
}
