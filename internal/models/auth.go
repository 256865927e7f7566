package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// RegisterRequest starts student self-registration.
type RegisterRequest struct {
	RegistrationNumber string `json:"registrationNumber" validate:"required,max=20"`
	FullName           string `json:"fullName" validate:"required,min=2,max=255"`
	Email              string `json:"email" validate:"required,email"`
}

// VerifyCodeRequest consumes the one-time code.
type VerifyCodeRequest struct {
	RegistrationNumber string `json:"registrationNumber" validate:"required,max=20"`
	OTPCode            string `json:"otpCode" validate:"required,len=6,numeric"`
}

// SetPasswordRequest activates a verified registration.
type SetPasswordRequest struct {
	RegistrationNumber string `json:"registrationNumber" validate:"required,max=20"`
	Password           string `json:"password" validate:"required,min=6,max=72"`
}

// LoginRequest holds credentials for authenticating a user.
type LoginRequest struct {
	RegistrationNumber string `json:"registrationNumber" validate:"required,max=20"`
	Password           string `json:"password" validate:"required"`
}

// LoginResponse returns the issued token and sanitized user.
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      *User     `json:"user"`
}

// JWTClaims represents the session token payload.
type JWTClaims struct {
	UserID             string   `json:"userId"`
	RegistrationNumber string   `json:"registrationNumber"`
	Role               UserRole `json:"role"`
	jwt.RegisteredClaims
}

// ResendCodeRequest asks for a fresh one-time code.
type ResendCodeRequest struct {
	RegistrationNumber string `json:"registrationNumber" validate:"required,max=20"`
}
