package dto

import (
	"time"

	"github.com/noah-isme/campus-complaints-api/internal/models"
)

// UserSummary is the central admin's view of a student account.
type UserSummary struct {
	ID                 string    `json:"id"`
	RegistrationNumber string    `json:"registrationNumber"`
	FullName           string    `json:"fullName"`
	Email              string    `json:"email"`
	FlagCount          int       `json:"flagCount"`
	IsSuspended        bool      `json:"isSuspended"`
	IsVerified         bool      `json:"isVerified"`
	CreatedAt          time.Time `json:"createdAt"`
}

// NewUserSummary strips credentials from a user row.
func NewUserSummary(u models.User) UserSummary {
	return UserSummary{
		ID:                 u.ID,
		RegistrationNumber: u.RegistrationNumber,
		FullName:           u.FullName,
		Email:              u.Email,
		FlagCount:          u.FlagCount,
		IsSuspended:        u.IsSuspended,
		IsVerified:         u.IsVerified,
		CreatedAt:          u.CreatedAt,
	}
}

// FlagResult reports the outcome of a manual flag or unflag.
type FlagResult struct {
	UserID      string `json:"userId"`
	FlagCount   int    `json:"flagCount"`
	IsSuspended bool   `json:"isSuspended"`
}
