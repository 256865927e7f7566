package models

import "time"

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleStudent      UserRole = "student"
	RoleSchoolAdmin  UserRole = "school_admin"
	RoleCentralAdmin UserRole = "central_admin"
)

// Category partitions complaints and scopes school admins.
type Category string

const (
	CategoryAcademics Category = "academics"
	CategoryGeneral   Category = "general"
	CategoryHostel    Category = "hostel"
)

// Categories lists every routable complaint category.
var Categories = []Category{CategoryAcademics, CategoryGeneral, CategoryHostel}

// Valid reports whether c is one of the fixed categories.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// User represents an account stored in the users table.
type User struct {
	ID                 string     `db:"id" json:"id"`
	RegistrationNumber string     `db:"registration_number" json:"registrationNumber"`
	FullName           string     `db:"full_name" json:"fullName"`
	Email              string     `db:"email" json:"email"`
	PasswordHash       *string    `db:"password_hash" json:"-"`
	Role               UserRole   `db:"role" json:"role"`
	Category           *Category  `db:"category" json:"category,omitempty"`
	FlagCount          int        `db:"flag_count" json:"flagCount"`
	IsSuspended        bool       `db:"is_suspended" json:"isSuspended"`
	IsVerified         bool       `db:"is_verified" json:"isVerified"`
	OTPCode            *string    `db:"otp_code" json:"-"`
	OTPExpiresAt       *time.Time `db:"otp_expires_at" json:"-"`
	CreatedAt          time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt          time.Time  `db:"updated_at" json:"updatedAt"`
}

// CanAuthenticate reports whether the account finished activation.
func (u *User) CanAuthenticate() bool {
	return u.IsVerified && u.PasswordHash != nil && *u.PasswordHash != ""
}

// FlagState is the mutable part of a user governed by the flag policy.
type FlagState struct {
	FlagCount   int
	IsSuspended bool
}

// FlagState returns the current flag counters of the user.
func (u *User) FlagState() FlagState {
	return FlagState{FlagCount: u.FlagCount, IsSuspended: u.IsSuspended}
}

// FlagTransition captures a flag update applied inside a unit of work.
type FlagTransition struct {
	UserID             string
	RegistrationNumber string
	Before             FlagState
	After              FlagState
}

// Suspended reports whether the transition suspended the account.
func (t FlagTransition) Suspended() bool {
	return !t.Before.IsSuspended && t.After.IsSuspended
}
