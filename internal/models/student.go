package models

import "time"

// DirectoryStudent is a pre-provisioned roster entry used to validate registrations.
type DirectoryStudent struct {
	ID                 string    `db:"id" json:"id"`
	RegistrationNumber string    `db:"registration_number" json:"registrationNumber"`
	Name               string    `db:"name" json:"name"`
	Email              string    `db:"email" json:"email"`
	CreatedAt          time.Time `db:"created_at" json:"createdAt"`
}
