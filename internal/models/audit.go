package models

import "time"

// Audit actions written by administrators.
const (
	AuditActionTraceComplaint = "trace_complaint"
	AuditActionFlagUser       = "flag_user"
	AuditActionUnflagUser     = "unflag_user"
)

// AuditLog is an append-only record of an administrative action.
type AuditLog struct {
	ID          string    `db:"id" json:"id"`
	Action      string    `db:"action" json:"action"`
	AdminID     string    `db:"admin_id" json:"adminId"`
	ComplaintID *string   `db:"complaint_id" json:"complaintId,omitempty"`
	Details     string    `db:"details" json:"details"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}

// AuditLogEntry is an audit row annotated with its admin and complaint.
type AuditLogEntry struct {
	AuditLog
	AdminRegistrationNumber string  `db:"admin_registration_number" json:"adminRegistrationNumber"`
	AdminName               string  `db:"admin_name" json:"adminName"`
	ComplaintTitle          *string `db:"complaint_title" json:"complaintTitle,omitempty"`
}
