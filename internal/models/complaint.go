package models

import "time"

// ComplaintStatus is the lifecycle state of a complaint.
type ComplaintStatus string

const (
	ComplaintPending  ComplaintStatus = "pending"
	ComplaintResolved ComplaintStatus = "resolved"
	ComplaintFalse    ComplaintStatus = "false"
)

// Terminal reports whether no further transition is allowed.
func (s ComplaintStatus) Terminal() bool {
	return s == ComplaintResolved || s == ComplaintFalse
}

// Complaint is the stored complaint row. StudentID is always populated;
// anonymity only affects read-time projections.
type Complaint struct {
	ID             string          `db:"id" json:"id"`
	Title          string          `db:"title" json:"title"`
	Description    string          `db:"description" json:"description"`
	Category       Category        `db:"category" json:"category"`
	Status         ComplaintStatus `db:"status" json:"status"`
	IsAnonymous    bool            `db:"is_anonymous" json:"isAnonymous"`
	StudentID      string          `db:"student_id" json:"studentId"`
	ResolvedBy     *string         `db:"resolved_by" json:"resolvedBy,omitempty"`
	ResolutionNote *string         `db:"resolution_note" json:"resolutionNote,omitempty"`
	ResolvedAt     *time.Time      `db:"resolved_at" json:"resolvedAt,omitempty"`
	CreatedAt      time.Time       `db:"created_at" json:"createdAt"`
}

// ComplaintRecord is a complaint joined with its submitter. It is never
// serialised directly; handlers project it through dto.ComplaintView.
type ComplaintRecord struct {
	Complaint
	SubmitterRegistrationNumber string `db:"submitter_registration_number"`
	SubmitterName               string `db:"submitter_name"`
}

// CloseComplaintParams describes a pending -> terminal transition.
type CloseComplaintParams struct {
	ComplaintID string
	AdminID     string
	Category    Category
	Status      ComplaintStatus
	Note        string
	ClosedAt    time.Time
}
