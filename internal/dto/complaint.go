package dto

import (
	"time"

	"github.com/noah-isme/campus-complaints-api/internal/models"
)

// CreateComplaintRequest is submitted by students.
type CreateComplaintRequest struct {
	Title       string          `json:"title" validate:"required,max=255"`
	Description string          `json:"description" validate:"required"`
	Category    models.Category `json:"category" validate:"required,oneof=academics general hostel"`
	IsAnonymous bool            `json:"isAnonymous"`
}

// ResolveComplaintRequest closes a complaint as resolved.
type ResolveComplaintRequest struct {
	ResolutionNote string `json:"resolutionNote" validate:"required"`
}

// MarkFalseRequest closes a complaint as false.
type MarkFalseRequest struct {
	Reason string `json:"reason" validate:"required"`
}

// SubmitterInfo identifies the author of a non-anonymous complaint.
type SubmitterInfo struct {
	RegistrationNumber string `json:"registrationNumber"`
	Name               string `json:"name"`
}

// ComplaintView is the admin-facing projection of a complaint. It has no
// student id field; Submitter is nil whenever the complaint is anonymous.
type ComplaintView struct {
	ID             string                 `json:"id"`
	Title          string                 `json:"title"`
	Description    string                 `json:"description"`
	Category       models.Category        `json:"category"`
	Status         models.ComplaintStatus `json:"status"`
	IsAnonymous    bool                   `json:"isAnonymous"`
	Submitter      *SubmitterInfo         `json:"submitter"`
	ResolvedBy     *string                `json:"resolvedBy,omitempty"`
	ResolutionNote *string                `json:"resolutionNote,omitempty"`
	ResolvedAt     *time.Time             `json:"resolvedAt,omitempty"`
	CreatedAt      time.Time              `json:"createdAt"`
}

// NewComplaintView projects a record, withholding the submitter of anonymous complaints.
func NewComplaintView(rec models.ComplaintRecord) ComplaintView {
	view := ComplaintView{
		ID:             rec.ID,
		Title:          rec.Title,
		Description:    rec.Description,
		Category:       rec.Category,
		Status:         rec.Status,
		IsAnonymous:    rec.IsAnonymous,
		ResolvedBy:     rec.ResolvedBy,
		ResolutionNote: rec.ResolutionNote,
		ResolvedAt:     rec.ResolvedAt,
		CreatedAt:      rec.CreatedAt,
	}
	if !rec.IsAnonymous {
		view.Submitter = &SubmitterInfo{
			RegistrationNumber: rec.SubmitterRegistrationNumber,
			Name:               rec.SubmitterName,
		}
	}
	return view
}

// NewComplaintViews projects a slice of records.
func NewComplaintViews(records []models.ComplaintRecord) []ComplaintView {
	views := make([]ComplaintView, 0, len(records))
	for _, rec := range records {
		views = append(views, NewComplaintView(rec))
	}
	return views
}

// StudentIdentity is revealed by a trace.
type StudentIdentity struct {
	ID                 string `json:"id"`
	RegistrationNumber string `json:"registrationNumber"`
	FullName           string `json:"fullName"`
	Email              string `json:"email"`
	FlagCount          int    `json:"flagCount"`
	IsSuspended        bool   `json:"isSuspended"`
}

// TraceResult is the full complaint plus its submitter, regardless of anonymity.
type TraceResult struct {
	Complaint models.Complaint `json:"complaint"`
	Student   *StudentIdentity `json:"student"`
}
