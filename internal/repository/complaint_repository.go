package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/campus-complaints-api/internal/models"
)

var (
	// ErrComplaintClosed is returned when a complaint already left the pending state.
	ErrComplaintClosed = errors.New("complaint is not pending")
	// ErrCategoryMismatch is returned when the closing admin does not own the category.
	ErrCategoryMismatch = errors.New("complaint category does not match")
)

const complaintColumns = `id, title, description, category, status, is_anonymous, student_id, resolved_by, resolution_note, resolved_at, created_at`

const complaintRecordSelect = `SELECT c.id, c.title, c.description, c.category, c.status, c.is_anonymous, c.student_id, c.resolved_by, c.resolution_note, c.resolved_at, c.created_at,
u.registration_number AS submitter_registration_number, u.full_name AS submitter_name
FROM complaints c JOIN users u ON u.id = c.student_id`

// ComplaintRepository persists complaints and their lifecycle transitions.
type ComplaintRepository struct {
	db *sqlx.DB
}

// NewComplaintRepository constructs a complaint repository.
func NewComplaintRepository(db *sqlx.DB) *ComplaintRepository {
	return &ComplaintRepository{db: db}
}

// Create inserts a pending complaint.
func (r *ComplaintRepository) Create(ctx context.Context, complaint *models.Complaint) error {
	const query = `INSERT INTO complaints (id, title, description, category, status, is_anonymous, student_id, created_at)
VALUES (:id, :title, :description, :category, :status, :is_anonymous, :student_id, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, complaint); err != nil {
		return fmt.Errorf("create complaint: %w", err)
	}
	return nil
}

// FindByID returns the stored complaint.
func (r *ComplaintRepository) FindByID(ctx context.Context, id string) (*models.Complaint, error) {
	query := `SELECT ` + complaintColumns + ` FROM complaints WHERE id = $1 LIMIT 1`
	var complaint models.Complaint
	if err := r.db.GetContext(ctx, &complaint, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find complaint: %w", err)
	}
	return &complaint, nil
}

// ListByStudent returns a student's own complaints, newest first.
func (r *ComplaintRepository) ListByStudent(ctx context.Context, studentID string) ([]models.Complaint, error) {
	query := `SELECT ` + complaintColumns + ` FROM complaints WHERE student_id = $1 ORDER BY created_at DESC`
	var complaints []models.Complaint
	if err := r.db.SelectContext(ctx, &complaints, query, studentID); err != nil {
		return nil, fmt.Errorf("list student complaints: %w", err)
	}
	return complaints, nil
}

// ListByCategory returns complaints of one category joined with their submitter.
func (r *ComplaintRepository) ListByCategory(ctx context.Context, category models.Category) ([]models.ComplaintRecord, error) {
	query := complaintRecordSelect + ` WHERE c.category = $1 ORDER BY c.created_at DESC`
	var records []models.ComplaintRecord
	if err := r.db.SelectContext(ctx, &records, query, category); err != nil {
		return nil, fmt.Errorf("list complaints by category: %w", err)
	}
	return records, nil
}

// ListAll returns every complaint joined with its submitter.
func (r *ComplaintRepository) ListAll(ctx context.Context) ([]models.ComplaintRecord, error) {
	query := complaintRecordSelect + ` ORDER BY c.created_at DESC`
	var records []models.ComplaintRecord
	if err := r.db.SelectContext(ctx, &records, query); err != nil {
		return nil, fmt.Errorf("list complaints: %w", err)
	}
	return records, nil
}

// Close moves a pending complaint to a terminal status in one transaction.
// When penalty is non-nil the submitter's flag state is locked and replaced by
// penalty(current) within the same transaction.
func (r *ComplaintRepository) Close(ctx context.Context, params models.CloseComplaintParams, penalty func(models.FlagState) models.FlagState) (record *models.ComplaintRecord, transition *models.FlagTransition, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("begin close complaint transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var current models.ComplaintRecord
	lockQuery := complaintRecordSelect + ` WHERE c.id = $1 FOR UPDATE OF c`
	if err = tx.GetContext(ctx, &current, lockQuery, params.ComplaintID); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil, err
		}
		return nil, nil, fmt.Errorf("lock complaint: %w", err)
	}

	if params.Category != "" && current.Category != params.Category {
		return nil, nil, ErrCategoryMismatch
	}
	if current.Status.Terminal() {
		return nil, nil, ErrComplaintClosed
	}

	const updateQuery = `UPDATE complaints SET status = $2, resolution_note = $3, resolved_by = $4, resolved_at = $5 WHERE id = $1 AND status = 'pending'`
	if _, err = tx.ExecContext(ctx, updateQuery, params.ComplaintID, params.Status, params.Note, params.AdminID, params.ClosedAt); err != nil {
		return nil, nil, fmt.Errorf("close complaint: %w", err)
	}

	if penalty != nil {
		var before models.FlagState
		const flagQuery = `SELECT flag_count, is_suspended FROM users WHERE id = $1 FOR UPDATE`
		row := tx.QueryRowxContext(ctx, flagQuery, current.StudentID)
		if err = row.Scan(&before.FlagCount, &before.IsSuspended); err != nil {
			return nil, nil, fmt.Errorf("lock submitter flags: %w", err)
		}
		after := penalty(before)
		if err = updateFlags(ctx, tx, current.StudentID, after, params.ClosedAt); err != nil {
			return nil, nil, err
		}
		transition = &models.FlagTransition{
			UserID:             current.StudentID,
			RegistrationNumber: current.SubmitterRegistrationNumber,
			Before:             before,
			After:              after,
		}
	}

	if err = tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("commit close complaint: %w", err)
	}

	closedBy := params.AdminID
	note := params.Note
	closedAt := params.ClosedAt
	current.Status = params.Status
	current.ResolvedBy = &closedBy
	current.ResolutionNote = &note
	current.ResolvedAt = &closedAt
	return &current, transition, nil
}
