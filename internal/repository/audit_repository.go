package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/campus-complaints-api/internal/models"
)

// AuditRepository appends and reads administrative audit rows.
type AuditRepository struct {
	db *sqlx.DB
}

// NewAuditRepository constructs an audit repository.
func NewAuditRepository(db *sqlx.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// CreateAuditLog appends an audit row.
func (r *AuditRepository) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	const query = `INSERT INTO audit_logs (id, action, admin_id, complaint_id, details, created_at)
VALUES (:id, :action, :admin_id, :complaint_id, :details, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, log); err != nil {
		return fmt.Errorf("create audit log: %w", err)
	}
	return nil
}

// List returns audit rows newest first, annotated with admin and complaint.
func (r *AuditRepository) List(ctx context.Context) ([]models.AuditLogEntry, error) {
	const query = `SELECT a.id, a.action, a.admin_id, a.complaint_id, a.details, a.created_at,
u.registration_number AS admin_registration_number, u.full_name AS admin_name, c.title AS complaint_title
FROM audit_logs a
JOIN users u ON u.id = a.admin_id
LEFT JOIN complaints c ON c.id = a.complaint_id
ORDER BY a.created_at DESC`
	var entries []models.AuditLogEntry
	if err := r.db.SelectContext(ctx, &entries, query); err != nil {
		return nil, fmt.Errorf("list audit logs: %w", err)
	}
	return entries, nil
}
