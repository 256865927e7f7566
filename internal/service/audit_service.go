package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/campus-complaints-api/internal/models"
	appErrors "github.com/noah-isme/campus-complaints-api/pkg/errors"
	"github.com/noah-isme/campus-complaints-api/pkg/export"
)

type auditLister interface {
	List(ctx context.Context) ([]models.AuditLogEntry, error)
}

var auditExportHeaders = []string{"Created At", "Action", "Admin", "Complaint", "Details"}

// ExportFile is a rendered download.
type ExportFile struct {
	Filename    string
	ContentType string
	Body        []byte
}

// AuditService lists and exports the administrative audit trail.
type AuditService struct {
	repo   auditLister
	logger *zap.Logger
}

// NewAuditService constructs an AuditService.
func NewAuditService(repo auditLister, logger *zap.Logger) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditService{repo: repo, logger: logger}
}

// List returns audit rows newest first.
func (s *AuditService) List(ctx context.Context, actor models.Actor) ([]models.AuditLogEntry, error) {
	if _, ok := actor.(models.CentralAdminActor); !ok {
		return nil, appErrors.ErrForbidden
	}
	entries, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list audit logs")
	}
	if entries == nil {
		entries = []models.AuditLogEntry{}
	}
	return entries, nil
}

// Export renders the audit trail as CSV or PDF.
func (s *AuditService) Export(ctx context.Context, actor models.Actor, format string) (*ExportFile, error) {
	if _, ok := actor.(models.CentralAdminActor); !ok {
		return nil, appErrors.ErrForbidden
	}
	renderer, err := export.ForFormat(format)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}

	entries, err := s.List(ctx, actor)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	dataset := export.Dataset{
		Title:   fmt.Sprintf("Audit Logs (%s)", now.Format("2006-01-02 15:04 UTC")),
		Headers: auditExportHeaders,
		Rows:    make([]map[string]string, 0, len(entries)),
	}
	for _, entry := range entries {
		complaint := ""
		if entry.ComplaintTitle != nil {
			complaint = *entry.ComplaintTitle
		}
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Created At": entry.CreatedAt.UTC().Format(time.RFC3339),
			"Action":     entry.Action,
			"Admin":      entry.AdminRegistrationNumber,
			"Complaint":  complaint,
			"Details":    entry.Details,
		})
	}

	body, err := renderer.Render(dataset)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to render audit export")
	}

	s.logger.Info("audit logs exported", zap.String("admin_id", actor.ActorID()), zap.Int("rows", len(entries)))
	return &ExportFile{
		Filename:    fmt.Sprintf("audit-logs-%s.%s", now.Format("20060102-150405"), renderer.Extension()),
		ContentType: renderer.ContentType(),
		Body:        body,
	}, nil
}
