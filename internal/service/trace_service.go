package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-complaints-api/internal/dto"
	"github.com/noah-isme/campus-complaints-api/internal/models"
	appErrors "github.com/noah-isme/campus-complaints-api/pkg/errors"
)

type traceComplaintRepository interface {
	FindByID(ctx context.Context, id string) (*models.Complaint, error)
}

type traceUserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

type auditWriter interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// TraceService reveals complaint submitters to administrators. Every reveal
// is preceded by an audit row.
type TraceService struct {
	complaints traceComplaintRepository
	users      traceUserRepository
	audit      auditWriter
	metrics    *MetricsService
	logger     *zap.Logger
}

// NewTraceService constructs a TraceService.
func NewTraceService(complaints traceComplaintRepository, users traceUserRepository, audit auditWriter, metrics *MetricsService, logger *zap.Logger) *TraceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TraceService{complaints: complaints, users: users, audit: audit, metrics: metrics, logger: logger}
}

// Trace returns the complaint together with its submitter's identity.
func (s *TraceService) Trace(ctx context.Context, actor models.Actor, id string) (*dto.TraceResult, error) {
	switch actor.(type) {
	case models.SchoolAdminActor, models.CentralAdminActor:
	default:
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only administrators can trace complaints")
	}

	if _, err := uuid.Parse(id); err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "complaint not found")
	}
	complaint, err := s.complaints.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "complaint not found")
		}
		return nil, appErrors.Internal(err, "failed to load complaint")
	}

	complaintID := complaint.ID
	if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
		ID:          uuid.NewString(),
		Action:      models.AuditActionTraceComplaint,
		AdminID:     actor.ActorID(),
		ComplaintID: &complaintID,
		Details:     fmt.Sprintf("Admin traced complaint #%s", complaint.ID),
		CreatedAt:   time.Now().UTC(),
	}); err != nil {
		return nil, appErrors.Internal(err, "failed to record trace")
	}

	s.metrics.RecordTrace()
	s.logger.Info("complaint traced",
		zap.String("admin_id", actor.ActorID()),
		zap.String("complaint_id", complaint.ID),
		zap.Bool("anonymous", complaint.IsAnonymous),
	)

	result := &dto.TraceResult{Complaint: *complaint}
	student, err := s.users.FindByID(ctx, complaint.StudentID)
	switch {
	case err == nil:
		result.Student = &dto.StudentIdentity{
			ID:                 student.ID,
			RegistrationNumber: student.RegistrationNumber,
			FullName:           student.FullName,
			Email:              student.Email,
			FlagCount:          student.FlagCount,
			IsSuspended:        student.IsSuspended,
		}
	case errors.Is(err, sql.ErrNoRows):
		s.logger.Warn("traced complaint has no submitter", zap.String("complaint_id", complaint.ID))
	default:
		return nil, appErrors.Internal(err, "failed to load submitter")
	}
	return result, nil
}
