package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-complaints-api/internal/dto"
	"github.com/noah-isme/campus-complaints-api/internal/models"
	"github.com/noah-isme/campus-complaints-api/internal/repository"
	appErrors "github.com/noah-isme/campus-complaints-api/pkg/errors"
)

type complaintRepository interface {
	Create(ctx context.Context, complaint *models.Complaint) error
	ListByStudent(ctx context.Context, studentID string) ([]models.Complaint, error)
	ListByCategory(ctx context.Context, category models.Category) ([]models.ComplaintRecord, error)
	ListAll(ctx context.Context) ([]models.ComplaintRecord, error)
	Close(ctx context.Context, params models.CloseComplaintParams, penalty func(models.FlagState) models.FlagState) (*models.ComplaintRecord, *models.FlagTransition, error)
}

// ComplaintService drives complaint creation, scoped listing and closing.
type ComplaintService struct {
	repo      complaintRepository
	policy    FlagPolicy
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewComplaintService constructs a ComplaintService.
func NewComplaintService(repo complaintRepository, policy FlagPolicy, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *ComplaintService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &ComplaintService{repo: repo, policy: policy, metrics: metrics, validator: validate, logger: logger}
}

// Create files a pending complaint owned by the student.
func (s *ComplaintService) Create(ctx context.Context, actor models.Actor, req dto.CreateComplaintRequest) (*models.Complaint, error) {
	student, ok := actor.(models.StudentActor)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only students can file complaints")
	}

	req.Title = strings.TrimSpace(req.Title)
	req.Description = strings.TrimSpace(req.Description)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid complaint payload")
	}

	complaint := &models.Complaint{
		ID:          uuid.NewString(),
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Status:      models.ComplaintPending,
		IsAnonymous: req.IsAnonymous,
		StudentID:   student.ID,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, complaint); err != nil {
		return nil, appErrors.Internal(err, "failed to create complaint")
	}
	return complaint, nil
}

// ListOwn returns the student's complaints, newest first.
func (s *ComplaintService) ListOwn(ctx context.Context, actor models.Actor) ([]models.Complaint, error) {
	student, ok := actor.(models.StudentActor)
	if !ok {
		return nil, appErrors.ErrForbidden
	}
	complaints, err := s.repo.ListByStudent(ctx, student.ID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list complaints")
	}
	if complaints == nil {
		complaints = []models.Complaint{}
	}
	return complaints, nil
}

// ListByCategory returns the admin's category with anonymous submitters withheld.
func (s *ComplaintService) ListByCategory(ctx context.Context, actor models.Actor) ([]dto.ComplaintView, error) {
	admin, ok := actor.(models.SchoolAdminActor)
	if !ok {
		return nil, appErrors.ErrForbidden
	}
	records, err := s.repo.ListByCategory(ctx, admin.Category)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list complaints")
	}
	return dto.NewComplaintViews(records), nil
}

// ListAll returns every complaint with anonymous submitters withheld.
func (s *ComplaintService) ListAll(ctx context.Context, actor models.Actor) ([]dto.ComplaintView, error) {
	if _, ok := actor.(models.CentralAdminActor); !ok {
		return nil, appErrors.ErrForbidden
	}
	records, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list complaints")
	}
	return dto.NewComplaintViews(records), nil
}

// Resolve closes a complaint of the admin's category as resolved.
func (s *ComplaintService) Resolve(ctx context.Context, actor models.Actor, id string, req dto.ResolveComplaintRequest) (*dto.ComplaintView, error) {
	req.ResolutionNote = strings.TrimSpace(req.ResolutionNote)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "resolution note is required")
	}
	return s.close(ctx, actor, id, models.ComplaintResolved, req.ResolutionNote, nil)
}

// MarkFalse closes a complaint as false and flags its submitter.
func (s *ComplaintService) MarkFalse(ctx context.Context, actor models.Actor, id string, req dto.MarkFalseRequest) (*dto.ComplaintView, error) {
	req.Reason = strings.TrimSpace(req.Reason)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "reason is required")
	}
	return s.close(ctx, actor, id, models.ComplaintFalse, req.Reason, s.policy.Penalty)
}

func (s *ComplaintService) close(ctx context.Context, actor models.Actor, id string, status models.ComplaintStatus, note string, penalty func(models.FlagState) models.FlagState) (*dto.ComplaintView, error) {
	admin, ok := actor.(models.SchoolAdminActor)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only category admins can close complaints")
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "complaint not found")
	}

	record, transition, err := s.repo.Close(ctx, models.CloseComplaintParams{
		ComplaintID: id,
		AdminID:     admin.ID,
		Category:    admin.Category,
		Status:      status,
		Note:        note,
		ClosedAt:    time.Now().UTC(),
	}, penalty)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, appErrors.Clone(appErrors.ErrNotFound, "complaint not found")
		case errors.Is(err, repository.ErrCategoryMismatch):
			return nil, appErrors.Clone(appErrors.ErrForbidden, "complaint belongs to another category")
		case errors.Is(err, repository.ErrComplaintClosed):
			return nil, appErrors.ErrAlreadyResolved
		default:
			return nil, appErrors.Internal(err, "failed to close complaint")
		}
	}

	s.metrics.RecordTransition(status)
	s.logger.Info("complaint closed",
		zap.String("complaint_id", id),
		zap.String("admin_id", admin.ID),
		zap.String("status", string(status)),
	)
	if transition != nil {
		s.logger.Info("submitter flagged",
			zap.String("user_id", transition.UserID),
			zap.Int("flag_count", transition.After.FlagCount),
		)
		if transition.Suspended() {
			s.metrics.RecordSuspension()
			s.logger.Warn("account suspended",
				zap.String("registration_number", transition.RegistrationNumber),
				zap.Int("flag_count", transition.After.FlagCount),
				zap.String("reason", "false complaint"),
			)
		}
	}

	view := dto.NewComplaintView(*record)
	return &view, nil
}
