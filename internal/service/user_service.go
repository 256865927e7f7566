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

var errNotStudent = errors.New("only student accounts carry flags")

type userRepository interface {
	ListStudents(ctx context.Context) ([]models.User, error)
	AdjustFlags(ctx context.Context, id string, fn func(user models.User) (models.FlagState, error)) (*models.FlagTransition, error)
}

// UserService handles the central admin's account oversight.
type UserService struct {
	repo    userRepository
	audit   auditWriter
	policy  FlagPolicy
	metrics *MetricsService
	logger  *zap.Logger
}

// NewUserService creates an instance of UserService.
func NewUserService(repo userRepository, audit auditWriter, policy FlagPolicy, metrics *MetricsService, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{repo: repo, audit: audit, policy: policy, metrics: metrics, logger: logger}
}

// ListStudents returns sanitized student accounts.
func (s *UserService) ListStudents(ctx context.Context, actor models.Actor) ([]dto.UserSummary, error) {
	if _, ok := actor.(models.CentralAdminActor); !ok {
		return nil, appErrors.ErrForbidden
	}
	users, err := s.repo.ListStudents(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list users")
	}
	summaries := make([]dto.UserSummary, 0, len(users))
	for _, u := range users {
		summaries = append(summaries, dto.NewUserSummary(u))
	}
	return summaries, nil
}

// Flag adds one flag to a student, suspending at the threshold.
func (s *UserService) Flag(ctx context.Context, actor models.Actor, userID string) (*dto.FlagResult, error) {
	return s.adjust(ctx, actor, userID, 1, models.AuditActionFlagUser)
}

// Unflag removes one flag and reinstates the student.
func (s *UserService) Unflag(ctx context.Context, actor models.Actor, userID string) (*dto.FlagResult, error) {
	return s.adjust(ctx, actor, userID, -1, models.AuditActionUnflagUser)
}

func (s *UserService) adjust(ctx context.Context, actor models.Actor, userID string, delta int, action string) (*dto.FlagResult, error) {
	admin, ok := actor.(models.CentralAdminActor)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the central admin can change flags")
	}
	if _, err := uuid.Parse(userID); err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
	}

	transition, err := s.repo.AdjustFlags(ctx, userID, func(user models.User) (models.FlagState, error) {
		if user.Role != models.RoleStudent {
			return models.FlagState{}, errNotStudent
		}
		return s.policy.Apply(user.FlagState(), delta), nil
	})
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		case errors.Is(err, errNotStudent):
			return nil, appErrors.Clone(appErrors.ErrValidation, errNotStudent.Error())
		default:
			return nil, appErrors.Internal(err, "failed to update flags")
		}
	}

	if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
		ID:        uuid.NewString(),
		Action:    action,
		AdminID:   admin.ID,
		Details:   fmt.Sprintf("%s flag count %d -> %d", transition.RegistrationNumber, transition.Before.FlagCount, transition.After.FlagCount),
		CreatedAt: time.Now().UTC(),
	}); err != nil {
		s.logger.Warn("failed to record flag audit log", zap.String("action", action), zap.Error(err))
	}

	if transition.Suspended() {
		s.metrics.RecordSuspension()
		s.logger.Warn("account suspended",
			zap.String("registration_number", transition.RegistrationNumber),
			zap.Int("flag_count", transition.After.FlagCount),
			zap.String("reason", "manual flag"),
		)
	}

	return &dto.FlagResult{
		UserID:      transition.UserID,
		FlagCount:   transition.After.FlagCount,
		IsSuspended: transition.After.IsSuspended,
	}, nil
}
