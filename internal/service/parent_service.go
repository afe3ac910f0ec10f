package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/stainespoir/parent-portal-api/internal/models"
	appErrors "github.com/stainespoir/parent-portal-api/pkg/errors"
)

type parentUserRepository interface {
	ListPendingParents(ctx context.Context) ([]models.PendingParent, error)
	ApproveParent(ctx context.Context, userID string) error
	RejectParent(ctx context.Context, userID string) error
}

// ParentService handles the admin approval workflow for parent accounts.
type ParentService struct {
	repo   parentUserRepository
	logger *zap.Logger
}

// NewParentService constructs the parent service.
func NewParentService(repo parentUserRepository, logger *zap.Logger) *ParentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ParentService{repo: repo, logger: logger}
}

// ListPending returns parent accounts awaiting approval.
func (s *ParentService) ListPending(ctx context.Context) ([]models.PendingParent, error) {
	pending, err := s.repo.ListPendingParents(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list pending parents")
	}
	return pending, nil
}

// Approve validates a pending parent account. Approval cascades to the
// account's children, making them eligible for rosters and invitations.
func (s *ParentService) Approve(ctx context.Context, userID string) error {
	if err := s.repo.ApproveParent(ctx, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "pending parent not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "approval failed")
	}
	s.logger.Info("parent approved", zap.String("user_id", userID), zap.Time("at", time.Now().UTC()))
	return nil
}

// Reject removes a pending parent account and its children.
func (s *ParentService) Reject(ctx context.Context, userID string) error {
	if err := s.repo.RejectParent(ctx, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "pending parent not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "rejection failed")
	}
	s.logger.Info("parent rejected", zap.String("user_id", userID))
	return nil
}
