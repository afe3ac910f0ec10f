package service

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/stainespoir/parent-portal-api/internal/models"
	appErrors "github.com/stainespoir/parent-portal-api/pkg/errors"
)

type messageRepository interface {
	Create(ctx context.Context, msg *models.Message) (*models.Message, error)
	ListForChild(ctx context.Context, childID string, limit int) ([]models.Message, error)
	MarkRead(ctx context.Context, id string, at time.Time) error
}

type messageChildRepository interface {
	FindByID(ctx context.Context, id string) (*models.Child, error)
	ListByParent(ctx context.Context, parentProfileID string) ([]models.Child, error)
}

// MessageService handles the parent/staff message thread per child.
type MessageService struct {
	repo      messageRepository
	childRepo messageChildRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewMessageService constructs the message service.
func NewMessageService(repo messageRepository, childRepo messageChildRepository, validate *validator.Validate, logger *zap.Logger) *MessageService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MessageService{repo: repo, childRepo: childRepo, validator: validate, logger: logger}
}

// SendMessageRequest is a parent's outbound message payload.
type SendMessageRequest struct {
	ChildID string `json:"child_id" validate:"required"`
	Subject string `json:"subject" validate:"required,max=200"`
	Body    string `json:"body" validate:"required"`
}

// Send records a parent message attached to one of their children.
func (s *MessageService) Send(ctx context.Context, parentProfileID string, req SendMessageRequest) (*models.Message, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid message payload")
	}
	if _, err := s.ownedChild(ctx, parentProfileID, req.ChildID); err != nil {
		return nil, err
	}
	msg := &models.Message{
		ChildID: req.ChildID,
		Sender:  models.SenderParent,
		Subject: strings.TrimSpace(req.Subject),
		Body:    strings.TrimSpace(req.Body),
	}
	created, err := s.repo.Create(ctx, msg)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "message write failed")
	}
	return created, nil
}

// ListForChild returns a child's message thread. Parents only see threads
// of their own children; admins pass an empty parentProfileID.
func (s *MessageService) ListForChild(ctx context.Context, parentProfileID, childID string, limit int) ([]models.Message, error) {
	if parentProfileID != "" {
		if _, err := s.ownedChild(ctx, parentProfileID, childID); err != nil {
			return nil, err
		}
	}
	messages, err := s.repo.ListForChild(ctx, childID, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list messages")
	}
	return messages, nil
}

// RecentForParent returns the latest messages across all of a parent's
// children, newest first, for the dashboard.
func (s *MessageService) RecentForParent(ctx context.Context, parentProfileID string, limit int) ([]models.Message, error) {
	if limit <= 0 {
		limit = 5
	}
	children, err := s.childRepo.ListByParent(ctx, parentProfileID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load children")
	}
	var all []models.Message
	for _, child := range children {
		messages, err := s.repo.ListForChild(ctx, child.ID, limit)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list messages")
		}
		all = append(all, messages...)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

// MarkRead flags one message as read.
func (s *MessageService) MarkRead(ctx context.Context, id string) error {
	if err := s.repo.MarkRead(ctx, id, time.Now().UTC()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "message not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark message read")
	}
	return nil
}

func (s *MessageService) ownedChild(ctx context.Context, parentProfileID, childID string) (*models.Child, error) {
	child, err := s.childRepo.FindByID(ctx, childID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "child not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load child")
	}
	if child.ParentProfileID != parentProfileID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "child not found")
	}
	return child, nil
}
