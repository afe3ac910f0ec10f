package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/stainespoir/parent-portal-api/internal/models"
	appErrors "github.com/stainespoir/parent-portal-api/pkg/errors"
)

type accountChildRepository interface {
	FindByID(ctx context.Context, id string) (*models.Child, error)
	ListByParent(ctx context.Context, parentProfileID string) ([]models.Child, error)
}

type accountRegistrationRepository interface {
	ListForChild(ctx context.Context, childID string) ([]models.RegistrationDetail, error)
}

// RegistrationView decorates a registration with the outing's current
// signed count for the parent outing list.
type RegistrationView struct {
	models.RegistrationDetail
	SignedCount int  `json:"signed_count"`
	Full        bool `json:"full"`
}

// ChildDashboard aggregates one child's presence and outings.
type ChildDashboard struct {
	Child           models.Child         `json:"child"`
	Presence        models.PresenceStats `json:"presence"`
	PresencePercent int                  `json:"presence_percent"`
	Upcoming        []RegistrationView   `json:"upcoming"`
	Past            []RegistrationView   `json:"past"`
}

// Dashboard is the parent landing page payload.
type Dashboard struct {
	AssociationName   string           `json:"association_name"`
	Children          []ChildDashboard `json:"children"`
	PendingSignatures int              `json:"pending_signatures"`
	RecentMessages    []models.Message `json:"recent_messages"`
}

// AccountService assembles the parent-facing account views on top of the
// attendance, outing and message services.
type AccountService struct {
	childRepo       accountChildRepository
	regRepo         accountRegistrationRepository
	attendance      *AttendanceService
	outings         *OutingService
	messages        *MessageService
	associationName string
	logger          *zap.Logger
}

// NewAccountService constructs the account service.
func NewAccountService(childRepo accountChildRepository, regRepo accountRegistrationRepository, attendance *AttendanceService, outings *OutingService, messages *MessageService, associationName string, logger *zap.Logger) *AccountService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AccountService{
		childRepo:       childRepo,
		regRepo:         regRepo,
		attendance:      attendance,
		outings:         outings,
		messages:        messages,
		associationName: associationName,
		logger:          logger,
	}
}

// Dashboard builds the landing page for one parent.
func (s *AccountService) Dashboard(ctx context.Context, parentProfileID string, now time.Time) (*Dashboard, error) {
	children, err := s.childRepo.ListByParent(ctx, parentProfileID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load children")
	}

	dashboard := &Dashboard{
		AssociationName: s.associationName,
		Children:        make([]ChildDashboard, 0, len(children)),
	}
	for _, child := range children {
		stats, err := s.attendance.PresenceStats(ctx, child.ID, now, 30)
		if err != nil {
			return nil, err
		}
		upcoming, past, err := s.registrationsForChild(ctx, child.ID, now)
		if err != nil {
			return nil, err
		}
		for _, view := range upcoming {
			if view.Status == models.RegistrationInvited {
				dashboard.PendingSignatures++
			}
		}
		dashboard.Children = append(dashboard.Children, ChildDashboard{
			Child:           child,
			Presence:        stats,
			PresencePercent: stats.PresencePercent(),
			Upcoming:        upcoming,
			Past:            past,
		})
	}

	recent, err := s.messages.RecentForParent(ctx, parentProfileID, 5)
	if err != nil {
		return nil, err
	}
	dashboard.RecentMessages = recent
	return dashboard, nil
}

// Outings returns a parent's registrations across all children, split into
// upcoming and past.
func (s *AccountService) Outings(ctx context.Context, parentProfileID string, now time.Time) (upcoming, past []RegistrationView, err error) {
	children, err := s.childRepo.ListByParent(ctx, parentProfileID)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load children")
	}
	for _, child := range children {
		up, pa, err := s.registrationsForChild(ctx, child.ID, now)
		if err != nil {
			return nil, nil, err
		}
		upcoming = append(upcoming, up...)
		past = append(past, pa...)
	}
	return upcoming, past, nil
}

// PresenceMonth renders a child's attendance calendar, enforcing parent
// ownership.
func (s *AccountService) PresenceMonth(ctx context.Context, parentProfileID, childID, monthKey string, now time.Time) (*models.MonthView, error) {
	child, err := s.childRepo.FindByID(ctx, childID)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "child not found")
	}
	if child.ParentProfileID != parentProfileID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "child not found")
	}
	return s.attendance.MonthForChild(ctx, childID, monthKey, now)
}

func (s *AccountService) registrationsForChild(ctx context.Context, childID string, now time.Time) (upcoming, past []RegistrationView, err error) {
	details, err := s.regRepo.ListForChild(ctx, childID)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list registrations")
	}
	if len(details) == 0 {
		return nil, nil, nil
	}
	ids := make([]string, 0, len(details))
	seen := make(map[string]struct{}, len(details))
	for _, detail := range details {
		if _, ok := seen[detail.OutingID]; !ok {
			seen[detail.OutingID] = struct{}{}
			ids = append(ids, detail.OutingID)
		}
	}
	counts, err := s.outings.SignedCounts(ctx, ids)
	if err != nil {
		return nil, nil, err
	}
	for _, detail := range details {
		view := RegistrationView{
			RegistrationDetail: detail,
			SignedCount:        counts[detail.OutingID],
		}
		if detail.OutingCapacity != nil && view.SignedCount >= *detail.OutingCapacity {
			view.Full = true
		}
		if detail.OutingStartsAt.After(now) {
			upcoming = append(upcoming, view)
		} else {
			past = append(past, view)
		}
	}
	return upcoming, past, nil
}
