package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/stainespoir/parent-portal-api/internal/models"
	appErrors "github.com/stainespoir/parent-portal-api/pkg/errors"
)

type mockAccountRegRepo struct {
	byChild map[string][]models.RegistrationDetail
}

func (m *mockAccountRegRepo) ListForChild(ctx context.Context, childID string) ([]models.RegistrationDetail, error) {
	return m.byChild[childID], nil
}

func accountServiceFixture(t *testing.T, children map[string]*models.Child, regs map[string][]models.RegistrationDetail, counts map[string]int) *AccountService {
	t.Helper()
	calendar := NewCalendarService(parisLocation(t))
	childRepo := &mockMessageChildRepo{children: children}
	attendance := NewAttendanceService(
		&mockAttendanceRepo{stats: models.PresenceStats{Present: 3, Absent: 1, Total: 4}},
		&mockRosterChildRepo{}, calendar, zap.NewNop())
	outings := newOutingService(&mockOutingRepo{}, &mockSignedCountRepo{counts: counts}, nil)
	messages := newMessageService(&mockMessageRepo{}, childRepo)
	return NewAccountService(childRepo, &mockAccountRegRepo{byChild: regs}, attendance, outings, messages,
		"Association Les Petits Marcheurs", zap.NewNop())
}

func registrationFor(id, childID, outingID string, status models.RegistrationStatus, startsAt time.Time, capacity *int) models.RegistrationDetail {
	return models.RegistrationDetail{
		OutingRegistration: models.OutingRegistration{
			ID:       id,
			ChildID:  childID,
			OutingID: outingID,
			Status:   status,
		},
		ParentProfileID: "p1",
		OutingTitle:     "Sortie " + outingID,
		OutingStartsAt:  startsAt,
		OutingCapacity:  capacity,
	}
}

func TestAccountServiceDashboard(t *testing.T) {
	now := time.Date(2026, time.February, 1, 10, 0, 0, 0, time.UTC)
	capacity := 10
	children := map[string]*models.Child{
		"c1": {ID: "c1", ParentProfileID: "p1", FirstName: "Léa", Approved: true},
	}
	regs := map[string][]models.RegistrationDetail{
		"c1": {
			registrationFor("r1", "c1", "o1", models.RegistrationInvited, now.AddDate(0, 1, 0), &capacity),
			registrationFor("r2", "c1", "o2", models.RegistrationAttended, now.AddDate(0, -1, 0), nil),
		},
	}
	service := accountServiceFixture(t, children, regs, map[string]int{"o1": 10, "o2": 3})

	dashboard, err := service.Dashboard(context.Background(), "p1", now)
	require.NoError(t, err)
	assert.Equal(t, "Association Les Petits Marcheurs", dashboard.AssociationName)
	require.Len(t, dashboard.Children, 1)

	child := dashboard.Children[0]
	assert.Equal(t, 75, child.PresencePercent)
	require.Len(t, child.Upcoming, 1)
	require.Len(t, child.Past, 1)
	// One invited upcoming registration still needs a signature.
	assert.Equal(t, 1, dashboard.PendingSignatures)
	// The outing reached its capacity.
	assert.True(t, child.Upcoming[0].Full)
	assert.Equal(t, 10, child.Upcoming[0].SignedCount)
	assert.False(t, child.Past[0].Full)
}

func TestAccountServiceOutingsSplit(t *testing.T) {
	now := time.Date(2026, time.February, 1, 10, 0, 0, 0, time.UTC)
	children := map[string]*models.Child{
		"c1": {ID: "c1", ParentProfileID: "p1"},
		"c2": {ID: "c2", ParentProfileID: "p1"},
	}
	regs := map[string][]models.RegistrationDetail{
		"c1": {registrationFor("r1", "c1", "o1", models.RegistrationConfirmed, now.AddDate(0, 0, 7), nil)},
		"c2": {registrationFor("r2", "c2", "o2", models.RegistrationDeclined, now.AddDate(0, 0, -7), nil)},
	}
	service := accountServiceFixture(t, children, regs, nil)

	upcoming, past, err := service.Outings(context.Background(), "p1", now)
	require.NoError(t, err)
	require.Len(t, upcoming, 1)
	require.Len(t, past, 1)
	assert.Equal(t, "r1", upcoming[0].ID)
	assert.Equal(t, "r2", past[0].ID)
}

func TestAccountServicePresenceMonthOwnership(t *testing.T) {
	now := time.Date(2025, time.November, 20, 10, 0, 0, 0, time.UTC)
	children := map[string]*models.Child{
		"c1": {ID: "c1", ParentProfileID: "p1"},
	}
	service := accountServiceFixture(t, children, nil, nil)

	view, err := service.PresenceMonth(context.Background(), "p1", "c1", "2025-11", now)
	require.NoError(t, err)
	assert.Equal(t, "2025-11", view.MonthKey)

	_, err = service.PresenceMonth(context.Background(), "p2", "c1", "2025-11", now)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	_, err = service.PresenceMonth(context.Background(), "p1", "missing", "2025-11", now)
	require.Error(t, err)
}
