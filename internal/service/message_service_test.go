package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/stainespoir/parent-portal-api/internal/models"
	appErrors "github.com/stainespoir/parent-portal-api/pkg/errors"
)

type mockMessageRepo struct {
	byChild map[string][]models.Message
	created []models.Message
	read    []string
	readErr error
}

func (m *mockMessageRepo) Create(ctx context.Context, msg *models.Message) (*models.Message, error) {
	cp := *msg
	cp.ID = "m-created"
	m.created = append(m.created, cp)
	return &cp, nil
}

func (m *mockMessageRepo) ListForChild(ctx context.Context, childID string, limit int) ([]models.Message, error) {
	return m.byChild[childID], nil
}

func (m *mockMessageRepo) MarkRead(ctx context.Context, id string, at time.Time) error {
	if m.readErr != nil {
		return m.readErr
	}
	m.read = append(m.read, id)
	return nil
}

type mockMessageChildRepo struct {
	children map[string]*models.Child
}

func (m *mockMessageChildRepo) FindByID(ctx context.Context, id string) (*models.Child, error) {
	if child, ok := m.children[id]; ok {
		cp := *child
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockMessageChildRepo) ListByParent(ctx context.Context, parentProfileID string) ([]models.Child, error) {
	var out []models.Child
	for _, child := range m.children {
		if child.ParentProfileID == parentProfileID {
			out = append(out, *child)
		}
	}
	return out, nil
}

func newMessageService(repo *mockMessageRepo, childRepo *mockMessageChildRepo) *MessageService {
	return NewMessageService(repo, childRepo, validator.New(), zap.NewNop())
}

func TestMessageServiceSend(t *testing.T) {
	repo := &mockMessageRepo{}
	childRepo := &mockMessageChildRepo{
		children: map[string]*models.Child{
			"c1": {ID: "c1", ParentProfileID: "p1", FirstName: "Léa"},
		},
	}
	service := newMessageService(repo, childRepo)

	created, err := service.Send(context.Background(), "p1", SendMessageRequest{
		ChildID: "c1",
		Subject: "  Question sortie  ",
		Body:    " Bonjour, ma fille peut-elle venir ? ",
	})
	require.NoError(t, err)
	assert.Equal(t, models.SenderParent, created.Sender)
	assert.Equal(t, "Question sortie", created.Subject)
	assert.Equal(t, "Bonjour, ma fille peut-elle venir ?", created.Body)
}

func TestMessageServiceSendForeignChild(t *testing.T) {
	childRepo := &mockMessageChildRepo{
		children: map[string]*models.Child{
			"c1": {ID: "c1", ParentProfileID: "someone-else"},
		},
	}
	service := newMessageService(&mockMessageRepo{}, childRepo)

	_, err := service.Send(context.Background(), "p1", SendMessageRequest{
		ChildID: "c1",
		Subject: "Question",
		Body:    "Texte",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestMessageServiceListForChildOwnership(t *testing.T) {
	repo := &mockMessageRepo{
		byChild: map[string][]models.Message{
			"c1": {{ID: "m1", ChildID: "c1"}},
		},
	}
	childRepo := &mockMessageChildRepo{
		children: map[string]*models.Child{
			"c1": {ID: "c1", ParentProfileID: "p1"},
		},
	}
	service := newMessageService(repo, childRepo)

	messages, err := service.ListForChild(context.Background(), "p1", "c1", 20)
	require.NoError(t, err)
	assert.Len(t, messages, 1)

	_, err = service.ListForChild(context.Background(), "p2", "c1", 20)
	require.Error(t, err)

	// Admins pass no parent profile and skip the ownership check.
	messages, err = service.ListForChild(context.Background(), "", "c1", 20)
	require.NoError(t, err)
	assert.Len(t, messages, 1)
}

func TestMessageServiceRecentForParent(t *testing.T) {
	base := time.Date(2025, time.November, 1, 10, 0, 0, 0, time.UTC)
	repo := &mockMessageRepo{
		byChild: map[string][]models.Message{
			"c1": {
				{ID: "m1", ChildID: "c1", CreatedAt: base},
				{ID: "m3", ChildID: "c1", CreatedAt: base.Add(2 * time.Hour)},
			},
			"c2": {
				{ID: "m2", ChildID: "c2", CreatedAt: base.Add(time.Hour)},
			},
		},
	}
	childRepo := &mockMessageChildRepo{
		children: map[string]*models.Child{
			"c1": {ID: "c1", ParentProfileID: "p1"},
			"c2": {ID: "c2", ParentProfileID: "p1"},
		},
	}
	service := newMessageService(repo, childRepo)

	messages, err := service.RecentForParent(context.Background(), "p1", 2)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "m3", messages[0].ID)
	assert.Equal(t, "m2", messages[1].ID)
}

func TestMessageServiceMarkRead(t *testing.T) {
	repo := &mockMessageRepo{}
	service := newMessageService(repo, &mockMessageChildRepo{})

	require.NoError(t, service.MarkRead(context.Background(), "m1"))
	assert.Equal(t, []string{"m1"}, repo.read)

	repo.readErr = sql.ErrNoRows
	err := service.MarkRead(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
