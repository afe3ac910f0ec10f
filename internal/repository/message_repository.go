package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/stainespoir/parent-portal-api/internal/models"
)

// MessageRepository handles persistence for child-scoped messages.
type MessageRepository struct {
	db *sqlx.DB
}

// NewMessageRepository constructs the repository.
func NewMessageRepository(db *sqlx.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// Create inserts a message outside any transaction.
func (r *MessageRepository) Create(ctx context.Context, msg *models.Message) (*models.Message, error) {
	return createMessage(ctx, r.db, msg)
}

// CreateTx inserts a message inside the caller's transaction so invitation
// batches commit registrations and notifications together.
func (r *MessageRepository) CreateTx(ctx context.Context, tx *sqlx.Tx, msg *models.Message) (*models.Message, error) {
	return createMessage(ctx, tx, msg)
}

func createMessage(ctx context.Context, q sqlx.ExtContext, msg *models.Message) (*models.Message, error) {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	query := `INSERT INTO message (id, child_id, sender, subject, body, created_at)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, child_id, sender, subject, body, created_at, read_at`
	var created models.Message
	if err := sqlx.GetContext(ctx, q, &created, query, msg.ID, msg.ChildID, msg.Sender, msg.Subject, msg.Body, msg.CreatedAt); err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}
	return &created, nil
}

// ListForChild returns the latest messages for a child, newest first.
func (r *MessageRepository) ListForChild(ctx context.Context, childID string, limit int) ([]models.Message, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var rows []models.Message
	query := `SELECT id, child_id, sender, subject, body, created_at, read_at
FROM message WHERE child_id = $1 ORDER BY created_at DESC LIMIT $2`
	if err := r.db.SelectContext(ctx, &rows, query, childID, limit); err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return rows, nil
}

// MarkRead stamps a message as read.
func (r *MessageRepository) MarkRead(ctx context.Context, id string, at time.Time) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE message SET read_at = $2 WHERE id = $1 AND read_at IS NULL`, id, at); err != nil {
		return fmt.Errorf("mark message read: %w", err)
	}
	return nil
}
