package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/stainespoir/parent-portal-api/internal/models"
)

const outingColumns = `id, title, starts_at, location, description, image_url, capacity, created_at, updated_at`

// OutingRepository handles persistence for outings.
type OutingRepository struct {
	db *sqlx.DB
}

// NewOutingRepository constructs the repository.
func NewOutingRepository(db *sqlx.DB) *OutingRepository {
	return &OutingRepository{db: db}
}

// FindByID loads one outing.
func (r *OutingRepository) FindByID(ctx context.Context, id string) (*models.Outing, error) {
	var outing models.Outing
	query := fmt.Sprintf(`SELECT %s FROM outing WHERE id = $1`, outingColumns)
	if err := r.db.GetContext(ctx, &outing, query, id); err != nil {
		return nil, err
	}
	return &outing, nil
}

// List returns one page of outings, most recent start first.
func (r *OutingRepository) List(ctx context.Context, limit, offset int) ([]models.Outing, error) {
	var outings []models.Outing
	query := fmt.Sprintf(`SELECT %s FROM outing ORDER BY starts_at DESC LIMIT $1 OFFSET $2`, outingColumns)
	if err := r.db.SelectContext(ctx, &outings, query, limit, offset); err != nil {
		return nil, fmt.Errorf("list outings: %w", err)
	}
	return outings, nil
}

// Count returns the total number of outings.
func (r *OutingRepository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM outing`); err != nil {
		return 0, fmt.Errorf("count outings: %w", err)
	}
	return total, nil
}

// ListUpcoming returns outings starting at or after now, soonest first.
func (r *OutingRepository) ListUpcoming(ctx context.Context, now time.Time, limit int) ([]models.Outing, error) {
	if limit <= 0 {
		limit = 10
	}
	var outings []models.Outing
	query := fmt.Sprintf(`SELECT %s FROM outing WHERE starts_at >= $1 ORDER BY starts_at ASC LIMIT $2`, outingColumns)
	if err := r.db.SelectContext(ctx, &outings, query, now, limit); err != nil {
		return nil, fmt.Errorf("list upcoming outings: %w", err)
	}
	return outings, nil
}

// Create inserts a new outing.
func (r *OutingRepository) Create(ctx context.Context, outing *models.Outing) (*models.Outing, error) {
	now := time.Now().UTC()
	if outing.ID == "" {
		outing.ID = uuid.NewString()
	}
	query := fmt.Sprintf(`INSERT INTO outing (id, title, starts_at, location, description, image_url, capacity, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING %s`, outingColumns)
	var created models.Outing
	err := r.db.GetContext(ctx, &created, query,
		outing.ID, outing.Title, outing.StartsAt, outing.Location, outing.Description,
		outing.ImageURL, outing.Capacity, now, now)
	if err != nil {
		return nil, fmt.Errorf("create outing: %w", err)
	}
	return &created, nil
}

// Update rewrites the editable fields of an outing, capacity included.
// Lowering capacity never evicts signed registrations.
func (r *OutingRepository) Update(ctx context.Context, outing *models.Outing) (*models.Outing, error) {
	query := fmt.Sprintf(`UPDATE outing
SET title = $2, starts_at = $3, location = $4, description = $5, image_url = $6, capacity = $7, updated_at = $8
WHERE id = $1
RETURNING %s`, outingColumns)
	var updated models.Outing
	err := r.db.GetContext(ctx, &updated, query,
		outing.ID, outing.Title, outing.StartsAt, outing.Location, outing.Description,
		outing.ImageURL, outing.Capacity, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	return &updated, nil
}
