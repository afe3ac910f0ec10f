package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/stainespoir/parent-portal-api/internal/models"
)

const childColumns = `c.id, c.parent_profile_id, c.first_name, c.last_name, c.date_of_birth,
        c.level, c.school, c.notes, c.is_approved, c.may_leave_unaccompanied, c.created_at`

// ChildRepository handles persistence for children.
type ChildRepository struct {
	db *sqlx.DB
}

// NewChildRepository constructs the repository.
func NewChildRepository(db *sqlx.DB) *ChildRepository {
	return &ChildRepository{db: db}
}

// FindByID loads one child.
func (r *ChildRepository) FindByID(ctx context.Context, id string) (*models.Child, error) {
	var child models.Child
	query := fmt.Sprintf(`SELECT %s FROM child c WHERE c.id = $1`, childColumns)
	if err := r.db.GetContext(ctx, &child, query, id); err != nil {
		return nil, err
	}
	return &child, nil
}

// ListByParent returns a parent's children ordered by first name.
func (r *ChildRepository) ListByParent(ctx context.Context, parentProfileID string) ([]models.Child, error) {
	var children []models.Child
	query := fmt.Sprintf(`SELECT %s FROM child c WHERE c.parent_profile_id = $1 ORDER BY c.first_name`, childColumns)
	if err := r.db.SelectContext(ctx, &children, query, parentProfileID); err != nil {
		return nil, fmt.Errorf("list children by parent: %w", err)
	}
	return children, nil
}

// ListValidated returns approved children of approved parents, optionally
// narrowed by level set and/or explicit id set (both filters AND together).
// This is the eligible roster for attendance and invitations.
func (r *ChildRepository) ListValidated(ctx context.Context, filter models.ChildFilter) ([]models.Child, error) {
	where := []string{"u.is_approved = TRUE", "c.is_approved = TRUE"}
	args := []interface{}{}
	if len(filter.Levels) > 0 {
		where = append(where, "c.level IN (?)")
		args = append(args, filter.Levels)
	}
	if len(filter.ChildIDs) > 0 {
		where = append(where, "c.id IN (?)")
		args = append(args, filter.ChildIDs)
	}
	raw := fmt.Sprintf(`SELECT %s
FROM child c
JOIN parent_profile p ON p.id = c.parent_profile_id
JOIN users u ON u.id = p.user_id
WHERE %s
ORDER BY c.last_name, c.first_name`, childColumns, strings.Join(where, " AND "))

	query, inArgs, err := sqlx.In(raw, args...)
	if err != nil {
		return nil, fmt.Errorf("build validated children query: %w", err)
	}
	var children []models.Child
	if err := r.db.SelectContext(ctx, &children, r.db.Rebind(query), inArgs...); err != nil {
		return nil, fmt.Errorf("list validated children: %w", err)
	}
	return children, nil
}
