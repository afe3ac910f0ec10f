package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/stainespoir/parent-portal-api/internal/models"
)

const userColumns = `u.id, u.email, u.password_hash, u.role, u.is_approved, u.is_active, u.created_at, u.last_login_at`

// UserRepository handles persistence for accounts, profiles and sessions.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository constructs the repository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByEmail loads an account by email.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	query := fmt.Sprintf(`SELECT %s FROM users u WHERE u.email = $1`, userColumns)
	if err := r.db.GetContext(ctx, &user, query, email); err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByID loads an account by id.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	query := fmt.Sprintf(`SELECT %s FROM users u WHERE u.id = $1`, userColumns)
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		return nil, err
	}
	return &user, nil
}

// FindProfileByUserID loads the parent profile attached to a user.
func (r *UserRepository) FindProfileByUserID(ctx context.Context, userID string) (*models.ParentProfile, error) {
	var profile models.ParentProfile
	query := `SELECT id, user_id, first_name, last_name, phone, created_at FROM parent_profile WHERE user_id = $1`
	if err := r.db.GetContext(ctx, &profile, query, userID); err != nil {
		return nil, err
	}
	return &profile, nil
}

// UpdateLastLogin stamps the last successful login.
func (r *UserRepository) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE users SET last_login_at = $2 WHERE id = $1`, id, ts); err != nil {
		return fmt.Errorf("update last login: %w", err)
	}
	return nil
}

// CreateRefreshToken persists a refresh token.
func (r *UserRepository) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	query := `INSERT INTO refresh_token (id, user_id, token, expires_at, created_at, revoked, ip_address, user_agent)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.db.ExecContext(ctx, query,
		token.ID, token.UserID, token.Token, token.ExpiresAt, token.CreatedAt, token.Revoked, token.IPAddress, token.UserAgent)
	if err != nil {
		return fmt.Errorf("create refresh token: %w", err)
	}
	return nil
}

// FindRefreshToken loads a refresh token by its opaque value.
func (r *UserRepository) FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	var stored models.RefreshToken
	query := `SELECT id, user_id, token, expires_at, created_at, revoked, revoked_at, ip_address, user_agent
FROM refresh_token WHERE token = $1`
	if err := r.db.GetContext(ctx, &stored, query, token); err != nil {
		return nil, err
	}
	return &stored, nil
}

// RevokeRefreshToken marks one token revoked.
func (r *UserRepository) RevokeRefreshToken(ctx context.Context, id string, revokedAt time.Time) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE refresh_token SET revoked = TRUE, revoked_at = $2 WHERE id = $1`, id, revokedAt); err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}

// ListPendingParents returns parent accounts awaiting approval with their
// profile and child count.
func (r *UserRepository) ListPendingParents(ctx context.Context) ([]models.PendingParent, error) {
	var rows []models.PendingParent
	query := `SELECT u.id AS user_id, p.id AS profile_id, u.email, p.first_name, p.last_name, p.phone,
        (SELECT COUNT(*) FROM child c WHERE c.parent_profile_id = p.id) AS child_count,
        u.created_at
FROM users u
JOIN parent_profile p ON p.user_id = u.id
WHERE u.role = $1 AND u.is_approved = FALSE AND u.is_active = TRUE
ORDER BY u.created_at`
	if err := r.db.SelectContext(ctx, &rows, query, models.RoleParent); err != nil {
		return nil, fmt.Errorf("list pending parents: %w", err)
	}
	return rows, nil
}

// ApproveParent marks the user approved and cascades approval to the
// profile's children, in one transaction.
func (r *UserRepository) ApproveParent(ctx context.Context, userID string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin approval tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, `UPDATE users SET is_approved = TRUE WHERE id = $1 AND role = $2`, userID, models.RoleParent)
	if err != nil {
		return fmt.Errorf("approve parent: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("approve parent %s: %w", userID, sql.ErrNoRows)
	}
	_, err = tx.ExecContext(ctx, `UPDATE child SET is_approved = TRUE
WHERE parent_profile_id IN (SELECT id FROM parent_profile WHERE user_id = $1)`, userID)
	if err != nil {
		return fmt.Errorf("approve children: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit approval tx: %w", err)
	}
	committed = true
	return nil
}

// RejectParent removes a pending account; profile and children follow by
// foreign-key cascade.
func (r *UserRepository) RejectParent(ctx context.Context, userID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1 AND role = $2 AND is_approved = FALSE`, userID, models.RoleParent)
	if err != nil {
		return fmt.Errorf("reject parent: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
