package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/stainespoir/parent-portal-api/internal/models"
)

const registrationDetailColumns = `r.id, r.child_id, r.outing_id, r.status, r.notes,
        r.signed_at, r.signature_name, r.signature_phone, r.health_notes,
        r.signature_image, r.signature_ip, r.signature_user_agent, r.created_at, r.updated_at,
        c.parent_profile_id, c.first_name AS child_first_name, c.last_name AS child_last_name, c.level AS child_level,
        o.title AS outing_title, o.starts_at AS outing_starts_at, o.location AS outing_location, o.capacity AS outing_capacity`

// RegistrationRepository handles persistence for outing registrations,
// including the critical section of consent signing.
type RegistrationRepository struct {
	db *sqlx.DB
}

// NewRegistrationRepository constructs the repository.
func NewRegistrationRepository(db *sqlx.DB) *RegistrationRepository {
	return &RegistrationRepository{db: db}
}

// Pool exposes the underlying pool for single-statement writes that need no
// transaction.
func (r *RegistrationRepository) Pool() sqlx.ExtContext {
	return r.db
}

// WithinTx runs fn inside a transaction, rolling back on error.
func (r *RegistrationRepository) WithinTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin registration tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit registration tx: %w", err)
	}
	return nil
}

// FindDetailByID loads a registration joined with its child, owner and outing.
func (r *RegistrationRepository) FindDetailByID(ctx context.Context, id string) (*models.RegistrationDetail, error) {
	query := fmt.Sprintf(`SELECT %s
FROM outing_registration r
JOIN child c ON c.id = r.child_id
JOIN outing o ON o.id = r.outing_id
WHERE r.id = $1`, registrationDetailColumns)
	var detail models.RegistrationDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// LockOuting takes an exclusive row lock on the outing for the duration of
// the surrounding transaction. Concurrent signers for the same outing queue
// here; different outings never contend.
func (r *RegistrationRepository) LockOuting(ctx context.Context, tx *sqlx.Tx, outingID string) error {
	var id string
	if err := tx.GetContext(ctx, &id, `SELECT id FROM outing WHERE id = $1 FOR UPDATE`, outingID); err != nil {
		return err
	}
	return nil
}

// CountSigned counts registrations carrying a signature for the outing.
func (r *RegistrationRepository) CountSigned(ctx context.Context, tx *sqlx.Tx, outingID string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM outing_registration WHERE outing_id = $1 AND signed_at IS NOT NULL`
	if err := tx.GetContext(ctx, &count, query, outingID); err != nil {
		return 0, fmt.Errorf("count signed registrations: %w", err)
	}
	return count, nil
}

// CountSignedByOutingIDs returns outingID -> signed count for display.
func (r *RegistrationRepository) CountSignedByOutingIDs(ctx context.Context, outingIDs []string) (map[string]int, error) {
	counts := make(map[string]int, len(outingIDs))
	if len(outingIDs) == 0 {
		return counts, nil
	}
	query, args, err := sqlx.In(`SELECT outing_id, COUNT(*) AS cnt
FROM outing_registration
WHERE outing_id IN (?) AND signed_at IS NOT NULL
GROUP BY outing_id`, outingIDs)
	if err != nil {
		return nil, fmt.Errorf("build signed counts query: %w", err)
	}
	rows := []struct {
		OutingID string `db:"outing_id"`
		Count    int    `db:"cnt"`
	}{}
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("signed counts: %w", err)
	}
	for _, row := range rows {
		counts[row.OutingID] = row.Count
	}
	return counts, nil
}

// UpdateSignature writes the consent fields and flips the registration to
// confirmed. It runs against either a transaction (capacity-limited path) or
// the pool directly (unlimited path).
func (r *RegistrationRepository) UpdateSignature(ctx context.Context, q sqlx.ExtContext, id string, sig models.Signature) (*models.OutingRegistration, error) {
	query := `UPDATE outing_registration
SET status = $2, signed_at = $3, signature_name = $4, signature_phone = $5,
    health_notes = $6, signature_image = $7, signature_ip = $8, signature_user_agent = $9,
    updated_at = $10
WHERE id = $1
RETURNING id, child_id, outing_id, status, notes, signed_at, signature_name, signature_phone,
          health_notes, signature_image, signature_ip, signature_user_agent, created_at, updated_at`
	var updated models.OutingRegistration
	err := sqlx.GetContext(ctx, q, &updated, query,
		id, models.RegistrationConfirmed, sig.SignedAt, sig.Name, sig.Phone,
		sig.Health, sig.Image, sig.IP, sig.UserAgent, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("update signature: %w", err)
	}
	return &updated, nil
}

// UpdateStatus moves a registration to the given status without touching
// signature fields (decline, admin review).
func (r *RegistrationRepository) UpdateStatus(ctx context.Context, id string, status models.RegistrationStatus) (*models.OutingRegistration, error) {
	query := `UPDATE outing_registration SET status = $2, updated_at = $3
WHERE id = $1
RETURNING id, child_id, outing_id, status, notes, signed_at, signature_name, signature_phone,
          health_notes, signature_image, signature_ip, signature_user_agent, created_at, updated_at`
	var updated models.OutingRegistration
	if err := r.db.GetContext(ctx, &updated, query, id, status, time.Now().UTC()); err != nil {
		return nil, fmt.Errorf("update registration status: %w", err)
	}
	return &updated, nil
}

// ExistingByChildIDs returns childID -> registration for the given outing,
// limited to the provided children. Used to keep bulk invitations idempotent.
func (r *RegistrationRepository) ExistingByChildIDs(ctx context.Context, tx *sqlx.Tx, outingID string, childIDs []string) (map[string]models.OutingRegistration, error) {
	existing := make(map[string]models.OutingRegistration, len(childIDs))
	if len(childIDs) == 0 {
		return existing, nil
	}
	query, args, err := sqlx.In(`SELECT id, child_id, outing_id, status, notes, signed_at, signature_name,
        signature_phone, health_notes, signature_image, signature_ip, signature_user_agent, created_at, updated_at
FROM outing_registration
WHERE outing_id = ? AND child_id IN (?)`, outingID, childIDs)
	if err != nil {
		return nil, fmt.Errorf("build existing registrations query: %w", err)
	}
	var rows []models.OutingRegistration
	if err := tx.SelectContext(ctx, &rows, tx.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("existing registrations: %w", err)
	}
	for _, row := range rows {
		existing[row.ChildID] = row
	}
	return existing, nil
}

// CreateInvited inserts a fresh invited registration.
func (r *RegistrationRepository) CreateInvited(ctx context.Context, tx *sqlx.Tx, childID, outingID string) (*models.OutingRegistration, error) {
	now := time.Now().UTC()
	query := `INSERT INTO outing_registration (id, child_id, outing_id, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, child_id, outing_id, status, notes, signed_at, signature_name, signature_phone,
          health_notes, signature_image, signature_ip, signature_user_agent, created_at, updated_at`
	var created models.OutingRegistration
	if err := tx.GetContext(ctx, &created, query, uuid.NewString(), childID, outingID, models.RegistrationInvited, now, now); err != nil {
		return nil, fmt.Errorf("create invited registration: %w", err)
	}
	return &created, nil
}

// ListInvited returns registrations still awaiting a response for an outing.
func (r *RegistrationRepository) ListInvited(ctx context.Context, outingID string) ([]models.RegistrationDetail, error) {
	query := fmt.Sprintf(`SELECT %s
FROM outing_registration r
JOIN child c ON c.id = r.child_id
JOIN outing o ON o.id = r.outing_id
WHERE r.outing_id = $1 AND r.status = $2
ORDER BY c.last_name, c.first_name`, registrationDetailColumns)
	var rows []models.RegistrationDetail
	if err := r.db.SelectContext(ctx, &rows, query, outingID, models.RegistrationInvited); err != nil {
		return nil, fmt.Errorf("list invited registrations: %w", err)
	}
	return rows, nil
}

// ListForChild returns all registrations of one child with outing metadata,
// ordered by outing start.
func (r *RegistrationRepository) ListForChild(ctx context.Context, childID string) ([]models.RegistrationDetail, error) {
	query := fmt.Sprintf(`SELECT %s
FROM outing_registration r
JOIN child c ON c.id = r.child_id
JOIN outing o ON o.id = r.outing_id
WHERE r.child_id = $1
ORDER BY o.starts_at ASC`, registrationDetailColumns)
	var rows []models.RegistrationDetail
	if err := r.db.SelectContext(ctx, &rows, query, childID); err != nil {
		return nil, fmt.Errorf("list child registrations: %w", err)
	}
	return rows, nil
}

// ListConfirmedForOuting returns the signed registrations of an outing for
// attestation export.
func (r *RegistrationRepository) ListConfirmedForOuting(ctx context.Context, outingID string) ([]models.RegistrationDetail, error) {
	query := fmt.Sprintf(`SELECT %s
FROM outing_registration r
JOIN child c ON c.id = r.child_id
JOIN outing o ON o.id = r.outing_id
WHERE r.outing_id = $1 AND r.signed_at IS NOT NULL
ORDER BY c.last_name, c.first_name`, registrationDetailColumns)
	var rows []models.RegistrationDetail
	if err := r.db.SelectContext(ctx, &rows, query, outingID); err != nil {
		return nil, fmt.Errorf("list confirmed registrations: %w", err)
	}
	return rows, nil
}
