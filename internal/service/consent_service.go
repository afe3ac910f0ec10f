package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/stainespoir/parent-portal-api/internal/models"
	appErrors "github.com/stainespoir/parent-portal-api/pkg/errors"
)

type consentRegistrationRepository interface {
	WithinTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error
	Pool() sqlx.ExtContext
	FindDetailByID(ctx context.Context, id string) (*models.RegistrationDetail, error)
	LockOuting(ctx context.Context, tx *sqlx.Tx, outingID string) error
	CountSigned(ctx context.Context, tx *sqlx.Tx, outingID string) (int, error)
	UpdateSignature(ctx context.Context, q sqlx.ExtContext, id string, sig models.Signature) (*models.OutingRegistration, error)
	UpdateStatus(ctx context.Context, id string, status models.RegistrationStatus) (*models.OutingRegistration, error)
}

// ConsentService performs the signing transition on outing registrations.
// The signed count per outing must never exceed the outing's capacity, so
// the count-check and the signature write happen under an exclusive lock on
// the outing row. Signers for different outings never contend.
type ConsentService struct {
	repo      consentRegistrationRepository
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewConsentService constructs the consent service.
func NewConsentService(repo consentRegistrationRepository, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *ConsentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConsentService{
		repo:      repo,
		cache:     cache,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		now:       time.Now,
	}
}

// SignConsentRequest is the parent's consent payload. IP and user agent are
// filled from the request by the handler, never by the client.
type SignConsentRequest struct {
	SignatureName  string  `json:"signature_name" validate:"required"`
	SignaturePhone string  `json:"signature_phone" validate:"required"`
	HealthNotes    *string `json:"health_notes"`
	SignatureImage *string `json:"signature_image"`
	ConsentGiven   bool    `json:"consent_given"`
	IPAddress      string  `json:"-"`
	UserAgent      string  `json:"-"`
}

// Sign records a parent's consent for one registration. For a
// capacity-limited outing the signed count is checked and the signature
// written inside one transaction holding the outing row lock; for unlimited
// outings the write goes straight to the pool. Re-signing an already
// confirmed registration overwrites its signature fields without a capacity
// re-check, since it does not change the signed set.
func (s *ConsentService) Sign(ctx context.Context, parentProfileID, registrationID string, req SignConsentRequest) (*models.OutingRegistration, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	if !req.ConsentGiven {
		s.metrics.RecordConsentSign("rejected")
		return nil, appErrors.Clone(appErrors.ErrValidation, "consent must be given")
	}
	name := strings.TrimSpace(req.SignatureName)
	phone := strings.TrimSpace(req.SignaturePhone)
	if name == "" || phone == "" {
		s.metrics.RecordConsentSign("rejected")
		return nil, appErrors.Clone(appErrors.ErrValidation, "signature name and phone are required")
	}

	detail, err := s.loadOwned(ctx, parentProfileID, registrationID)
	if err != nil {
		s.metrics.RecordConsentSign("not_found")
		return nil, err
	}

	sig := models.Signature{
		Name:     name,
		Phone:    phone,
		Health:   trimmedOrNil(req.HealthNotes),
		Image:    req.SignatureImage,
		SignedAt: s.now().UTC(),
	}
	if req.IPAddress != "" {
		sig.IP = &req.IPAddress
	}
	if req.UserAgent != "" {
		sig.UserAgent = &req.UserAgent
	}

	// Re-signs and unlimited outings cannot violate the capacity invariant,
	// so they skip the lock entirely.
	if detail.OutingCapacity == nil || detail.Signed() {
		updated, err := s.repo.UpdateSignature(ctx, s.repo.Pool(), detail.ID, sig)
		if err != nil {
			s.metrics.RecordConsentSign("error")
			return nil, appErrors.FromPQError(err, "signature write failed")
		}
		s.afterSign(ctx, detail)
		return updated, nil
	}

	capacity := *detail.OutingCapacity
	var updated *models.OutingRegistration
	err = s.repo.WithinTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.repo.LockOuting(ctx, tx, detail.OutingID); err != nil {
			return appErrors.FromPQError(err, "could not lock outing")
		}
		count, err := s.repo.CountSigned(ctx, tx, detail.OutingID)
		if err != nil {
			return appErrors.FromPQError(err, "could not count signatures")
		}
		if count >= capacity {
			return appErrors.Clone(appErrors.ErrOutingFull,
				fmt.Sprintf("outing %q is full (%d/%d signed)", detail.OutingTitle, count, capacity))
		}
		updated, err = s.repo.UpdateSignature(ctx, tx, detail.ID, sig)
		if err != nil {
			return appErrors.FromPQError(err, "signature write failed")
		}
		return nil
	})
	if err != nil {
		appErr := appErrors.FromError(err)
		switch appErr.Code {
		case appErrors.ErrOutingFull.Code:
			s.metrics.RecordConsentSign("capacity_exceeded")
			s.logger.Info("sign refused, outing full",
				zap.String("registration_id", detail.ID),
				zap.String("outing_id", detail.OutingID),
				zap.Int("capacity", capacity))
		case appErrors.ErrLockUnavailable.Code:
			s.metrics.RecordConsentSign("lock_unavailable")
			s.logger.Warn("sign aborted, outing lock unavailable",
				zap.String("registration_id", detail.ID),
				zap.String("outing_id", detail.OutingID))
		default:
			s.metrics.RecordConsentSign("error")
		}
		return nil, appErr
	}

	s.afterSign(ctx, detail)
	return updated, nil
}

// Decline moves an invited registration to declined.
func (s *ConsentService) Decline(ctx context.Context, parentProfileID, registrationID string) (*models.OutingRegistration, error) {
	detail, err := s.loadOwned(ctx, parentProfileID, registrationID)
	if err != nil {
		return nil, err
	}
	if detail.Status != models.RegistrationInvited {
		return nil, appErrors.Clone(appErrors.ErrConflict, "registration already answered")
	}
	updated, err := s.repo.UpdateStatus(ctx, detail.ID, models.RegistrationDeclined)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "decline failed")
	}
	return updated, nil
}

// Review is the admin post-event transition to attended or absent.
func (s *ConsentService) Review(ctx context.Context, registrationID string, status models.RegistrationStatus) (*models.OutingRegistration, error) {
	if status != models.RegistrationAttended && status != models.RegistrationAbsent {
		return nil, appErrors.Clone(appErrors.ErrValidation, "review status must be attended or absent")
	}
	detail, err := s.repo.FindDetailByID(ctx, registrationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "registration not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load registration")
	}
	if detail.Status != models.RegistrationConfirmed && detail.Status != models.RegistrationInvited {
		return nil, appErrors.Clone(appErrors.ErrConflict, "registration cannot be reviewed from status "+string(detail.Status))
	}
	updated, err := s.repo.UpdateStatus(ctx, detail.ID, status)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "review failed")
	}
	return updated, nil
}

// loadOwned loads a registration and enforces that it belongs to the
// requesting parent. Ownership misses surface as not-found, never as a
// hint that the registration exists.
func (s *ConsentService) loadOwned(ctx context.Context, parentProfileID, registrationID string) (*models.RegistrationDetail, error) {
	detail, err := s.repo.FindDetailByID(ctx, registrationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "registration not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load registration")
	}
	if parentProfileID != "" && detail.ParentProfileID != parentProfileID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "registration not found")
	}
	return detail, nil
}

func (s *ConsentService) afterSign(ctx context.Context, detail *models.RegistrationDetail) {
	s.metrics.RecordConsentSign("confirmed")
	if s.cache.Enabled() {
		_ = s.cache.Invalidate(ctx, signedCountsCachePattern(detail.OutingID))
	}
	s.logger.Info("registration signed",
		zap.String("registration_id", detail.ID),
		zap.String("outing_id", detail.OutingID),
		zap.String("child_id", detail.ChildID))
}

func signedCountsCachePattern(outingID string) string {
	return "outings:signed:" + outingID + "*"
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
