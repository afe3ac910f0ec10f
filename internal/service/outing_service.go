package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/stainespoir/parent-portal-api/internal/models"
	appErrors "github.com/stainespoir/parent-portal-api/pkg/errors"
)

type outingRepository interface {
	FindByID(ctx context.Context, id string) (*models.Outing, error)
	List(ctx context.Context, limit, offset int) ([]models.Outing, error)
	Count(ctx context.Context) (int, error)
	ListUpcoming(ctx context.Context, now time.Time, limit int) ([]models.Outing, error)
	Create(ctx context.Context, outing *models.Outing) (*models.Outing, error)
	Update(ctx context.Context, outing *models.Outing) (*models.Outing, error)
}

type signedCountRepository interface {
	CountSignedByOutingIDs(ctx context.Context, outingIDs []string) (map[string]int, error)
}

// OutingService handles admin management of outings and the signed-count
// display map.
type OutingService struct {
	repo      outingRepository
	countRepo signedCountRepository
	cache     *CacheService
	countTTL  time.Duration
	validator *validator.Validate
	logger    *zap.Logger
}

// NewOutingService constructs the outing service.
func NewOutingService(repo outingRepository, countRepo signedCountRepository, cache *CacheService, countTTL time.Duration, validate *validator.Validate, logger *zap.Logger) *OutingService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if countTTL <= 0 {
		countTTL = time.Minute
	}
	return &OutingService{repo: repo, countRepo: countRepo, cache: cache, countTTL: countTTL, validator: validate, logger: logger}
}

// OutingRequest is the admin create/update payload. A nil capacity means
// unlimited.
type OutingRequest struct {
	Title       string    `json:"title" validate:"required,max=200"`
	StartsAt    time.Time `json:"starts_at" validate:"required"`
	Location    *string   `json:"location"`
	Description *string   `json:"description"`
	ImageURL    *string   `json:"image_url" validate:"omitempty,url"`
	Capacity    *int      `json:"capacity" validate:"omitempty,min=0"`
}

// OutingView pairs an outing with its current signed count for listings.
type OutingView struct {
	models.Outing
	SignedCount int `json:"signed_count"`
}

// Create registers a new outing.
func (s *OutingService) Create(ctx context.Context, req OutingRequest) (*models.Outing, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid outing payload")
	}
	outing := &models.Outing{
		Title:       req.Title,
		StartsAt:    req.StartsAt,
		Location:    req.Location,
		Description: req.Description,
		ImageURL:    req.ImageURL,
		Capacity:    req.Capacity,
	}
	created, err := s.repo.Create(ctx, outing)
	if err != nil {
		return nil, appErrors.FromPQError(err, "outing create failed")
	}
	s.logger.Info("outing created", zap.String("outing_id", created.ID), zap.String("title", created.Title))
	return created, nil
}

// Update edits an outing. Capacity may change at any time; lowering it
// below the current signed count never evicts signed registrations, they
// are grandfathered.
func (s *OutingService) Update(ctx context.Context, id string, req OutingRequest) (*models.Outing, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid outing payload")
	}
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "outing not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load outing")
	}
	existing.Title = req.Title
	existing.StartsAt = req.StartsAt
	existing.Location = req.Location
	existing.Description = req.Description
	existing.ImageURL = req.ImageURL
	existing.Capacity = req.Capacity

	updated, err := s.repo.Update(ctx, existing)
	if err != nil {
		return nil, appErrors.FromPQError(err, "outing update failed")
	}
	return updated, nil
}

// Get loads one outing with its signed count.
func (s *OutingService) Get(ctx context.Context, id string) (*OutingView, error) {
	outing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "outing not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load outing")
	}
	counts, err := s.SignedCounts(ctx, []string{outing.ID})
	if err != nil {
		return nil, err
	}
	return &OutingView{Outing: *outing, SignedCount: counts[outing.ID]}, nil
}

// List returns one page of outings with signed counts, newest first.
func (s *OutingService) List(ctx context.Context, page, pageSize int) ([]OutingView, *models.Pagination, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	outings, err := s.repo.List(ctx, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list outings")
	}
	total, err := s.repo.Count(ctx)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count outings")
	}
	views, err := s.withCounts(ctx, outings)
	if err != nil {
		return nil, nil, err
	}
	return views, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// ListUpcoming returns outings starting after now, soonest first.
func (s *OutingService) ListUpcoming(ctx context.Context, now time.Time, limit int) ([]OutingView, error) {
	outings, err := s.repo.ListUpcoming(ctx, now, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list upcoming outings")
	}
	return s.withCounts(ctx, outings)
}

// SignedCounts resolves the signed count per outing, going through the
// cache. Sign actions invalidate the per-outing key.
func (s *OutingService) SignedCounts(ctx context.Context, outingIDs []string) (map[string]int, error) {
	counts := make(map[string]int, len(outingIDs))
	var missing []string
	for _, id := range outingIDs {
		var cached int
		hit, err := s.cache.Get(ctx, signedCountCacheKey(id), &cached)
		if err == nil && hit {
			counts[id] = cached
			continue
		}
		missing = append(missing, id)
	}
	if len(missing) == 0 {
		return counts, nil
	}
	fetched, err := s.countRepo.CountSignedByOutingIDs(ctx, missing)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count signatures")
	}
	for _, id := range missing {
		count := fetched[id]
		counts[id] = count
		_ = s.cache.Set(ctx, signedCountCacheKey(id), count, s.countTTL)
	}
	return counts, nil
}

func (s *OutingService) withCounts(ctx context.Context, outings []models.Outing) ([]OutingView, error) {
	ids := make([]string, len(outings))
	for i, outing := range outings {
		ids[i] = outing.ID
	}
	counts, err := s.SignedCounts(ctx, ids)
	if err != nil {
		return nil, err
	}
	views := make([]OutingView, len(outings))
	for i, outing := range outings {
		views[i] = OutingView{Outing: outing, SignedCount: counts[outing.ID]}
	}
	return views, nil
}

func signedCountCacheKey(outingID string) string {
	return "outings:signed:" + outingID
}
