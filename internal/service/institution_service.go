package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/machashop/students-ms/internal/client"
	"github.com/machashop/students-ms/internal/models"
	appErrors "github.com/machashop/students-ms/pkg/errors"
)

const (
	institutionsListKey  = "institutions:all"
	institutionKeyPrefix = "institutions:id:"
)

type institutionOrigin interface {
	List(ctx context.Context) ([]models.Institution, error)
	Get(ctx context.Context, id string) (*models.Institution, error)
}

type institutionCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// InstitutionService serves institution reference data. Institutions are
// owned by a separate origin; this service only reads them, caching payloads
// in Redis to keep dropdown lookups off the origin's hot path.
type InstitutionService struct {
	origin   institutionOrigin
	cache    institutionCache
	cacheTTL time.Duration
	logger   *zap.Logger
	metrics  *MetricsService
}

// NewInstitutionService constructs the institution service.
func NewInstitutionService(origin institutionOrigin, cache institutionCache, cacheTTL time.Duration, logger *zap.Logger) *InstitutionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InstitutionService{origin: origin, cache: cache, cacheTTL: cacheTTL, logger: logger}
}

// BindMetrics attaches the cache hit/miss counters.
func (s *InstitutionService) BindMetrics(m *MetricsService) {
	s.metrics = m
}

// List returns every institution from the origin, serving from cache when a
// fresh entry exists.
func (s *InstitutionService) List(ctx context.Context) ([]models.Institution, error) {
	if s.cache != nil {
		var cached []models.Institution
		err := s.cache.Get(ctx, institutionsListKey, &cached)
		if err == nil {
			s.metrics.RecordCacheLookup(true)
			return cached, nil
		}
		s.metrics.RecordCacheLookup(false)
		if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("institution cache read failed, falling through to origin", zap.Error(err))
		}
	}

	institutions, err := s.origin.List(ctx)
	if err != nil {
		return nil, s.mapOriginErr(err, "failed to list institutions")
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, institutionsListKey, institutions, s.cacheTTL); err != nil {
			s.logger.Warn("institution cache write failed", zap.Error(err))
		}
		// A fresh listing supersedes whatever per-ID entries were cached
		// before it, so drop them rather than letting them age out.
		if err := s.cache.DeleteByPattern(ctx, institutionKeyPrefix+"*"); err != nil {
			s.logger.Warn("institution cache invalidation failed", zap.Error(err))
		}
	}
	return institutions, nil
}

// Get returns a single institution by ID.
func (s *InstitutionService) Get(ctx context.Context, id string) (*models.Institution, error) {
	key := institutionKeyPrefix + id
	if s.cache != nil {
		var cached models.Institution
		err := s.cache.Get(ctx, key, &cached)
		if err == nil {
			s.metrics.RecordCacheLookup(true)
			return &cached, nil
		}
		s.metrics.RecordCacheLookup(false)
		if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("institution cache read failed, falling through to origin", zap.Error(err))
		}
	}

	institution, err := s.origin.Get(ctx, id)
	if err != nil {
		return nil, s.mapOriginErr(err, "failed to load institution")
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, institution, s.cacheTTL); err != nil {
			s.logger.Warn("institution cache write failed", zap.Error(err))
		}
	}
	return institution, nil
}

func (s *InstitutionService) mapOriginErr(err error, msg string) error {
	var statusErr *client.StatusError
	if errors.As(err, &statusErr) && statusErr.StatusCode == 404 {
		return appErrors.Clone(appErrors.ErrNotFound, "institution not found")
	}
	return appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, msg)
}
