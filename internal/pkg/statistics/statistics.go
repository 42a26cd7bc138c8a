package statistics

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/tutorsite/app/repository"
	"github.com/ManuelReschke/tutorsite/internal/pkg/cache"
)

const (
	CacheKeyPrefix      = "statistics:"
	CacheKeyAdminCounts = "statistics:admin:counts"
	CacheExpiration     = 2 * time.Minute
)

// Service serves the admin dashboard counts from cache. Every admin write
// calls Invalidate so the next read recounts.
type Service struct {
	repo  repository.StatsRepository
	store cache.Store
}

func NewService(repo repository.StatsRepository, store cache.Store) *Service {
	if store == nil {
		store = cache.NoopStore{}
	}
	return &Service{repo: repo, store: store}
}

// AdminCounts returns the cached counts or recounts them.
func (s *Service) AdminCounts(ctx context.Context) (*repository.AdminCounts, error) {
	return cache.Remember(ctx, s.store, CacheKeyAdminCounts, CacheExpiration, func() (*repository.AdminCounts, error) {
		return s.repo.AdminCounts(ctx)
	})
}

// Invalidate drops all cached statistics. A nil Service is a no-op.
func (s *Service) Invalidate(ctx context.Context) {
	if s == nil {
		return
	}
	if err := s.store.InvalidatePrefix(ctx, CacheKeyPrefix); err != nil {
		log.Warnf("statistics: cache invalidation failed: %v", err)
	}
}
