package controllers

import (
	"context"

	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/tutorsite/app/repository"
	"github.com/ManuelReschke/tutorsite/internal/pkg/authtoken"
	"github.com/ManuelReschke/tutorsite/internal/pkg/billing"
	"github.com/ManuelReschke/tutorsite/internal/pkg/cache"
	"github.com/ManuelReschke/tutorsite/internal/pkg/downloads"
	"github.com/ManuelReschke/tutorsite/internal/pkg/enrollment"
	"github.com/ManuelReschke/tutorsite/internal/pkg/hcaptcha"
	"github.com/ManuelReschke/tutorsite/internal/pkg/mail"
	"github.com/ManuelReschke/tutorsite/internal/pkg/statistics"
)

// Dependencies bundles what the HTTP handlers need. main wires the real
// implementations; tests pass fakes for the repositories.
type Dependencies struct {
	Repos      *repository.Repositories
	Cache      cache.Store
	Enrollment *enrollment.Service
	Billing    *billing.Service
	Stats      *statistics.Service
	Downloads  *downloads.Client
	Captcha    *hcaptcha.Verifier
	Notifier   *mail.Notifier
	Tokens     *authtoken.Signer
}

func (d *Dependencies) cacheStore() cache.Store {
	if d == nil || d.Cache == nil {
		return cache.NoopStore{}
	}
	return d.Cache
}

// invalidateCatalog drops the public listing caches after a write.
func (d *Dependencies) invalidateCatalog(ctx context.Context) {
	if err := d.cacheStore().InvalidatePrefix(ctx, catalogCachePrefix); err != nil {
		log.Warnf("catalog: cache invalidation failed: %v", err)
	}
	d.Stats.Invalidate(ctx)
}
