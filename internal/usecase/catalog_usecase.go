package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/user/coupon-service/internal/entity"
	"github.com/user/coupon-service/internal/repository"
	"go.uber.org/zap"
)

// OfferCatalog is the dedup and persistence adapter: freshness-windowed reads,
// idempotent deduplicated writes, retention cleanup.
type OfferCatalog interface {
	// Lookup returns the domain's record when it is inside the freshness
	// window, repository.ErrStale otherwise.
	Lookup(ctx context.Context, domain string) (*entity.DomainRecord, error)
	// Save deduplicates offers by (domain, code), first seen wins, and
	// upserts them. An empty offer list is a no-op.
	Save(ctx context.Context, domain string, offers []entity.ResolvedOffer) error
	// Purge deletes rows past the retention window and returns the count.
	Purge(ctx context.Context) (int64, error)
}

type catalogUseCase struct {
	coupons   repository.CouponRepository
	cache     repository.OfferCacheRepository
	freshness time.Duration
	retention time.Duration
	logger    *zap.Logger
	now       func() time.Time
}

// NewCatalogUseCase creates the catalog over the row store and the cache.
func NewCatalogUseCase(
	coupons repository.CouponRepository,
	cache repository.OfferCacheRepository,
	freshness, retention time.Duration,
	logger *zap.Logger,
) OfferCatalog {
	return &catalogUseCase{
		coupons:   coupons,
		cache:     cache,
		freshness: freshness,
		retention: retention,
		logger:    logger,
		now:       time.Now,
	}
}

func (uc *catalogUseCase) Lookup(ctx context.Context, domain string) (*entity.DomainRecord, error) {
	if record, err := uc.cache.Get(ctx, domain); err != nil {
		uc.logger.Warn("cache read failed, falling through to store", zap.String("domain", domain), zap.Error(err))
	} else if record != nil && uc.now().Sub(record.LastUpdated) < uc.freshness {
		return record, nil
	}

	rows, err := uc.coupons.FindByDomain(ctx, domain)
	if err != nil {
		return nil, fmt.Errorf("find coupons for %s: %w", domain, err)
	}
	if len(rows) == 0 {
		return nil, repository.ErrStale
	}

	record := &entity.DomainRecord{Domain: domain}
	for _, row := range rows {
		record.Offers = append(record.Offers, entity.ResolvedOffer{
			Code:     row.Code,
			Discount: row.Discount,
			Terms:    row.Terms,
			Verified: row.Verified,
			Source:   entity.SourceName,
		})
		if row.LastUpdated.After(record.LastUpdated) {
			record.LastUpdated = row.LastUpdated
		}
	}
	if uc.now().Sub(record.LastUpdated) >= uc.freshness {
		return nil, repository.ErrStale
	}

	// Best-effort cache backfill; a failure only costs the next read a trip
	// to the store.
	if err := uc.cache.Set(ctx, record, uc.freshness); err != nil {
		uc.logger.Warn("cache backfill failed", zap.String("domain", domain), zap.Error(err))
	}
	return record, nil
}

func (uc *catalogUseCase) Save(ctx context.Context, domain string, offers []entity.ResolvedOffer) error {
	if len(offers) == 0 {
		// Never overwrite existing data with nothing.
		uc.logger.Info("no offers to persist", zap.String("domain", domain))
		return nil
	}

	now := uc.now()
	seen := make(map[string]bool, len(offers))
	rows := make([]entity.CouponRow, 0, len(offers))
	deduped := make([]entity.ResolvedOffer, 0, len(offers))
	for _, offer := range offers {
		key := domain + ":" + offer.Code
		if seen[key] {
			continue
		}
		seen[key] = true
		rows = append(rows, entity.CouponRow{
			Domain:      domain,
			Code:        offer.Code,
			Discount:    offer.Discount,
			Terms:       offer.Terms,
			Verified:    offer.Verified,
			Position:    len(rows),
			LastUpdated: now,
		})
		deduped = append(deduped, offer)
	}

	if err := uc.coupons.Upsert(ctx, rows); err != nil {
		return fmt.Errorf("persist offers for %s: %w", domain, err)
	}

	record := &entity.DomainRecord{Domain: domain, Offers: deduped, LastUpdated: now}
	if err := uc.cache.Set(ctx, record, uc.freshness); err != nil {
		uc.logger.Warn("cache refresh failed", zap.String("domain", domain), zap.Error(err))
	}

	uc.logger.Info("persisted offers",
		zap.String("domain", domain),
		zap.Int("offers", len(rows)),
		zap.Int("duplicates_dropped", len(offers)-len(rows)),
	)
	return nil
}

func (uc *catalogUseCase) Purge(ctx context.Context) (int64, error) {
	cutoff := uc.now().Add(-uc.retention)
	deleted, err := uc.coupons.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge stale coupons: %w", err)
	}
	uc.logger.Info("purged stale coupons", zap.Int64("deleted", deleted), zap.Time("cutoff", cutoff))
	return deleted, nil
}
