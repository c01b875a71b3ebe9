package repository

import (
	"context"
	"time"

	"github.com/user/coupon-service/internal/entity"
)

// OfferCacheRepository defines the interface for the freshness-windowed cache
// sitting in front of the persistent store.
type OfferCacheRepository interface {
	// Get returns the cached record for a domain, or (nil, nil) on a miss.
	Get(ctx context.Context, domain string) (*entity.DomainRecord, error)
	// Set stores the record under the given TTL.
	Set(ctx context.Context, record *entity.DomainRecord, ttl time.Duration) error
	// Invalidate drops the cached record for a domain.
	Invalidate(ctx context.Context, domain string) error
}
