package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/user/coupon-service/internal/entity"
	"github.com/user/coupon-service/pkg/utils"
)

const offerCachePrefix = "offers:"

// OfferCacheImpl provides a concrete implementation for the OfferCacheRepository interface using Redis.
type OfferCacheImpl struct {
	client *redis.Client
}

// NewOfferCache creates a new instance of OfferCacheImpl.
func NewOfferCache(client *redis.Client) *OfferCacheImpl {
	return &OfferCacheImpl{client: client}
}

// generateKey creates a consistent Redis key for a domain by hashing it.
func (r *OfferCacheImpl) generateKey(domain string) string {
	return fmt.Sprintf("%s%s", offerCachePrefix, utils.HashKey(domain))
}

// Get returns the cached record for a domain, or (nil, nil) on a miss.
func (r *OfferCacheImpl) Get(ctx context.Context, domain string) (*entity.DomainRecord, error) {
	payload, err := r.client.Get(ctx, r.generateKey(domain)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	var record entity.DomainRecord
	if err := json.Unmarshal(payload, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

// Set stores the record as JSON with the given TTL.
func (r *OfferCacheImpl) Set(ctx context.Context, record *entity.DomainRecord, ttl time.Duration) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, r.generateKey(record.Domain), payload, ttl).Err()
}

// Invalidate drops the cached record for a domain.
func (r *OfferCacheImpl) Invalidate(ctx context.Context, domain string) error {
	return r.client.Del(ctx, r.generateKey(domain)).Err()
}
