package repository

import (
	"context"
	"time"

	"github.com/user/coupon-service/internal/entity"
)

// CouponRepository defines the interface for the persisted coupon rows,
// unique on (domain, code).
type CouponRepository interface {
	// Upsert writes the rows, updating discount/terms/verified/position and
	// the last-updated timestamp for keys that already exist. Safe to repeat.
	Upsert(ctx context.Context, rows []entity.CouponRow) error
	// FindByDomain returns the rows for a domain in listing order.
	FindByDomain(ctx context.Context, domain string) ([]entity.CouponRow, error)
	// DeleteOlderThan removes rows last updated before the cutoff and returns
	// how many were deleted.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
