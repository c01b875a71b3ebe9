package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/user/coupon-service/internal/entity"
)

// CouponRepoImpl provides a concrete implementation for the CouponRepository interface using PostgreSQL.
type CouponRepoImpl struct {
	db *pgxpool.Pool
}

// NewCouponRepo creates a new instance of CouponRepoImpl.
func NewCouponRepo(db *pgxpool.Pool) *CouponRepoImpl {
	return &CouponRepoImpl{db: db}
}

// InitSchema creates the coupons table when it does not exist yet.
func (r *CouponRepoImpl) InitSchema(ctx context.Context) error {
	_, err := r.db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS coupons (
			domain       TEXT        NOT NULL,
			code         TEXT        NOT NULL,
			discount     TEXT        NOT NULL,
			terms        TEXT        NOT NULL,
			verified     BOOLEAN     NOT NULL DEFAULT FALSE,
			position     INT         NOT NULL DEFAULT 0,
			last_updated TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (domain, code)
		);
	`)
	return err
}

// Upsert writes the rows keyed on (domain, code). Repeating the call with the
// same input leaves the table in the same state.
func (r *CouponRepoImpl) Upsert(ctx context.Context, rows []entity.CouponRow) error {
	if len(rows) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, row := range rows {
		batch.Queue(`
			INSERT INTO coupons (domain, code, discount, terms, verified, position, last_updated)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (domain, code) DO UPDATE SET
				discount = EXCLUDED.discount,
				terms = EXCLUDED.terms,
				verified = EXCLUDED.verified,
				position = EXCLUDED.position,
				last_updated = EXCLUDED.last_updated;
		`,
			row.Domain, row.Code, row.Discount, row.Terms, row.Verified, row.Position, row.LastUpdated,
		)
	}
	return r.db.SendBatch(ctx, batch).Close()
}

// FindByDomain retrieves a domain's rows in listing order.
func (r *CouponRepoImpl) FindByDomain(ctx context.Context, domain string) ([]entity.CouponRow, error) {
	rows, err := r.db.Query(ctx, `
		SELECT domain, code, discount, terms, verified, position, last_updated
		FROM coupons
		WHERE domain = $1
		ORDER BY position ASC;
	`, domain)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []entity.CouponRow
	for rows.Next() {
		var row entity.CouponRow
		if err := rows.Scan(
			&row.Domain,
			&row.Code,
			&row.Discount,
			&row.Terms,
			&row.Verified,
			&row.Position,
			&row.LastUpdated,
		); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// DeleteOlderThan removes rows past the retention window.
func (r *CouponRepoImpl) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM coupons WHERE last_updated < $1;`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
