package entity

import "time"

// CodeSentinel is the placeholder code for offers whose real code has not been
// revealed (automatic discounts, or detail pages that never yielded a code).
const CodeSentinel = "AUTOMATIC"

// SourceName identifies the aggregation site all offers are extracted from.
const SourceName = "CouponFollow"

// OfferCandidate is a raw listing entry produced by one scan of a merchant's
// listing page. SequenceID and LocalID only correlate the candidate with its
// resolution outcome within that scan; they are never persisted.
type OfferCandidate struct {
	SequenceID int
	Code       string
	Discount   string
	Terms      string
	Verified   bool
	Source     string
	DetailRef  string
	LocalID    string
}

// Pending reports whether the candidate still needs a secondary page load to
// reveal its code.
func (c *OfferCandidate) Pending() bool {
	return c.DetailRef != "" && c.Code == CodeSentinel
}

// Resolve strips the per-scan fields, yielding the shape that leaves the pipeline.
func (c *OfferCandidate) Resolve() ResolvedOffer {
	return ResolvedOffer{
		Code:     c.Code,
		Discount: c.Discount,
		Terms:    c.Terms,
		Verified: c.Verified,
		Source:   c.Source,
	}
}

// ResolvedOffer is an offer with its code finalized (a real code or the sentinel).
type ResolvedOffer struct {
	Code     string `json:"code"`
	Discount string `json:"discount"`
	Terms    string `json:"terms"`
	Verified bool   `json:"verified"`
	Source   string `json:"source"`
}

// DomainRecord is the read model for one merchant domain: the resolved offers
// in listing order plus the timestamp governing cache freshness.
type DomainRecord struct {
	Domain      string          `json:"domain"`
	Offers      []ResolvedOffer `json:"offers"`
	LastUpdated time.Time       `json:"last_updated"`
}

// CouponRow mirrors the `coupons` PostgreSQL table schema, unique on (domain, code).
// Position preserves listing order across the keyed rows.
type CouponRow struct {
	Domain      string
	Code        string
	Discount    string
	Terms       string
	Verified    bool
	Position    int
	LastUpdated time.Time
}
