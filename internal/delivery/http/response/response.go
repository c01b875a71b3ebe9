package response

import (
	"time"

	"github.com/user/coupon-service/internal/entity"
)

// CouponsResponse is the read-path DTO: fresh offers, or a pending marker
// with a retry hint while a scrape runs in the background.
type CouponsResponse struct {
	Domain            string                 `json:"domain"`
	Status            string                 `json:"status"` // "fresh" or "pending"
	Offers            []entity.ResolvedOffer `json:"offers"`
	LastUpdated       *time.Time             `json:"last_updated,omitempty"`
	RetryAfterSeconds int                    `json:"retry_after_seconds,omitempty"`
}

// ScrapeAcceptedResponse acknowledges a fire-and-forget scrape request.
type ScrapeAcceptedResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Domain  string `json:"domain"`
}

// UpsertResponse reports a direct deduplicated upsert.
type UpsertResponse struct {
	Status string `json:"status"`
	Domain string `json:"domain"`
	Saved  int    `json:"saved"`
}

// PurgeResponse reports a retention sweep.
type PurgeResponse struct {
	Status  string `json:"status"`
	Deleted int64  `json:"deleted"`
}
