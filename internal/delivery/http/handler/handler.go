package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/user/coupon-service/internal/delivery/http/request"
	"github.com/user/coupon-service/internal/delivery/http/response"
	"github.com/user/coupon-service/internal/entity"
	"github.com/user/coupon-service/internal/repository"
	"github.com/user/coupon-service/internal/usecase"
	"github.com/user/coupon-service/pkg/utils"
	"go.uber.org/zap"
)

const (
	retryHintSeconds   = 15
	asyncScrapeTimeout = 10 * time.Minute
)

type Handler struct {
	catalog usecase.OfferCatalog
	scraper usecase.DomainScraper
	logger  *zap.Logger
}

func NewHandler(catalog usecase.OfferCatalog, scraper usecase.DomainScraper, logger *zap.Logger) *Handler {
	return &Handler{
		catalog: catalog,
		scraper: scraper,
		logger:  logger,
	}
}

// HandleGetCoupons serves fresh cached offers when available. A stale or
// missing record triggers a background scrape and returns a pending result;
// internal errors never reach the caller on this path.
func (h *Handler) HandleGetCoupons(w http.ResponseWriter, r *http.Request) {
	domain := utils.NormalizeDomain(r.URL.Query().Get("domain"))
	if domain == "" {
		h.writeJSONError(w, "domain query parameter is required", http.StatusBadRequest)
		return
	}

	record, err := h.catalog.Lookup(r.Context(), domain)
	if err == nil {
		h.writeJSON(w, http.StatusOK, response.CouponsResponse{
			Domain:      domain,
			Status:      "fresh",
			Offers:      record.Offers,
			LastUpdated: &record.LastUpdated,
		})
		return
	}

	if errors.Is(err, repository.ErrStale) {
		h.scrapeAsync(domain)
	} else {
		h.logger.Error("coupon lookup failed", zap.String("domain", domain), zap.Error(err))
	}

	h.writeJSON(w, http.StatusAccepted, response.CouponsResponse{
		Domain:            domain,
		Status:            "pending",
		Offers:            []entity.ResolvedOffer{},
		RetryAfterSeconds: retryHintSeconds,
	})
}

// HandleScrapeDomain accepts a scrape request and runs the pipeline in the
// background. Errors are logged, never surfaced to the caller.
func (h *Handler) HandleScrapeDomain(w http.ResponseWriter, r *http.Request) {
	var req request.ScrapeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	domain := utils.NormalizeDomain(req.Domain)
	if domain == "" {
		h.writeJSONError(w, "domain is required", http.StatusBadRequest)
		return
	}

	h.scrapeAsync(domain)
	h.writeJSON(w, http.StatusAccepted, response.ScrapeAcceptedResponse{
		Status:  "accepted",
		Message: "scrape scheduled",
		Domain:  domain,
	})
}

// HandleUpsertCoupons persists externally supplied offers, bypassing extraction.
func (h *Handler) HandleUpsertCoupons(w http.ResponseWriter, r *http.Request) {
	var req request.UpsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	domain := utils.NormalizeDomain(req.Domain)
	if domain == "" {
		h.writeJSONError(w, "domain is required", http.StatusBadRequest)
		return
	}

	offers := make([]entity.ResolvedOffer, 0, len(req.Offers))
	for _, o := range req.Offers {
		code := o.Code
		if code == "" {
			code = entity.CodeSentinel
		}
		offers = append(offers, entity.ResolvedOffer{
			Code:     code,
			Discount: o.Discount,
			Terms:    o.Terms,
			Verified: o.Verified,
			Source:   entity.SourceName,
		})
	}

	if err := h.catalog.Save(r.Context(), domain, offers); err != nil {
		h.logger.Error("direct upsert failed", zap.String("domain", domain), zap.Error(err))
		h.writeJSONError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, response.UpsertResponse{
		Status: "success",
		Domain: domain,
		Saved:  len(offers),
	})
}

// HandlePurgeStale deletes persisted records past the retention window.
func (h *Handler) HandlePurgeStale(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.catalog.Purge(r.Context())
	if err != nil {
		h.logger.Error("purge failed", zap.Error(err))
		h.writeJSONError(w, "internal server error", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, response.PurgeResponse{Status: "success", Deleted: deleted})
}

func (h *Handler) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// scrapeAsync runs the pipeline detached from the request lifecycle.
func (h *Handler) scrapeAsync(domain string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), asyncScrapeTimeout)
		defer cancel()
		if _, err := h.scraper.ScrapeDomain(ctx, domain); err != nil {
			h.logger.Error("background scrape failed", zap.String("domain", domain), zap.Error(err))
		}
	}()
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}

func (h *Handler) writeJSONError(w http.ResponseWriter, message string, status int) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
