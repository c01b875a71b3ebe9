package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/user/coupon-service/internal/entity"
	"github.com/user/coupon-service/internal/repository"
	"github.com/user/coupon-service/internal/scraper"
	"github.com/user/coupon-service/pkg/metrics"
	"go.uber.org/zap"
)

// ListingFetcher produces offer candidates for a merchant domain.
type ListingFetcher interface {
	Fetch(ctx context.Context, domain string) ([]entity.OfferCandidate, error)
}

type listingUseCase struct {
	browser    repository.BrowserRepository
	baseURL    string
	navTimeout time.Duration
	cardWait   time.Duration
	logger     *zap.Logger
}

// NewListingUseCase creates the offer-list extractor.
func NewListingUseCase(
	browser repository.BrowserRepository,
	baseURL string,
	navTimeout, cardWait time.Duration,
	logger *zap.Logger,
) ListingFetcher {
	return &listingUseCase{
		browser:    browser,
		baseURL:    baseURL,
		navTimeout: navTimeout,
		cardWait:   cardWait,
		logger:     logger,
	}
}

// Fetch renders the domain's listing page with heavy resources suppressed and
// extracts its coupon cards in DOM order. An empty or partial DOM yields an
// empty or partial result, not an error.
func (uc *listingUseCase) Fetch(ctx context.Context, domain string) ([]entity.OfferCandidate, error) {
	page, err := uc.browser.NewPage(ctx, repository.DefaultBlockPolicy())
	if err != nil {
		return nil, fmt.Errorf("open listing page for %s: %w", domain, err)
	}
	defer page.Close()

	navCtx, cancel := context.WithTimeout(ctx, uc.navTimeout)
	defer cancel()

	listingURL := uc.baseURL + "/site/" + domain
	if err := page.Navigate(navCtx, listingURL, scraper.ListingCardSelector, uc.cardWait); err != nil {
		if !errors.Is(err, repository.ErrNavigationTimeout) {
			return nil, fmt.Errorf("load listing for %s: %w", domain, err)
		}
		// A slow page is not fatal; extract whatever rendered in time.
		uc.logger.Warn("listing navigation timed out, extracting partial DOM", zap.String("domain", domain))
	}

	html, err := page.HTML(ctx)
	if err != nil {
		return nil, fmt.Errorf("snapshot listing for %s: %w", domain, err)
	}

	offers, err := scraper.ParseOffers(html)
	if err != nil {
		return nil, fmt.Errorf("parse listing for %s: %w", domain, err)
	}

	metrics.OffersExtracted.Add(float64(len(offers)))
	uc.logger.Info("extracted listing",
		zap.String("domain", domain),
		zap.Int("offers", len(offers)),
	)
	return offers, nil
}
