package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/user/coupon-service/internal/repository"
	"github.com/user/coupon-service/internal/scraper"
	"go.uber.org/zap"
)

// DomainEnumerator walks a category index and yields merchant domains.
type DomainEnumerator interface {
	Enumerate(ctx context.Context, category string) ([]string, error)
}

type enumeratorUseCase struct {
	browser    repository.BrowserRepository
	baseURL    string
	navTimeout time.Duration
	logger     *zap.Logger
}

// NewEnumeratorUseCase creates the domain enumerator.
func NewEnumeratorUseCase(browser repository.BrowserRepository, baseURL string, navTimeout time.Duration, logger *zap.Logger) DomainEnumerator {
	return &enumeratorUseCase{
		browser:    browser,
		baseURL:    baseURL,
		navTimeout: navTimeout,
		logger:     logger,
	}
}

// Enumerate loads one browse category and extracts its merchant slugs.
// Duplicates across categories are left in; the persistence key absorbs them.
func (uc *enumeratorUseCase) Enumerate(ctx context.Context, category string) ([]string, error) {
	page, err := uc.browser.NewPage(ctx, repository.DefaultBlockPolicy())
	if err != nil {
		return nil, fmt.Errorf("open browse page for %q: %w", category, err)
	}
	defer page.Close()

	navCtx, cancel := context.WithTimeout(ctx, uc.navTimeout)
	defer cancel()

	browseURL := uc.baseURL + "/browse/" + category
	if err := page.Navigate(navCtx, browseURL, scraper.DomainAnchorSelector, uc.navTimeout/2); err != nil {
		if !errors.Is(err, repository.ErrNavigationTimeout) {
			return nil, fmt.Errorf("load browse page for %q: %w", category, err)
		}
		uc.logger.Warn("browse navigation timed out, extracting partial DOM", zap.String("category", category))
	}

	html, err := page.HTML(ctx)
	if err != nil {
		return nil, fmt.Errorf("snapshot browse page for %q: %w", category, err)
	}

	domains, err := scraper.ParseDomains(html)
	if err != nil {
		return nil, fmt.Errorf("parse browse page for %q: %w", category, err)
	}

	uc.logger.Info("enumerated category",
		zap.String("category", category),
		zap.Int("domains", len(domains)),
	)
	return domains, nil
}
