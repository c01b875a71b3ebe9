package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/user/coupon-service/internal/entity"
	"github.com/user/coupon-service/pkg/metrics"
	"go.uber.org/zap"
)

// DomainScraper runs the full extract-resolve-persist flow for one domain.
type DomainScraper interface {
	ScrapeDomain(ctx context.Context, domain string) ([]entity.ResolvedOffer, error)
}

// PipelineConfig bounds the orchestrator's retries and pacing.
type PipelineConfig struct {
	DomainRetries   int
	RetryDelay      time.Duration
	DomainBatchSize int
	BatchDelay      time.Duration
	CategoryDelay   time.Duration
}

// BulkReport aggregates one bulk run.
type BulkReport struct {
	Categories int `json:"categories"`
	Domains    int `json:"domains"`
	Succeeded  int `json:"succeeded"`
	Failed     int `json:"failed"`
}

// PipelineUseCase sequences listing extraction, code resolution, and
// persistence per domain, and runs domain batches across the category index.
type PipelineUseCase struct {
	listings   ListingFetcher
	resolver   CodeResolver
	enumerator DomainEnumerator
	catalog    OfferCatalog
	cfg        PipelineConfig
	logger     *zap.Logger
	categories []string
}

func NewPipelineUseCase(
	listings ListingFetcher,
	resolver CodeResolver,
	enumerator DomainEnumerator,
	catalog OfferCatalog,
	cfg PipelineConfig,
	logger *zap.Logger,
) *PipelineUseCase {
	if cfg.DomainBatchSize < 1 {
		cfg.DomainBatchSize = 1
	}
	return &PipelineUseCase{
		listings:   listings,
		resolver:   resolver,
		enumerator: enumerator,
		catalog:    catalog,
		cfg:        cfg,
		logger:     logger,
		categories: browseCategories(),
	}
}

// browseCategories lists the letter buckets plus the catch-all bucket for
// domains that start with a digit.
func browseCategories() []string {
	cats := make([]string, 0, 27)
	for c := 'a'; c <= 'z'; c++ {
		cats = append(cats, string(c))
	}
	return append(cats, "num")
}

// ScrapeDomain runs the per-domain flow under a bounded retry loop. A domain
// that exhausts its retries returns an error; it never panics or aborts
// sibling domains.
func (uc *PipelineUseCase) ScrapeDomain(ctx context.Context, domain string) ([]entity.ResolvedOffer, error) {
	start := time.Now()
	var lastErr error
	for attempt := 0; attempt <= uc.cfg.DomainRetries; attempt++ {
		if attempt > 0 {
			uc.logger.Info("retrying domain",
				zap.String("domain", domain),
				zap.Int("attempt", attempt+1),
			)
			if err := sleepCtx(ctx, uc.cfg.RetryDelay); err != nil {
				return nil, err
			}
		}

		offers, err := uc.scrapeOnce(ctx, domain)
		if err == nil {
			metrics.ScrapesTotal.WithLabelValues("success").Inc()
			metrics.ScrapeDuration.WithLabelValues(domain).Observe(time.Since(start).Seconds())
			return offers, nil
		}
		lastErr = err
		uc.logger.Warn("domain scrape attempt failed",
			zap.String("domain", domain),
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)
	}

	metrics.ScrapesTotal.WithLabelValues("failure").Inc()
	return nil, fmt.Errorf("domain %s failed after %d attempts: %w", domain, uc.cfg.DomainRetries+1, lastErr)
}

func (uc *PipelineUseCase) scrapeOnce(ctx context.Context, domain string) ([]entity.ResolvedOffer, error) {
	candidates, err := uc.listings.Fetch(ctx, domain)
	if err != nil {
		return nil, err
	}

	resolved := uc.resolver.Resolve(ctx, candidates)

	offers := make([]entity.ResolvedOffer, 0, len(resolved))
	for i := range resolved {
		offers = append(offers, resolved[i].Resolve())
	}

	if err := uc.catalog.Save(ctx, domain, offers); err != nil {
		return nil, err
	}
	return offers, nil
}

// RunBulk walks every browse category, scraping its domains in fixed-size
// concurrent waves with politeness delays between waves and categories. A
// run that resolves nothing is a hard failure.
func (uc *PipelineUseCase) RunBulk(ctx context.Context) (*BulkReport, error) {
	report := &BulkReport{}

	for i, category := range uc.categories {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if i > 0 {
			if err := sleepCtx(ctx, uc.cfg.CategoryDelay); err != nil {
				return report, err
			}
		}

		domains, err := uc.enumerator.Enumerate(ctx, category)
		if err != nil {
			uc.logger.Warn("category enumeration failed, skipping",
				zap.String("category", category),
				zap.Error(err),
			)
			continue
		}
		report.Categories++

		for start := 0; start < len(domains); start += uc.cfg.DomainBatchSize {
			if start > 0 {
				if err := sleepCtx(ctx, uc.cfg.BatchDelay); err != nil {
					return report, err
				}
			}
			end := start + uc.cfg.DomainBatchSize
			if end > len(domains) {
				end = len(domains)
			}
			uc.scrapeWave(ctx, domains[start:end], report)
		}
	}

	uc.logger.Info("bulk run finished",
		zap.Int("categories", report.Categories),
		zap.Int("domains", report.Domains),
		zap.Int("succeeded", report.Succeeded),
		zap.Int("failed", report.Failed),
	)
	if report.Categories == 0 {
		return report, errors.New("bulk run reached no categories")
	}
	if report.Domains > 0 && report.Succeeded == 0 {
		return report, errors.New("bulk run resolved zero domains")
	}
	return report, nil
}

func (uc *PipelineUseCase) scrapeWave(ctx context.Context, domains []string, report *BulkReport) {
	var wg sync.WaitGroup
	var mu sync.Mutex
	for _, domain := range domains {
		wg.Add(1)
		go func(domain string) {
			defer wg.Done()
			_, err := uc.ScrapeDomain(ctx, domain)
			mu.Lock()
			defer mu.Unlock()
			report.Domains++
			if err != nil {
				report.Failed++
			} else {
				report.Succeeded++
			}
		}(domain)
	}
	wg.Wait()
}
