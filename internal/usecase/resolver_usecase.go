package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/user/coupon-service/internal/entity"
	"github.com/user/coupon-service/internal/repository"
	"github.com/user/coupon-service/internal/scraper"
	"github.com/user/coupon-service/pkg/metrics"
	"go.uber.org/zap"
)

// CodeResolver finalizes the codes of pending offer candidates.
type CodeResolver interface {
	Resolve(ctx context.Context, offers []entity.OfferCandidate) []entity.OfferCandidate
}

// ResolverConfig bounds the resolver's use of the shared browser.
type ResolverConfig struct {
	Concurrency int
	BatchSize   int
	ItemTimeout time.Duration
	ModalWait   time.Duration
	SettleDelay time.Duration
	RetryDelay  time.Duration
}

// DefaultResolverConfig returns the tuning used when no overrides are configured.
func DefaultResolverConfig() ResolverConfig {
	return ResolverConfig{
		Concurrency: 3,
		BatchSize:   5,
		ItemTimeout: 8 * time.Second,
		ModalWait:   4 * time.Second,
		SettleDelay: 500 * time.Millisecond,
		RetryDelay:  time.Second,
	}
}

type resolverUseCase struct {
	browser repository.BrowserRepository
	cfg     ResolverConfig
	logger  *zap.Logger
}

// NewResolverUseCase creates the code resolver.
func NewResolverUseCase(browser repository.BrowserRepository, cfg ResolverConfig, logger *zap.Logger) CodeResolver {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if cfg.BatchSize < 1 {
		cfg.BatchSize = 1
	}
	return &resolverUseCase{browser: browser, cfg: cfg, logger: logger}
}

// Resolve updates codes in place for candidates that carry a detail reference.
// Candidates resolved at listing time pass through untouched. Sequence order
// is preserved; a candidate whose detail page yields nothing keeps the
// sentinel, which downstream treats as "no code", not an error.
func (uc *resolverUseCase) Resolve(ctx context.Context, offers []entity.OfferCandidate) []entity.OfferCandidate {
	var pending []int
	for i := range offers {
		if offers[i].Pending() {
			pending = append(pending, i)
		}
	}
	if len(pending) == 0 {
		return offers
	}

	uc.logger.Info("resolving pending offers",
		zap.Int("pending", len(pending)),
		zap.Int("total", len(offers)),
	)

	// Batches run strictly sequentially so at most one batch's worth of pages
	// is ever open.
	for start := 0; start < len(pending); start += uc.cfg.BatchSize {
		end := start + uc.cfg.BatchSize
		if end > len(pending) {
			end = len(pending)
		}
		uc.resolveBatch(ctx, offers, pending[start:end])
	}
	return offers
}

// resolveBatch works one batch over a pool of page handles. Items map to pool
// slots round-robin, so each page serves its items sequentially while the
// slots run concurrently. All pages are closed before the method returns.
func (uc *resolverUseCase) resolveBatch(ctx context.Context, offers []entity.OfferCandidate, batch []int) {
	poolSize := uc.cfg.Concurrency
	if len(batch) < poolSize {
		poolSize = len(batch)
	}

	pages := make([]repository.Page, 0, poolSize)
	for i := 0; i < poolSize; i++ {
		page, err := uc.browser.NewPage(ctx, repository.DefaultBlockPolicy())
		if err != nil {
			uc.logger.Warn("failed to open resolver page", zap.Error(err))
			continue
		}
		pages = append(pages, page)
	}
	if len(pages) == 0 {
		uc.logger.Error("no resolver pages available, batch left unresolved", zap.Int("items", len(batch)))
		return
	}
	defer func() {
		for _, page := range pages {
			page.Close()
		}
	}()

	var wg sync.WaitGroup
	for slot := range pages {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			for k := slot; k < len(batch); k += len(pages) {
				uc.resolveItem(ctx, pages[slot], &offers[batch[k]])
			}
		}(slot)
	}
	wg.Wait()
}

// resolveItem loads one detail page and runs the extraction fallback chain,
// retrying the chain once after an extra settle. Every failure mode is local:
// the candidate keeps its sentinel and siblings are unaffected.
func (uc *resolverUseCase) resolveItem(ctx context.Context, page repository.Page, cand *entity.OfferCandidate) {
	itemCtx, cancel := context.WithTimeout(ctx, uc.cfg.ItemTimeout)
	defer cancel()

	if err := page.Navigate(itemCtx, cand.DetailRef, scraper.CodeWaitSelector(), uc.cfg.ModalWait); err != nil {
		metrics.ResolutionsTotal.WithLabelValues("error").Inc()
		uc.logger.Warn("detail navigation failed",
			zap.String("detail_ref", cand.DetailRef),
			zap.String("local_id", cand.LocalID),
			zap.Error(err),
		)
		return
	}

	if err := sleepCtx(itemCtx, uc.cfg.SettleDelay); err != nil {
		metrics.ResolutionsTotal.WithLabelValues("error").Inc()
		return
	}
	if uc.extractInto(itemCtx, page, cand) {
		metrics.ResolutionsTotal.WithLabelValues("resolved").Inc()
		return
	}

	// One more settle, one more pass over the chain, then give up.
	if err := sleepCtx(itemCtx, uc.cfg.RetryDelay); err != nil {
		metrics.ResolutionsTotal.WithLabelValues("error").Inc()
		return
	}
	if uc.extractInto(itemCtx, page, cand) {
		metrics.ResolutionsTotal.WithLabelValues("resolved").Inc()
		return
	}

	metrics.ResolutionsTotal.WithLabelValues("empty").Inc()
	uc.logger.Debug("no code found on detail page",
		zap.String("detail_ref", cand.DetailRef),
		zap.String("local_id", cand.LocalID),
	)
}

func (uc *resolverUseCase) extractInto(ctx context.Context, page repository.Page, cand *entity.OfferCandidate) bool {
	html, err := page.HTML(ctx)
	if err != nil {
		uc.logger.Warn("detail snapshot failed",
			zap.String("local_id", cand.LocalID),
			zap.Error(err),
		)
		return false
	}
	code, ok := scraper.ExtractCode(html)
	if !ok {
		return false
	}
	cand.Code = code
	return true
}

// sleepCtx waits for d or until the context ends, whichever comes first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
