package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/user/coupon-service/internal/entity"
	"github.com/user/coupon-service/internal/repository"
)

// fakeBrowser hands out pages that serve canned HTML per URL. Navigation
// attempts are recorded across all pages.
type fakeBrowser struct {
	mu          sync.Mutex
	pagesOpened int
	navigations []string
	navErr      map[string]error
	// navDelay stalls navigation to a URL until the delay elapses or the
	// caller's context ends.
	navDelay map[string]time.Duration
	// htmlByURL holds successive snapshots per URL; the last entry repeats
	// once the queue is drained.
	htmlByURL map[string][]string
	served    map[string]int
}

func newFakeBrowser() *fakeBrowser {
	return &fakeBrowser{
		navErr:    map[string]error{},
		navDelay:  map[string]time.Duration{},
		htmlByURL: map[string][]string{},
		served:    map[string]int{},
	}
}

func (b *fakeBrowser) NewPage(ctx context.Context, policy repository.BlockPolicy) (repository.Page, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pagesOpened++
	return &fakePage{browser: b}, nil
}

func (b *fakeBrowser) Shutdown() {}

func (b *fakeBrowser) navigationCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.navigations)
}

type fakePage struct {
	browser *fakeBrowser
	current string
}

func (p *fakePage) Navigate(ctx context.Context, url, waitSelector string, waitTimeout time.Duration) error {
	b := p.browser
	b.mu.Lock()
	b.navigations = append(b.navigations, url)
	p.current = url
	delay := b.navDelay[url]
	err := b.navErr[url]
	b.mu.Unlock()
	if delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

func (p *fakePage) HTML(ctx context.Context) (string, error) {
	b := p.browser
	b.mu.Lock()
	defer b.mu.Unlock()
	snapshots := b.htmlByURL[p.current]
	if len(snapshots) == 0 {
		return "<html></html>", nil
	}
	i := b.served[p.current]
	if i >= len(snapshots) {
		i = len(snapshots) - 1
	}
	b.served[p.current]++
	return snapshots[i], nil
}

func (p *fakePage) Close() {}

// fakeCouponRepo is an in-memory CouponRepository keyed on domain:code.
type fakeCouponRepo struct {
	mu      sync.Mutex
	rows    map[string]entity.CouponRow
	order   []string
	upserts int
	err     error
}

func newFakeCouponRepo() *fakeCouponRepo {
	return &fakeCouponRepo{rows: map[string]entity.CouponRow{}}
}

func (f *fakeCouponRepo) Upsert(ctx context.Context, rows []entity.CouponRow) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.upserts++
	for _, row := range rows {
		key := row.Domain + ":" + row.Code
		if _, ok := f.rows[key]; !ok {
			f.order = append(f.order, key)
		}
		f.rows[key] = row
	}
	return nil
}

func (f *fakeCouponRepo) FindByDomain(ctx context.Context, domain string) ([]entity.CouponRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	var out []entity.CouponRow
	for _, key := range f.order {
		if row := f.rows[key]; row.Domain == domain {
			out = append(out, row)
		}
	}
	return out, nil
}

func (f *fakeCouponRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var deleted int64
	kept := f.order[:0]
	for _, key := range f.order {
		if f.rows[key].LastUpdated.Before(cutoff) {
			delete(f.rows, key)
			deleted++
			continue
		}
		kept = append(kept, key)
	}
	f.order = kept
	return deleted, nil
}

// fakeOfferCache is an in-memory OfferCacheRepository; TTLs are ignored
// because freshness checks run against record timestamps.
type fakeOfferCache struct {
	mu      sync.Mutex
	records map[string]*entity.DomainRecord
}

func newFakeOfferCache() *fakeOfferCache {
	return &fakeOfferCache{records: map[string]*entity.DomainRecord{}}
}

func (f *fakeOfferCache) Get(ctx context.Context, domain string) (*entity.DomainRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.records[domain], nil
}

func (f *fakeOfferCache) Set(ctx context.Context, record *entity.DomainRecord, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records[record.Domain] = record
	return nil
}

func (f *fakeOfferCache) Invalidate(ctx context.Context, domain string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.records, domain)
	return nil
}
