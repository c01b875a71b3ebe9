package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/coupon-service/internal/entity"
	"github.com/user/coupon-service/internal/repository"
	"go.uber.org/zap"
)

type fakeCatalog struct {
	records map[string]*entity.DomainRecord
	saved   map[string][]entity.ResolvedOffer
	purged  int64
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		records: map[string]*entity.DomainRecord{},
		saved:   map[string][]entity.ResolvedOffer{},
	}
}

func (f *fakeCatalog) Lookup(ctx context.Context, domain string) (*entity.DomainRecord, error) {
	if record, ok := f.records[domain]; ok {
		return record, nil
	}
	return nil, repository.ErrStale
}

func (f *fakeCatalog) Save(ctx context.Context, domain string, offers []entity.ResolvedOffer) error {
	f.saved[domain] = offers
	return nil
}

func (f *fakeCatalog) Purge(ctx context.Context) (int64, error) {
	return f.purged, nil
}

type fakeScraper struct {
	called chan string
}

func (f *fakeScraper) ScrapeDomain(ctx context.Context, domain string) ([]entity.ResolvedOffer, error) {
	f.called <- domain
	return nil, nil
}

func newTestHandler() (*Handler, *fakeCatalog, *fakeScraper) {
	catalog := newFakeCatalog()
	scraper := &fakeScraper{called: make(chan string, 1)}
	return NewHandler(catalog, scraper, zap.NewNop()), catalog, scraper
}

func TestGetCouponsRequiresDomain(t *testing.T) {
	h, _, _ := newTestHandler()
	rec := httptest.NewRecorder()
	h.HandleGetCoupons(rec, httptest.NewRequest(http.MethodGet, "/api/coupons", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetCouponsServesFreshRecord(t *testing.T) {
	h, catalog, _ := newTestHandler()
	catalog.records["example.com"] = &entity.DomainRecord{
		Domain:      "example.com",
		Offers:      []entity.ResolvedOffer{{Code: "SAVE10", Discount: "10% Off"}},
		LastUpdated: time.Now(),
	}

	rec := httptest.NewRecorder()
	h.HandleGetCoupons(rec, httptest.NewRequest(http.MethodGet, "/api/coupons?domain=example.com", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "fresh", body["status"])
}

func TestGetCouponsStaleTriggersBackgroundScrape(t *testing.T) {
	h, _, scraper := newTestHandler()

	rec := httptest.NewRecorder()
	h.HandleGetCoupons(rec, httptest.NewRequest(http.MethodGet, "/api/coupons?domain=example.com", nil))

	require.Equal(t, http.StatusAccepted, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "pending", body["status"])
	assert.NotZero(t, body["retry_after_seconds"])

	select {
	case domain := <-scraper.called:
		assert.Equal(t, "example.com", domain)
	case <-time.After(time.Second):
		t.Fatal("background scrape was not triggered")
	}
}

func TestScrapeDomainAcceptsAndRuns(t *testing.T) {
	h, _, scraper := newTestHandler()

	req := httptest.NewRequest(http.MethodPost, "/api/coupons/scrape",
		strings.NewReader(`{"domain":"https://www.Example.com/"}`))
	rec := httptest.NewRecorder()
	h.HandleScrapeDomain(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)
	select {
	case domain := <-scraper.called:
		assert.Equal(t, "example.com", domain, "domain is normalized before scraping")
	case <-time.After(time.Second):
		t.Fatal("scrape was not scheduled")
	}
}

func TestScrapeDomainRejectsBadBody(t *testing.T) {
	h, _, _ := newTestHandler()
	rec := httptest.NewRecorder()
	h.HandleScrapeDomain(rec, httptest.NewRequest(http.MethodPost, "/api/coupons/scrape", strings.NewReader("{")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpsertCouponsFillsSentinel(t *testing.T) {
	h, catalog, _ := newTestHandler()

	req := httptest.NewRequest(http.MethodPost, "/api/coupons",
		strings.NewReader(`{"domain":"example.com","offers":[{"discount":"10% Off"},{"code":"SAVE5","discount":"5% Off"}]}`))
	rec := httptest.NewRecorder()
	h.HandleUpsertCoupons(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	saved := catalog.saved["example.com"]
	require.Len(t, saved, 2)
	assert.Equal(t, entity.CodeSentinel, saved[0].Code, "missing code becomes the sentinel")
	assert.Equal(t, "SAVE5", saved[1].Code)
}

func TestPurgeStale(t *testing.T) {
	h, catalog, _ := newTestHandler()
	catalog.purged = 42

	rec := httptest.NewRecorder()
	h.HandlePurgeStale(rec, httptest.NewRequest(http.MethodDelete, "/api/coupons/stale", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.EqualValues(t, 42, body["deleted"])
}
