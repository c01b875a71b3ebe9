package scraper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/coupon-service/internal/entity"
)

const listingHTML = `
<html><body>
	<div class="offer-card" data-type="coupon" data-verified="True" data-modal="https://example.com/offers/1">
		<span class="offer-discount">20% Off</span>
		<span class="offer-terms">New customers only</span>
	</div>
	<div class="offer-card" data-type="deal">
		<span class="offer-discount">Free Shipping</span>
	</div>
	<div class="offer-card" data-type="coupon" data-verified="true">
		<span class="coupon-code">SAVE10</span>
	</div>
	<div class="offer-card" data-type="coupon" data-clipboard="CLIP15">
		<span class="offer-discount">15% Off</span>
	</div>
</body></html>`

func TestParseOffersFiltersAndOrders(t *testing.T) {
	offers, err := ParseOffers(listingHTML)
	require.NoError(t, err)
	require.Len(t, offers, 3, "deal-type cards must be skipped")

	for i, o := range offers {
		assert.Equal(t, i, o.SequenceID)
		assert.Equal(t, entity.SourceName, o.Source)
		assert.NotEmpty(t, o.LocalID)
		assert.NotEmpty(t, o.Discount)
		assert.NotEmpty(t, o.Terms)
	}
}

func TestParseOffersFieldExtraction(t *testing.T) {
	offers, err := ParseOffers(listingHTML)
	require.NoError(t, err)
	require.Len(t, offers, 3)

	first := offers[0]
	assert.Equal(t, "20% Off", first.Discount)
	assert.Equal(t, "New customers only", first.Terms)
	assert.True(t, first.Verified)
	assert.Equal(t, entity.CodeSentinel, first.Code)
	assert.Equal(t, "https://example.com/offers/1", first.DetailRef)
	assert.True(t, first.Pending())
}

func TestParseOffersDefaults(t *testing.T) {
	offers, err := ParseOffers(`<div class="offer-card" data-type="coupon"></div>`)
	require.NoError(t, err)
	require.Len(t, offers, 1)
	assert.Equal(t, "Discount", offers[0].Discount)
	assert.Equal(t, "Terms apply", offers[0].Terms)
	assert.False(t, offers[0].Verified)
	assert.False(t, offers[0].Pending(), "no detail ref means nothing to resolve")
}

func TestParseOffersVerifiedIsExactMatch(t *testing.T) {
	offers, err := ParseOffers(listingHTML)
	require.NoError(t, err)
	require.Len(t, offers, 3)
	assert.False(t, offers[1].Verified, `lowercase "true" must not count as verified`)
}

func TestParseOffersInlineCodes(t *testing.T) {
	offers, err := ParseOffers(listingHTML)
	require.NoError(t, err)
	require.Len(t, offers, 3)

	assert.Equal(t, "SAVE10", offers[1].Code, "inline code element wins")
	assert.Equal(t, "CLIP15", offers[2].Code, "clipboard attribute is the fallback")
	assert.False(t, offers[1].Pending())
	assert.False(t, offers[2].Pending())
}

func TestParseOffersEmptyDocument(t *testing.T) {
	offers, err := ParseOffers("<html><body></body></html>")
	require.NoError(t, err)
	assert.Empty(t, offers)
}
