package scraper

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/user/coupon-service/internal/entity"
	"github.com/user/coupon-service/pkg/utils"
)

// ListingCardSelector matches the offer cards on a merchant's listing page.
// Used both as the navigation wait target and as the extraction root.
const ListingCardSelector = ".offer-card"

const (
	defaultDiscount = "Discount"
	defaultTerms    = "Terms apply"

	// The aggregation site emits Python-style casing here. Matched literally;
	// "true" is not verified.
	verifiedMarker = "True"
)

// ParseOffers extracts offer candidates from a listing page snapshot. Only
// cards tagged as coupon type count; ordering follows the DOM.
func ParseOffers(html string) ([]entity.OfferCandidate, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	var offers []entity.OfferCandidate
	doc.Find(ListingCardSelector).Each(func(_ int, card *goquery.Selection) {
		if card.AttrOr("data-type", "") != "coupon" {
			return
		}

		discount := strings.TrimSpace(card.Find(".offer-discount").First().Text())
		if discount == "" {
			discount = defaultDiscount
		}
		terms := strings.TrimSpace(card.Find(".offer-terms").First().Text())
		if terms == "" {
			terms = defaultTerms
		}

		cand := entity.OfferCandidate{
			SequenceID: len(offers),
			Code:       entity.CodeSentinel,
			Discount:   discount,
			Terms:      terms,
			Verified:   card.AttrOr("data-verified", "") == verifiedMarker,
			Source:     entity.SourceName,
			DetailRef:  strings.TrimSpace(card.AttrOr("data-modal", "")),
			LocalID:    utils.RandomID(),
		}

		// Codes sometimes appear inline on the card itself; those candidates
		// bypass the resolver entirely.
		if inline := strings.TrimSpace(card.Find(".coupon-code").First().Text()); inline != "" {
			cand.Code = inline
		} else if clip := strings.TrimSpace(card.AttrOr("data-clipboard", "")); clip != "" {
			cand.Code = clip
		}

		offers = append(offers, cand)
	})

	return offers, nil
}
