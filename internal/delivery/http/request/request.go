package request

// ScrapeRequest triggers an asynchronous scrape of one merchant domain.
type ScrapeRequest struct {
	Domain string `json:"domain"`
}

// OfferPayload is an externally supplied offer on the direct upsert path.
type OfferPayload struct {
	Code     string `json:"code"`
	Discount string `json:"discount"`
	Terms    string `json:"terms"`
	Verified bool   `json:"verified"`
}

// UpsertRequest carries externally supplied offers, bypassing extraction.
type UpsertRequest struct {
	Domain string         `json:"domain"`
	Offers []OfferPayload `json:"offers"`
}
