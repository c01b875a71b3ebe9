package scraper

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// sitePrefix is the path prefix the aggregation site uses for merchant pages.
const sitePrefix = "/site/"

// DomainAnchorSelector matches merchant links on a category browse page.
const DomainAnchorSelector = `a[href^="` + sitePrefix + `"]`

// ParseDomains extracts merchant domain slugs from a browse-page snapshot.
// Duplicates across categories are not filtered here; the persistence key
// absorbs them.
func ParseDomains(html string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	var domains []string
	doc.Find(DomainAnchorSelector).Each(func(_ int, a *goquery.Selection) {
		href := a.AttrOr("href", "")
		slug := strings.TrimPrefix(href, sitePrefix)
		if i := strings.IndexAny(slug, "?#"); i >= 0 {
			slug = slug[:i]
		}
		slug = strings.Trim(slug, "/")
		if slug != "" {
			domains = append(domains, slug)
		}
	})
	return domains, nil
}
