package scraper

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// codeStrategy pairs a selector with an accessor for the code it may carry.
// Strategies are tried in priority order; the first non-empty value wins.
type codeStrategy struct {
	selector string
	extract  func(*goquery.Selection) string
}

var codeStrategies = []codeStrategy{
	{"input#code", inputValue},
	{"input.coupon-code", inputValue},
	{".coupon-code", attrsThenText},
	{"[data-clipboard]", attrValue("data-clipboard")},
	{"[data-code]", attrValue("data-code")},
}

func inputValue(s *goquery.Selection) string {
	return strings.TrimSpace(s.AttrOr("value", ""))
}

// attrsThenText prefers the clipboard attribute, then the code attribute,
// then the element's trimmed text.
func attrsThenText(s *goquery.Selection) string {
	if v := strings.TrimSpace(s.AttrOr("data-clipboard", "")); v != "" {
		return v
	}
	if v := strings.TrimSpace(s.AttrOr("data-code", "")); v != "" {
		return v
	}
	return strings.TrimSpace(s.Text())
}

func attrValue(name string) func(*goquery.Selection) string {
	return func(s *goquery.Selection) string {
		return strings.TrimSpace(s.AttrOr(name, ""))
	}
}

// CodeWaitSelector returns the combined selector the resolver waits on before
// snapshotting a detail page. Any single strategy appearing is enough.
func CodeWaitSelector() string {
	parts := make([]string, len(codeStrategies))
	for i, st := range codeStrategies {
		parts[i] = st.selector
	}
	return strings.Join(parts, ", ")
}

// ExtractCode runs the fallback chain over a detail-page snapshot. The second
// return value is false when no strategy produced a code.
func ExtractCode(html string) (string, bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", false
	}
	for _, st := range codeStrategies {
		sel := doc.Find(st.selector).First()
		if sel.Length() == 0 {
			continue
		}
		if code := st.extract(sel); code != "" {
			return code, true
		}
	}
	return "", false
}
