package scraper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractCodeFallbackChain(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
		ok   bool
	}{
		{
			name: "input with code id",
			html: `<input id="code" value="WELCOME20">`,
			want: "WELCOME20",
			ok:   true,
		},
		{
			name: "generic code input",
			html: `<input class="coupon-code" value="FALLBACK5">`,
			want: "FALLBACK5",
			ok:   true,
		},
		{
			name: "code element prefers clipboard attribute",
			html: `<span class="coupon-code" data-clipboard="CLIPPED" data-code="ATTR">TEXT</span>`,
			want: "CLIPPED",
			ok:   true,
		},
		{
			name: "code element falls back to code attribute",
			html: `<span class="coupon-code" data-code="ATTR">TEXT</span>`,
			want: "ATTR",
			ok:   true,
		},
		{
			name: "code element falls back to trimmed text",
			html: `<span class="coupon-code">  TEXT  </span>`,
			want: "TEXT",
			ok:   true,
		},
		{
			name: "bare clipboard attribute",
			html: `<div data-clipboard="BARECLIP"></div>`,
			want: "BARECLIP",
			ok:   true,
		},
		{
			name: "bare code attribute",
			html: `<div data-code="BARECODE"></div>`,
			want: "BARECODE",
			ok:   true,
		},
		{
			name: "input id wins over everything else",
			html: `<input id="code" value="PRIMARY"><span class="coupon-code">SECONDARY</span>`,
			want: "PRIMARY",
			ok:   true,
		},
		{
			name: "empty input value moves down the chain",
			html: `<input id="code" value=""><div data-code="NEXT"></div>`,
			want: "NEXT",
			ok:   true,
		},
		{
			name: "nothing matches",
			html: `<html><body><p>no codes here</p></body></html>`,
			want: "",
			ok:   false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ExtractCode(tc.html)
			require.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestCodeWaitSelectorCoversChain(t *testing.T) {
	sel := CodeWaitSelector()
	assert.Contains(t, sel, "input#code")
	assert.Contains(t, sel, "[data-clipboard]")
	assert.Contains(t, sel, "[data-code]")
}
