package repository

import (
	"context"
	"time"
)

// BlockPolicy is a declarative deny list of resource types a page must not
// load. Values follow the DevTools protocol resource type names.
type BlockPolicy struct {
	Types []string
}

// DefaultBlockPolicy suppresses the heavy resource classes the extraction
// pipeline never needs rendered.
func DefaultBlockPolicy() BlockPolicy {
	return BlockPolicy{Types: []string{"Image", "Font", "Stylesheet", "Media"}}
}

// Page is a short-lived browser page handle. A Page is owned by exactly one
// goroutine at a time and must be closed when its work is done.
type Page interface {
	// Navigate loads a URL and, when waitSelector is non-empty, waits up to
	// waitTimeout for it to appear. The wait timing out is not an error; the
	// caller proceeds on a possibly-incomplete DOM.
	Navigate(ctx context.Context, url, waitSelector string, waitTimeout time.Duration) error
	// HTML returns a snapshot of the page's current DOM as serialized HTML.
	HTML(ctx context.Context) (string, error)
	// Close releases the page handle. In-flight operations are abandoned.
	Close()
}

// BrowserRepository hands out page handles backed by a shared, reusable
// browser process.
type BrowserRepository interface {
	// NewPage opens a page with anti-fingerprint patches applied before any
	// navigation and the given block policy enforced on its network requests.
	NewPage(ctx context.Context, policy BlockPolicy) (Page, error)
	// Shutdown closes the underlying browser process.
	Shutdown()
}
