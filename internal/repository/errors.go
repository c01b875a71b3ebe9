package repository

import "errors"

var (
	// ErrLaunchFailed means the browser process could not start. Fatal to the
	// current scrape attempt; the orchestrator's retry loop handles it.
	ErrLaunchFailed = errors.New("browser launch failed")

	// ErrNavigationTimeout means a page navigation exceeded its deadline.
	ErrNavigationTimeout = errors.New("navigation timed out")

	// ErrStale means no record exists for the domain inside the freshness window.
	ErrStale = errors.New("no fresh record for domain")
)
