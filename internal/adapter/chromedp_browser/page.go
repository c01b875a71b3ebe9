package chromedp_browser

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/fetch"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/user/coupon-service/internal/repository"
	"go.uber.org/zap"
)

// stealthScript patches the fingerprint surfaces automation detectors probe.
// It must be installed before any page script runs.
const stealthScript = `
Object.defineProperty(navigator, 'webdriver', { get: () => undefined });
window.chrome = { runtime: {} };
Object.defineProperty(navigator, 'languages', { get: () => ['en-US', 'en'] });
Object.defineProperty(navigator, 'plugins', { get: () => [1, 2, 3, 4, 5] });
Object.defineProperty(navigator, 'vendor', { get: () => 'Google Inc.' });
`

// NewPage opens a page on the shared session with the stealth bootstrap and
// the block policy installed before any navigation.
func (m *SessionManager) NewPage(ctx context.Context, policy repository.BlockPolicy) (repository.Page, error) {
	browserCtx, err := m.acquire(ctx)
	if err != nil {
		return nil, err
	}

	pageCtx, cancel := chromedp.NewContext(browserCtx)
	if err := chromedp.Run(pageCtx,
		network.Enable(),
		network.SetExtraHTTPHeaders(network.Headers{"Accept-Language": "en-US,en;q=0.9"}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			_, err := page.AddScriptToEvaluateOnNewDocument(stealthScript).Do(ctx)
			return err
		}),
	); err != nil {
		cancel()
		return nil, fmt.Errorf("bootstrap page: %w", err)
	}

	if len(policy.Types) > 0 {
		if err := installBlocker(pageCtx, policy); err != nil {
			cancel()
			return nil, fmt.Errorf("install block policy: %w", err)
		}
	}

	return &browserPage{ctx: pageCtx, cancel: cancel, manager: m, logger: m.logger}, nil
}

// installBlocker enforces the resource-type deny list via fetch interception.
func installBlocker(pageCtx context.Context, policy repository.BlockPolicy) error {
	denied := make(map[network.ResourceType]bool, len(policy.Types))
	for _, t := range policy.Types {
		denied[network.ResourceType(t)] = true
	}

	chromedp.ListenTarget(pageCtx, func(ev interface{}) {
		req, ok := ev.(*fetch.EventRequestPaused)
		if !ok {
			return
		}
		go func() {
			c := chromedp.FromContext(pageCtx)
			execCtx := cdp.WithExecutor(pageCtx, c.Target)
			if denied[req.ResourceType] {
				_ = fetch.FailRequest(req.RequestID, network.ErrorReasonBlockedByClient).Do(execCtx)
			} else {
				_ = fetch.ContinueRequest(req.RequestID).Do(execCtx)
			}
		}()
	})

	return chromedp.Run(pageCtx, fetch.Enable())
}

type browserPage struct {
	ctx     context.Context
	cancel  context.CancelFunc
	manager *SessionManager
	logger  *zap.Logger
}

// joinContext derives a context from the page's own context that also ends
// when the caller's context does, covering cancellation as well as deadlines.
func joinContext(parent, caller context.Context) (context.Context, context.CancelFunc) {
	joined, cancel := context.WithCancel(parent)
	stop := context.AfterFunc(caller, cancel)
	return joined, func() {
		stop()
		cancel()
	}
}

// run executes actions on the page, honoring the caller's cancellation and
// deadline without tearing down the page context itself.
func (p *browserPage) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := joinContext(p.ctx, ctx)
	defer cancel()
	if err := chromedp.Run(runCtx, actions...); err != nil {
		// The caller's context ending surfaces as plain cancellation of
		// runCtx; report the caller's own error so timeouts classify right.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return err
	}
	return nil
}

func (p *browserPage) Navigate(ctx context.Context, url, waitSelector string, waitTimeout time.Duration) error {
	if err := p.run(ctx, chromedp.Navigate(url)); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w: %s", repository.ErrNavigationTimeout, url)
		}
		return fmt.Errorf("navigate %s: %w", url, err)
	}

	if waitSelector == "" {
		return nil
	}
	waitCtx, cancel := context.WithTimeout(ctx, waitTimeout)
	defer cancel()
	if err := p.run(waitCtx, chromedp.WaitReady(waitSelector, chromedp.ByQuery)); err != nil {
		// A missing selector is tolerated; extraction proceeds on whatever
		// rendered in time.
		p.logger.Debug("wait selector not ready", zap.String("url", url), zap.Error(err))
	}
	return nil
}

func (p *browserPage) HTML(ctx context.Context) (string, error) {
	var html string
	if err := p.run(ctx, chromedp.OuterHTML("html", &html)); err != nil {
		return "", fmt.Errorf("snapshot page: %w", err)
	}
	return html, nil
}

func (p *browserPage) Close() {
	p.cancel()
	p.manager.touch()
}
