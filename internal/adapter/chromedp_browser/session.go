package chromedp_browser

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/user/coupon-service/internal/repository"
	"go.uber.org/zap"
)

const desktopUserAgent = `Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36`

// SessionManager owns the single reusable browser process. A session last used
// within the reuse window is handed out again; older sessions are torn down and
// relaunched. The mutex only guards the process-handle swap; page handles are
// never shared between goroutines.
type SessionManager struct {
	mu          sync.Mutex
	reuseWindow time.Duration
	logger      *zap.Logger

	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
	lastUsed      time.Time
}

func NewSessionManager(reuseWindow time.Duration, logger *zap.Logger) *SessionManager {
	return &SessionManager{
		reuseWindow: reuseWindow,
		logger:      logger,
	}
}

// acquire returns a live browser context, launching a fresh process when the
// current one is gone or idle past the reuse window.
func (m *SessionManager) acquire(ctx context.Context) (context.Context, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.browserCtx != nil {
		if m.browserCtx.Err() == nil && time.Since(m.lastUsed) < m.reuseWindow {
			m.lastUsed = time.Now()
			return m.browserCtx, nil
		}
		m.logger.Debug("browser session expired, relaunching")
		m.closeLocked()
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.WindowSize(1366, 768),
		chromedp.UserAgent(desktopUserAgent),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	// Run with no actions forces the process to start, so launch failures
	// surface here instead of on the first navigation.
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("%w: %v", repository.ErrLaunchFailed, err)
	}

	m.allocCancel = allocCancel
	m.browserCtx = browserCtx
	m.browserCancel = browserCancel
	m.lastUsed = time.Now()
	m.logger.Info("browser session launched")
	return m.browserCtx, nil
}

// touch marks the session as recently used, extending the reuse window.
func (m *SessionManager) touch() {
	m.mu.Lock()
	m.lastUsed = time.Now()
	m.mu.Unlock()
}

func (m *SessionManager) closeLocked() {
	if m.browserCancel != nil {
		m.browserCancel()
	}
	if m.allocCancel != nil {
		m.allocCancel()
	}
	m.browserCtx = nil
	m.browserCancel = nil
	m.allocCancel = nil
}

// Shutdown closes the browser process. The manager is unusable afterwards only
// until the next acquire, which relaunches.
func (m *SessionManager) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closeLocked()
}
