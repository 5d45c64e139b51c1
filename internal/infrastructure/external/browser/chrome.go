package browser

import (
	"context"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-capture/pkg/config"
)

// reachableProbeTimeout bounds the liveness check so an unresponsive
// browser is reported quickly rather than hanging the caller.
const reachableProbeTimeout = 5 * time.Second

// ChromeAgent drives a Chrome instance over the DevTools protocol via
// chromedp. One agent owns one browser; Close releases it.
type ChromeAgent struct {
	logger *zap.Logger

	ctx           context.Context
	browserCancel context.CancelFunc
	allocCancel   context.CancelFunc
	closeOnce     sync.Once
}

// NewChromeAgent launches a Chrome allocator with the flags the meeting
// UI requires: auto-accepted media permissions, no popups, muted audio.
// Headless is a config toggle so the same agent serves scheduled and
// manually observed sessions.
func NewChromeAgent(cfg config.AgentConfig, logger *zap.Logger) *ChromeAgent {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("use-fake-ui-for-media-stream", true),
		chromedp.Flag("disable-infobars", true),
		chromedp.Flag("disable-popup-blocking", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("mute-audio", true),
		chromedp.WindowSize(cfg.WindowWidth, cfg.WindowHeight),
	)

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	return &ChromeAgent{
		logger:        logger,
		ctx:           browserCtx,
		browserCancel: browserCancel,
		allocCancel:   allocCancel,
	}
}

// run executes chromedp actions against the browser context while honoring
// the caller's deadline and cancellation.
func (a *ChromeAgent) run(ctx context.Context, actions ...chromedp.Action) error {
	actionCtx, cancel := context.WithCancel(a.ctx)
	defer cancel()

	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	if deadline, ok := ctx.Deadline(); ok {
		var dcancel context.CancelFunc
		actionCtx, dcancel = context.WithDeadline(actionCtx, deadline)
		defer dcancel()
	}

	return chromedp.Run(actionCtx, actions...)
}

// Open navigates the browser to the session URL
func (a *ChromeAgent) Open(ctx context.Context, url string) error {
	return a.run(ctx, chromedp.Navigate(url))
}

// WaitVisible blocks until the element matching the XPath selector is
// visible, or ctx expires
func (a *ChromeAgent) WaitVisible(ctx context.Context, selector string) error {
	return a.run(ctx, chromedp.WaitVisible(selector, chromedp.BySearch))
}

// SendKeys clears the element matching the selector and types text into it
func (a *ChromeAgent) SendKeys(ctx context.Context, selector, text string) error {
	return a.run(ctx,
		chromedp.Clear(selector, chromedp.BySearch),
		chromedp.SendKeys(selector, text, chromedp.BySearch),
	)
}

// Click activates the element matching the selector
func (a *ChromeAgent) Click(ctx context.Context, selector string) error {
	return a.run(ctx, chromedp.Click(selector, chromedp.BySearch))
}

// ElementExists reports whether any element matches the selector right now,
// without waiting for one to appear
func (a *ChromeAgent) ElementExists(ctx context.Context, selector string) (bool, error) {
	var nodes []*cdp.Node
	if err := a.run(ctx, chromedp.Nodes(selector, &nodes, chromedp.BySearch, chromedp.AtLeast(0))); err != nil {
		return false, err
	}
	return len(nodes) > 0, nil
}

// Screenshot captures the visible viewport as PNG bytes
func (a *ChromeAgent) Screenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	if err := a.run(ctx, chromedp.CaptureScreenshot(&buf)); err != nil {
		return nil, err
	}
	return buf, nil
}

// IsReachable probes the browser with a trivial evaluation. False means the
// browser process is gone or no longer responding.
func (a *ChromeAgent) IsReachable(ctx context.Context) bool {
	probeCtx, cancel := context.WithTimeout(ctx, reachableProbeTimeout)
	defer cancel()

	var state string
	err := a.run(probeCtx, chromedp.Evaluate("document.readyState", &state))
	return err == nil
}

// Close releases the browser and its allocator. Safe to call more than once.
func (a *ChromeAgent) Close() error {
	a.closeOnce.Do(func() {
		a.browserCancel()
		a.allocCancel()
		if a.logger != nil {
			a.logger.Info("🌐 Browser agent closed")
		}
	})
	return nil
}
