package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"
)

const (
	defaultWaitTimeout = 10 * time.Second
	existsWaitTimeout  = 2 * time.Second
	existsPollInterval = 100 * time.Millisecond
)

// ChromeLauncher launches headless Chrome and exposes it through the
// Driver interface.
type ChromeLauncher struct {
	// WaitTimeout bounds every waiting operation. Zero selects the
	// default.
	WaitTimeout time.Duration

	// Headless can be set to false to watch the browser during local
	// debugging.
	Headless bool
}

func NewChromeLauncher() *ChromeLauncher {
	return &ChromeLauncher{
		WaitTimeout: defaultWaitTimeout,
		Headless:    true,
	}
}

func (l *ChromeLauncher) Launch(ctx context.Context) (Driver, func() error, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", l.Headless),
		chromedp.NoSandbox,
		chromedp.DisableGPU,
		chromedp.WindowSize(1920, 1080),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)

	// Run with no actions forces the browser process to start now, so a
	// broken Chrome install fails here instead of mid-workflow.
	if err := chromedp.Run(browserCtx); err != nil {
		cancelBrowser()
		cancelAlloc()
		return nil, nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	stop := func() error {
		cancelBrowser()
		cancelAlloc()
		return nil
	}

	wait := l.WaitTimeout
	if wait <= 0 {
		wait = defaultWaitTimeout
	}
	return &chromeDriver{browserCtx: browserCtx, wait: wait}, stop, nil
}

type chromeDriver struct {
	browserCtx context.Context
	wait       time.Duration
}

// run executes actions against the browser, bounded by the given timeout
// and by cancellation of the caller's context.
func (d *chromeDriver) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithTimeout(d.browserCtx, timeout)
	defer cancel()
	unlink := context.AfterFunc(ctx, cancel)
	defer unlink()
	return chromedp.Run(runCtx, actions...)
}

// queryOption picks the match strategy for a selector. XPath selectors
// start with "//"; everything else is CSS.
func queryOption(selector string) chromedp.QueryOption {
	if strings.HasPrefix(selector, "//") {
		return chromedp.BySearch
	}
	return chromedp.ByQuery
}

func (d *chromeDriver) Navigate(ctx context.Context, url string) error {
	if err := d.run(ctx, d.wait, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	return nil
}

func (d *chromeDriver) WaitVisible(ctx context.Context, selector string) error {
	if err := d.run(ctx, d.wait, chromedp.WaitVisible(selector, queryOption(selector))); err != nil {
		return fmt.Errorf("element %q not visible: %w", selector, err)
	}
	return nil
}

func (d *chromeDriver) Click(ctx context.Context, selector string) error {
	opt := queryOption(selector)
	err := d.run(ctx, d.wait,
		chromedp.ScrollIntoView(selector, opt),
		chromedp.Click(selector, opt),
	)
	if err != nil {
		return fmt.Errorf("failed to click %q: %w", selector, err)
	}
	return nil
}

func (d *chromeDriver) SendKeys(ctx context.Context, selector, text string) error {
	if err := d.run(ctx, d.wait, chromedp.SendKeys(selector, text, queryOption(selector))); err != nil {
		return fmt.Errorf("failed to type into %q: %w", selector, err)
	}
	return nil
}

func (d *chromeDriver) ElementIDs(ctx context.Context, selector string) ([]string, error) {
	var nodes []*cdp.Node
	err := d.run(ctx, d.wait, chromedp.Nodes(selector, &nodes, chromedp.ByQueryAll, chromedp.AtLeast(0)))
	if err != nil {
		return nil, fmt.Errorf("failed to query %q: %w", selector, err)
	}
	ids := make([]string, 0, len(nodes))
	for _, node := range nodes {
		ids = append(ids, node.AttributeValue("id"))
	}
	return ids, nil
}

func (d *chromeDriver) AttributeValue(ctx context.Context, selector, name string) (string, bool, error) {
	var value string
	var ok bool
	err := d.run(ctx, d.wait, chromedp.AttributeValue(selector, name, &value, &ok, queryOption(selector)))
	if err != nil {
		return "", false, fmt.Errorf("failed to read attribute %q of %q: %w", name, selector, err)
	}
	return value, ok, nil
}

func (d *chromeDriver) Exists(ctx context.Context, selector string) (bool, error) {
	found, err := pollUntilFound(ctx, existsWaitTimeout, existsPollInterval, func(ctx context.Context) (bool, error) {
		// AtLeast(0) makes the query return immediately instead of
		// blocking until a node matches; the outer loop does the waiting.
		var nodes []*cdp.Node
		if err := d.run(ctx, existsWaitTimeout, chromedp.Nodes(selector, &nodes, chromedp.ByQueryAll, chromedp.AtLeast(0))); err != nil {
			return false, err
		}
		return len(nodes) > 0, nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to query %q: %w", selector, err)
	}
	return found, nil
}

// pollUntilFound re-runs query until it reports a match or wait elapses.
// Running out the wait is not an error; a query failure or cancellation of
// ctx is.
func pollUntilFound(ctx context.Context, wait, interval time.Duration, query func(context.Context) (bool, error)) (bool, error) {
	deadline := time.Now().Add(wait)
	for {
		found, err := query(ctx)
		if err != nil {
			return false, err
		}
		if found {
			return true, nil
		}
		if !time.Now().Before(deadline) {
			return false, nil
		}
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-time.After(interval):
		}
	}
}
