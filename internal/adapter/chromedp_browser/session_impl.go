package chromedp_browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"
	"github.com/user/card-scraper/internal/repository"
)

// DefaultUserAgent is a regular desktop Chrome identity used instead of HeadlessChrome.
const DefaultUserAgent = `Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36`

// Options configures the browser process.
type Options struct {
	Headless        bool
	UserAgent       string
	ProxyServer     string // optional, e.g. "http://proxy.internal:3128"
	PageLoadTimeout time.Duration
}

// ChromedpSession is a single Chrome tab driven over the DevTools protocol.
type ChromedpSession struct {
	allocCancel context.CancelFunc
	tabCtx      context.Context
	tabCancel   context.CancelFunc
	timeout     time.Duration
	logger      *slog.Logger
	closeOnce   sync.Once
	closeErr    error
}

var _ repository.BrowserSession = (*ChromedpSession)(nil)

// NewChromedpSession starts a sandboxed headless Chrome and opens one tab.
func NewChromedpSession(opts Options) (*ChromedpSession, error) {
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.PageLoadTimeout <= 0 {
		opts.PageLoadTimeout = 60 * time.Second
	}

	logger := slog.Default().With("component", "browser")

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(opts.UserAgent),
	)
	if opts.ProxyServer != "" {
		allocOpts = append(allocOpts, chromedp.ProxyServer(opts.ProxyServer))
	}
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocOpts...)

	tabCtx, tabCancel := chromedp.NewContext(allocCtx, chromedp.WithErrorf(func(format string, args ...any) {
		logger.Debug("devtools", "detail", fmt.Sprintf(format, args...))
	}))

	// An empty Run launches the browser and attaches the tab.
	if err := chromedp.Run(tabCtx); err != nil {
		tabCancel()
		allocCancel()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	logger.Info("Browser started", "headless", opts.Headless, "user_agent", opts.UserAgent, "proxy", opts.ProxyServer != "")

	return &ChromedpSession{
		allocCancel: allocCancel,
		tabCtx:      tabCtx,
		tabCancel:   tabCancel,
		timeout:     opts.PageLoadTimeout,
		logger:      logger,
	}, nil
}

// scoped derives a context on the tab that ends at timeout or when ctx is done.
func (s *ChromedpSession) scoped(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	runCtx, cancel := context.WithTimeout(s.tabCtx, timeout)
	stop := context.AfterFunc(ctx, cancel)
	return runCtx, func() {
		stop()
		cancel()
	}
}

// waitErr maps a timed out wait to ErrWaitTimeout, leaving caller cancellation intact.
func waitErr(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, chromedp.ErrPollingTimeout) {
		return fmt.Errorf("%w: %v", repository.ErrWaitTimeout, err)
	}
	return err
}

// Navigate loads url and waits for the load event.
func (s *ChromedpSession) Navigate(ctx context.Context, url string) error {
	runCtx, cancel := s.scoped(ctx, s.timeout)
	defer cancel()

	if err := chromedp.Run(runCtx, chromedp.Navigate(url)); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%w: %s: %v", repository.ErrNavigationFailed, url, err)
	}
	return nil
}

// WaitReady polls document.readyState until it is "complete".
func (s *ChromedpSession) WaitReady(ctx context.Context, timeout time.Duration) error {
	// The extra second lets the poll report its own timeout first.
	runCtx, cancel := s.scoped(ctx, timeout+time.Second)
	defer cancel()

	var ready bool
	err := chromedp.Run(runCtx, chromedp.Poll(
		`document.readyState === "complete"`, &ready,
		chromedp.WithPollingTimeout(timeout),
		chromedp.WithPollingInterval(250*time.Millisecond),
	))
	return waitErr(ctx, err)
}

// WaitPresent waits until selector matches at least one element in the DOM.
func (s *ChromedpSession) WaitPresent(ctx context.Context, selector string, timeout time.Duration) error {
	runCtx, cancel := s.scoped(ctx, timeout)
	defer cancel()

	err := chromedp.Run(runCtx, chromedp.WaitReady(selector, chromedp.ByQuery))
	return waitErr(ctx, err)
}

// Reveal scrolls each match of selector into view so lazy attributes get populated.
// A node that cannot be scrolled is skipped; the failures are reported together at the end.
func (s *ChromedpSession) Reveal(ctx context.Context, selector string, pause time.Duration) error {
	runCtx, cancel := s.scoped(ctx, s.timeout)
	defer cancel()

	var nodes []*cdp.Node
	if err := chromedp.Run(runCtx, chromedp.Nodes(selector, &nodes, chromedp.ByQueryAll, chromedp.AtLeast(0))); err != nil {
		return fmt.Errorf("failed to query %q: %w", selector, err)
	}

	revealed, err := revealNodes(runCtx, nodes, func(n *cdp.Node) error {
		return chromedp.Run(runCtx,
			chromedp.ScrollIntoView([]cdp.NodeID{n.NodeID}, chromedp.ByNodeID),
			chromedp.Sleep(pause),
		)
	})
	s.logger.Debug("Revealed elements", "selector", selector, "count", len(nodes), "revealed", revealed)
	return err
}

// revealNodes calls scroll for every node, carrying on past failures. It stops early only once ctx is done.
func revealNodes(ctx context.Context, nodes []*cdp.Node, scroll func(*cdp.Node) error) (int, error) {
	var errs []error
	revealed := 0
	for _, n := range nodes {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if err := scroll(n); err != nil {
			errs = append(errs, fmt.Errorf("node %d: %w", n.NodeID, err))
			continue
		}
		revealed++
	}
	if len(errs) > 0 {
		return revealed, fmt.Errorf("revealed %d of %d elements: %w", revealed, len(nodes), errors.Join(errs...))
	}
	return revealed, nil
}

// CurrentURL returns the tab's location.
func (s *ChromedpSession) CurrentURL(ctx context.Context) (string, error) {
	runCtx, cancel := s.scoped(ctx, s.timeout)
	defer cancel()

	var location string
	if err := chromedp.Run(runCtx, chromedp.Location(&location)); err != nil {
		return "", err
	}
	return location, nil
}

// PageSource returns the outer HTML of the document element.
func (s *ChromedpSession) PageSource(ctx context.Context) (string, error) {
	runCtx, cancel := s.scoped(ctx, s.timeout)
	defer cancel()

	var html string
	if err := chromedp.Run(runCtx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", err
	}
	return html, nil
}

// Close shuts the browser down. Only the first call does any work.
func (s *ChromedpSession) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = chromedp.Cancel(s.tabCtx)
		s.tabCancel()
		s.allocCancel()
		s.logger.Info("Browser closed")
	})
	return s.closeErr
}
