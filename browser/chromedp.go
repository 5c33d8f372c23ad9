package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

type ChromedpSession struct {
	opts          Options
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
	primary       *chromedpPage
}

func NewChromedpSession(ctx context.Context, opts Options) (*ChromedpSession, error) {
	opts = opts.withDefaults()
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.WindowSize(opts.Width, opts.Height),
	)
	if opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(opts.UserAgent))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, allocOpts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("start chrome: %w", err)
	}

	s := &ChromedpSession{
		opts:          opts,
		allocCancel:   allocCancel,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
	}
	s.primary = &chromedpPage{ctx: browserCtx, timeout: opts.NavTimeout, wait: opts.Wait}
	return s, nil
}

func (s *ChromedpSession) Primary() Page { return s.primary }

func (s *ChromedpSession) NewPage(ctx context.Context) (Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tabCtx, cancel := chromedp.NewContext(s.browserCtx)
	var actions []chromedp.Action
	if s.opts.UserAgent != "" {
		actions = append(actions, emulation.SetUserAgentOverride(s.opts.UserAgent))
	}
	// The first Run allocates the tab and must use the tab context itself,
	// otherwise the tab dies with the derived context.
	if err := chromedp.Run(tabCtx, actions...); err != nil {
		cancel()
		return nil, fmt.Errorf("open tab: %w", err)
	}
	return &chromedpPage{ctx: tabCtx, cancel: cancel, timeout: s.opts.NavTimeout, wait: s.opts.Wait}, nil
}

func (s *ChromedpSession) Close() error {
	s.browserCancel()
	s.allocCancel()
	return nil
}

type chromedpPage struct {
	ctx     context.Context
	cancel  context.CancelFunc
	timeout time.Duration
	wait    WaitPolicy
}

// run executes actions on the tab, bounded by timeout and by the caller's ctx.
func (p *chromedpPage) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithTimeout(p.ctx, timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	if err := chromedp.Run(runCtx, actions...); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	return nil
}

func (p *chromedpPage) Navigate(ctx context.Context, url string) error {
	if p.wait == WaitDOMReady {
		return p.run(ctx, p.timeout, navigateNoWait(url), chromedp.Poll(`document.readyState !== "loading"`, nil))
	}
	return p.run(ctx, p.timeout, chromedp.Navigate(url))
}

// navigateNoWait issues Page.navigate without waiting for the load event.
func navigateNoWait(url string) chromedp.ActionFunc {
	return func(ctx context.Context) error {
		return cdp.Execute(ctx, page.CommandNavigate, page.Navigate(url), nil)
	}
}

func (p *chromedpPage) Evaluate(ctx context.Context, fn string) (string, error) {
	var out string
	if err := p.run(ctx, p.timeout, chromedp.Evaluate("("+jsonFunc(fn)+")()", &out)); err != nil {
		return "", err
	}
	return out, nil
}

func (p *chromedpPage) CurrentURL(ctx context.Context) (string, error) {
	var u string
	err := p.run(ctx, p.timeout, chromedp.Location(&u))
	return u, err
}

func (p *chromedpPage) Back(ctx context.Context) error {
	return p.run(ctx, p.timeout, chromedp.NavigateBack())
}

// Close closes the tab. The primary tab lives until the session closes.
func (p *chromedpPage) Close() error {
	if p.cancel != nil {
		p.cancel()
	}
	return nil
}
