package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

type RodSession struct {
	opts     Options
	launcher *launcher.Launcher
	browser  *rod.Browser
	primary  *rodPage
}

func NewRodSession(ctx context.Context, opts Options) (*RodSession, error) {
	opts = opts.withDefaults()
	l := launcher.New().
		Headless(opts.Headless).
		NoSandbox(true).
		Set("disable-blink-features", "AutomationControlled").
		Set("window-size", fmt.Sprintf("%d,%d", opts.Width, opts.Height))

	controlURL, err := l.Context(ctx).Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("connect browser: %w", err)
	}

	s := &RodSession{opts: opts, launcher: l, browser: b}
	first, err := s.newTab()
	if err != nil {
		_ = b.Close()
		l.Kill()
		return nil, err
	}
	s.primary = first
	return s, nil
}

func (s *RodSession) newTab() (*rodPage, error) {
	page, err := stealth.Page(s.browser)
	if err != nil {
		return nil, fmt.Errorf("open tab: %w", err)
	}
	if s.opts.UserAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: s.opts.UserAgent}); err != nil {
			_ = page.Close()
			return nil, fmt.Errorf("set user agent: %w", err)
		}
	}
	return &rodPage{page: page, timeout: s.opts.NavTimeout, wait: s.opts.Wait}, nil
}

func (s *RodSession) Primary() Page { return s.primary }

func (s *RodSession) NewPage(ctx context.Context) (Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := s.newTab()
	if err != nil {
		return nil, err
	}
	p.closable = true
	return p, nil
}

func (s *RodSession) Close() error {
	err := s.browser.Close()
	s.launcher.Kill()
	return err
}

type rodPage struct {
	page     *rod.Page
	timeout  time.Duration
	wait     WaitPolicy
	closable bool
}

// do runs fn on the page bound to ctx and the navigation timeout, and
// releases the timeout timer when fn returns.
func (p *rodPage) do(ctx context.Context, fn func(pg *rod.Page) error) error {
	pg := p.page.Context(ctx).Timeout(p.timeout)
	defer pg.CancelTimeout()
	return fn(pg)
}

func (p *rodPage) Navigate(ctx context.Context, url string) error {
	return p.do(ctx, func(pg *rod.Page) error {
		if p.wait == WaitDOMReady {
			wait := pg.WaitNavigation(proto.PageLifecycleEventNameDOMContentLoaded)
			if err := pg.Navigate(url); err != nil {
				return err
			}
			wait()
			return nil
		}
		if err := pg.Navigate(url); err != nil {
			return err
		}
		return pg.WaitLoad()
	})
}

func (p *rodPage) Evaluate(ctx context.Context, fn string) (string, error) {
	var out string
	err := p.do(ctx, func(pg *rod.Page) error {
		res, err := pg.Eval(jsonFunc(fn))
		if err != nil {
			return err
		}
		out = res.Value.Str()
		return nil
	})
	return out, err
}

func (p *rodPage) CurrentURL(ctx context.Context) (string, error) {
	var u string
	err := p.do(ctx, func(pg *rod.Page) error {
		info, err := pg.Info()
		if err != nil {
			return err
		}
		u = info.URL
		return nil
	})
	return u, err
}

func (p *rodPage) Back(ctx context.Context) error {
	return p.do(ctx, func(pg *rod.Page) error { return pg.NavigateBack() })
}

func (p *rodPage) Close() error {
	if !p.closable {
		return nil
	}
	return p.page.Close()
}
