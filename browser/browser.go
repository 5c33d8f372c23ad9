// Package browser hides the automation driver behind a small Page/Session
// surface so scraping logic can run against chromedp, rod or a test fake.
package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Page is one browser tab.
type Page interface {
	Navigate(ctx context.Context, url string) error
	// Evaluate runs fn, the source of a zero-argument JS function, and
	// returns its result as a JSON document.
	Evaluate(ctx context.Context, fn string) (string, error)
	CurrentURL(ctx context.Context) (string, error)
	Back(ctx context.Context) error
	Close() error
}

// Session owns the browser process. Primary is the tab the search runs in;
// NewPage opens additional tabs that the caller must Close.
type Session interface {
	Primary() Page
	NewPage(ctx context.Context) (Page, error)
	Close() error
}

// WaitPolicy says when Navigate returns.
type WaitPolicy string

const (
	// WaitLoad waits for the load event.
	WaitLoad WaitPolicy = "load"
	// WaitDOMReady returns once the document has been parsed.
	WaitDOMReady WaitPolicy = "domready"
)

// ParseWaitPolicy maps a config value to a WaitPolicy; empty means WaitLoad.
func ParseWaitPolicy(s string) (WaitPolicy, error) {
	switch WaitPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", WaitLoad:
		return WaitLoad, nil
	case WaitDOMReady:
		return WaitDOMReady, nil
	}
	return "", fmt.Errorf("unknown wait policy %q (want %s or %s)", s, WaitLoad, WaitDOMReady)
}

type Options struct {
	Headless   bool
	UserAgent  string
	NavTimeout time.Duration
	Wait       WaitPolicy
	Width      int
	Height     int
}

func (o Options) withDefaults() Options {
	if o.NavTimeout <= 0 {
		o.NavTimeout = 60 * time.Second
	}
	if o.Wait == "" {
		o.Wait = WaitLoad
	}
	if o.Width <= 0 || o.Height <= 0 {
		o.Width, o.Height = 1440, 900
	}
	return o
}

// Open starts a browser with the named driver ("chromedp" or "rod").
func Open(ctx context.Context, driver string, opts Options) (Session, error) {
	switch strings.ToLower(driver) {
	case "", "chromedp":
		return NewChromedpSession(ctx, opts)
	case "rod":
		return NewRodSession(ctx, opts)
	}
	return nil, fmt.Errorf("unknown browser driver %q", driver)
}

// EvalJSON evaluates fn on p and decodes the result into out.
func EvalJSON(ctx context.Context, p Page, fn string, out any) error {
	raw, err := p.Evaluate(ctx, fn)
	if err != nil {
		return err
	}
	if strings.TrimSpace(raw) == "" {
		raw = "null"
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return fmt.Errorf("decode page result: %w", err)
	}
	return nil
}

// HTML returns the serialized document of p.
func HTML(ctx context.Context, p Page) (string, error) {
	var html string
	err := EvalJSON(ctx, p, `() => document.documentElement ? document.documentElement.outerHTML : ""`, &html)
	return html, err
}

// jsonFunc wraps fn so its result always comes back as a JSON string.
func jsonFunc(fn string) string {
	return "() => { const v = (" + strings.TrimSpace(fn) + ")(); return v === undefined ? \"null\" : JSON.stringify(v); }"
}
