package scraper

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"time"

	"github.com/tolisxo/gmaps-leads/browser"
	"github.com/tolisxo/gmaps-leads/locator"
)

var markerRegex = regexp.MustCompile(`/\*(\w+)\*/`)

func scriptName(fn string) string {
	if m := markerRegex.FindStringSubmatch(fn); m != nil {
		return m[1]
	}
	return ""
}

type fakePage struct {
	url     string
	navErr  error
	handler func(name, fn string) (any, error)

	navigated []string
	scripts   []string
	closed    int
	backs     int
}

func (p *fakePage) Navigate(_ context.Context, url string) error {
	p.navigated = append(p.navigated, url)
	return p.navErr
}

func (p *fakePage) Evaluate(_ context.Context, fn string) (string, error) {
	name := scriptName(fn)
	p.scripts = append(p.scripts, name)
	if p.handler == nil {
		return "null", nil
	}
	v, err := p.handler(name, fn)
	if err != nil {
		return "", err
	}
	b, _ := json.Marshal(v)
	return string(b), nil
}

func (p *fakePage) CurrentURL(context.Context) (string, error) { return p.url, nil }

func (p *fakePage) Back(context.Context) error {
	p.backs++
	return nil
}

func (p *fakePage) Close() error {
	p.closed++
	return nil
}

type fakeSession struct {
	primary *fakePage
	newPage func(n int) (*fakePage, error)
	pages   []*fakePage
}

func (s *fakeSession) Primary() browser.Page { return s.primary }

func (s *fakeSession) NewPage(context.Context) (browser.Page, error) {
	p, err := s.newPage(len(s.pages) + 1)
	if err != nil {
		return nil, err
	}
	s.pages = append(s.pages, p)
	return p, nil
}

func (s *fakeSession) Close() error { return nil }

type recordingSleeper struct {
	slept []time.Duration
}

func (r *recordingSleeper) Sleep(ctx context.Context, d time.Duration) error {
	r.slept = append(r.slept, d)
	return ctx.Err()
}

// queryScope answers lookups from a map keyed by locator query.
type queryScope map[string]string

func (q queryScope) Lookup(_ context.Context, loc locator.Locator) (string, error) {
	if v, ok := q[loc.Query]; ok {
		return v, nil
	}
	return "", locator.ErrNoMatch
}

// sequence returns successive values, repeating the last one.
func sequence(values ...int) func() int {
	i := 0
	return func() int {
		v := values[min(i, len(values)-1)]
		i++
		return v
	}
}

var errNavigate = errors.New("net::ERR_CONNECTION_RESET")
