package scraper

import (
	"context"
	"fmt"

	"github.com/tolisxo/gmaps-leads/browser"
	"github.com/tolisxo/gmaps-leads/locator"
)

// PageScope resolves locators against a live page, either document-wide
// or under the index-th element matched by Card.
type PageScope struct {
	Page      browser.Page
	Card      *locator.Locator
	CardIndex int
}

type lookupResult struct {
	OK    bool   `json:"ok"`
	Value string `json:"value"`
}

func (s PageScope) root() string {
	if s.Card == nil {
		return "document"
	}
	return elementRoot(*s.Card, s.CardIndex)
}

func (s PageScope) Lookup(ctx context.Context, loc locator.Locator) (string, error) {
	var res lookupResult
	if err := browser.EvalJSON(ctx, s.Page, lookupScript(s.root(), loc), &res); err != nil {
		return "", fmt.Errorf("lookup %s: %w", loc, err)
	}
	if !res.OK {
		return "", locator.ErrNoMatch
	}
	return res.Value, nil
}

func pageScope(p browser.Page) locator.Scope {
	return PageScope{Page: p}
}
