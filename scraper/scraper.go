// Package scraper drives a Maps search: it scrolls the results feed until
// it stops growing, collects listing references and extracts each place
// page into a BusinessRecord.
package scraper

import (
	"context"
	"errors"
	"time"

	"github.com/tolisxo/gmaps-leads/browser"
	"github.com/tolisxo/gmaps-leads/locator"
	"github.com/tolisxo/gmaps-leads/utils"
)

var (
	ErrNavigation  = errors.New("navigation failed")
	ErrEmptyDetail = errors.New("detail page yielded no fields")
	ErrExhausted   = errors.New("retries exhausted")
)

const defaultPollInterval = 500 * time.Millisecond

func countMatches(ctx context.Context, p browser.Page, loc locator.Locator) (int, error) {
	var n int
	err := browser.EvalJSON(ctx, p, countScript(loc), &n)
	return n, err
}

// waitForAny polls until one locator of chain matches at least one element
// and returns its index in the chain.
func waitForAny(ctx context.Context, p browser.Page, s utils.Sleeper, chain []locator.Locator, timeout, interval time.Duration) (int, error) {
	found := -1
	err := utils.Poll(ctx, s, timeout, interval, func(ctx context.Context) (bool, error) {
		for i, loc := range chain {
			n, err := countMatches(ctx, p, loc)
			if err == nil && n > 0 {
				found = i
				return true, nil
			}
		}
		return false, nil
	})
	return found, err
}

// clickFirst clicks the first element matched by chain, in chain order.
func clickFirst(ctx context.Context, p browser.Page, chain []locator.Locator) (int, bool) {
	for i, loc := range chain {
		var clicked bool
		if err := browser.EvalJSON(ctx, p, clickScript(loc), &clicked); err == nil && clicked {
			return i, true
		}
	}
	return -1, false
}
