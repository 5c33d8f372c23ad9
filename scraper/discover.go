package scraper

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/tolisxo/gmaps-leads/browser"
	"github.com/tolisxo/gmaps-leads/locator"
	"github.com/tolisxo/gmaps-leads/models"
	"github.com/tolisxo/gmaps-leads/utils"
)

// SeenFunc reports whether a listing identity was already collected by an
// earlier run for the same query.
type SeenFunc func(ctx context.Context, identity string) bool

type Discoverer struct {
	Page         browser.Page
	Chains       Chains
	BaseURL      string
	Sleeper      utils.Sleeper
	Jitter       func(min, max time.Duration) time.Duration
	ResultsWait  time.Duration
	PollInterval time.Duration
	// Scroll supplies pulse budget and delays; TargetCount is set per call.
	Scroll ScrollPolicy
	Seen   SeenFunc
	Log    *utils.Logger
}

// SearchTermOf joins query and region the way they are typed into Maps.
func SearchTermOf(query, region string) string {
	return strings.TrimSpace(strings.TrimSpace(query) + " " + strings.TrimSpace(region))
}

func SearchURL(base, query, region string) string {
	return strings.TrimRight(base, "/") + "/search/" + url.QueryEscape(SearchTermOf(query, region))
}

// Discover runs the search and returns up to maxResults distinct listings
// in on-screen order. maxResults <= 0 means no limit. A results feed that
// never appears yields an empty slice, not an error.
func (d *Discoverer) Discover(ctx context.Context, query, region string, maxResults int) ([]models.ListingReference, error) {
	searchURL := SearchURL(d.BaseURL, query, region)
	d.Log.Infof("searching %s", searchURL)
	if err := d.Page.Navigate(ctx, searchURL); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrNavigation, searchURL, err)
	}

	if idx, ok := clickFirst(ctx, d.Page, d.Chains.Consent); ok {
		d.Log.Infof("dismissed consent dialog with %s", d.Chains.Consent[idx])
	}

	interval := d.PollInterval
	if interval <= 0 {
		interval = defaultPollInterval
	}
	cardIdx, err := waitForAny(ctx, d.Page, d.Sleeper, d.Chains.ResultContainers, d.ResultsWait, interval)
	if err != nil {
		if errors.Is(err, utils.ErrPollTimeout) {
			d.Log.Warnf("no results container appeared for %q", searchURL)
			return []models.ListingReference{}, nil
		}
		return nil, err
	}
	card := d.Chains.ResultContainers[cardIdx]
	d.Log.Infof("results container matched %s", card)

	scroller := &ScrollDriver{
		Page:       d.Page,
		Containers: d.Chains.ScrollContainers,
		Count:      func(ctx context.Context) (int, error) { return countMatches(ctx, d.Page, card) },
		Sleeper:    d.Sleeper,
		Jitter:     d.Jitter,
		Log:        d.Log,
	}
	policy := d.Scroll
	policy.TargetCount = maxResults
	rep, err := scroller.Drive(ctx, policy)
	if err != nil {
		return nil, err
	}
	d.Log.Infof("scrolled %d times, %d cards loaded (%s)", rep.Pulses, rep.Count, rep.Reason)

	var cards []harvestedCard
	if err := browser.EvalJSON(ctx, d.Page, harvestScript(card, d.Chains.ListingAnchors), &cards); err != nil {
		return nil, fmt.Errorf("harvest listings: %w", err)
	}
	return d.collect(ctx, cards, card, maxResults), nil
}

func (d *Discoverer) collect(ctx context.Context, cards []harvestedCard, card locator.Locator, maxResults int) []models.ListingReference {
	refs := make([]models.ListingReference, 0, len(cards))
	seen := make(map[string]struct{}, len(cards))
	skipped := 0
	nameSpec := d.Chains.CardNameSpec()
	for _, c := range cards {
		if name := d.cardName(ctx, nameSpec, card, c.Index); name != "" {
			c.Name = name
		}
		identity := ListingIdentity(c.Href, c.Name)
		if identity == "" {
			continue
		}
		if _, dup := seen[identity]; dup {
			continue
		}
		seen[identity] = struct{}{}
		if d.Seen != nil && d.Seen(ctx, identity) {
			skipped++
			continue
		}
		refs = append(refs, models.ListingReference{
			Identity:    identity,
			SourceIndex: len(refs),
			URL:         strings.TrimSpace(c.Href),
			Name:        CleanText(c.Name),
			Card:        card,
			CardIndex:   c.Index,
		})
		if maxResults > 0 && len(refs) == maxResults {
			break
		}
	}
	if skipped > 0 {
		d.Log.Infof("skipped %d listings collected by earlier runs", skipped)
	}
	return refs
}

// cardName resolves the listing name inside the index-th result card.
func (d *Discoverer) cardName(ctx context.Context, spec locator.FieldSpec, card locator.Locator, index int) string {
	scope := PageScope{Page: d.Page, Card: &card, CardIndex: index}
	return locator.Resolve(ctx, scope, spec).Value
}
