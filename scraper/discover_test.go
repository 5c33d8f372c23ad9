package scraper

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tolisxo/gmaps-leads/utils"
)

const placeBase = "https://www.google.com/maps/place/"

func resultsPage(cards []harvestedCard, counts func() int) *fakePage {
	return &fakePage{handler: func(name, _ string) (any, error) {
		switch name {
		case "click":
			return false, nil
		case "count":
			return counts(), nil
		case "scroll":
			return 0, nil
		case "harvest":
			return cards, nil
		}
		return nil, nil
	}}
}

func newDiscoverer(page *fakePage) *Discoverer {
	return &Discoverer{
		Page:        page,
		Chains:      DefaultChains(),
		BaseURL:     "https://www.google.com/maps",
		Sleeper:     &recordingSleeper{},
		Jitter:      func(min, _ time.Duration) time.Duration { return min },
		ResultsWait: 2 * time.Second,
		Scroll:      ScrollPolicy{MaxPulses: 5},
		Log:         utils.Discard(),
	}
}

func sampleCards() []harvestedCard {
	return []harvestedCard{
		{Index: 0, Href: placeBase + "Alpha/data=!1s0x1?authuser=0", Name: "Alpha"},
		{Index: 1, Href: placeBase + "Bravo/data=!1s0x2", Name: "Bravo"},
		{Index: 2, Href: placeBase + "Alpha/data=!1s0x1?hl=en", Name: "Alpha"},
		{Index: 3, Href: placeBase + "Charlie/data=!1s0x3", Name: "Charlie"},
		{Index: 4},
		{Index: 5, Name: "Delta"},
	}
}

func TestSearchURL(t *testing.T) {
	assert.Equal(t, "https://www.google.com/maps/search/coffee+shops+Austin+TX", SearchURL("https://www.google.com/maps/", "coffee shops", " Austin TX"))
	assert.Equal(t, "https://www.google.com/maps/search/bakery", SearchURL("https://www.google.com/maps", "bakery", ""))
}

func TestDiscoverTruncatesInRenderOrder(t *testing.T) {
	page := resultsPage(sampleCards(), sequence(6))
	d := newDiscoverer(page)

	refs, err := d.Discover(context.Background(), "coffee", "Austin", 3)
	require.NoError(t, err)

	require.Len(t, refs, 3)
	assert.Equal(t, []string{"Alpha", "Bravo", "Charlie"}, []string{refs[0].Name, refs[1].Name, refs[2].Name})
	for i, r := range refs {
		assert.Equal(t, i, r.SourceIndex)
		assert.True(t, r.LinkBased())
	}
	assert.Equal(t, 3, refs[2].CardIndex)
	assert.Equal(t, []string{"https://www.google.com/maps/search/coffee+Austin"}, page.navigated)
}

func TestDiscoverUnlimitedReturnsAllDistinct(t *testing.T) {
	d := newDiscoverer(resultsPage(sampleCards(), sequence(6)))

	refs, err := d.Discover(context.Background(), "coffee", "Austin", 0)
	require.NoError(t, err)

	require.Len(t, refs, 4)
	last := refs[3]
	assert.False(t, last.LinkBased())
	assert.Equal(t, "name:delta", last.Identity)
	assert.Equal(t, 5, last.CardIndex)
	assert.Equal(t, "div.Nv2PK", last.Card.Query)

	seen := map[string]bool{}
	for _, r := range refs {
		assert.False(t, seen[r.Identity], "duplicate identity %s", r.Identity)
		seen[r.Identity] = true
	}
}

func TestDiscoverNoResultsContainer(t *testing.T) {
	page := resultsPage(nil, sequence(0))
	d := newDiscoverer(page)

	refs, err := d.Discover(context.Background(), "unicorn stables", "Nowhere", 10)
	require.NoError(t, err)
	assert.NotNil(t, refs)
	assert.Empty(t, refs)
	assert.NotContains(t, page.scripts, "harvest")
}

func TestDiscoverSkipsListingsSeenBefore(t *testing.T) {
	d := newDiscoverer(resultsPage(sampleCards(), sequence(6)))
	d.Seen = func(_ context.Context, identity string) bool {
		return strings.Contains(identity, "bravo")
	}

	refs, err := d.Discover(context.Background(), "coffee", "Austin", 2)
	require.NoError(t, err)
	require.Len(t, refs, 2)
	assert.Equal(t, "Alpha", refs[0].Name)
	assert.Equal(t, "Charlie", refs[1].Name)
	assert.Equal(t, 1, refs[1].SourceIndex)
}

func TestDiscoverNavigationFailure(t *testing.T) {
	page := resultsPage(nil, sequence(0))
	page.navErr = errNavigate
	d := newDiscoverer(page)

	_, err := d.Discover(context.Background(), "coffee", "Austin", 1)
	require.ErrorIs(t, err, ErrNavigation)
}

func TestDiscoverDismissesConsent(t *testing.T) {
	clicked := 0
	page := resultsPage(sampleCards(), sequence(6))
	inner := page.handler
	page.handler = func(name, fn string) (any, error) {
		if name == "click" && strings.Contains(fn, "Accept all") {
			clicked++
			return true, nil
		}
		return inner(name, fn)
	}

	refs, err := newDiscoverer(page).Discover(context.Background(), "coffee", "Austin", 1)
	require.NoError(t, err)
	assert.Len(t, refs, 1)
	assert.Equal(t, 1, clicked)
	assert.Equal(t, "Alpha", refs[0].Name)
}

func TestDiscoverResolvesCardNamesInsideTheCard(t *testing.T) {
	cards := []harvestedCard{
		{Index: 0, Href: placeBase + "Alpha/data=!1s0x1", Name: "Alpha"},
		{Index: 1},
	}
	page := resultsPage(cards, sequence(2))
	inner := page.handler
	page.handler = func(name, fn string) (any, error) {
		if name == "lookup" && strings.Contains(fn, ")[1] || null)") && strings.Contains(fn, "qBF1Pd") {
			return map[string]any{"ok": true, "value": " Echo Bakery "}, nil
		}
		return inner(name, fn)
	}

	refs, err := newDiscoverer(page).Discover(context.Background(), "bakery", "Bern", 0)
	require.NoError(t, err)
	require.Len(t, refs, 2)
	assert.Equal(t, "Alpha", refs[0].Name, "falls back to the anchor label")
	assert.Equal(t, "Echo Bakery", refs[1].Name)
	assert.Equal(t, "name:echo bakery", refs[1].Identity)
	assert.False(t, refs[1].LinkBased())
}
