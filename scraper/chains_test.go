package scraper

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tolisxo/gmaps-leads/locator"
	"github.com/tolisxo/gmaps-leads/models"
)

func TestDetailFieldsOrderAndNormalizers(t *testing.T) {
	specs := DefaultChains().DetailFields("https://www.google.com/maps/place/Acme")
	names := make([]string, 0, len(specs))
	for _, s := range specs {
		names = append(names, s.Name)
		assert.NotEmpty(t, s.Candidates, s.Name)
		assert.NotNil(t, s.Normalize, s.Name)
	}
	assert.Equal(t, []string{"name", "category", "rating", "reviews", "phone", "website", "address"}, names)
}

func TestLoadChainsOverridesOnlyGivenLists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "selectors.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
result_containers:
  - css: "div.newCard"
fields:
  phone:
    - xpath: "//button[starts-with(@data-item-id, 'phone')]"
      attr: data-item-id
`), 0o644))

	chains, err := LoadChains(path)
	require.NoError(t, err)

	require.Len(t, chains.ResultContainers, 1)
	assert.Equal(t, "div.newCard", chains.ResultContainers[0].Query)
	assert.Equal(t, locator.KindXPath, chains.Fields[models.FieldPhone][0].Kind)
	assert.Equal(t, DefaultChains().Fields[models.FieldAddress], chains.Fields[models.FieldAddress])
	assert.Equal(t, DefaultChains().ScrollContainers, chains.ScrollContainers)
}

func TestLoadChainsRejectsUnknownField(t *testing.T) {
	_, err := ApplyOverrides(DefaultChains(), []byte("fields:\n  fax:\n    - css: span\n"))
	require.ErrorContains(t, err, "fax")

	_, err = ApplyOverrides(DefaultChains(), []byte("consents: []\n"))
	require.Error(t, err)
}

func TestPageScopeLookup(t *testing.T) {
	page := &fakePage{handler: func(name, fn string) (any, error) {
		if name != "lookup" {
			return nil, nil
		}
		assert.Contains(t, fn, `querySelector("h1.DUwDvf")`)
		return map[string]any{"ok": true, "value": "Acme Cafe"}, nil
	}}
	v, err := PageScope{Page: page}.Lookup(context.Background(), locator.ByClassName("h1", "DUwDvf"))
	require.NoError(t, err)
	assert.Equal(t, "Acme Cafe", v)

	page.handler = func(string, string) (any, error) { return map[string]any{"ok": false}, nil }
	_, err = PageScope{Page: page}.Lookup(context.Background(), locator.ByCSS("h1"))
	require.ErrorIs(t, err, locator.ErrNoMatch)
}

func TestElementScopeRootsUnderCard(t *testing.T) {
	card := locator.ByClassName("div", "Nv2PK")
	var script string
	page := &fakePage{handler: func(_, fn string) (any, error) {
		script = fn
		return map[string]any{"ok": true, "value": "Bravo"}, nil
	}}
	v, err := PageScope{Page: page, Card: &card, CardIndex: 4}.Lookup(context.Background(), locator.ByClassName("div", "qBF1Pd"))
	require.NoError(t, err)
	assert.Equal(t, "Bravo", v)
	assert.Contains(t, script, `((Array.from(document.querySelectorAll("div.Nv2PK")))[4] || null)`)
}
