package locator

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapScope struct {
	values map[string]string
	errs   map[string]error
	calls  []string
}

func (m *mapScope) Lookup(_ context.Context, loc Locator) (string, error) {
	m.calls = append(m.calls, loc.Query)
	if err, ok := m.errs[loc.Query]; ok {
		return "", err
	}
	if v, ok := m.values[loc.Query]; ok {
		return v, nil
	}
	return "", ErrNoMatch
}

func TestResolveFirstMatchWins(t *testing.T) {
	scope := &mapScope{values: map[string]string{
		"B": "second",
		"C": "third",
	}}
	spec := FieldSpec{Name: "phone", Candidates: []Locator{ByCSS("A"), ByCSS("B"), ByCSS("C")}}

	res := Resolve(context.Background(), scope, spec)

	require.True(t, res.Found)
	assert.Equal(t, "second", res.Value)
	assert.Equal(t, 1, res.Index)
	assert.Equal(t, []string{"A", "B"}, scope.calls, "C must never be consulted")
}

func TestResolveTreatsErrorsAsMiss(t *testing.T) {
	scope := &mapScope{
		values: map[string]string{"B": "ok"},
		errs:   map[string]error{"A": errors.New("detached node")},
	}
	res := Resolve(context.Background(), scope, FieldSpec{Candidates: []Locator{ByCSS("A"), ByCSS("B")}})
	assert.Equal(t, Result{Value: "ok", Found: true, Index: 1}, res)
}

func TestResolveEmptyAfterNormalizeStillStops(t *testing.T) {
	scope := &mapScope{values: map[string]string{"A": "   ", "B": "fallback"}}
	spec := FieldSpec{
		Candidates: []Locator{ByCSS("A"), ByCSS("B")},
		Normalize:  strings.TrimSpace,
	}
	res := Resolve(context.Background(), scope, spec)
	assert.True(t, res.Found)
	assert.Equal(t, "", res.Value)
	assert.Equal(t, 0, res.Index)
}

func TestResolveAbsent(t *testing.T) {
	res := Resolve(context.Background(), &mapScope{}, FieldSpec{Candidates: []Locator{ByCSS("A")}})
	assert.False(t, res.Found)
	assert.Equal(t, -1, res.Index)
	assert.Equal(t, "<absent>", res.String())

	res = Resolve(context.Background(), &mapScope{}, FieldSpec{})
	assert.False(t, res.Found)
}

func TestLocatorConstructors(t *testing.T) {
	assert.Equal(t, "button[data-item-id^='phone']", ByAttribute("button", "data-item-id", "^=", "phone").Query)
	assert.Equal(t, "[data-tooltip='Copy address']", ByAttribute("", "data-tooltip", "", "Copy address").Query)
	assert.Equal(t, "h1.DUwDvf", ByClassName("h1", "DUwDvf").Query)
	assert.Equal(t, "div.m6QErb", ByClassName("div", " m6QErb ").Query)
	assert.Equal(t, "[role='img'][aria-label*='stars']", ByRole("img", "stars").Query)
	assert.Equal(t, "a[aria-label*='It\\'s']", ByAttribute("a", "aria-label", "*=", "It's").Query)

	l := ByAttribute("a", "href", "^=", "tel:").Read("href")
	assert.Equal(t, "attribute(a[href^='tel:'])@href", l.String())
}

func TestFindJS(t *testing.T) {
	css := ByCSS(`a[href^="mailto:"]`).FindJS("document")
	assert.Equal(t, `document.querySelector("a[href^=\"mailto:\"]")`, css)

	xp := ByXPath("//button[contains(., 'Accept')]").FindJS("root")
	assert.Contains(t, xp, `document.evaluate("//button[contains(., 'Accept')]", root`)
	assert.Contains(t, ByXPath("//a").FindAllJS("document"), "ORDERED_NODE_SNAPSHOT_TYPE")
}

func TestDefChain(t *testing.T) {
	chain, err := Chain([]Def{
		{CSS: "span.DkEaL"},
		{XPath: "//button[@jsname='higCR']", Attr: "aria-label"},
		{Role: "heading"},
	})
	require.NoError(t, err)
	require.Len(t, chain, 3)
	assert.Equal(t, KindCSS, chain[0].Kind)
	assert.Equal(t, KindXPath, chain[1].Kind)
	assert.Equal(t, "aria-label", chain[1].Attr)
	assert.Equal(t, "[role='heading']", chain[2].Query)

	_, err = Chain([]Def{{Attr: "href"}})
	require.Error(t, err)
}
