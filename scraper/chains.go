package scraper

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"

	"github.com/tolisxo/gmaps-leads/locator"
	"github.com/tolisxo/gmaps-leads/models"
)

// Chains holds every ordered selector chain the scraper consults. Maps
// markup changes often, so each concern lists its fallbacks most
// specific first.
type Chains struct {
	Consent          []locator.Locator
	ResultContainers []locator.Locator
	ScrollContainers []locator.Locator
	ListingAnchors   []locator.Locator
	CardNames        []locator.Locator
	CardClickables   []locator.Locator
	BackButtons      []locator.Locator
	Email            []locator.Locator
	Fields           map[string][]locator.Locator
}

// detailFieldOrder is the order fields are resolved on a place page.
var detailFieldOrder = []string{
	models.FieldName,
	models.FieldCategory,
	models.FieldRating,
	models.FieldReviews,
	models.FieldPhone,
	models.FieldWebsite,
	models.FieldAddress,
}

func DefaultChains() Chains {
	return Chains{
		Consent: []locator.Locator{
			locator.ByAttribute("button", "aria-label", "=", "Accept all"),
			locator.ByAttribute("button", "aria-label", "=", "Alles akzeptieren"),
			locator.ByXPath("//button[contains(., 'Accept')]"),
			locator.ByXPath("//button[contains(., 'I agree')]"),
			locator.ByXPath("//button[@jsname='higCR']"),
		},
		ResultContainers: []locator.Locator{
			locator.ByClassName("div", "Nv2PK"),
			locator.ByClassName("div", "bfdHYd"),
			locator.ByCSS("div[role='feed'] > div"),
		},
		ScrollContainers: []locator.Locator{
			locator.ByRole("feed", ""),
			locator.ByCSS("div.m6QErb[role='region']"),
			locator.ByClassName("div", "m6QErb"),
			locator.ByClassName("div", "section-layout"),
			locator.ByClassName("div", "section-scrollbox"),
		},
		ListingAnchors: []locator.Locator{
			locator.ByClassName("a", "hfpxzc"),
			locator.ByAttribute("a", "href", "*=", "/maps/place/"),
		},
		CardNames: []locator.Locator{
			locator.ByClassName("div", "qBF1Pd"),
			locator.ByClassName("span", "fontHeadlineSmall"),
			locator.ByClassName("div", "fontHeadlineSmall"),
			locator.ByClassName("span", "vcAjh"),
			locator.ByCSS("h3"),
		},
		CardClickables: []locator.Locator{
			locator.ByCSS("a"),
			locator.ByAttribute("div", "role", "=", "button"),
			locator.ByAttribute("div", "jsaction", "*=", "placeCard"),
			locator.ByAttribute("div", "jsaction", "*=", "click"),
		},
		BackButtons: []locator.Locator{
			locator.ByAttribute("button", "aria-label", "=", "Back"),
			locator.ByAttribute("button", "jsaction", "*=", "back"),
		},
		Email: []locator.Locator{
			locator.ByAttribute("a", "href", "^=", "mailto:").Read("href"),
			locator.ByAttribute("button", "data-item-id", "=", "mail"),
		},
		Fields: map[string][]locator.Locator{
			models.FieldName: {
				locator.ByClassName("h1", "DUwDvf"),
				locator.ByCSS("div[role='main'] h1"),
				locator.ByRole("heading", ""),
			},
			models.FieldCategory: {
				locator.ByAttribute("button", "jsaction", "*=", "category"),
				locator.ByClassName("span", "DkEaL"),
				locator.ByClassName("span", "mgr77e"),
			},
			models.FieldRating: {
				locator.ByCSS("div.F7nice span[aria-hidden='true']"),
				locator.ByCSS("div[jsaction='pane.reviewChart.moreReviews'] div[role='img']").Read("aria-label"),
				locator.ByRole("img", "stars").Read("aria-label"),
			},
			models.FieldReviews: {
				locator.ByCSS("div.F7nice span[aria-label*='review']").Read("aria-label"),
				locator.ByAttribute("button", "jsaction", "*=", "reviewChart"),
			},
			models.FieldPhone: {
				locator.ByAttribute("button", "data-item-id", "^=", "phone:tel").Read("data-item-id"),
				locator.ByAttribute("button", "data-item-id", "^=", "phone"),
				locator.ByAttribute("", "data-tooltip", "=", "Copy phone number"),
				locator.ByCSS("button[aria-label*='phone' i]").Read("aria-label"),
				locator.ByAttribute("a", "href", "^=", "tel:").Read("href"),
			},
			models.FieldWebsite: {
				locator.ByAttribute("a", "data-item-id", "^=", "authority").Read("href"),
				locator.ByAttribute("", "data-tooltip", "=", "Open website").Read("href"),
				locator.ByAttribute("a", "aria-label", "*=", "site").Read("href"),
			},
			models.FieldAddress: {
				locator.ByAttribute("button", "data-item-id", "^=", "address"),
				locator.ByAttribute("", "data-tooltip", "=", "Copy address"),
				locator.ByCSS("button[aria-label*='address' i]").Read("aria-label"),
			},
		},
	}
}

// DetailFields builds the field specs for a place page. pageURL anchors
// relative website links.
func (c Chains) DetailFields(pageURL string) []locator.FieldSpec {
	normalizers := map[string]locator.Normalizer{
		models.FieldName:     CleanText,
		models.FieldCategory: NormalizeCategory,
		models.FieldRating:   NormalizeRating,
		models.FieldReviews:  NormalizeReviews,
		models.FieldPhone:    NormalizePhone,
		models.FieldWebsite:  NormalizeWebsite(pageURL),
		models.FieldAddress:  NormalizeAddress,
	}
	specs := make([]locator.FieldSpec, 0, len(detailFieldOrder))
	for _, name := range detailFieldOrder {
		specs = append(specs, locator.FieldSpec{
			Name:       name,
			Candidates: c.Fields[name],
			Normalize:  normalizers[name],
			Scope:      locator.ScopePage,
		})
	}
	return specs
}

func (c Chains) EmailSpec() locator.FieldSpec {
	return locator.FieldSpec{
		Name:       models.FieldEmail,
		Candidates: c.Email,
		Normalize:  NormalizeEmail,
		Scope:      locator.ScopePage,
	}
}

// CardNameSpec resolves a listing's name inside its result card.
func (c Chains) CardNameSpec() locator.FieldSpec {
	return locator.FieldSpec{
		Name:       models.FieldName,
		Candidates: c.CardNames,
		Normalize:  CleanText,
		Scope:      locator.ScopeElement,
	}
}

type chainOverrides struct {
	Consent          []locator.Def            `yaml:"consent"`
	ResultContainers []locator.Def            `yaml:"result_containers"`
	ScrollContainers []locator.Def            `yaml:"scroll_containers"`
	ListingAnchors   []locator.Def            `yaml:"listing_anchors"`
	CardNames        []locator.Def            `yaml:"card_names"`
	CardClickables   []locator.Def            `yaml:"card_clickables"`
	BackButtons      []locator.Def            `yaml:"back_buttons"`
	Email            []locator.Def            `yaml:"email"`
	Fields           map[string][]locator.Def `yaml:"fields"`
}

// LoadChains returns the default chains with any lists in the YAML file
// at path replacing their defaults. An empty path yields the defaults.
func LoadChains(path string) (Chains, error) {
	chains := DefaultChains()
	if path == "" {
		return chains, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return Chains{}, fmt.Errorf("read selectors file: %w", err)
	}
	return ApplyOverrides(chains, raw)
}

func ApplyOverrides(chains Chains, raw []byte) (Chains, error) {
	var ov chainOverrides
	if err := yaml.UnmarshalStrict(raw, &ov); err != nil {
		return Chains{}, fmt.Errorf("parse selectors file: %w", err)
	}

	lists := []struct {
		name string
		defs []locator.Def
		dst  *[]locator.Locator
	}{
		{"consent", ov.Consent, &chains.Consent},
		{"result_containers", ov.ResultContainers, &chains.ResultContainers},
		{"scroll_containers", ov.ScrollContainers, &chains.ScrollContainers},
		{"listing_anchors", ov.ListingAnchors, &chains.ListingAnchors},
		{"card_names", ov.CardNames, &chains.CardNames},
		{"card_clickables", ov.CardClickables, &chains.CardClickables},
		{"back_buttons", ov.BackButtons, &chains.BackButtons},
		{"email", ov.Email, &chains.Email},
	}
	for _, l := range lists {
		if len(l.defs) == 0 {
			continue
		}
		chain, err := locator.Chain(l.defs)
		if err != nil {
			return Chains{}, fmt.Errorf("%s: %w", l.name, err)
		}
		*l.dst = chain
	}

	fields := make(map[string][]locator.Locator, len(chains.Fields))
	for k, v := range chains.Fields {
		fields[k] = v
	}
	for name, defs := range ov.Fields {
		if !isDetailField(name) {
			return Chains{}, fmt.Errorf("fields: unknown field %q", name)
		}
		chain, err := locator.Chain(defs)
		if err != nil {
			return Chains{}, fmt.Errorf("fields.%s: %w", name, err)
		}
		fields[name] = chain
	}
	chains.Fields = fields
	return chains, nil
}

func isDetailField(name string) bool {
	for _, f := range detailFieldOrder {
		if f == name {
			return true
		}
	}
	return false
}
