package locator

import (
	"fmt"
	"strings"
)

// Def is the YAML form of a Locator:
//
//	- css: "button[data-item-id^='phone']"
//	- xpath: "//button[contains(., 'Accept')]"
//	  attr: aria-label
type Def struct {
	CSS   string `yaml:"css"`
	XPath string `yaml:"xpath"`
	Role  string `yaml:"role"`
	Label string `yaml:"label"`
	Attr  string `yaml:"attr"`
}

func (d Def) Locator() (Locator, error) {
	var l Locator
	switch {
	case strings.TrimSpace(d.CSS) != "":
		l = ByCSS(strings.TrimSpace(d.CSS))
	case strings.TrimSpace(d.XPath) != "":
		l = ByXPath(strings.TrimSpace(d.XPath))
	case strings.TrimSpace(d.Role) != "":
		l = ByRole(strings.TrimSpace(d.Role), d.Label)
	default:
		return Locator{}, fmt.Errorf("locator needs one of css, xpath or role")
	}
	return l.Read(strings.TrimSpace(d.Attr)), nil
}

func Chain(defs []Def) ([]Locator, error) {
	out := make([]Locator, 0, len(defs))
	for i, d := range defs {
		l, err := d.Locator()
		if err != nil {
			return nil, fmt.Errorf("candidate %d: %w", i, err)
		}
		out = append(out, l)
	}
	return out, nil
}
