package models

import "github.com/tolisxo/gmaps-leads/locator"

// ListingReference points at one search result. Link-based references
// carry the place URL and can be opened in their own tab. Every reference
// also records which card it came from so it can be clicked in place.
type ListingReference struct {
	Identity    string
	SourceIndex int
	URL         string
	Name        string

	Card      locator.Locator
	CardIndex int
}

func (r ListingReference) LinkBased() bool {
	return r.URL != ""
}

// Label is used in log lines.
func (r ListingReference) Label() string {
	if r.Name != "" {
		return r.Name
	}
	return r.Identity
}
