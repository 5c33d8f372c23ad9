package services

import (
	"context"

	"github.com/tolisxo/gmaps-leads/models"
	"github.com/tolisxo/gmaps-leads/utils"
)

const websiteHuntAttempts = 3

type EmailHunter interface {
	HuntWithRetry(ctx context.Context, website string, retries int, s utils.Sleeper) (string, error)
}

// WebsiteEmailEnricher fills in a missing email by crawling the listing's
// website. Listings that already carry a usable email are left alone.
func WebsiteEmailEnricher(h EmailHunter, s utils.Sleeper, log *utils.Logger) func(context.Context, models.ListingReference, map[string]string) {
	return func(ctx context.Context, ref models.ListingReference, values map[string]string) {
		if email := values[models.FieldEmail]; email != "" && email != models.NotAvailable {
			return
		}
		site := values[models.FieldWebsite]
		if site == "" {
			return
		}
		email, err := h.HuntWithRetry(ctx, site, websiteHuntAttempts, s)
		if err != nil {
			log.Warnf("%s: %v", ref.Label(), err)
			return
		}
		if email != "" {
			log.Infof("%s: found %s on %s", ref.Label(), email, site)
			values[models.FieldEmail] = email
		}
	}
}
