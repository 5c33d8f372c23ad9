package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tolisxo/gmaps-leads/models"
	"github.com/tolisxo/gmaps-leads/utils"
)

type stubHunter struct {
	email   string
	err     error
	sites   []string
	retries int
}

func (h *stubHunter) HuntWithRetry(_ context.Context, site string, retries int, _ utils.Sleeper) (string, error) {
	h.sites = append(h.sites, site)
	h.retries = retries
	return h.email, h.err
}

func TestWebsiteEmailEnricher(t *testing.T) {
	ref := models.ListingReference{Name: "Acme Cafe"}

	t.Run("fills missing email", func(t *testing.T) {
		h := &stubHunter{email: "hello@acme.test"}
		values := map[string]string{models.FieldWebsite: "https://acme.test"}
		WebsiteEmailEnricher(h, &countingSleeper{}, utils.Discard())(context.Background(), ref, values)
		assert.Equal(t, "hello@acme.test", values[models.FieldEmail])
		assert.Equal(t, []string{"https://acme.test"}, h.sites)
		assert.Equal(t, websiteHuntAttempts, h.retries)
	})

	t.Run("replaces placeholder", func(t *testing.T) {
		h := &stubHunter{email: "hello@acme.test"}
		values := map[string]string{models.FieldWebsite: "https://acme.test", models.FieldEmail: models.NotAvailable}
		WebsiteEmailEnricher(h, &countingSleeper{}, utils.Discard())(context.Background(), ref, values)
		assert.Equal(t, "hello@acme.test", values[models.FieldEmail])
	})

	t.Run("keeps found email", func(t *testing.T) {
		h := &stubHunter{email: "other@acme.test"}
		values := map[string]string{models.FieldWebsite: "https://acme.test", models.FieldEmail: "owner@acme.test"}
		WebsiteEmailEnricher(h, &countingSleeper{}, utils.Discard())(context.Background(), ref, values)
		assert.Equal(t, "owner@acme.test", values[models.FieldEmail])
		assert.Empty(t, h.sites)
	})

	t.Run("no website", func(t *testing.T) {
		h := &stubHunter{email: "hello@acme.test"}
		values := map[string]string{}
		WebsiteEmailEnricher(h, &countingSleeper{}, utils.Discard())(context.Background(), ref, values)
		assert.NotContains(t, values, models.FieldEmail)
		assert.Empty(t, h.sites)
	})

	t.Run("hunt error leaves values", func(t *testing.T) {
		h := &stubHunter{err: errors.New("timeout")}
		values := map[string]string{models.FieldWebsite: "https://acme.test"}
		WebsiteEmailEnricher(h, &countingSleeper{}, utils.Discard())(context.Background(), ref, values)
		assert.NotContains(t, values, models.FieldEmail)
	})
}
