package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tolisxo/gmaps-leads/models"
	"github.com/tolisxo/gmaps-leads/scraper"
	"github.com/tolisxo/gmaps-leads/utils"
)

type stubDiscoverer struct {
	refs []models.ListingReference
	err  error
}

func (d stubDiscoverer) Discover(context.Context, string, string, int) ([]models.ListingReference, error) {
	return d.refs, d.err
}

// stubExtractor builds a record named after the reference unless the
// identity is listed in fail. onExtract runs after every call.
type stubExtractor struct {
	fail      map[string]bool
	partial   map[string]bool
	identity  func(ref models.ListingReference) string
	onExtract func(ref models.ListingReference)
	calls     []string
}

func (e *stubExtractor) Extract(_ context.Context, ref models.ListingReference) scraper.Outcome {
	e.calls = append(e.calls, ref.Identity)
	if e.onExtract != nil {
		defer e.onExtract(ref)
	}
	out := scraper.Outcome{Ref: ref, Attempts: 1}
	if e.fail[ref.Identity] {
		out.State = scraper.StateClosed
		out.Trace = []scraper.State{scraper.StateExhausted, scraper.StateClosed}
		out.Err = scraper.ErrExhausted
		return out
	}
	id := ref.Identity
	if e.identity != nil {
		id = e.identity(ref)
	}
	verdict := scraper.StateSucceeded
	if e.partial[ref.Identity] {
		verdict = scraper.StatePartial
	}
	rec := models.NewBusinessRecord(id, ref.SourceIndex, map[string]string{models.FieldName: ref.Name})
	out.Record = &rec
	out.State = scraper.StateClosed
	out.Trace = []scraper.State{scraper.StateOpening, scraper.StateExtracting, verdict, scraper.StateClosed}
	return out
}

func refs(names ...string) []models.ListingReference {
	out := make([]models.ListingReference, len(names))
	for i, n := range names {
		out[i] = models.ListingReference{Identity: "name:" + n, SourceIndex: i, Name: n}
	}
	return out
}

func names(set *models.ResultSet) []string {
	var out []string
	for _, r := range set.Records() {
		out = append(out, r.Value(models.FieldName))
	}
	return out
}

type countingSleeper struct{ n int }

func (c *countingSleeper) Sleep(ctx context.Context, _ time.Duration) error {
	c.n++
	return ctx.Err()
}

func TestRunnerCollectsInDiscoveryOrder(t *testing.T) {
	ext := &stubExtractor{partial: map[string]bool{"name:Beta": true}}
	sleeper := &countingSleeper{}
	r := &Runner{
		Discover: stubDiscoverer{refs: refs("Alpha", "Beta", "Gamma")},
		Extract:  ext,
		Delay:    func() time.Duration { return time.Second },
		Sleeper:  sleeper,
		Log:      utils.Discard(),
	}

	set, sum, err := r.Run(context.Background(), Params{Query: "cafes", MaxResults: 10})
	require.NoError(t, err)
	assert.Equal(t, []string{"Alpha", "Beta", "Gamma"}, names(set))
	assert.Equal(t, 3, sum.Discovered)
	assert.Equal(t, 2, sum.Succeeded)
	assert.Equal(t, 1, sum.Partial)
	assert.Equal(t, 3, sum.Collected)
	assert.Equal(t, 2, sleeper.n, "delay only between listings")
}

func TestRunnerStopsAtCap(t *testing.T) {
	ext := &stubExtractor{}
	r := &Runner{
		Discover: stubDiscoverer{refs: refs("Alpha", "Beta", "Gamma", "Delta")},
		Extract:  ext,
		Log:      utils.Discard(),
	}

	set, sum, err := r.Run(context.Background(), Params{Query: "cafes", MaxResults: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"Alpha", "Beta"}, names(set))
	assert.Len(t, ext.calls, 2)
	assert.Equal(t, 2, sum.Collected)
}

func TestRunnerCountsExhaustedListings(t *testing.T) {
	ext := &stubExtractor{fail: map[string]bool{"name:Beta": true}}
	r := &Runner{
		Discover: stubDiscoverer{refs: refs("Alpha", "Beta", "Gamma")},
		Extract:  ext,
		Log:      utils.Discard(),
	}

	set, sum, err := r.Run(context.Background(), Params{Query: "cafes"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Alpha", "Gamma"}, names(set))
	assert.Equal(t, 1, sum.Exhausted)
	assert.Equal(t, 2, sum.Succeeded)
}

func TestRunnerSkipsDuplicateIdentities(t *testing.T) {
	discovered := refs("Alpha", "Beta")
	// Same place reached through two cards.
	ext := &stubExtractor{identity: func(models.ListingReference) string { return "https://maps/place/x" }}
	r := &Runner{
		Discover: stubDiscoverer{refs: discovered},
		Extract:  ext,
		Log:      utils.Discard(),
	}

	set, sum, err := r.Run(context.Background(), Params{Query: "cafes"})
	require.NoError(t, err)
	assert.Equal(t, 1, set.Len())
	assert.Equal(t, 1, sum.Duplicates)
}

func TestRunnerHonoursStopBetweenListings(t *testing.T) {
	stop := make(chan struct{})
	ext := &stubExtractor{}
	ext.onExtract = func(ref models.ListingReference) {
		if ref.Name == "Alpha" {
			close(stop)
		}
	}
	r := &Runner{
		Discover: stubDiscoverer{refs: refs("Alpha", "Beta", "Gamma")},
		Extract:  ext,
		Stop:     stop,
		Log:      utils.Discard(),
	}

	set, sum, err := r.Run(context.Background(), Params{Query: "cafes"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Alpha"}, names(set), "listing in flight still finishes")
	assert.True(t, sum.Stopped)
	assert.Equal(t, []string{"name:Alpha"}, ext.calls)
}

func TestRunnerReturnsEmptySetOnDiscoveryError(t *testing.T) {
	boom := errors.New("navigation failed")
	ext := &stubExtractor{}
	r := &Runner{
		Discover: stubDiscoverer{err: boom},
		Extract:  ext,
		Log:      utils.Discard(),
	}

	set, _, err := r.Run(context.Background(), Params{Query: "cafes"})
	require.ErrorIs(t, err, boom)
	require.NotNil(t, set)
	assert.Zero(t, set.Len())
	assert.Empty(t, ext.calls)
}

func TestRunnerStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	ext := &stubExtractor{}
	ext.onExtract = func(models.ListingReference) { cancel() }
	r := &Runner{
		Discover: stubDiscoverer{refs: refs("Alpha", "Beta")},
		Extract:  ext,
		Log:      utils.Discard(),
	}

	set, _, err := r.Run(ctx, Params{Query: "cafes"})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []string{"Alpha"}, names(set))
}
