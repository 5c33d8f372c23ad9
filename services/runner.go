package services

import (
	"context"
	"time"

	"github.com/tolisxo/gmaps-leads/models"
	"github.com/tolisxo/gmaps-leads/scraper"
	"github.com/tolisxo/gmaps-leads/utils"
)

type Discoverer interface {
	Discover(ctx context.Context, query, region string, maxResults int) ([]models.ListingReference, error)
}

type Extractor interface {
	Extract(ctx context.Context, ref models.ListingReference) scraper.Outcome
}

// Params are the inputs of one scrape. MaxResults <= 0 means no limit.
type Params struct {
	Query      string
	Region     string
	MaxResults int
	Headless   bool
}

// SearchTerm is the text typed into the search box.
func (p Params) SearchTerm() string {
	return scraper.SearchTermOf(p.Query, p.Region)
}

type Summary struct {
	Discovered int
	Succeeded  int
	Partial    int
	Exhausted  int
	Duplicates int
	Collected  int
	Stopped    bool
	Duration   time.Duration
}

// Runner walks discovered listings one at a time. A stop request is only
// honoured between listings so the listing in flight always finishes.
type Runner struct {
	Discover Discoverer
	Extract  Extractor
	Stop     <-chan struct{}
	Delay    func() time.Duration
	Sleeper  utils.Sleeper
	Log      *utils.Logger
}

func (r *Runner) Run(ctx context.Context, p Params) (*models.ResultSet, Summary, error) {
	started := time.Now()
	set := models.NewResultSet(p.MaxResults)
	var sum Summary

	refs, err := r.Discover.Discover(ctx, p.Query, p.Region, p.MaxResults)
	if err != nil {
		sum.Duration = time.Since(started)
		return set, sum, err
	}
	sum.Discovered = len(refs)
	r.Log.Infof("discovered %d listings for %q", len(refs), p.SearchTerm())

	for i, ref := range refs {
		if r.stopRequested() {
			r.Log.Warnf("stop requested, skipping the remaining %d listings", len(refs)-i)
			sum.Stopped = true
			break
		}
		if ctx.Err() != nil {
			break
		}
		if set.Full() {
			break
		}
		if set.Contains(ref.Identity) {
			sum.Duplicates++
			continue
		}

		r.Log.Infof("[%d/%d] %s", i+1, len(refs), ref.Label())
		out := r.Extract.Extract(ctx, ref)
		switch {
		case out.Record == nil:
			sum.Exhausted++
			r.Log.Errorf("%s: %v", ref.Label(), out.Err)
		case set.Add(*out.Record):
			if out.Verdict() == scraper.StateSucceeded {
				sum.Succeeded++
			} else {
				sum.Partial++
			}
		default:
			sum.Duplicates++
		}

		if i+1 < len(refs) && r.Delay != nil && r.Sleeper != nil {
			if err := r.Sleeper.Sleep(ctx, r.Delay()); err != nil {
				break
			}
		}
	}

	sum.Collected = set.Len()
	sum.Duration = time.Since(started)
	return set, sum, ctx.Err()
}

func (r *Runner) stopRequested() bool {
	if r.Stop == nil {
		return false
	}
	select {
	case <-r.Stop:
		return true
	default:
		return false
	}
}
