package services

import (
	"context"
	"fmt"

	"github.com/tolisxo/gmaps-leads/browser"
	"github.com/tolisxo/gmaps-leads/config"
	"github.com/tolisxo/gmaps-leads/enrich"
	"github.com/tolisxo/gmaps-leads/models"
	"github.com/tolisxo/gmaps-leads/scraper"
	"github.com/tolisxo/gmaps-leads/utils"
)

// Scrape wires a browser session, the discovery and extraction engines
// and optional enrichment into a Runner.
type Scrape struct {
	Config config.Config
	Stop   <-chan struct{}
	Seen   scraper.SeenFunc
	Log    *utils.Logger

	// OpenSession defaults to browser.Open.
	OpenSession func(ctx context.Context, driver string, opts browser.Options) (browser.Session, error)
}

// RunScrape performs one scrape with the given configuration.
func RunScrape(ctx context.Context, cfg config.Config, p Params, stop <-chan struct{}) (*models.ResultSet, Summary, error) {
	s := &Scrape{Config: cfg, Stop: stop, Log: utils.NewLogger("scrape")}
	return s.Run(ctx, p)
}

func (s *Scrape) Run(ctx context.Context, p Params) (*models.ResultSet, Summary, error) {
	cfg := s.Config
	log := s.Log
	if log == nil {
		log = utils.NewLogger("scrape")
	}

	chains, err := scraper.LoadChains(cfg.SelectorsFile)
	if err != nil {
		return models.NewResultSet(p.MaxResults), Summary{}, err
	}

	open := s.OpenSession
	if open == nil {
		open = browser.Open
	}
	wait, err := browser.ParseWaitPolicy(cfg.NavWait)
	if err != nil {
		return models.NewResultSet(p.MaxResults), Summary{}, err
	}
	session, err := open(ctx, cfg.Driver, browser.Options{
		Headless:   p.Headless,
		UserAgent:  cfg.UserAgent,
		NavTimeout: cfg.NavTimeout,
		Wait:       wait,
	})
	if err != nil {
		return models.NewResultSet(p.MaxResults), Summary{}, fmt.Errorf("open browser: %w", err)
	}
	defer func() {
		if err := session.Close(); err != nil {
			log.Warnf("close browser: %v", err)
		}
	}()

	sleeper := utils.RealSleeper{}
	discoverer := &scraper.Discoverer{
		Page:        session.Primary(),
		Chains:      chains,
		BaseURL:     cfg.BaseURL,
		Sleeper:     sleeper,
		ResultsWait: cfg.ResultsWait,
		Scroll: scraper.ScrollPolicy{
			MaxPulses: cfg.PulsesFor(p.MaxResults),
			MinDelay:  cfg.DelayMin,
			MaxDelay:  cfg.DelayMax,
		},
		Seen: s.Seen,
		Log:  log.With("discover"),
	}

	extractor := &scraper.Extractor{
		Session:       session,
		Chains:        chains,
		Mode:          cfg.DetailMode,
		MaxAttempts:   cfg.DetailMaxAttempts,
		Backoff:       cfg.DetailBackoff,
		SettleDelay:   cfg.SettleDelay,
		SettleTimeout: cfg.ResultsWait,
		Sleeper:       sleeper,
		Log:           log.With("extract"),
	}
	var mx *enrich.MXChecker
	if cfg.VerifyEmailMX {
		mx = enrich.NewMXChecker()
		extractor.VerifyEmail = mx.HasMX
	}
	if cfg.EnrichWebsites {
		opts := enrich.HunterOptions{
			MaxPages:  cfg.WebsiteMaxPages,
			Timeout:   cfg.WebsiteTimeout,
			RPS:       cfg.WebsiteRPS,
			UserAgent: cfg.UserAgent,
			Log:       log.With("website"),
		}
		if mx != nil {
			opts.Verify = mx.HasMX
		}
		extractor.Enrich = WebsiteEmailEnricher(enrich.NewWebsiteHunter(opts), sleeper, log.With("website"))
	}

	runner := &Runner{
		Discover: discoverer,
		Extract:  extractor,
		Stop:     s.Stop,
		Delay:    cfg.RandomDelay,
		Sleeper:  sleeper,
		Log:      log,
	}
	return runner.Run(ctx, p)
}
