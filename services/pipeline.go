package services

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"

	"github.com/tolisxo/gmaps-leads/config"
	"github.com/tolisxo/gmaps-leads/export"
	"github.com/tolisxo/gmaps-leads/models"
	"github.com/tolisxo/gmaps-leads/scraper"
	"github.com/tolisxo/gmaps-leads/storage"
	"github.com/tolisxo/gmaps-leads/utils"
)

// Scraper runs one scrape and returns what it collected.
type Scraper interface {
	Run(ctx context.Context, p Params) (*models.ResultSet, Summary, error)
}

type SeenStore interface {
	Seen(ctx context.Context, query, identity string) (bool, error)
	Mark(ctx context.Context, query string, identities ...string) error
	Close() error
}

// Pipeline is the full run: optional seen filtering, scrape, export,
// optional persistence and the console report.
type Pipeline struct {
	Config config.Config
	Stop   <-chan struct{}
	Out    io.Writer
	Log    *utils.Logger

	// NewScraper defaults to a browser-backed Scrape.
	NewScraper func(seen scraper.SeenFunc) Scraper
	Sink       storage.Sink
	SeenStore  SeenStore
}

func (pl *Pipeline) Execute(ctx context.Context, p Params) error {
	log := pl.Log
	if log == nil {
		log = utils.NewLogger("pipeline")
	}
	out := pl.Out
	if out == nil {
		out = os.Stdout
	}
	if err := pl.connect(ctx, log); err != nil {
		return err
	}
	defer pl.close(log)

	term := p.SearchTerm()
	seen := pl.seenFunc(ctx, term, log)

	newScraper := pl.NewScraper
	if newScraper == nil {
		newScraper = func(seen scraper.SeenFunc) Scraper {
			return &Scrape{Config: pl.Config, Stop: pl.Stop, Seen: seen, Log: log.With("scrape")}
		}
	}

	set, sum, runErr := newScraper(seen).Run(ctx, p)
	if runErr != nil {
		log.Errorf("scrape %q: %v", term, runErr)
	}
	records := set.Records()

	exporter := export.Exporter{
		Dir:      pl.Config.OutputDir,
		BaseName: "google_maps_data_" + FileStem(term),
		Formats:  pl.Config.OutputFormats,
	}
	paths, exportErr := exporter.Export(records)
	for _, path := range paths {
		log.Infof("wrote %s", path)
	}
	if exportErr != nil {
		log.Errorf("export: %v", exportErr)
	}

	// Persist with a fresh context so an interrupted scrape still saves.
	persistCtx := context.WithoutCancel(ctx)
	if pl.Sink != nil && len(records) > 0 {
		n, err := pl.Sink.Save(persistCtx, term, records)
		if err != nil {
			log.Errorf("save: %v", err)
		} else {
			log.Infof("upserted %d businesses", n)
		}
	}
	if pl.SeenStore != nil && len(records) > 0 {
		ids := make([]string, 0, len(records))
		for _, r := range records {
			ids = append(ids, r.Identity())
		}
		if err := pl.SeenStore.Mark(persistCtx, term, ids...); err != nil {
			log.Warnf("mark seen: %v", err)
		}
	}

	PrintRecords(out, records)
	PrintSummary(out, sum)

	if runErr != nil {
		return runErr
	}
	return exportErr
}

func (pl *Pipeline) connect(ctx context.Context, log *utils.Logger) error {
	cfg := pl.Config
	if pl.Sink == nil && cfg.DBDriver != "" {
		sink, err := storage.OpenSink(ctx, cfg.DBDriver, cfg.DBDSN)
		if err != nil {
			return fmt.Errorf("open %s sink: %w", cfg.DBDriver, err)
		}
		pl.Sink = sink
	}
	if pl.SeenStore == nil && cfg.RedisAddr != "" {
		store, err := storage.NewRedisSeen(ctx, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			log.Warnf("redis unavailable, cross-run dedupe disabled: %v", err)
			return nil
		}
		pl.SeenStore = store
	}
	return nil
}

func (pl *Pipeline) close(log *utils.Logger) {
	if pl.Sink != nil {
		if err := pl.Sink.Close(); err != nil {
			log.Warnf("close sink: %v", err)
		}
	}
	if pl.SeenStore != nil {
		if err := pl.SeenStore.Close(); err != nil {
			log.Warnf("close redis: %v", err)
		}
	}
}

// seenFunc merges identities stored by the SQL sink with the Redis set.
// Lookup errors count as unseen.
func (pl *Pipeline) seenFunc(ctx context.Context, term string, log *utils.Logger) scraper.SeenFunc {
	var stored map[string]struct{}
	if pl.Sink != nil {
		existing, err := pl.Sink.Existing(ctx, term)
		if err != nil {
			log.Warnf("load stored businesses: %v", err)
		} else {
			stored = existing
		}
	}
	store := pl.SeenStore
	if len(stored) == 0 && store == nil {
		return nil
	}
	return func(ctx context.Context, identity string) bool {
		if _, ok := stored[identity]; ok {
			return true
		}
		if store == nil {
			return false
		}
		ok, err := store.Seen(ctx, term, identity)
		if err != nil {
			log.Warnf("seen lookup: %v", err)
			return false
		}
		return ok
	}
}

// FileStem turns a search term into a file name stem.
func FileStem(term string) string {
	var b strings.Builder
	underscore := false
	for _, r := range strings.ToLower(strings.TrimSpace(term)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			underscore = false
			continue
		}
		if !underscore && b.Len() > 0 {
			b.WriteByte('_')
			underscore = true
		}
	}
	stem := strings.TrimSuffix(b.String(), "_")
	if stem == "" {
		return "results"
	}
	return stem
}
