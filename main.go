package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/tolisxo/gmaps-leads/config"
	"github.com/tolisxo/gmaps-leads/services"
	"github.com/tolisxo/gmaps-leads/utils"
)

type cli struct {
	Query     string   `help:"Business niche to search for, e.g. \"dentists\"." short:"q"`
	Region    string   `help:"Region appended to the query, e.g. \"Zurich\"." short:"r"`
	Max       int      `help:"Maximum number of businesses to collect (0 = no limit)." short:"n"`
	Input     string   `help:"File with one search term per line, used when no query is given." default:"input.txt" type:"path"`
	Headed    bool     `help:"Show the browser window."`
	Driver    string   `help:"Browser driver (chromedp or rod)." enum:",chromedp,rod" default:""`
	Mode      string   `help:"Detail mode (link or inplace)." enum:",link,inplace" default:""`
	OutputDir string   `help:"Directory for exported files." name:"out" type:"path"`
	Formats   []string `help:"Export formats (csv, xlsx)." sep:","`
	Selectors string   `help:"YAML file overriding the built-in selector chains." type:"path"`
	Enrich    bool     `help:"Crawl business websites for missing emails."`
	EnvFile   string   `help:"Path to a .env file." default:".env" type:"path"`
}

func main() {
	var flags cli
	kong.Parse(&flags,
		kong.Name("gmaps-leads"),
		kong.Description("Collect business listings from Google Maps and export them to CSV/XLSX."),
	)

	cfg, err := config.Load(flags.EnvFile)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	flags.apply(&cfg)
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	jobs, err := flags.jobs(cfg, os.Stdin)
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := interruptible()
	defer stop.cancel()

	failed := 0
	for i, p := range jobs {
		if stop.requested() || ctx.Err() != nil {
			break
		}
		log.Printf("[%d/%d] searching %q", i+1, len(jobs), p.SearchTerm())
		pl := &services.Pipeline{
			Config: cfg,
			Stop:   stop.ch,
			Log:    utils.NewLogger("pipeline"),
		}
		if err := pl.Execute(ctx, p); err != nil {
			log.Printf("[%d/%d] %q failed: %v", i+1, len(jobs), p.SearchTerm(), err)
			failed++
		}
	}
	if failed > 0 {
		os.Exit(1)
	}
}

func (c cli) apply(cfg *config.Config) {
	if c.Headed {
		cfg.Headless = false
	}
	if c.Driver != "" {
		cfg.Driver = c.Driver
	}
	if c.Mode != "" {
		cfg.DetailMode = c.Mode
	}
	if c.OutputDir != "" {
		cfg.OutputDir = c.OutputDir
	}
	if len(c.Formats) > 0 {
		formats := make([]string, 0, len(c.Formats))
		for _, f := range c.Formats {
			if f = strings.ToLower(strings.TrimSpace(f)); f != "" {
				formats = append(formats, f)
			}
		}
		cfg.OutputFormats = formats
	}
	if c.Selectors != "" {
		cfg.SelectorsFile = c.Selectors
	}
	if c.Enrich {
		cfg.EnrichWebsites = true
	}
}

// stopSignal closes ch on the first interrupt so the current listing can
// finish, and cancels the context on the second.
type stopSignal struct {
	ch     chan struct{}
	cancel context.CancelFunc
}

func interruptible() (context.Context, *stopSignal) {
	ctx, cancel := context.WithCancel(context.Background())
	s := &stopSignal{ch: make(chan struct{}), cancel: cancel}

	sigs := make(chan os.Signal, 2)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	go func() {
		defer signal.Stop(sigs)
		select {
		case <-sigs:
			log.Println("stopping after the current listing, press Ctrl+C again to abort")
			close(s.ch)
		case <-ctx.Done():
			return
		}
		select {
		case <-sigs:
			log.Println("aborting")
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, s
}

func (s *stopSignal) requested() bool {
	select {
	case <-s.ch:
		return true
	default:
		return false
	}
}
