package config

import (
	"errors"
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverChromedp = "chromedp"
	DriverRod      = "rod"

	DetailModeLink    = "link"
	DetailModeInPlace = "inplace"

	NavWaitLoad     = "load"
	NavWaitDOMReady = "domready"

	defaultBaseURL   = "https://www.google.com/maps"
	defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36"

	defaultScrollPulses    = 10
	websiteMaxPagesDefault = 6
)

type Config struct {
	Headless  bool
	Driver    string
	BaseURL   string
	UserAgent string

	DelayMin    time.Duration
	DelayMax    time.Duration
	SettleDelay time.Duration
	NavTimeout  time.Duration
	NavWait     string
	ResultsWait time.Duration

	DetailMaxAttempts int
	DetailBackoff     time.Duration
	DetailMode        string
	MaxScrollPulses   int

	OutputDir     string
	OutputFormats []string
	SelectorsFile string

	DBDriver      string
	DBDSN         string
	RedisAddr     string
	RedisPassword string

	EnrichWebsites  bool
	WebsiteMaxPages int
	WebsiteTimeout  time.Duration
	WebsiteRPS      float64
	VerifyEmailMX   bool
}

// Load reads the given env files (".env" when none are named) and then the
// process environment. Missing files are skipped; variables already set in
// the environment win.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}
	return FromEnv()
}

func FromEnv() (Config, error) {
	headless, err := parseBoolEnv("HEADLESS", true)
	if err != nil {
		return Config{}, err
	}
	enrich, err := parseBoolEnv("ENRICH_WEBSITES", false)
	if err != nil {
		return Config{}, err
	}
	verifyMX, err := parseBoolEnv("VERIFY_EMAIL_MX", false)
	if err != nil {
		return Config{}, err
	}

	delayMin := parseDurationEnv("RANDOM_DELAY_MIN_MS", 2500)
	delayMax := parseDurationEnv("RANDOM_DELAY_MAX_MS", 3500)
	if delayMax < delayMin {
		delayMin, delayMax = delayMax, delayMin
	}

	cfg := Config{
		Headless:          headless,
		Driver:            strings.ToLower(valueOrDefault(os.Getenv("BROWSER_DRIVER"), DriverChromedp)),
		BaseURL:           strings.TrimRight(valueOrDefault(os.Getenv("MAPS_BASE_URL"), defaultBaseURL), "/"),
		UserAgent:         valueOrDefault(os.Getenv("USER_AGENT"), defaultUserAgent),
		DelayMin:          delayMin,
		DelayMax:          delayMax,
		SettleDelay:       parseDurationEnv("SETTLE_DELAY_MS", 2000),
		NavTimeout:        parseDurationEnv("NAV_TIMEOUT_MS", 60000),
		NavWait:           strings.ToLower(valueOrDefault(os.Getenv("NAV_WAIT"), NavWaitLoad)),
		ResultsWait:       parseDurationEnv("RESULTS_WAIT_MS", 10000),
		DetailMaxAttempts: parseIntEnv("DETAIL_MAX_ATTEMPTS", 3),
		DetailBackoff:     parseDurationEnv("DETAIL_BACKOFF_MS", 1000),
		DetailMode:        strings.ToLower(valueOrDefault(os.Getenv("DETAIL_MODE"), DetailModeLink)),
		MaxScrollPulses:   parseLimitEnv("MAX_SCROLL_PULSES", 0),
		OutputDir:         valueOrDefault(os.Getenv("OUTPUT_DIR"), "Output"),
		OutputFormats:     parseListEnv("OUTPUT_FORMATS", []string{"csv", "xlsx"}),
		SelectorsFile:     strings.TrimSpace(os.Getenv("SELECTORS_FILE")),
		DBDriver:          strings.ToLower(strings.TrimSpace(os.Getenv("DB_DRIVER"))),
		DBDSN:             strings.TrimSpace(os.Getenv("DB_DSN")),
		RedisAddr:         strings.TrimSpace(os.Getenv("REDIS_ADDR")),
		RedisPassword:     os.Getenv("REDIS_PASSWORD"),
		EnrichWebsites:    enrich,
		WebsiteMaxPages:   parseIntEnv("WEBSITE_MAX_PAGES", websiteMaxPagesDefault),
		WebsiteTimeout:    parseDurationEnv("WEBSITE_FETCH_TIMEOUT_MS", 15000),
		WebsiteRPS:        parseFloatEnv("WEBSITE_RPS", 2),
		VerifyEmailMX:     verifyMX,
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.Driver {
	case DriverChromedp, DriverRod:
	default:
		return fmt.Errorf("invalid BROWSER_DRIVER %q (want %s or %s)", c.Driver, DriverChromedp, DriverRod)
	}
	switch c.DetailMode {
	case DetailModeLink, DetailModeInPlace:
	default:
		return fmt.Errorf("invalid DETAIL_MODE %q (want %s or %s)", c.DetailMode, DetailModeLink, DetailModeInPlace)
	}
	switch c.NavWait {
	case NavWaitLoad, NavWaitDOMReady:
	default:
		return fmt.Errorf("invalid NAV_WAIT %q (want %s or %s)", c.NavWait, NavWaitLoad, NavWaitDOMReady)
	}
	for _, f := range c.OutputFormats {
		if f != "csv" && f != "xlsx" {
			return fmt.Errorf("invalid OUTPUT_FORMATS entry %q", f)
		}
	}
	if c.DBDriver != "" && c.DBDSN == "" {
		return fmt.Errorf("DB_DSN is required when DB_DRIVER=%s", c.DBDriver)
	}
	return nil
}

// PulsesFor returns the scroll pulse budget for a requested result count.
// An explicit MAX_SCROLL_PULSES wins; otherwise one pulse per five
// results, or a fixed budget when the count is unbounded.
func (c Config) PulsesFor(maxResults int) int {
	if c.MaxScrollPulses > 0 {
		return c.MaxScrollPulses
	}
	if maxResults <= 0 {
		return defaultScrollPulses
	}
	if n := maxResults / 5; n > 1 {
		return n
	}
	return 1
}

func (c Config) RandomDelay() time.Duration {
	if c.DelayMin <= 0 && c.DelayMax <= 0 {
		return 0
	}
	if c.DelayMax <= c.DelayMin {
		return c.DelayMin
	}
	delta := c.DelayMax - c.DelayMin
	return c.DelayMin + time.Duration(rand.Int63n(int64(delta)))
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return strings.TrimSpace(value)
}

func parseBoolEnv(key string, fallback bool) (bool, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s value: %w", key, err)
	}
	return b, nil
}

func parseDurationEnv(key string, defaultMs int) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return time.Duration(defaultMs) * time.Millisecond
	}
	ms, err := strconv.Atoi(value)
	if err != nil || ms < 0 {
		return time.Duration(defaultMs) * time.Millisecond
	}
	return time.Duration(ms) * time.Millisecond
}

func parseIntEnv(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

// parseLimitEnv accepts zero, which callers treat as "unset".
func parseLimitEnv(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

func parseFloatEnv(key string, fallback float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || f <= 0 {
		return fallback
	}
	return f
}

func parseListEnv(key string, fallback []string) []string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
