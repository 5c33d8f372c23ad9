package enrich

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"github.com/tolisxo/gmaps-leads/utils"
)

const (
	maxWebsiteResponseBytes = 2 * 1024 * 1024
	websiteDefaultTimeout   = 15 * time.Second
	websiteMaxPagesDefault  = 6
)

var keywordAnchors = []string{
	"kontakt",
	"contact",
	"contacto",
	"contatti",
	"about",
	"über uns",
	"uber uns",
	"impressum",
	"imprint",
	"legal",
	"team",
}

type HunterOptions struct {
	MaxPages  int
	Timeout   time.Duration
	RPS       float64
	UserAgent string
	// Verify, when set, must accept an address before it is returned.
	Verify func(email string) bool
	Log    *utils.Logger
}

// WebsiteHunter crawls a business website breadth-first, staying on its
// host and preferring contact-like links, until it finds an email.
type WebsiteHunter struct {
	client    *http.Client
	limiter   *rate.Limiter
	maxPages  int
	userAgent string
	verify    func(string) bool
	log       *utils.Logger
}

func NewWebsiteHunter(opts HunterOptions) *WebsiteHunter {
	if opts.MaxPages <= 0 {
		opts.MaxPages = websiteMaxPagesDefault
	}
	if opts.Timeout <= 0 {
		opts.Timeout = websiteDefaultTimeout
	}
	limit := rate.Inf
	if opts.RPS > 0 {
		limit = rate.Limit(opts.RPS)
	}
	return &WebsiteHunter{
		client:    &http.Client{Timeout: opts.Timeout},
		limiter:   rate.NewLimiter(limit, 1),
		maxPages:  opts.MaxPages,
		userAgent: opts.UserAgent,
		verify:    opts.Verify,
		log:       opts.Log,
	}
}

// HuntWithRetry retries Hunt on transport errors, sleeping attempt seconds
// between tries.
func (h *WebsiteHunter) HuntWithRetry(ctx context.Context, rawURL string, retries int, s utils.Sleeper) (string, error) {
	if retries < 1 {
		retries = 1
	}
	var email string
	var err error
	for attempt := 0; attempt < retries; attempt++ {
		email, err = h.Hunt(ctx, rawURL)
		if err == nil {
			return email, nil
		}
		if attempt+1 < retries {
			if serr := s.Sleep(ctx, time.Second*time.Duration(attempt+1)); serr != nil {
				return "", serr
			}
		}
	}
	return "", err
}

// Hunt returns the first usable email found on the site, or "".
func (h *WebsiteHunter) Hunt(ctx context.Context, rawURL string) (string, error) {
	startURL := ensureURLHasScheme(UnwrapRedirect(rawURL))
	base, err := url.Parse(startURL)
	if err != nil || base.Host == "" {
		return "", fmt.Errorf("invalid website URL %q", rawURL)
	}

	queue := []string{startURL}
	visited := make(map[string]struct{})
	pages := 0
	var firstErr error

	for len(queue) > 0 && pages < h.maxPages {
		current := queue[0]
		queue = queue[1:]
		if _, seen := visited[current]; seen {
			continue
		}
		visited[current] = struct{}{}

		email, links, err := h.parsePage(ctx, current, base)
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			if firstErr == nil {
				firstErr = err
			}
			h.log.Warnf("%v", err)
			continue
		}
		pages++
		if email != "" {
			return email, nil
		}
		queue = append(queue, links...)
	}

	if pages == 0 && firstErr != nil {
		return "", firstErr
	}
	return "", nil
}

func (h *WebsiteHunter) parsePage(ctx context.Context, pageURL string, root *url.URL) (string, []string, error) {
	doc, rawHTML, err := h.fetch(ctx, pageURL)
	if err != nil {
		return "", nil, err
	}

	candidates := MailtoLinks(doc)
	candidates = append(candidates, emailRegex.FindAllString(rawHTML, -1)...)
	for _, c := range candidates {
		email := SanitizeEmail(c)
		if !Usable(email) {
			continue
		}
		if h.verify != nil && !h.verify(email) {
			continue
		}
		return email, nil, nil
	}

	return "", collectCandidateLinks(doc, pageURL, root), nil
}

func (h *WebsiteHunter) fetch(ctx context.Context, target string) (*goquery.Document, string, error) {
	if err := h.limiter.Wait(ctx); err != nil {
		return nil, "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, "", err
	}
	if h.userAgent != "" {
		req.Header.Set("User-Agent", h.userAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("Accept-Language", "en")

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, "", fmt.Errorf("website %s responded with status %d", target, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxWebsiteResponseBytes))
	if err != nil {
		return nil, "", err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, "", err
	}
	return doc, string(body), nil
}

func collectCandidateLinks(doc *goquery.Document, pageURL string, root *url.URL) []string {
	base, _ := url.Parse(pageURL)
	if base == nil {
		base = root
	}

	var prioritized, fallback []string
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href := strings.TrimSpace(sel.AttrOr("href", ""))
		lower := strings.ToLower(href)
		if href == "" || strings.HasPrefix(lower, "mailto:") || strings.HasPrefix(lower, "tel:") || strings.HasPrefix(lower, "javascript:") {
			return
		}
		abs := resolveLink(base, href)
		if abs == "" {
			return
		}
		parsed, err := url.Parse(abs)
		if err != nil || !sameHost(root, parsed) {
			return
		}
		text := strings.ToLower(strings.TrimSpace(sel.Text()))
		if shouldPrioritizeLink(text, strings.ToLower(abs)) {
			prioritized = append(prioritized, abs)
		} else if len(fallback) < 2 {
			fallback = append(fallback, abs)
		}
	})

	if len(prioritized) > 0 {
		return prioritized
	}
	return fallback
}

func resolveLink(base *url.URL, href string) string {
	if base == nil {
		return href
	}
	parsed, err := base.Parse(href)
	if err != nil {
		return ""
	}
	parsed.Fragment = ""
	return parsed.String()
}

func shouldPrioritizeLink(text, href string) bool {
	combined := text + " " + href
	for _, keyword := range keywordAnchors {
		if strings.Contains(combined, keyword) {
			return true
		}
	}
	return false
}

func sameHost(a, b *url.URL) bool {
	if a == nil || b == nil {
		return false
	}
	return strings.EqualFold(strings.TrimPrefix(a.Hostname(), "www."), strings.TrimPrefix(b.Hostname(), "www."))
}

// UnwrapRedirect turns a google.com/url?q=<target> link into its target.
func UnwrapRedirect(raw string) string {
	raw = strings.TrimSpace(raw)
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Path != "/url" || !strings.Contains(parsed.Hostname(), "google.") {
		return raw
	}
	for _, key := range []string{"q", "url"} {
		if target := parsed.Query().Get(key); target != "" {
			return target
		}
	}
	return raw
}

func ensureURLHasScheme(raw string) string {
	if strings.HasPrefix(strings.ToLower(raw), "http") {
		return raw
	}
	return "https://" + strings.TrimLeft(raw, "/")
}
