package enrich

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/tolisxo/gmaps-leads/models"
)

// PlaceholderEmail is embedded in a script bundle served with every Maps
// page, so a raw-HTML scan tends to find it. It never belongs to a business.
const PlaceholderEmail = "robert@broofa.com"

var (
	emailRegex = regexp.MustCompile(`(?i)[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}`)

	invalidEmailPatterns = []string{
		"example.com",
		"@example",
		"sampleemail",
		"youremail",
		"noreply",
		"no-reply",
		"sentry.io",
		"wixpress.com",
		".png",
		".jpg",
		".jpeg",
		".gif",
		".webp",
		".svg",
	}
)

// SanitizeEmail trims wrapping punctuation and mailto: noise from raw and
// returns the lowercased address, or "" when raw holds no address.
func SanitizeEmail(raw string) string {
	const cutset = "<>()[]{}.,;:\"'`“”’"
	clean := strings.Trim(strings.TrimSpace(raw), cutset)
	clean = strings.ReplaceAll(clean, " ", "")
	if strings.HasPrefix(strings.ToLower(clean), "mailto:") {
		clean = clean[len("mailto:"):]
	}
	if idx := strings.Index(clean, "?"); idx != -1 {
		clean = clean[:idx]
	}
	if decoded, err := url.QueryUnescape(clean); err == nil {
		clean = decoded
	}
	clean = strings.Trim(clean, cutset)
	match := emailRegex.FindString(clean)
	return strings.ToLower(match)
}

// Usable reports whether a sanitized address is worth keeping.
func Usable(email string) bool {
	if email == "" || email == PlaceholderEmail {
		return false
	}
	for _, pattern := range invalidEmailPatterns {
		if strings.Contains(email, pattern) {
			return false
		}
	}
	return true
}

// Pick returns the first usable candidate. When candidates exist but all
// are placeholders or junk, it returns models.NotAvailable. With no
// candidates at all it returns "".
func Pick(candidates []string) string {
	sawAny := false
	for _, c := range candidates {
		email := SanitizeEmail(c)
		if email == "" {
			continue
		}
		sawAny = true
		if Usable(email) {
			return email
		}
	}
	if sawAny {
		return models.NotAvailable
	}
	return ""
}

// FindInHTML scans a page for an address: mailto links first, then the
// visible text, then the raw markup including scripts.
func FindInHTML(html string) string {
	var candidates []string
	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(html)); err == nil {
		candidates = append(candidates, MailtoLinks(doc)...)
		candidates = append(candidates, TextEmails(doc)...)
	}
	candidates = append(candidates, emailRegex.FindAllString(html, -1)...)
	return Pick(candidates)
}

func MailtoLinks(doc *goquery.Document) []string {
	var out []string
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href := strings.TrimSpace(sel.AttrOr("href", ""))
		if strings.HasPrefix(strings.ToLower(href), "mailto:") {
			out = append(out, href)
		}
	})
	return out
}

// TextEmails matches addresses in the document text with script, style
// and noscript content removed. It mutates doc.
func TextEmails(doc *goquery.Document) []string {
	doc.Find("script, style, noscript").Remove()
	return emailRegex.FindAllString(doc.Text(), -1)
}
