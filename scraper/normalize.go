package scraper

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/tolisxo/gmaps-leads/enrich"
	"github.com/tolisxo/gmaps-leads/locator"
)

var (
	nonDigitRegex  = regexp.MustCompile(`\D`)
	currencyRegex  = regexp.MustCompile(`\p{Sc}`)
	numberRegex    = regexp.MustCompile(`\d+(?:[.,]\d+)?`)
	placeDataRegex = regexp.MustCompile(`!3d(-?\d+(?:\.\d+)?)!4d(-?\d+(?:\.\d+)?)`)
	atCoordsRegex  = regexp.MustCompile(`/@(-?\d+(?:\.\d+)?),(-?\d+(?:\.\d+)?)`)

	fieldLabels = []string{"address:", "phone:", "website:", "adresse:", "telefon:"}
)

// CleanText drops icon-font glyphs, collapses whitespace and trims.
func CleanText(s string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.Is(unicode.Co, r) {
			return -1
		}
		return r
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

func stripLabel(s string) string {
	lower := strings.ToLower(s)
	for _, label := range fieldLabels {
		if strings.HasPrefix(lower, label) {
			return strings.TrimSpace(s[len(label):])
		}
	}
	return s
}

func NormalizeCategory(s string) string {
	return strings.TrimSpace(strings.Trim(CleanText(s), "·•"))
}

func NormalizeAddress(s string) string {
	return stripLabel(CleanText(s))
}

// NormalizePhone unwraps tel: links and phone:tel: item ids.
func NormalizePhone(s string) string {
	s = CleanText(s)
	lower := strings.ToLower(s)
	switch {
	case strings.HasPrefix(lower, "phone:tel:"):
		s = s[len("phone:tel:"):]
	case strings.HasPrefix(lower, "tel:"):
		s = s[len("tel:"):]
	}
	if decoded, err := url.PathUnescape(s); err == nil {
		s = decoded
	}
	return strings.TrimSpace(stripLabel(s))
}

// NormalizeRating keeps the first number, with a decimal comma turned into
// a dot. "4,5 stars" becomes "4.5".
func NormalizeRating(s string) string {
	s = currencyRegex.ReplaceAllString(CleanText(s), "")
	match := numberRegex.FindString(s)
	if match == "" {
		return ""
	}
	match = strings.Replace(match, ",", ".", 1)
	if _, err := strconv.ParseFloat(match, 64); err != nil {
		return ""
	}
	return match
}

// NormalizeReviews keeps the digits of a review count, so "(1,234)" and
// "1.234 reviews" both become "1234".
func NormalizeReviews(s string) string {
	return nonDigitRegex.ReplaceAllString(s, "")
}

func NormalizeEmail(s string) string {
	return enrich.SanitizeEmail(s)
}

// NormalizeWebsite unwraps Google redirect links, resolves relative hrefs
// against base and drops links that stay on Google.
func NormalizeWebsite(base string) locator.Normalizer {
	baseURL, _ := url.Parse(base)
	return func(s string) string {
		s = enrich.UnwrapRedirect(CleanText(s))
		if s == "" {
			return ""
		}
		u, err := url.Parse(s)
		if err != nil {
			return ""
		}
		if !u.IsAbs() && baseURL != nil {
			u = baseURL.ResolveReference(u)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return ""
		}
		host := strings.ToLower(u.Hostname())
		if host == "google.com" || strings.HasSuffix(host, ".google.com") {
			return ""
		}
		return u.String()
	}
}

// Coordinates pulls latitude and longitude out of a place URL, preferring
// the pinned place (!3d..!4d..) over the viewport centre (/@lat,lng).
func Coordinates(pageURL string) (lat, lng string, ok bool) {
	if m := placeDataRegex.FindStringSubmatch(pageURL); m != nil {
		return m[1], m[2], true
	}
	if m := atCoordsRegex.FindStringSubmatch(pageURL); m != nil {
		return m[1], m[2], true
	}
	return "", "", false
}

// ListingIdentity is the dedupe key for a listing: its place URL without
// query or fragment, or its lowercased name when there is no link.
func ListingIdentity(href, name string) string {
	if href = strings.TrimSpace(href); href != "" {
		if u, err := url.Parse(href); err == nil && u.Host != "" {
			return strings.ToLower(u.Scheme + "://" + u.Host + strings.TrimRight(u.EscapedPath(), "/"))
		}
	}
	name = strings.ToLower(CleanText(name))
	if name == "" {
		return ""
	}
	return "name:" + name
}
