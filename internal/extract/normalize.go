package extract

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

var (
	nonDigitRegex = regexp.MustCompile(`\D`)
	emailRegex    = regexp.MustCompile(`(?i)[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}`)
	phonePrefix   = regexp.MustCompile(`(?i)^\s*phone:\s*`)
	addressPrefix = regexp.MustCompile(`(?i)^\s*address:\s*`)
)

// priceWords maps the spoken price tiers Maps uses in aria-labels.
var priceWords = map[string]int{
	"inexpensive":    1,
	"moderate":       2,
	"expensive":      3,
	"very expensive": 4,
}

// NormalizeWebsite reduces a website link or label to its bare domain.
// Google redirect links are unwrapped first.
func NormalizeWebsite(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	raw = unwrapRedirect(raw)
	if !strings.HasPrefix(strings.ToLower(raw), "http") {
		raw = "https://" + strings.TrimLeft(raw, "/")
	}
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Hostname() == "" {
		return ""
	}
	host := strings.ToLower(parsed.Hostname())
	return strings.TrimPrefix(host, "www.")
}

func unwrapRedirect(raw string) string {
	if !strings.Contains(raw, "google.com/url?") {
		return raw
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	if target := parsed.Query().Get("q"); target != "" {
		return target
	}
	if target := parsed.Query().Get("url"); target != "" {
		return target
	}
	return raw
}

// NormalizePhone strips tel: schemes and "Phone:" label prefixes.
func NormalizePhone(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(strings.ToLower(raw), "tel:") {
		raw = raw[4:]
		if decoded, err := url.PathUnescape(raw); err == nil {
			raw = decoded
		}
	}
	return strings.TrimSpace(phonePrefix.ReplaceAllString(raw, ""))
}

// NormalizeAddress strips the "Address:" label prefix.
func NormalizeAddress(raw string) string {
	return strings.TrimSpace(addressPrefix.ReplaceAllString(raw, ""))
}

// Digits keeps only the digits of a count such as "1,234".
func Digits(raw string) string {
	return nonDigitRegex.ReplaceAllString(raw, "")
}

// NormalizeRating accepts "4,5" as well as "4.5".
func NormalizeRating(raw string) string {
	return strings.ReplaceAll(strings.TrimSpace(raw), ",", ".")
}

// PriceTier counts currency markers ("$$" is 2) or maps a spoken tier.
// It returns "" when the text carries no tier.
func PriceTier(raw string) string {
	raw = strings.TrimSpace(raw)
	lower := strings.ToLower(raw)
	for _, prefix := range []string{"price:", "price"} {
		lower = strings.TrimSpace(strings.TrimPrefix(lower, prefix))
	}
	if n, ok := priceWords[lower]; ok {
		return strconv.Itoa(n)
	}

	count := 0
	for _, r := range raw {
		switch r {
		case '$', '€', '£', '¥', '₩', '₹':
			count++
		case ' ', '·':
			if count > 0 {
				return strconv.Itoa(count)
			}
		}
	}
	if count == 0 {
		return ""
	}
	return strconv.Itoa(count)
}

// FirstEmail returns the first email address found in text, lower-cased.
func FirstEmail(text string) string {
	match := emailRegex.FindString(text)
	return strings.ToLower(strings.Trim(match, ".-"))
}

// EmailFromMailto returns the address of a mailto: link.
func EmailFromMailto(href string) string {
	href = strings.TrimSpace(href)
	if !strings.HasPrefix(strings.ToLower(href), "mailto:") {
		return ""
	}
	addr := href[len("mailto:"):]
	if idx := strings.Index(addr, "?"); idx != -1 {
		addr = addr[:idx]
	}
	if decoded, err := url.QueryUnescape(addr); err == nil {
		addr = decoded
	}
	return FirstEmail(addr)
}
