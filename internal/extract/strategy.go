package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Strategy reads one candidate value for a field from the detail panel.
// ok=false means the strategy found nothing and the next one should run.
type Strategy func(panel *goquery.Selection) (value string, ok bool)

// FirstOf runs strategies in order and returns the first non-empty value.
// A panicking strategy counts as a miss.
func FirstOf(panel *goquery.Selection, strategies ...Strategy) string {
	for _, s := range strategies {
		if v, ok := run(s, panel); ok {
			return v
		}
	}
	return ""
}

func run(s Strategy, panel *goquery.Selection) (value string, ok bool) {
	defer func() {
		if recover() != nil {
			value, ok = "", false
		}
	}()
	v, found := s(panel)
	v = strings.TrimSpace(v)
	return v, found && v != ""
}

// Text reads the trimmed text of the first node matching selector.
func Text(selector string) Strategy {
	return func(panel *goquery.Selection) (string, bool) {
		node := panel.Find(selector).First()
		if node.Length() == 0 {
			return "", false
		}
		return node.Text(), true
	}
}

// Attr reads an attribute of the first node matching selector.
func Attr(selector, attr string) Strategy {
	return func(panel *goquery.Selection) (string, bool) {
		return panel.Find(selector).First().Attr(attr)
	}
}

// JoinedText joins the distinct texts of every node matching selector.
func JoinedText(selector, sep string) Strategy {
	return func(panel *goquery.Selection) (string, bool) {
		var parts []string
		seen := make(map[string]struct{})
		panel.Find(selector).Each(func(_ int, node *goquery.Selection) {
			t := strings.TrimSpace(node.Text())
			if t == "" {
				return
			}
			if _, dup := seen[t]; dup {
				return
			}
			seen[t] = struct{}{}
			parts = append(parts, t)
		})
		return strings.Join(parts, sep), len(parts) > 0
	}
}

// Match applies re to the value produced by s and returns the first submatch
// (or the whole match when re has no groups).
func Match(s Strategy, re *regexp.Regexp) Strategy {
	return func(panel *goquery.Selection) (string, bool) {
		v, ok := s(panel)
		if !ok {
			return "", false
		}
		m := re.FindStringSubmatch(v)
		switch {
		case m == nil:
			return "", false
		case len(m) > 1:
			return m[1], true
		default:
			return m[0], true
		}
	}
}

// Map post-processes the value produced by s.
func Map(s Strategy, fn func(string) string) Strategy {
	return func(panel *goquery.Selection) (string, bool) {
		v, ok := s(panel)
		if !ok {
			return "", false
		}
		return fn(v), true
	}
}
