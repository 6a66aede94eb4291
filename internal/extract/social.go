package extract

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/questbibek/leads-scraper-pro/internal/models"
)

// socialHosts maps a registrable domain to the platform slot it fills.
var socialHosts = []struct {
	host string
	set  func(*models.SocialLinks, string)
}{
	{"facebook.com", func(s *models.SocialLinks, v string) { s.Facebook = v }},
	{"fb.com", func(s *models.SocialLinks, v string) { s.Facebook = v }},
	{"instagram.com", func(s *models.SocialLinks, v string) { s.Instagram = v }},
	{"twitter.com", func(s *models.SocialLinks, v string) { s.Twitter = v }},
	{"x.com", func(s *models.SocialLinks, v string) { s.Twitter = v }},
	{"linkedin.com", func(s *models.SocialLinks, v string) { s.LinkedIn = v }},
}

// socialLinks collects the first profile link per platform from the panel.
func socialLinks(panel *goquery.Selection) models.SocialLinks {
	var links models.SocialLinks
	filled := make(map[string]bool)

	panel.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		href = unwrapRedirect(strings.TrimSpace(href))
		parsed, err := url.Parse(href)
		if err != nil || parsed.Hostname() == "" {
			return
		}
		host := strings.TrimPrefix(strings.ToLower(parsed.Hostname()), "www.")
		host = strings.TrimPrefix(host, "m.")
		for _, s := range socialHosts {
			if host != s.host && !strings.HasSuffix(host, "."+s.host) {
				continue
			}
			platform := platformOf(s.host)
			if filled[platform] {
				return
			}
			filled[platform] = true
			s.set(&links, href)
			return
		}
	})
	return links
}

func platformOf(host string) string {
	switch host {
	case "fb.com":
		return "facebook.com"
	case "x.com":
		return "twitter.com"
	default:
		return host
	}
}
