// Package extract reads a business record out of a rendered Maps detail panel.
//
// Every field has an ordered list of strategies; the first non-empty value wins
// and a missing field is left empty rather than reported.
package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/questbibek/leads-scraper-pro/internal/models"
)

// Snapshot is the captured state of the detail panel.
type Snapshot struct {
	// HTML is the panel's outer HTML.
	HTML string
	// Text is the panel's rendered text; derived from HTML when empty.
	Text string
	// URL is the page location when the snapshot was taken.
	URL string
}

// Extract maps the snapshot onto a Record. Location is left for the caller.
func Extract(snap Snapshot) (rec models.Record) {
	defer func() {
		if recover() != nil {
			rec = models.Record{Href: snap.URL}
		}
	}()

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(snap.HTML))
	if err != nil {
		return models.Record{Href: snap.URL}
	}
	panel := doc.Selection

	text := snap.Text
	if strings.TrimSpace(text) == "" {
		text = panel.Text()
	}

	return models.Record{
		Title:       FirstOf(panel, titleStrategies...),
		Rating:      FirstOf(panel, ratingStrategies...),
		ReviewCount: FirstOf(panel, reviewCountStrategies...),
		Phone:       FirstOf(panel, phoneStrategies...),
		Website:     FirstOf(panel, websiteStrategies...),
		Address:     FirstOf(panel, addressStrategies...),
		Categories:  FirstOf(panel, categoryStrategies...),
		Hours:       FirstOf(panel, hoursStrategies...),
		PriceLevel:  FirstOf(panel, priceStrategies...),
		Email:       emailFromPanel(panel, text),
		SocialLinks: socialLinks(panel),
		Href:        strings.TrimSpace(snap.URL),
	}
}
