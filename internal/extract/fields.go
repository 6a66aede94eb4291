package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	reviewCountRegex = regexp.MustCompile(`(?i)([\d][\d,.\s]*)\s+review`)
	parenCountRegex  = regexp.MustCompile(`\(([\d][\d,.\s]*)\)`)
	ratingRegex      = regexp.MustCompile(`^\s*(\d(?:[.,]\d+)?)`)
	hoursSuffix      = regexp.MustCompile(`(?i)\.?\s*hide open hours for the week\.?\s*$`)
)

var titleStrategies = []Strategy{
	Text("h1.DUwDvf"),
	Text("h1"),
}

var ratingStrategies = []Strategy{
	Map(Text(".fontDisplayLarge"), NormalizeRating),
	Map(Text(`.F7nice span[aria-hidden="true"]`), NormalizeRating),
	Map(Match(Attr(`.F7nice span[role="img"]`, "aria-label"), ratingRegex), NormalizeRating),
}

var reviewCountStrategies = []Strategy{
	Map(Match(Text("button.GQjSyb .HHrUdb span"), reviewCountRegex), Digits),
	Map(Match(Attr(`.F7nice span[role="img"][aria-label*="review"]`, "aria-label"), reviewCountRegex), Digits),
	Map(Match(Attr(`span[aria-label*="review"]`, "aria-label"), reviewCountRegex), Digits),
	Map(Match(Text(".F7nice"), parenCountRegex), Digits),
}

var phoneStrategies = []Strategy{
	Map(Attr(`[data-item-id*="phone"]`, "aria-label"), NormalizePhone),
	Map(Text(`[data-item-id*="phone"] .Io6YTe`), NormalizePhone),
	Map(Attr(`a[href^="tel:"]`, "href"), NormalizePhone),
	Map(Attr(`button[aria-label^="Phone:"]`, "aria-label"), NormalizePhone),
}

var websiteStrategies = []Strategy{
	Map(Attr(`a[data-item-id*="authority"]`, "href"), NormalizeWebsite),
	Map(Text(`a[data-item-id*="authority"]`), NormalizeWebsite),
	Map(Attr(`a[aria-label^="Website:"]`, "href"), NormalizeWebsite),
}

var addressStrategies = []Strategy{
	Text(`[data-item-id="address"] .Io6YTe`),
	Map(Attr(`[data-item-id="address"]`, "aria-label"), NormalizeAddress),
	Map(Attr(`button[aria-label^="Address:"]`, "aria-label"), NormalizeAddress),
}

var categoryStrategies = []Strategy{
	JoinedText("button.DkEaL", ", "),
	JoinedText("span.DkEaL", ", "),
	JoinedText(`button[jsaction*="category"]`, ", "),
}

var hoursStrategies = []Strategy{
	Map(Attr(".t39EBf[aria-label]", "aria-label"), trimHoursSuffix),
	hoursTable,
	Text(".OqCZI .ZDu9vd"),
}

var priceStrategies = []Strategy{
	Map(Attr(`span[aria-label^="Price"]`, "aria-label"), PriceTier),
	Map(Text(`span[aria-label^="Price"]`), PriceTier),
	Map(Text(".mgr77e"), PriceTier),
}

func trimHoursSuffix(raw string) string {
	return strings.TrimSpace(hoursSuffix.ReplaceAllString(raw, ""))
}

// hoursTable flattens the weekly hours table into "Day: hours; Day: hours".
func hoursTable(panel *goquery.Selection) (string, bool) {
	var rows []string
	panel.Find("table.eK4R0e tr").Each(func(_ int, row *goquery.Selection) {
		day := strings.TrimSpace(row.Find("td.ylH6lf").First().Text())
		hours, ok := row.Find("td.mxowUb").First().Attr("aria-label")
		if !ok || strings.TrimSpace(hours) == "" {
			hours = row.Find("td.mxowUb").First().Text()
		}
		hours = strings.TrimSpace(hours)
		if day == "" || hours == "" {
			return
		}
		rows = append(rows, day+": "+hours)
	})
	return strings.Join(rows, "; "), len(rows) > 0
}

// emailFromPanel prefers an explicit mailto link, then the first address in
// the panel text.
func emailFromPanel(panel *goquery.Selection, text string) string {
	if email := FirstOf(panel, Map(Attr(`a[href^="mailto:"]`, "href"), EmailFromMailto)); email != "" {
		return email
	}
	return FirstEmail(text)
}
