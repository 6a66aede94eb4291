// Package export serializes records into the CSV download format.
package export

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/questbibek/leads-scraper-pro/internal/models"
)

// SchemaVersion identifies the column layout below.
const SchemaVersion = 2

// Columns is the header row, in output order.
var Columns = []string{
	"Location",
	"Title",
	"Rating",
	"Reviews",
	"Phone",
	"Website",
	"Address",
	"Categories",
	"Hours",
	"Price Level",
	"Email",
	"Facebook",
	"Instagram",
	"Twitter",
	"LinkedIn",
	"Google Maps Link",
}

const bom = "\ufeff"

func row(r models.Record) []string {
	return []string{
		r.Location,
		r.Title,
		r.Rating,
		r.ReviewCount,
		r.Phone,
		r.Website,
		r.Address,
		r.Categories,
		r.Hours,
		r.PriceLevel,
		r.Email,
		r.SocialLinks.Facebook,
		r.SocialLinks.Instagram,
		r.SocialLinks.Twitter,
		r.SocialLinks.LinkedIn,
		r.Href,
	}
}

// Build renders the header plus one row per record. Every cell is quoted,
// which encoding/csv cannot be told to do.
func Build(records []models.Record) []byte {
	var buf bytes.Buffer
	buf.WriteString(bom)
	writeRow(&buf, Columns)
	for _, r := range records {
		buf.WriteByte('\n')
		writeRow(&buf, row(r))
	}
	return buf.Bytes()
}

func writeRow(buf *bytes.Buffer, cells []string) {
	for i, c := range cells {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteByte('"')
		buf.WriteString(strings.ReplaceAll(c, `"`, `""`))
		buf.WriteByte('"')
	}
}

// unsafeInName holds path separators and characters Windows rejects in file names.
var unsafeInName = strings.NewReplacer("/", " ", `\`, " ", ":", " ", "*", " ", "?", " ", `"`, " ", "<", " ", ">", " ", "|", " ")

// Filename builds google-maps-<term>_YYYYMMDD_HHMM.csv.
func Filename(term string, now time.Time) string {
	slug := strings.Join(strings.Fields(unsafeInName.Replace(term)), "-")
	if slug == "" {
		slug = "data"
	}
	return fmt.Sprintf("google-maps-%s_%s.csv", slug, now.Format("20060102_1504"))
}
