// Package models holds the data shapes shared by the scraper packages.
package models

import (
	"strings"
	"time"
)

// SocialLinks holds one profile URL per supported platform. Every key is always
// serialized, empty when the listing does not link to that platform.
type SocialLinks struct {
	Facebook  string `json:"facebook"`
	Instagram string `json:"instagram"`
	Twitter   string `json:"twitter"`
	LinkedIn  string `json:"linkedin"`
}

// IsEmpty reports whether no platform link is set.
func (s SocialLinks) IsEmpty() bool {
	return s == SocialLinks{}
}

// Record is one scraped listing.
type Record struct {
	Location    string      `json:"location"`
	Title       string      `json:"title"`
	Rating      string      `json:"rating"`
	ReviewCount string      `json:"reviewCount"`
	Phone       string      `json:"phone"`
	Website     string      `json:"website"`
	Address     string      `json:"address"`
	Categories  string      `json:"categories"`
	Hours       string      `json:"hours"`
	PriceLevel  string      `json:"priceLevel"`
	Email       string      `json:"email"`
	SocialLinks SocialLinks `json:"socialLinks"`
	Href        string      `json:"href"`
}

// Placeholder builds the record emitted when a candidate's detail view could
// never be verified: identity and permalink only.
func Placeholder(title, href string) Record {
	return Record{Title: title, Href: href}
}

// IsPlaceholder reports whether none of the detail-view fields were extracted.
func (r Record) IsPlaceholder() bool {
	return r.Rating == "" &&
		r.ReviewCount == "" &&
		r.Phone == "" &&
		r.Website == "" &&
		r.Address == "" &&
		r.Categories == "" &&
		r.Hours == "" &&
		r.PriceLevel == "" &&
		r.Email == "" &&
		r.SocialLinks.IsEmpty()
}

// Candidate references one entry in the rendered result list.
type Candidate struct {
	// Index is the entry's position in the list when it was read.
	Index int `json:"index"`
	// Label is the expected identity label taken from the list item.
	Label string `json:"label"`
	// Href is the listing permalink.
	Href string `json:"href"`
}

// Snapshot is the durable copy of a session's results and inputs.
type Snapshot struct {
	Records    []Record  `json:"records"`
	LastUpdate time.Time `json:"lastUpdate"`
	SearchTerm string    `json:"searchTerm"`
	Locations  string    `json:"locations"`
	MaxResults string    `json:"maxResults"`
}

// SplitLocations splits a comma-separated location list, dropping blanks.
func SplitLocations(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
