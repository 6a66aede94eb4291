// Package contact validates extracted contact details.
package contact

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/miekg/dns"

	"github.com/questbibek/leads-scraper-pro/internal/logger"
	"github.com/questbibek/leads-scraper-pro/internal/models"
)

// DefaultServers are queried in order until one answers.
var DefaultServers = []string{"8.8.8.8:53", "1.1.1.1:53"}

// Exchanger sends one DNS query. *dns.Client satisfies it.
type Exchanger interface {
	ExchangeContext(ctx context.Context, m *dns.Msg, address string) (*dns.Msg, time.Duration, error)
}

// MXValidator checks that an email's domain accepts mail. Answers are cached
// per domain for the life of the validator.
type MXValidator struct {
	client  Exchanger
	servers []string
	log     logger.Logger

	mu    sync.Mutex
	cache map[string]bool
}

// NewMXValidator builds a validator. A nil client uses a UDP dns.Client with
// a 3s timeout; empty servers fall back to DefaultServers.
func NewMXValidator(client Exchanger, servers []string, log logger.Logger) *MXValidator {
	if client == nil {
		client = &dns.Client{Timeout: 3 * time.Second}
	}
	if len(servers) == 0 {
		servers = DefaultServers
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &MXValidator{
		client:  client,
		servers: servers,
		log:     log,
		cache:   make(map[string]bool),
	}
}

// Domain returns the lower-cased part after the @, or "" when email is malformed.
func Domain(email string) string {
	parts := strings.Split(strings.TrimSpace(email), "@")
	if len(parts) != 2 || parts[0] == "" {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(parts[1]))
}

// HasMX reports whether any server returns an MX answer for the email's domain.
func (v *MXValidator) HasMX(ctx context.Context, email string) bool {
	domain := Domain(email)
	if domain == "" {
		return false
	}

	v.mu.Lock()
	known, ok := v.cache[domain]
	v.mu.Unlock()
	if ok {
		return known
	}

	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(domain), dns.TypeMX)
	msg.RecursionDesired = true

	found := false
	for _, server := range v.servers {
		resp, _, err := v.client.ExchangeContext(ctx, msg, server)
		if err != nil {
			v.log.Debug("MX lookup failed", logger.String("domain", domain), logger.String("server", server), logger.Error(err))
			continue
		}
		if resp != nil && resp.Rcode == dns.RcodeSuccess && hasMXAnswer(resp) {
			found = true
			break
		}
	}

	if ctx.Err() == nil {
		v.mu.Lock()
		v.cache[domain] = found
		v.mu.Unlock()
	}
	return found
}

func hasMXAnswer(resp *dns.Msg) bool {
	for _, rr := range resp.Answer {
		if _, ok := rr.(*dns.MX); ok {
			return true
		}
	}
	return false
}

// Enrich clears the record's email when its domain has no MX records.
func (v *MXValidator) Enrich(ctx context.Context, rec models.Record) models.Record {
	if rec.Email == "" || v.HasMX(ctx, rec.Email) {
		return rec
	}
	v.log.Info("Dropping email without MX records",
		logger.String("title", rec.Title),
		logger.String("email", rec.Email),
	)
	rec.Email = ""
	return rec
}
