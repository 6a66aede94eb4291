package contact_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/assert"

	"github.com/questbibek/leads-scraper-pro/internal/contact"
	"github.com/questbibek/leads-scraper-pro/internal/logger"
	"github.com/questbibek/leads-scraper-pro/internal/models"
)

// fakeResolver answers MX queries from a fixed table keyed by server then fqdn.
type fakeResolver struct {
	mu      sync.Mutex
	answers map[string]map[string]bool
	down    map[string]bool
	queries int
}

func (f *fakeResolver) ExchangeContext(_ context.Context, m *dns.Msg, server string) (*dns.Msg, time.Duration, error) {
	f.mu.Lock()
	f.queries++
	f.mu.Unlock()

	if f.down[server] {
		return nil, 0, errors.New("i/o timeout")
	}
	resp := new(dns.Msg)
	resp.SetReply(m)
	name := m.Question[0].Name
	if f.answers[server][name] {
		resp.Answer = append(resp.Answer, &dns.MX{
			Hdr:        dns.RR_Header{Name: name, Rrtype: dns.TypeMX, Class: dns.ClassINET, Ttl: 300},
			Preference: 10,
			Mx:         "mail." + name,
		})
	}
	return resp, time.Millisecond, nil
}

func TestDomain(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "example.com", contact.Domain("Hello@Example.COM "))
	assert.Empty(t, contact.Domain("no-at-sign"))
	assert.Empty(t, contact.Domain("@example.com"))
	assert.Empty(t, contact.Domain("a@b@c"))
}

func TestHasMX_FallsBackToNextServer(t *testing.T) {
	t.Parallel()

	r := &fakeResolver{
		down:    map[string]bool{"a:53": true},
		answers: map[string]map[string]bool{"b:53": {"bakery.example.": true}},
	}
	v := contact.NewMXValidator(r, []string{"a:53", "b:53"}, logger.NewNop())

	assert.True(t, v.HasMX(context.Background(), "hi@bakery.example"))
	assert.False(t, v.HasMX(context.Background(), "hi@nomail.example"))
	assert.False(t, v.HasMX(context.Background(), "broken"))
}

func TestHasMX_CachesPerDomain(t *testing.T) {
	t.Parallel()

	r := &fakeResolver{answers: map[string]map[string]bool{"a:53": {"bakery.example.": true}}}
	v := contact.NewMXValidator(r, []string{"a:53"}, logger.NewNop())

	assert.True(t, v.HasMX(context.Background(), "one@bakery.example"))
	assert.True(t, v.HasMX(context.Background(), "two@bakery.example"))
	assert.Equal(t, 1, r.queries)
}

func TestEnrich(t *testing.T) {
	t.Parallel()

	r := &fakeResolver{answers: map[string]map[string]bool{"a:53": {"good.example.": true}}}
	v := contact.NewMXValidator(r, []string{"a:53"}, logger.NewNop())
	ctx := context.Background()

	kept := v.Enrich(ctx, models.Record{Title: "A", Email: "info@good.example"})
	assert.Equal(t, "info@good.example", kept.Email)

	dropped := v.Enrich(ctx, models.Record{Title: "B", Email: "info@bad.example", Phone: "123"})
	assert.Empty(t, dropped.Email)
	assert.Equal(t, "123", dropped.Phone)

	none := v.Enrich(ctx, models.Record{Title: "C"})
	assert.Empty(t, none.Email)
	assert.Equal(t, 2, r.queries)
}
