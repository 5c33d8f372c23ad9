package enrich

import (
	"strings"
	"sync"
	"time"

	"github.com/miekg/dns"
)

var defaultResolvers = []string{"8.8.8.8:53", "1.1.1.1:53"}

// MXChecker answers whether an email's domain publishes MX records.
// Results are cached per domain.
type MXChecker struct {
	servers []string
	client  *dns.Client

	mu    sync.Mutex
	cache map[string]bool
}

func NewMXChecker(servers ...string) *MXChecker {
	if len(servers) == 0 {
		servers = defaultResolvers
	}
	return &MXChecker{
		servers: servers,
		client:  &dns.Client{Timeout: 5 * time.Second},
		cache:   make(map[string]bool),
	}
}

func (c *MXChecker) HasMX(email string) bool {
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return false
	}
	domain := strings.ToLower(strings.TrimSpace(email[at+1:]))
	if domain == "" {
		return false
	}

	c.mu.Lock()
	if ok, cached := c.cache[domain]; cached {
		c.mu.Unlock()
		return ok
	}
	c.mu.Unlock()

	ok := c.lookup(domain)

	c.mu.Lock()
	c.cache[domain] = ok
	c.mu.Unlock()
	return ok
}

func (c *MXChecker) lookup(domain string) bool {
	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(domain), dns.TypeMX)
	msg.RecursionDesired = true

	for _, server := range c.servers {
		resp, _, err := c.client.Exchange(msg, server)
		if err != nil || resp == nil {
			continue
		}
		if resp.Rcode == dns.RcodeSuccess && len(resp.Answer) > 0 {
			return true
		}
	}
	return false
}
