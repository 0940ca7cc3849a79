// Package dns checks that address domains can receive mail.
package dns

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"ncs-birthday-mailer/domain/contact"
)

// ErrNoMX is returned when a domain publishes no mail exchangers.
var ErrNoMX = errors.New("no MX records")

// MXResolver is the subset of net.Resolver used by MXChecker.
type MXResolver interface {
	LookupMX(ctx context.Context, name string) ([]*net.MX, error)
}

// MXChecker implements contact.DomainChecker with MX lookups.
type MXChecker struct {
	resolver MXResolver
	timeout  time.Duration
	cache    map[string]error
}

// Option configures an MXChecker.
type Option func(*MXChecker)

// WithResolver replaces the system resolver (for tests).
func WithResolver(r MXResolver) Option {
	return func(c *MXChecker) {
		c.resolver = r
	}
}

// DefaultTimeout bounds a lookup when no positive timeout is given.
const DefaultTimeout = 5 * time.Second

// WithTimeout bounds each lookup. Zero or negative keeps DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(c *MXChecker) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// NewMXChecker creates a checker using the system resolver and DefaultTimeout.
func NewMXChecker(opts ...Option) *MXChecker {
	c := &MXChecker{
		resolver: &net.Resolver{},
		timeout:  DefaultTimeout,
		cache:    make(map[string]error),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CheckDomain returns nil when domain has at least one MX record. Results are
// remembered for the life of the checker since sheets repeat domains.
func (c *MXChecker) CheckDomain(ctx context.Context, domain string) error {
	domain = strings.ToLower(strings.TrimSuffix(domain, "."))
	if err, ok := c.cache[domain]; ok {
		return err
	}

	err := c.lookup(ctx, domain)
	c.cache[domain] = err
	return err
}

func (c *MXChecker) lookup(ctx context.Context, domain string) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	records, err := c.resolver.LookupMX(ctx, domain)
	if err != nil {
		return fmt.Errorf("mx lookup for %s: %w", domain, err)
	}
	if len(records) == 0 {
		return fmt.Errorf("%w for %s", ErrNoMX, domain)
	}
	return nil
}

var _ contact.DomainChecker = (*MXChecker)(nil)
