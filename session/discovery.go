package session

import (
	"context"
	"fmt"
	"net"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// srvEndpoint is one discovered directory endpoint with its RFC 2782
// selection parameters.
type srvEndpoint struct {
	host     string
	port     int
	useTLS   bool
	priority int
	weight   int
}

func (e srvEndpoint) url() string {
	scheme := "ldap"
	if e.useTLS {
		scheme = "ldaps"
	}
	return fmt.Sprintf("%s://%s:%d", scheme, e.host, e.port)
}

// DiscoverURLs resolves directory endpoints for a domain from DNS SRV
// records, preferring _ldaps._tcp over _ldap._tcp over _gc._tcp. When no SRV
// records exist the domain itself is returned on the standard ports, LDAPS
// first. Results are ordered by SRV priority, then weight.
func DiscoverURLs(ctx context.Context, domain string, log zerolog.Logger) ([]string, error) {
	if domain == "" {
		return nil, fmt.Errorf("domain cannot be empty")
	}

	start := time.Now()
	services := []struct {
		name   string
		useTLS bool
	}{
		{"_ldaps._tcp." + domain, true},
		{"_ldap._tcp." + domain, false},
		{"_gc._tcp." + domain, false},
	}

	var endpoints []srvEndpoint
	for _, svc := range services {
		found, err := lookupSRV(ctx, svc.name, svc.useTLS)
		if err != nil {
			log.Debug().Str("service", svc.name).Err(err).Msg("SRV lookup failed")
			continue
		}
		endpoints = append(endpoints, found...)

		// LDAPS endpoints suffice; the plaintext services are fallbacks.
		if svc.useTLS && len(found) > 0 {
			break
		}
	}

	if len(endpoints) == 0 {
		log.Debug().
			Str("domain", domain).
			Dur("duration", time.Since(start)).
			Msg("no SRV records, falling back to standard ports")
		endpoints = []srvEndpoint{
			{host: domain, port: 636, useTLS: true},
			{host: domain, port: 389, useTLS: false, priority: 1},
		}
	}

	sortEndpoints(endpoints)

	urls := make([]string, len(endpoints))
	for i, e := range endpoints {
		urls[i] = e.url()
	}

	log.Debug().
		Str("domain", domain).
		Int("endpoints", len(urls)).
		Dur("duration", time.Since(start)).
		Msg("endpoint discovery completed")
	return urls, nil
}

// lookupSRV resolves one SRV service name to endpoints.
func lookupSRV(ctx context.Context, service string, useTLS bool) ([]srvEndpoint, error) {
	_, records, err := net.DefaultResolver.LookupSRV(ctx, "", "", service)
	if err != nil {
		return nil, fmt.Errorf("SRV lookup failed for %s: %w", service, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("no SRV records for %s", service)
	}

	endpoints := make([]srvEndpoint, 0, len(records))
	for _, srv := range records {
		endpoints = append(endpoints, srvEndpoint{
			host:     strings.TrimSuffix(srv.Target, "."),
			port:     int(srv.Port),
			useTLS:   useTLS,
			priority: int(srv.Priority),
			weight:   int(srv.Weight),
		})
	}
	return endpoints, nil
}

// sortEndpoints orders endpoints per RFC 2782: ascending priority, and
// descending weight within a priority.
func sortEndpoints(endpoints []srvEndpoint) {
	sort.Slice(endpoints, func(i, j int) bool {
		if endpoints[i].priority != endpoints[j].priority {
			return endpoints[i].priority < endpoints[j].priority
		}
		return endpoints[i].weight > endpoints[j].weight
	})
}

// RootDNFromDomain converts a DNS domain to its directory naming context,
// e.g. "example.com" yields "DC=example,DC=com".
func RootDNFromDomain(domain string) string {
	if domain == "" {
		return ""
	}

	labels := strings.Split(strings.Trim(domain, "."), ".")
	parts := make([]string, 0, len(labels))
	for _, label := range labels {
		if label == "" {
			continue
		}
		parts = append(parts, "DC="+label)
	}
	return strings.Join(parts, ",")
}
