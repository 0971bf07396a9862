// Package address models Bolt server addresses and their resolution to
// concrete socket endpoints (spec.md §3, §6). Resolution itself is treated
// as an external collaborator: the core only needs an ordered list of
// dialable endpoints plus the original unresolved form for pool keying and
// error messages.
package address

import (
	"context"
	"fmt"
	"net"
	"strconv"
)

// Address is a 2-tuple (IPv4) or 4-tuple (IPv6) socket address, plus the
// unresolved host:port form it was resolved from. The unresolved form is
// what the ConnectionPool uses as its map key: two resolutions of the same
// hostname may yield different IPs across calls, but callers key pools by
// the name they asked for.
type Address struct {
	Host       string // unresolved host, e.g. "neo4j.example.com" or an IP literal
	Port       int
	ResolvedIP net.IP // nil until a Resolver fills it in
}

// Key returns the pool-keying string form: "host:port", always the
// unresolved host. Two Addresses with the same Key share a pool FIFO.
func (a Address) Key() string {
	return net.JoinHostPort(a.Host, strconv.Itoa(a.Port))
}

// DialTarget returns the string passed to net.Dial: the resolved IP when
// present, else the unresolved host.
func (a Address) DialTarget() string {
	host := a.Host
	if a.ResolvedIP != nil {
		host = a.ResolvedIP.String()
	}
	return net.JoinHostPort(host, strconv.Itoa(a.Port))
}

func (a Address) String() string { return a.Key() }

// Parse splits a "host:port" string into an unresolved Address.
func Parse(hostPort string) (Address, error) {
	host, portStr, err := net.SplitHostPort(hostPort)
	if err != nil {
		return Address{}, fmt.Errorf("address: %w", err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return Address{}, fmt.Errorf("address: invalid port %q: %w", portStr, err)
	}
	return Address{Host: host, Port: port}, nil
}

// Resolver expands an unresolved Address into zero or more dialable
// Addresses. CustomResolve lets a caller override resolution entirely
// (routing scenarios, test stubs); DNSResolve falls back to the system
// resolver. spec.md §6 treats both as external collaborators the core only
// calls through this interface.
type Resolver interface {
	CustomResolve(ctx context.Context, unresolved Address) ([]Address, bool, error)
	DNSResolve(ctx context.Context, unresolved Address) ([]Address, error)
}

// Resolve runs CustomResolve first (if the resolver claims it handled the
// address), falling back to DNSResolve otherwise. A nil resolver resolves
// via the system DNS only.
func Resolve(ctx context.Context, r Resolver, unresolved Address) ([]Address, error) {
	if r != nil {
		if addrs, handled, err := r.CustomResolve(ctx, unresolved); handled {
			return addrs, err
		}
		return r.DNSResolve(ctx, unresolved)
	}
	return DefaultResolver{}.DNSResolve(ctx, unresolved)
}

// DefaultResolver resolves purely via net.DefaultResolver and never claims
// CustomResolve.
type DefaultResolver struct{}

func (DefaultResolver) CustomResolve(context.Context, Address) ([]Address, bool, error) {
	return nil, false, nil
}

func (DefaultResolver) DNSResolve(ctx context.Context, unresolved Address) ([]Address, error) {
	ips, err := net.DefaultResolver.LookupIP(ctx, "ip", unresolved.Host)
	if err != nil {
		return nil, fmt.Errorf("address: dns resolve %s: %w", unresolved.Host, err)
	}
	out := make([]Address, 0, len(ips))
	for _, ip := range ips {
		out = append(out, Address{Host: unresolved.Host, Port: unresolved.Port, ResolvedIP: ip})
	}
	return out, nil
}
