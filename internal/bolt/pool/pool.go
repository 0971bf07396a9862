// Package pool implements the Connection Pool: one FIFO of idle
// Connections per address (keyed by its unresolved host:port), capped in
// size, with acquisition
// timeout and address deactivation (spec.md §5, §7).
package pool

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/alxayo/boltgo/internal/bolt/address"
	"github.com/alxayo/boltgo/internal/bolt/conn"
	"github.com/alxayo/boltgo/internal/config"
	boltErrors "github.com/alxayo/boltgo/internal/errors"
	"github.com/alxayo/boltgo/internal/logger"
	"github.com/alxayo/boltgo/internal/telemetry"
)

// ConnectionPool is the PoolHandle a Connection reports address-level
// failures back to (spec.md §4.4, §7).
var _ conn.PoolHandle = (*ConnectionPool)(nil)

// Connector dials, optionally TLS-wraps, handshakes and authenticates a
// brand-new Connection to one resolved address. It is supplied by the
// caller (cmd/boltcli wires the real net.Dial + wire.Handshake + security
// pipeline) so this package stays free of transport/TLS concerns.
type Connector func(ctx context.Context, resolved address.Address) (*conn.Connection, error)

// bucket is the per-address state: every Connection this pool has ever
// handed out for one pool key, split between idle (available to acquire)
// and the count still checked out.
type bucket struct {
	idle       []*conn.Connection
	inUse      int
	deactivated bool
}

// ConnectionPool hands out authenticated Connections, reusing idle ones
// within MaxConnectionPoolSize per address and creating new ones up to that
// cap. Acquire blocks up to ConnectionAcquisitionTimeout when the cap is
// reached and nothing is idle.
type ConnectionPool struct {
	mu     sync.Mutex
	cond   *sync.Cond
	closed bool

	buckets map[string]*bucket

	connector              Connector
	resolver               address.Resolver
	maxSize                int
	acquisitionTimeout     time.Duration
	maxConnectionLifetime  time.Duration
	creationLimiter        *rate.Limiter
}

// New returns a ConnectionPool governed by cfg, dialing new connections
// through connector. resolver may be nil to use the system DNS resolver.
func New(cfg *config.Config, resolver address.Resolver, connector Connector) *ConnectionPool {
	p := &ConnectionPool{
		buckets:               make(map[string]*bucket),
		connector:              connector,
		resolver:               resolver,
		maxSize:                cfg.MaxConnectionPoolSize,
		acquisitionTimeout:     time.Duration(cfg.ConnectionAcquisitionTimeout) * time.Second,
		maxConnectionLifetime:  time.Duration(cfg.MaxConnectionLifetime) * time.Second,
		creationLimiter:        rate.NewLimiter(rate.Limit(20), 20),
	}
	if cfg.MaxConnectionLifetime == config.Infinite {
		p.maxConnectionLifetime = -1
	}
	p.cond = sync.NewCond(&p.mu)
	return p
}

// Acquire returns a ready-to-use Connection for unresolved, reusing an idle
// one when available, dialing a new one when the per-address cap allows,
// or blocking until one of those becomes possible. It gives up with a
// ClientError once acquisitionTimeout elapses (spec.md §5).
func (p *ConnectionPool) Acquire(ctx context.Context, unresolved address.Address) (*conn.Connection, error) {
	ctx, span := telemetry.StartAcquire(ctx, unresolved.Key())
	defer span.End()

	deadline := time.Now().Add(p.acquisitionTimeout)
	key := unresolved.Key()

	for {
		p.mu.Lock()
		if p.closed {
			p.mu.Unlock()
			return nil, boltErrors.NewServiceUnavailable("pool.acquire", errClosed)
		}
		b := p.bucketLocked(key)
		if b.deactivated {
			p.mu.Unlock()
			return nil, boltErrors.NewServiceUnavailable("pool.acquire", errAddressDeactivated)
		}

		if c, ok := p.popIdleLocked(b); ok {
			p.mu.Unlock()
			if c.Timedout() || c.Defunct() {
				_ = c.Close()
				p.mu.Lock()
				b.inUse--
				p.mu.Unlock()
				continue
			}
			c.SetInUse(true)
			telemetry.RecordConnectionAcquired(ctx, key)
			return c, nil
		}

		if b.inUse+len(b.idle) < p.maxSize || p.maxSize <= 0 {
			b.inUse++
			p.mu.Unlock()

			c, err := p.dial(ctx, unresolved)
			if err != nil {
				p.mu.Lock()
				b.inUse--
				p.cond.Broadcast()
				p.mu.Unlock()
				return nil, err
			}
			c.SetInUse(true)
			telemetry.RecordConnectionAcquired(ctx, key)
			return c, nil
		}

		if !p.waitLocked(deadline) {
			p.mu.Unlock()
			return nil, boltErrors.NewClientError("pool.acquire", errAcquisitionTimeout)
		}
		p.mu.Unlock()
	}
}

// dial resolves unresolved to its candidate addresses and tries the
// connector against each in order, returning the first success. Connection
// creation is rate-limited so a thundering herd of pool misses can't open
// unbounded concurrent sockets (spec.md §6's DOMAIN STACK: x/time/rate).
func (p *ConnectionPool) dial(ctx context.Context, unresolved address.Address) (*conn.Connection, error) {
	candidates, err := address.Resolve(ctx, p.resolver, unresolved)
	if err != nil {
		return nil, boltErrors.NewServiceUnavailable("pool.dial.resolve", err)
	}
	if len(candidates) == 0 {
		candidates = []address.Address{unresolved}
	}

	if err := p.creationLimiter.Wait(ctx); err != nil {
		return nil, boltErrors.NewServiceUnavailable("pool.dial.throttle", err)
	}

	var lastErr error
	for _, candidate := range candidates {
		ctx, span := telemetry.StartHandshake(ctx, candidate.Key())
		c, err := p.connector(ctx, candidate)
		span.End()
		if err == nil {
			c.SetPoolHandle(p)
			telemetry.RecordConnectionCreated(ctx, candidate.Key())
			return c, nil
		}
		lastErr = err
		logger.Warn("pool: candidate dial failed", "address", candidate.Key(), "error", err)
	}
	return nil, boltErrors.NewServiceUnavailable("pool.dial", lastErr)
}

// Release returns c to its bucket's idle list, or discards it when it's
// defunct or past its lifetime, then wakes every Acquire waiter (not just
// one: a freed slot may let several different waiters each create their
// own new connection, spec.md §5).
func (p *ConnectionPool) Release(c *conn.Connection) {
	p.mu.Lock()
	defer p.mu.Unlock()

	c.SetInUse(false)
	b := p.bucketLocked(c.Address())
	b.inUse--

	if c.Defunct() || c.Timedout() || p.closed || b.deactivated {
		_ = c.Close()
		p.cond.Broadcast()
		return
	}
	b.idle = append(b.idle, c)
	p.cond.Broadcast()
}

// Deactivate marks address as unusable and closes every currently idle
// connection to it (spec.md §7: ServiceUnavailable/ConnectionExpired/
// DatabaseUnavailableError all trigger this from the caller side).
// Connections already checked out are left alone; Release will close them
// once their caller returns them, since the bucket stays deactivated.
func (p *ConnectionPool) Deactivate(address string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	b := p.bucketLocked(address)
	b.deactivated = true
	p.closeIdleLocked(b)
	p.cond.Broadcast()
}

// RemoveWriter is the routing-pool hook for NotALeaderError/
// ForbiddenOnReadOnlyDatabaseError (spec.md §7). This pool only ever
// connects directly to one address and has no writer/reader distinction to
// revoke, so it is a deliberate no-op; the error still propagates to the
// caller unchanged.
func (p *ConnectionPool) RemoveWriter(address string) {}

// Remove closes every idle connection pooled under address and forgets the
// address's bucket, including the deactivated marker, so a later Acquire
// starts fresh. Connections checked out at the time are not closed.
func (p *ConnectionPool) Remove(address string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if b, ok := p.buckets[address]; ok {
		p.closeIdleLocked(b)
		delete(p.buckets, address)
	}
	p.cond.Broadcast()
}

// Close shuts the pool down: every idle connection is closed immediately,
// and every future Acquire fails with ServiceUnavailable. Connections already
// checked out are closed as they're Released.
func (p *ConnectionPool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	for _, b := range p.buckets {
		p.closeIdleLocked(b)
	}
	p.cond.Broadcast()
	return nil
}

// Closed reports whether Close has already run.
func (p *ConnectionPool) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// InUseConnectionCount reports how many connections for address are
// currently checked out.
func (p *ConnectionPool) InUseConnectionCount(address string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if b, ok := p.buckets[address]; ok {
		return b.inUse
	}
	return 0
}

func (p *ConnectionPool) bucketLocked(key string) *bucket {
	b, ok := p.buckets[key]
	if !ok {
		b = &bucket{}
		p.buckets[key] = b
	}
	return b
}

func (p *ConnectionPool) popIdleLocked(b *bucket) (*conn.Connection, bool) {
	if len(b.idle) == 0 {
		return nil, false
	}
	c := b.idle[0]
	b.idle = b.idle[1:]
	b.inUse++
	return c, true
}

func (p *ConnectionPool) closeIdleLocked(b *bucket) {
	for _, c := range b.idle {
		_ = c.Close()
	}
	b.idle = nil
}

// waitLocked blocks on the pool's condition variable until woken or
// deadline passes, reporting whether it was woken in time. Must be called
// with p.mu held; it releases and reacquires the lock internally via
// sync.Cond.Wait, which is why acquire/release logic is split into the
// *Locked helpers above instead of a single reentrant critical section
// (sync.Mutex in Go is not reentrant).
func (p *ConnectionPool) waitLocked(deadline time.Time) bool {
	remaining := time.Until(deadline)
	if remaining <= 0 {
		return false
	}
	timer := time.AfterFunc(remaining, func() {
		p.mu.Lock()
		p.cond.Broadcast()
		p.mu.Unlock()
	})
	defer timer.Stop()
	p.cond.Wait()
	return time.Now().Before(deadline)
}
