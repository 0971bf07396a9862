package main

import (
	"context"
	"crypto/tls"
	"net"
	"path/filepath"
	"time"

	"github.com/alxayo/boltgo/internal/bolt/address"
	"github.com/alxayo/boltgo/internal/bolt/conn"
	"github.com/alxayo/boltgo/internal/bolt/pool"
	"github.com/alxayo/boltgo/internal/bolt/security"
	"github.com/alxayo/boltgo/internal/bolt/wire"
	"github.com/alxayo/boltgo/internal/config"
	boltErrors "github.com/alxayo/boltgo/internal/errors"
)

// newConnector builds the pool.Connector that dials, optionally TLS-wraps,
// handshakes and authenticates a brand-new Connection (spec.md §6's
// external collaborators: address resolution and TLS config are supplied
// here, not by the core).
func newConnector(cfg *config.Config) pool.Connector {
	var store *security.CertStore
	if cfg.Trust == config.TrustOnFirstUse {
		path := cfg.KnownHostsPath
		if path == "" {
			path = filepath.Join(".", "known_hosts")
		}
		store = security.NewCertStore(path)
	}

	return func(ctx context.Context, resolved address.Address) (*conn.Connection, error) {
		dialer := net.Dialer{Timeout: time.Duration(cfg.ConnectionTimeout) * time.Second}
		rawConn, err := dialer.DialContext(ctx, "tcp", resolved.DialTarget())
		if err != nil {
			return nil, boltErrors.NewServiceUnavailable("connector.dial", err)
		}

		plan, err := security.Build(cfg, resolved.Host, store)
		if err != nil {
			_ = rawConn.Close()
			return nil, err
		}

		socket := rawConn
		if plan.TLSConfig != nil {
			tlsConn := tls.Client(rawConn, plan.TLSConfig)
			if err := tlsConn.HandshakeContext(ctx); err != nil {
				_ = rawConn.Close()
				return nil, boltErrors.NewSecurityError("connector.tls", err)
			}
			socket = tlsConn
		}

		version, err := wire.Handshake(socket)
		if err != nil {
			_ = socket.Close()
			return nil, err
		}

		lifetime := time.Duration(cfg.MaxConnectionLifetime) * time.Second
		if cfg.MaxConnectionLifetime == config.Infinite {
			lifetime = -1
		}
		c := conn.NewConnection(socket, resolved.Key(), version, lifetime)
		if err := c.Init(cfg.UserAgent, cfg.Auth.ToMap()); err != nil {
			_ = c.Close()
			return nil, err
		}
		return c, nil
	}
}
