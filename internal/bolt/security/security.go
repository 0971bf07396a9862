// Package security builds the tls.Config a Connection wraps its socket
// with, per spec.md's SecurityPlan.build(config) collaborator (§6). TLS
// library choice is explicitly out of scope for the core itself, so this
// package is the one place that decision lives: crypto/tls plus
// golang.org/x/crypto/blake2b for trust-on-first-use certificate pinning.
package security

import (
	"crypto/tls"
	"crypto/x509"

	boltErrors "github.com/alxayo/boltgo/internal/errors"
	"github.com/alxayo/boltgo/internal/config"
)

// Plan is the built artifact of SecurityPlan.build: an optional tls.Config
// (nil means plaintext) plus whether a custom verifier was wired in for
// trust-on-first-use.
type Plan struct {
	TLSConfig *tls.Config
	Trust     config.Trust
}

// Build inspects cfg.Encrypted/Trust and returns a Plan. TrustOnFirstUse
// disables Go's default chain verification and substitutes a callback that
// consults store, keyed by serverName.
func Build(cfg *config.Config, serverName string, store *CertStore) (*Plan, error) {
	if !cfg.Encrypted {
		return &Plan{Trust: cfg.Trust}, nil
	}

	tlsCfg := &tls.Config{ServerName: serverName, MinVersion: tls.VersionTLS12}

	switch cfg.Trust {
	case config.TrustOnFirstUse:
		if store == nil {
			return nil, boltErrors.NewSecurityError("security.build", errNoStore)
		}
		tlsCfg.InsecureSkipVerify = true // verification is done manually below
		tlsCfg.VerifyPeerCertificate = func(rawCerts [][]byte, _ [][]*x509.Certificate) error {
			if len(rawCerts) == 0 {
				return boltErrors.NewSecurityError("security.verify", errNoPeerCert)
			}
			return store.VerifyOrTrust(serverName, rawCerts[0])
		}
	case config.TrustDefault:
		// default Go chain + hostname verification, nothing to add.
	}

	return &Plan{TLSConfig: tlsCfg, Trust: cfg.Trust}, nil
}
