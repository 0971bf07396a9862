package security

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/crypto/blake2b"

	boltErrors "github.com/alxayo/boltgo/internal/errors"
)

// CertStore is a trust-on-first-use certificate pin store backed by a flat
// "host:port fingerprint" file, in the shape of an ssh known_hosts file.
// The first certificate seen for an address is trusted and persisted;
// every later connection to that address must present the same
// fingerprint or the handshake is rejected as a SecurityError.
type CertStore struct {
	path string

	mu         sync.Mutex
	loaded     bool
	pinned     map[string]string // address -> hex blake2b-256 fingerprint
}

// NewCertStore returns a CertStore persisting to path. The file is created
// lazily on first VerifyOrTrust call.
func NewCertStore(path string) *CertStore {
	return &CertStore{path: path, pinned: make(map[string]string)}
}

// VerifyOrTrust fingerprints derCert with blake2b-256. If address has no
// recorded fingerprint, the certificate is trusted and persisted. If a
// fingerprint is already recorded, it must match exactly.
func (s *CertStore) VerifyOrTrust(address string, derCert []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(); err != nil {
		return err
	}

	sum := blake2b.Sum256(derCert)
	fingerprint := fmt.Sprintf("%x", sum)

	if known, ok := s.pinned[address]; ok {
		if known != fingerprint {
			return boltErrors.NewSecurityError("security.tofu.mismatch",
				fmt.Errorf("certificate for %s changed from the previously trusted fingerprint", address))
		}
		return nil
	}

	s.pinned[address] = fingerprint
	return s.append(address, fingerprint)
}

func (s *CertStore) ensureLoaded() error {
	if s.loaded {
		return nil
	}
	s.loaded = true

	f, err := os.Open(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return boltErrors.NewSecurityError("security.tofu.load", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.Fields(line)
		if len(parts) != 2 {
			continue
		}
		s.pinned[parts[0]] = parts[1]
	}
	return wrapScanErr(scanner.Err())
}

func wrapScanErr(err error) error {
	if err == nil {
		return nil
	}
	return boltErrors.NewSecurityError("security.tofu.scan", err)
}

func (s *CertStore) append(address, fingerprint string) error {
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return boltErrors.NewSecurityError("security.tofu.mkdir", err)
		}
	}
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return boltErrors.NewSecurityError("security.tofu.append", err)
	}
	defer f.Close()
	_, err = fmt.Fprintf(f, "%s %s\n", address, fingerprint)
	return wrapScanErr(err)
}
