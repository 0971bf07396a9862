package security

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alxayo/boltgo/internal/config"
)

func TestBuild_PlaintextWhenNotEncrypted(t *testing.T) {
	cfg := config.Default()
	cfg.Encrypted = false
	plan, err := Build(cfg, "127.0.0.1", nil)
	require.NoError(t, err)
	assert.Nil(t, plan.TLSConfig)
}

func TestBuild_DefaultTrustProducesStandardTLSConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Encrypted = true
	cfg.Trust = config.TrustDefault
	plan, err := Build(cfg, "neo4j.example.com", nil)
	require.NoError(t, err)
	require.NotNil(t, plan.TLSConfig)
	assert.False(t, plan.TLSConfig.InsecureSkipVerify)
	assert.Nil(t, plan.TLSConfig.VerifyPeerCertificate)
}

func TestBuild_TrustOnFirstUseRequiresStore(t *testing.T) {
	cfg := config.Default()
	cfg.Encrypted = true
	cfg.Trust = config.TrustOnFirstUse
	_, err := Build(cfg, "neo4j.example.com", nil)
	assert.Error(t, err)
}

func TestCertStore_TrustsFirstCertThenRejectsMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "known_hosts")
	store := NewCertStore(path)

	certA := []byte("certificate-bytes-a")
	certB := []byte("certificate-bytes-b")

	require.NoError(t, store.VerifyOrTrust("127.0.0.1:9001", certA))
	require.NoError(t, store.VerifyOrTrust("127.0.0.1:9001", certA))
	assert.Error(t, store.VerifyOrTrust("127.0.0.1:9001", certB))
}

func TestCertStore_PersistsAcrossInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "known_hosts")
	cert := []byte("certificate-bytes")

	first := NewCertStore(path)
	require.NoError(t, first.VerifyOrTrust("127.0.0.1:9001", cert))

	second := NewCertStore(path)
	require.NoError(t, second.VerifyOrTrust("127.0.0.1:9001", cert))
	assert.Error(t, second.VerifyOrTrust("127.0.0.1:9001", []byte("different")))
}
