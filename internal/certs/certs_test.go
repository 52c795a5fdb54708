package certs

import (
	"crypto/tls"
	"crypto/x509"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func leaf(t *testing.T, cert tls.Certificate) *x509.Certificate {
	t.Helper()
	require.Len(t, cert.Certificate, 1)
	c, err := x509.ParseCertificate(cert.Certificate[0])
	require.NoError(t, err)
	return c
}

func TestFileManager_GetOrCreateCertificate(t *testing.T) {
	tests := []struct {
		setup    func(t *testing.T, m *FileManager)
		name     string
		reissued bool
	}{
		{
			name:     "creates a certificate when none exists",
			setup:    func(*testing.T, *FileManager) {},
			reissued: true,
		},
		{
			name: "reuses a valid certificate",
			setup: func(t *testing.T, m *FileManager) {
				t.Helper()
				_, err := m.GetOrCreateCertificate()
				require.NoError(t, err)
			},
		},
		{
			name: "replaces corrupt files",
			setup: func(t *testing.T, m *FileManager) {
				t.Helper()
				require.NoError(t, os.MkdirAll(m.certDir, 0o700))
				require.NoError(t, os.WriteFile(m.certFile, []byte("garbage"), 0o600))
				require.NoError(t, os.WriteFile(m.keyFile, []byte("garbage"), 0o600))
			},
			reissued: true,
		},
		{
			name: "replaces an expired certificate",
			setup: func(t *testing.T, m *FileManager) {
				t.Helper()
				m.now = func() time.Time { return time.Now().Add(-2 * Validity) }
				_, err := m.GetOrCreateCertificate()
				require.NoError(t, err)
				m.now = time.Now
			},
			reissued: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewFileManager(filepath.Join(t.TempDir(), "certs"), "pricing.internal")
			tt.setup(t, m)

			var before []byte
			if data, err := os.ReadFile(m.certFile); err == nil {
				before = data
			}

			cert, err := m.GetOrCreateCertificate()
			require.NoError(t, err)

			c := leaf(t, cert)
			assert.Equal(t, "carprice", c.Subject.Organization[0])
			assert.NoError(t, c.VerifyHostname("localhost"))
			assert.NoError(t, c.VerifyHostname("127.0.0.1"))
			assert.NoError(t, c.VerifyHostname("pricing.internal"))
			assert.True(t, c.NotAfter.After(time.Now().Add(Validity-time.Hour)))

			after, err := os.ReadFile(m.certFile)
			require.NoError(t, err)
			if tt.reissued {
				assert.NotEqual(t, before, after)
			} else {
				assert.Equal(t, before, after)
			}
		})
	}
}

func TestFileManager_NewHostReissues(t *testing.T) {
	dir := t.TempDir()
	_, err := NewFileManager(dir).GetOrCreateCertificate()
	require.NoError(t, err)

	cert, err := NewFileManager(dir, "10.0.0.5").GetOrCreateCertificate()
	require.NoError(t, err)
	assert.NoError(t, leaf(t, cert).VerifyHostname("10.0.0.5"))
}

func TestFileManager_TLSConfig(t *testing.T) {
	m := NewFileManager(t.TempDir())
	cfg, err := m.TLSConfig()
	require.NoError(t, err)
	assert.Len(t, cfg.Certificates, 1)
	assert.Equal(t, uint16(tls.VersionTLS12), cfg.MinVersion)

	info, err := os.Stat(m.keyFile)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestFileManager_Unwritable(t *testing.T) {
	base := t.TempDir()
	blocker := filepath.Join(base, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o600))

	_, err := NewFileManager(filepath.Join(blocker, "certs")).GetOrCreateCertificate()
	assert.Error(t, err)
}
