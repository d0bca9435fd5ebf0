package jobsink

import (
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/psantana5/clusterlambda/pkg/models"
	"github.com/psantana5/clusterlambda/pkg/submit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jobsink.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
listen: "127.0.0.1:9099"
api_keys:
  - name: ci
    hash: "$2a$10$abcdefghijklmnopqrstuu"
rate_limit:
  rps: 5
  burst: 2
`), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9099", cfg.Listen)
	assert.Equal(t, "info", cfg.LogLevel)
	require.Len(t, cfg.APIKeys, 1)
	assert.Equal(t, "ci", cfg.APIKeys[0].Name)
	assert.Equal(t, RateLimitConfig{RPS: 5, Burst: 2}, cfg.RateLimit)
	assert.False(t, cfg.TLS.Enabled())
}

func TestConfigValidate(t *testing.T) {
	tests := map[string]func(*Config){
		"empty listen":       func(c *Config) { c.Listen = "" },
		"nameless key":       func(c *Config) { c.APIKeys = []APIKey{{Hash: "x"}} },
		"duplicate key name": func(c *Config) { c.APIKeys = []APIKey{{Name: "a", Hash: "x"}, {Name: "a", Hash: "y"}} },
		"zero burst":         func(c *Config) { c.RateLimit = RateLimitConfig{RPS: 1} },
		"cert without key":   func(c *Config) { c.TLS.CertFile = "/tmp/cert.pem" },
		"mtls without ca":    func(c *Config) { c.TLS.RequireClientCert = true },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfig()
			mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
	assert.NoError(t, DefaultConfig().Validate())
}

func TestHashAPIKey(t *testing.T) {
	hash, err := HashAPIKey("key")
	require.NoError(t, err)

	name, err := NewKeyVerifier([]APIKey{{Name: "dev", Hash: hash}}).Verify("key")
	require.NoError(t, err)
	assert.Equal(t, "dev", name)

	_, err = HashAPIKey("")
	assert.Error(t, err)
}

func TestTLSSubmission(t *testing.T) {
	dir := t.TempDir()
	certFile := filepath.Join(dir, "server.crt")
	keyFile := filepath.Join(dir, "server.key")
	require.NoError(t, GenerateSelfSignedCert(certFile, keyFile, "jobsink"))

	tlsConfig, err := LoadServerTLSConfig(certFile, keyFile, "", false)
	require.NoError(t, err)

	sink := newTestServer(t, DefaultConfig())
	server := httptest.NewUnstartedServer(sink.Handler())
	server.TLS = tlsConfig
	server.StartTLS()
	defer server.Close()

	client, err := submit.NewClient(submit.Config{
		ServiceURL: server.URL,
		CACertFile: certFile,
		Timeout:    5 * time.Second,
	})
	require.NoError(t, err)

	receipt, err := client.Submit(context.Background(), &models.JobDescription{
		EntryPoint:    "entry",
		ArtifactPaths: []string{"/tmp/cont.bin"},
	})
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusAccepted, receipt.Status)
}
