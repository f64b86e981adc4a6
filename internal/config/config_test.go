package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	verifier "github.com/microai-paygate/verifier"
	"github.com/microai-paygate/verifier/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 3002, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0:3002", cfg.Addr())
	assert.Equal(t, config.RouterChi, cfg.Server.Router)
	assert.Equal(t, 15, cfg.Server.ReadTimeoutSecs)
	assert.Equal(t, int64(1<<20), cfg.Server.MaxBodyBytes)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.False(t, cfg.Correlation.OmitFallback)
	assert.True(t, cfg.Metrics.Enabled)

	d, err := cfg.VerifierDomain()
	require.NoError(t, err)
	assert.Equal(t, verifier.DefaultDomain, d)

	ids, err := cfg.AllowedChainIDs()
	require.NoError(t, err)
	assert.Empty(t, ids)
	assert.Empty(t, cfg.AllowOrigins())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PAYGATE_SERVER_PORT", "9090")
	t.Setenv("PAYGATE_SERVER_ROUTER", "gin")
	t.Setenv("PAYGATE_CHAINS_ALLOWED", "1, base-sepolia")
	t.Setenv("PAYGATE_CORRELATION_OMITFALLBACK", "true")
	t.Setenv("PAYGATE_CORS_ALLOWORIGINS", "http://localhost:3000,https://app.example.com")

	cfg, err := config.Load()
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, config.RouterGin, cfg.Server.Router)
	assert.True(t, cfg.Correlation.OmitFallback)

	ids, err := cfg.AllowedChainIDs()
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 84532}, ids)
	assert.Equal(t, []string{"http://localhost:3000", "https://app.example.com"}, cfg.AllowOrigins())
}

func TestLoad_YAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
server:
  port: 4000
log:
  level: debug
  format: text
domain:
  name: Other Gate
  version: "2"
  verifyingcontract: "0x1234567890123456789012345678901234567890"
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"), path)
	require.NoError(t, err)

	assert.Equal(t, 4000, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)

	d, err := cfg.VerifierDomain()
	require.NoError(t, err)
	assert.Equal(t, "Other Gate", d.Name)
	assert.Equal(t, "2", d.Version)
	assert.Equal(t, common.HexToAddress("0x1234567890123456789012345678901234567890"), d.VerifyingContract)
}

func TestLoad_MalformedYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: [4000\n"), 0o600))

	_, err := config.Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), path)
}

func TestLoad_EnvBeatsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 4000\n"), 0o600))
	t.Setenv("PAYGATE_SERVER_PORT", "5000")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 5000, cfg.Server.Port)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"bad router", func(c *config.Config) { c.Server.Router = "echo" }},
		{"bad port", func(c *config.Config) { c.Server.Port = 70000 }},
		{"no body limit", func(c *config.Config) { c.Server.MaxBodyBytes = 0 }},
		{"empty domain name", func(c *config.Config) { c.Domain.Name = "" }},
		{"bad verifying contract", func(c *config.Config) { c.Domain.VerifyingContract = "0x1234" }},
		{"unknown chain", func(c *config.Config) { c.Chains.Allowed = "1,moonbase" }},
		{"bad origin", func(c *config.Config) { c.CORS.AllowOrigins = "localhost:3000" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := config.Load()
			require.NoError(t, err)
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestVerifierDomain_InvalidDomain(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)
	cfg.Domain.Version = ""

	_, err = cfg.VerifierDomain()
	assert.ErrorIs(t, err, verifier.ErrInvalidDomain)
}
