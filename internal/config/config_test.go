package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaults(t *testing.T) {
	cfg, err := New()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, ":8080", cfg.GetHTTPAddr())
	assert.Equal(t, "fax/incoming/", cfg.FaxIncomingPrefix)
}

func TestResolveDefaultsRejectsUnknownDriver(t *testing.T) {
	cfg := &Config{DBDriver: "oracle"}
	assert.Error(t, cfg.ResolveDefaults())
}

func TestResolveDefaultsRequiresPostgresDSN(t *testing.T) {
	cfg := &Config{DBDriver: "postgres"}
	assert.Error(t, cfg.ResolveDefaults())

	cfg.PostgresDSN = "postgres://localhost/faxdesk"
	assert.NoError(t, cfg.ResolveDefaults())
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("FAXDESK_HTTP_PORT", "9999")
	t.Setenv("FAXDESK_DB_DRIVER", "sqlite")
	cfg, err := New()
	require.NoError(t, err)
	assert.Equal(t, 9999, cfg.HTTPPort)
}
