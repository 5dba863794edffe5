package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":8082", cfg.Server.Addr)
	assert.Equal(t, "https://viacep.com.br", cfg.CEP.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.CEP.Timeout)
	assert.NotEmpty(t, cfg.Database.DSN)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: ":9090"
cep:
  base_url: "http://localhost:9999"
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "http://localhost:9999", cfg.CEP.BaseURL)
	// untouched keys keep their defaults
	assert.Equal(t, 5*time.Second, cfg.CEP.Timeout)
	assert.NotEmpty(t, cfg.Database.DSN)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [not a map"), 0o644))
	_, err = Load(path)
	assert.Error(t, err)
}
