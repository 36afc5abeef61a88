package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.LoadDefaults()

	assert.Equal(t, "http://127.0.0.1:8080", cfg.CollectorURL)
	assert.Equal(t, "uplink.db", cfg.DatabasePath)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 2, cfg.UploadConcurrency)
}

func TestLoadConfig_FlagsOverrideDefaults(t *testing.T) {
	oldArgs := os.Args
	defer func() { os.Args = oldArgs }()
	os.Args = []string{"uplink", "-u", "https://collector.example.org", "-t", "10", "-p", "4"}

	cfg := LoadConfig()

	assert.Equal(t, "https://collector.example.org", cfg.CollectorURL)
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 4, cfg.UploadConcurrency)
	assert.Equal(t, "uplink.db", cfg.DatabasePath)
}

func TestLoadConfig_JsonOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"collector_url": "https://json.example.org",
		"username": "uploader",
		"request_timeout": "45s"
	}`), 0o600))

	oldArgs := os.Args
	defer func() { os.Args = oldArgs }()
	os.Args = []string{"uplink", "-c", path}

	cfg := LoadConfig()

	assert.Equal(t, "https://json.example.org", cfg.CollectorURL)
	assert.Equal(t, "uploader", cfg.Username)
	assert.Equal(t, 45*time.Second, cfg.RequestTimeout)
	// untouched fields keep defaults
	assert.Equal(t, 2, cfg.UploadConcurrency)
}

func TestLoadConfig_FlagsBeatJson(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"collector_url": "https://json.example.org"}`), 0o600))

	oldArgs := os.Args
	defer func() { os.Args = oldArgs }()
	os.Args = []string{"uplink", "-c", path, "-u", "https://flags.example.org"}

	cfg := LoadConfig()
	assert.Equal(t, "https://flags.example.org", cfg.CollectorURL)
}
