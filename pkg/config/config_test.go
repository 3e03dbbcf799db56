package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/photocore/pkg/log"
)

func TestLoadOverridesDefaultsOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("data_dir: /var/lib/photocore\nlog_level: debug\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/photocore", cfg.DataDir)
	assert.Equal(t, log.DebugLevel, cfg.LogLevel)
	assert.Equal(t, Default().ImageDir, cfg.ImageDir)
	assert.Equal(t, Default().MetricsAddr, cfg.MetricsAddr)
}

func TestLoadMissingFileErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
