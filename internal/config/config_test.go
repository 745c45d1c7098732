package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWithoutFile(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, dir, cfg.ProjectDir)
	assert.Equal(t, "Dependencies.xml", cfg.DependencyFileSuffix)
	assert.Equal(t, filepath.Join(dir, "ios", "Podfile"), cfg.PodfilePath())
	assert.Equal(t, "13.0", cfg.IOS.DefaultPlatform)
	assert.Equal(t, 500*time.Millisecond, cfg.Debounce())
}

func TestLoadOverrides(t *testing.T) {
	dir := t.TempDir()
	content := `ios:
  projectDir: /tmp/xcode
  target: MyApp
  defaultPlatform: "12.0"
cleanupOnEmpty: true
debounceMillis: 200
metricsAddr: ":9091"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/xcode", cfg.IOS.ProjectDir)
	assert.Equal(t, "MyApp", cfg.IOS.Target)
	assert.Equal(t, "12.0", cfg.IOS.DefaultPlatform)
	assert.True(t, cfg.CleanupOnEmpty)
	assert.Equal(t, 200*time.Millisecond, cfg.Debounce())
	assert.Equal(t, ":9091", cfg.MetricsAddr)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte("ios: ["), 0o644))

	_, err := Load(dir)
	require.Error(t, err)
}
