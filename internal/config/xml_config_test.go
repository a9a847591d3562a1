package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, key := range []string{"PORT", "DATA_DIR", "DUCKDB_PATH", "LOG_LEVEL"} {
		t.Setenv(key, "")
	}
}

func TestLoadConfig_WritesDefaults(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "GeoVisualizer.config")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.FileExists(t, path)

	assert.Equal(t, 8090, cfg.Server.Port)
	assert.Equal(t, filepath.Join(dir, "data", "layers"), cfg.Storage.LayersDirectory)
	assert.Equal(t, filepath.Join(dir, "data", "analytics.duckdb"), cfg.Storage.AnalyticsDatabase)
	assert.Equal(t, "#DDDDDD", cfg.Style.DefaultNoValueFillColor)

	opts := cfg.StyleOptions()
	assert.Equal(t, 10.0, opts.CircleMinLegendHeight)
	assert.Equal(t, 5.0, opts.SizeMinLegendHeight)
	assert.Equal(t, 2, opts.SignificantDigits)
	assert.False(t, opts.LegacyCategorizedLegend)

	reloaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, reloaded)
}

func TestLoadConfig_ReadsFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "GeoVisualizer.config")
	content := `<?xml version="1.0" encoding="UTF-8"?>
<GeoVisualizer>
  <Server>
    <Port>9000</Port>
    <EnableCORS>true</EnableCORS>
    <AllowOrigins>http://a.example, http://b.example</AllowOrigins>
  </Server>
  <Storage>
    <LayersDirectory>/srv/layers</LayersDirectory>
  </Storage>
  <Style>
    <DefaultNoValueFillColor>#EEEEEE</DefaultNoValueFillColor>
    <LegacyCategorizedLegend>true</LegacyCategorizedLegend>
  </Style>
  <Advanced>
    <DuckDBThreads>2</DuckDBThreads>
  </Advanced>
</GeoVisualizer>`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, []string{"http://a.example", "http://b.example"}, cfg.AllowedOrigins())
	assert.Equal(t, "/srv/layers", cfg.Storage.LayersDirectory)
	assert.Equal(t, filepath.Join(dir, "data", "analytics.duckdb"), cfg.Storage.AnalyticsDatabase, "unset values keep defaults")
	assert.Equal(t, "#EEEEEE", cfg.StyleOptions().NoValueFillColor)
	assert.True(t, cfg.StyleOptions().LegacyCategorizedLegend)
	assert.Equal(t, 2, cfg.DuckOptions().Threads)
	assert.Equal(t, "1GB", cfg.DuckOptions().MemoryLimit)
}

func TestLoadConfig_EnvironmentOverrides(t *testing.T) {
	dir := t.TempDir()
	dataDir := filepath.Join(dir, "elsewhere")
	t.Setenv("PORT", "7000")
	t.Setenv("DATA_DIR", dataDir)
	t.Setenv("DUCKDB_PATH", "/tmp/facts.duckdb")

	cfg, err := LoadConfig(filepath.Join(dir, "GeoVisualizer.config"))
	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, dataDir, cfg.Storage.DataDirectory)
	assert.Equal(t, filepath.Join(dataDir, "layers"), cfg.Storage.LayersDirectory)
	assert.Equal(t, "/tmp/facts.duckdb", cfg.Storage.AnalyticsDatabase)
}

func TestLoadConfig_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "GeoVisualizer.config")
	require.NoError(t, os.WriteFile(path, []byte("<GeoVisualizer><Server>"), 0644))
	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestAllowedOrigins(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins())
	cfg.Server.AllowOrigins = " , "
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins())
	cfg.Server.EnableCORS = false
	assert.Nil(t, cfg.AllowedOrigins())
}

func TestEnsureDirectories(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.resolvePaths(dir)
	require.NoError(t, cfg.EnsureDirectories())
	assert.DirExists(t, filepath.Join(dir, "data", "layers"))
}
