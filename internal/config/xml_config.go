// Package config provides XML-based configuration management.
package config

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/geo-visualizer/backend/internal/aggregate"
	"github.com/geo-visualizer/backend/internal/style"
)

// AppConfig represents the root XML configuration structure
type AppConfig struct {
	XMLName xml.Name `xml:"GeoVisualizer"`

	// Server configuration
	Server ServerConfig `xml:"Server"`

	// Storage configuration
	Storage StorageConfig `xml:"Storage"`

	// Style compiler defaults
	Style StyleConfig `xml:"Style"`

	// Advanced options
	Advanced AdvancedConfig `xml:"Advanced"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Port           int    `xml:"Port"`
	BindAddress    string `xml:"BindAddress"`
	EnableCORS     bool   `xml:"EnableCORS"`
	AllowOrigins   string `xml:"AllowOrigins"`
	ReadTimeout    int    `xml:"ReadTimeoutSeconds"`
	WriteTimeout   int    `xml:"WriteTimeoutSeconds"`
	IdleTimeout    int    `xml:"IdleTimeoutSeconds"`
	RequestTimeout int    `xml:"RequestTimeoutSeconds"`
	BodyLimit      string `xml:"BodyLimit"`
}

// StorageConfig contains layer and analytics storage settings
type StorageConfig struct {
	DataDirectory     string `xml:"DataDirectory"`
	LayersDirectory   string `xml:"LayersDirectory"`
	AnalyticsDatabase string `xml:"AnalyticsDatabase"`
}

// StyleConfig holds the process-wide values the style compiler falls back to
type StyleConfig struct {
	DefaultNoValueFillColor      string  `xml:"DefaultNoValueFillColor"`
	DefaultCircleMinLegendHeight float64 `xml:"DefaultCircleMinLegendHeight"`
	DefaultSizeMinLegendHeight   float64 `xml:"DefaultSizeMinLegendHeight"`
	SignificantDigits            int     `xml:"SignificantDigits"`
	LegacyCategorizedLegend      bool    `xml:"LegacyCategorizedLegend"`
	PreserveLegendsByDefault     bool    `xml:"PreserveLegendsByDefault"`
}

// AdvancedConfig contains advanced/tuning options
type AdvancedConfig struct {
	LogLevel             string `xml:"LogLevel"`
	LogFormat            string `xml:"LogFormat"`
	EnableRequestLogging bool   `xml:"EnableRequestLogging"`
	ShowErrorDetails     bool   `xml:"ShowErrorDetails"`
	DuckDBThreads        int    `xml:"DuckDBThreads"`
	DuckDBMemoryLimit    string `xml:"DuckDBMemoryLimit"`
	MaxConcurrentQueries int    `xml:"MaxConcurrentQueries"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *AppConfig {
	opts := style.DefaultOptions()
	duck := aggregate.DefaultDuckOptions()
	return &AppConfig{
		XMLName: xml.Name{Local: "GeoVisualizer"},

		Server: ServerConfig{
			Port:           8090,
			BindAddress:    "0.0.0.0",
			EnableCORS:     true,
			AllowOrigins:   "*",
			ReadTimeout:    30,
			WriteTimeout:   30,
			IdleTimeout:    120,
			RequestTimeout: 60,
			BodyLimit:      "256M",
		},
		Storage: StorageConfig{
			DataDirectory:     "./data",
			LayersDirectory:   "./data/layers",
			AnalyticsDatabase: "./data/analytics.duckdb",
		},
		Style: StyleConfig{
			DefaultNoValueFillColor:      opts.NoValueFillColor,
			DefaultCircleMinLegendHeight: opts.CircleMinLegendHeight,
			DefaultSizeMinLegendHeight:   opts.SizeMinLegendHeight,
			SignificantDigits:            opts.SignificantDigits,
		},
		Advanced: AdvancedConfig{
			LogLevel:             "info",
			LogFormat:            "json",
			EnableRequestLogging: true,
			DuckDBThreads:        duck.Threads,
			DuckDBMemoryLimit:    duck.MemoryLimit,
			MaxConcurrentQueries: duck.MaxConcurrent,
		},
	}
}

// LoadConfig loads configuration from XML file. A default file is written
// when none exists.
func LoadConfig(configPath string) (*AppConfig, error) {
	config := DefaultConfig()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := config.Save(configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
	} else {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := xml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	// Apply environment variable overrides
	config.applyEnvironmentOverrides()

	// Resolve relative paths
	config.resolvePaths(filepath.Dir(configPath))

	return config, nil
}

// Save saves the configuration to XML file
func (c *AppConfig) Save(configPath string) error {
	output, err := xml.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(xml.Header + "\n<!-- Geo Visualizer Configuration -->\n<!-- This file is auto-generated on first run -->\n\n")
	content := append(header, output...)

	if err := os.WriteFile(configPath, content, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// applyEnvironmentOverrides allows environment variables to override config values
func (c *AppConfig) applyEnvironmentOverrides() {
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Server.Port = p
		}
	}

	// DATA_DIR moves the directories left at their default location
	if dataDir := os.Getenv("DATA_DIR"); dataDir != "" {
		defaults := DefaultConfig().Storage
		if c.Storage.LayersDirectory == defaults.LayersDirectory {
			c.Storage.LayersDirectory = filepath.Join(dataDir, "layers")
		}
		if c.Storage.AnalyticsDatabase == defaults.AnalyticsDatabase {
			c.Storage.AnalyticsDatabase = filepath.Join(dataDir, "analytics.duckdb")
		}
		c.Storage.DataDirectory = dataDir
	}

	if dbPath := os.Getenv("DUCKDB_PATH"); dbPath != "" {
		c.Storage.AnalyticsDatabase = dbPath
	}

	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.Advanced.LogLevel = level
	}
}

// resolvePaths converts relative paths to absolute based on config file location
func (c *AppConfig) resolvePaths(configDir string) {
	for _, p := range []*string{
		&c.Storage.DataDirectory,
		&c.Storage.LayersDirectory,
		&c.Storage.AnalyticsDatabase,
	} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(configDir, *p)
		}
	}
}

// StyleOptions returns the style compiler options
func (c *AppConfig) StyleOptions() style.Options {
	return style.Options{
		NoValueFillColor:        c.Style.DefaultNoValueFillColor,
		CircleMinLegendHeight:   c.Style.DefaultCircleMinLegendHeight,
		SizeMinLegendHeight:     c.Style.DefaultSizeMinLegendHeight,
		SignificantDigits:       c.Style.SignificantDigits,
		LegacyCategorizedLegend: c.Style.LegacyCategorizedLegend,
	}
}

// DuckOptions returns the analytics store settings
func (c *AppConfig) DuckOptions() aggregate.DuckOptions {
	return aggregate.DuckOptions{
		MemoryLimit:   c.Advanced.DuckDBMemoryLimit,
		Threads:       c.Advanced.DuckDBThreads,
		MaxConcurrent: c.Advanced.MaxConcurrentQueries,
	}
}

// AllowedOrigins returns the CORS origins, nil when CORS is disabled
func (c *AppConfig) AllowedOrigins() []string {
	if !c.Server.EnableCORS {
		return nil
	}
	var origins []string
	for _, o := range strings.Split(c.Server.AllowOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return origins
}

// GetServerAddr returns the server bind address
func (c *AppConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.BindAddress, c.Server.Port)
}

// EnsureDirectories creates all necessary directories
func (c *AppConfig) EnsureDirectories() error {
	dirs := []string{
		c.Storage.DataDirectory,
		c.Storage.LayersDirectory,
	}
	if c.Storage.AnalyticsDatabase != "" {
		dirs = append(dirs, filepath.Dir(c.Storage.AnalyticsDatabase))
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}
