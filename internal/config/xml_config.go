// Package config provides XML-based configuration for the style studio server.
package config

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// AppConfig represents the root XML configuration structure
type AppConfig struct {
	XMLName xml.Name `xml:"StyleStudio"`

	Server     ServerConfig     `xml:"Server"`
	Storage    StorageConfig    `xml:"Storage"`
	Processing ProcessingConfig `xml:"Processing"`
	Security   SecurityConfig   `xml:"Security"`
	Advanced   AdvancedConfig   `xml:"Advanced"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Port         int    `xml:"Port"`
	BindAddress  string `xml:"BindAddress"`
	EnableCORS   bool   `xml:"EnableCORS"`
	AllowOrigins string `xml:"AllowOrigins"`
	ReadTimeout  int    `xml:"ReadTimeoutSeconds"`
	WriteTimeout int    `xml:"WriteTimeoutSeconds"`
	IdleTimeout  int    `xml:"IdleTimeoutSeconds"`
}

// StorageConfig contains file storage settings
type StorageConfig struct {
	DataDirectory    string `xml:"DataDirectory"`
	UploadsDirectory string `xml:"UploadsDirectory"`
	ResultsDirectory string `xml:"ResultsDirectory"`
	TempDirectory    string `xml:"TempDirectory"`
	HistoryDatabase  string `xml:"HistoryDatabase"`
	MaxUploadSizeMB  int64  `xml:"MaxUploadSizeMB"`
}

// ProcessingConfig contains style transfer settings
type ProcessingConfig struct {
	MaxConcurrentJobs      int    `xml:"MaxConcurrentJobs"`
	JobRetentionMinutes    int    `xml:"JobRetentionMinutes"`
	CleanupIntervalMinutes int    `xml:"CleanupIntervalMinutes"`
	UploadMaxAgeHours      int    `xml:"UploadMaxAgeHours"`
	ResultMaxAgeHours      int    `xml:"ResultMaxAgeHours"`
	DefaultStyle           string `xml:"DefaultStyle"`
	StyleCatalog           string `xml:"StyleCatalog"`
	FFmpegPath             string `xml:"FFmpegPath"`
	FFprobePath            string `xml:"FFprobePath"`
	EnableCompression      bool   `xml:"EnableCompression"`
	CompressionLevel       int    `xml:"CompressionLevel"`
}

// SecurityConfig contains security settings
type SecurityConfig struct {
	AllowManualCleanup bool    `xml:"AllowManualCleanup"`
	UploadsPerSecond   float64 `xml:"UploadsPerSecond"`
	UploadBurst        int     `xml:"UploadBurst"`
	AllowedFileTypes   string  `xml:"AllowedFileTypes"`
}

// AdvancedConfig contains advanced/tuning options
type AdvancedConfig struct {
	LogLevel             string `xml:"LogLevel"`
	EnableRequestLogging bool   `xml:"EnableRequestLogging"`
	EnableMetrics        bool   `xml:"EnableMetrics"`
	DuckDBThreads        int    `xml:"DuckDBThreads"`
	DuckDBMemoryLimit    string `xml:"DuckDBMemoryLimit"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:         5000,
			BindAddress:  "0.0.0.0",
			EnableCORS:   true,
			AllowOrigins: "*",
			ReadTimeout:  30,
			WriteTimeout: 600,
			IdleTimeout:  120,
		},
		Storage: StorageConfig{
			DataDirectory:    "./data",
			UploadsDirectory: "./data/uploads",
			ResultsDirectory: "./data/results",
			TempDirectory:    "./data/temp",
			HistoryDatabase:  "./data/history.duckdb",
			MaxUploadSizeMB:  100,
		},
		Processing: ProcessingConfig{
			MaxConcurrentJobs:      2,
			JobRetentionMinutes:    60,
			CleanupIntervalMinutes: 60,
			UploadMaxAgeHours:      2,
			ResultMaxAgeHours:      48,
			DefaultStyle:           "cartoon",
			StyleCatalog:           "",
			FFmpegPath:             "ffmpeg",
			FFprobePath:            "ffprobe",
			EnableCompression:      true,
			CompressionLevel:       5,
		},
		Security: SecurityConfig{
			AllowManualCleanup: true,
			UploadsPerSecond:   2,
			UploadBurst:        4,
			AllowedFileTypes:   "png,jpg,jpeg,gif,bmp,tiff,mp4,avi,mov,mkv,webm",
		},
		Advanced: AdvancedConfig{
			LogLevel:             "info",
			EnableRequestLogging: true,
			EnableMetrics:        true,
			DuckDBThreads:        2,
			DuckDBMemoryLimit:    "256MB",
		},
	}
}

// LoadConfig loads configuration from XML file
func LoadConfig(configPath string) (*AppConfig, error) {
	// If file doesn't exist, create default
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		config := DefaultConfig()
		if err := config.Save(configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
		config.applyEnvironmentOverrides()
		config.resolvePaths(filepath.Dir(configPath))
		return config, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Start from defaults so missing elements keep sane values
	config := DefaultConfig()
	if err := xml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	config.applyEnvironmentOverrides()
	config.resolvePaths(filepath.Dir(configPath))

	return config, nil
}

// Save saves the configuration to XML file
func (c *AppConfig) Save(configPath string) error {
	output, err := xml.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(xml.Header + "\n<!-- Style Studio Configuration -->\n<!-- This file is auto-generated on first run -->\n\n")
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

	// DATA_DIR moves every storage path that still points at the default layout
	if dataDir := os.Getenv("DATA_DIR"); dataDir != "" {
		c.Storage.DataDirectory = dataDir
		c.Storage.UploadsDirectory = filepath.Join(dataDir, "uploads")
		c.Storage.ResultsDirectory = filepath.Join(dataDir, "results")
		c.Storage.TempDirectory = filepath.Join(dataDir, "temp")
		c.Storage.HistoryDatabase = filepath.Join(dataDir, "history.duckdb")
	}

	if catalog := os.Getenv("STYLE_CATALOG"); catalog != "" {
		c.Processing.StyleCatalog = catalog
	}

	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.Advanced.LogLevel = level
	}
}

// resolvePaths converts relative paths to absolute based on config file location
func (c *AppConfig) resolvePaths(configDir string) {
	for _, p := range []*string{
		&c.Storage.DataDirectory,
		&c.Storage.UploadsDirectory,
		&c.Storage.ResultsDirectory,
		&c.Storage.TempDirectory,
		&c.Storage.HistoryDatabase,
		&c.Processing.StyleCatalog,
	} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(configDir, *p)
		}
	}
}

// GetServerAddr returns the server bind address
func (c *AppConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.BindAddress, c.Server.Port)
}

// BodyLimit is the request body limit for the echo middleware: the upload
// limit plus 1MB for multipart framing and the style field.
func (c *AppConfig) BodyLimit() string {
	return fmt.Sprintf("%dM", c.Storage.MaxUploadSizeMB+1)
}

// CleanupInterval returns how often old uploads and results are purged.
func (c *AppConfig) CleanupInterval() time.Duration {
	return time.Duration(c.Processing.CleanupIntervalMinutes) * time.Minute
}

// UploadMaxAge returns how long an orphaned upload may stay on disk.
func (c *AppConfig) UploadMaxAge() time.Duration {
	return time.Duration(c.Processing.UploadMaxAgeHours) * time.Hour
}

// ResultMaxAge returns how long a styled result may stay on disk.
func (c *AppConfig) ResultMaxAge() time.Duration {
	return time.Duration(c.Processing.ResultMaxAgeHours) * time.Hour
}

// JobRetention returns how long finished jobs stay queryable.
func (c *AppConfig) JobRetention() time.Duration {
	return time.Duration(c.Processing.JobRetentionMinutes) * time.Minute
}

// EnsureDirectories creates all necessary directories
func (c *AppConfig) EnsureDirectories() error {
	dirs := []string{
		c.Storage.DataDirectory,
		c.Storage.UploadsDirectory,
		c.Storage.ResultsDirectory,
		c.Storage.TempDirectory,
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}
