package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/a3tai/doc-extractor/internal/extraction"
)

const (
	// Output formats
	FormatText = "text"
	FormatXLSX = "xlsx"

	// Default values
	DefaultLogLevel    = "info"
	DefaultMaxFileSize = 50 * 1024 * 1024 // 50MB
	DefaultOutputDir   = "output"
	DefaultLogDir      = "logs"

	// EnvPrefix prefixes every environment variable, e.g. DOC_EXTRACT_DIR.
	EnvPrefix = "DOC_EXTRACT"

	// Directory permissions
	DefaultDirPerm = 0o750
)

// Config holds all configuration for the document extractor. It is passed
// explicitly to the components that need it.
type Config struct {
	// Input
	DocumentDirectory string
	Keywords          []string
	KeywordsFile      string
	MaxFileSize       int64 // Maximum document size in bytes

	// Output
	OutputDirectory string
	OutputFormat    string // "text" or "xlsx"
	Overwrite       bool
	MetricsFile     string

	// Logging
	LogDirectory string
	LogLevel     string
	LogPretty    bool

	// Application
	Version    string
	ServerName string
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	currentDir, err := os.Getwd()
	if err != nil {
		// Fallback to current directory if working directory cannot be determined
		currentDir = "."
	}

	return &Config{
		DocumentDirectory: currentDir,
		MaxFileSize:       DefaultMaxFileSize,
		OutputDirectory:   filepath.Join(currentDir, DefaultOutputDir),
		OutputFormat:      FormatText,
		LogLevel:          DefaultLogLevel,
		Version:           "1.0.0",
		ServerName:        "doc-extractor",
	}
}

// BindFlags registers the configuration flags on fs with cfg's values as
// defaults.
func BindFlags(fs *pflag.FlagSet, cfg *Config) {
	fs.String("dir", cfg.DocumentDirectory, "Directory containing documents")
	fs.StringSlice("keywords", cfg.Keywords, "Keywords to extract, in column order (comma-separated or repeated)")
	fs.String("keywords-file", cfg.KeywordsFile, "YAML file with a keyword list")
	fs.Int64("maxfilesize", cfg.MaxFileSize, "Maximum document size in bytes")
	fs.String("output", cfg.OutputDirectory, "Directory for generated reports")
	fs.String("format", cfg.OutputFormat, "Batch output format (text, xlsx)")
	fs.Bool("overwrite", cfg.Overwrite, "Overwrite existing output files")
	fs.String("metrics-file", cfg.MetricsFile, "Write Prometheus metrics to this file after a run")
	fs.String("logdir", cfg.LogDirectory, "Directory for per-run processing logs (disabled when empty)")
	fs.String("loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
	fs.Bool("log-pretty", cfg.LogPretty, "Human-readable console logs")
}

// Load resolves configuration from flags, DOC_EXTRACT_* environment
// variables and defaults, in that order of precedence, then merges the
// keywords file and validates the result.
func Load(fs *pflag.FlagSet) (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	setupViperEnvironment(v, cfg)
	if fs != nil {
		if err := v.BindPFlags(fs); err != nil {
			return nil, fmt.Errorf("failed to bind flags: %w", err)
		}
	}

	populateConfigFromViper(v, cfg)

	if cfg.KeywordsFile != "" {
		fileKeywords, err := LoadKeywordsFile(cfg.KeywordsFile)
		if err != nil {
			return nil, err
		}
		cfg.Keywords = append(cfg.Keywords, fileKeywords...)
	}
	cfg.Keywords = extraction.NormalizeKeywords(cfg.Keywords)

	for _, p := range []*string{&cfg.DocumentDirectory, &cfg.OutputDirectory, &cfg.LogDirectory} {
		if *p == "" {
			continue
		}
		if abs, err := filepath.Abs(*p); err == nil {
			*p = abs
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setupViperEnvironment configures viper with environment variables and defaults
func setupViperEnvironment(v *viper.Viper, cfg *Config) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("dir", cfg.DocumentDirectory)
	v.SetDefault("keywords", cfg.Keywords)
	v.SetDefault("keywords-file", cfg.KeywordsFile)
	v.SetDefault("maxfilesize", cfg.MaxFileSize)
	v.SetDefault("output", cfg.OutputDirectory)
	v.SetDefault("format", cfg.OutputFormat)
	v.SetDefault("overwrite", cfg.Overwrite)
	v.SetDefault("metrics-file", cfg.MetricsFile)
	v.SetDefault("logdir", cfg.LogDirectory)
	v.SetDefault("loglevel", cfg.LogLevel)
	v.SetDefault("log-pretty", cfg.LogPretty)
}

// populateConfigFromViper fills the config struct with values from viper
func populateConfigFromViper(v *viper.Viper, cfg *Config) {
	cfg.DocumentDirectory = v.GetString("dir")
	cfg.Keywords = splitList(v.GetStringSlice("keywords"))
	cfg.KeywordsFile = v.GetString("keywords-file")
	cfg.MaxFileSize = v.GetInt64("maxfilesize")
	cfg.OutputDirectory = v.GetString("output")
	cfg.OutputFormat = strings.ToLower(v.GetString("format"))
	cfg.Overwrite = v.GetBool("overwrite")
	cfg.MetricsFile = v.GetString("metrics-file")
	cfg.LogDirectory = v.GetString("logdir")
	cfg.LogLevel = v.GetString("loglevel")
	cfg.LogPretty = v.GetBool("log-pretty")
}

// splitList splits comma-joined entries, as delivered by environment
// variables.
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		out = append(out, strings.Split(v, ",")...)
	}
	return out
}

// keywordsDocument is the mapping form of a keywords file.
type keywordsDocument struct {
	Keywords []string `yaml:"keywords"`
}

// LoadKeywordsFile reads a YAML keyword list: either a top-level sequence
// or a mapping with a "keywords" sequence. Keywords are normalized.
func LoadKeywordsFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read keywords file %s: %w", path, err)
	}

	var list []string
	if err := yaml.Unmarshal(data, &list); err == nil {
		return extraction.NormalizeKeywords(list), nil
	}

	var doc keywordsDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("invalid keywords file %s: %w", path, err)
	}
	return extraction.NormalizeKeywords(doc.Keywords), nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.DocumentDirectory == "" {
		return errors.New("document directory cannot be empty")
	}

	if c.OutputFormat != FormatText && c.OutputFormat != FormatXLSX {
		return fmt.Errorf("invalid output format: %s (must be one of: text, xlsx)", c.OutputFormat)
	}

	if c.MaxFileSize <= 0 {
		return errors.New("maximum file size must be positive")
	}

	if err := extraction.ValidateKeywords(c.Keywords); err != nil {
		return err
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}

	if c.OutputDirectory == "" {
		return errors.New("output directory cannot be empty")
	}

	// Create the output directory if it doesn't exist
	if _, err := os.Stat(c.OutputDirectory); os.IsNotExist(err) {
		if err := os.MkdirAll(c.OutputDirectory, DefaultDirPerm); err != nil {
			return fmt.Errorf("cannot create output directory %s: %w", c.OutputDirectory, err)
		}
	} else if err != nil {
		return fmt.Errorf("cannot access output directory %s: %w", c.OutputDirectory, err)
	}

	return nil
}

// IsDebug returns true if debug logging is enabled
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// String returns a string representation of the configuration
func (c *Config) String() string {
	return fmt.Sprintf("Config{DocumentDirectory: %s, OutputDirectory: %s, OutputFormat: %s, Keywords: %v, LogLevel: %s, MaxFileSize: %d}",
		c.DocumentDirectory, c.OutputDirectory, c.OutputFormat, c.Keywords, c.LogLevel, c.MaxFileSize)
}
