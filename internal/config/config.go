package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// FileName is the default config file name inside a project directory.
const FileName = "receipts.yaml"

// Environment variables that override file settings.
const (
	EnvDatabaseURL    = "RECEIPTS_DATABASE_URL"
	EnvDatabaseURLAlt = "DATABASE_URL"
	EnvLogLevel       = "RECEIPTS_LOG_LEVEL"
)

// DateLayout is the date format used by custom exclusion bounds.
const DateLayout = "2006-01-02"

// Config represents the top-level receipts.yaml configuration.
type Config struct {
	Database         DatabaseConfig    `yaml:"database"`
	Log              LogConfig         `yaml:"log"`
	Import           ImportConfig      `yaml:"import"`
	ExclusionFilters []string          `yaml:"exclusion_filters"`
	CustomExclusions []CustomExclusion `yaml:"custom_exclusions,omitempty"`
	Server           ServerConfig      `yaml:"server"`
}

// DatabaseConfig points at the backing store.
type DatabaseConfig struct {
	URL string `yaml:"url,omitempty"`
}

// LogConfig controls logger construction.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ImportConfig locates statement files and the run log.
type ImportConfig struct {
	Dir          string `yaml:"dir"`
	ProcessedDir string `yaml:"processed_dir"`
	RunLog       string `yaml:"run_log"`
}

// CustomExclusion is an ad hoc, time-boxed exclusion rule.
type CustomExclusion struct {
	Name                string   `yaml:"name"`
	Start               string   `yaml:"start"` // YYYY-MM-DD, inclusive
	End                 string   `yaml:"end"`   // YYYY-MM-DD, inclusive
	DescriptionContains string   `yaml:"description_contains,omitempty"`
	DescriptionPrefix   string   `yaml:"description_prefix,omitempty"`
	Amount              string   `yaml:"amount,omitempty"`
	PaymentMethods      []string `yaml:"payment_methods,omitempty"`
	ExceptDescriptions  []string `yaml:"except_descriptions,omitempty"`
}

// ServerConfig controls the report API.
type ServerConfig struct {
	Addr         string   `yaml:"addr"`
	AllowOrigins []string `yaml:"allow_origins,omitempty"` // CORS origins; empty disables CORS
}

// Load reads a receipts.yaml file from disk.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with the standard filter chain.
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Import: ImportConfig{
			Dir:          "import",
			ProcessedDir: filepath.Join("import", "processed"),
			RunLog:       filepath.Join("logs", "itemize-log.csv"),
		},
		ExclusionFilters: []string{
			"exclusion_conditions",
			"bmo_transaction_codes",
			"credit_payments",
			"cra_payments",
			"wellsfargo_online_payments",
			"checks",
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
	}
}

// Validate checks values that would otherwise fail deep inside a run.
func (c *Config) Validate() error {
	for i, ce := range c.CustomExclusions {
		if ce.Name == "" {
			return fmt.Errorf("custom_exclusions[%d]: name is required", i)
		}
		start, err := time.Parse(DateLayout, ce.Start)
		if err != nil {
			return fmt.Errorf("custom exclusion %s: start: %w", ce.Name, err)
		}
		end, err := time.Parse(DateLayout, ce.End)
		if err != nil {
			return fmt.Errorf("custom exclusion %s: end: %w", ce.Name, err)
		}
		if end.Before(start) {
			return fmt.Errorf("custom exclusion %s: end %s before start %s", ce.Name, ce.End, ce.Start)
		}
	}
	return nil
}

// ApplyEnv loads <dir>/.env when present and applies environment overrides.
func (c *Config) ApplyEnv(dir string) error {
	envPath := filepath.Join(dir, ".env")
	if err := godotenv.Load(envPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading %s: %w", envPath, err)
	}
	if v := os.Getenv(EnvDatabaseURL); v != "" {
		c.Database.URL = v
	} else if v := os.Getenv(EnvDatabaseURLAlt); v != "" && c.Database.URL == "" {
		c.Database.URL = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
	return nil
}

// Resolve makes relative import paths absolute against dir.
func (c *Config) Resolve(dir string) {
	abs := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(dir, p)
	}
	c.Import.Dir = abs(c.Import.Dir)
	c.Import.ProcessedDir = abs(c.Import.ProcessedDir)
	c.Import.RunLog = abs(c.Import.RunLog)
}
