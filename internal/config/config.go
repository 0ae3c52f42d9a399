package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	apperrors "somacli/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Smartsheet SmartsheetConfig `yaml:"smartsheet" envconfig:"SMARTSHEET"`
	Analysis   AnalysisConfig   `yaml:"analysis" envconfig:"ANALYSIS"`
	Output     OutputConfig     `yaml:"output" envconfig:"OUTPUT"`
	Logging    LoggingConfig    `yaml:"logging" envconfig:"LOGGING"`
}

// SmartsheetConfig contains Smartsheet API settings
type SmartsheetConfig struct {
	// AccessToken is required; its absence is a startup configuration
	// error, never a pipeline error.
	AccessToken string  `yaml:"access_token" envconfig:"ACCESS_TOKEN" validate:"required"`
	BaseURL     string  `yaml:"base_url" envconfig:"BASE_URL" validate:"required,url"`
	SheetName   string  `yaml:"sheet_name" envconfig:"SHEET_NAME" validate:"required"`
	RateLimit   float64 `yaml:"rate_limit" envconfig:"RATE_LIMIT" validate:"gt=0"`
}

// AnalysisConfig contains analysis defaults
type AnalysisConfig struct {
	DefaultLocation   string `yaml:"default_location" envconfig:"DEFAULT_LOCATION" validate:"required"`
	PlotFormat        string `yaml:"plot_format" envconfig:"PLOT_FORMAT" validate:"oneof=svg png html"`
	ReportFormat      string `yaml:"report_format" envconfig:"REPORT_FORMAT" validate:"oneof=csv xlsx"`
	MaxSamplesDisplay int    `yaml:"max_samples_display" envconfig:"MAX_SAMPLES_DISPLAY" validate:"gt=0"`
}

// OutputConfig contains output directory settings
type OutputConfig struct {
	Dir string `yaml:"dir" envconfig:"DIR" validate:"required"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn error"`
	Format   string `yaml:"format" envconfig:"FORMAT" validate:"oneof=json text"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// applyDefaults fills zero-valued fields before the file and
// environment layers are applied, so later layers always win.
func (c *Config) applyDefaults() {
	if c.Smartsheet.BaseURL == "" {
		c.Smartsheet.BaseURL = "https://api.smartsheet.com/2.0"
	}
	if c.Smartsheet.SheetName == "" {
		c.Smartsheet.SheetName = "Neuron Reconstructions"
	}
	if c.Smartsheet.RateLimit == 0 {
		c.Smartsheet.RateLimit = 4
	}
	if c.Analysis.DefaultLocation == "" {
		c.Analysis.DefaultLocation = "LC"
	}
	if c.Analysis.PlotFormat == "" {
		c.Analysis.PlotFormat = "svg"
	}
	if c.Analysis.ReportFormat == "" {
		c.Analysis.ReportFormat = "csv"
	}
	if c.Analysis.MaxSamplesDisplay == 0 {
		c.Analysis.MaxSamplesDisplay = 50
	}
	if c.Output.Dir == "" {
		c.Output.Dir = "results"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
	if c.Logging.Output == "" {
		c.Logging.Output = "console"
	}
	if c.Logging.FilePath == "" {
		c.Logging.FilePath = "logs/analysis.log"
	}
}

// Load loads configuration from environment variables and an optional
// config file. Environment variables take precedence over the file.
func Load() (*Config, error) {
	return LoadFrom(getConfigFilePath())
}

// LoadFrom loads configuration with an explicit config file path.
// A missing file is not an error; the environment alone must then
// satisfy validation.
func LoadFrom(configFile string) (*Config, error) {
	var cfg Config
	cfg.applyDefaults()

	if configFile != "" {
		if _, err := os.Stat(configFile); err == nil {
			if err := loadFromFile(configFile, &cfg); err != nil {
				return nil, apperrors.NewConfigError(
					fmt.Sprintf("failed to load config file %s", configFile), err)
			}
		}
	}

	// Environment overrides file values
	if err := envconfig.Process("SOMA", &cfg); err != nil {
		return nil, apperrors.NewConfigError("failed to load config from environment", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// loadFromFile unmarshals YAML configuration into cfg
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// Validate checks the configuration against struct-level rules.
// It fails fast, before any data fetch is attempted.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, verr := range verrs {
				if verr.Namespace() == "Config.Smartsheet.AccessToken" {
					return apperrors.NewConfigError(
						"SOMA_SMARTSHEET_ACCESS_TOKEN is required; set it in your environment", nil)
				}
			}
		}
		return apperrors.NewConfigError("configuration validation failed", err)
	}
	return nil
}

// EnsureOutputDir creates the output directory if it does not exist
func (c *Config) EnsureOutputDir() error {
	if err := os.MkdirAll(c.Output.Dir, 0755); err != nil {
		return apperrors.NewStorageError("failed to create output directory", c.Output.Dir, err)
	}
	return nil
}

// ReportPath returns the full path for a report file in the output directory
func (c *Config) ReportPath(filename string) string {
	return filepath.Join(c.Output.Dir, filename)
}

// getConfigFilePath returns the default config file location, next to
// the current working directory.
func getConfigFilePath() string {
	return "config.yaml"
}
