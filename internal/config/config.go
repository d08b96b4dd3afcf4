package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables holding the Pipedrive credentials.
const (
	EnvAPIKey        = "PIPEDRIVE_API_KEY"
	EnvCompanyDomain = "PIPEDRIVE_COMPANY_DOMAIN"
)

// ErrMissingCredentials is returned by Validate when the API key or the
// company domain is not configured.
var ErrMissingCredentials = errors.New("missing API key or company domain")

// Config holds all runtime configuration (config file + .env + CLI flags).
type Config struct {
	APIKey        string        `yaml:"api_key"`
	CompanyDomain string        `yaml:"company_domain"`
	BaseURL       string        `yaml:"base_url"` // overrides https://<domain>.pipedrive.com/api/v1
	MappingFile   string        `yaml:"mapping_file"`
	InputFile     string        `yaml:"input_file"`
	Listen        string        `yaml:"listen"`
	LogLevel      string        `yaml:"log_level"`
	Timeout       time.Duration `yaml:"timeout"`    // 0 leaves the HTTP client without a timeout
	RateLimit     float64       `yaml:"rate_limit"` // requests per second, 0 = unlimited
}

// Default returns a Config with defaults applied and no credentials.
func Default() *Config {
	return &Config{
		MappingFile: "mappings/mappings.json",
		InputFile:   "mappings/inputData.json",
		Listen:      ":8080",
		LogLevel:    "info",
	}
}

// Load builds a Config from defaults, then the YAML config file (if any),
// then the env file and process environment. Environment values win over
// file values. A missing env file is not an error.
func Load(configFile, envFile string) (*Config, error) {
	c := Default()

	if configFile != "" {
		if err := c.loadFile(configFile); err != nil {
			return nil, err
		}
	}

	if envFile != "" {
		// godotenv never overrides variables already set in the process.
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", envFile, err)
		}
	}
	c.applyEnv()

	return c, nil
}

// loadFile reads a YAML config file. Only non-empty file values replace
// the current ones.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	var file Config
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}

	setString(&c.APIKey, file.APIKey)
	setString(&c.CompanyDomain, file.CompanyDomain)
	setString(&c.BaseURL, file.BaseURL)
	setString(&c.MappingFile, file.MappingFile)
	setString(&c.InputFile, file.InputFile)
	setString(&c.Listen, file.Listen)
	setString(&c.LogLevel, file.LogLevel)
	if file.Timeout > 0 {
		c.Timeout = file.Timeout
	}
	if file.RateLimit > 0 {
		c.RateLimit = file.RateLimit
	}
	return nil
}

func (c *Config) applyEnv() {
	setString(&c.APIKey, os.Getenv(EnvAPIKey))
	setString(&c.CompanyDomain, os.Getenv(EnvCompanyDomain))
}

// Validate checks that the credentials needed for any remote call are set.
func (c *Config) Validate() error {
	if c == nil || c.APIKey == "" || c.CompanyDomain == "" {
		return ErrMissingCredentials
	}
	return nil
}

// APIBaseURL returns the Pipedrive API root for this configuration.
func (c *Config) APIBaseURL() string {
	if c.BaseURL != "" {
		return strings.TrimRight(c.BaseURL, "/")
	}
	return fmt.Sprintf("https://%s.pipedrive.com/api/v1", c.CompanyDomain)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
