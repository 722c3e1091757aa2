package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"
)

// Config represents the hitblock configuration
type Config struct {
	UserAgent       string            `json:"userAgent,omitempty" yaml:"userAgent,omitempty"`
	ConnectTimeout  int               `json:"connectTimeout,omitempty" yaml:"connectTimeout,omitempty"` // milliseconds
	ReadTimeout     int               `json:"readTimeout,omitempty" yaml:"readTimeout,omitempty"`       // milliseconds
	FollowRedirects *bool             `json:"followRedirects,omitempty" yaml:"followRedirects,omitempty"`
	Headers         map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"` // Default headers for all requests
	Output          string            `json:"output,omitempty" yaml:"output,omitempty"`   // console or json
	Pretty          *bool             `json:"pretty,omitempty" yaml:"pretty,omitempty"`
	HistoryFile     string            `json:"historyFile,omitempty" yaml:"historyFile,omitempty"`
	NoHistory       *bool             `json:"noHistory,omitempty" yaml:"noHistory,omitempty"`
	Verbose         *bool             `json:"verbose,omitempty" yaml:"verbose,omitempty"`
	NoColor         *bool             `json:"noColor,omitempty" yaml:"noColor,omitempty"`
}

// BoolPtr returns a pointer to a bool value
func BoolPtr(b bool) *bool {
	return &b
}

// getBool returns the value of a bool pointer, or the default if nil
func getBool(b *bool, defaultVal bool) bool {
	if b == nil {
		return defaultVal
	}
	return *b
}

// GetFollowRedirects returns the follow redirects setting, defaulting to false
func (c *Config) GetFollowRedirects() bool {
	return getBool(c.FollowRedirects, false)
}

func (c *Config) GetPretty() bool {
	return getBool(c.Pretty, false)
}

func (c *Config) GetNoHistory() bool {
	return getBool(c.NoHistory, false)
}

// GetVerbose returns the verbose setting, defaulting to false
func (c *Config) GetVerbose() bool {
	return getBool(c.Verbose, false)
}

// GetNoColor returns the no color setting, defaulting to false
func (c *Config) GetNoColor() bool {
	return getBool(c.NoColor, false)
}

func (c *Config) ConnectTimeoutDuration() time.Duration {
	return time.Duration(c.ConnectTimeout) * time.Millisecond
}

func (c *Config) ReadTimeoutDuration() time.Duration {
	return time.Duration(c.ReadTimeout) * time.Millisecond
}

// ConfigFilenames contains the possible config file names, in search order
var ConfigFilenames = []string{
	".hitblock.yaml",
	".hitblock.yml",
	".hitblock.json",
	"hitblock.config.json",
}

// LoadConfig loads configuration from the specified path or searches for config files
func LoadConfig(path string) (*Config, error) {
	if path != "" {
		return loadConfigFromFile(path)
	}

	// Search for config file in current directory
	return FindAndLoadConfig(".")
}

// FindAndLoadConfig searches for a config file in the given directory
func FindAndLoadConfig(dir string) (*Config, error) {
	for _, filename := range ConfigFilenames {
		configPath := filepath.Join(dir, filename)
		if _, err := os.Stat(configPath); err == nil {
			return loadConfigFromFile(configPath)
		}
	}

	// Return defaults if no config file found
	return DefaultConfig(), nil
}

// loadConfigFromFile loads configuration from a specific file. The format
// follows the extension; anything that is not .json is read as YAML.
func loadConfigFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	config := DefaultConfig()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(data, config)
	default:
		err = yaml.Unmarshal(data, config)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	return config, nil
}

// Merge merges another config into this one, with other taking precedence
func (c *Config) Merge(other *Config) *Config {
	if other == nil {
		return c
	}

	result := *c // Copy

	if other.UserAgent != "" {
		result.UserAgent = other.UserAgent
	}
	if other.ConnectTimeout > 0 {
		result.ConnectTimeout = other.ConnectTimeout
	}
	if other.ReadTimeout > 0 {
		result.ReadTimeout = other.ReadTimeout
	}
	if other.Output != "" {
		result.Output = other.Output
	}
	if other.HistoryFile != "" {
		result.HistoryFile = other.HistoryFile
	}

	// Boolean flags - only override if explicitly set in other config
	if other.FollowRedirects != nil {
		result.FollowRedirects = other.FollowRedirects
	}
	if other.Pretty != nil {
		result.Pretty = other.Pretty
	}
	if other.NoHistory != nil {
		result.NoHistory = other.NoHistory
	}
	if other.Verbose != nil {
		result.Verbose = other.Verbose
	}
	if other.NoColor != nil {
		result.NoColor = other.NoColor
	}

	// Merge headers
	if len(other.Headers) > 0 {
		headers := make(map[string]string, len(result.Headers)+len(other.Headers))
		for k, v := range result.Headers {
			headers[k] = v
		}
		for k, v := range other.Headers {
			headers[k] = v
		}
		result.Headers = headers
	}

	return &result
}

// Validate reports every invalid field.
func (c *Config) Validate() error {
	var errs *multierror.Error

	if c.ConnectTimeout < 0 {
		errs = multierror.Append(errs, fmt.Errorf("connectTimeout must not be negative (got %d)", c.ConnectTimeout))
	}
	if c.ReadTimeout < 0 {
		errs = multierror.Append(errs, fmt.Errorf("readTimeout must not be negative (got %d)", c.ReadTimeout))
	}
	switch c.Output {
	case "", "console", "json":
	default:
		errs = multierror.Append(errs, fmt.Errorf("output must be console or json (got %q)", c.Output))
	}
	for name := range c.Headers {
		if !validHeaderName(name) {
			errs = multierror.Append(errs, fmt.Errorf("invalid header name %q", name))
		}
	}
	if strings.ContainsAny(c.UserAgent, "\r\n") {
		errs = multierror.Append(errs, fmt.Errorf("userAgent must be a single line"))
	}

	return errs.ErrorOrNil()
}

func validHeaderName(name string) bool {
	if name == "" {
		return false
	}
	for _, r := range name {
		if !(r == '-' || r == '_' || (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')) {
			return false
		}
	}
	return true
}

// SaveConfig saves the configuration to a file, as JSON or YAML by extension
func (c *Config) SaveConfig(path string) error {
	var data []byte
	var err error
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		data, err = json.MarshalIndent(c, "", "  ")
	} else {
		data, err = yaml.Marshal(c)
	}
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
