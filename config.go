package goadssim

import (
	"encoding/hex"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the test server configuration
type Config struct {
	Server    ServerConfig     `yaml:"server"`
	HTTP      HTTPConfig       `yaml:"http"`
	Logging   LoggingConfig    `yaml:"logging"`
	Variables []VariableConfig `yaml:"variables"`
}

// ServerConfig contains the ADS listener configuration
type ServerConfig struct {
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
	Handler string `yaml:"handler"` // basic, advanced
}

// HTTPConfig contains the introspection API configuration
type HTTPConfig struct {
	Enabled bool       `yaml:"enabled"`
	Host    string     `yaml:"host"`
	Port    int        `yaml:"port"`
	CORS    CORSConfig `yaml:"cors"`
}

// CORSConfig contains CORS configuration
type CORSConfig struct {
	Enabled          bool     `yaml:"enabled"`
	AllowedOrigins   []string `yaml:"allowed_origins"`
	AllowedMethods   []string `yaml:"allowed_methods"`
	AllowedHeaders   []string `yaml:"allowed_headers"`
	AllowCredentials bool     `yaml:"allow_credentials"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// VariableConfig declares a variable to pre-register in the store.
type VariableConfig struct {
	Name        string `yaml:"name"`
	Type        string `yaml:"type"`                   // PLC type name, e.g. UINT, LREAL, STRING
	Size        int    `yaml:"size,omitempty"`         // overrides the type's default size
	IndexGroup  uint32 `yaml:"index_group,omitempty"`  // 0 assigns the default group
	IndexOffset uint32 `yaml:"index_offset,omitempty"` // ignored when index_group is 0
	Initial     string `yaml:"initial,omitempty"`      // hex-encoded initial value
	Comment     string `yaml:"comment,omitempty"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:    "127.0.0.1",
			Port:    48898,
			Handler: "advanced",
		},
		HTTP: HTTPConfig{
			Enabled: false,
			Host:    "127.0.0.1",
			Port:    8080,
			CORS: CORSConfig{
				Enabled:          true,
				AllowedOrigins:   []string{"*"},
				AllowedMethods:   []string{"GET", "DELETE", "OPTIONS"},
				AllowedHeaders:   []string{"Content-Type"},
				AllowCredentials: false,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// LoadConfig loads configuration from a YAML file
func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Server.Handler != "basic" && c.Server.Handler != "advanced" {
		return fmt.Errorf("invalid handler kind: %s (must be basic or advanced)", c.Server.Handler)
	}

	if c.HTTP.Enabled && (c.HTTP.Port < 1 || c.HTTP.Port > 65535) {
		return fmt.Errorf("invalid http port: %d", c.HTTP.Port)
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logging.Level)
	}

	validLogFormats := map[string]bool{"json": true, "text": true}
	if !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("invalid log format: %s (must be json or text)", c.Logging.Format)
	}

	for i, vc := range c.Variables {
		if vc.Name == "" {
			return fmt.Errorf("variable %d: name is required", i)
		}
		if _, _, ok := TypeForName(vc.Type); !ok {
			return fmt.Errorf("variable %q: unknown type %q", vc.Name, vc.Type)
		}
		if vc.Size < 0 {
			return fmt.Errorf("variable %q: negative size", vc.Name)
		}
		if vc.Initial != "" {
			if _, err := hex.DecodeString(vc.Initial); err != nil {
				return fmt.Errorf("variable %q: initial value is not valid hex: %w", vc.Name, err)
			}
		}
	}

	return nil
}

// Address returns the ADS listen address (host:port)
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// HTTPAddress returns the introspection API address (host:port)
func (c *Config) HTTPAddress() string {
	return fmt.Sprintf("%s:%d", c.HTTP.Host, c.HTTP.Port)
}

// Build creates the variable declared by this entry. Validate first; Build
// assumes the entry is well formed apart from the reported errors.
func (vc *VariableConfig) Build() (*Variable, error) {
	dataType, size, ok := TypeForName(vc.Type)
	if !ok {
		return nil, fmt.Errorf("variable %q: unknown type %q", vc.Name, vc.Type)
	}
	if vc.Size > 0 {
		size = uint32(vc.Size)
	}

	v := NewVariable(vc.Name, vc.IndexGroup, vc.IndexOffset, dataType, int(size))
	v.Comment = vc.Comment

	if vc.Initial != "" {
		raw, err := hex.DecodeString(vc.Initial)
		if err != nil {
			return nil, fmt.Errorf("variable %q: initial value is not valid hex: %w", vc.Name, err)
		}
		if len(raw) > len(v.Value) {
			return nil, fmt.Errorf("variable %q: initial value of %d bytes exceeds size %d", vc.Name, len(raw), len(v.Value))
		}
		copy(v.Value, raw)
	}
	return v, nil
}

// SaveExample saves an example configuration file
func SaveExample(filename string) error {
	config := DefaultConfig()
	config.Variables = []VariableConfig{
		{Name: "Main.counter", Type: "UINT", Initial: "2a00"},
		{Name: "Main.temperature", Type: "LREAL"},
		{Name: "Main.label", Type: "STRING", Size: 32, Comment: "display text"},
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
