package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
	"k8s.io/client-go/util/homedir"

	"github.com/futuretea/kube-current-token/pkg/output"
	"github.com/futuretea/kube-current-token/pkg/resolver"
)

// StaticConfig represents the static configuration for kube-current-token
type StaticConfig struct {
	// Kubeconfig file to read
	Kubeconfig string `yaml:"kubeconfig" mapstructure:"kubeconfig"`

	// Logging configuration
	LogLevel int `yaml:"log_level" mapstructure:"log_level"`

	// Output configuration
	Output string `yaml:"output" mapstructure:"output"`

	// Lookup configuration
	Lookup          string `yaml:"lookup" mapstructure:"lookup"`
	StrictExitCodes bool   `yaml:"strict_exit_codes" mapstructure:"strict_exit_codes"`
}

// DefaultKubeconfigPath returns <home>/.kube/config, or an empty string when no home directory is known
func DefaultKubeconfigPath() string {
	home := homedir.HomeDir()
	if home == "" {
		return ""
	}
	return filepath.Join(home, ".kube", "config")
}

// DefaultConfig returns the default configuration
func DefaultConfig() *StaticConfig {
	return &StaticConfig{
		Kubeconfig:      DefaultKubeconfigPath(),
		LogLevel:        0,
		Output:          output.FormatToken,
		Lookup:          resolver.LookupUserName,
		StrictExitCodes: false,
	}
}

// Validate validates the configuration
func (c *StaticConfig) Validate() error {
	if c.Kubeconfig == "" {
		return fmt.Errorf("kubeconfig path is empty and no home directory could be determined")
	}

	if c.LogLevel < 0 || c.LogLevel > 9 {
		return fmt.Errorf("log_level must be between 0 and 9, got %d", c.LogLevel)
	}

	if !output.IsValidFormat(c.Output) {
		return fmt.Errorf("output must be one of: token, exec-credential, json, yaml, got %s", c.Output)
	}

	if !resolver.IsValidLookup(c.Lookup) {
		return fmt.Errorf("lookup must be one of: user-name, context, got %s", c.Lookup)
	}

	return nil
}

// LoadConfig loads configuration from a YAML file on top of the defaults.
// The result is not validated; flags and environment may still override it.
func LoadConfig(configPath string) (*StaticConfig, error) {
	config := DefaultConfig()

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
		}

		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
		}
	}

	return config, nil
}
