package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v2"
)

// EnvPrefix is the prefix of environment variable overrides, e.g.
// TIDAL_ANALYSIS_DAY_START_HOUR
const EnvPrefix = "TIDAL"

// YAMLProvider implements ConfigProvider for YAML configuration files
type YAMLProvider struct {
	filename     string
	allowMissing bool
}

// NewYAMLProvider creates a new YAML configuration provider. When
// allowMissing is set, a missing file yields the defaults.
func NewYAMLProvider(filename string, allowMissing bool) *YAMLProvider {
	return &YAMLProvider{
		filename:     filename,
		allowMissing: allowMissing,
	}
}

// LoadConfig layers the YAML file over the defaults, applies environment
// overrides and validates the result
func (y *YAMLProvider) LoadConfig() (*ConfigData, error) {
	config := DefaultConfig()

	cfgFile, err := os.ReadFile(y.filename)
	switch {
	case err == nil:
		if err := yaml.UnmarshalStrict(cfgFile, config); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", y.filename, err)
		}
	case errors.Is(err, fs.ErrNotExist) && y.allowMissing:
	default:
		return nil, err
	}

	if err := ApplyEnv(config); err != nil {
		return nil, err
	}
	if err := Validate(config); err != nil {
		return nil, err
	}
	return config, nil
}

// IsReadOnly returns true; YAML configs are edited by hand
func (y *YAMLProvider) IsReadOnly() bool {
	return true
}

// Close is a no-op for YAML files
func (y *YAMLProvider) Close() error {
	return nil
}
