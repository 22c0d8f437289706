// Package config loads the epubdump configuration and prepares its logger.
package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"runtime"
	"slices"

	yaml "gopkg.in/yaml.v3"
)

//go:embed config.yaml
var defaultConfig []byte

type (
	ImagesConfig struct {
		MaxWidth  int `yaml:"max_width"`
		MaxHeight int `yaml:"max_height"`
		Workers   int `yaml:"workers"`
	}

	Config struct {
		Version int           `yaml:"version"`
		Logging LoggingConfig `yaml:"logging"`
		Images  ImagesConfig  `yaml:"images"`
	}
)

var (
	logLevels = []string{"none", "normal", "debug"}
	logModes  = []string{"", "append", "overwrite"}
)

func unmarshalConfig(data []byte, cfg *Config) (*Config, error) {
	// Only fields we defined are accepted.
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration data: %w", err)
	}
	return cfg, nil
}

// LoadConfiguration reads the configuration from the file at the given path,
// superimposes its values on top of the embedded defaults and validates the
// result. An empty path returns the defaults.
func LoadConfiguration(path string) (*Config, error) {
	cfg, err := unmarshalConfig(defaultConfig, &Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to process default configuration: %w", err)
	}

	if len(path) > 0 {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if cfg, err = unmarshalConfig(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to process configuration file: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (cfg *Config) validate() error {
	var errs []error
	if cfg.Version != 1 {
		errs = append(errs, fmt.Errorf("unsupported version %d", cfg.Version))
	}
	for _, l := range []struct {
		name string
		LoggerConfig
	}{
		{"console", cfg.Logging.ConsoleLogger},
		{"file", cfg.Logging.FileLogger},
	} {
		name := l.name
		if !slices.Contains(logLevels, l.Level) {
			errs = append(errs, fmt.Errorf("logging.%s.level: %q is not one of %v", name, l.Level, logLevels))
		}
		if !slices.Contains(logModes, l.Mode) {
			errs = append(errs, fmt.Errorf("logging.%s.mode: %q is not one of append, overwrite", name, l.Mode))
		}
	}
	if cfg.Logging.FileLogger.Level != "none" && len(cfg.Logging.FileLogger.Destination) == 0 {
		errs = append(errs, errors.New("logging.file.destination is required when file logging is enabled"))
	}
	if cfg.Images.MaxWidth < 0 || cfg.Images.MaxHeight < 0 {
		errs = append(errs, errors.New("images.max_width and images.max_height must not be negative"))
	}
	if cfg.Images.Workers < 0 {
		errs = append(errs, errors.New("images.workers must not be negative"))
	}
	return errors.Join(errs...)
}

// WorkerCount returns the configured number of concurrent workers, defaulting to
// the number of CPUs.
func (c ImagesConfig) WorkerCount() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return runtime.NumCPU()
}

// Prepare returns the embedded default configuration.
func Prepare() []byte {
	return slices.Clone(defaultConfig)
}

func Dump(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(*cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config to yaml: %v", err)
	}
	return data, nil
}
