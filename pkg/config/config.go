// Package config loads, defaults and validates the docstore configuration,
// and provides the factory functions that turn configuration sections into
// constructed stores.
//
// Sources, in order of precedence: environment variables (DOCSTORE_*), the
// configuration file (YAML), then built-in defaults.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config is the complete docstore configuration.
//
// Implementation-specific settings live in untyped map sections (one per
// implementation); only the section matching the selected Type is decoded,
// by the corresponding factory.
type Config struct {
	// Logging controls log output behavior.
	Logging LoggingConfig `mapstructure:"logging"`

	// Storage configures the transactional file store.
	Storage StorageConfig `mapstructure:"storage"`

	// Objects selects and configures the object persistence backend.
	Objects ObjectsConfig `mapstructure:"objects"`

	// Archive selects and configures the deleted-attachment archive.
	Archive ArchiveConfig `mapstructure:"archive"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum level emitted: DEBUG, INFO, WARN or ERROR.
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error"`
}

// StorageConfig configures the filesystem attachment store.
type StorageConfig struct {
	// Root is the directory the storage hierarchy lives under.
	Root string `mapstructure:"root" validate:"required"`
}

// ObjectsConfig selects the object persistence backend.
type ObjectsConfig struct {
	// Type is the backend implementation: memory or badger.
	Type string `mapstructure:"type" validate:"required,oneof=memory badger"`

	// Badger holds badger-specific settings; used when Type is "badger".
	Badger map[string]any `mapstructure:"badger"`
}

// ArchiveConfig selects the deleted-attachment archive.
type ArchiveConfig struct {
	// Type is the archive implementation: none, memory or s3.
	Type string `mapstructure:"type" validate:"required,oneof=none memory s3"`

	// S3 holds S3-specific settings; used when Type is "s3".
	S3 map[string]any `mapstructure:"s3"`
}

// Load reads the configuration from the given file path (optional), applies
// environment overrides and defaults, and validates the result.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetEnvPrefix("DOCSTORE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	applyDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %q: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding configuration: %w", err)
	}

	normalize(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// normalize canonicalizes values validation accepts in several spellings.
func normalize(cfg *Config) {
	cfg.Logging.Level = strings.ToUpper(cfg.Logging.Level)
	cfg.Objects.Type = strings.ToLower(cfg.Objects.Type)
	cfg.Archive.Type = strings.ToLower(cfg.Archive.Type)
}
