package issuecache

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

// Store backends understood by the persistence package.
const (
	BackendFS     = "fs"
	BackendSQLite = "sqlite"
)

type Config struct {
	Capacity       int         `yaml:"capacity" mapstructure:"capacity"`
	Store          StoreConfig `yaml:"store" mapstructure:"store"`
	Incremental    bool        `yaml:"incremental" mapstructure:"incremental"`
	FingerprintDir string      `yaml:"fingerprint_dir" mapstructure:"fingerprint_dir"`
	Modfile        string      `yaml:"modfile" mapstructure:"modfile"`
	Workers        int         `yaml:"workers" mapstructure:"workers"`
	Rules          []Rule      `yaml:"rules" mapstructure:"rules"`
}

type StoreConfig struct {
	Backend    string `yaml:"backend" mapstructure:"backend"`
	Dir        string `yaml:"dir" mapstructure:"dir"`
	SQLitePath string `yaml:"sqlite_path" mapstructure:"sqlite_path"`
}

// Rule restricts the imports allowed in files below Path.
type Rule struct {
	Path       string          `yaml:"path" mapstructure:"path"`
	Allowed    []string        `yaml:"allowed,omitempty" mapstructure:"allowed"`
	Prohibited []ProhibitedPkg `yaml:"prohibited,omitempty" mapstructure:"prohibited"`
}

type ProhibitedPkg struct {
	Name     string `yaml:"name" mapstructure:"name"`
	Cause    string `yaml:"cause,omitempty" mapstructure:"cause"`
	Severity string `yaml:"severity,omitempty" mapstructure:"severity"`
}

// GetSeverity returns the configured severity, defaulting to error.
func (p ProhibitedPkg) GetSeverity() Severity {
	return ParseSeverity(p.Severity)
}

// DefaultConfig returns the configuration used when no file sets a value.
func DefaultConfig() Config {
	return Config{
		Capacity: DefaultCapacity,
		Store: StoreConfig{
			Backend:    BackendFS,
			Dir:        ".issuecache",
			SQLitePath: ".issuecache/issues.db",
		},
		FingerprintDir: ".issuecache/fingerprints",
		Modfile:        "go.mod",
	}
}

// Validate checks the values LoadConfig cannot default.
func (c Config) Validate() error {
	if c.Capacity < 1 {
		return NewConfigError(fmt.Sprintf("capacity must be at least 1, got %d", c.Capacity), nil)
	}
	switch c.Store.Backend {
	case BackendFS:
		if c.Store.Dir == "" {
			return NewConfigError("store.dir is required for the fs backend", nil)
		}
	case BackendSQLite:
		if c.Store.SQLitePath == "" {
			return NewConfigError("store.sqlite_path is required for the sqlite backend", nil)
		}
	default:
		return NewConfigError(fmt.Sprintf("unknown store backend %q", c.Store.Backend), nil)
	}
	if c.Workers < 0 {
		return NewConfigError(fmt.Sprintf("workers must not be negative, got %d", c.Workers), nil)
	}
	return nil
}

// LoadConfig reads the configuration from fs. cfgFile may be a path to a
// file, a file name with a yml/yaml extension, or a bare config name looked
// up in path, the current directory and the .issuecache folders.
func LoadConfig(fs afero.Fs, path string, cfgFile string) (Config, error) {
	v := viper.New()
	v.SetFs(fs)
	v.SetConfigType("yml")

	fileInfo, statErr := fs.Stat(cfgFile)
	if statErr == nil && !fileInfo.IsDir() {
		v.SetConfigFile(cfgFile)
	} else {
		if cfgFile != "" {
			if strings.HasSuffix(cfgFile, ".yml") || strings.HasSuffix(cfgFile, ".yaml") {
				v.SetConfigFile(cfgFile)
			} else {
				v.SetConfigName(cfgFile)
			}
		} else {
			v.SetConfigName(".issuecache")
		}

		if path != "" {
			v.AddConfigPath(path)
		}
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.issuecache")
		v.AddConfigPath("./.issuecache")
	}

	defaults := DefaultConfig()
	v.SetDefault("capacity", defaults.Capacity)
	v.SetDefault("store.backend", defaults.Store.Backend)
	v.SetDefault("store.dir", defaults.Store.Dir)
	v.SetDefault("store.sqlite_path", defaults.Store.SQLitePath)
	v.SetDefault("incremental", false)
	v.SetDefault("fingerprint_dir", defaults.FingerprintDir)
	v.SetDefault("modfile", defaults.Modfile)
	v.SetDefault("workers", 0)
	v.SetDefault("rules", []Rule{})

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			return Config{}, NewConfigError("config file not found", err)
		}
		return Config{}, NewConfigError("failed loading config file", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return Config{}, NewConfigError("failed unmarshaling config file", err)
	}

	if err := config.Validate(); err != nil {
		return Config{}, err
	}

	return config, nil
}
