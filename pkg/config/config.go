// Package config loads cellar settings from a TOML file, the environment
// and command-line flags, in increasing order of precedence.
//
// The file lives at $XDG_CONFIG_HOME/cellar/config.toml (or
// ~/.config/cellar/config.toml) unless --config names another one:
//
//	database = "/home/me/wine/cellar.db"
//	confirm = true
//	current_year = 2025
//
// CELLAR_DATA overrides the database path, matching the variable the cellar
// scripts have always read. Other keys take a CELLAR_ prefix, e.g.
// CELLAR_CONFIRM=false.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/matzehuels/cellar/pkg/errors"
)

const appName = "cellar"

// Keys understood in the config file.
const (
	KeyDatabase    = "database"
	KeyConfirm     = "confirm"
	KeyCurrentYear = "current_year"
)

// Flag names bound by [Load] when present in the flag set.
const (
	FlagDatabase    = "db"
	FlagYes         = "yes"
	FlagCurrentYear = "year"
)

// DataEnv names the environment variable holding the database path.
const DataEnv = "CELLAR_DATA"

// Config holds the effective settings of one invocation.
type Config struct {
	// Database is the SQLite file holding the cellar.
	Database string `mapstructure:"database"`

	// Confirm asks before committing changes.
	Confirm bool `mapstructure:"confirm"`

	// CurrentYear overrides the calendar year. Zero means now.
	CurrentYear int `mapstructure:"current_year"`

	// File is the config file that was read, if any.
	File string `mapstructure:"-"`
}

// Year returns the year layouts and reports are computed for.
func (c Config) Year() int {
	if c.CurrentYear != 0 {
		return c.CurrentYear
	}
	return time.Now().Year()
}

// DefaultPath returns the config file location using the XDG convention.
func DefaultPath() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}

// DefaultDatabase returns the database location using the XDG convention.
func DefaultDatabase() (string, error) {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, appName, "cellar.db"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share", appName, "cellar.db"), nil
}

func newViper() (*viper.Viper, error) {
	db, err := DefaultDatabase()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "locate database")
	}

	v := viper.New()
	v.SetConfigType("toml")
	v.SetDefault(KeyDatabase, db)
	v.SetDefault(KeyConfirm, true)
	v.SetDefault(KeyCurrentYear, 0)
	return v, nil
}

// Load reads the config file at path, then the environment, then any of
// the flags [FlagDatabase], [FlagYes] and [FlagCurrentYear] that flags
// defines. An empty path means [DefaultPath], which may be missing; an
// explicit path must exist. flags may be nil.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	v, err := newViper()
	if err != nil {
		return Config{}, err
	}

	explicit := path != ""
	if !explicit {
		if path, err = DefaultPath(); err != nil {
			return Config{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "locate config")
		}
	}

	var used string
	if _, statErr := os.Stat(path); statErr == nil {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read %s", path)
		}
		used = path
	} else if explicit {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfig, statErr, "config file %s", path)
	}

	v.SetEnvPrefix(appName)
	v.AutomaticEnv()
	if err := v.BindEnv(KeyDatabase, DataEnv); err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInternal, err, "bind %s", DataEnv)
	}

	if flags != nil {
		for key, name := range map[string]string{KeyDatabase: FlagDatabase, KeyCurrentYear: FlagCurrentYear} {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return Config{}, errors.Wrap(errors.ErrCodeInternal, err, "bind --%s", name)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "decode config")
	}
	cfg.File = used

	if flags != nil {
		if yes, err := flags.GetBool(FlagYes); err == nil && yes {
			cfg.Confirm = false
		}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the settings.
func (c Config) Validate() error {
	if c.Database == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "database path is empty")
	}
	if c.CurrentYear != 0 && (c.CurrentYear < 1900 || c.CurrentYear > 9999) {
		return errors.New(errors.ErrCodeInvalidConfig, "current_year %d out of range", c.CurrentYear)
	}
	return nil
}

// Init writes a config file holding the defaults to path. It fails when the
// file already exists.
func Init(path string) error {
	v, err := newViper()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "create config directory")
	}
	if err := v.SafeWriteConfigAs(path); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "write %s", path)
	}
	return nil
}
