// Package config loads persister settings from defaults, an optional
// config file and LOCUS_* environment variables.
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/KumKeeHyun/locus/state"
	"github.com/MichaelAJay/go-logger"
	"github.com/spf13/viper"
)

const EnvPrefix = "LOCUS"

type Config struct {
	BaseDir     string `mapstructure:"base_dir"`
	Format      string `mapstructure:"format"`
	Backend     string `mapstructure:"backend"`
	BoltFile    string `mapstructure:"bolt_file"`
	AtomicWrite bool   `mapstructure:"atomic_write"`
	DirPerm     uint32 `mapstructure:"dir_perm"`
	FilePerm    uint32 `mapstructure:"file_perm"`
	LogLevel    string `mapstructure:"log_level"`
}

func Default() *Config {
	return &Config{
		Format:   "json",
		Backend:  "file",
		BoltFile: state.DefaultBoltFile,
		FilePerm: uint32(state.DefaultFilePerm),
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("base_dir", d.BaseDir)
	v.SetDefault("format", d.Format)
	v.SetDefault("backend", d.Backend)
	v.SetDefault("bolt_file", d.BoltFile)
	v.SetDefault("atomic_write", d.AtomicWrite)
	v.SetDefault("dir_perm", d.DirPerm)
	v.SetDefault("file_perm", d.FilePerm)
	v.SetDefault("log_level", d.LogLevel)
}

// Load reads the config file at path, if path is not empty, and applies
// LOCUS_* environment overrides on top of it.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch strings.ToLower(c.Format) {
	case "json", "yaml", "binary", "gob", "msgpack":
	default:
		return fmt.Errorf("config: unknown format %q", c.Format)
	}
	if _, err := c.StoreType(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	switch strings.ToLower(c.LogLevel) {
	case "", "debug", "info":
	default:
		return fmt.Errorf("config: unsupported log level %q", c.LogLevel)
	}
	return nil
}

func (c *Config) StoreType() (state.StoreType, error) {
	return state.ParseStoreType(strings.ToLower(c.Backend))
}

// BaseDirFunc returns the configured base directory provider. An empty
// BaseDir falls back to the home directory, and a leading "~" is expanded.
func (c *Config) BaseDirFunc() func() (string, error) {
	dir := c.BaseDir
	return func() (string, error) {
		if dir == "" {
			return os.UserHomeDir()
		}
		if dir == "~" || strings.HasPrefix(dir, "~/") {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			return filepath.Join(home, strings.TrimPrefix(dir, "~")), nil
		}
		return dir, nil
	}
}

// Logger builds a logger at the configured level writing to out. It
// returns nil when logging is not configured.
func (c *Config) Logger(out io.Writer) logger.Logger {
	if out == nil {
		out = os.Stderr
	}
	cfg := logger.Config{Output: out}
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		cfg.Level = logger.DebugLevel
	case "info":
		cfg.Level = logger.InfoLevel
	default:
		return nil
	}
	return logger.New(cfg)
}
