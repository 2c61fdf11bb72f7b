// Package config loads epubtext settings using Viper.
//
// Values come from, in increasing priority: the library defaults, a
// configuration file, and EPUBTEXT_* environment variables. Command line
// flags are applied on top by the caller.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"

	"github.com/simp-lee/epubtext"
)

const (
	// AppName is the application name.
	AppName = "epubtext"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "toml"
	// LocalConfigFile is looked up in the working directory when the user
	// config file does not exist.
	LocalConfigFile = AppName + "." + ConfigFileExt
	// EnvPrefix prefixes environment overrides, e.g. EPUBTEXT_OUTPUT_DIR.
	EnvPrefix = "EPUBTEXT"
)

var (
	// ErrConfigNotFound is returned when an explicitly requested config file does not exist.
	ErrConfigNotFound = errors.New("config file not found")
	// ErrConfigExists is returned by WriteDefault when the target already exists.
	ErrConfigExists = errors.New("config file already exists")
)

// Config holds the application configuration.
type Config struct {
	// OutputDir is where artifacts are written; empty means next to each archive.
	OutputDir string `toml:"output_dir" mapstructure:"output_dir"`
	// Verbose enables debug logging.
	Verbose bool `toml:"verbose" mapstructure:"verbose"`
	// TempDir is the parent of working trees; empty means the OS default.
	TempDir string `toml:"temp_dir" mapstructure:"temp_dir"`
	// MaxEntrySize caps the decompressed size of one archive entry in bytes.
	MaxEntrySize int64 `toml:"max_entry_size" mapstructure:"max_entry_size"`
	// TOCHeadings fills missing headings from the table of contents.
	TOCHeadings bool `toml:"toc_headings" mapstructure:"toc_headings"`
	// SkipLicensePages drops Project Gutenberg license documents.
	SkipLicensePages bool `toml:"skip_license_pages" mapstructure:"skip_license_pages"`

	Filter   FilterConfig   `toml:"filter" mapstructure:"filter"`
	Fallback FallbackConfig `toml:"fallback" mapstructure:"fallback"`
}

// FilterConfig mirrors epubtext.FilterRules.
type FilterConfig struct {
	Tags        []string `toml:"tags" mapstructure:"tags"`
	ClassTokens []string `toml:"class_tokens" mapstructure:"class_tokens"`
	IDTokens    []string `toml:"id_tokens" mapstructure:"id_tokens"`
}

// FallbackConfig mirrors epubtext.FallbackRules.
type FallbackConfig struct {
	Extensions []string `toml:"extensions" mapstructure:"extensions"`
	Exclude    []string `toml:"exclude" mapstructure:"exclude"`
}

// DefaultConfig returns the configuration matching epubtext.DefaultOptions.
func DefaultConfig() *Config {
	opts := epubtext.DefaultOptions()
	return &Config{
		TempDir:          opts.TempDir,
		MaxEntrySize:     opts.MaxEntrySize,
		TOCHeadings:      opts.TOCHeadings,
		SkipLicensePages: opts.SkipLicensePages,
		Filter: FilterConfig{
			Tags:        opts.Filter.Tags,
			ClassTokens: opts.Filter.ClassTokens,
			IDTokens:    opts.Filter.IDTokens,
		},
		Fallback: FallbackConfig{
			Extensions: opts.Fallback.Extensions,
			Exclude:    opts.Fallback.Exclude,
		},
	}
}

// Options converts the configuration into extraction options.
func (c *Config) Options() epubtext.Options {
	return epubtext.Options{
		Filter: epubtext.FilterRules{
			Tags:        c.Filter.Tags,
			ClassTokens: c.Filter.ClassTokens,
			IDTokens:    c.Filter.IDTokens,
		},
		Fallback: epubtext.FallbackRules{
			Extensions: c.Fallback.Extensions,
			Exclude:    c.Fallback.Exclude,
		},
		TOCHeadings:      c.TOCHeadings,
		SkipLicensePages: c.SkipLicensePages,
		TempDir:          c.TempDir,
		MaxEntrySize:     c.MaxEntrySize,
	}
}

// ConfigDir returns the epubtext configuration directory:
// $XDG_CONFIG_HOME/epubtext, defaulting to ~/.config/epubtext.
//
//nolint:revive // ConfigDir reads better than Dir at call sites
func ConfigDir() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, AppName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".config", AppName), nil
}

// DefaultPath returns the path of the user config file.
func DefaultPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ConfigFileName+"."+ConfigFileExt), nil
}

// LoadOptions controls where Load looks for a config file.
type LoadOptions struct {
	// ConfigFilePath, when set, is the only file considered and must exist.
	ConfigFilePath string
	// ConfigDirPath overrides ConfigDir.
	ConfigDirPath string
}

// Load reads the configuration and returns it with the path of the file
// it came from, or "" when only defaults and environment were used.
func Load(opts LoadOptions) (*Config, string, error) {
	v := viper.New()
	setDefaults(v, DefaultConfig())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	path, err := resolvePath(opts)
	if err != nil {
		return nil, "", err
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, "", fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.MaxEntrySize < 0 {
		return nil, "", fmt.Errorf("max_entry_size must not be negative, got %d", cfg.MaxEntrySize)
	}
	return &cfg, path, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("output_dir", d.OutputDir)
	v.SetDefault("verbose", d.Verbose)
	v.SetDefault("temp_dir", d.TempDir)
	v.SetDefault("max_entry_size", d.MaxEntrySize)
	v.SetDefault("toc_headings", d.TOCHeadings)
	v.SetDefault("skip_license_pages", d.SkipLicensePages)
	v.SetDefault("filter.tags", d.Filter.Tags)
	v.SetDefault("filter.class_tokens", d.Filter.ClassTokens)
	v.SetDefault("filter.id_tokens", d.Filter.IDTokens)
	v.SetDefault("fallback.extensions", d.Fallback.Extensions)
	v.SetDefault("fallback.exclude", d.Fallback.Exclude)
}

// resolvePath picks the config file: the explicit path, else the user
// config file, else the local one. An empty result means none exists.
func resolvePath(opts LoadOptions) (string, error) {
	if opts.ConfigFilePath != "" {
		if !fileExists(opts.ConfigFilePath) {
			return "", fmt.Errorf("%w: %s", ErrConfigNotFound, opts.ConfigFilePath)
		}
		return opts.ConfigFilePath, nil
	}

	dir := opts.ConfigDirPath
	if dir == "" {
		d, err := ConfigDir()
		if err != nil {
			return "", err
		}
		dir = d
	}
	if p := filepath.Join(dir, ConfigFileName+"."+ConfigFileExt); fileExists(p) {
		return p, nil
	}
	if fileExists(LocalConfigFile) {
		return LocalConfigFile, nil
	}
	return "", nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Encode renders cfg as TOML.
func Encode(cfg *Config) ([]byte, error) {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	return data, nil
}

// WriteDefault writes the default configuration as TOML to path, creating
// parent directories. It refuses to overwrite an existing file unless force
// is set.
func WriteDefault(path string, force bool) error {
	if !force && fileExists(path) {
		return fmt.Errorf("%w: %s", ErrConfigExists, path)
	}
	data, err := Encode(DefaultConfig())
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
