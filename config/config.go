// Package config handles configuration loading and validation for surrealmetrics.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/TFMV/surrealmetrics/analysis"
	"github.com/TFMV/surrealmetrics/db"
	"github.com/TFMV/surrealmetrics/expr"
	"github.com/TFMV/surrealmetrics/lang"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/viper"
)

const (
	// DefaultConfigFile is the default configuration file name (without extension).
	DefaultConfigFile = ".surrealmetrics"
	// DefaultConfigType is the default configuration file type.
	DefaultConfigType = "yaml"
	// EnvPrefix prefixes every environment override, e.g. SURREALMETRICS_WORKERS.
	EnvPrefix = "SURREALMETRICS"
)

// Config holds all configuration for an analysis run.
type Config struct {
	// Extensions narrows the recognized file extensions. Empty means all built-ins.
	Extensions []string `mapstructure:"extensions"`
	// Exclude lists doublestar patterns, relative to the analysis root, to skip.
	// Nothing is excluded by default.
	Exclude []string `mapstructure:"exclude"`
	// Workers bounds the number of files scanned concurrently.
	Workers int `mapstructure:"workers"`
	// AtomicOperators keeps multi-character operators such as == and >>>= whole
	// instead of splitting them into their single-character parts.
	AtomicOperators bool `mapstructure:"atomic_operators"`
	// TokenCacheSize is the number of tokenized lines memoized; 0 disables it.
	TokenCacheSize int `mapstructure:"token_cache_size"`
	// Cache configures the persistent per-file result cache.
	Cache CacheConfig `mapstructure:"cache"`
	// Languages adds keywords and operators to built-in languages, keyed by name.
	Languages map[string]VocabularyConfig `mapstructure:"languages"`
	// DB holds the SurrealDB connection used by the store command.
	DB DBConfig `mapstructure:"db"`
}

// CacheConfig holds persistent cache configuration.
type CacheConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// VocabularyConfig lists extra tokens for one language.
type VocabularyConfig struct {
	Keywords  []string `mapstructure:"keywords"`
	Operators []string `mapstructure:"operators"`
}

// DBConfig holds SurrealDB connection settings.
type DBConfig struct {
	URL       string `mapstructure:"url"`
	Namespace string `mapstructure:"namespace"`
	Database  string `mapstructure:"database"`
	Username  string `mapstructure:"username"`
	Password  string `mapstructure:"password"`
}

// Load loads configuration from file, environment variables, and defaults. An empty
// path searches the working directory for .surrealmetrics.yaml; a missing default
// file is not an error, a missing explicit one is.
func Load(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(DefaultConfigFile)
		v.SetConfigType(DefaultConfigType)
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	return &cfg, nil
}

// Tokenizer builds the line tokenizer described by the configuration.
func (c *Config) Tokenizer() *expr.Tokenizer {
	return expr.NewTokenizer(c.TokenCacheSize).WithAtomicOperators(c.AtomicOperators)
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	v := viper.New()
	setDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("invalid default configuration: %v", err))
	}
	return &cfg
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be positive, got %d", c.Workers)
	}
	if c.TokenCacheSize < 0 {
		return fmt.Errorf("token_cache_size must not be negative, got %d", c.TokenCacheSize)
	}

	builtins := lang.NewRegistry()
	known := make(map[string]bool)
	for _, ext := range builtins.Extensions() {
		known[ext] = true
	}
	for _, ext := range c.Extensions {
		if !known[normalizeExtension(ext)] {
			return fmt.Errorf("unsupported extension %q (supported: %s)", ext, strings.Join(builtins.Extensions(), ", "))
		}
	}

	for _, pattern := range c.Exclude {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("invalid exclude pattern %q", pattern)
		}
	}

	for name := range c.Languages {
		if _, ok := builtins.ByName(name); !ok {
			return fmt.Errorf("unknown language %q in languages", name)
		}
	}

	if c.Cache.Enabled && c.Cache.Path == "" {
		return fmt.Errorf("cache.path is required when the cache is enabled")
	}

	return nil
}

// Registry builds the language registry described by the configuration: built-ins
// extended with configured vocabulary, then narrowed to the configured extensions.
// With AtomicOperators every language also learns the whole multi-character operators.
func (c *Config) Registry() (*lang.Registry, error) {
	registry := lang.NewRegistry()

	if c.AtomicOperators {
		for _, l := range registry.Languages() {
			registry.Replace(expr.AtomicVocabulary(l))
		}
	}

	names := make([]string, 0, len(c.Languages))
	for name := range c.Languages {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		l, ok := registry.ByName(name)
		if !ok {
			return nil, fmt.Errorf("unknown language %q", name)
		}
		vocab := c.Languages[name]
		registry.Replace(l.Extend(vocab.Keywords, vocab.Operators))
	}

	if len(c.Extensions) > 0 {
		exts := make([]string, 0, len(c.Extensions))
		for _, ext := range c.Extensions {
			exts = append(exts, normalizeExtension(ext))
		}
		registry = registry.Restrict(exts)
	}

	return registry, nil
}

// Database converts the db section into store settings.
func (c *Config) Database() db.Config {
	return db.Config{
		URL:       c.DB.URL,
		Namespace: c.DB.Namespace,
		Database:  c.DB.Database,
		Username:  c.DB.Username,
		Password:  c.DB.Password,
	}
}

func normalizeExtension(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("extensions", []string{})

	v.SetDefault("exclude", analysis.DefaultExclude)

	v.SetDefault("workers", runtime.NumCPU())
	v.SetDefault("token_cache_size", 4096)
	v.SetDefault("atomic_operators", false)

	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.path", defaultCachePath())

	v.SetDefault("db.url", "ws://localhost:8000")
	v.SetDefault("db.namespace", "surrealmetrics")
	v.SetDefault("db.database", "metrics")
	v.SetDefault("db.username", "")
	v.SetDefault("db.password", "")
}

func defaultCachePath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return filepath.Join(".surrealmetrics", "cache")
	}
	return filepath.Join(dir, "surrealmetrics")
}
