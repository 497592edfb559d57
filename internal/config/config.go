package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	burnt "github.com/BurntSushi/toml"
	toml "github.com/pelletier/go-toml/v2"
)

const (
	// CurrentVersion is the only config schema version understood
	CurrentVersion = 1

	// ConfigDirName is the per-repository config directory
	ConfigDirName = ".relfiles"

	// ConfigFileName is the config file inside ConfigDirName
	ConfigFileName = "config.toml"

	// EnvPrefix prefixes environment overrides, e.g. RELFILES_RELATEDFILES_LIMIT
	EnvPrefix = "RELFILES"
)

// Config represents the complete relfiles configuration
type Config struct {
	Version int `json:"version" mapstructure:"version" toml:"version" yaml:"version"`

	RelatedFiles RelatedFilesConfig `json:"relatedFiles" mapstructure:"relatedFiles" toml:"relatedFiles" yaml:"relatedFiles"`
	Git          GitConfig          `json:"git" mapstructure:"git" toml:"git" yaml:"git"`
	Cache        CacheConfig        `json:"cache" mapstructure:"cache" toml:"cache" yaml:"cache"`
	Server       ServerConfig       `json:"server" mapstructure:"server" toml:"server" yaml:"server"`
	Logging      LoggingConfig      `json:"logging" mapstructure:"logging" toml:"logging" yaml:"logging"`
}

// RelatedFilesConfig groups the two recommendation signals
type RelatedFilesConfig struct {
	Limit          int                  `json:"limit" mapstructure:"limit" toml:"limit" yaml:"limit"`
	EditedTogether EditedTogetherConfig `json:"editedTogether" mapstructure:"editedTogether" toml:"editedTogether" yaml:"editedTogether"`
	SimilarNames   SimilarNamesConfig   `json:"similarNames" mapstructure:"similarNames" toml:"similarNames" yaml:"similarNames"`
}

// EditedTogetherConfig configures the co-commit signal
type EditedTogetherConfig struct {
	Enabled           bool             `json:"enabled" mapstructure:"enabled" toml:"enabled" yaml:"enabled"`
	NumberOfCommits   int              `json:"numberOfCommits" mapstructure:"numberOfCommits" toml:"numberOfCommits" yaml:"numberOfCommits"`
	MaxFilesPerCommit int              `json:"maxFilesPerCommit" mapstructure:"maxFilesPerCommit" toml:"maxFilesPerCommit" yaml:"maxFilesPerCommit"`
	Heuristics        HeuristicsConfig `json:"heuristics" mapstructure:"heuristics" toml:"heuristics" yaml:"heuristics"`
}

// HeuristicsConfig holds the weighting factors
type HeuristicsConfig struct {
	OlderCommitDecayFactor float64 `json:"olderCommitDecayFactor" mapstructure:"olderCommitDecayFactor" toml:"olderCommitDecayFactor" yaml:"olderCommitDecayFactor"`
	RepeatModifierFactor   float64 `json:"repeatModifierFactor" mapstructure:"repeatModifierFactor" toml:"repeatModifierFactor" yaml:"repeatModifierFactor"`
}

// SimilarNamesConfig configures the same-base-name signal
type SimilarNamesConfig struct {
	Enabled bool     `json:"enabled" mapstructure:"enabled" toml:"enabled" yaml:"enabled"`
	Limit   int      `json:"limit" mapstructure:"limit" toml:"limit" yaml:"limit"`
	Exclude []string `json:"exclude" mapstructure:"exclude" toml:"exclude" yaml:"exclude"`
}

// GitConfig contains Git backend configuration
type GitConfig struct {
	Binary      string `json:"binary" mapstructure:"binary" toml:"binary" yaml:"binary"`
	TimeoutMs   int    `json:"timeoutMs" mapstructure:"timeoutMs" toml:"timeoutMs" yaml:"timeoutMs"`
	MaxInFlight int    `json:"maxInFlight" mapstructure:"maxInFlight" toml:"maxInFlight" yaml:"maxInFlight"`
}

// CacheConfig contains the in-memory result cache settings
type CacheConfig struct {
	TTLSeconds int `json:"ttlSeconds" mapstructure:"ttlSeconds" toml:"ttlSeconds" yaml:"ttlSeconds"`
	MaxEntries int `json:"maxEntries" mapstructure:"maxEntries" toml:"maxEntries" yaml:"maxEntries"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Addr string `json:"addr" mapstructure:"addr" toml:"addr" yaml:"addr"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level string `json:"level" mapstructure:"level" toml:"level" yaml:"level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version: CurrentVersion,
		RelatedFiles: RelatedFilesConfig{
			Limit: 10,
			EditedTogether: EditedTogetherConfig{
				Enabled:           true,
				NumberOfCommits:   30,
				MaxFilesPerCommit: 100,
				Heuristics: HeuristicsConfig{
					OlderCommitDecayFactor: 0.9,
					RepeatModifierFactor:   1.5,
				},
			},
			SimilarNames: SimilarNamesConfig{
				Enabled: true,
				Limit:   10,
				Exclude: []string{".git", "node_modules", "vendor", "dist", "build"},
			},
		},
		Git: GitConfig{
			Binary:      "git",
			TimeoutMs:   5000,
			MaxInFlight: 8,
		},
		Cache: CacheConfig{
			TTLSeconds: 60,
			MaxEntries: 256,
		},
		Server: ServerConfig{
			Addr: "localhost:9130",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// ConfigPath returns <repoRoot>/.relfiles/config.toml
func ConfigPath(repoRoot string) string {
	return filepath.Join(repoRoot, ConfigDirName, ConfigFileName)
}

// LoadConfig loads configuration from <repoRoot>/.relfiles/config.{toml,json,yaml}
// with RELFILES_* environment overrides. A missing file yields the defaults.
func LoadConfig(repoRoot string) (*Config, error) {
	v := viper.New()
	setDefaults(v, DefaultConfig())

	// No SetConfigType: the file's extension picks the parser.
	v.SetConfigName("config")
	v.AddConfigPath(filepath.Join(repoRoot, ConfigDirName))

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("version", d.Version)
	v.SetDefault("relatedFiles.limit", d.RelatedFiles.Limit)
	v.SetDefault("relatedFiles.editedTogether.enabled", d.RelatedFiles.EditedTogether.Enabled)
	v.SetDefault("relatedFiles.editedTogether.numberOfCommits", d.RelatedFiles.EditedTogether.NumberOfCommits)
	v.SetDefault("relatedFiles.editedTogether.maxFilesPerCommit", d.RelatedFiles.EditedTogether.MaxFilesPerCommit)
	v.SetDefault("relatedFiles.editedTogether.heuristics.olderCommitDecayFactor", d.RelatedFiles.EditedTogether.Heuristics.OlderCommitDecayFactor)
	v.SetDefault("relatedFiles.editedTogether.heuristics.repeatModifierFactor", d.RelatedFiles.EditedTogether.Heuristics.RepeatModifierFactor)
	v.SetDefault("relatedFiles.similarNames.enabled", d.RelatedFiles.SimilarNames.Enabled)
	v.SetDefault("relatedFiles.similarNames.limit", d.RelatedFiles.SimilarNames.Limit)
	v.SetDefault("relatedFiles.similarNames.exclude", d.RelatedFiles.SimilarNames.Exclude)
	v.SetDefault("git.binary", d.Git.Binary)
	v.SetDefault("git.timeoutMs", d.Git.TimeoutMs)
	v.SetDefault("git.maxInFlight", d.Git.MaxInFlight)
	v.SetDefault("cache.ttlSeconds", d.Cache.TTLSeconds)
	v.SetDefault("cache.maxEntries", d.Cache.MaxEntries)
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("logging.level", d.Logging.Level)
}

// Save writes the configuration to <repoRoot>/.relfiles/config.toml
func (c *Config) Save(repoRoot string) error {
	path := ConfigPath(repoRoot)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}

// CheckUnknownKeys decodes the TOML file at path and returns the keys that
// do not map onto any Config field, typically typos.
func CheckUnknownKeys(path string) ([]string, error) {
	var cfg Config
	md, err := burnt.DecodeFile(path, &cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	undecoded := md.Undecoded()
	keys := make([]string, 0, len(undecoded))
	for _, k := range undecoded {
		keys = append(keys, k.String())
	}
	return keys, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Version != CurrentVersion {
		return &ConfigError{Field: "version", Message: fmt.Sprintf("unsupported config version %d", c.Version)}
	}

	et := c.RelatedFiles.EditedTogether
	if err := ValidateHeuristics(et.NumberOfCommits, et.MaxFilesPerCommit, et.Heuristics.OlderCommitDecayFactor, et.Heuristics.RepeatModifierFactor); err != nil {
		return err
	}
	if err := ValidateLimit("relatedFiles.limit", c.RelatedFiles.Limit); err != nil {
		return err
	}
	if err := ValidateLimit("relatedFiles.similarNames.limit", c.RelatedFiles.SimilarNames.Limit); err != nil {
		return err
	}
	if c.Git.TimeoutMs < 0 {
		return &ConfigError{Field: "git.timeoutMs", Message: "must not be negative"}
	}
	if c.Git.MaxInFlight < 0 {
		return &ConfigError{Field: "git.maxInFlight", Message: "must not be negative"}
	}
	return nil
}

// ValidateHeuristics rejects weighting parameters outside their domains:
// decay in (0,1], finite repeat boost >= 1, commits >= 0, max files >= 1.
// NaN values are rejected.
func ValidateHeuristics(numberOfCommits, maxFilesPerCommit int, decay, repeatBoost float64) error {
	if numberOfCommits < 0 {
		return &ConfigError{Field: "numberOfCommits", Message: "must not be negative"}
	}
	if maxFilesPerCommit < 1 {
		return &ConfigError{Field: "maxFilesPerCommit", Message: "must be at least 1"}
	}
	if math.IsNaN(decay) || decay <= 0 || decay > 1 {
		return &ConfigError{Field: "olderCommitDecayFactor", Message: fmt.Sprintf("must be in (0,1], got %v", decay)}
	}
	if math.IsNaN(repeatBoost) || math.IsInf(repeatBoost, 1) || repeatBoost < 1 {
		return &ConfigError{Field: "repeatModifierFactor", Message: fmt.Sprintf("must be a finite number >= 1, got %v", repeatBoost)}
	}
	return nil
}

// ValidateLimit rejects negative result limits.
func ValidateLimit(field string, limit int) error {
	if limit < 0 {
		return &ConfigError{Field: field, Message: fmt.Sprintf("must not be negative, got %d", limit)}
	}
	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}
