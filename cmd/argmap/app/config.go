package app

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/agentstation/argmap/pkg/constants"
	"github.com/agentstation/argmap/pkg/errors"
)

// EnvPrefix prefixes every environment variable read by the CLI.
const EnvPrefix = "ARGMAP"

// Config holds the application configuration loaded from the config file,
// ARGMAP_* environment variables, .env files and command-line flags.
type Config struct {
	// Global flags
	Verbose bool
	Quiet   bool
	NoColor bool
	Format  string

	// Config file
	ConfigFile string

	// Collection
	Database string

	// Reconciliation
	SimilarityThreshold float64
	ReviewPageSize      int
	CandidateCap        int
	FingerprintTTL      time.Duration

	// Logging configuration
	LogLevel  string
	LogFormat string
	LogOutput string
}

// LoadConfig loads configuration from all sources in order of precedence:
//  1. Command-line flags (applied later with UpdateFromFlags)
//  2. ARGMAP_* environment variables
//  3. .env and .env.local files
//  4. Config file (configFile, or ~/.argmap.yaml or ./.argmap.yaml)
//  5. Defaults
func LoadConfig(configFile string) (*Config, error) {
	loadEnvFiles()

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.NewConfigError("config", "cannot read "+configFile, err)
		}
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName(".argmap")
		// A missing config file is fine
		_ = v.ReadInConfig()
	}

	config := &Config{
		Verbose:    v.GetBool("verbose"),
		Quiet:      v.GetBool("quiet"),
		NoColor:    v.GetBool("no_color"),
		Format:     v.GetString("format"),
		ConfigFile: v.ConfigFileUsed(),

		Database: expandHome(v.GetString("database")),

		SimilarityThreshold: v.GetFloat64("similarity_threshold"),
		ReviewPageSize:      v.GetInt("review_page_size"),
		CandidateCap:        v.GetInt("candidate_cap"),
		FingerprintTTL:      v.GetDuration("fingerprint_ttl"),

		LogLevel:  v.GetString("log_level"),
		LogFormat: v.GetString("log_format"),
		LogOutput: v.GetString("log_output"),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database", DefaultDatabase())
	v.SetDefault("similarity_threshold", constants.DefaultSimilarityThreshold)
	v.SetDefault("review_page_size", constants.ReviewPageSize)
	v.SetDefault("candidate_cap", constants.DefaultCandidateCap)
	v.SetDefault("fingerprint_ttl", constants.DefaultFingerprintTTL)
	v.SetDefault("log_format", "auto")
	v.SetDefault("log_output", "stderr")
}

// DefaultDatabase returns ~/.argmap/argmap.db, or argmap.db in the working
// directory when there is no home directory.
func DefaultDatabase() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "argmap.db"
	}
	return filepath.Join(home, ".argmap", "argmap.db")
}

// Validate checks the reconciliation settings.
func (c *Config) Validate() error {
	switch {
	case c.SimilarityThreshold < 0 || c.SimilarityThreshold > 1:
		return errors.NewConfigError("similarity_threshold", "must be within [0, 1]", nil)
	case c.ReviewPageSize < 1:
		return errors.NewConfigError("review_page_size", "must be positive", nil)
	case c.CandidateCap < 1:
		return errors.NewConfigError("candidate_cap", "must be positive", nil)
	case c.FingerprintTTL < 0:
		return errors.NewConfigError("fingerprint_ttl", "must not be negative", nil)
	case c.Database == "":
		return errors.NewConfigError("database", "must not be empty", nil)
	}
	return nil
}

// UpdateFromFlags updates config values from parsed command flags so flag
// values take precedence over the config file and environment.
func (c *Config) UpdateFromFlags(verbose, quiet, noColor bool, format, logLevel string) {
	c.Verbose = verbose
	c.Quiet = quiet
	c.NoColor = noColor
	if format != "" {
		c.Format = format
	}
	if logLevel != "" {
		c.LogLevel = logLevel
	}
}

// Settings returns the effective configuration as display strings keyed
// by their config file names.
func (c *Config) Settings() map[string]string {
	configFile := c.ConfigFile
	if configFile == "" {
		configFile = "(none)"
	}
	return map[string]string{
		"config_file":          configFile,
		"database":             c.Database,
		"similarity_threshold": strconv.FormatFloat(c.SimilarityThreshold, 'f', -1, 64),
		"review_page_size":     strconv.Itoa(c.ReviewPageSize),
		"candidate_cap":        strconv.Itoa(c.CandidateCap),
		"fingerprint_ttl":      c.FingerprintTTL.String(),
		"log_level":            determineLogLevel(c),
		"log_format":           c.LogFormat,
	}
}

// loadEnvFiles loads environment variables from .env files.
// .env.local overrides .env.
func loadEnvFiles() {
	for _, envFile := range []string{".env.local", ".env"} {
		// godotenv.Load never overrides a variable that is already set, so
		// the more specific file goes first
		_ = godotenv.Load(envFile)
	}
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
