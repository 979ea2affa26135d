package cliparse

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	flag "github.com/spf13/pflag"
)

const (
	DefaultPort    = 3318
	DefaultBaseURL = "https://quickly-rank.com"
	DefaultEnvFile = ".env"
)

type Config struct {
	Port         int
	DatabaseURL  string
	DatabaseType string
	AdminKeySalt string
	PollSlugSalt string
	BaseURL      string
	PresetsFile  string
	ExportDir    string
}

// ParseFlags reads flags, then environment (optionally seeded from an env
// file), then defaults. Flags always win.
func ParseFlags(args []string) (Config, error) {
	var cfg Config
	var envFile string

	flags := flag.NewFlagSet("quickly-rank", flag.ContinueOnError)

	// Network and storage
	flags.IntVarP(&cfg.Port, "port", "p", 0, "Server port")
	flags.StringVarP(&cfg.DatabaseURL, "database-url", "d", "", "Database URL")
	flags.StringVarP(&cfg.DatabaseType, "database-type", "t", "", "Database type (sqlite or postgres)")
	flags.StringVar(&cfg.BaseURL, "base-url", "", "Public base URL used in share links")
	flags.StringVar(&cfg.PresetsFile, "presets", "", "Candidate preset file (JSONC)")
	flags.StringVar(&cfg.ExportDir, "export-dir", "", "Directory for closed-poll result exports")
	flags.StringVar(&envFile, "env-file", "", "Load environment from this file (default .env if present)")

	// Secrets (prefer env variables, but allow CLI for dev)
	flags.StringVar(&cfg.AdminKeySalt, "admin-salt", "", "Admin key salt (prefer env)")
	flags.StringVar(&cfg.PollSlugSalt, "slug-salt", "", "Poll slug salt (prefer env)")

	if err := flags.Parse(args); err != nil {
		return Config{}, err
	}

	if err := loadEnvFile(envFile); err != nil {
		return Config{}, err
	}

	if cfg.Port == 0 {
		if portStr := os.Getenv("PORT"); portStr != "" {
			port, err := strconv.Atoi(portStr)
			if err != nil {
				return Config{}, errors.New("invalid PORT env variable")
			}
			cfg.Port = port
		} else {
			cfg.Port = DefaultPort
		}
	}

	envFallback(&cfg.DatabaseURL, "DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return Config{}, errors.New("database URL required (use -d or DATABASE_URL env)")
	}

	envFallback(&cfg.DatabaseType, "DATABASE_TYPE")
	if cfg.DatabaseType == "" {
		cfg.DatabaseType = "sqlite"
	}
	if cfg.DatabaseType != "sqlite" && cfg.DatabaseType != "postgres" {
		return Config{}, fmt.Errorf("unsupported database type %q", cfg.DatabaseType)
	}

	envFallback(&cfg.BaseURL, "BASE_URL")
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	envFallback(&cfg.PresetsFile, "PRESETS_FILE")
	envFallback(&cfg.ExportDir, "EXPORT_DIR")

	// Secrets - MUST be provided
	envFallback(&cfg.AdminKeySalt, "ADMIN_KEY_SALT")
	if cfg.AdminKeySalt == "" {
		return Config{}, errors.New("ADMIN_KEY_SALT required")
	}

	envFallback(&cfg.PollSlugSalt, "POLL_SLUG_SALT")
	if cfg.PollSlugSalt == "" {
		return Config{}, errors.New("POLL_SLUG_SALT required")
	}

	return cfg, nil
}

func envFallback(dst *string, key string) {
	if *dst == "" {
		*dst = os.Getenv(key)
	}
}

// loadEnvFile never overrides variables that are already set. An explicit
// file must exist; the default one is optional.
func loadEnvFile(path string) error {
	if path != "" {
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("loading env file %s: %w", path, err)
		}
		return nil
	}

	err := godotenv.Load(DefaultEnvFile)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading env file %s: %w", DefaultEnvFile, err)
	}
	return nil
}
