package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"gopersist/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Analysis AnalysisConfig
	Data     DataConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port string
}

// DatabaseConfig holds the optional result-ledger connection
type DatabaseConfig struct {
	URL     string // empty disables the postgres ledger
	Enabled bool
}

// AnalysisConfig holds the statistical engine defaults
type AnalysisConfig struct {
	BaseSeed        int64
	NPermutations   int
	NBootstrap      int
	CosinorPeriod   float64
	MinCosinorR2    float64
	CaseCategory    string
	ControlCategory string
}

// DataConfig holds ingestion settings
type DataConfig struct {
	ExpressionFile string
	CategoryColumn string
}

// Load reads configuration from the environment, with .env support for
// development. Invalid numeric values fail hard: a misconfigured engine must
// never run with silently substituted defaults.
func Load() (*Config, error) {
	// .env is optional; real deployments use the environment directly
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
		},
		Database: DatabaseConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
		Analysis: AnalysisConfig{
			BaseSeed:        42,
			NPermutations:   1000,
			NBootstrap:      1000,
			CosinorPeriod:   24,
			MinCosinorR2:    0.3,
			CaseCategory:    getEnv("CASE_CATEGORY", "disease"),
			ControlCategory: getEnv("CONTROL_CATEGORY", "control"),
		},
		Data: DataConfig{
			ExpressionFile: os.Getenv("EXPRESSION_FILE"),
			CategoryColumn: getEnv("CATEGORY_COLUMN", "category"),
		},
	}
	cfg.Database.Enabled = cfg.Database.URL != ""

	var err error
	if cfg.Analysis.BaseSeed, err = getEnvInt64("BASE_SEED", cfg.Analysis.BaseSeed); err != nil {
		return nil, err
	}
	if cfg.Analysis.NPermutations, err = getEnvInt("N_PERMUTATIONS", cfg.Analysis.NPermutations); err != nil {
		return nil, err
	}
	if cfg.Analysis.NBootstrap, err = getEnvInt("N_BOOTSTRAP", cfg.Analysis.NBootstrap); err != nil {
		return nil, err
	}
	if cfg.Analysis.CosinorPeriod, err = getEnvFloat("COSINOR_PERIOD", cfg.Analysis.CosinorPeriod); err != nil {
		return nil, err
	}
	if cfg.Analysis.MinCosinorR2, err = getEnvFloat("MIN_COSINOR_R2", cfg.Analysis.MinCosinorR2); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints
func (c *Config) Validate() error {
	if c.Analysis.NPermutations <= 0 {
		return errors.ConfigInvalid("N_PERMUTATIONS must be positive")
	}
	if c.Analysis.NBootstrap <= 0 {
		return errors.ConfigInvalid("N_BOOTSTRAP must be positive")
	}
	if c.Analysis.CosinorPeriod <= 0 {
		return errors.ConfigInvalid("COSINOR_PERIOD must be positive")
	}
	if c.Analysis.MinCosinorR2 < 0 || c.Analysis.MinCosinorR2 > 1 {
		return errors.ConfigInvalid("MIN_COSINOR_R2 must be in [0,1]")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.ConfigInvalid(key + " must be an integer")
	}
	return n, nil
}

func getEnvInt64(key string, fallback int64) (int64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, errors.ConfigInvalid(key + " must be an integer")
	}
	return n, nil
}

func getEnvFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, errors.ConfigInvalid(key + " must be numeric")
	}
	return f, nil
}
