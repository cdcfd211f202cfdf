package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"

	"budget-engine/internal/model"
)

// Config holds the process configuration read from the environment.
type Config struct {
	Port         string
	BudgetFile   string
	SettingsFile string
	RateCatalog  RateCatalogConfig
}

type RateCatalogConfig struct {
	URL     string
	Timeout time.Duration
}

// Load reads an optional .env file and then the environment.
func Load() (*Config, error) {
	// A missing .env is fine.
	_ = godotenv.Load()

	timeout, err := time.ParseDuration(getEnv("RATE_CATALOG_TIMEOUT", "2s"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_CATALOG_TIMEOUT: %w", err)
	}

	return &Config{
		Port:         getEnv("PORT", "8080"),
		BudgetFile:   getEnv("BUDGET_FILE", "budget.json"),
		SettingsFile: getEnv("BUDGET_SETTINGS", ""),
		RateCatalog: RateCatalogConfig{
			URL:     getEnv("RATE_CATALOG_URL", ""),
			Timeout: timeout,
		},
	}, nil
}

// Settings returns the planning settings named by SettingsFile, or the
// defaults when none is configured.
func (c *Config) Settings() (model.Settings, error) {
	if c.SettingsFile == "" {
		return model.DefaultSettings(), nil
	}
	return LoadSettings(c.SettingsFile)
}

// LoadSettings reads a .toml, .yaml or .yml settings file. Keys absent from
// the file keep their default values.
func LoadSettings(path string) (model.Settings, error) {
	settings := model.DefaultSettings()

	data, err := os.ReadFile(path)
	if err != nil {
		return settings, fmt.Errorf("reading settings: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		if err := toml.Unmarshal(data, &settings); err != nil {
			return settings, fmt.Errorf("parsing %s: %w", path, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &settings); err != nil {
			return settings, fmt.Errorf("parsing %s: %w", path, err)
		}
	default:
		return settings, fmt.Errorf("unsupported settings format %q", ext)
	}

	if settings.HoursPerDay < 0 || settings.AnnualWorkingHours < 0 {
		return settings, fmt.Errorf("parsing %s: hours must not be negative", path)
	}
	return settings, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
