package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/alexanderramin/fallow/internal/domain"
	"github.com/joho/godotenv"
)

// Config holds process-wide settings for the fallow CLI.
type Config struct {
	DBPath           string
	// MaxYears caps the planning horizon a rotation may request.
	MaxYears         int
	DefaultResidualN float64
	DefaultOwner     string
	LogUseCases      bool
	LogLevel         slog.Level
	Tolerance        float64
}

// DefaultConfig returns a Config with sensible defaults. The database lives
// under ~/.fallow unless the home directory cannot be resolved.
func DefaultConfig() Config {
	dbPath := "fallow.db"
	if home, err := os.UserHomeDir(); err == nil {
		dbPath = filepath.Join(home, ".fallow", "fallow.db")
	}
	return Config{
		DBPath:           dbPath,
		MaxYears:         10,
		DefaultResidualN: 0,
		DefaultOwner:     "",
		LogUseCases:      false,
		LogLevel:         slog.LevelInfo,
		Tolerance:        domain.DefaultTolerance,
	}
}

// LoadDotEnv loads KEY=VALUE files into the process environment. Variables
// already set win over file values, and missing files are skipped.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return err
		}
	}
	return nil
}

// LoadConfig reads configuration from environment variables, falling back
// to defaults for unset or malformed values.
func LoadConfig() Config {
	cfg := DefaultConfig()

	if v := os.Getenv("FALLOW_DB"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("FALLOW_MAX_YEARS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 1 {
			cfg.MaxYears = n
		}
	}
	if v := os.Getenv("FALLOW_DEFAULT_RESIDUAL_N"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && isFinite(f) {
			cfg.DefaultResidualN = f
		}
	}
	if v := os.Getenv("FALLOW_OWNER"); v != "" {
		cfg.DefaultOwner = v
	}
	if v := os.Getenv("FALLOW_LOG_USE_CASES"); v != "" {
		cfg.LogUseCases, _ = strconv.ParseBool(v)
	}
	if v := os.Getenv("FALLOW_LOG_LEVEL"); v != "" {
		var lvl slog.Level
		if err := lvl.UnmarshalText([]byte(strings.ToUpper(v))); err == nil {
			cfg.LogLevel = lvl
		}
	}
	if v := os.Getenv("FALLOW_TOLERANCE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 && isFinite(f) {
			cfg.Tolerance = f
		}
	}

	return cfg
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
