package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"salespulse/internal/kpi"
	"salespulse/internal/sheets"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// AppConfig holds the complete application configuration.
type AppConfig struct {
	Sheets              sheets.Config
	UseSampleData       bool
	DealsCSV            string
	RefreshInterval     time.Duration
	HTTPAddr            string
	DataPath            string
	LogDir              string
	CacheDir            string
	TargetsFile         string
	Targets             kpi.Targets
	Roster              []string
	Location            *time.Location
	EnableMermaidCharts bool
}

// Load loads the configuration from .env files and environment variables.
func Load() (*AppConfig, error) {
	// 1. Try to load from the executable's directory (highest priority for MCP servers)
	exePath, err := os.Executable()
	exeDir := ""
	if err == nil {
		exeDir = filepath.Dir(exePath)
		envPath := filepath.Join(exeDir, ".env")
		if err := godotenv.Load(envPath); err == nil {
			log.Debug().Str("path", envPath).Msg("Loaded configuration from binary directory")
		}
	}

	// 2. Fallback to current working directory (useful for development/go run)
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found in working directory, relying on environment variables or binary-relative .env")
	}

	cfg, err := FromEnv(exeDir)
	if err != nil {
		return nil, err
	}

	// Ensure directories exist
	if err := os.MkdirAll(cfg.LogDir, 0755); err != nil {
		log.Warn().Err(err).Str("path", cfg.LogDir).Msg("Failed to create log directory")
	}
	if err := os.MkdirAll(cfg.CacheDir, 0755); err != nil {
		log.Warn().Err(err).Str("path", cfg.CacheDir).Msg("Failed to create cache directory")
	}
	return cfg, nil
}

// FromEnv builds the configuration from the process environment alone. baseDir is the data
// path used when DATA_PATH is unset.
func FromEnv(baseDir string) (*AppConfig, error) {
	dataPath := os.Getenv("DATA_PATH")
	if dataPath == "" {
		if baseDir != "" {
			dataPath = baseDir
		} else {
			dataPath = "."
		}
	}

	logDir := getEnv("LOGS_FOLDER", filepath.Join(dataPath, "logs"))
	cacheDir := filepath.Join(dataPath, "cache")

	loc := time.Local
	if tz := getEnv("TIMEZONE", ""); tz != "" {
		l, err := time.LoadLocation(tz)
		if err != nil {
			return nil, fmt.Errorf("invalid TIMEZONE %q: %w", tz, err)
		}
		loc = l
	}

	delayMs, _ := strconv.Atoi(getEnv("SHEETS_REQUEST_DELAY_MS", "0"))
	headerRows, err := strconv.Atoi(getEnv("SHEETS_HEADER_ROWS", strconv.Itoa(sheets.DefaultHeaderRows)))
	if err != nil || headerRows < 0 {
		return nil, fmt.Errorf("invalid SHEETS_HEADER_ROWS %q", os.Getenv("SHEETS_HEADER_ROWS"))
	}

	cfg := &AppConfig{
		Sheets: sheets.Config{
			APIKey:       getEnv("SHEETS_API_KEY", ""),
			SheetID:      getEnv("SHEETS_ID", ""),
			Range:        getEnv("SHEETS_RANGE", sheets.DefaultRange),
			BaseURL:      getEnv("SHEETS_BASE_URL", sheets.DefaultBaseURL),
			HeaderRows:   headerRows,
			RequestDelay: time.Duration(delayMs) * time.Millisecond,
			ValuesTTL:    30 * time.Second,
		},
		UseSampleData:       getEnvBool("USE_SAMPLE_DATA", false),
		DealsCSV:            getEnv("DEALS_CSV", ""),
		RefreshInterval:     getEnvDuration("REFRESH_INTERVAL", 5*time.Minute),
		HTTPAddr:            getEnv("HTTP_ADDR", "127.0.0.1:8080"),
		DataPath:            dataPath,
		LogDir:              logDir,
		CacheDir:            cacheDir,
		TargetsFile:         getEnv("KPI_TARGETS_FILE", ""),
		Targets:             kpi.DefaultTargets(),
		Location:            loc,
		EnableMermaidCharts: getEnvBool("ENABLE_MERMAID_CHARTS", false),
	}

	if cfg.TargetsFile != "" {
		tf, err := LoadTargetsFile(cfg.TargetsFile)
		if err != nil {
			return nil, err
		}
		cfg.Targets = cfg.Targets.Merge(tf.Targets)
		cfg.Roster = tf.Roster
		log.Debug().Str("path", cfg.TargetsFile).Int("roster", len(cfg.Roster)).Msg("Loaded KPI targets")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil && d > 0 {
			return d
		}
		log.Warn().Str("key", key).Str("value", value).Msg("Ignoring invalid duration")
	}
	return fallback
}
