package common

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	OCR       OCRConfig
	VINDecode VINDecodeConfig
	Intake    IntakeConfig
	Log       LogConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	GRPCAddr    string
	MetricsAddr string // empty disables the /metrics listener
}

// OCRConfig holds OCR-related configuration
type OCRConfig struct {
	TesseractBin     string
	Language         string
	TessdataDir      string
	PSM              int
	HeicConverter    string
	ArtifactCacheDir string
	TSVConfidence    bool
}

// VINDecodeConfig controls the optional NHTSA lookup and its cache.
type VINDecodeConfig struct {
	Enabled   bool
	BaseURL   string
	Timeout   time.Duration
	CacheSize int
	CacheTTL  time.Duration
	RedisAddr string // shared cache; empty keeps the in-process LRU
	RedisDB   int
	RateRPS   int
	RateBurst int
}

// IntakeConfig sizes the async worker pool.
type IntakeConfig struct {
	Workers        int
	QueueSize      int
	ProcessTimeout time.Duration
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string
	Format string
}

// loadEnvFiles loads ENV_FILE when set, otherwise .env.local then .env.
// Variables already present in the environment win; missing files are ignored.
func loadEnvFiles() error {
	if envFile := os.Getenv("ENV_FILE"); envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("load env file %s: %w", envFile, err)
		}
		return nil
	}
	for _, f := range []string{".env.local", ".env"} {
		if err := godotenv.Load(f); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// LoadConfig loads configuration from .env files and environment variables
func LoadConfig() *Config {
	if err := loadEnvFiles(); err != nil {
		slog.Warn("env files not loaded", "error", err)
	}
	return &Config{
		Server: ServerConfig{
			GRPCAddr:    getEnv("GRPC_ADDR", ":8080"),
			MetricsAddr: getEnv("METRICS_ADDR", ":9090"),
		},
		OCR: OCRConfig{
			TesseractBin:     getEnv("TESSERACT_BIN", "tesseract"),
			Language:         getEnv("TESSERACT_LANG", "eng"),
			TessdataDir:      getEnv("TESSDATA_PREFIX", ""),
			PSM:              getEnvAsInt("TESSERACT_PSM", 0),
			HeicConverter:    getEnv("HEIC_CONVERTER", "magick"),
			ArtifactCacheDir: getEnv("ARTIFACT_CACHE_DIR", "./tmp"),
			TSVConfidence:    getEnvAsBool("OCR_TSV_CONFIDENCE", false),
		},
		VINDecode: VINDecodeConfig{
			Enabled:   getEnvAsBool("VIN_DECODE_ENABLED", true),
			BaseURL:   getEnv("VIN_DECODE_BASE_URL", "https://vpic.nhtsa.dot.gov/api"),
			Timeout:   getEnvAsDuration("VIN_DECODE_TIMEOUT", 10*time.Second),
			CacheSize: getEnvAsInt("VIN_CACHE_SIZE", 1000),
			CacheTTL:  getEnvAsDuration("VIN_CACHE_TTL", 168*time.Hour),
			RedisAddr: getEnv("VIN_CACHE_REDIS_ADDR", ""),
			RedisDB:   getEnvAsInt("VIN_CACHE_REDIS_DB", 0),
			RateRPS:   getEnvAsInt("VIN_DECODE_RPS", 5),
			RateBurst: getEnvAsInt("VIN_DECODE_BURST", 5),
		},
		Intake: IntakeConfig{
			Workers:        getEnvAsInt("INTAKE_WORKERS", 4),
			QueueSize:      getEnvAsInt("INTAKE_QUEUE_SIZE", 256),
			ProcessTimeout: getEnvAsDuration("INTAKE_PROCESS_TIMEOUT", 2*time.Minute),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	v := NewValidator().
		Field("GRPC_ADDR", c.Server.GRPCAddr, Required).
		Field("TESSERACT_BIN", c.OCR.TesseractBin, Required).
		Field("TESSERACT_LANG", c.OCR.Language, Required).
		Field("TESSERACT_PSM", c.OCR.PSM, IntRange(0, 13)).
		Field("INTAKE_WORKERS", c.Intake.Workers, IntRange(1, 256)).
		Field("INTAKE_QUEUE_SIZE", c.Intake.QueueSize, IntRange(1, 1<<20)).
		Field("INTAKE_PROCESS_TIMEOUT", c.Intake.ProcessTimeout, PositiveDuration).
		Field("LOG_FORMAT", strings.ToLower(c.Log.Format), OneOf("json", "text"))
	if c.VINDecode.Enabled {
		v.Field("VIN_DECODE_BASE_URL", c.VINDecode.BaseURL, Required).
			Field("VIN_DECODE_TIMEOUT", c.VINDecode.Timeout, PositiveDuration).
			Field("VIN_CACHE_SIZE", c.VINDecode.CacheSize, IntRange(1, 1<<20)).
			Field("VIN_CACHE_TTL", c.VINDecode.CacheTTL, PositiveDuration).
			Field("VIN_CACHE_REDIS_DB", c.VINDecode.RedisDB, IntRange(0, 15)).
			Field("VIN_DECODE_RPS", c.VINDecode.RateRPS, IntRange(0, 1000)).
			Field("VIN_DECODE_BURST", c.VINDecode.RateBurst, IntRange(0, 1000))
	}
	if v.HasErrors() {
		return NewAppError("CONFIG_ERROR", v.ErrorMessage(), ErrInvalidInput)
	}
	return nil
}

// SlogLevel maps LOG_LEVEL to a slog level; unknown values mean info.
func (c LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(c.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger builds the process logger from LogConfig.
func NewLogger(c LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.SlogLevel()}
	if strings.EqualFold(c.Format, "text") {
		return slog.New(slog.NewTextHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, opts))
}
