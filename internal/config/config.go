package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	ListenAddr       string
	MonitoringAddr   string
	UploadPath       string
	MaxFileSize      int64
	MinComparePhotos int
	MaxComparePhotos int
	CountCacheTTL    time.Duration
	LogLevel         string
	LogFormat        string
}

func Load() (*Config, error) {
	maxFileSize, err := strconv.ParseInt(getEnv("MAX_FILE_SIZE", "5242880"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid MAX_FILE_SIZE: %w", err)
	}

	minPhotos, err := strconv.Atoi(getEnv("MIN_COMPARE_PHOTOS", "2"))
	if err != nil {
		return nil, fmt.Errorf("invalid MIN_COMPARE_PHOTOS: %w", err)
	}

	maxPhotos, err := strconv.Atoi(getEnv("MAX_COMPARE_PHOTOS", "4"))
	if err != nil {
		return nil, fmt.Errorf("invalid MAX_COMPARE_PHOTOS: %w", err)
	}

	countCacheTTL, err := time.ParseDuration(getEnv("COUNT_CACHE_TTL", "5s"))
	if err != nil {
		return nil, fmt.Errorf("invalid COUNT_CACHE_TTL: %w", err)
	}

	cfg := &Config{
		ListenAddr:       getEnv("LISTEN_ADDR", ":3000"),
		MonitoringAddr:   getEnv("MONITORING_ADDR", "localhost:3010"),
		UploadPath:       getEnv("UPLOAD_PATH", "uploads"),
		MaxFileSize:      maxFileSize,
		MinComparePhotos: minPhotos,
		MaxComparePhotos: maxPhotos,
		CountCacheTTL:    countCacheTTL,
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		LogFormat:        getEnv("LOG_FORMAT", "console"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.UploadPath == "" {
		return fmt.Errorf("UPLOAD_PATH is required")
	}

	if c.MaxFileSize <= 0 {
		return fmt.Errorf("MAX_FILE_SIZE must be greater than 0")
	}

	if c.MinComparePhotos < 1 || c.MaxComparePhotos < c.MinComparePhotos {
		return fmt.Errorf("MIN_COMPARE_PHOTOS must be at least 1 and not exceed MAX_COMPARE_PHOTOS")
	}

	if c.CountCacheTTL <= 0 {
		return fmt.Errorf("COUNT_CACHE_TTL must be greater than 0")
	}

	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
