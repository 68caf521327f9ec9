package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.ListenAddr != ":3000" {
		t.Errorf("ListenAddr = %q", cfg.ListenAddr)
	}
	if cfg.UploadPath != "uploads" {
		t.Errorf("UploadPath = %q", cfg.UploadPath)
	}
	if cfg.MaxFileSize != 5242880 {
		t.Errorf("MaxFileSize = %d", cfg.MaxFileSize)
	}
	if cfg.MinComparePhotos != 2 || cfg.MaxComparePhotos != 4 {
		t.Errorf("compare bounds = %d..%d", cfg.MinComparePhotos, cfg.MaxComparePhotos)
	}
	if cfg.CountCacheTTL != 5*time.Second {
		t.Errorf("CountCacheTTL = %v", cfg.CountCacheTTL)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("LISTEN_ADDR", ":9999")
	t.Setenv("UPLOAD_PATH", "/var/photos")
	t.Setenv("MAX_FILE_SIZE", "1024")
	t.Setenv("COUNT_CACHE_TTL", "30s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.ListenAddr != ":9999" || cfg.UploadPath != "/var/photos" {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if cfg.MaxFileSize != 1024 {
		t.Errorf("MaxFileSize = %d, want 1024", cfg.MaxFileSize)
	}
	if cfg.CountCacheTTL != 30*time.Second {
		t.Errorf("CountCacheTTL = %v, want 30s", cfg.CountCacheTTL)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"Bad file size", "MAX_FILE_SIZE", "lots"},
		{"Zero file size", "MAX_FILE_SIZE", "0"},
		{"Bad min photos", "MIN_COMPARE_PHOTOS", "x"},
		{"Min above max", "MIN_COMPARE_PHOTOS", "10"},
		{"Zero min photos", "MIN_COMPARE_PHOTOS", "0"},
		{"Bad TTL", "COUNT_CACHE_TTL", "soon"},
		{"Zero TTL", "COUNT_CACHE_TTL", "0s"},
		{"Empty upload path", "UPLOAD_PATH", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := Load(); err == nil {
				t.Errorf("Load succeeded with %s=%q", tt.key, tt.value)
			}
		})
	}
}
