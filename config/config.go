// Package config reads the frame's settings from DPF_ environment variables
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/aouyang1/framesaver/geo"
)

// Config is read once at startup and treated as immutable
type Config struct {
	// RootPath holds the database and the local originals folder
	RootPath string

	// AWS, the s3 source is disabled when Bucket is empty
	AWSProfile    string
	S3Bucket      string
	PresignExpiry time.Duration

	// Server
	ListenAddr string

	// Geo
	GeoURL      string
	GeoLanguage string

	// Display
	OutputName   string
	ScreenWidth  int
	ScreenHeight int

	// Logging
	LogLevel  string
	LogFormat string
}

func Load() *Config {
	cfg := &Config{}

	cfg.RootPath = getEnvString("DPF_ROOT_PATH", ".")
	cfg.AWSProfile = getEnvString("DPF_AWS_PROFILE", "")
	cfg.S3Bucket = getEnvString("DPF_S3_BUCKET", "")
	cfg.PresignExpiry = getEnvDuration("DPF_PRESIGN_EXPIRY", time.Hour)
	cfg.ListenAddr = getEnvString("DPF_LISTEN_ADDR", "0.0.0.0:80")
	cfg.GeoURL = getEnvString("DPF_GEO_URL", geo.DefaultEndpoint)
	cfg.GeoLanguage = getEnvString("DPF_LANGUAGE", "en")
	cfg.OutputName = getEnvString("DPF_OUTPUT", "HDMI-A-1")
	cfg.ScreenWidth = getEnvInt("DPF_SCREEN_WIDTH", 1920)
	cfg.ScreenHeight = getEnvInt("DPF_SCREEN_HEIGHT", 1080)
	cfg.LogLevel = getEnvString("DPF_LOG_LEVEL", "info")
	cfg.LogFormat = getEnvString("DPF_LOG_FORMAT", "text")

	return cfg
}

// S3Enabled reports whether both a profile and a bucket are configured
func (c *Config) S3Enabled() bool {
	return c.AWSProfile != "" && c.S3Bucket != ""
}

func (c *Config) DatabasePath() string {
	return filepath.Join(c.RootPath, "framesaver.db")
}

func (c *Config) LocalPath() string {
	return filepath.Join(c.RootPath, "original")
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
