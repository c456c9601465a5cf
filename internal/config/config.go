package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds broadcast-service configuration.
type Config struct {
	AppEnv   string // APP_ENV
	AppHost  string // APP_HOST
	HTTPPort string // APP_PORT or HTTP_PORT
	LogLevel string // LOG_LEVEL

	// PostgreSQL
	DB struct {
		Host     string
		Port     string
		User     string
		Password string
		Database string
		SSLMode  string
	}

	// Playout backend
	PlayoutBaseURL string // PLAYOUT_BASE_URL

	// Partner platforms: base API URL per platform name, plus the media-node
	// identity used when pushing relay destination lists.
	PartnerBaseURLs map[string]string // PARTNER_BASE_URLS: "omniflix=https://...,foo=https://..."
	MediaNodeID     string            // MEDIA_NODE_ID

	// Ingest endpoints handed to new channels.
	RTMPBaseURL string // RTMP_BASE_URL, e.g. rtmp://ingest.example.com:1935

	// Slot defaults
	SlotLength       int    // SLOT_LENGTH_SECONDS
	DefaultOverlay   string // DEFAULT_OVERLAY_PATH, optional
	OverlayInterval  int    // DEFAULT_OVERLAY_INTERVAL seconds
	OverlayCount     int    // DEFAULT_OVERLAY_COUNT additional repeats, 0 = unbounded
	FillerCategories []string

	// WebSocket
	WSReadBufferSize  int
	WSWriteBufferSize int
}

// Load loads config from environment (.env if present).
func Load() (*Config, error) {
	_ = godotenv.Load()

	readBuf, _ := strconv.Atoi(getEnv("WS_READ_BUFFER_SIZE", "4096"))
	writeBuf, _ := strconv.Atoi(getEnv("WS_WRITE_BUFFER_SIZE", "4096"))
	slotLen, _ := strconv.Atoi(getEnv("SLOT_LENGTH_SECONDS", "3600"))
	ovInterval, _ := strconv.Atoi(getEnv("DEFAULT_OVERLAY_INTERVAL", "600"))
	ovCount, _ := strconv.Atoi(getEnv("DEFAULT_OVERLAY_COUNT", "0"))

	cfg := &Config{
		AppEnv:            getEnv("APP_ENV", "development"),
		AppHost:           getEnv("APP_HOST", "0.0.0.0"),
		HTTPPort:          firstEnv("APP_PORT", "HTTP_PORT", "8091"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		PlayoutBaseURL:    getEnv("PLAYOUT_BASE_URL", "http://localhost:8092"),
		PartnerBaseURLs:   parsePairs(getEnv("PARTNER_BASE_URLS", "")),
		MediaNodeID:       getEnv("MEDIA_NODE_ID", ""),
		RTMPBaseURL:       getEnv("RTMP_BASE_URL", "rtmp://localhost:1935"),
		SlotLength:        slotLen,
		DefaultOverlay:    getEnv("DEFAULT_OVERLAY_PATH", ""),
		OverlayInterval:   ovInterval,
		OverlayCount:      ovCount,
		FillerCategories:  splitList(getEnv("FILLER_CATEGORIES", "")),
		WSReadBufferSize:  readBuf,
		WSWriteBufferSize: writeBuf,
	}
	cfg.DB.Host = getEnv("DB_HOST", "localhost")
	cfg.DB.Port = getEnv("DB_PORT", "5432")
	cfg.DB.User = getEnv("DB_USER", "postgres")
	cfg.DB.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.DB.Database = getEnv("DB_DATABASE", "broadcast_service")
	cfg.DB.SSLMode = getEnv("DB_SSLMODE", "disable")
	return cfg, nil
}

// Validate checks required fields and production safety.
func (c *Config) Validate() error {
	if c.DB.Host == "" {
		return errors.New("config: DB_HOST is required")
	}
	if c.DB.User == "" {
		return errors.New("config: DB_USER is required")
	}
	if c.DB.Database == "" {
		return errors.New("config: DB_DATABASE is required")
	}
	if c.AppEnv == "production" && c.DB.Password == "" {
		return errors.New("config: in production DB_PASSWORD is required")
	}
	if c.PlayoutBaseURL == "" {
		return errors.New("config: PLAYOUT_BASE_URL is required")
	}
	if c.SlotLength <= 0 {
		return errors.New("config: SLOT_LENGTH_SECONDS must be positive")
	}
	return nil
}

// DSN returns PostgreSQL connection string for GORM.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host, c.DB.Port, c.DB.User, c.DB.Password, c.DB.Database, c.DB.SSLMode)
}

// DatabaseURL returns postgres URL for golang-migrate.
func (c *Config) DatabaseURL() string {
	pass := url.QueryEscape(c.DB.Password)
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DB.User, pass, c.DB.Host, c.DB.Port, c.DB.Database, c.DB.SSLMode)
}

// Addr returns listen address for HTTP server.
func (c *Config) Addr() string {
	return c.AppHost + ":" + c.HTTPPort
}

// parsePairs parses "name=url,name2=url2" into a map. Entries without '='
// are skipped.
func parsePairs(s string) map[string]string {
	out := make(map[string]string)
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		k, v, ok := strings.Cut(part, "=")
		if !ok || k == "" || v == "" {
			continue
		}
		out[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	return out
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func firstEnv(keysAndDef ...string) string {
	if len(keysAndDef) == 0 {
		return ""
	}
	def := keysAndDef[len(keysAndDef)-1]
	keys := keysAndDef[:len(keysAndDef)-1]
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return def
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
