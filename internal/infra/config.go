package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Reference modes for generated videos returned by the API.
const (
	ReferenceModeDataURI = "data_uri"
	ReferenceModeBlob    = "blob"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv             string
	Port               string
	GeminiAPIKey       string
	GeminiBaseURL      string
	VideoModel         string
	PollInterval       time.Duration
	GenerationTimeout  time.Duration
	ReferenceMode      string
	BlobStoragePath    string
	BlobTTL            time.Duration
	MaxUploadBytes     int64
	CORSAllowedOrigins []string
	HTTPReadTimeout    time.Duration
	HTTPWriteTimeout   time.Duration
	HTTPIdleTimeout    time.Duration
	RateLimitPerMin    int
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:             getEnv("APP_ENV", "development"),
		Port:               getEnv("PORT", "8080"),
		GeminiAPIKey:       strings.TrimSpace(getEnv("GEMINI_API_KEY", os.Getenv("API_KEY"))),
		GeminiBaseURL:      os.Getenv("GEMINI_BASE_URL"),
		VideoModel:         getEnv("GEMINI_VIDEO_MODEL", "veo-2.0-generate-001"),
		PollInterval:       time.Second * time.Duration(getEnvInt("POLL_INTERVAL_SECONDS", 10)),
		GenerationTimeout:  time.Second * time.Duration(getEnvInt("GENERATION_TIMEOUT_SECONDS", 900)),
		ReferenceMode:      strings.ToLower(getEnv("VIDEO_REFERENCE_MODE", ReferenceModeDataURI)),
		BlobStoragePath:    os.Getenv("BLOB_STORAGE_PATH"),
		BlobTTL:            time.Minute * time.Duration(getEnvInt("BLOB_TTL_MINUTES", 30)),
		MaxUploadBytes:     int64(getEnvInt("MAX_UPLOAD_MB", 20)) << 20,
		CORSAllowedOrigins: splitList(os.Getenv("CORS_ALLOWED_ORIGINS")),
		HTTPReadTimeout:    time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 60)),
		HTTPIdleTimeout:    time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:    getEnvInt("RATE_LIMIT_PER_MINUTE", 10),
	}

	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required")
	}

	if cfg.PollInterval <= 0 {
		return nil, fmt.Errorf("POLL_INTERVAL_SECONDS must be positive")
	}

	if cfg.GenerationTimeout < 0 {
		cfg.GenerationTimeout = 0
	}

	switch cfg.ReferenceMode {
	case ReferenceModeDataURI, ReferenceModeBlob:
	default:
		return nil, fmt.Errorf("VIDEO_REFERENCE_MODE must be %q or %q", ReferenceModeDataURI, ReferenceModeBlob)
	}

	// The generate endpoint holds the response open for the whole poll loop,
	// so the write deadline has to outlast the generation deadline.
	writeTimeout := getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 0)
	switch {
	case writeTimeout > 0:
		cfg.HTTPWriteTimeout = time.Second * time.Duration(writeTimeout)
	case cfg.GenerationTimeout > 0:
		cfg.HTTPWriteTimeout = cfg.GenerationTimeout + time.Minute
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
