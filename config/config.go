package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultThumbnailsSubDir = "thumbnails"
	DefaultExportsSubDir    = "exports"
	DefaultDownloadsSubDir  = "downloads"
)

const (
	defaultExportQueueSize        = 64
	defaultThumbnailMaxSize       = 300
	defaultDownloadTimeoutSeconds = 30
	defaultAPIBaseURL             = "https://public-api.wordpress.com/rest/v1.1"
	defaultCORSAllowedOrigin      = "http://localhost:5173"
	defaultPort                   = "8080"
)

type Config struct {
	// source directory (where photo library assets live)
	LibraryRoot string

	// database path
	DatabasePath string

	// optional YAML catalog of the blogs accounts can post to
	SitesFile string

	// media storage configuration
	MediaStoragePath string // primary root for generated assets (thumbs, exports, downloads)
	ThumbnailsPath   string // full-calculated path for thumbnails
	ExportsPath      string // full-calculated path for exported files
	DownloadsPath    string // full-calculated path for downloaded featured images

	// longest side of the thumbnail returned with every export
	ThumbnailMaxSize int

	// export queue settings
	ExportQueueSize int

	// remote API
	APIBaseURL      string
	APIToken        string
	DownloadTimeout time.Duration

	// http
	CORSAllowedOrigins []string
	Port               string
}

func getEnvOrDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvIntOrDefault(envVar string, defaultVal int) int {
	valStr := os.Getenv(envVar)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(valStr)
	if err != nil || val <= 0 {
		log.Printf("Warning: Invalid %s '%s'. Using default %d. Error: %v", envVar, valStr, defaultVal, err)
		return defaultVal
	}
	return val
}

func getEnvListOrDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

func LoadConfig() (Config, error) {
	root := getEnvOrDefault("LIBRARY_ROOT", ".")
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return Config{}, fmt.Errorf("failed to get absolute path for library root '%s': %w", root, err)
	}

	dbPath := getEnvOrDefault("DATABASE_PATH", "pressdesk.db")

	mediaStorage := getEnvOrDefault("MEDIA_STORAGE_PATH", filepath.Join(".", "media_storage"))
	absMediaStorage, err := filepath.Abs(mediaStorage)
	if err != nil {
		return Config{}, fmt.Errorf("failed to get absolute path for media storage '%s': %w", mediaStorage, err)
	}

	thumbSubDir := getEnvOrDefault("THUMBNAILS_SUBDIR", DefaultThumbnailsSubDir)
	exportSubDir := getEnvOrDefault("EXPORTS_SUBDIR", DefaultExportsSubDir)
	downloadSubDir := getEnvOrDefault("DOWNLOADS_SUBDIR", DefaultDownloadsSubDir)

	cfg := Config{
		LibraryRoot:        absRoot,
		DatabasePath:       dbPath,
		SitesFile:          os.Getenv("SITES_FILE"),
		MediaStoragePath:   absMediaStorage,
		ThumbnailsPath:     filepath.Join(absMediaStorage, thumbSubDir),
		ExportsPath:        filepath.Join(absMediaStorage, exportSubDir),
		DownloadsPath:      filepath.Join(absMediaStorage, downloadSubDir),
		ThumbnailMaxSize:   getEnvIntOrDefault("THUMBNAIL_MAX_SIZE", defaultThumbnailMaxSize),
		ExportQueueSize:    getEnvIntOrDefault("EXPORT_QUEUE_SIZE", defaultExportQueueSize),
		APIBaseURL:         strings.TrimRight(getEnvOrDefault("API_BASE_URL", defaultAPIBaseURL), "/"),
		APIToken:           os.Getenv("API_TOKEN"),
		DownloadTimeout:    time.Duration(getEnvIntOrDefault("DOWNLOAD_TIMEOUT_SECONDS", defaultDownloadTimeoutSeconds)) * time.Second,
		CORSAllowedOrigins: getEnvListOrDefault("CORS_ALLOWED_ORIGINS", []string{defaultCORSAllowedOrigin}),
		Port:               getEnvOrDefault("PORT", defaultPort),
	}

	return cfg, nil
}
