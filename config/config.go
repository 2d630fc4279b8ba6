package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the recognized environment surface. Load it once per process
// (after godotenv in main) and pass it into the components that need it.
type Config struct {
	ServerAddr string

	// model runtime
	ModelRuntimeURL       string
	EmbedModelID          string
	EmbedDimensions       int
	EmbedNormalize        bool
	GenModelID            string
	GenInferenceProfileID string
	GenMaxTokens          int

	// vector index
	IndexTable string

	// pipeline knobs
	RetrieveK   int
	ChunkMaxLen int

	// query boundary
	CORSAllowOrigin   string
	DebugPublicErrors bool
	LogLevel          slog.Level

	// loader directories
	SourceDir      string
	ArchiveDir     string
	BadDir         string
	MonitoringTime time.Duration
}

func Load() Config {
	return Config{
		ServerAddr: getenv("SERVER_ADDR", ":3000"),

		ModelRuntimeURL:       getenv("MODEL_RUNTIME_URL", "http://localhost:8000"),
		EmbedModelID:          getenv("EMBED_MODEL_ID", "amazon.titan-embed-text-v2:0"),
		EmbedDimensions:       getenvInt("EMBED_DIMENSIONS", 1024),
		EmbedNormalize:        getenvBool("EMBED_NORMALIZE"),
		GenModelID:            getenv("GEN_MODEL_ID", "anthropic.claude-3-5-sonnet-20241022-v2:0"),
		GenInferenceProfileID: os.Getenv("GEN_INFERENCE_PROFILE_ID"),
		GenMaxTokens:          getenvInt("GEN_MAX_TOKENS", 500),

		IndexTable: getenv("INDEX_TABLE", "kb_chunks"),

		RetrieveK:   getenvInt("RETRIEVE_K", 5),
		ChunkMaxLen: getenvInt("CHUNK_MAX_LEN", 1200),

		CORSAllowOrigin:   getenv("CORS_ALLOW_ORIGIN", "*"),
		DebugPublicErrors: getenvBool("DEBUG_PUBLIC_ERRORS"),
		LogLevel:          parseLevel(os.Getenv("LOG_LEVEL")),

		SourceDir:      getenv("LOADER_SOURCE_DIR", "source"),
		ArchiveDir:     getenv("LOADER_ARCHIVE_DIR", "archive"),
		BadDir:         getenv("LOADER_BAD_DIR", "bad"),
		MonitoringTime: time.Duration(getenvInt("LOADER_MONITORING_SECS", 3)) * time.Second,
	}
}

// PostgresDSN assembles the index connection string from the PG_* variables.
func (c Config) PostgresDSN() string {
	port, _ := strconv.Atoi(getenv("PG_PORT", "5432"))
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		os.Getenv("PG_HOST"), port, os.Getenv("PG_USER"), os.Getenv("PG_PASS"), os.Getenv("PG_DB_NAME"))
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getenvBool(key string) bool {
	switch strings.ToLower(os.Getenv(key)) {
	case "1", "true", "yes":
		return true
	}
	return false
}

func parseLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
