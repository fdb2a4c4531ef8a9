package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Store     StoreConfig
	Qdrant    QdrantConfig
	Gemini    GeminiConfig
	Storage   StorageConfig
	Speech    SpeechConfig
	Auth      AuthConfig
	Analytics AnalyticsConfig
	Log       LogConfig
}

type ServerConfig struct {
	Port string
	Env  string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

const (
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
)

type StoreConfig struct {
	Backend    string
	SQLitePath string
}

type QdrantConfig struct {
	URL        string
	APIKey     string
	Collection string
	VectorSize uint64
}

type GeminiConfig struct {
	APIKey           string
	Model            string
	EmbedModel       string
	StructuredOutput bool
	MaxRetries       int
}

type StorageConfig struct {
	UploadPath  string
	MaxFileSize int64
}

type SpeechConfig struct {
	URL     string
	Timeout time.Duration
}

type AuthConfig struct {
	GatewayToken string
}

type AnalyticsConfig struct {
	MissingScores string
	Limit         int
}

type LogConfig struct {
	JSON  bool
	Debug bool
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found. Using default values.")
	}

	return &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "3000"),
			Env:  getEnv("ENV", "development"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "interview_coach"),
		},
		Store: StoreConfig{
			Backend:    strings.ToLower(getEnv("STORE_BACKEND", BackendPostgres)),
			SQLitePath: getEnv("SQLITE_PATH", "./data/interview_coach.db"),
		},
		Qdrant: QdrantConfig{
			URL:        getEnv("QDRANT_URL", ""),
			APIKey:     getEnv("QDRANT_API_KEY", ""),
			Collection: getEnv("QDRANT_COLLECTION", "interview_ideal_answers"),
			VectorSize: uint64(getEnvAsInt("QDRANT_VECTOR_SIZE", 768)),
		},
		Gemini: GeminiConfig{
			APIKey:           getEnv("GEMINI_API_KEY", ""),
			Model:            getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
			EmbedModel:       getEnv("GEMINI_EMBED_MODEL", "text-embedding-004"),
			StructuredOutput: getEnvAsBool("GEMINI_STRUCTURED_OUTPUT", false),
			MaxRetries:       getEnvAsInt("RETRY_MAX_ATTEMPTS", 3),
		},
		Storage: StorageConfig{
			UploadPath:  getEnv("UPLOAD_PATH", "./uploads"),
			MaxFileSize: getEnvAsInt64("MAX_FILE_SIZE", 10485760),
		},
		Speech: SpeechConfig{
			URL:     getEnv("EMOTION_RECOGNITION_API_URL", ""),
			Timeout: getEnvAsDuration("SPEECH_TIMEOUT", "0s"),
		},
		Auth: AuthConfig{
			GatewayToken: getEnv("AUTH_GATEWAY_TOKEN", ""),
		},
		Analytics: AnalyticsConfig{
			MissingScores: strings.ToLower(getEnv("ANALYTICS_MISSING_SCORES", "exclude")),
			Limit:         getEnvAsInt("ANALYTICS_LIMIT", 50),
		},
		Log: LogConfig{
			JSON:  getEnvAsBool("LOG_JSON", false),
			Debug: getEnvAsBool("LOG_DEBUG", false),
		},
	}
}

// Validate reports configuration that would fail at first use.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case BackendPostgres, BackendSQLite:
	default:
		return fmt.Errorf("unsupported STORE_BACKEND %q", c.Store.Backend)
	}

	switch c.Analytics.MissingScores {
	case "exclude", "zero":
	default:
		return fmt.Errorf("unsupported ANALYTICS_MISSING_SCORES %q", c.Analytics.MissingScores)
	}

	if strings.TrimSpace(c.Gemini.APIKey) == "" {
		return fmt.Errorf("GEMINI_API_KEY is required")
	}

	return nil
}

func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseInt(valueStr, 10, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}
