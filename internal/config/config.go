package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Ai       AIConfig
	Chat     ChatConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	SyncLogFilePath    string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	AssistantName      string
	SiteURL            string
}

type DatabaseConfig struct {
	Driver     string // "postgres" or "sqlite"
	Connection string
}

type AuthConfig struct {
	JwtSecret string
}

type AIConfig struct {
	LLMProvider       string // "mistral" or "ollama"
	MistralAPIKey     string
	MistralBaseURL    string
	OllamaBaseURL     string
	DefaultModel      string
	TitleModel        string
	StreamIdleTimeout time.Duration
}

type ChatConfig struct {
	GenerationTimeout  time.Duration
	FlushInterval      time.Duration
	FlushBytes         int
	RateLimitPerMinute int
	GenerateTopic      string
	TitleTopic         string
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			SyncLogFilePath:    getEnv("SYNC_LOG_FILE_PATH", "logs/sync.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3001"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
			AssistantName:      getEnv("ASSISTANT_NAME", "Mistral Thing"),
			SiteURL:            getEnv("SITE_URL", "https://mistral-thing.xyz"),
		},
		Database: DatabaseConfig{
			Driver:     strings.ToLower(getEnv("DB_DRIVER", "postgres")),
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Auth: AuthConfig{
			JwtSecret: getEnv("JWT_SECRET", ""),
		},
		Ai: AIConfig{
			LLMProvider:       strings.ToLower(getEnv("LLM_PROVIDER", "mistral")),
			MistralAPIKey:     getEnv("MISTRAL_API_KEY", ""),
			MistralBaseURL:    getEnv("MISTRAL_BASE_URL", "https://api.mistral.ai"),
			OllamaBaseURL:     getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			DefaultModel:      getEnv("LLM_DEFAULT_MODEL", "mistral-small-latest"),
			TitleModel:        getEnv("LLM_TITLE_MODEL", "mistral-small-latest"),
			StreamIdleTimeout: getEnvAsDuration("LLM_STREAM_IDLE_TIMEOUT", 60*time.Second),
		},
		Chat: ChatConfig{
			GenerationTimeout:  getEnvAsDuration("GENERATION_TIMEOUT", 5*time.Minute),
			FlushInterval:      getEnvAsDuration("STREAM_FLUSH_INTERVAL", 0),
			FlushBytes:         getEnvAsInt("STREAM_FLUSH_BYTES", 0),
			RateLimitPerMinute: getEnvAsInt("CHAT_RATE_LIMIT_PER_MINUTE", 20),
			GenerateTopic:      getEnv("CHAT_GENERATE_TOPIC", "chat.generate"),
			TitleTopic:         getEnv("CHAT_TITLE_TOPIC", "chat.title"),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

// getEnvAsDuration accepts Go duration strings ("90s") or plain seconds ("90").
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if strValue == "" {
		return fallback
	}
	if d, err := time.ParseDuration(strValue); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(strValue); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
