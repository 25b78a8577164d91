package config

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type Config struct {
	PostgresHost         string
	PostgresPort         string
	PostgresUser         string
	PostgresPassword     string
	PostgresDB           string
	OpenAIKey            string
	OpenAIBaseURL        string
	OpenAIModel          string
	ElevenLabsKey        string
	GoogleSearchKey      string
	GoogleSearchEngineID string
	GoogleMapsKey        string
	MediaDir             string
	MediaBaseURL         string
	ServerHost           string
	ServerPort           string
	JWTSigningKey        string
}

func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		logrus.Warn("Не найден файл .env")
	}

	return &Config{
		PostgresHost:         getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:         getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:         getEnv("POSTGRES_USER", "postgres"),
		PostgresPassword:     getEnv("POSTGRES_PASSWORD", "postgres"),
		PostgresDB:           getEnv("POSTGRES_DB", "agenthub"),
		OpenAIKey:            getEnv("OPENAI_KEY", ""),
		OpenAIBaseURL:        getEnv("OPENAI_BASE_URL", ""),
		OpenAIModel:          getEnv("OPENAI_MODEL", ""),
		ElevenLabsKey:        getEnv("ELEVENLABS_API_KEY", ""),
		GoogleSearchKey:      getEnv("GOOGLE_SEARCH_API_KEY", ""),
		GoogleSearchEngineID: getEnv("GOOGLE_SEARCH_ENGINE_ID", ""),
		GoogleMapsKey:        getEnv("GOOGLE_MAPS_API_KEY", ""),
		MediaDir:             getEnv("MEDIA_DIR", "./media"),
		MediaBaseURL:         getEnv("MEDIA_BASE_URL", "/media"),
		ServerHost:           getEnv("SERVER_HOST", "0.0.0.0"),
		ServerPort:           getEnv("SERVER_PORT", "8080"),
		JWTSigningKey:        getEnv("JWT_SIGNING_KEY", "your-secret-signing-key"),
	}
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
