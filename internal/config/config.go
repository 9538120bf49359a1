package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Config holds every environment-driven setting in one place. The individual
// scripts used to call os.Getenv at each site; loading once keeps the set of
// required variables auditable.
type Config struct {
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	SSLMode    string

	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       string

	BKNTokenURL     string
	BKNClientID     string
	BKNClientSecret string
	BKNAPIBase      string

	// FileRoot is prepended to relative paths stored in trx_berkas_pegawai.
	FileRoot string
}

func Load() (*Config, error) {
	// .env is optional in deployed environments, required only for local runs.
	_ = godotenv.Load()

	cfg := &Config{
		DBHost:     getenv("DB_HOST", "localhost"),
		DBPort:     getenv("DB_PORT", "5432"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),
		SSLMode:    getenv("SSL_MODE", "disable"),

		RedisHost:     getenv("REDIS_HOST", "localhost"),
		RedisPort:     getenv("REDIS_PORT", "6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getenv("REDIS_DB", "0"),

		BKNTokenURL:     os.Getenv("BKN_TOKEN_URL"),
		BKNClientID:     os.Getenv("BKN_CLIENT_ID"),
		BKNClientSecret: os.Getenv("BKN_CLIENT_SECRET"),
		BKNAPIBase:      os.Getenv("BKN_API_BASE"),

		FileRoot: getenv("SIMPEG_FILE_ROOT", "."),
	}

	if cfg.DBUser == "" || cfg.DBName == "" {
		return nil, fmt.Errorf("config: DB_USER and DB_NAME must be set")
	}

	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
