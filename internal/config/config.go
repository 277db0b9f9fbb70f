package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config структура конфигурации
type Config struct {
	JWTSecret        string
	Port             string
	DatabaseURL      string
	DatabaseConfig   DatabaseConfig
	CloudinaryConfig CloudinaryConfig
	RedisConfig      RedisConfig
	AppEnv           string
}

// DatabaseConfig содержит конфигурацию базы данных
type DatabaseConfig struct {
	Driver    string // postgres или sqlite
	Host      string
	Port      string
	User      string
	Password  string
	Name      string
	SSLMode   string
	SQLiteDSN string
}

// CloudinaryConfig содержит конфигурацию для Cloudinary
type CloudinaryConfig struct {
	CloudName    string
	APIKey       string
	APISecret    string
	UploadFolder string
}

// Enabled сообщает, заданы ли ключи Cloudinary
func (c CloudinaryConfig) Enabled() bool {
	return c.CloudName != "" && c.APIKey != "" && c.APISecret != ""
}

// RedisConfig содержит конфигурацию Redis для кэша объявлений и событий
type RedisConfig struct {
	Addr       string
	Password   string
	DB         int
	AdCacheTTL time.Duration
}

// Enabled сообщает, задан ли адрес Redis
func (c RedisConfig) Enabled() bool {
	return c.Addr != ""
}

// LoadConfig загружает переменные из .env
func LoadConfig() *Config {
	err := godotenv.Load()
	if err != nil {
		log.Println("⚠️ .env файл не найден, используем переменные окружения")
	}

	cfg, err := FromEnv()
	if err != nil {
		log.Fatalf("❌ Ошибка конфигурации: %v", err)
	}
	return cfg
}

// FromEnv собирает конфигурацию из переменных окружения без чтения .env
func FromEnv() (*Config, error) {
	dbConfig := DatabaseConfig{
		Driver:    getEnv("DB_DRIVER", "postgres"),
		Host:      getEnv("PGHOST", "localhost"),
		Port:      getEnv("PGPORT", "5432"),
		User:      getEnv("PGUSER", "flippy_user"),
		Password:  getEnv("PGPASSWORD", "flippy_pass"),
		Name:      getEnv("PGDATABASE", "flippy"),
		SSLMode:   getEnv("PGSSLMODE", "disable"),
		SQLiteDSN: getEnv("SQLITE_DSN", "file:flippy.db"),
	}

	// Формируем строку подключения к базе данных
	dbURL := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		dbConfig.User, dbConfig.Password, dbConfig.Host, dbConfig.Port, dbConfig.Name, dbConfig.SSLMode)

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("некорректное значение REDIS_DB: %w", err)
	}
	cacheTTL, err := time.ParseDuration(getEnv("AD_CACHE_TTL", "5m"))
	if err != nil {
		return nil, fmt.Errorf("некорректное значение AD_CACHE_TTL: %w", err)
	}

	cfg := &Config{
		JWTSecret:      getEnv("JWT_SECRET", ""),
		Port:           getEnv("PORT", "8080"),
		DatabaseURL:    dbURL,
		DatabaseConfig: dbConfig,
		CloudinaryConfig: CloudinaryConfig{
			CloudName:    getEnv("CLOUDINARY_CLOUD_NAME", ""),
			APIKey:       getEnv("CLOUDINARY_API_KEY", ""),
			APISecret:    getEnv("CLOUDINARY_API_SECRET", ""),
			UploadFolder: getEnv("CLOUDINARY_UPLOAD_FOLDER", "flippy/ads"),
		},
		RedisConfig: RedisConfig{
			Addr:       getEnv("REDIS_ADDR", ""),
			Password:   getEnv("REDIS_PASSWORD", ""),
			DB:         redisDB,
			AdCacheTTL: cacheTTL,
		},
		AppEnv: getEnv("APP_ENV", "production"),
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("не задана обязательная переменная JWT_SECRET")
	}
	switch cfg.DatabaseConfig.Driver {
	case "postgres", "sqlite":
	default:
		return nil, fmt.Errorf("неизвестный DB_DRIVER %q", cfg.DatabaseConfig.Driver)
	}

	return cfg, nil
}

// getEnv получает переменную окружения или использует дефолтное значение
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
