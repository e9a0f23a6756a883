package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	DBDSN          string
	Environment    string
	HTTPAddr       string
	MigrationsPath string
	RabbitURL      string // пусто - публикация в очередь выключена
	RedisAddr      string // пусто - кеш настроек выключен
	TelegramToken  string // пусто - telegram-релей уведомлений выключен
	JWTSecret      string
	UploadDir      string
	BaseURL        string
	// Единый дефолт комиссии платформы, применяется когда настройка не задана
	ServiceFeeDefault float64
}

func Load() (*Config, error) {
	// Пытаемся загрузить .env файл (игнорируем ошибку, если файла нет)
	if err := godotenv.Load(".env"); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		DBDSN:             os.Getenv("DB_DSN"),
		Environment:       getenv("ENV", "development"),
		HTTPAddr:          getenv("HTTP_ADDR", ":8080"),
		MigrationsPath:    getenv("MIGRATIONS_PATH", "migrations"),
		RabbitURL:         os.Getenv("RABBITMQ_URL"),
		RedisAddr:         os.Getenv("REDIS_ADDR"),
		TelegramToken:     os.Getenv("TELEGRAM_TOKEN"),
		JWTSecret:         getenv("JWT_SECRET", "dev-secret"),
		UploadDir:         getenv("UPLOAD_DIR", "uploads"),
		BaseURL:           getenv("BASE_URL", "http://localhost:8080"),
		ServiceFeeDefault: getfloat("SERVICE_FEE_DEFAULT", 0.15),
	}

	// Проверяем обязательные поля
	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("DB_DSN is required but not set")
	}

	if cfg.ServiceFeeDefault < 0 || cfg.ServiceFeeDefault >= 1 {
		return nil, fmt.Errorf("SERVICE_FEE_DEFAULT must be in [0, 1), got %v", cfg.ServiceFeeDefault)
	}

	return cfg, nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getfloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Printf("Invalid %s=%q, falling back to %v", key, v, def)
		return def
	}
	return f
}
