package config

import (
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/sholdev/music_school/internal/models"
)

type Config struct {
	DB_HOST              string
	DB_PORT              string
	DB_USER              string
	DB_PASSWORD          string
	DB_NAME              string
	ES_URL               string
	ES_USER              string
	ES_PASSWORD          string
	ACCESS_TOKEN_SECRET  string
	REFRESH_TOKEN_SECRET string
	KAFKA_ADDRESS        string
	SMTP_HOST            string
	SMTP_PORT            string
	SMTP_USER            string
	SMTP_PASSWORD        string
	MAIL_FROM            string
	APP_BASE_URL         string
	UPLOAD_DIR           string
	LOG_LEVEL            string
}

// LoadConfig reads .env (when present) and the process environment.
// Missing token secrets are a startup error: every signed credential in
// the system depends on them.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Notice: .env file not found: %v. Using system environment variables", err)
	}

	config := &Config{
		DB_HOST:              os.Getenv("DB_HOST"),
		DB_PORT:              os.Getenv("DB_PORT"),
		DB_USER:              os.Getenv("DB_USER"),
		DB_PASSWORD:          os.Getenv("DB_PASSWORD"),
		DB_NAME:              os.Getenv("DB_NAME"),
		ES_URL:               os.Getenv("ES_URL"),
		ES_USER:              os.Getenv("ES_USER"),
		ES_PASSWORD:          os.Getenv("ES_PASSWORD"),
		ACCESS_TOKEN_SECRET:  os.Getenv("ACCESS_TOKEN_SECRET"),
		REFRESH_TOKEN_SECRET: os.Getenv("REFRESH_TOKEN_SECRET"),
		KAFKA_ADDRESS:        os.Getenv("KAFKA_ADDRESS"),
		SMTP_HOST:            os.Getenv("SMTP_HOST"),
		SMTP_PORT:            os.Getenv("SMTP_PORT"),
		SMTP_USER:            os.Getenv("SMTP_USER"),
		SMTP_PASSWORD:        os.Getenv("SMTP_PASSWORD"),
		MAIL_FROM:            os.Getenv("MAIL_FROM"),
		APP_BASE_URL:         os.Getenv("APP_BASE_URL"),
		UPLOAD_DIR:           os.Getenv("UPLOAD_DIR"),
		LOG_LEVEL:            os.Getenv("LOG_LEVEL"),
	}

	if config.ACCESS_TOKEN_SECRET == "" || config.REFRESH_TOKEN_SECRET == "" {
		return nil, errors.New("ACCESS_TOKEN_SECRET or REFRESH_TOKEN_SECRET is not defined")
	}
	if config.UPLOAD_DIR == "" {
		config.UPLOAD_DIR = "uploads"
	}

	return config, nil
}

func InitDB(configuration *Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		configuration.DB_USER, configuration.DB_PASSWORD,
		configuration.DB_HOST, configuration.DB_PORT, configuration.DB_NAME,
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Department{}, &models.Instrument{}, &models.Note{}); err != nil {
		return nil, fmt.Errorf("migration failed: %w", err)
	}
	return db, nil
}
