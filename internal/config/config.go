package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Mail     MailConfig
	Storage  StorageConfig
	Report   ReportConfig
	Redis    RedisConfig
	Admin    AdminConfig
}

type ServerConfig struct {
	Port string
	Env  string
}

type DatabaseConfig struct {
	URL      string
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	LogSQL   bool
}

type JWTConfig struct {
	Secret string
	Expiry time.Duration
}

type MailConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	FromName string
	To       string // order and report recipient
}

type StorageConfig struct {
	UploadDir     string
	PublicBaseURL string
}

type ReportConfig struct {
	Schedule   string
	RunOnStart bool
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

type AdminConfig struct {
	Username string
	Password string
}

// Load reads .env (if present) and the process environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, relying on system env")
	}

	v := viper.New()
	v.AutomaticEnv()

	// Set defaults
	v.SetDefault("SERVER_PORT", "3000")
	v.SetDefault("SERVER_ENV", "development")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_LOG_SQL", false)
	v.SetDefault("JWT_EXPIRY_HOURS", 24)
	v.SetDefault("SMTP_HOST", "smtp.gmail.com")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("MAIL_FROM_NAME", "Sweet Cuddles Boutique")
	v.SetDefault("UPLOAD_DIR", "public/uploads/product")
	v.SetDefault("PUBLIC_BASE_URL", "http://localhost:3000")
	v.SetDefault("REPORT_SCHEDULE", "0 8 1 6,12 *")
	v.SetDefault("REPORT_RUN_ON_START", true)
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CACHE_TTL_SECONDS", 300)
	v.SetDefault("ADMIN_USERNAME", "sweet_cuddles_admin")

	return &Config{
		Server: ServerConfig{
			Port: v.GetString("SERVER_PORT"),
			Env:  v.GetString("SERVER_ENV"),
		},
		Database: DatabaseConfig{
			URL:      v.GetString("DATABASE_URL"),
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			Name:     v.GetString("DB_NAME"),
			LogSQL:   v.GetBool("DB_LOG_SQL"),
		},
		JWT: JWTConfig{
			Secret: v.GetString("JWT_SECRET"),
			Expiry: time.Duration(v.GetInt("JWT_EXPIRY_HOURS")) * time.Hour,
		},
		Mail: MailConfig{
			Host:     v.GetString("SMTP_HOST"),
			Port:     v.GetInt("SMTP_PORT"),
			User:     v.GetString("SMTP_USER"),
			Password: v.GetString("SMTP_PASSWORD"),
			FromName: v.GetString("MAIL_FROM_NAME"),
			To:       v.GetString("MAIL_TO"),
		},
		Storage: StorageConfig{
			UploadDir:     v.GetString("UPLOAD_DIR"),
			PublicBaseURL: v.GetString("PUBLIC_BASE_URL"),
		},
		Report: ReportConfig{
			Schedule:   v.GetString("REPORT_SCHEDULE"),
			RunOnStart: v.GetBool("REPORT_RUN_ON_START"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
			TTL:      time.Duration(v.GetInt("CACHE_TTL_SECONDS")) * time.Second,
		},
		Admin: AdminConfig{
			Username: v.GetString("ADMIN_USERNAME"),
			Password: v.GetString("ADMIN_PASSWORD"),
		},
	}
}
