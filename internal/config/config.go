// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Environment string
	Server      ServerConfig
	Database    DatabaseConfig
	Log         LogConfig
	Session     SessionConfig
	Redis       RedisConfig
	Storage     StorageConfig
	Payment     PaymentConfig
	Security    SecurityConfig
	Discord     DiscordConfig
	Frontend    FrontendConfig
}

type FrontendConfig struct {
	BaseURL string
}

type ServerConfig struct {
	Port         string
	Host         string
	ReadTimeout  int
	WriteTimeout int
	IdleTimeout  int
	// TrustedProxies feeds gin's ClientIP resolution.
	TrustedProxies []string
}

type DatabaseConfig struct {
	URL          string
	Host         string
	Port         string
	User         string
	Password     string
	Database     string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  int
	LogLevel     string
}

type LogConfig struct {
	Level  string
	Format string
}

// SessionConfig holds the secret Supabase signs access tokens with.
type SessionConfig struct {
	JWTSecret  string
	CookieName string
}

type RedisConfig struct {
	URL string
}

// StorageConfig points at an S3-compatible bucket (Supabase Storage speaks the S3 protocol).
type StorageConfig struct {
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	PublicURL       string
	DownloadURLTTL  int // in minutes
}

type PaymentConfig struct {
	AbacatePayAPIURL     string
	AbacatePayAPIKey     string
	WebhookSecret        string
	ChargeExpirySeconds  int
	RequestTimeoutSecond int
}

type SecurityConfig struct {
	EncryptionKey string
}

type DiscordConfig struct {
	WebhookURL string
	APIURL     string
	BotToken   string
	GuildID    string
	ClientRole string
}

const minEncryptionKeyLength = 32

func Load() (*Config, error) {
	// Load .env file if it exists
	godotenv.Load()

	config := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Port:           getEnv("SERVER_PORT", "8080"),
			Host:           getEnv("SERVER_HOST", "localhost"),
			ReadTimeout:    getEnvAsInt("SERVER_READ_TIMEOUT", 15),
			WriteTimeout:   getEnvAsInt("SERVER_WRITE_TIMEOUT", 30),
			IdleTimeout:    getEnvAsInt("SERVER_IDLE_TIMEOUT", 60),
			TrustedProxies: getEnvAsSlice("SERVER_TRUSTED_PROXIES", nil),
		},
		Database: DatabaseConfig{
			URL:          getEnv("DATABASE_URL", ""),
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", ""),
			Database:     getEnv("DB_NAME", "postgres"),
			SSLMode:      getEnv("DB_SSL_MODE", "require"),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 25),
			MaxLifetime:  getEnvAsInt("DB_MAX_LIFETIME", 300),
			LogLevel:     getEnv("DB_LOG_LEVEL", "warn"),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", ""),
		},
		Session: SessionConfig{
			JWTSecret:  getEnv("SUPABASE_JWT_SECRET", ""),
			CookieName: getEnv("SESSION_COOKIE_NAME", "sb-access-token"),
		},
		Redis: RedisConfig{
			URL: getEnv("REDIS_URL", ""),
		},
		Storage: StorageConfig{
			Endpoint:        getEnv("STORAGE_S3_ENDPOINT", ""),
			Region:          getEnv("STORAGE_S3_REGION", "us-east-1"),
			AccessKeyID:     getEnv("STORAGE_S3_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("STORAGE_S3_SECRET_ACCESS_KEY", ""),
			Bucket:          getEnv("STORAGE_BUCKET", "products"),
			PublicURL:       getEnv("STORAGE_PUBLIC_URL", ""),
			DownloadURLTTL:  getEnvAsInt("STORAGE_DOWNLOAD_URL_TTL", 15),
		},
		Payment: PaymentConfig{
			AbacatePayAPIURL:     getEnv("ABACATE_PAY_API_URL", "https://api.abacatepay.com/v1"),
			AbacatePayAPIKey:     getEnv("ABACATE_PAY_API_KEY", ""),
			WebhookSecret:        getEnv("ABACATE_PAY_WEBHOOK_SECRET", ""),
			ChargeExpirySeconds:  getEnvAsInt("PIX_CHARGE_EXPIRY_SECONDS", 3600),
			RequestTimeoutSecond: getEnvAsInt("ABACATE_PAY_TIMEOUT", 15),
		},
		Security: SecurityConfig{
			EncryptionKey: getEnv("ENCRYPTION_KEY", ""),
		},
		Discord: DiscordConfig{
			WebhookURL: getEnv("DISCORD_WEBHOOK_URL", ""),
			APIURL:     getEnv("DISCORD_API_URL", "https://discord.com/api/v10"),
			BotToken:   getEnv("DISCORD_BOT_TOKEN", ""),
			GuildID:    getEnv("DISCORD_GUILD_ID", ""),
			ClientRole: getEnv("DISCORD_CLIENT_ROLE", "cliente"),
		},
		Frontend: FrontendConfig{
			BaseURL: getEnv("FRONTEND_URL", "http://localhost:3000"),
		},
	}

	return config, config.Validate()
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) Validate() error {
	if len(c.Security.EncryptionKey) < minEncryptionKeyLength {
		return fmt.Errorf("ENCRYPTION_KEY must be at least %d characters", minEncryptionKeyLength)
	}

	if c.Discord.WebhookURL != "" && !strings.HasPrefix(c.Discord.WebhookURL, "https://discord.com/api/webhooks/") {
		return fmt.Errorf("DISCORD_WEBHOOK_URL must be a discord.com webhook URL")
	}

	if c.Payment.ChargeExpirySeconds <= 0 {
		return fmt.Errorf("PIX_CHARGE_EXPIRY_SECONDS must be positive")
	}

	if !c.IsProduction() {
		return nil
	}

	if c.Session.JWTSecret == "" {
		return fmt.Errorf("SUPABASE_JWT_SECRET is required in production")
	}

	if c.Payment.AbacatePayAPIKey == "" {
		return fmt.Errorf("ABACATE_PAY_API_KEY is required in production")
	}

	if c.Payment.WebhookSecret == "" {
		return fmt.Errorf("ABACATE_PAY_WEBHOOK_SECRET is required in production")
	}

	if c.Database.URL == "" && c.Database.Password == "" {
		return fmt.Errorf("database password is required in production")
	}

	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
