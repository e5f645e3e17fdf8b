package conf

import (
	"fmt"
	"time"

	"github.com/pdfvault/pdfvault-backend/internal/pkg/database"
	"github.com/pdfvault/pdfvault-backend/internal/pkg/logger"
	"github.com/pdfvault/pdfvault-backend/internal/pkg/redis"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig    `mapstructure:"server"`
	Database database.Config `mapstructure:"database"`
	Redis    redis.Config    `mapstructure:"redis"`
	Storage  StorageConfig   `mapstructure:"storage"`
	Log      logger.Config   `mapstructure:"log"`
	Auth     AuthConfig      `mapstructure:"auth"`
	Admin    AdminConfig     `mapstructure:"admin"`
	Email    EmailConfig     `mapstructure:"email"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// StorageConfig controls where uploaded files live on disk.
type StorageConfig struct {
	UploadDir   string `mapstructure:"upload_dir"`
	TempDir     string `mapstructure:"temp_dir"`
	MaxFileSize int64  `mapstructure:"max_file_size"` // bytes
}

type AuthConfig struct {
	JWTSecret           string        `mapstructure:"jwt_secret"`
	JWTIssuer           string        `mapstructure:"jwt_issuer"`
	AccessTokenDuration time.Duration `mapstructure:"access_token_duration"`
}

// AdminConfig holds the operator credentials. PasswordHash is a bcrypt
// hash; the admin login is disabled when it is empty.
type AdminConfig struct {
	Email        string `mapstructure:"email"`
	PasswordHash string `mapstructure:"password_hash"`
}

type EmailConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	SMTPHost  string `mapstructure:"smtp_host"`
	SMTPPort  int    `mapstructure:"smtp_port"`
	Username  string `mapstructure:"username"`
	Password  string `mapstructure:"password"`
	FromEmail string `mapstructure:"from_email"`
	FromName  string `mapstructure:"from_name"`
}

func LoadConfig(path string) (*Config, error) {
	viper.SetConfigFile(path)
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)

	viper.SetDefault("storage.upload_dir", "uploads")
	viper.SetDefault("storage.temp_dir", "uploads/tmp")
	viper.SetDefault("storage.max_file_size", 16*1024*1024)

	viper.SetDefault("auth.jwt_issuer", "pdfvault")
	viper.SetDefault("auth.access_token_duration", 15*time.Minute)
}
