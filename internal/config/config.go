package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. SAMPLEAPP_APP_DEBUG.
const EnvPrefix = "SAMPLEAPP"

const sqliteScheme = "sqlite://"

// MemoryDatabaseURL keeps the transaction ledger in process memory. A
// sqlite:// URL opts into a file-backed ledger.
const MemoryDatabaseURL = "memory://"

// Config holds application level configuration aggregated from env/config files.
type Config struct {
	App struct {
		Name      string
		Debug     bool
		SecretKey string
	}
	Database struct {
		URL string
	}
	Cache struct {
		URL     string
		Enabled bool
	}
	Email struct {
		Host     string
		Port     int
		Username string
		Password string
	}
	Payment struct {
		APIKey     string
		GatewayURL string
	}
	Log struct {
		Level  string
		Format string
	}
	Server struct {
		Addr string
	}
	Storage struct {
		Bucket    string
		KeyPrefix string
		Region    string
		Endpoint  string
	}
	AWS struct {
		Profile string
	}
	Data struct {
		Dir string
	}
	Auth struct {
		TokenTTL       time.Duration
		PasswordScheme string
	}
}

// Load reads configuration from environment variables and an optional
// config.{yaml,json} in the working directory.
func Load() (Config, error) {
	if err := loadDotEnv(); err != nil {
		return Config{}, err
	}

	v := newViper()
	v.SetConfigName("config")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	return unmarshal(v)
}

// LoadFile is Load with overrides taken from a JSON or YAML file at path.
// A missing file is logged and the remaining sources still apply.
func LoadFile(path string, log logrus.FieldLogger) (Config, error) {
	if err := loadDotEnv(); err != nil {
		return Config{}, err
	}

	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if log != nil {
			log.Warnf("Config file not found: %s", path)
		}
	}

	return unmarshal(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("app.name", "SampleApp")
	v.SetDefault("app.debug", false)
	v.SetDefault("app.secretkey", "default-secret-key-change-in-production")
	v.SetDefault("database.url", MemoryDatabaseURL)
	v.SetDefault("cache.url", "redis://localhost:6379/0")
	v.SetDefault("cache.enabled", false)
	v.SetDefault("email.host", "smtp.gmail.com")
	v.SetDefault("email.port", 587)
	v.SetDefault("email.username", "")
	v.SetDefault("email.password", "")
	v.SetDefault("payment.apikey", "")
	v.SetDefault("payment.gatewayurl", "https://api.payment.example.com")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("server.addr", "0.0.0.0:8080")
	v.SetDefault("storage.bucket", "")
	v.SetDefault("storage.keyprefix", "pipeline-results")
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.endpoint", "")
	v.SetDefault("aws.profile", "")
	v.SetDefault("data.dir", "data")
	v.SetDefault("auth.tokenttl", "24h")
	v.SetDefault("auth.passwordscheme", "sha256")
	return v
}

func unmarshal(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, nil
}

// loadDotEnv exports variables from .env without overriding the environment.
func loadDotEnv() error {
	if _, err := os.Stat(".env"); err != nil {
		return nil
	}
	if err := godotenv.Load(".env"); err != nil {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

// SQLitePath returns the database file when the database URL uses the
// sqlite scheme.
func (c Config) SQLitePath() (string, bool) {
	if !strings.HasPrefix(c.Database.URL, sqliteScheme) {
		return "", false
	}
	path := strings.TrimPrefix(c.Database.URL, sqliteScheme)
	if path == "" {
		return "", false
	}
	return path, true
}

// Public returns the non-secret settings for display.
func (c Config) Public() map[string]any {
	return map[string]any{
		"app_name":     c.App.Name,
		"debug":        c.App.Debug,
		"database_url": c.Database.URL,
		"log_level":    c.Log.Level,
		"server_addr":  c.Server.Addr,
		"cache":        c.Cache.Enabled,
	}
}
