package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	Env               string `mapstructure:"ENV"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`
	CORSOrigins       string `mapstructure:"CORS_ORIGINS"`
	TrustedProxiesRaw string `mapstructure:"TRUSTED_PROXIES"`

	// Storage.
	StoreDriver       string        `mapstructure:"STORE_DRIVER"`
	DatabaseURL       string        `mapstructure:"DATABASE_URL"`
	DatabaseName      string        `mapstructure:"DATABASE_NAME"`
	DBTimeout         time.Duration `mapstructure:"DB_TIMEOUT"`
	MongoTransactions bool          `mapstructure:"MONGO_TRANSACTIONS"`

	// Redis configuration.
	RedisAddr     string        `mapstructure:"REDIS_ADDR"`
	RedisPassword string        `mapstructure:"REDIS_PASSWORD"`
	RedisCacheDB  int           `mapstructure:"REDIS_CACHE_DB"`
	RedisQueueDB  int           `mapstructure:"REDIS_QUEUE_DB"`
	CacheEnabled  bool          `mapstructure:"CACHE_ENABLED"`
	SlotCacheTTL  time.Duration `mapstructure:"SLOT_CACHE_TTL"`

	// Notifications.
	NotifyEnabled    bool   `mapstructure:"NOTIFY_ENABLED"`
	NotifyWebhookURL string `mapstructure:"NOTIFY_WEBHOOK_URL"`
	TimeZone         string `mapstructure:"TIME_ZONE"`

	// Admin access.
	JWTSecret         string        `mapstructure:"JWT_SECRET"`
	AdminTokenTTL     time.Duration `mapstructure:"ADMIN_TOKEN_TTL"`
	AdminUsername     string        `mapstructure:"ADMIN_USERNAME"`
	AdminPasswordHash string        `mapstructure:"ADMIN_PASSWORD_HASH"`

	// Booking.
	GateCount       int `mapstructure:"GATE_COUNT"`
	AadhaarHashCost int `mapstructure:"AADHAAR_HASH_COST"`
}

const (
	DriverMongo  = "mongo"
	DriverMemory = "memory"
)

var AppConfig Config

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("MAX_REQUESTS_PER_MIN", 120)
	v.SetDefault("CORS_ORIGINS", "*")
	v.SetDefault("TRUSTED_PROXIES", "")
	v.SetDefault("STORE_DRIVER", DriverMongo)
	v.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	v.SetDefault("DATABASE_NAME", "sarthi")
	v.SetDefault("DB_TIMEOUT", 5*time.Second)
	v.SetDefault("MONGO_TRANSACTIONS", true)
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_CACHE_DB", 0)
	v.SetDefault("REDIS_QUEUE_DB", 1)
	v.SetDefault("CACHE_ENABLED", false)
	v.SetDefault("SLOT_CACHE_TTL", 5*time.Second)
	v.SetDefault("NOTIFY_ENABLED", false)
	v.SetDefault("NOTIFY_WEBHOOK_URL", "")
	v.SetDefault("TIME_ZONE", "Asia/Kolkata")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("ADMIN_TOKEN_TTL", 12*time.Hour)
	v.SetDefault("ADMIN_USERNAME", "admin")
	v.SetDefault("ADMIN_PASSWORD_HASH", "")
	v.SetDefault("GATE_COUNT", 5)
	v.SetDefault("AADHAAR_HASH_COST", 10)
}

// Load builds a Config from an optional config.yaml plus the environment.
func Load(v *viper.Viper) (Config, error) {
	// Look for a config file named "config.yaml" in the current and "config" directory.
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfig populates AppConfig and exits on invalid configuration.
func LoadConfig() {
	cfg, err := Load(viper.GetViper())
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	AppConfig = cfg
}

// Validate rejects settings the service cannot start with.
func (c Config) Validate() error {
	switch c.StoreDriver {
	case DriverMongo, DriverMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if c.DBTimeout <= 0 {
		return fmt.Errorf("DB_TIMEOUT must be positive")
	}
	if c.GateCount <= 0 {
		return fmt.Errorf("GATE_COUNT must be positive")
	}
	if c.MaxRequestsPerMin <= 0 {
		return fmt.Errorf("MAX_REQUESTS_PER_MIN must be positive")
	}
	if c.IsProduction() && c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required in production")
	}
	return nil
}

func (c Config) IsProduction() bool {
	return c.Env == "production"
}

// AllowedOrigins splits CORS_ORIGINS on commas.
func (c Config) AllowedOrigins() []string {
	var origins []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}

// TrustedProxies splits TRUSTED_PROXIES (IPs or CIDRs) on commas. Empty
// means forwarding headers are ignored and the peer address is the client.
func (c Config) TrustedProxies() []string {
	var proxies []string
	for _, p := range strings.Split(c.TrustedProxiesRaw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			proxies = append(proxies, p)
		}
	}
	return proxies
}

// Location resolves TIME_ZONE, falling back to UTC.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return AppConfig.IsProduction()
}
