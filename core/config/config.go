package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config holds all application configuration in a structured way.
type Config struct {
	App      AppConfig
	MCP      MCPConfig
	Paths    PathsConfig
	Database DatabaseConfig
	Cache    CacheConfig
	Remote   RemoteConfig
	Valkey   ValkeyConfig
}

type AppConfig struct {
	Version            string
	Port               string
	Debug              bool
	Environment        string
	BasicAuth          []string
	BasePath           string
	TrustedProxies     []string
	CorsAllowedOrigins []string
	RateLimit          int // requests per minute per client, 0 disables
	ServerID           string
}

type MCPConfig struct {
	Port string
	Host string
}

type PathsConfig struct {
	Storages string
}

type DatabaseConfig struct {
	Driver   string
	Host     string
	Port     int
	User     string
	Password string
	Name     string // File path for SQLite, DB Name for Postgres
}

// CacheConfig drives the in-process post cache.
type CacheConfig struct {
	MaxWeight        int64
	PostWeight       int64
	CollectionWeight int64
	SlidingTTL       time.Duration
	AbsoluteTTL      time.Duration
	CleanupInterval  time.Duration
}

// RemoteConfig points at the feed used to seed an empty store.
// An empty FeedURL disables seeding.
type RemoteConfig struct {
	FeedURL      string
	Timeout      time.Duration
	TokenURL     string
	ClientID     string
	ClientSecret string
	Scopes       []string
}

type ValkeyConfig struct {
	Enabled   bool
	Address   string
	Password  string
	DB        int
	KeyPrefix string
}

// Global provides access to the loaded configuration globally
var Global *Config

// LoadConfig loads configuration from a .env file (if any), environment
// variables, or defaults.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logrus.WithError(err).Warn("[CONFIG] could not read .env file")
	}

	storages := getEnv("APP_BASE_DIR", "storages")

	var basicAuth []string
	if v := os.Getenv("APP_BASIC_AUTH"); v != "" {
		basicAuth = strings.Split(v, ",")
	}

	corsOrigins := []string{"http://localhost:3000", "http://localhost:5173"}
	if v := os.Getenv("APP_CORS_ALLOWED_ORIGINS"); v != "" {
		corsOrigins = strings.Split(v, ",")
	}

	appCfg := AppConfig{
		Version:            "v1.0.0",
		Port:               getEnv("APP_PORT", "3000"),
		Debug:              getEnvBool("APP_DEBUG", false),
		Environment:        getEnv("APP_ENV", "development"),
		BasicAuth:          basicAuth,
		BasePath:           getEnv("APP_BASE_PATH", ""),
		CorsAllowedOrigins: corsOrigins,
		RateLimit:          getEnvInt("APP_RATE_LIMIT", 0),
		ServerID:           getEnv("SERVER_ID", ""),
	}
	if v := os.Getenv("APP_TRUSTED_PROXIES"); v != "" {
		appCfg.TrustedProxies = strings.Split(v, ",")
	}

	driver := getEnv("DB_DRIVER", "sqlite")
	defaultName := filepath.Join(storages, "posts.db")
	if driver == "postgres" {
		defaultName = "posts"
	}
	dbCfg := DatabaseConfig{
		Driver:   driver,
		Name:     getEnv("DB_NAME", defaultName),
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnvInt("DB_PORT", 5432),
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
	}

	cacheCfg := CacheConfig{
		MaxWeight:        getEnvInt64("CACHE_MAX_WEIGHT", 1024),
		PostWeight:       getEnvInt64("CACHE_POST_WEIGHT", 1),
		CollectionWeight: getEnvInt64("CACHE_COLLECTION_WEIGHT", 50),
		SlidingTTL:       getEnvDuration("CACHE_SLIDING_TTL", 5*time.Minute),
		AbsoluteTTL:      getEnvDuration("CACHE_ABSOLUTE_TTL", 60*time.Minute),
		CleanupInterval:  getEnvDuration("CACHE_CLEANUP_INTERVAL", time.Minute),
	}

	remoteCfg := RemoteConfig{
		FeedURL:      getEnv("REMOTE_FEED_URL", ""),
		Timeout:      getEnvDuration("REMOTE_TIMEOUT", 15*time.Second),
		TokenURL:     getEnv("REMOTE_TOKEN_URL", ""),
		ClientID:     getEnv("REMOTE_CLIENT_ID", ""),
		ClientSecret: getEnv("REMOTE_CLIENT_SECRET", ""),
		Scopes:       getEnvList("REMOTE_SCOPES"),
	}

	cfg := &Config{
		App:      appCfg,
		MCP:      MCPConfig{Port: getEnv("MCP_PORT", "8080"), Host: getEnv("MCP_HOST", "localhost")},
		Paths:    PathsConfig{Storages: storages},
		Database: dbCfg,
		Cache:    cacheCfg,
		Remote:   remoteCfg,
		Valkey: ValkeyConfig{
			Enabled:   getEnvBool("VALKEY_ENABLED", false),
			Address:   getEnv("VALKEY_ADDRESS", "localhost:6379"),
			Password:  getEnv("VALKEY_PASSWORD", ""),
			DB:        getEnvInt("VALKEY_DB", 0),
			KeyPrefix: getEnv("VALKEY_KEY_PREFIX", "azposts:"),
		},
	}

	Global = cfg
	return cfg, nil
}
