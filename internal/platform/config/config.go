package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	TokenStoreFile   = "file"
	TokenStoreRedis  = "redis"
	TokenStoreMemory = "memory"
)

type Config struct {
	WebPort      string
	CookieSecure bool

	APIBaseURL string
	APITimeout time.Duration

	TokenStore string
	TokenFile  string
	TokenTTL   time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	CacheStaleAfter time.Duration
	RegistryIdle    time.Duration

	// Stub API (tests and local development only).
	StubAPIPort string
	JWTKey      []byte
	JWTExp      time.Duration
	StubSeed    bool
}

var AppConfig *Config

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	AppConfig = &Config{
		WebPort:      getEnv("WEB_PORT", "8080"),
		CookieSecure: getEnvAsBool("COOKIE_SECURE", false),

		APIBaseURL: strings.TrimRight(getEnv("API_BASE_URL", "http://localhost:8081/api"), "/"),
		APITimeout: time.Duration(getEnvAsInt("API_TIMEOUT_SECONDS", 10)) * time.Second,

		TokenStore: strings.ToLower(getEnv("TOKEN_STORE", TokenStoreFile)),
		TokenFile:  getEnv("TOKEN_FILE", defaultTokenFile()),
		TokenTTL:   time.Duration(getEnvAsInt("TOKEN_TTL_HOURS", 72)) * time.Hour,

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		CacheStaleAfter: time.Duration(getEnvAsInt("CACHE_STALE_SECONDS", 0)) * time.Second,
		RegistryIdle:    time.Duration(getEnvAsInt("REGISTRY_IDLE_MINUTES", 30)) * time.Minute,

		StubAPIPort: getEnv("STUB_API_PORT", "8081"),
		JWTKey:      []byte(getEnv("JWT_SECRET", "defaultsecret")),
		JWTExp:      time.Duration(getEnvAsInt("JWT_EXPIRATION_HOURS", 72)) * time.Hour,
		StubSeed:    getEnvAsBool("STUB_SEED", true),
	}

	return AppConfig
}

func defaultTokenFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".clinic-tokens.json"
	}
	return dir + string(os.PathSeparator) + "clinic" + string(os.PathSeparator) + "tokens.json"
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return fallback
}
