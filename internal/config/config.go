package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	StorageMemory = "memory"
	StorageRedis  = "redis"
	StorageMongo  = "mongo"

	CatalogSQLite = "sqlite"
	CatalogHTTP   = "http"
)

type Config struct {
	HTTPPort        string
	LogLevel        string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration

	StorageBackend string
	RedisAddr      string
	RedisPassword  string
	RedisTTL       time.Duration
	MongoURI       string
	MongoDBName    string

	MongoConnectTimeout time.Duration
	MongoSelectTimeout  time.Duration
	MongoMaxPoolSize    uint64
	MongoMinPoolSize    uint64

	CatalogSource  string
	CatalogDBPath  string
	MigrationsPath string
	CatalogURL     string
	CatalogTimeout time.Duration

	KafkaBrokers []string
}

func Load() *Config {
	return &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		RequestTimeout:  getEnvDuration("REQUEST_TIMEOUT", 30*time.Second),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),

		StorageBackend: strings.ToLower(getEnv("STORAGE_BACKEND", StorageMemory)),
		RedisAddr:      getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:  getEnv("REDIS_PASSWORD", ""),
		RedisTTL:       getEnvDuration("REDIS_TTL", 0),
		MongoURI:       getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDBName:    getEnv("MONGO_DB_NAME", "storefront"),

		MongoConnectTimeout: getEnvDuration("MONGO_CONNECT_TIMEOUT", 10*time.Second),
		MongoSelectTimeout:  getEnvDuration("MONGO_SELECT_TIMEOUT", 5*time.Second),
		MongoMaxPoolSize:    getEnvUint("MONGO_MAX_POOL_SIZE", 100),
		MongoMinPoolSize:    getEnvUint("MONGO_MIN_POOL_SIZE", 10),

		CatalogSource:  strings.ToLower(getEnv("CATALOG_SOURCE", CatalogSQLite)),
		CatalogDBPath:  getEnv("CATALOG_DB_PATH", "./products.db"),
		MigrationsPath: getEnv("MIGRATIONS_PATH", "./internal/catalog/migrations"),
		CatalogURL:     getEnv("CATALOG_URL", "http://localhost:8000/products.json"),
		CatalogTimeout: getEnvDuration("CATALOG_TIMEOUT", 5*time.Second),

		KafkaBrokers: getEnvList("KAFKA_BROKERS"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return d
}

func getEnvUint(key string, defaultValue uint64) uint64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return defaultValue
	}
	return n
}

func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
