package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

type Config struct {
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	ServerPort string

	// RedisAddr is empty when the snapshot cache is disabled.
	RedisAddr string
	CacheTTL  time.Duration
	LogLevel  string

	// Client side.
	ServerURL         string
	OptimisticUpdates bool
}

func Load() *Config {
	err := godotenv.Load()
	if err != nil {
		log.Debug("no .env file found, using system environment variables")
	}

	return &Config{
		DBHost:            getEnv("DB_HOST", "localhost"),
		DBPort:            getEnv("DB_PORT", "5432"),
		DBUser:            getEnv("DB_USER", "strello"),
		DBPassword:        getEnv("DB_PASSWORD", "strello"),
		DBName:            getEnv("DB_NAME", "strello"),
		ServerPort:        getEnv("SERVER_PORT", "8080"),
		RedisAddr:         getEnv("REDIS_ADDR", ""),
		CacheTTL:          getDuration("CACHE_TTL", time.Minute),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		ServerURL:         getEnv("STRELLO_SERVER_URL", "http://localhost:8080"),
		OptimisticUpdates: getBool("OPTIMISTIC_UPDATES", true),
	}
}

// DSN is the gorm connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName,
	)
}

// MigrateURL is the same database in the form golang-migrate expects.
func (c *Config) MigrateURL() string {
	u := url.URL{
		Scheme:   "pgx5",
		User:     url.UserPassword(c.DBUser, c.DBPassword),
		Host:     c.DBHost + ":" + c.DBPort,
		Path:     "/" + c.DBName,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

// Level parses LogLevel, falling back to info.
func (c *Config) Level() log.Level {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return log.InfoLevel
	}
	return level
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

func getDuration(key string, defaultVal time.Duration) time.Duration {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return defaultVal
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		log.WithField("key", key).Warnf("invalid duration %q, using %s", raw, defaultVal)
		return defaultVal
	}
	return d
}

func getBool(key string, defaultVal bool) bool {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return defaultVal
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		log.WithField("key", key).Warnf("invalid bool %q, using %t", raw, defaultVal)
		return defaultVal
	}
	return b
}
