package config

import (
	"os"      // For environment variables
	"strconv" // For string to number conversion
	"time"    // For durations

	"github.com/joho/godotenv"   // For loading .env files
	"github.com/sirupsen/logrus" // Warn about malformed values
)

// Config holds the application configuration
type Config struct {
	AppPort        string        // Application port
	DBUser         string        // Database user
	DBPassword     string        // Database password
	DBHost         string        // Database host
	DBPort         string        // Database port
	DBName         string        // Database name
	JWTSecret      string        // JWT secret key
	RedisAddr      string        // Redis server address, empty disables Redis
	RedisPass      string        // Redis password
	RedisDB        int           // Redis database number
	IsProd         bool          // Is production environment
	UploadDir      string        // Directory deposit screenshots are written to
	SessionTTL     time.Duration // Lifetime of a sign-in session
	ResetTokenTTL  time.Duration // Lifetime of a password reset token
	RateLimitRPS   float64       // Sustained requests per second per client on limited routes
	RateLimitBurst int           // Burst size per client on limited routes
	SweepSchedule  string        // Cron spec for the position expiry sweep
}

// DSN builds the MySQL data source name
func (c *Config) DSN() string {
	return c.DBUser + ":" + c.DBPassword + "@tcp(" + c.DBHost + ":" + c.DBPort + ")/" + c.DBName + "?parseTime=true&loc=UTC"
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	_ = godotenv.Load() // Load .env file if present
	return &Config{
		AppPort:        getEnvString("APP_PORT", "8080"),                     // Application port
		DBUser:         os.Getenv("DB_USER"),                                 // Database user
		DBPassword:     os.Getenv("DB_PASSWORD"),                             // Database password
		DBHost:         getEnvString("DB_HOST", "127.0.0.1"),                 // Database host
		DBPort:         getEnvString("DB_PORT", "3306"),                      // Database port
		DBName:         os.Getenv("DB_NAME"),                                 // Database name
		JWTSecret:      os.Getenv("JWT_SECRET"),                              // JWT secret key
		RedisAddr:      os.Getenv("REDIS_ADDR"),                              // Redis server address
		RedisPass:      os.Getenv("REDIS_PASS"),                              // Redis password
		RedisDB:        getEnvInt("REDIS_DB", 0),                             // Redis database number
		IsProd:         os.Getenv("IS_PROD") == "true",                       // Is production environment
		UploadDir:      getEnvString("UPLOAD_DIR", "uploads"),                // Screenshot directory
		SessionTTL:     getEnvDuration("SESSION_TTL", 24*time.Hour),          // Session lifetime
		ResetTokenTTL:  getEnvDuration("RESET_TOKEN_TTL", 30*time.Minute),    // Reset token lifetime
		RateLimitRPS:   getEnvFloat("RATE_LIMIT_RPS", 2),                     // Requests per second
		RateLimitBurst: getEnvInt("RATE_LIMIT_BURST", 10),                    // Burst size
		SweepSchedule:  getEnvString("POSITION_SWEEP_SCHEDULE", "@every 1h"), // Expiry sweep schedule
	}
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	v, err := strconv.Atoi(value)
	if err != nil {
		logrus.Warnf("invalid %s=%q, using %d", key, value, defaultValue)
		return defaultValue
	}
	return v
}

func getEnvFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		logrus.Warnf("invalid %s=%q, using %g", key, value, defaultValue)
		return defaultValue
	}
	return v
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	v, err := time.ParseDuration(value)
	if err != nil {
		logrus.Warnf("invalid %s=%q, using %s", key, value, defaultValue)
		return defaultValue
	}
	return v
}
