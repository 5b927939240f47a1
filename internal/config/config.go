package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"strings" // strings normalizes env keys
	"sync"    // sync guards the one-time .env load

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the runtime configuration shared by the three services.
// Each field corresponds to an environment variable; per-concern settings
// (rate limits, redis, cache, storage, queue) live in their own loaders.
type Config struct {
	Service          string // service name reported by /health and in logs
	Env              string // application environment (dev/test/prod)
	Port             string // HTTP port to listen on
	LogLevel         string // zap level (debug, info, warn, error)
	DBUser           string // database username
	DBPass           string // database password (optional)
	DBHost           string // database host address
	DBPort           string // database port number
	DBName           string // database name
	MongoURI         string // audit log MongoDB connection string
	MongoDatabase    string // audit log database name
	JWTSecret        string // secret used to sign JWTs
	AccessTTLMin     int    // access token time-to-live in minutes
	RefreshTTLDays   int    // refresh token time-to-live in days
	BcryptCost       int    // bcrypt cost for password hashing
	UploadMaxBytes   int64  // maximum accepted photo size
	ExportMaxRecords int    // upper bound for the optional export limit
}

var dotenvOnce sync.Once

// newEnv returns a viper instance bound to the process environment. A .env
// file in the working directory is loaded once; missing files are ignored.
func newEnv() *viper.Viper {
	dotenvOnce.Do(func() { _ = godotenv.Load() })
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads configuration values for the named service. Required variables
// are enforced by must() and missing values cause the program to exit.
func Load(service string) Config {
	v := newEnv()
	v.SetDefault("APP_ENV", "dev")
	v.SetDefault("APP_PORT", "8000")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("MONGODB_URI", "mongodb://localhost:27017")
	v.SetDefault("MONGODB_DATABASE", "photo_platform")
	v.SetDefault("ACCESS_TOKEN_TTL_MIN", 15)
	v.SetDefault("REFRESH_TOKEN_TTL_DAYS", 7)
	v.SetDefault("BCRYPT_COST", 12)
	v.SetDefault("UPLOAD_MAX_BYTES", 10*1024*1024)
	v.SetDefault("EXPORT_MAX_RECORDS", 10000)

	return Config{
		Service:          service,
		Env:              v.GetString("APP_ENV"),
		Port:             v.GetString("APP_PORT"),
		LogLevel:         v.GetString("LOG_LEVEL"),
		DBUser:           must(v, "DB_USER"),
		DBPass:           v.GetString("DB_PASS"), // empty allowed
		DBHost:           must(v, "DB_HOST"),
		DBPort:           must(v, "DB_PORT"),
		DBName:           must(v, "DB_NAME"),
		MongoURI:         v.GetString("MONGODB_URI"),
		MongoDatabase:    v.GetString("MONGODB_DATABASE"),
		JWTSecret:        must(v, "JWT_SECRET"),
		AccessTTLMin:     positive(v, "ACCESS_TOKEN_TTL_MIN"),
		RefreshTTLDays:   positive(v, "REFRESH_TOKEN_TTL_DAYS"),
		BcryptCost:       positive(v, "BCRYPT_COST"),
		UploadMaxBytes:   v.GetInt64("UPLOAD_MAX_BYTES"),
		ExportMaxRecords: positive(v, "EXPORT_MAX_RECORDS"),
	}
}

// must retrieves the value of a required environment variable. If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(v *viper.Viper, key string) string {
	s := v.GetString(key)
	if s == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return s
}

// positive is like must() for integers that have a default but may be
// overridden with nonsense.
func positive(v *viper.Viper, key string) int {
	n := v.GetInt(key)
	if n <= 0 {
		log.Fatalf("invalid int for %s: %q", key, v.GetString(key))
	}
	return n
}
