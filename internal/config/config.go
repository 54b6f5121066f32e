// Package config loads service configuration from defaults, an optional
// YAML file, a .env file, and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

// Config is built once at startup and passed to the components that need it.
type Config struct {
	Addr          string
	DatabaseURL   string
	MongoDatabase string

	JWTSecret  string
	TokenTTL   time.Duration
	BcryptCost int

	UploadDir       string
	UploadURLPrefix string

	AllowedOrigins []string
	RequestTimeout time.Duration

	RedisAddr              string
	RedisPassword          string
	AuthRateLimitPerMinute int

	LogLevel string
	LogFile  string
}

// FileConfig is the YAML representation of Config. Durations are Go
// duration strings.
type FileConfig struct {
	Addr                   string   `yaml:"addr"`
	DatabaseURL            string   `yaml:"databaseURL"`
	MongoDatabase          string   `yaml:"mongoDatabase"`
	JWTSecret              string   `yaml:"jwtSecret"`
	TokenTTL               string   `yaml:"tokenTTL"`
	BcryptCost             int      `yaml:"bcryptCost"`
	UploadDir              string   `yaml:"uploadDir"`
	UploadURLPrefix        string   `yaml:"uploadURLPrefix"`
	AllowedOrigins         []string `yaml:"allowedOrigins"`
	RequestTimeout         string   `yaml:"requestTimeout"`
	RedisAddr              string   `yaml:"redisAddr"`
	RedisPassword          string   `yaml:"redisPassword"`
	AuthRateLimitPerMinute int      `yaml:"authRateLimitPerMinute"`
	LogLevel               string   `yaml:"logLevel"`
	LogFile                string   `yaml:"logFile"`
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		Addr:            ":8080",
		DatabaseURL:     "sqlite://lostfound.sqlite3",
		TokenTTL:        7 * 24 * time.Hour,
		BcryptCost:      10,
		UploadDir:       "files",
		UploadURLPrefix: "/files/",
		AllowedOrigins:  []string{"http://localhost:3000", "http://localhost:3001"},
		RequestTimeout:  15 * time.Second,
		LogLevel:        "info",
	}
}

// Load builds the configuration. path names an optional YAML file; when
// empty, CONFIG_FILE is consulted. Outside ENV=production a .env file in the
// working directory is loaded first. Environment variables override the file.
func Load(path string) (*Config, error) {
	if os.Getenv("ENV") != "production" {
		_ = godotenv.Load() // optional .env for local
	}

	cfg := Default()

	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}
	if path != "" {
		fc, err := readFile(path)
		if err != nil {
			return nil, err
		}
		if err := cfg.applyFile(fc); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func readFile(path string) (FileConfig, error) {
	var fc FileConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return fc, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fc, fmt.Errorf("parse config: %w", err)
	}
	return fc, nil
}

func (c *Config) applyFile(fc FileConfig) error {
	setString(&c.Addr, fc.Addr)
	setString(&c.DatabaseURL, fc.DatabaseURL)
	setString(&c.MongoDatabase, fc.MongoDatabase)
	setString(&c.JWTSecret, fc.JWTSecret)
	setString(&c.UploadDir, fc.UploadDir)
	setString(&c.UploadURLPrefix, fc.UploadURLPrefix)
	setString(&c.RedisAddr, fc.RedisAddr)
	setString(&c.RedisPassword, fc.RedisPassword)
	setString(&c.LogLevel, fc.LogLevel)
	setString(&c.LogFile, fc.LogFile)
	if fc.BcryptCost != 0 {
		c.BcryptCost = fc.BcryptCost
	}
	if fc.AuthRateLimitPerMinute != 0 {
		c.AuthRateLimitPerMinute = fc.AuthRateLimitPerMinute
	}
	if len(fc.AllowedOrigins) > 0 {
		c.AllowedOrigins = fc.AllowedOrigins
	}
	if err := setDuration(&c.TokenTTL, "tokenTTL", fc.TokenTTL); err != nil {
		return err
	}
	return setDuration(&c.RequestTimeout, "requestTimeout", fc.RequestTimeout)
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("PORT"); v != "" {
		c.Addr = ":" + strings.TrimPrefix(v, ":")
	}
	setString(&c.Addr, os.Getenv("ADDR"))
	setString(&c.DatabaseURL, os.Getenv("DATABASE_URL"))
	setString(&c.MongoDatabase, os.Getenv("MONGO_DATABASE"))
	setString(&c.JWTSecret, os.Getenv("JWT_SECRET"))
	setString(&c.UploadDir, os.Getenv("UPLOAD_DIR"))
	setString(&c.UploadURLPrefix, os.Getenv("UPLOAD_URL_PREFIX"))
	setString(&c.RedisAddr, os.Getenv("REDIS_ADDR"))
	setString(&c.RedisPassword, os.Getenv("REDIS_PASSWORD"))
	setString(&c.LogLevel, os.Getenv("LOG_LEVEL"))
	setString(&c.LogFile, os.Getenv("LOG_FILE"))

	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		c.AllowedOrigins = SplitList(v)
	}
	if err := setInt(&c.BcryptCost, "BCRYPT_COST", os.Getenv("BCRYPT_COST")); err != nil {
		return err
	}
	if err := setInt(&c.AuthRateLimitPerMinute, "AUTH_RATE_LIMIT_PER_MINUTE", os.Getenv("AUTH_RATE_LIMIT_PER_MINUTE")); err != nil {
		return err
	}
	if err := setDuration(&c.TokenTTL, "TOKEN_TTL", os.Getenv("TOKEN_TTL")); err != nil {
		return err
	}
	return setDuration(&c.RequestTimeout, "REQUEST_TIMEOUT", os.Getenv("REQUEST_TIMEOUT"))
}

// Validate reports the first configuration error.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Addr) == "" {
		return errors.New("config: addr is required")
	}
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return errors.New("config: databaseURL is required")
	}
	if c.TokenTTL < 0 {
		return errors.New("config: tokenTTL must be >= 0")
	}
	if c.RequestTimeout < 0 {
		return errors.New("config: requestTimeout must be >= 0")
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("config: bcryptCost must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}
	if c.AuthRateLimitPerMinute < 0 {
		return errors.New("config: authRateLimitPerMinute must be >= 0")
	}
	if strings.TrimSpace(c.UploadDir) == "" {
		return errors.New("config: uploadDir is required")
	}
	if !strings.HasPrefix(c.UploadURLPrefix, "/") || !strings.HasSuffix(c.UploadURLPrefix, "/") {
		return errors.New("config: uploadURLPrefix must start and end with /")
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: unknown logLevel %q", c.LogLevel)
	}
	return nil
}

// RateLimitEnabled reports whether auth endpoints should be throttled.
func (c *Config) RateLimitEnabled() bool {
	return c.RedisAddr != "" && c.AuthRateLimitPerMinute > 0
}

// SplitList splits a comma-separated list, dropping blanks.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, name, v string) error {
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("config: invalid %s: %w", name, err)
	}
	*dst = n
	return nil
}

func setDuration(dst *time.Duration, name, v string) error {
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("config: invalid %s duration: %w", name, err)
	}
	*dst = d
	return nil
}
