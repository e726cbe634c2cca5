// Package config provides runtime configuration values for the service.
//
// Values come from built-in defaults, optionally overlaid by a YAML file,
// then by environment variables. Command-line flags are applied last by the
// caller.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Storage drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverDocument = "document"
)

// Document media.
const (
	DocumentFS     = "fs"
	DocumentS3     = "s3"
	DocumentMemory = "memory"
)

// Config holds configuration knobs for the HTTP server, storage and login.
type Config struct {
	HTTPAddr        string        `yaml:"http_addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	LogLevel        string        `yaml:"log_level"`
	CORSAllowOrigin string        `yaml:"cors_allow_origin"`

	StorageDriver string `yaml:"storage_driver"`
	SQLitePath    string `yaml:"sqlite_path"`
	PostgresDSN   string `yaml:"postgres_dsn"`

	DocumentDriver      string `yaml:"document_driver"`
	DocumentDir         string `yaml:"document_dir"`
	DocumentS3Bucket    string `yaml:"document_s3_bucket"`
	DocumentS3Region    string `yaml:"document_s3_region"`
	DocumentS3Endpoint  string `yaml:"document_s3_endpoint"`
	DocumentS3Prefix    string `yaml:"document_s3_prefix"`
	DocumentS3PathStyle bool   `yaml:"document_s3_path_style"`

	ActivityRetention int    `yaml:"activity_retention"`
	UpdateNamePolicy  string `yaml:"update_name_policy"`

	AdminUsername string `yaml:"admin_username"`
	AdminPassword string `yaml:"admin_password"`
	SeedOnStart   bool   `yaml:"seed_on_start"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		HTTPAddr:          ":8000",
		ShutdownTimeout:   15 * time.Second,
		LogLevel:          "info",
		CORSAllowOrigin:   "*",
		StorageDriver:     DriverSQLite,
		SQLitePath:        "inventory.db",
		DocumentDriver:    DocumentFS,
		DocumentDir:       "./data",
		DocumentS3Region:  "us-east-1",
		ActivityRetention: 50,
		AdminUsername:     "admin",
		AdminPassword:     "admin123",
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func atoienv(key string, def int) int {
	v := getenv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func boolenv(key string, def bool) bool {
	v := getenv(key, "")
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func durenvs(key string, def time.Duration) time.Duration {
	v := getenv(key, "")
	if v == "" {
		return def
	}
	if sec, err := strconv.Atoi(v); err == nil {
		return time.Duration(sec) * time.Second
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	return def
}

// Load collects configuration from environment with defaults.
func Load() Config {
	return applyEnv(Defaults())
}

// LoadFile reads the YAML file at path over the defaults and then applies
// the environment. An empty path behaves like Load.
func LoadFile(path string) (Config, error) {
	cfg := Defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	return applyEnv(cfg), nil
}

func applyEnv(c Config) Config {
	c.HTTPAddr = getenv("HTTP_ADDR", c.HTTPAddr)
	c.ShutdownTimeout = durenvs("SHUTDOWN_TIMEOUT", c.ShutdownTimeout)
	c.LogLevel = getenv("LOG_LEVEL", c.LogLevel)
	c.CORSAllowOrigin = getenv("CORS_ALLOW_ORIGIN", c.CORSAllowOrigin)
	c.StorageDriver = strings.ToLower(getenv("STORAGE_DRIVER", c.StorageDriver))
	c.SQLitePath = getenv("SQLITE_PATH", c.SQLitePath)
	c.PostgresDSN = getenv("POSTGRES_DSN", c.PostgresDSN)
	c.DocumentDriver = strings.ToLower(getenv("DOCUMENT_DRIVER", c.DocumentDriver))
	c.DocumentDir = getenv("DOCUMENT_DIR", c.DocumentDir)
	c.DocumentS3Bucket = getenv("DOCUMENT_S3_BUCKET", c.DocumentS3Bucket)
	c.DocumentS3Region = getenv("DOCUMENT_S3_REGION", c.DocumentS3Region)
	c.DocumentS3Endpoint = getenv("DOCUMENT_S3_ENDPOINT", c.DocumentS3Endpoint)
	c.DocumentS3Prefix = getenv("DOCUMENT_S3_PREFIX", c.DocumentS3Prefix)
	c.DocumentS3PathStyle = boolenv("DOCUMENT_S3_PATH_STYLE", c.DocumentS3PathStyle)
	c.ActivityRetention = atoienv("ACTIVITY_RETENTION", c.ActivityRetention)
	c.UpdateNamePolicy = getenv("UPDATE_NAME_POLICY", c.UpdateNamePolicy)
	c.AdminUsername = getenv("ADMIN_USERNAME", c.AdminUsername)
	c.AdminPassword = getenv("ADMIN_PASSWORD", c.AdminPassword)
	c.SeedOnStart = boolenv("SEED_ON_START", c.SeedOnStart)
	return c
}

// Validate reports configuration that cannot start the service.
func (c Config) Validate() error {
	switch c.StorageDriver {
	case DriverSQLite:
	case DriverPostgres:
		if c.PostgresDSN == "" {
			return fmt.Errorf("POSTGRES_DSN required for storage driver %q", c.StorageDriver)
		}
	case DriverDocument:
		switch c.DocumentDriver {
		case DocumentFS, DocumentMemory:
		case DocumentS3:
			if c.DocumentS3Bucket == "" {
				return fmt.Errorf("DOCUMENT_S3_BUCKET required for document driver %q", c.DocumentDriver)
			}
		default:
			return fmt.Errorf("unknown document driver %q", c.DocumentDriver)
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.StorageDriver)
	}
	if c.ActivityRetention <= 0 {
		return fmt.Errorf("activity retention must be positive, got %d", c.ActivityRetention)
	}
	return nil
}
