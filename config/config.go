// config/config.go
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// --- Sub-structs, mirroring the YAML layout ---

type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // gin mode: debug, release, test
}

type StorageConfig struct {
	Driver string `mapstructure:"driver"` // memory, mongo, postgres
}

type MongoConfig struct {
	URI    string `mapstructure:"uri"`
	DBName string `mapstructure:"dbName"`
}

type PostgresConfig struct {
	URL string `mapstructure:"url"`
}

type JWTConfig struct {
	Secret     string `mapstructure:"secret"`
	Expiration string `mapstructure:"expiration"`
}

type AuthConfig struct {
	Enabled       bool    `mapstructure:"enabled"`
	AdminEmail    string  `mapstructure:"adminEmail"`
	AdminPassword string  `mapstructure:"adminPassword"`
	LoginRPS      float64 `mapstructure:"loginRPS"`
	LoginBurst    int     `mapstructure:"loginBurst"`
}

type S3Config struct {
	Bucket           string `mapstructure:"bucket"`
	Region           string `mapstructure:"region"`
	AccessKeyID      string `mapstructure:"accessKeyID"`
	SecretAccessKey  string `mapstructure:"secretAccessKey"`
	CloudFrontDomain string `mapstructure:"cloudFrontDomain"`
	Prefix           string `mapstructure:"prefix"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowedOrigins"`
}

type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// --- Top-level Config ---

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Mongo    MongoConfig    `mapstructure:"mongo"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Auth     AuthConfig     `mapstructure:"auth"`
	S3       S3Config       `mapstructure:"s3"`
	CORS     CORSConfig     `mapstructure:"cors"`
	Log      LogConfig      `mapstructure:"log"`
}

// LoadConfig reads config.yaml from path and applies environment overrides.
func LoadConfig(path string) (config Config, err error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "release")
	v.SetDefault("storage.driver", "memory")
	v.SetDefault("mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("mongo.dbName", "field_service")
	v.SetDefault("jwt.expiration", "24h")
	v.SetDefault("auth.enabled", false)
	v.SetDefault("auth.adminEmail", "admin@example.com")
	v.SetDefault("auth.loginRPS", 5)
	v.SetDefault("auth.loginBurst", 10)
	v.SetDefault("s3.prefix", "reports")
	v.SetDefault("cors.allowedOrigins", []string{"*"})
	v.SetDefault("log.level", "info")

	v.BindEnv("server.port", "SERVER_PORT")
	v.BindEnv("server.mode", "GIN_MODE")
	v.BindEnv("storage.driver", "STORAGE_DRIVER")
	v.BindEnv("mongo.uri", "MONGO_URI")
	v.BindEnv("mongo.dbName", "MONGO_DBNAME")
	v.BindEnv("postgres.url", "DATABASE_URL")
	v.BindEnv("jwt.secret", "JWT_SECRET")
	v.BindEnv("jwt.expiration", "JWT_EXPIRATION")
	v.BindEnv("auth.enabled", "AUTH_ENABLED")
	v.BindEnv("auth.adminEmail", "ADMIN_EMAIL")
	v.BindEnv("auth.adminPassword", "ADMIN_PASSWORD")
	v.BindEnv("s3.bucket", "S3_BUCKET")
	v.BindEnv("s3.region", "S3_REGION")
	v.BindEnv("s3.accessKeyID", "S3_ACCESS_KEY_ID")
	v.BindEnv("s3.secretAccessKey", "S3_SECRET_ACCESS_KEY")
	v.BindEnv("s3.cloudFrontDomain", "S3_CLOUDFRONT_DOMAIN")
	v.BindEnv("log.level", "LOG_LEVEL")
	v.BindEnv("log.development", "LOG_DEVELOPMENT")

	// A missing config.yaml is fine; defaults and env still apply.
	if err = v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return
		}
		err = nil
	}

	if err = v.Unmarshal(&config); err != nil {
		return
	}
	err = config.Validate()
	return
}

// Validate checks settings that depend on each other.
func (c *Config) Validate() error {
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("unknown server mode %q", c.Server.Mode)
	}

	switch c.Storage.Driver {
	case "memory":
	case "mongo":
		if c.Mongo.URI == "" || c.Mongo.DBName == "" {
			return errors.New("mongo.uri and mongo.dbName are required for the mongo driver")
		}
	case "postgres":
		if c.Postgres.URL == "" {
			return errors.New("postgres.url is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}

	if c.Auth.Enabled {
		if c.JWT.Secret == "" {
			return errors.New("jwt.secret is required when auth is enabled")
		}
		if c.Auth.AdminPassword == "" {
			return errors.New("auth.adminPassword is required when auth is enabled")
		}
	}
	if _, err := c.JWT.TTL(); err != nil {
		return err
	}
	return nil
}

// TTL parses the token expiration, e.g. "24h".
func (j JWTConfig) TTL() (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(j.Expiration))
	if err != nil {
		return 0, fmt.Errorf("invalid jwt.expiration %q: %w", j.Expiration, err)
	}
	return d, nil
}

// S3Enabled reports whether report export has a bucket to write to.
func (c *Config) S3Enabled() bool {
	return c.S3.Bucket != "" && c.S3.Region != ""
}
