// Package config loads server configuration from an optional YAML file and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	StoreMongo  = "mongo"
	StoreMemory = "memory"

	MediaCloudinary = "cloudinary"
	MediaS3         = "s3"
)

// ErrMissingConfig is wrapped by every validation failure caused by an absent required value
var ErrMissingConfig = errors.New("missing required configuration")

type Config struct {
	Server ServerConfig `yaml:"server"`
	Store  StoreConfig  `yaml:"store"`
	Media  MediaConfig  `yaml:"media"`
	Log    LogConfig    `yaml:"log"`
}

type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	SiteURL         string        `yaml:"site_url"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type StoreConfig struct {
	// Backend is "mongo" or "memory"; memory keeps nothing across restarts
	Backend        string        `yaml:"backend"`
	URI            string        `yaml:"uri"`
	Database       string        `yaml:"database"`
	Collection     string        `yaml:"collection"`
	Pooled         bool          `yaml:"pooled"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
}

type MediaConfig struct {
	Backend    string           `yaml:"backend"`
	Cloudinary CloudinaryConfig `yaml:"cloudinary"`
	S3         S3Config         `yaml:"s3"`
}

type CloudinaryConfig struct {
	CloudName    string `yaml:"cloud_name"`
	UploadPreset string `yaml:"upload_preset"`
	APIBase      string `yaml:"api_base"`
}

type S3Config struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	Preset    string `yaml:"preset"`
	PublicURL string `yaml:"public_url"`
	UseSSL    bool   `yaml:"use_ssl"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ShutdownTimeout: 5 * time.Second,
		},
		Store: StoreConfig{
			Backend:        StoreMongo,
			Collection:     "blogs",
			ConnectTimeout: 10 * time.Second,
		},
		Media: MediaConfig{
			Backend: MediaCloudinary,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load builds the configuration from defaults, then the YAML file at path (skipped when path
// is empty), then environment variables. It does not validate; see Validate.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.Server.Host = envOrDefault("APP_HOST", c.Server.Host)
	c.Server.SiteURL = envOrDefault("SITE_URL", c.Server.SiteURL)

	c.Store.Backend = envOrDefault("STORE_BACKEND", c.Store.Backend)
	c.Store.URI = envOrDefault("MONGO_URL", c.Store.URI)
	c.Store.Database = envOrDefault("MONGO_DATABASE", c.Store.Database)
	c.Store.Collection = envOrDefault("MONGO_COLLECTION", c.Store.Collection)

	c.Media.Backend = envOrDefault("MEDIA_BACKEND", c.Media.Backend)
	c.Media.Cloudinary.CloudName = envOrDefault("CLOUDINARY_CLOUD_NAME", c.Media.Cloudinary.CloudName)
	c.Media.Cloudinary.UploadPreset = envOrDefault("CLOUDINARY_UPLOAD_PRESET", c.Media.Cloudinary.UploadPreset)
	c.Media.Cloudinary.APIBase = envOrDefault("CLOUDINARY_API_BASE", c.Media.Cloudinary.APIBase)
	c.Media.S3.Endpoint = envOrDefault("S3_ENDPOINT", c.Media.S3.Endpoint)
	c.Media.S3.AccessKey = envOrDefault("S3_ACCESS_KEY", c.Media.S3.AccessKey)
	c.Media.S3.SecretKey = envOrDefault("S3_SECRET_KEY", c.Media.S3.SecretKey)
	c.Media.S3.Bucket = envOrDefault("S3_BUCKET", c.Media.S3.Bucket)
	c.Media.S3.Preset = envOrDefault("S3_PRESET", c.Media.S3.Preset)
	c.Media.S3.PublicURL = envOrDefault("S3_PUBLIC_URL", c.Media.S3.PublicURL)

	c.Log.Level = envOrDefault("LOG_LEVEL", c.Log.Level)

	var err error
	if c.Server.Port, err = envInt("PORT", c.Server.Port); err != nil {
		return err
	}
	if c.Server.ShutdownTimeout, err = envDuration("SHUTDOWN_TIMEOUT", c.Server.ShutdownTimeout); err != nil {
		return err
	}
	if c.Store.Pooled, err = envBool("MONGO_POOLED", c.Store.Pooled); err != nil {
		return err
	}
	if c.Store.ConnectTimeout, err = envDuration("MONGO_CONNECT_TIMEOUT", c.Store.ConnectTimeout); err != nil {
		return err
	}
	if c.Media.S3.UseSSL, err = envBool("S3_USE_SSL", c.Media.S3.UseSSL); err != nil {
		return err
	}
	if c.Log.Pretty, err = envBool("LOG_PRETTY", c.Log.Pretty); err != nil {
		return err
	}

	return nil
}

// Validate reports every problem with the configuration
func (c *Config) Validate() error {
	return errors.Join(c.ValidateServer(), c.ValidateStore(), c.ValidateMedia())
}

func (c *Config) ValidateServer() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Server.Port)
	}
	return nil
}

// ValidateStore checks the content store settings. Without a valid store the blog routes
// cannot serve anything.
func (c *Config) ValidateStore() error {
	switch c.Store.Backend {
	case StoreMemory:
		return nil
	case StoreMongo:
		if c.Store.URI == "" {
			return fmt.Errorf("%w: MONGO_URL", ErrMissingConfig)
		}
		if c.Store.Database == "" {
			return fmt.Errorf("%w: MONGO_DATABASE", ErrMissingConfig)
		}
		return nil
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
}

// ValidateMedia checks the image upload settings. Without valid media settings posts can
// still be created, just not with an image.
func (c *Config) ValidateMedia() error {
	switch c.Media.Backend {
	case MediaCloudinary:
		if c.Media.Cloudinary.CloudName == "" {
			return fmt.Errorf("%w: CLOUDINARY_CLOUD_NAME", ErrMissingConfig)
		}
		if c.Media.Cloudinary.UploadPreset == "" {
			return fmt.Errorf("%w: CLOUDINARY_UPLOAD_PRESET", ErrMissingConfig)
		}
		return nil
	case MediaS3:
		if c.Media.S3.Endpoint == "" {
			return fmt.Errorf("%w: S3_ENDPOINT", ErrMissingConfig)
		}
		if c.Media.S3.Bucket == "" {
			return fmt.Errorf("%w: S3_BUCKET", ErrMissingConfig)
		}
		return nil
	default:
		return fmt.Errorf("unknown media backend %q", c.Media.Backend)
	}
}

// Addr returns the server listen address (host:port).
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// envOrDefault reads an environment variable, returning a fallback if unset or empty.
func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return n, nil
}

func envBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return b, nil
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return d, nil
}
