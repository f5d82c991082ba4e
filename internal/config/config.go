package config

import (
	"fmt"
	"os"

	"github.com/wb-go/wbf/config"
	"github.com/wb-go/wbf/zlog"
)

type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Upload       UploadConfig       `mapstructure:"upload"`
	Compression  CompressionConfig  `mapstructure:"compression"`
	Segmentation SegmentationConfig `mapstructure:"segmentation"`
	Countdown    CountdownConfig    `mapstructure:"countdown"`
	BlobStore    BlobStoreConfig    `mapstructure:"blobstore"`
	Logging      LoggingConfig      `mapstructure:"logging"`
}

type ServerConfig struct {
	Addr               string `mapstructure:"addr"`
	ShutdownTimeoutSec int    `mapstructure:"shutdown_timeout_sec"`
	ReadTimeoutSec     int    `mapstructure:"read_timeout_sec"`
	WriteTimeoutSec    int    `mapstructure:"write_timeout_sec"`
}

type UploadConfig struct {
	MaxSizeMB    int      `mapstructure:"max_size_mb"`
	AllowedTypes []string `mapstructure:"allowed_types"`
}

type CompressionConfig struct {
	MaxDimension int    `mapstructure:"max_dimension"`
	Quality      int    `mapstructure:"quality"`
	OutputFormat string `mapstructure:"output_format"`
}

type SegmentationConfig struct {
	Endpoint   string `mapstructure:"endpoint"`
	Model      string `mapstructure:"model"`
	TimeoutSec int    `mapstructure:"timeout_sec"`
}

type CountdownConfig struct {
	Budget  int `mapstructure:"budget"`
	TickSec int `mapstructure:"tick_sec"`
}

type BlobStoreConfig struct {
	Type string `mapstructure:"type"`

	S3Endpoint  string `mapstructure:"s3_endpoint"`
	S3AccessKey string `mapstructure:"s3_access_key"`
	S3SecretKey string `mapstructure:"s3_secret_key"`
	S3Bucket    string `mapstructure:"s3_bucket"`
	S3Region    string `mapstructure:"s3_region"`
	S3UseSSL    bool   `mapstructure:"s3_use_ssl"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

func Load(path string) (*Config, error) {
	cfg := config.New()

	configPath := path
	if configPath == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			configPath = "config.yaml"
		} else if _, err := os.Stat("/app/config.yaml"); err == nil {
			configPath = "/app/config.yaml"
		} else {
			return nil, fmt.Errorf("config.yaml not found")
		}
	}

	envPath := ".env"
	if _, err := os.Stat(envPath); os.IsNotExist(err) {
		envPath = ""
	}

	if err := cfg.Load(configPath, envPath, "APP"); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	appConfig := &Config{}
	if err := cfg.Unmarshal(appConfig); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(appConfig); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	zlog.Logger.Info().
		Str("addr", appConfig.Server.Addr).
		Int("max_upload_size_mb", appConfig.Upload.MaxSizeMB).
		Int("compression_max_dimension", appConfig.Compression.MaxDimension).
		Str("segmentation_endpoint", appConfig.Segmentation.Endpoint).
		Str("segmentation_model", appConfig.Segmentation.Model).
		Str("blobstore_type", appConfig.BlobStore.Type).
		Msg("Config loaded successfully via wbf")

	return appConfig, nil
}

func validateConfig(cfg *Config) error {
	// Server
	if cfg.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if cfg.Server.ShutdownTimeoutSec <= 0 {
		return fmt.Errorf("server.shutdown_timeout_sec must be positive")
	}
	if cfg.Server.ReadTimeoutSec <= 0 {
		return fmt.Errorf("server.read_timeout_sec must be positive")
	}
	if cfg.Server.WriteTimeoutSec <= 0 {
		return fmt.Errorf("server.write_timeout_sec must be positive")
	}

	// Upload
	if cfg.Upload.MaxSizeMB <= 0 {
		return fmt.Errorf("upload.max_size_mb must be positive")
	}
	if len(cfg.Upload.AllowedTypes) == 0 {
		return fmt.Errorf("upload.allowed_types must contain at least one MIME type")
	}

	// Compression
	if cfg.Compression.MaxDimension <= 0 {
		return fmt.Errorf("compression.max_dimension must be positive")
	}
	if cfg.Compression.Quality <= 0 || cfg.Compression.Quality > 100 {
		return fmt.Errorf("compression.quality must be in 1..100")
	}
	if cfg.Compression.OutputFormat != "jpeg" && cfg.Compression.OutputFormat != "png" {
		return fmt.Errorf("compression.output_format must be 'jpeg' or 'png'")
	}

	// Segmentation
	if cfg.Segmentation.Endpoint == "" {
		return fmt.Errorf("segmentation.endpoint is required")
	}
	if cfg.Segmentation.Model == "" {
		return fmt.Errorf("segmentation.model is required")
	}
	if cfg.Segmentation.TimeoutSec <= 0 {
		return fmt.Errorf("segmentation.timeout_sec must be positive")
	}

	// Countdown
	if cfg.Countdown.Budget <= 0 {
		return fmt.Errorf("countdown.budget must be positive")
	}
	if cfg.Countdown.TickSec <= 0 {
		return fmt.Errorf("countdown.tick_sec must be positive")
	}

	// Blob store
	if cfg.BlobStore.Type != "memory" && cfg.BlobStore.Type != "s3" {
		return fmt.Errorf("blobstore.type must be 'memory' or 's3'")
	}
	if cfg.BlobStore.Type == "s3" {
		if cfg.BlobStore.S3Endpoint == "" {
			return fmt.Errorf("blobstore.s3_endpoint is required for s3 blob store")
		}
		if cfg.BlobStore.S3Bucket == "" {
			return fmt.Errorf("blobstore.s3_bucket is required for s3 blob store")
		}
		if cfg.BlobStore.S3AccessKey == "" || cfg.BlobStore.S3SecretKey == "" {
			return fmt.Errorf("blobstore.s3_access_key and blobstore.s3_secret_key are required for s3 blob store")
		}
	}

	if cfg.Logging.Level == "" {
		return fmt.Errorf("logging.level is required")
	}

	return nil
}
