package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// LoadConfig reads the YAML config, layers secrets from the environment on
// top, and validates the result. A .env file next to the working directory is
// honored when present.
func LoadConfig(filePath string) (*Config, error) {
	// Missing .env is fine, real deployments set the environment directly.
	_ = godotenv.Load()

	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation error: %w", err)
	}

	return &cfg, nil
}

// applyEnv fills the secret-bearing fields. Environment always wins over the
// YAML file so credentials never have to live on disk.
func applyEnv(cfg *Config) {
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		cfg.Storage.DSN = dsn
	}
	if v := os.Getenv("AWS_ACCESS_KEY_ID"); v != "" {
		cfg.Media.S3.AccessKey = v
	}
	if v := os.Getenv("AWS_SECRET_ACCESS_KEY"); v != "" {
		cfg.Media.S3.SecretKey = v
	}
	if v := os.Getenv("S3_BUCKET_NAME"); v != "" {
		cfg.Media.S3.Bucket = v
	}
	if v := os.Getenv("S3_ENDPOINT_URL"); v != "" {
		cfg.Media.S3.Endpoint = v
	}
	if v := os.Getenv("CLOUDINARY_URL"); v != "" {
		cfg.Media.Cloudinary.URL = v
	}
}
