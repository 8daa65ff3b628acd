package config

import (
	"fmt"
	"log"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port  string `envconfig:"PORT" default:"8080"`
	Debug bool   `envconfig:"DEBUG" default:"false"`

	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`

	RedisAddr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	// ContentKey derives the AES key sealing stored sentences. The
	// salt must stay stable across restarts or nothing decrypts.
	ContentKey  string `envconfig:"CONTENT_KEY" required:"true"`
	ContentSalt string `envconfig:"CONTENT_SALT" required:"true"`

	// AuthSecret signs access tokens. Rotating it invalidates every
	// issued token.
	AuthSecret string `envconfig:"AUTH_SECRET" required:"true"`

	MaxUploadBytes int64 `envconfig:"MAX_UPLOAD_BYTES" default:"26214400"`

	WorkingSetTTLSeconds int `envconfig:"WORKING_SET_TTL_SECONDS" default:"7200"`
	StagingTTLSeconds    int `envconfig:"STAGING_TTL_SECONDS" default:"3600"`

	S3Endpoint  string `envconfig:"S3_ENDPOINT"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY_ID"`
	S3SecretKey string `envconfig:"S3_SECRET_ACCESS_KEY"`
	S3Bucket    string `envconfig:"S3_BUCKET" default:"doclink-uploads"`
	S3Region    string `envconfig:"S3_REGION" default:"us-east-1"`

	OpenAIAPIKey string `envconfig:"OPENAI_API_KEY"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("DOCLINK", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

func (c *Config) HasS3() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

func (c *Config) HasOpenAI() bool {
	return c.OpenAIAPIKey != ""
}
