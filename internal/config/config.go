// Package config loads the pipeline configuration from the environment,
// with .env file support for local runs.
package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
)

// Config is the process-wide configuration. CLI flags override the
// endpoint fields after Load.
type Config struct {
	ServiceName string
	LogLevel    string
	LogJSON     bool

	// APIEndpointURL is the root of the listing API.
	APIEndpointURL string

	// RequestTimeout bounds every network request; CompressTimeout bounds
	// each external tool invocation and is tracked separately because the
	// tools can be slower than the network.
	RequestTimeout  time.Duration
	CompressTimeout time.Duration

	Storage StorageConfig
}

// StorageConfig holds the object-storage settings. Credentials come from
// the conventional AWS environment variables.
type StorageConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Endpoint        string
	Timeout         time.Duration
}

// Load reads the configuration from the environment. A .env file in the
// working directory is applied first when present.
func Load() *Config {
	// Missing .env is fine; variables may be set directly.
	_ = godotenv.Load()

	return &Config{
		ServiceName: getEnv("SERVICE_NAME", "backupmpps"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogJSON:     getBool("LOG_JSON", false),

		APIEndpointURL: getEnv("EXTRAVIADOSMX_ENDPOINT_URL", "https://extraviados.mx"),

		RequestTimeout:  getDuration("REQUEST_TIMEOUT", "120s"),
		CompressTimeout: getDuration("COMPRESS_TIMEOUT", "120s"),

		Storage: StorageConfig{
			Region:          getEnv("AWS_REGION", "us-southeast-1"),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			Endpoint:        getEnv("S3_ENDPOINT_URL", "https://us-southeast-1.linodeobjects.com"),
			Timeout:         getDuration("STORAGE_TIMEOUT", "120s"),
		},
	}
}

// ValidateCredentials checks that the storage credentials are present.
func (c *Config) ValidateCredentials() error {
	if c.Storage.AccessKeyID == "" {
		return fmt.Errorf("no AWS_ACCESS_KEY_ID environment variable found")
	}
	if c.Storage.SecretAccessKey == "" {
		return fmt.Errorf("no AWS_SECRET_ACCESS_KEY environment variable found")
	}
	return nil
}
