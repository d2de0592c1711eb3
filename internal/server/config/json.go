package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/notsy/internal/flagx"
	"github.com/dmitrijs2005/notsy/internal/timex"
)

// JsonConfig is the on-disk shape of the configuration file. Fields are
// pointers so that keys missing from the file leave the current values
// untouched.
type JsonConfig struct {
	EndpointAddrHTTP   *string         `json:"endpoint_addr_http"`
	DatabaseDSN        *string         `json:"database_dsn"`
	StorageMode        *string         `json:"storage_mode"`
	DatabaseIAMAuth    *bool           `json:"database_iam_auth"`
	ClientID           *string         `json:"client_id"`
	S3RootUser         *string         `json:"s3_root_user"`
	S3RootPassword     *string         `json:"s3_root_password"`
	S3Bucket           *string         `json:"s3_bucket"`
	S3Region           *string         `json:"s3_region"`
	S3BaseEndpoint     *string         `json:"s3_base_endpoint"`
	S3PublicURL        *string         `json:"s3_public_url"`
	MaxImageBytes      *int64          `json:"max_image_bytes"`
	RateLimitRPS       *int            `json:"rate_limit_rps"`
	RateLimitBurst     *int            `json:"rate_limit_burst"`
	CORSAllowedOrigins *string         `json:"cors_allowed_origins"`
	ShutdownTimeout    *timex.Duration `json:"shutdown_timeout"`
	LogLevel           *string         `json:"log_level"`
}

// parseJson loads configuration values from the JSON file named by the -c or
// -config flag. Without either flag nothing is loaded. An unreadable file or
// invalid JSON panics: the server must not start on a half-read config.
func parseJson(config *Config) {
	path := flagx.ConfigFileFlag()
	if path == "" {
		return
	}

	file, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	c.apply(config)
}

func (c *JsonConfig) apply(config *Config) {
	setIf(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setIf(&config.DatabaseDSN, c.DatabaseDSN)
	setIf(&config.StorageMode, c.StorageMode)
	setIf(&config.DatabaseIAMAuth, c.DatabaseIAMAuth)
	setIf(&config.ClientID, c.ClientID)
	setIf(&config.S3RootUser, c.S3RootUser)
	setIf(&config.S3RootPassword, c.S3RootPassword)
	setIf(&config.S3Bucket, c.S3Bucket)
	setIf(&config.S3Region, c.S3Region)
	setIf(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setIf(&config.S3PublicURL, c.S3PublicURL)
	setIf(&config.MaxImageBytes, c.MaxImageBytes)
	setIf(&config.RateLimitRPS, c.RateLimitRPS)
	setIf(&config.RateLimitBurst, c.RateLimitBurst)
	setIf(&config.CORSAllowedOrigins, c.CORSAllowedOrigins)
	setIf(&config.LogLevel, c.LogLevel)
	if c.ShutdownTimeout != nil {
		config.ShutdownTimeout = c.ShutdownTimeout.Duration
	}
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}
