// Package config defines the configuration for the data-collector Lambdas.
// Configuration is loaded once per invocation cold start and is immutable
// thereafter; there is no process-wide mutable secret cache.
//
// Values are resolved via a priority chain:
//
//	OS Environment (highest) -> Dotenv file -> AWS Secrets Manager (lowest)
//
// A missing required value or invalid format aborts the invocation
// immediately (fail fast).
package config

import (
	"time"

	"collector/internal/types"
)

// SecretString is an alias for types.SecretString, the redacted secret type
// used for the admin token and the upstream service key.
type SecretString = types.SecretString

// DefaultSecretID is the Secrets Manager secret holding the collector bundle.
const DefaultSecretID = "daepiro"

// Config is the top-level configuration for both pollers. Sub-components
// receive only the subsets they require.
type Config struct {
	Environment string `envconfig:"APP_ENV" default:"prod" validate:"required,oneof=local dev staging prod"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	AWSRegion   string `envconfig:"AWS_REGION" default:"ap-northeast-2"`

	// HTTPTimeout bounds every outbound round trip.
	HTTPTimeout time.Duration `envconfig:"HTTP_TIMEOUT" default:"10s"`

	// MetricsEnabled gates CloudWatch metric emission; off for local runs.
	MetricsEnabled bool `envconfig:"METRICS_ENABLED" default:"true"`

	Collector CollectorConfig
	Disaster  DisasterConfig
	News      NewsConfig
}

// CollectorConfig holds the destination datacollector API settings.
type CollectorConfig struct {
	BaseURL     string       `envconfig:"API_SERVER_BASE_URL" validate:"required,url"`
	AccessToken SecretString `envconfig:"ADMIN_ACCESS_TOKEN" validate:"required"`

	// MissPolicy decides fail-open vs fail-closed when the high-water mark
	// cannot be resolved: "skip" publishes nothing, "forward_all" forwards
	// everything unfiltered.
	MissPolicy string `envconfig:"WATERMARK_MISS_POLICY" default:"skip" validate:"oneof=skip forward_all"`
}

// DisasterConfig holds the upstream disaster-alert API settings.
type DisasterConfig struct {
	APIURL     string       `envconfig:"DISASTER_MESSAGE_API_URL" validate:"required,url"`
	ServiceKey SecretString `envconfig:"DISASTER_MESSAGE_API_SERVICE_KEY" validate:"required"`
	PageSize   int          `envconfig:"DISASTER_PAGE_SIZE" default:"200" validate:"min=1,max=200"`
	MaxPages   int          `envconfig:"DISASTER_MAX_PAGES" default:"5" validate:"min=1"`
}

// NewsConfig holds the disaster-news page settings.
type NewsConfig struct {
	PageURL string `envconfig:"DISASTER_NEWS_URL" validate:"required,url"`
}
