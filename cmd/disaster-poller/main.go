// Package main is the entrypoint for the disaster-alert poller Lambda.
//
// The poller runs on a schedule. Each invocation resolves the destination's
// high-water mark (latest accepted messageId), fetches today's cell-broadcast
// alerts from the government disaster-alert API, and forwards only the alerts
// strictly newer than the mark as one batch write.
//
// This file handles dependency wiring (cold start) and delegates the sync
// logic to internal/sync (DisasterSyncer.Sync).
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/google/uuid"

	"collector/internal/config"
	"collector/internal/external"
	"collector/internal/sources"
	syncer "collector/internal/sync"
	"collector/internal/telemetry"
)

// SyncInput is the optional manual-invoke payload. It overrides the
// configured watermark-miss policy for one invocation, e.g. to force a
// forward_all backfill after a destination outage.
type SyncInput struct {
	MissPolicy string `json:"miss_policy"`
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	logger.Info("disaster poller initializing (cold start)")

	ctx := context.Background()

	cfg, err := config.LoadConfig(ctx, newSecretProvider(), secretID())
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	source := sources.NewSafetyDataClient(httpClient, sources.SafetyDataConfig{
		APIURL:     cfg.Disaster.APIURL,
		ServiceKey: cfg.Disaster.ServiceKey,
		PageSize:   cfg.Disaster.PageSize,
		MaxPages:   cfg.Disaster.MaxPages,
		Logger:     logger,
	})

	metrics := newMetrics(ctx, cfg, logger)

	logger.Info("disaster poller initialized",
		"environment", cfg.Environment,
		"page_size", cfg.Disaster.PageSize,
		"max_pages", cfg.Disaster.MaxPages,
		"miss_policy", cfg.Collector.MissPolicy,
	)

	lambda.Start(newHandler(cfg, httpClient, source, metrics, logger))
}

// newHandler creates the Lambda handler. The collector client and syncer are
// constructed per invocation so that each carries a fresh invocation id as
// its idempotency key.
func newHandler(
	cfg *config.Config,
	httpClient *http.Client,
	source syncer.DisasterSource,
	metrics syncer.Metrics,
	logger *slog.Logger,
) func(ctx context.Context, input SyncInput) (string, error) {
	return func(ctx context.Context, input SyncInput) (string, error) {
		invocationID := uuid.NewString()

		missPolicy := syncer.MissPolicy(cfg.Collector.MissPolicy)
		if override := syncer.MissPolicy(input.MissPolicy); override.Valid() {
			missPolicy = override
			logger.InfoContext(ctx, "miss policy overridden for this invocation",
				"policy", string(override),
			)
		}

		collectorClient := external.NewCollectorClient(httpClient, external.CollectorConfig{
			BaseURL:      cfg.Collector.BaseURL,
			AccessToken:  cfg.Collector.AccessToken,
			InvocationID: invocationID,
			Logger:       logger,
		})

		s := syncer.NewDisasterSyncer(syncer.DisasterSyncerConfig{
			Source:       source,
			Collector:    collectorClient,
			MissPolicy:   missPolicy,
			Metrics:      metrics,
			InvocationID: invocationID,
			Logger:       logger,
		})

		result := s.Sync(ctx)

		summary := fmt.Sprintf("sync complete: fetched=%d eligible=%d published=%d",
			result.Fetched, result.Eligible, result.Published)
		logger.InfoContext(ctx, summary,
			"invocation_id", result.InvocationID,
			"no_content", result.NoContent,
		)
		return summary, nil
	}
}

// newSecretProvider picks the secret source by environment: Secrets Manager
// in deployed environments, plain env vars locally.
func newSecretProvider() config.SecretProvider {
	if os.Getenv("APP_ENV") == "local" {
		return config.NewEnvVarProvider()
	}
	return config.NewSecretsManagerProvider(os.Getenv("AWS_REGION"))
}

// secretID returns the Secrets Manager secret id, overridable via SECRET_ID.
func secretID() string {
	if id := os.Getenv("SECRET_ID"); id != "" {
		return id
	}
	return config.DefaultSecretID
}

// newMetrics wires CloudWatch metrics, or a no-op sink when disabled.
func newMetrics(ctx context.Context, cfg *config.Config, logger *slog.Logger) syncer.Metrics {
	if !cfg.MetricsEnabled {
		return syncer.NopMetrics{}
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		logger.Error("failed to load AWS SDK config, metrics disabled", "error", err)
		return syncer.NopMetrics{}
	}
	return telemetry.NewCloudWatchMetrics(cloudwatch.NewFromConfig(awsCfg), logger)
}
