// Package telemetry emits sync-outcome metrics to CloudWatch. Emission
// failures are logged and swallowed; metrics must never fail a sync cycle.
package telemetry

import (
	"context"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

// MetricNamespace is the CloudWatch namespace for both pollers.
const MetricNamespace = "Daepiro/DataCollector"

// Metric names emitted per pipeline.
const (
	MetricRecordsFetched   = "RecordsFetched"
	MetricRecordsPublished = "RecordsPublished"
	MetricWatermarkMiss    = "WatermarkMiss"
	MetricPublishFailure   = "PublishFailure"
)

// dimPipeline is the single dimension on every metric: "disasters" or "news".
const dimPipeline = "Pipeline"

// CloudWatchClient abstracts the PutMetricData operation for testability.
type CloudWatchClient interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// CloudWatchMetrics implements the sync.Metrics seam by publishing counts to
// CloudWatch with a Pipeline dimension.
type CloudWatchMetrics struct {
	client CloudWatchClient
	logger *slog.Logger
}

// NewCloudWatchMetrics creates a CloudWatchMetrics publishing to
// MetricNamespace.
func NewCloudWatchMetrics(client CloudWatchClient, logger *slog.Logger) *CloudWatchMetrics {
	if logger == nil {
		logger = slog.Default()
	}
	return &CloudWatchMetrics{
		client: client,
		logger: logger,
	}
}

// RecordFetched emits the number of records retrieved from upstream.
func (m *CloudWatchMetrics) RecordFetched(ctx context.Context, pipeline string, count int) {
	m.put(ctx, MetricRecordsFetched, pipeline, float64(count))
}

// RecordPublished emits the number of records accepted by the destination.
func (m *CloudWatchMetrics) RecordPublished(ctx context.Context, pipeline string, count int) {
	m.put(ctx, MetricRecordsPublished, pipeline, float64(count))
}

// RecordWatermarkMiss emits one count when the high-water mark could not be
// resolved. An alarm on this metric surfaces destination outages.
func (m *CloudWatchMetrics) RecordWatermarkMiss(ctx context.Context, pipeline string) {
	m.put(ctx, MetricWatermarkMiss, pipeline, 1)
}

// RecordPublishFailure emits one count when a batch write failed.
func (m *CloudWatchMetrics) RecordPublishFailure(ctx context.Context, pipeline string) {
	m.put(ctx, MetricPublishFailure, pipeline, 1)
}

func (m *CloudWatchMetrics) put(ctx context.Context, name, pipeline string, value float64) {
	input := &cloudwatch.PutMetricDataInput{
		Namespace: aws.String(MetricNamespace),
		MetricData: []cwtypes.MetricDatum{
			{
				MetricName: aws.String(name),
				Value:      aws.Float64(value),
				Unit:       cwtypes.StandardUnitCount,
				Dimensions: []cwtypes.Dimension{
					{
						Name:  aws.String(dimPipeline),
						Value: aws.String(pipeline),
					},
				},
			},
		},
	}

	if _, err := m.client.PutMetricData(ctx, input); err != nil {
		m.logger.ErrorContext(ctx, "failed to emit metric",
			"metric", name,
			"pipeline", pipeline,
			"error", err,
		)
	}
}
