package sync

import (
	"context"
	"log/slog"
	"sort"

	"collector/internal/normalize"
	"collector/internal/types"
)

// PipelineDisasters is the metric dimension value for the alert pipeline.
const PipelineDisasters = "disasters"

// DisasterSource fetches today's alerts from the upstream disaster API.
// Implemented by sources.SafetyDataClient.
type DisasterSource interface {
	// FetchSince returns today's alerts, stopping pagination once the
	// watermark is reached. Failures degrade to an empty slice.
	FetchSince(ctx context.Context, watermark *int64) []types.DisasterMessage
}

// DisasterCollector is the destination API surface the alert pipeline needs.
// Implemented by external.CollectorClient.
type DisasterCollector interface {
	// LatestDisasterID resolves the high-water mark (most recently accepted
	// serial number). Any error means "mark absent".
	LatestDisasterID(ctx context.Context) (int64, error)
	// PublishDisasters submits the filtered batch as a single POST.
	PublishDisasters(ctx context.Context, records []types.DisasterRecord) error
}

// DisasterSyncerConfig holds the configuration for creating a DisasterSyncer.
type DisasterSyncerConfig struct {
	Source       DisasterSource
	Collector    DisasterCollector
	MissPolicy   MissPolicy
	Metrics      Metrics
	InvocationID string
	Logger       *slog.Logger
}

// DisasterSyncer runs the alert pipeline: watermark resolution, delta
// filtering by serial number, per-location record expansion with address
// normalization, descending sort, and one batch publish.
type DisasterSyncer struct {
	source       DisasterSource
	collector    DisasterCollector
	missPolicy   MissPolicy
	metrics      Metrics
	invocationID string
	logger       *slog.Logger
}

// NewDisasterSyncer creates a DisasterSyncer with the given configuration.
func NewDisasterSyncer(cfg DisasterSyncerConfig) *DisasterSyncer {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = NopMetrics{}
	}
	missPolicy := cfg.MissPolicy
	if !missPolicy.Valid() {
		missPolicy = MissSkip
	}
	return &DisasterSyncer{
		source:       cfg.Source,
		collector:    cfg.Collector,
		missPolicy:   missPolicy,
		metrics:      metrics,
		invocationID: cfg.InvocationID,
		logger:       logger,
	}
}

// Sync performs one alert sync cycle. Every stage failure degrades: a missed
// watermark applies the MissPolicy, a failed fetch yields an empty batch, and
// a failed publish is logged. Sync never returns an error to the Lambda
// runtime; the Result reports what happened.
func (s *DisasterSyncer) Sync(ctx context.Context) Result {
	result := Result{InvocationID: s.invocationID}

	var mark *int64
	latest, err := s.collector.LatestDisasterID(ctx)
	if err != nil {
		s.metrics.RecordWatermarkMiss(ctx, PipelineDisasters)
		if s.missPolicy == MissSkip {
			s.logger.ErrorContext(ctx, "watermark unavailable, skipping cycle",
				"policy", string(s.missPolicy),
				"error", err,
			)
			result.NoContent = true
			return result
		}
		s.logger.ErrorContext(ctx, "watermark unavailable, forwarding unfiltered",
			"policy", string(s.missPolicy),
			"error", err,
		)
	} else {
		mark = &latest
		s.logger.InfoContext(ctx, "resolved disaster watermark",
			"message_id", latest,
		)
	}

	messages := s.source.FetchSince(ctx, mark)
	result.Fetched = len(messages)
	s.metrics.RecordFetched(ctx, PipelineDisasters, len(messages))

	fresh := FilterNewer(messages, func(m types.DisasterMessage) int64 { return m.SerialNo }, mark)
	result.Eligible = len(fresh)

	// Most recent first, matching the destination's ingestion expectation.
	sort.Slice(fresh, func(i, j int) bool {
		return fresh[i].SerialNo > fresh[j].SerialNo
	})

	records := s.buildRecords(ctx, fresh)
	if len(records) == 0 {
		s.logger.InfoContext(ctx, "no new disaster messages to publish")
		result.NoContent = true
		return result
	}

	if err := s.collector.PublishDisasters(ctx, records); err != nil {
		s.metrics.RecordPublishFailure(ctx, PipelineDisasters)
		s.logger.ErrorContext(ctx, "disaster batch publish failed",
			"count", len(records),
			"error", err,
		)
		return result
	}

	result.Published = len(records)
	s.metrics.RecordPublished(ctx, PipelineDisasters, len(records))
	s.logger.InfoContext(ctx, "disaster batch published",
		"count", len(records),
	)
	return result
}

// buildRecords expands each alert into one record per receiving location,
// normalizing addresses and converting timestamps. Alerts with an
// unparseable timestamp are dropped with a warning rather than poisoning
// the whole batch.
func (s *DisasterSyncer) buildRecords(ctx context.Context, messages []types.DisasterMessage) []types.DisasterRecord {
	var records []types.DisasterRecord
	for _, msg := range messages {
		generatedAt, err := normalize.AlertTimeToISO(msg.CreatedAt)
		if err != nil {
			s.logger.WarnContext(ctx, "dropping alert with unparseable timestamp",
				"serial_no", msg.SerialNo,
				"created_at", msg.CreatedAt,
				"error", err,
			)
			continue
		}

		for _, location := range normalize.SplitLocations(msg.Region) {
			records = append(records, types.DisasterRecord{
				GeneratedAt:  generatedAt,
				MessageID:    msg.SerialNo,
				Message:      msg.Message,
				LocationStr:  location,
				DisasterType: msg.DisasterType,
			})
		}
	}
	return records
}
