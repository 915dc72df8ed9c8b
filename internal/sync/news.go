package sync

import (
	"context"
	"log/slog"
	"time"

	"collector/internal/normalize"
	"collector/internal/types"
)

// PipelineNews is the metric dimension value for the news pipeline.
const PipelineNews = "news"

// NewsSource fetches the article list from the disaster-news page.
// Implemented by sources.NewsScraper.
type NewsSource interface {
	// FetchArticles returns the scraped articles in source order.
	// Failures degrade to an empty slice.
	FetchArticles(ctx context.Context) []types.NewsArticle
}

// NewsCollector is the destination API surface the news pipeline needs.
// Implemented by external.CollectorClient.
type NewsCollector interface {
	// LatestNewsPublishedAt resolves the high-water mark (publish time of
	// the most recently accepted article). Any error means "mark absent".
	LatestNewsPublishedAt(ctx context.Context) (time.Time, error)
	// PublishNews submits the filtered batch as a single POST.
	PublishNews(ctx context.Context, records []types.NewsRecord) error
}

// NewsSyncerConfig holds the configuration for creating a NewsSyncer.
type NewsSyncerConfig struct {
	Source       NewsSource
	Collector    NewsCollector
	MissPolicy   MissPolicy
	Metrics      Metrics
	InvocationID string
	Logger       *slog.Logger
	Now          func() time.Time // injectable clock for year injection; defaults to time.Now
}

// NewsSyncer runs the news pipeline: watermark resolution, publish-time
// derivation from the page's year-less timestamps, delta filtering, and one
// batch publish. Source order is preserved; the pipeline never reorders.
type NewsSyncer struct {
	source       NewsSource
	collector    NewsCollector
	missPolicy   MissPolicy
	metrics      Metrics
	invocationID string
	logger       *slog.Logger
	now          func() time.Time
}

// NewNewsSyncer creates a NewsSyncer with the given configuration.
func NewNewsSyncer(cfg NewsSyncerConfig) *NewsSyncer {
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
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &NewsSyncer{
		source:       cfg.Source,
		collector:    cfg.Collector,
		missPolicy:   missPolicy,
		metrics:      metrics,
		invocationID: cfg.InvocationID,
		logger:       logger,
		now:          now,
	}
}

// timedArticle pairs an article with its derived publish time, the pipeline's
// ordering key.
type timedArticle struct {
	article     types.NewsArticle
	publishedAt time.Time
}

// Sync performs one news sync cycle. Failure handling mirrors the alert
// pipeline; an empty eligible set yields a distinct no-content result and no
// network write.
func (s *NewsSyncer) Sync(ctx context.Context) Result {
	result := Result{InvocationID: s.invocationID}

	var mark *int64
	latest, err := s.collector.LatestNewsPublishedAt(ctx)
	if err != nil {
		s.metrics.RecordWatermarkMiss(ctx, PipelineNews)
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
		unix := latest.Unix()
		mark = &unix
		s.logger.InfoContext(ctx, "resolved news watermark",
			"published_at", types.FormatCollectorTime(latest),
		)
	}

	articles := s.source.FetchArticles(ctx)
	result.Fetched = len(articles)
	s.metrics.RecordFetched(ctx, PipelineNews, len(articles))

	timed := s.deriveTimes(ctx, articles)
	fresh := FilterNewer(timed, func(a timedArticle) int64 { return a.publishedAt.Unix() }, mark)
	result.Eligible = len(fresh)

	if len(fresh) == 0 {
		s.logger.InfoContext(ctx, "no new articles to publish")
		result.NoContent = true
		return result
	}

	records := make([]types.NewsRecord, 0, len(fresh))
	for _, a := range fresh {
		records = append(records, types.NewsRecord{
			Title:        a.article.Title,
			PublishedAt:  types.FormatCollectorTime(a.publishedAt),
			Subtitle:     a.article.Subtitle,
			Body:         a.article.ArticleURL,
			ThumbnailURL: a.article.ThumbnailURL,
		})
	}

	if err := s.collector.PublishNews(ctx, records); err != nil {
		s.metrics.RecordPublishFailure(ctx, PipelineNews)
		s.logger.ErrorContext(ctx, "news batch publish failed",
			"count", len(records),
			"error", err,
		)
		return result
	}

	result.Published = len(records)
	s.metrics.RecordPublished(ctx, PipelineNews, len(records))
	s.logger.InfoContext(ctx, "news batch published",
		"count", len(records),
	)
	return result
}

// deriveTimes converts each article's year-less page timestamp into an
// absolute publish time. Articles with unparseable timestamps are dropped
// with a warning.
func (s *NewsSyncer) deriveTimes(ctx context.Context, articles []types.NewsArticle) []timedArticle {
	now := s.now()
	timed := make([]timedArticle, 0, len(articles))
	for _, a := range articles {
		publishedAt, err := normalize.ParseRelative(a.CreatedAt, now)
		if err != nil {
			s.logger.WarnContext(ctx, "dropping article with unparseable timestamp",
				"title", a.Title,
				"created_at", a.CreatedAt,
				"error", err,
			)
			continue
		}
		timed = append(timed, timedArticle{article: a, publishedAt: publishedAt})
	}
	return timed
}
