// Package sync implements the incremental-sync dedup protocol shared by both
// pollers: resolve the destination's high-water mark, fetch a bounded batch
// from upstream, forward only the records strictly newer than the mark, and
// submit them as one batch write. The mark is owned by the destination API;
// no state is kept between invocations.
package sync

import (
	"cmp"
	"context"
)

// MissPolicy decides what happens when the high-water mark cannot be
// resolved. Absence of a mark is ambiguous: it can mean "the destination is
// empty" or "the resolver failed", and the two demand opposite reactions.
type MissPolicy string

const (
	// MissSkip publishes nothing when the mark is absent. A skipped cycle is
	// healed by the next scheduled run; duplicates are not. Default.
	MissSkip MissPolicy = "skip"

	// MissForwardAll forwards every fetched record unfiltered when the mark
	// is absent. This is the legacy at-least-once behavior and relies on the
	// destination tolerating duplicates.
	MissForwardAll MissPolicy = "forward_all"
)

// Valid reports whether p is a known policy.
func (p MissPolicy) Valid() bool {
	return p == MissSkip || p == MissForwardAll
}

// Result summarizes one sync invocation for logging and the Lambda response.
type Result struct {
	InvocationID string
	Fetched      int  // records retrieved from upstream
	Eligible     int  // records strictly newer than the mark
	Published    int  // records accepted into the batch write
	NoContent    bool // true when there was nothing to publish
}

// FilterNewer returns the records whose ordering key is strictly greater
// than mark, preserving input order. A nil mark passes every record through
// (no filtering possible).
func FilterNewer[T any, K cmp.Ordered](records []T, key func(T) K, mark *K) []T {
	if mark == nil {
		return records
	}
	var fresh []T
	for _, r := range records {
		if key(r) > *mark {
			fresh = append(fresh, r)
		}
	}
	return fresh
}

// Metrics is the telemetry seam for sync outcomes. Implementations must not
// fail the sync; emission errors are theirs to swallow and log.
type Metrics interface {
	RecordFetched(ctx context.Context, pipeline string, count int)
	RecordPublished(ctx context.Context, pipeline string, count int)
	RecordWatermarkMiss(ctx context.Context, pipeline string)
	RecordPublishFailure(ctx context.Context, pipeline string)
}

// NopMetrics is a Metrics implementation that discards everything.
type NopMetrics struct{}

func (NopMetrics) RecordFetched(context.Context, string, int)   {}
func (NopMetrics) RecordPublished(context.Context, string, int) {}
func (NopMetrics) RecordWatermarkMiss(context.Context, string)  {}
func (NopMetrics) RecordPublishFailure(context.Context, string) {}
