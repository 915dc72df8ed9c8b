// Package types defines the shared domain model for the daepiro data-collector
// Lambdas: the records fetched from upstream sources, the wire DTOs accepted by
// the platform datacollector API, and the error taxonomy used across packages.
package types

import "time"

// CollectorTimeLayout is the second-precision ISO-8601 form (no zone, no
// fractional seconds) used by the datacollector API for generatedAt and
// publishedAt values.
const CollectorTimeLayout = "2006-01-02T15:04:05"

// SafetyDataTimeLayout is the timestamp layout used by the disaster-alert
// API for the CRT_DT field.
const SafetyDataTimeLayout = "2006/01/02 15:04:05"

// DisasterMessage is one cell-broadcast alert as returned by the upstream
// disaster-alert API. SerialNo is the monotonic ordering key used for delta
// filtering against the destination watermark.
type DisasterMessage struct {
	SerialNo     int64  // SN
	Message      string // MSG_CN
	Region       string // RCPTN_RGN_NM, possibly comma-separated multi-region
	CreatedAt    string // CRT_DT in SafetyDataTimeLayout
	DisasterType string // DST_SE_NM
}

// NewsArticle is one article scraped from the disaster-news page. CreatedAt
// carries the raw "MM-DD HH:MM" string from the page; the publish timestamp
// used as the ordering key is derived from it during normalization.
type NewsArticle struct {
	Title        string
	CreatedAt    string
	Subtitle     string
	ArticleURL   string
	ThumbnailURL string
}

// DisasterRecord is the wire shape of one alert row in the batch POST to
// /v1/datacollector/disasters. A single DisasterMessage expands into one
// record per receiving location.
type DisasterRecord struct {
	GeneratedAt  string `json:"generatedAt" validate:"required"`
	MessageID    int64  `json:"messageId" validate:"required"`
	Message      string `json:"message"`
	LocationStr  string `json:"locationStr"`
	DisasterType string `json:"disasterType"`
}

// NewsRecord is the wire shape of one article in the batch POST to
// /v1/datacollector/news.
type NewsRecord struct {
	Title        string `json:"title" validate:"required"`
	PublishedAt  string `json:"publishedAt" validate:"required"`
	Subtitle     string `json:"subtitle"`
	Body         string `json:"body"`
	ThumbnailURL string `json:"thumbnailUrl,omitempty"`
}

// ParseCollectorTime parses a CollectorTimeLayout timestamp.
func ParseCollectorTime(s string) (time.Time, error) {
	return time.Parse(CollectorTimeLayout, s)
}

// FormatCollectorTime renders t in CollectorTimeLayout.
func FormatCollectorTime(t time.Time) string {
	return t.Format(CollectorTimeLayout)
}
