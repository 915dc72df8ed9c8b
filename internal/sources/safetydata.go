// Package sources implements the upstream fetchers: the government
// disaster-alert REST API and the disaster-news HTML page. Fetchers degrade
// to an empty result on any failure; the condition is logged and the
// invocation continues, per the pipeline's fail-soft contract.
package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"collector/internal/external"
	"collector/internal/types"
)

// DefaultPageSize is the upstream batch bound per request.
const DefaultPageSize = 200

// DefaultMaxPages caps the pagination loop so a backfill against a very
// chatty day cannot run the Lambda into its timeout.
const DefaultMaxPages = 5

// SafetyDataConfig holds the configuration for creating a SafetyDataClient.
type SafetyDataConfig struct {
	APIURL     string
	ServiceKey types.SecretString
	PageSize   int
	MaxPages   int
	Logger     *slog.Logger
	Now        func() time.Time // injectable clock; defaults to time.Now
}

// SafetyDataClient fetches recent cell-broadcast alerts from the
// disaster-alert API. Only alerts created today (crtDt) are requested;
// pagination walks most-recent-first pages until end of data, the page cap,
// or the caller's watermark is reached.
type SafetyDataClient struct {
	base       *external.BaseClient
	apiURL     string
	serviceKey types.SecretString
	pageSize   int
	maxPages   int
	logger     *slog.Logger
	now        func() time.Time
}

// NewSafetyDataClient creates a SafetyDataClient with its own BaseClient.
func NewSafetyDataClient(httpClient *http.Client, cfg SafetyDataConfig) *SafetyDataClient {
	base := external.NewBaseClient(
		httpClient,
		"safetydata",
		external.DefaultRetryPolicy(),
		"daepiro-collector/1.0",
	)
	return NewSafetyDataClientWithBase(base, cfg)
}

// NewSafetyDataClientWithBase creates a SafetyDataClient with a
// pre-configured BaseClient. Used by tests to disable retries.
func NewSafetyDataClientWithBase(base *external.BaseClient, cfg SafetyDataConfig) *SafetyDataClient {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	maxPages := cfg.MaxPages
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &SafetyDataClient{
		base:       base,
		apiURL:     cfg.APIURL,
		serviceKey: cfg.ServiceKey,
		pageSize:   pageSize,
		maxPages:   maxPages,
		logger:     logger,
		now:        now,
	}
}

// safetyDataResponse is the upstream response shape.
type safetyDataResponse struct {
	Header struct {
		ResultCode string `json:"resultCode"`
		ErrorMsg   string `json:"errorMsg"`
	} `json:"header"`
	Body []safetyDataRow `json:"body"`
}

// safetyDataRow is one alert row in the upstream response.
type safetyDataRow struct {
	SerialNo     int64  `json:"SN"`
	Message      string `json:"MSG_CN"`
	Region       string `json:"RCPTN_RGN_NM"`
	CreatedAt    string `json:"CRT_DT"`
	DisasterType string `json:"DST_SE_NM"`
}

// resultCodeOK is the upstream application-level success code.
const resultCodeOK = "00"

// FetchSince returns today's alerts, paginating until end of data, the page
// cap, or a page containing a serial number at or below the watermark (pages
// arrive most-recent-first, so everything beyond that page is already known).
// A nil watermark bounds the fetch to a single page, since without a dedup
// boundary there is no safe stopping point for a deeper walk.
//
// Any transport or non-success condition logs the failure and returns the
// rows accumulated so far (possibly none); it never returns an error.
func (c *SafetyDataClient) FetchSince(ctx context.Context, watermark *int64) []types.DisasterMessage {
	maxPages := c.maxPages
	if watermark == nil {
		maxPages = 1
	}

	var all []types.DisasterMessage
	for pageNo := 1; pageNo <= maxPages; pageNo++ {
		rows, err := c.fetchPage(ctx, pageNo)
		if err != nil {
			c.logger.ErrorContext(ctx, "disaster alert fetch failed",
				"page", pageNo,
				"error", err,
			)
			return all
		}

		reachedMark := false
		for _, row := range rows {
			all = append(all, types.DisasterMessage(row))
			if watermark != nil && row.SerialNo <= *watermark {
				reachedMark = true
			}
		}

		if reachedMark {
			c.logger.InfoContext(ctx, "pagination reached watermark",
				"page", pageNo,
				"watermark", *watermark,
			)
			break
		}
		if len(rows) < c.pageSize {
			// Short page: end of today's data.
			break
		}
	}

	c.logger.InfoContext(ctx, "fetched disaster alerts",
		"count", len(all),
	)
	return all
}

// fetchPage requests a single page of today's alerts.
func (c *SafetyDataClient) fetchPage(ctx context.Context, pageNo int) ([]safetyDataRow, error) {
	params := url.Values{}
	params.Set("serviceKey", c.serviceKey.Unmask())
	params.Set("pageNo", fmt.Sprintf("%d", pageNo))
	params.Set("numOfRows", fmt.Sprintf("%d", c.pageSize))
	params.Set("crtDt", c.now().Format("20060102"))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, types.NewAppError(
			types.ErrCodeInternalUnexpected,
			"failed to create disaster alert request",
			err,
		)
	}

	resp, err := c.base.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, types.NewAppError(
			types.ErrCodeSourceBadResponse,
			fmt.Sprintf("disaster alert API returned HTTP %d", resp.StatusCode),
			nil,
		)
	}

	var payload safetyDataResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, types.NewAppError(
			types.ErrCodeSourceBadResponse,
			"failed to decode disaster alert response",
			err,
		)
	}

	if payload.Header.ResultCode != resultCodeOK {
		return nil, types.NewAppError(
			types.ErrCodeSourceBadResponse,
			fmt.Sprintf("disaster alert API returned result code %q: %s",
				payload.Header.ResultCode, payload.Header.ErrorMsg),
			nil,
		)
	}

	return payload.Body, nil
}
