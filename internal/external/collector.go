package external

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"collector/internal/types"
)

// collectorCodeOK is the application-level success code returned by the
// datacollector API alongside HTTP 200.
const collectorCodeOK = 1000

// CollectorConfig holds the configuration for creating a CollectorClient.
type CollectorConfig struct {
	BaseURL      string
	AccessToken  types.SecretString
	InvocationID string // sent as Idempotency-Key on batch writes
	Logger       *slog.Logger
}

// CollectorClient talks to the platform datacollector API: it resolves the
// high-water mark for each pipeline and submits batch writes. All failures
// (transport, non-2xx, application code != 1000) surface as errors; callers
// treat a failed watermark read as "mark absent" and a failed publish as a
// logged, non-fatal condition.
type CollectorClient struct {
	base         *BaseClient
	baseURL      string
	accessToken  types.SecretString
	invocationID string
	logger       *slog.Logger
}

// NewCollectorClient creates a CollectorClient with its own BaseClient using
// the default retry policy.
func NewCollectorClient(httpClient *http.Client, cfg CollectorConfig) *CollectorClient {
	base := NewBaseClient(
		httpClient,
		"datacollector",
		DefaultRetryPolicy(),
		"daepiro-collector/1.0",
	)
	return NewCollectorClientWithBase(base, cfg)
}

// NewCollectorClientWithBase creates a CollectorClient with a pre-configured
// BaseClient. Used by tests to disable retries.
func NewCollectorClientWithBase(base *BaseClient, cfg CollectorConfig) *CollectorClient {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &CollectorClient{
		base:         base,
		baseURL:      strings.TrimSuffix(cfg.BaseURL, "/"),
		accessToken:  cfg.AccessToken,
		invocationID: cfg.InvocationID,
		logger:       logger,
	}
}

// apiEnvelope is the response shape of the datacollector GET endpoints. The
// disaster endpoints additionally wrap it in an application code; the news
// endpoints carry bare data and signal failure by HTTP status alone.
type apiEnvelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// LatestDisasterID fetches the serial number of the most recently accepted
// disaster message. Any failure means "no watermark available".
func (c *CollectorClient) LatestDisasterID(ctx context.Context) (int64, error) {
	env, err := c.get(ctx, "/v1/datacollector/disasters/latest", true)
	if err != nil {
		return 0, err
	}

	var data struct {
		MessageID int64 `json:"messageId"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return 0, types.NewAppError(
			types.ErrCodeCollectorRejected,
			"failed to decode latest disaster response",
			err,
		)
	}
	return data.MessageID, nil
}

// LatestNewsPublishedAt fetches the publish timestamp of the most recently
// accepted news article. Any failure means "no watermark available".
func (c *CollectorClient) LatestNewsPublishedAt(ctx context.Context) (time.Time, error) {
	env, err := c.get(ctx, "/v1/datacollector/news/latest", false)
	if err != nil {
		return time.Time{}, err
	}

	var data struct {
		PublishedAt string `json:"publishedAt"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return time.Time{}, types.NewAppError(
			types.ErrCodeCollectorRejected,
			"failed to decode latest news response",
			err,
		)
	}

	ts, err := types.ParseCollectorTime(data.PublishedAt)
	if err != nil {
		return time.Time{}, types.NewAppError(
			types.ErrCodeCollectorRejected,
			fmt.Sprintf("unparseable publishedAt %q in latest news response", data.PublishedAt),
			err,
		)
	}
	return ts, nil
}

// PublishDisasters submits the filtered disaster batch as a single POST.
func (c *CollectorClient) PublishDisasters(ctx context.Context, records []types.DisasterRecord) error {
	payload := struct {
		Disasters []types.DisasterRecord `json:"disasters"`
	}{Disasters: records}

	c.logger.InfoContext(ctx, "publishing disaster batch",
		"count", len(records),
	)
	return c.post(ctx, "/v1/datacollector/disasters", payload, true)
}

// PublishNews submits the filtered news batch as a single POST.
func (c *CollectorClient) PublishNews(ctx context.Context, records []types.NewsRecord) error {
	payload := struct {
		News []types.NewsRecord `json:"news"`
	}{News: records}

	c.logger.InfoContext(ctx, "publishing news batch",
		"count", len(records),
	)
	return c.post(ctx, "/v1/datacollector/news", payload, false)
}

// get performs an authorized GET and decodes the response envelope. HTTP
// success is always enforced; checkCode additionally requires the disaster
// endpoints' code == 1000.
func (c *CollectorClient) get(ctx context.Context, path string, checkCode bool) (*apiEnvelope, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, types.NewAppError(
			types.ErrCodeInternalUnexpected,
			"failed to create datacollector request",
			err,
		)
	}
	c.setHeaders(req)

	resp, err := c.base.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	return c.decodeEnvelope(resp, path, checkCode)
}

// post performs an authorized JSON POST. HTTP success is always enforced;
// checkCode additionally requires the disaster endpoints' code == 1000. The
// news write returns no envelope, so its body is not decoded.
func (c *CollectorClient) post(ctx context.Context, path string, payload any, checkCode bool) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return types.NewAppError(
			types.ErrCodeInternalUnexpected,
			"failed to serialize datacollector payload",
			err,
		)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return types.NewAppError(
			types.ErrCodeInternalUnexpected,
			"failed to create datacollector request",
			err,
		)
	}
	c.setHeaders(req)
	if c.invocationID != "" {
		req.Header.Set("Idempotency-Key", c.invocationID)
	}

	resp, err := c.base.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if !checkCode {
		return c.checkStatus(resp, path)
	}
	if _, err := c.decodeEnvelope(resp, path, true); err != nil {
		return err
	}
	return nil
}

// checkStatus enforces HTTP-level success.
func (c *CollectorClient) checkStatus(resp *http.Response, path string) error {
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Drain a bounded amount of the body for the error message.
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return types.NewAppError(
			types.ErrCodeCollectorRejected,
			fmt.Sprintf("datacollector %s returned HTTP %d: %s", path, resp.StatusCode, strings.TrimSpace(string(snippet))),
			nil,
		)
	}
	return nil
}

// decodeEnvelope validates HTTP status and decodes the body; with checkCode
// it also requires the application code 1000.
func (c *CollectorClient) decodeEnvelope(resp *http.Response, path string, checkCode bool) (*apiEnvelope, error) {
	if err := c.checkStatus(resp, path); err != nil {
		return nil, err
	}

	var env apiEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, types.NewAppError(
			types.ErrCodeCollectorRejected,
			fmt.Sprintf("failed to decode datacollector %s response", path),
			err,
		)
	}

	if checkCode && env.Code != collectorCodeOK {
		return nil, types.NewAppError(
			types.ErrCodeCollectorRejected,
			fmt.Sprintf("datacollector %s returned application code %d: %s", path, env.Code, env.Message),
			nil,
		)
	}
	return &env, nil
}

// setHeaders applies the bearer token and content type to every request.
func (c *CollectorClient) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.accessToken.Unmask())
	req.Header.Set("Content-Type", "application/json")
}
