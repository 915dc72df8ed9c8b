package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"collector/internal/config"
	syncer "collector/internal/sync"
	"collector/internal/types"
)

// stubSource returns canned alerts.
type stubSource struct {
	messages []types.DisasterMessage
}

func (s *stubSource) FetchSince(_ context.Context, _ *int64) []types.DisasterMessage {
	return s.messages
}

// collectorStub is an httptest-backed datacollector API.
type collectorStub struct {
	latestBody   string
	published    []types.DisasterRecord
	publishCalls int
}

func (c *collectorStub) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/v1/datacollector/disasters/latest":
			w.Write([]byte(c.latestBody))
		case r.Method == http.MethodPost && r.URL.Path == "/v1/datacollector/disasters":
			c.publishCalls++
			var body struct {
				Disasters []types.DisasterRecord `json:"disasters"`
			}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Errorf("decoding publish body: %v", err)
			}
			c.published = body.Disasters
			w.Write([]byte(`{"code":1000}`))
		default:
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}
}

func testConfig(baseURL string) *config.Config {
	return &config.Config{
		Environment: "local",
		Collector: config.CollectorConfig{
			BaseURL:     baseURL,
			AccessToken: "test-token",
			MissPolicy:  "skip",
		},
	}
}

func alert(sn int64) types.DisasterMessage {
	return types.DisasterMessage{
		SerialNo:     sn,
		Message:      "호우주의보",
		Region:       "서울특별시",
		CreatedAt:    "2024/07/01 08:30:00",
		DisasterType: "호우",
	}
}

func TestHandlerPublishesDelta(t *testing.T) {
	stub := &collectorStub{latestBody: `{"code":1000,"data":{"messageId":1050}}`}
	server := httptest.NewServer(stub.handler(t))
	defer server.Close()

	handler := newHandler(
		testConfig(server.URL),
		&http.Client{Timeout: 5 * time.Second},
		&stubSource{messages: []types.DisasterMessage{alert(1049), alert(1051), alert(1052)}},
		syncer.NopMetrics{},
		slog.Default(),
	)

	summary, err := handler(context.Background(), SyncInput{})
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if !strings.Contains(summary, "published=2") {
		t.Errorf("summary = %q, want published=2", summary)
	}
	if stub.publishCalls != 1 {
		t.Errorf("publish calls = %d, want 1", stub.publishCalls)
	}
	if len(stub.published) != 2 || stub.published[0].MessageID != 1052 {
		t.Errorf("published = %v, want [1052, 1051]", stub.published)
	}
}

func TestHandlerMissPolicyOverride(t *testing.T) {
	// Application error on the latest endpoint: watermark absent.
	stub := &collectorStub{latestBody: `{"code":5000,"message":"down"}`}
	server := httptest.NewServer(stub.handler(t))
	defer server.Close()

	handler := newHandler(
		testConfig(server.URL),
		&http.Client{Timeout: 5 * time.Second},
		&stubSource{messages: []types.DisasterMessage{alert(1), alert(2)}},
		syncer.NopMetrics{},
		slog.Default(),
	)

	// Configured policy is skip; the override forwards everything.
	summary, err := handler(context.Background(), SyncInput{MissPolicy: "forward_all"})
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	// 2 alerts x 1 location each, nothing filtered.
	if !strings.Contains(summary, "published=2") {
		t.Errorf("summary = %q, want published=2", summary)
	}
	if stub.publishCalls != 1 {
		t.Errorf("publish calls = %d, want 1 under forward_all", stub.publishCalls)
	}
	if len(stub.published) != 2 {
		t.Errorf("published %d records, want both alerts forwarded", len(stub.published))
	}
}

func TestHandlerSkipPolicyPublishesNothing(t *testing.T) {
	stub := &collectorStub{latestBody: `{"code":5000,"message":"down"}`}
	server := httptest.NewServer(stub.handler(t))
	defer server.Close()

	handler := newHandler(
		testConfig(server.URL),
		&http.Client{Timeout: 5 * time.Second},
		&stubSource{messages: []types.DisasterMessage{alert(1)}},
		syncer.NopMetrics{},
		slog.Default(),
	)

	if _, err := handler(context.Background(), SyncInput{}); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if stub.publishCalls != 0 {
		t.Errorf("publish calls = %d, want 0 under skip policy", stub.publishCalls)
	}
}
