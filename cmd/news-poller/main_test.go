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

// stubSource returns canned articles.
type stubSource struct {
	articles []types.NewsArticle
}

func (s *stubSource) FetchArticles(_ context.Context) []types.NewsArticle {
	return s.articles
}

// collectorStub is an httptest-backed datacollector API.
type collectorStub struct {
	latestBody   string
	published    []types.NewsRecord
	publishCalls int
}

func (c *collectorStub) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/v1/datacollector/news/latest":
			w.Write([]byte(c.latestBody))
		case r.Method == http.MethodPost && r.URL.Path == "/v1/datacollector/news":
			c.publishCalls++
			var body struct {
				News []types.NewsRecord `json:"news"`
			}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Errorf("decoding publish body: %v", err)
			}
			c.published = body.News
			w.WriteHeader(http.StatusOK)
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

func article(title string) types.NewsArticle {
	return types.NewsArticle{
		Title:      title,
		CreatedAt:  "03-15 14:30",
		Subtitle:   "부제목",
		ArticleURL: "https://news.example.com/" + title,
	}
}

func TestHandlerPublishesNewArticles(t *testing.T) {
	// Watermark far in the past: every scraped article qualifies. The news
	// endpoints carry bare data, no application-code envelope.
	stub := &collectorStub{latestBody: `{"data":{"publishedAt":"2000-01-01T00:00:00"}}`}
	server := httptest.NewServer(stub.handler(t))
	defer server.Close()

	handler := newHandler(
		testConfig(server.URL),
		&http.Client{Timeout: 5 * time.Second},
		&stubSource{articles: []types.NewsArticle{article("a"), article("b")}},
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
	if len(stub.published) != 2 || stub.published[0].Title != "a" {
		t.Errorf("published = %v, want both articles in source order", stub.published)
	}
}

func TestHandlerNoNewArticles(t *testing.T) {
	// Watermark far in the future: nothing qualifies, no POST happens.
	stub := &collectorStub{latestBody: `{"data":{"publishedAt":"2100-01-01T00:00:00"}}`}
	server := httptest.NewServer(stub.handler(t))
	defer server.Close()

	handler := newHandler(
		testConfig(server.URL),
		&http.Client{Timeout: 5 * time.Second},
		&stubSource{articles: []types.NewsArticle{article("a")}},
		syncer.NopMetrics{},
		slog.Default(),
	)

	summary, err := handler(context.Background(), SyncInput{})
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if summary != "no new articles to send" {
		t.Errorf("summary = %q, want distinct no-content message", summary)
	}
	if stub.publishCalls != 0 {
		t.Errorf("publish calls = %d, want 0", stub.publishCalls)
	}
}

func TestHandlerWatermarkMissSkips(t *testing.T) {
	// A latest response without data yields no usable watermark.
	stub := &collectorStub{latestBody: `{"message":"service unavailable"}`}
	server := httptest.NewServer(stub.handler(t))
	defer server.Close()

	handler := newHandler(
		testConfig(server.URL),
		&http.Client{Timeout: 5 * time.Second},
		&stubSource{articles: []types.NewsArticle{article("a")}},
		syncer.NopMetrics{},
		slog.Default(),
	)

	summary, err := handler(context.Background(), SyncInput{})
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if summary != "no new articles to send" {
		t.Errorf("summary = %q", summary)
	}
	if stub.publishCalls != 0 {
		t.Errorf("publish calls = %d, want 0 under skip policy", stub.publishCalls)
	}
}
