package sources

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"collector/internal/external"
	"collector/internal/types"
)

// NewsScraperConfig holds the configuration for creating a NewsScraper.
type NewsScraperConfig struct {
	PageURL string
	Logger  *slog.Logger
}

// NewsScraper fetches the disaster-news page and extracts article entries via
// CSS selectors. Source order is preserved; no reordering guarantee is made.
type NewsScraper struct {
	base    *external.BaseClient
	pageURL string
	logger  *slog.Logger
}

// NewNewsScraper creates a NewsScraper with its own BaseClient.
func NewNewsScraper(httpClient *http.Client, cfg NewsScraperConfig) *NewsScraper {
	base := external.NewBaseClient(
		httpClient,
		"newspage",
		external.DefaultRetryPolicy(),
		"daepiro-collector/1.0",
	)
	return NewNewsScraperWithBase(base, cfg)
}

// NewNewsScraperWithBase creates a NewsScraper with a pre-configured
// BaseClient. Used by tests to disable retries.
func NewNewsScraperWithBase(base *external.BaseClient, cfg NewsScraperConfig) *NewsScraper {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &NewsScraper{
		base:    base,
		pageURL: cfg.PageURL,
		logger:  logger,
	}
}

// FetchArticles retrieves the news page and parses its article list.
// Selectors follow the page structure: each <article> carries the publish
// time in span.tt, the title and link in h3.tit-news a, the subtitle in
// p.lead, and an optional thumbnail in figure.img-con img.
//
// Articles missing a title or publish time are skipped with a warning. Any
// transport or parse failure logs the condition and returns an empty slice;
// it never returns an error.
func (s *NewsScraper) FetchArticles(ctx context.Context) []types.NewsArticle {
	doc, err := s.fetchDocument(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "news page fetch failed",
			"url", s.pageURL,
			"error", err,
		)
		return nil
	}

	var articles []types.NewsArticle
	doc.Find("article").Each(func(i int, sel *goquery.Selection) {
		createdAt := strings.TrimSpace(sel.Find("span.tt").First().Text())
		titleTag := sel.Find("h3.tit-news a").First()
		title := strings.TrimSpace(titleTag.Text())
		articleURL, _ := titleTag.Attr("href")
		subtitle := strings.TrimSpace(sel.Find("p.lead").First().Text())

		if title == "" || createdAt == "" {
			s.logger.WarnContext(ctx, "skipping malformed article entry",
				"index", i,
				"has_title", title != "",
				"has_created_at", createdAt != "",
			)
			return
		}

		thumbnailURL, _ := sel.Find("figure.img-con img").First().Attr("src")

		articles = append(articles, types.NewsArticle{
			Title:        title,
			CreatedAt:    createdAt,
			Subtitle:     subtitle,
			ArticleURL:   articleURL,
			ThumbnailURL: thumbnailURL,
		})
	})

	s.logger.InfoContext(ctx, "fetched news articles",
		"count", len(articles),
	)
	return articles
}

// fetchDocument GETs the news page and parses it into a goquery document.
func (s *NewsScraper) fetchDocument(ctx context.Context) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.pageURL, nil)
	if err != nil {
		return nil, types.NewAppError(
			types.ErrCodeInternalUnexpected,
			"failed to create news page request",
			err,
		)
	}

	resp, err := s.base.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, types.NewAppError(
			types.ErrCodeSourceBadResponse,
			fmt.Sprintf("news page returned HTTP %d", resp.StatusCode),
			nil,
		)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, types.NewAppError(
			types.ErrCodeSourceBadResponse,
			"failed to parse news page HTML",
			err,
		)
	}
	return doc, nil
}
