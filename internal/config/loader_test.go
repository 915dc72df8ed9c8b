package config

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"collector/internal/types"
)

// stubProvider returns a canned bundle or error.
type stubProvider struct {
	bundle map[string]string
	err    error
	gotID  string
}

func (s *stubProvider) GetSecretBundle(_ context.Context, secretID string) (map[string]string, error) {
	s.gotID = secretID
	if s.err != nil {
		return nil, s.err
	}
	return s.bundle, nil
}

func validBundle() map[string]string {
	return map[string]string{
		"ADMIN_ACCESS_TOKEN":               "token-abc",
		"API_SERVER_BASE_URL":              "https://api.daepiro.example.com",
		"DISASTER_MESSAGE_API_URL":         "https://safetydata.example.go.kr/V2/api/DSSP-IF-00247",
		"DISASTER_MESSAGE_API_SERVICE_KEY": "svc-key",
		"DISASTER_NEWS_URL":                "https://news.example.com/disaster",
	}
}

// testDeps routes the loader's env injection through t.Setenv so values are
// cleaned up after each test.
func testDeps(t *testing.T) loaderDeps {
	t.Helper()
	deps := defaultDeps()
	deps.setEnv = func(key, value string) error {
		t.Setenv(key, value)
		return nil
	}
	return deps
}

func TestLoadConfigFromBundle(t *testing.T) {
	provider := &stubProvider{bundle: validBundle()}

	cfg, err := loadConfigWithDeps(context.Background(), provider, "daepiro", testDeps(t))
	require.NoError(t, err)
	require.Equal(t, "daepiro", provider.gotID)

	require.Equal(t, "https://api.daepiro.example.com", cfg.Collector.BaseURL)
	require.Equal(t, "token-abc", cfg.Collector.AccessToken.Unmask())
	require.Equal(t, "skip", cfg.Collector.MissPolicy)
	require.Equal(t, 200, cfg.Disaster.PageSize)
	require.Equal(t, 5, cfg.Disaster.MaxPages)
	require.Equal(t, "https://news.example.com/disaster", cfg.News.PageURL)
}

func TestLoadConfigEnvWinsOverBundle(t *testing.T) {
	t.Setenv("API_SERVER_BASE_URL", "https://staging.daepiro.example.com")
	provider := &stubProvider{bundle: validBundle()}

	cfg, err := loadConfigWithDeps(context.Background(), provider, "daepiro", testDeps(t))
	require.NoError(t, err)
	require.Equal(t, "https://staging.daepiro.example.com", cfg.Collector.BaseURL)
}

func TestLoadConfigSecretFailureIsFatal(t *testing.T) {
	provider := &stubProvider{err: errors.New("AccessDeniedException")}

	_, err := loadConfigWithDeps(context.Background(), provider, "daepiro", testDeps(t))
	require.Error(t, err)

	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, types.ErrCodeSecretRetrieval, appErr.Code)
}

func TestLoadConfigMissingRequiredValue(t *testing.T) {
	bundle := validBundle()
	delete(bundle, "DISASTER_NEWS_URL")
	provider := &stubProvider{bundle: bundle}

	_, err := loadConfigWithDeps(context.Background(), provider, "daepiro", testDeps(t))
	require.Error(t, err)

	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, types.ErrCodeConfigInvalid, appErr.Code)
}

func TestLoadConfigRejectsUnknownMissPolicy(t *testing.T) {
	t.Setenv("WATERMARK_MISS_POLICY", "yolo")
	provider := &stubProvider{bundle: validBundle()}

	_, err := loadConfigWithDeps(context.Background(), provider, "daepiro", testDeps(t))
	require.Error(t, err)
}

func TestLoadConfigAcceptsForwardAllPolicy(t *testing.T) {
	t.Setenv("WATERMARK_MISS_POLICY", "forward_all")
	provider := &stubProvider{bundle: validBundle()}

	cfg, err := loadConfigWithDeps(context.Background(), provider, "daepiro", testDeps(t))
	require.NoError(t, err)
	require.Equal(t, "forward_all", cfg.Collector.MissPolicy)
}
