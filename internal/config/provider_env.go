package config

import (
	"context"
	"os"
)

// secretBundleKeys are the keys expected in the collector secret bundle.
var secretBundleKeys = []string{
	"ADMIN_ACCESS_TOKEN",
	"API_SERVER_BASE_URL",
	"DISASTER_MESSAGE_API_URL",
	"DISASTER_MESSAGE_API_SERVICE_KEY",
	"DISASTER_NEWS_URL",
}

// EnvVarProvider implements SecretProvider by reading the bundle keys
// directly from OS environment variables. This is the provider for local
// development where values come from the shell or a .env file, bypassing
// AWS Secrets Manager.
type EnvVarProvider struct{}

// NewEnvVarProvider creates a new EnvVarProvider.
func NewEnvVarProvider() *EnvVarProvider {
	return &EnvVarProvider{}
}

// GetSecretBundle resolves each bundle key via os.LookupEnv. Keys missing
// from the environment are omitted; required-field validation during config
// load reports them. The secretID is ignored.
func (p *EnvVarProvider) GetSecretBundle(_ context.Context, _ string) (map[string]string, error) {
	bundle := make(map[string]string, len(secretBundleKeys))
	for _, key := range secretBundleKeys {
		if val, ok := os.LookupEnv(key); ok {
			bundle[key] = val
		}
	}
	return bundle, nil
}
