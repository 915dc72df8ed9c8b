package config

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

// secretsManagerClient is the subset of the Secrets Manager SDK client used
// by SecretsManagerProvider. This interface enables testing with a mock.
type secretsManagerClient interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// SecretsManagerProvider implements SecretProvider by fetching a single JSON
// secret from AWS Secrets Manager and decoding it into a flat string map.
// This is the provider for deployed environments; the secret lives in the
// same region as the running Lambda.
type SecretsManagerProvider struct {
	region string

	// client is the Secrets Manager API client. If nil, a client is created
	// lazily using the configured region.
	client secretsManagerClient
}

// NewSecretsManagerProvider creates a provider for the specified AWS region.
func NewSecretsManagerProvider(region string) *SecretsManagerProvider {
	return &SecretsManagerProvider{
		region: region,
	}
}

// newSecretsManagerProviderWithClient creates a provider with an injected
// client. Used for testing.
func newSecretsManagerProviderWithClient(region string, client secretsManagerClient) *SecretsManagerProvider {
	return &SecretsManagerProvider{
		region: region,
		client: client,
	}
}

// ensureClient initializes the Secrets Manager client if needed.
func (p *SecretsManagerProvider) ensureClient(ctx context.Context) error {
	if p.client != nil {
		return nil
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(p.region),
	)
	if err != nil {
		return fmt.Errorf("loading AWS config for Secrets Manager (region=%s): %w", p.region, err)
	}

	p.client = secretsmanager.NewFromConfig(cfg)
	return nil
}

// GetSecretBundle fetches the secret value for secretID and decodes its
// SecretString as a JSON object of string values.
func (p *SecretsManagerProvider) GetSecretBundle(ctx context.Context, secretID string) (map[string]string, error) {
	if err := p.ensureClient(ctx); err != nil {
		return nil, err
	}

	out, err := p.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(secretID),
	})
	if err != nil {
		return nil, fmt.Errorf("Secrets Manager GetSecretValue (%s): %w", secretID, err)
	}

	if out.SecretString == nil {
		return nil, fmt.Errorf("secret %s has no string payload", secretID)
	}

	var bundle map[string]string
	if err := json.Unmarshal([]byte(*out.SecretString), &bundle); err != nil {
		return nil, fmt.Errorf("decoding secret %s as JSON object: %w", secretID, err)
	}

	return bundle, nil
}
