package config

import "context"

// SecretProvider abstracts retrieval of the collector secret bundle to
// support both AWS Secrets Manager (deployed environments) and plain
// environment variables (local development). The bundle is a flat
// key -> value mapping carrying the admin token, destination base URL, and
// upstream source parameters.
type SecretProvider interface {
	// GetSecretBundle retrieves the secret mapping identified by secretID.
	// Implementations return an error on any retrieval or decode failure;
	// secret failures are fatal to the invocation.
	GetSecretBundle(ctx context.Context, secretID string) (map[string]string, error)
}
