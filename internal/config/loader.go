// loader.go implements the configuration loading lifecycle.
//
// The loading sequence is:
//  1. Enforce UTC timezone to prevent drift bugs in date-window math.
//  2. Load a .env file via godotenv (non-fatal if absent).
//  3. Resolve the secret bundle via the SecretProvider and inject values
//     into the environment, without overriding values already set there.
//  4. Process envconfig struct tags into the Config struct.
//  5. Validate the struct with go-playground/validator.
package config

import (
	"context"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"collector/internal/types"
)

// envLookup matches os.LookupEnv, injectable for testing.
type envLookup func(key string) (string, bool)

// envSet matches os.Setenv, injectable for testing.
type envSet func(key, value string) error

// loaderDeps holds the injectable environment access for the loader,
// enabling tests that do not mutate global state.
type loaderDeps struct {
	lookupEnv envLookup
	setEnv    envSet
}

func defaultDeps() loaderDeps {
	return loaderDeps{
		lookupEnv: os.LookupEnv,
		setEnv:    os.Setenv,
	}
}

// LoadConfig loads and validates the collector configuration. The provider
// resolves the secret bundle identified by secretID; pass an EnvVarProvider
// for local runs. Secret-retrieval failure is fatal and returns an AppError
// with ErrCodeSecretRetrieval.
func LoadConfig(ctx context.Context, provider SecretProvider, secretID string) (*Config, error) {
	return loadConfigWithDeps(ctx, provider, secretID, defaultDeps())
}

func loadConfigWithDeps(ctx context.Context, provider SecretProvider, secretID string, deps loaderDeps) (*Config, error) {
	// Step 1: all date-window math (crtDt, year injection) is UTC.
	time.Local = time.UTC

	// Step 2: .env for local development. Does not override existing vars.
	_ = godotenv.Load()

	// Step 3: resolve the secret bundle. Environment wins over the bundle so
	// operators can override individual values without editing the secret.
	if provider != nil {
		bundle, err := provider.GetSecretBundle(ctx, secretID)
		if err != nil {
			return nil, types.NewAppError(
				types.ErrCodeSecretRetrieval,
				"failed to retrieve secret bundle",
				err,
			)
		}
		for key, value := range bundle {
			if _, exists := deps.lookupEnv(key); exists {
				continue
			}
			if err := deps.setEnv(key, value); err != nil {
				return nil, types.NewAppError(
					types.ErrCodeSecretRetrieval,
					"failed to inject secret value into environment",
					err,
				)
			}
		}
	}

	// Step 4: envconfig with empty prefix reads the exact tag names.
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, types.NewAppError(
			types.ErrCodeConfigInvalid,
			"failed to process environment configuration",
			err,
		)
	}

	// Step 5: validate.
	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return nil, types.NewAppError(
			types.ErrCodeConfigInvalid,
			"configuration validation failed",
			err,
		)
	}

	return &cfg, nil
}
