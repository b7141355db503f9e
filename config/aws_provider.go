package config

import (
	"context"
	"os"
)

// AWSConfigProvider implements Provider by reading keys from AWS Secrets
// Manager first and falling back to environment variables for keys the
// secret does not carry.
type AWSConfigProvider struct {
	secretsProvider Provider
	envProvider     Provider
}

// NewAWSConfigProvider combines a secrets provider with an environment fallback
func NewAWSConfigProvider(secrets Provider, env Provider) *AWSConfigProvider {
	return &AWSConfigProvider{
		secretsProvider: secrets,
		envProvider:     env,
	}
}

// NewProvider returns an AWS-backed provider when AWS_SECRET_NAME is set and
// an environment provider otherwise.
func NewProvider(ctx context.Context) (Provider, error) {
	env := NewEnvProvider("")

	secretName := os.Getenv("AWS_SECRET_NAME")
	if secretName == "" {
		return env, nil
	}

	secrets, err := NewAWSSecretsProvider(ctx, secretName)
	if err != nil {
		return nil, err
	}
	return NewAWSConfigProvider(secrets, env), nil
}

// GetEnvironment returns the current environment
func (p *AWSConfigProvider) GetEnvironment() Environment {
	return p.secretsProvider.GetEnvironment()
}

// GetString retrieves a string configuration value
func (p *AWSConfigProvider) GetString(ctx context.Context, key string) (string, error) {
	if value, err := p.secretsProvider.GetString(ctx, key); err == nil {
		return value, nil
	}
	return p.envProvider.GetString(ctx, key)
}

// GetInt retrieves an integer configuration value
func (p *AWSConfigProvider) GetInt(ctx context.Context, key string) (int, error) {
	if value, err := p.secretsProvider.GetInt(ctx, key); err == nil {
		return value, nil
	}
	return p.envProvider.GetInt(ctx, key)
}

// GetBool retrieves a boolean configuration value
func (p *AWSConfigProvider) GetBool(ctx context.Context, key string) (bool, error) {
	if value, err := p.secretsProvider.GetBool(ctx, key); err == nil {
		return value, nil
	}
	return p.envProvider.GetBool(ctx, key)
}

// GetSecret retrieves a secret value. Secrets never fall back to the environment.
func (p *AWSConfigProvider) GetSecret(ctx context.Context, key string) (string, error) {
	return p.secretsProvider.GetSecret(ctx, key)
}
