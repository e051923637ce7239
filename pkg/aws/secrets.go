package aws

import (
	"context"
	"fmt"
	"strings"
	"sync"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

type secretsAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// SecretsClient reads string secrets stored under a common name prefix
// (e.g. "storefront/") and keeps them for the process lifetime.
type SecretsClient struct {
	client secretsAPI
	prefix string
	values sync.Map
}

func NewSecretsClient(cfg sdkaws.Config, prefix string) *SecretsClient {
	return &SecretsClient{client: secretsmanager.NewFromConfig(cfg), prefix: prefix}
}

func (s *SecretsClient) secretID(key string) string {
	if s.prefix == "" || strings.HasPrefix(key, s.prefix) {
		return key
	}
	return s.prefix + key
}

// GetSecret returns the secret stored as prefix+key.
func (s *SecretsClient) GetSecret(ctx context.Context, key string) (string, error) {
	id := s.secretID(key)
	if v, ok := s.values.Load(id); ok {
		return v.(string), nil
	}

	out, err := s.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{SecretId: sdkaws.String(id)})
	if err != nil {
		return "", fmt.Errorf("failed to get secret %s: %w", id, err)
	}
	if out.SecretString == nil || *out.SecretString == "" {
		return "", fmt.Errorf("secret %s has no string value", id)
	}

	s.values.Store(id, *out.SecretString)
	return *out.SecretString, nil
}

// Lookup fetches every key and returns the ones that resolved. Missing or
// unreadable secrets are left out so callers keep their env fallback.
func (s *SecretsClient) Lookup(ctx context.Context, keys ...string) map[string]string {
	found := make(map[string]string, len(keys))
	for _, key := range keys {
		if v, err := s.GetSecret(ctx, key); err == nil {
			found[key] = v
		}
	}
	return found
}
