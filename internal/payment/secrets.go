package payment

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
)

// secretCache holds the credential after the first successful fetch.
// Write-once-then-read-only for the process lifetime; no rotation.
type secretCache struct {
	mu     sync.Mutex
	secret string
	loaded bool
}

func (c *secretCache) get(ctx context.Context, source SecretSource) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.loaded {
		return c.secret, nil
	}

	secret, err := source.Secret(ctx)
	if err != nil {
		return "", err
	}

	c.secret = secret
	c.loaded = true
	return secret, nil
}

// StaticSecret is a SecretSource holding a literal value. Used in tests and
// when the secret arrives through configuration directly.
type StaticSecret string

func (s StaticSecret) Secret(ctx context.Context) (string, error) {
	if s == "" {
		return "", fmt.Errorf("gateway secret is empty")
	}
	return string(s), nil
}

// FileSecret reads the credential from a mounted secret file on first use.
type FileSecret string

func (f FileSecret) Secret(ctx context.Context) (string, error) {
	raw, err := os.ReadFile(string(f))
	if err != nil {
		return "", fmt.Errorf("failed to read secret file: %w", err)
	}

	secret := strings.TrimSpace(string(raw))
	if secret == "" {
		return "", fmt.Errorf("secret file %s is empty", f)
	}
	return secret, nil
}
