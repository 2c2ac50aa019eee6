package oidc

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwk"
)

// defaultJWKSTTL is how long a fetched key set stays valid.
const defaultJWKSTTL = 1 * time.Hour

// JWKSManager fetches and caches the signing key set for the configured
// provider. The provider is fixed at startup, so a single cached set with
// a TTL is enough.
type JWKSManager struct {
	jwksURL string
	ttl     time.Duration

	mu      sync.RWMutex
	keys    jwk.Set
	expires time.Time
}

// NewJWKSManager creates a manager for one JWKS endpoint.
func NewJWKSManager(jwksURL string) *JWKSManager {
	return &JWKSManager{
		jwksURL: jwksURL,
		ttl:     defaultJWKSTTL,
	}
}

// Keys returns the cached key set, refetching when the TTL has lapsed.
func (m *JWKSManager) Keys(ctx context.Context) (jwk.Set, error) {
	m.mu.RLock()
	if m.keys != nil && time.Now().Before(m.expires) {
		keys := m.keys
		m.mu.RUnlock()
		return keys, nil
	}
	m.mu.RUnlock()

	keys, err := m.fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch JWKS: %w", err)
	}

	m.mu.Lock()
	m.keys = keys
	m.expires = time.Now().Add(m.ttl)
	m.mu.Unlock()

	return keys, nil
}

func (m *JWKSManager) fetch(ctx context.Context) (jwk.Set, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.jwksURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch JWKS: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("JWKS endpoint returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read JWKS response: %w", err)
	}

	keys, err := jwk.Parse(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse JWKS: %w", err)
	}

	return keys, nil
}
