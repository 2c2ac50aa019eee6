package oidc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

// Client wraps OAuth2 client functionality for the configured provider.
type Client struct {
	config *oauth2.Config
	issuer string
}

// NewClient creates an OAuth2 client for the provider described by the
// issuer, client ID and redirect URI. The browser performs the code
// exchange with PKCE, so no client secret is held server-side.
func NewClient(issuer, clientID, redirectURI string) *Client {
	config := &oauth2.Config{
		ClientID:    clientID,
		RedirectURL: redirectURI,
		Scopes:      []string{"openid", "email", "profile"},
		Endpoint: oauth2.Endpoint{
			AuthURL:  endpointURL(issuer, "oauth2/authorize"),
			TokenURL: endpointURL(issuer, "oauth2/token"),
		},
	}

	return &Client{config: config, issuer: issuer}
}

// ExchangeCode exchanges an authorization code for tokens.
func (c *Client) ExchangeCode(ctx context.Context, code string) (*oauth2.Token, error) {
	return c.config.Exchange(ctx, code)
}

// AuthCodeURL returns the authorization URL.
func (c *Client) AuthCodeURL(state string) string {
	return c.config.AuthCodeURL(state)
}

// LoginConfig contains OIDC login configuration for the frontend.
type LoginConfig struct {
	AuthorizationEndpoint string `json:"authorization_endpoint"`
	TokenEndpoint         string `json:"token_endpoint"`
	ClientID              string `json:"client_id"`
	RedirectURI           string `json:"redirect_uri"`
	Scope                 string `json:"scope"`
}

// GetLoginConfig returns the configuration the frontend needs to start an
// authorization code flow. Endpoints come from the provider's discovery
// document when available, with an issuer-derived fallback.
func (c *Client) GetLoginConfig(ctx context.Context) (*LoginConfig, error) {
	authEndpoint := c.config.Endpoint.AuthURL
	tokenEndpoint := c.config.Endpoint.TokenURL

	discoveryURL := endpointURL(c.issuer, ".well-known/openid-configuration")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, discoveryURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create discovery request: %w", err)
	}

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	if err == nil && resp.StatusCode == http.StatusOK {
		var discovery struct {
			AuthorizationEndpoint string `json:"authorization_endpoint"`
			TokenEndpoint         string `json:"token_endpoint"`
		}
		if decodeErr := json.NewDecoder(resp.Body).Decode(&discovery); decodeErr == nil {
			if discovery.AuthorizationEndpoint != "" {
				authEndpoint = discovery.AuthorizationEndpoint
			}
			if discovery.TokenEndpoint != "" {
				tokenEndpoint = discovery.TokenEndpoint
			}
		}
	}
	if resp != nil {
		_ = resp.Body.Close()
	}

	return &LoginConfig{
		AuthorizationEndpoint: authEndpoint,
		TokenEndpoint:         tokenEndpoint,
		ClientID:              c.config.ClientID,
		RedirectURI:           c.config.RedirectURL,
		Scope:                 strings.Join(c.config.Scopes, " "),
	}, nil
}

func endpointURL(issuer, path string) string {
	return strings.TrimRight(issuer, "/") + "/" + path
}
