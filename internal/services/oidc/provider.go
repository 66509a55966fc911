// Package oidc verifies identity-provider tokens and runs the browser login flow.
package oidc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Config is the identity provider registration.
type Config struct {
	Issuer       string
	JWKSURL      string
	ClientID     string
	ClientSecret string
	RedirectURI  string
	// Audience, when set, must appear in the token's aud claim.
	Audience string
}

// Enabled reports whether an issuer is configured.
func (c Config) Enabled() bool {
	return c.Issuer != ""
}

// Endpoints are the provider URLs the server talks to.
type Endpoints struct {
	AuthorizationEndpoint string `json:"authorization_endpoint"`
	TokenEndpoint         string `json:"token_endpoint"`
	JWKSURI               string `json:"jwks_uri"`
}

// FallbackEndpoints derives endpoints from the issuer URL alone.
func FallbackEndpoints(issuer string) Endpoints {
	base := strings.TrimSuffix(issuer, "/")
	return Endpoints{
		AuthorizationEndpoint: base + "/oauth2/authorize",
		TokenEndpoint:         base + "/oauth2/token",
		JWKSURI:               base + "/.well-known/jwks.json",
	}
}

// Discover fetches the issuer's openid-configuration document.
func Discover(ctx context.Context, client *http.Client, issuer string) (Endpoints, error) {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	discoveryURL := strings.TrimSuffix(issuer, "/") + "/.well-known/openid-configuration"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, discoveryURL, nil)
	if err != nil {
		return Endpoints{}, fmt.Errorf("failed to create discovery request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return Endpoints{}, fmt.Errorf("failed to fetch discovery document: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return Endpoints{}, fmt.Errorf("discovery endpoint returned status %d", resp.StatusCode)
	}
	var e Endpoints
	if err := json.NewDecoder(resp.Body).Decode(&e); err != nil {
		return Endpoints{}, fmt.Errorf("failed to decode discovery document: %w", err)
	}
	return e, nil
}

// ResolveEndpoints prefers discovery, fills gaps from the issuer URL, and lets an
// explicit JWKS URL win over both.
func ResolveEndpoints(ctx context.Context, client *http.Client, cfg Config) (Endpoints, error) {
	fallback := FallbackEndpoints(cfg.Issuer)
	e, err := Discover(ctx, client, cfg.Issuer)
	if e.AuthorizationEndpoint == "" {
		e.AuthorizationEndpoint = fallback.AuthorizationEndpoint
	}
	if e.TokenEndpoint == "" {
		e.TokenEndpoint = fallback.TokenEndpoint
	}
	if e.JWKSURI == "" {
		e.JWKSURI = fallback.JWKSURI
	}
	if cfg.JWKSURL != "" {
		e.JWKSURI = cfg.JWKSURL
	}
	return e, err
}
