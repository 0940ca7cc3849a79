// Package googleauth builds authenticated HTTP clients for Google APIs.
package googleauth

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"golang.org/x/oauth2/google"
)

// OAuthConfig holds the configuration for OAuth 2.0 user authentication
type OAuthConfig struct {
	CredentialsFile string // Path to OAuth client credentials JSON
	TokenFile       string // Path to store/load token
	CallbackPort    int    // Local port for the browser redirect (default 8085)
}

// ServiceAccountClient returns a client authorized with a service account key
func ServiceAccountClient(ctx context.Context, credentialsFile string, scopes ...string) (*http.Client, error) {
	b, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read credentials file: %w", err)
	}

	config, err := google.JWTConfigFromJSON(b, scopes...)
	if err != nil {
		return nil, fmt.Errorf("unable to parse credentials: %w", err)
	}

	return config.Client(ctx), nil
}

// UserClient returns a client authorized as the user, running the browser
// consent flow when no usable token is stored
func UserClient(ctx context.Context, cfg OAuthConfig, scopes ...string) (*http.Client, error) {
	b, err := os.ReadFile(cfg.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read OAuth credentials file: %w", err)
	}

	config, err := google.ConfigFromJSON(b, scopes...)
	if err != nil {
		return nil, fmt.Errorf("unable to parse OAuth credentials: %w", err)
	}

	port := cfg.CallbackPort
	if port == 0 {
		port = defaultCallbackPort
	}

	token, err := getToken(ctx, config, cfg.TokenFile, port)
	if err != nil {
		return nil, fmt.Errorf("unable to get OAuth token: %w", err)
	}

	return config.Client(ctx, token), nil
}
