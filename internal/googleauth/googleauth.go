// Package googleauth builds Google API client options from service-account or OAuth
// user credentials, given inline or as files.
package googleauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
)

// ErrNoCredentials reports that no credential source was configured.
var ErrNoCredentials = errors.New("missing Google credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, GOOGLE_APPLICATION_CREDENTIALS or the GOOGLE_OAUTH_* pair)")

// Credentials lists the supported sources. Service-account credentials win over OAuth.
type Credentials struct {
	ServiceAccountJSON string
	ServiceAccountFile string

	OAuthClientJSON string
	OAuthClientFile string
	OAuthTokenJSON  string
	OAuthTokenFile  string

	// Endpoint overrides the API base URL and disables authentication (emulators, tests).
	Endpoint string
}

// HasServiceAccount reports whether a service-account source is set.
func (c Credentials) HasServiceAccount() bool {
	return c.ServiceAccountJSON != "" || c.ServiceAccountFile != ""
}

// HasOAuth reports whether both halves of the OAuth pair are set.
func (c Credentials) HasOAuth() bool {
	return (c.OAuthClientJSON != "" || c.OAuthClientFile != "") &&
		(c.OAuthTokenJSON != "" || c.OAuthTokenFile != "")
}

// ClientOptions returns the options for a Google API client with the given scopes.
func ClientOptions(ctx context.Context, c Credentials, scopes ...string) ([]option.ClientOption, error) {
	if c.Endpoint != "" {
		return []option.ClientOption{option.WithEndpoint(c.Endpoint), option.WithoutAuthentication()}, nil
	}

	if c.ServiceAccountJSON == "" && c.ServiceAccountFile == "" && !c.HasOAuth() {
		c.ServiceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	switch {
	case c.HasServiceAccount():
		credentialsJSON, err := inlineOrFile(c.ServiceAccountJSON, c.ServiceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("service account: %w", err)
		}
		creds, err := google.CredentialsFromJSON(ctx, credentialsJSON, scopes...)
		if err != nil {
			return nil, fmt.Errorf("service account: %w", err)
		}
		return []option.ClientOption{option.WithCredentials(creds)}, nil

	case c.HasOAuth():
		ts, err := OAuthTokenSource(ctx, c, scopes...)
		if err != nil {
			return nil, err
		}
		return []option.ClientOption{option.WithTokenSource(ts)}, nil

	default:
		return nil, ErrNoCredentials
	}
}

// OAuthTokenSource returns a refreshing token source for a stored user token.
func OAuthTokenSource(ctx context.Context, c Credentials, scopes ...string) (oauth2.TokenSource, error) {
	cfg, err := OAuthConfig(c, scopes...)
	if err != nil {
		return nil, err
	}
	tokenJSON, err := inlineOrFile(c.OAuthTokenJSON, c.OAuthTokenFile)
	if err != nil {
		return nil, fmt.Errorf("oauth token: %w", err)
	}
	var tok oauth2.Token
	if err := json.Unmarshal(tokenJSON, &tok); err != nil {
		return nil, fmt.Errorf("oauth token: %w", err)
	}
	return cfg.TokenSource(ctx, &tok), nil
}

// OAuthConfig parses the OAuth client ("installed" or "web") credentials.
func OAuthConfig(c Credentials, scopes ...string) (*oauth2.Config, error) {
	clientJSON, err := inlineOrFile(c.OAuthClientJSON, c.OAuthClientFile)
	if err != nil {
		return nil, fmt.Errorf("oauth client: %w", err)
	}
	cfg, err := google.ConfigFromJSON(clientJSON, scopes...)
	if err != nil {
		return nil, fmt.Errorf("oauth config: %w", err)
	}
	return cfg, nil
}

func inlineOrFile(inline, path string) ([]byte, error) {
	if s := strings.TrimSpace(inline); s != "" {
		return []byte(s), nil
	}
	if path == "" {
		return nil, errors.New("not configured")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return b, nil
}
