package googleauth

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const clientJSON = `{"installed":{"client_id":"id.apps.googleusercontent.com","client_secret":"secret","auth_uri":"https://accounts.google.com/o/oauth2/auth","token_uri":"https://oauth2.googleapis.com/token","redirect_uris":["http://localhost"]}}`

func TestClientOptionsNoCredentials(t *testing.T) {
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
	_, err := ClientOptions(context.Background(), Credentials{})
	if !errors.Is(err, ErrNoCredentials) {
		t.Fatalf("expected ErrNoCredentials, got %v", err)
	}
}

func TestClientOptionsEndpoint(t *testing.T) {
	opts, err := ClientOptions(context.Background(), Credentials{Endpoint: "http://127.0.0.1:1/"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(opts) != 2 {
		t.Fatalf("expected endpoint and no-auth options, got %d", len(opts))
	}
}

func TestClientOptionsOAuthFromFiles(t *testing.T) {
	dir := t.TempDir()
	clientFile := filepath.Join(dir, "client.json")
	tokenFile := filepath.Join(dir, "token.json")
	if err := os.WriteFile(clientFile, []byte(clientJSON), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(tokenFile, []byte(`{"access_token":"a","refresh_token":"r","token_type":"Bearer"}`), 0o600); err != nil {
		t.Fatal(err)
	}

	c := Credentials{OAuthClientFile: clientFile, OAuthTokenFile: tokenFile}
	if !c.HasOAuth() || c.HasServiceAccount() {
		t.Fatalf("unexpected detection: %+v", c)
	}
	opts, err := ClientOptions(context.Background(), c, "https://www.googleapis.com/auth/drive")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(opts) != 1 {
		t.Fatalf("expected a token source option, got %d", len(opts))
	}
}

func TestClientOptionsInvalidOAuthClient(t *testing.T) {
	_, err := ClientOptions(context.Background(), Credentials{OAuthClientJSON: "invalid-json", OAuthTokenJSON: `{"access_token":"x"}`})
	if err == nil || !strings.Contains(err.Error(), "oauth config") {
		t.Fatalf("expected oauth config error, got %v", err)
	}
}

func TestClientOptionsMissingServiceAccountFile(t *testing.T) {
	_, err := ClientOptions(context.Background(), Credentials{ServiceAccountFile: filepath.Join(t.TempDir(), "nope.json")})
	if err == nil || !strings.Contains(err.Error(), "service account") {
		t.Fatalf("expected service account error, got %v", err)
	}
}
