package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	secretmanagerpb "cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
)

// ClientCredentials holds the Google OAuth client credentials.
type ClientCredentials struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

// defaultCredentialFiles are looked up in the working directory as a last resort.
var defaultCredentialFiles = []string{"credentials.json", "google_credentials.json"}

// LoadClientCredentials resolves the OAuth client. Explicit id/secret win,
// then Secret Manager, then a credentials file.
func LoadClientCredentials(ctx context.Context, cfg *Config) (*ClientCredentials, error) {
	if cfg.ClientID != "" && cfg.ClientSecret != "" {
		return &ClientCredentials{ClientID: cfg.ClientID, ClientSecret: cfg.ClientSecret}, nil
	}

	// Try Secret Manager first
	if cfg.SecretName != "" && cfg.SecretProject != "" {
		creds, err := loadFromSecretManager(ctx, cfg.SecretName, cfg.SecretProject)
		if err != nil {
			slog.Warn("failed to load credentials from Secret Manager, trying local file",
				"error", err, "secret_name", cfg.SecretName)
		} else {
			slog.Info("loaded OAuth credentials from Secret Manager", "secret_name", cfg.SecretName)
			return creds, nil
		}
	}

	// Fall back to local file
	if cfg.CredentialsPath != "" {
		return loadFromFile(cfg.CredentialsPath)
	}

	// Try default locations
	for _, path := range defaultCredentialFiles {
		if _, err := os.Stat(path); err == nil {
			return loadFromFile(path)
		}
	}

	return nil, fmt.Errorf("no OAuth client credentials found: set %s/%s, --secret-name/--secret-project or --credentials-file",
		EnvClientID, EnvClientSecret)
}

func loadFromSecretManager(ctx context.Context, secretName, projectID string) (*ClientCredentials, error) {
	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create secret manager client: %w", err)
	}
	defer client.Close()

	name := fmt.Sprintf("projects/%s/secrets/%s/versions/latest", projectID, secretName)
	result, err := client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: name,
	})
	if err != nil {
		return nil, fmt.Errorf("access secret %s: %w", name, err)
	}

	return parseCredentials(result.GetPayload().GetData())
}

func loadFromFile(path string) (*ClientCredentials, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read credential file %s: %w", path, err)
	}

	slog.Info("loaded OAuth credentials from local file", "path", path)
	return parseCredentials(data)
}

// parseCredentials accepts the Google console download ({"web": {...}} or
// {"installed": {...}}) as well as a flat {"client_id", "client_secret"} object.
func parseCredentials(data []byte) (*ClientCredentials, error) {
	var wrapper struct {
		Web       ClientCredentials `json:"web"`
		Installed ClientCredentials `json:"installed"`
	}
	if err := json.Unmarshal(data, &wrapper); err == nil {
		if wrapper.Web.ClientID != "" {
			return &wrapper.Web, nil
		}
		if wrapper.Installed.ClientID != "" {
			return &wrapper.Installed, nil
		}
	}

	var creds ClientCredentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}
	if creds.ClientID == "" || creds.ClientSecret == "" {
		return nil, fmt.Errorf("credentials missing client_id or client_secret")
	}
	return &creds, nil
}
