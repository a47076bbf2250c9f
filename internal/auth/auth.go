// Package auth manages the OAuth2 credential lifecycle for Google Drive:
//   - Config: paths, client identity and redirect URI (CLI > env > defaults)
//   - Store: the persisted credential record
//   - FlowRunner: the browser + loopback authorization code flow
//   - Session: the in-memory authentication state shared by all Drive calls
package auth

import (
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
)

const (
	// Default config paths
	DefaultConfigDirName = ".credentials"
	DefaultTokenFileName = "token_gdrive_mcp.json"

	// Loopback redirect used when REDIRECT_URI is unset
	DefaultRedirectURL  = "http://localhost:3000"
	DefaultCallbackPort = 3000
	defaultCallbackHost = "localhost"

	// Environment variable names
	EnvConfigDir       = "GDRIVE_MCP_CONFIG_DIR"
	EnvTokenPath       = "GDRIVE_MCP_TOKEN_PATH"
	EnvCredentialsPath = "GDRIVE_MCP_CREDENTIALS_PATH"
	EnvSecretName      = "GDRIVE_MCP_SECRET_NAME"
	EnvSecretProject   = "GDRIVE_MCP_SECRET_PROJECT"
	EnvClientID        = "CLIENT_ID"
	EnvClientSecret    = "CLIENT_SECRET"
	EnvRedirectURI     = "REDIRECT_URI"

	// File permissions
	configDirPerm = 0o700
	tokenFilePerm = 0o600
)

// Scopes requested by the authorization flow.
var Scopes = []string{drive.DriveReadonlyScope, drive.DriveFileScope}

// Options carries values given on the command line. Empty fields fall back to
// the environment and then to defaults.
type Options struct {
	ConfigDir       string
	TokenPath       string
	CredentialsPath string
	ClientID        string
	ClientSecret    string
	RedirectURL     string
	SecretName      string
	SecretProject   string
}

// Config holds the resolved authentication configuration.
type Config struct {
	ConfigDir       string
	TokenPath       string
	CredentialsPath string
	ClientID        string
	ClientSecret    string
	RedirectURL     string
	SecretName      string
	SecretProject   string
}

// NewConfig creates a new Config with priority: CLI args > env vars > defaults.
func NewConfig(opts Options) *Config {
	cfg := &Config{
		CredentialsPath: firstSet(opts.CredentialsPath, os.Getenv(EnvCredentialsPath)),
		ClientID:        firstSet(opts.ClientID, os.Getenv(EnvClientID)),
		ClientSecret:    firstSet(opts.ClientSecret, os.Getenv(EnvClientSecret)),
		RedirectURL:     firstSet(opts.RedirectURL, os.Getenv(EnvRedirectURI), DefaultRedirectURL),
		SecretName:      firstSet(opts.SecretName, os.Getenv(EnvSecretName)),
		SecretProject:   firstSet(opts.SecretProject, os.Getenv(EnvSecretProject)),
	}

	// Determine config directory: CLI > Env > Default
	if dir := firstSet(opts.ConfigDir, os.Getenv(EnvConfigDir)); dir != "" {
		cfg.ConfigDir = dir
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			cfg.ConfigDir = DefaultConfigDirName
		} else {
			cfg.ConfigDir = filepath.Join(home, DefaultConfigDirName)
		}
	}

	cfg.TokenPath = firstSet(opts.TokenPath, os.Getenv(EnvTokenPath))

	return cfg
}

// GetTokenPath returns the credential record path.
func (c *Config) GetTokenPath() string {
	if c.TokenPath != "" {
		return c.TokenPath
	}
	return filepath.Join(c.ConfigDir, DefaultTokenFileName)
}

// ListenAddr returns the host:port the callback listener binds to. The port
// comes from the redirect URI and defaults to 3000 when it has none.
func (c *Config) ListenAddr() string {
	host := defaultCallbackHost
	port := DefaultCallbackPort

	if u, err := url.Parse(c.RedirectURL); err == nil {
		if h := u.Hostname(); h != "" {
			host = h
		}
		if p, err := strconv.Atoi(u.Port()); err == nil && p > 0 {
			port = p
		}
	}

	return net.JoinHostPort(host, strconv.Itoa(port))
}

// CallbackPath returns the HTTP path of the redirect URI.
func (c *Config) CallbackPath() string {
	u, err := url.Parse(c.RedirectURL)
	if err != nil || u.Path == "" {
		return "/"
	}
	return u.Path
}

// OAuthConfig builds the oauth2 configuration for the given client.
func (c *Config) OAuthConfig(creds *ClientCredentials) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		RedirectURL:  c.RedirectURL,
		Scopes:       Scopes,
		Endpoint:     google.Endpoint,
	}
}

func firstSet(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
