// Package cli implements the gdrive-mcp commands.
package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gdrive-mcp/internal/auth"
	"gdrive-mcp/internal/logging"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// globalOptions holds the persistent flags shared by every command.
var globalOptions auth.Options

// SetupRootCommand registers the global flags and the pre-run hook that loads
// .env and configures logging.
func SetupRootCommand(rootCmd *cobra.Command) {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&globalOptions.ConfigDir, "config-dir", "", fmt.Sprintf("Credential directory (env %s, default ~/%s)", auth.EnvConfigDir, auth.DefaultConfigDirName))
	flags.StringVar(&globalOptions.TokenPath, "token-path", "", fmt.Sprintf("Token file path (env %s, default <config-dir>/%s)", auth.EnvTokenPath, auth.DefaultTokenFileName))
	flags.StringVar(&globalOptions.CredentialsPath, "credentials-file", "", fmt.Sprintf("Google OAuth client credentials JSON (env %s)", auth.EnvCredentialsPath))
	flags.StringVar(&globalOptions.ClientID, "client-id", "", fmt.Sprintf("OAuth client ID (env %s)", auth.EnvClientID))
	flags.StringVar(&globalOptions.ClientSecret, "client-secret", "", fmt.Sprintf("OAuth client secret (env %s)", auth.EnvClientSecret))
	flags.StringVar(&globalOptions.RedirectURL, "redirect-uri", "", fmt.Sprintf("OAuth redirect URI (env %s, default %s)", auth.EnvRedirectURI, auth.DefaultRedirectURL))
	flags.StringVar(&globalOptions.SecretName, "secret-name", "", fmt.Sprintf("GCP Secret Manager secret holding the OAuth client (env %s)", auth.EnvSecretName))
	flags.StringVar(&globalOptions.SecretProject, "secret-project", "", fmt.Sprintf("GCP project ID for Secret Manager (env %s)", auth.EnvSecretProject))

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if err := loadDotEnv(); err != nil {
			return err
		}
		logging.Setup(os.Stderr)
		return nil
	}
}

// loadDotEnv loads .env from the working directory. Existing environment
// variables are not overridden and a missing file is not an error.
func loadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

// newConfig resolves the configuration once flags and .env are loaded.
func newConfig() *auth.Config {
	return auth.NewConfig(globalOptions)
}
