package cli

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"gdrive-mcp/internal/auth"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// AuthCmd returns the credential management commands.
func AuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage the stored Google credential",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "login",
		Short: "Run the browser authorization flow and store a new credential",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := newConfig()
			session, err := newSession(cmd.Context(), cfg, slog.Default())
			if err != nil {
				return err
			}

			cred, err := session.Authorize(cmd.Context())
			if err != nil {
				return fmt.Errorf("authorization failed: %w", err)
			}

			out := cmd.OutOrStdout()
			color.New(color.FgGreen).Fprintln(out, "✓ Authorization completed and token saved.")
			fmt.Fprintf(out, "  Token:  %s\n", cfg.GetTokenPath())
			fmt.Fprintf(out, "  Scopes: %s\n", strings.Join(cred.Scopes, ", "))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show the stored credential",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := newConfig()
			store := auth.NewStore(cfg.GetTokenPath(), slog.Default())
			printStatus(cmd.OutOrStdout(), store.Path(), store.Load(), time.Now())
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "logout",
		Short: "Delete the stored credential",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := newConfig()
			store := auth.NewStore(cfg.GetTokenPath(), slog.Default())
			if err := store.Delete(); err != nil {
				return err
			}
			color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "✓ Credential removed: %s\n", store.Path())
			return nil
		},
	})

	return cmd
}

func printStatus(out io.Writer, path string, cred *auth.Credential, now time.Time) {
	color.New(color.FgCyan).Fprintln(out, "Google Drive credential:")
	fmt.Fprintf(out, "  Path:          %s\n", path)

	if cred == nil {
		fmt.Fprintf(out, "  Authenticated: %s\n", color.RedString("no"))
		return
	}
	fmt.Fprintf(out, "  Authenticated: %s\n", color.GreenString("yes"))

	switch {
	case cred.Expiry.IsZero():
		fmt.Fprintln(out, "  Expiry:        unknown")
	case cred.Expiry.Before(now):
		fmt.Fprintf(out, "  Expiry:        %s %s\n", cred.Expiry.Format(time.RFC3339), color.YellowString("(expired, will refresh)"))
	default:
		fmt.Fprintf(out, "  Expiry:        %s\n", cred.Expiry.Format(time.RFC3339))
	}

	refresh := "no"
	if cred.RefreshToken != "" {
		refresh = "yes"
	}
	fmt.Fprintf(out, "  Refreshable:   %s\n", refresh)

	scopes := "N/A"
	if len(cred.Scopes) > 0 {
		scopes = strings.Join(cred.Scopes, ", ")
	}
	fmt.Fprintf(out, "  Scopes:        %s\n", scopes)
}
