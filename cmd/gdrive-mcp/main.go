// Package main is the entry point for the gdrive-mcp command.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"gdrive-mcp/internal/cli"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "gdrive-mcp",
		Short: "Google Drive MCP server",
		Long: `An MCP (Model Context Protocol) server that lets AI assistants upload and
update Google Drive files, plus commands to manage its Google credential.

Without a subcommand the MCP server starts on stdio.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Setup global flags and pre-run hook
	cli.SetupRootCommand(rootCmd)

	// Add subcommands
	rootCmd.AddCommand(cli.MCPCmd())
	rootCmd.AddCommand(cli.AuthCmd())
	rootCmd.AddCommand(cli.UploadCmd())
	rootCmd.AddCommand(cli.UpdateCmd())

	// MCP clients launch the binary without arguments
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
