package main

import (
	"fmt"
	"os"

	"github.com/doclink-ai/doclink/internal/cli"
	"github.com/doclink-ai/doclink/internal/cli/client"
	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "doclink",
		Short: "Doclink CLI - Ask questions about your documents",
		Long: `Doclink CLI provides commands to upload documents and ask questions about them.

Environment variables:
  DOCLINK_TOKEN     Access token for authentication (required)
  DOCLINK_API_URL   API base URL (default: http://localhost:8080)`,
		Version: version,
	}

	rootCmd.PersistentFlags().Bool("output", false, "Output as JSON")
	rootCmd.PersistentFlags().String("token", "", "Access token for authentication (overrides env and config)")
	rootCmd.PersistentFlags().String("api-url", "", "API base URL (overrides env and config)")
	cli.AddHelpJSONFlag(rootCmd)

	rootCmd.AddCommand(client.LoginCmd())
	rootCmd.AddCommand(client.LogoutCmd())
	rootCmd.AddCommand(client.WhoamiCmd())
	rootCmd.AddCommand(client.DomainCmd())
	rootCmd.AddCommand(client.UploadCmd())
	rootCmd.AddCommand(client.AskCmd())

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
