package main

import (
	"fmt"
	"os"

	"github.com/doclink-ai/doclink/internal/cli"
	"github.com/doclink-ai/doclink/internal/cli/admin"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "doclinkd",
		Short: "Doclink daemon and admin CLI",
		Long:  "Doclink daemon for running the API server and managing user accounts",
	}

	cli.AddHelpJSONFlag(rootCmd)
	rootCmd.AddCommand(admin.ServeCmd())
	rootCmd.AddCommand(admin.UserCmd())

	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
