// Package cmd defines and implements the CLI commands for the docfold executable.
package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/docfold/docfold/internal/pipeline"
	"github.com/docfold/docfold/pkg/config"
)

// Exit codes distinguishing the two fatal pipeline conditions.
const (
	exitNoURLs  = 2
	exitNoPages = 3
)

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "docfold",
		Short: "Fold a documentation website into a single bookmarked PDF.",
		Long: `docfold discovers the pages of a documentation site (via its sitemap or a
same-domain crawl), renders each page to PDF with headless Chrome, and merges
the results into one document with a navigable bookmark per source page.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cobra.OnInitialize(config.InitConfig)

	cmd.AddCommand(newBuildCmd())

	return cmd
}

// Execute is the main entry point. The two fatal pipeline conditions map to
// distinct exit codes so callers can tell "nothing discovered" from "nothing
// rendered".
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		switch {
		case errors.Is(err, pipeline.ErrNoURLs):
			os.Exit(exitNoURLs)
		case errors.Is(err, pipeline.ErrNoPages):
			os.Exit(exitNoPages)
		default:
			os.Exit(1)
		}
	}
}
