// ABOUTME: Root command and global flags for the edurag CLI
// ABOUTME: Wires every subcommand and loads .env before any of them run
package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	verbose      bool
	quiet        bool
	outputFormat string
)

const banner = `
███████╗██████╗ ██╗   ██╗██████╗  █████╗  ██████╗
██╔════╝██╔══██╗██║   ██║██╔══██╗██╔══██╗██╔════╝
█████╗  ██║  ██║██║   ██║██████╔╝███████║██║  ███╗
██╔══╝  ██║  ██║██║   ██║██╔══██╗██╔══██║██║   ██║
███████╗██████╔╝╚██████╔╝██║  ██║██║  ██║╚██████╔╝
╚══════╝╚═════╝  ╚═════╝ ╚═╝  ╚═╝╚═╝  ╚═╝ ╚═════╝`

// NewRootCmd creates the root command with all subcommands attached
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edurag",
		Short: "Answer questions from your course materials",
		Long: banner + `

edurag turns uploaded PDFs and notes into a searchable knowledge base
and answers educational questions grounded only in that material.
Off-topic questions are politely refused; every answer cites its
sources and carries a confidence score.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// .env is optional
			_ = godotenv.Load()
		},
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	cmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress non-essential output")
	cmd.PersistentFlags().StringVar(&outputFormat, "format", "auto", "Output format: auto, json, table")
	cmd.MarkFlagsMutuallyExclusive("verbose", "quiet")

	cmd.AddCommand(NewIngestCmd())
	cmd.AddCommand(NewAskCmd())
	cmd.AddCommand(NewSearchCmd())
	cmd.AddCommand(NewDeleteCmd())
	cmd.AddCommand(NewClearCmd())
	cmd.AddCommand(NewStatsCmd())
	cmd.AddCommand(NewChatCmd())
	cmd.AddCommand(NewMCPCmd())
	cmd.AddCommand(NewSyncCmd())
	cmd.AddCommand(NewExportCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command, cancelling its context on SIGINT or SIGTERM
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return NewRootCmd().ExecuteContext(ctx)
}
