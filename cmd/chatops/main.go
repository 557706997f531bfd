package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "chatops",
		Short: "Maintenance commands for the classifieds messaging backend",
		Long: `chatops talks to the same Firestore project and staging store as the API
server, using the same environment configuration (.env is honoured).`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(CleanupCmd())
	rootCmd.AddCommand(SweepStagingCmd())
	rootCmd.AddCommand(ConversationsCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
